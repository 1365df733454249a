package chunking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/studygraph-backend/internal/platform/logger"
)

// StructureDetector scans raw textbook text line by line and emits ordered
// heading elements with confidence scores. Pure CPU work; never suspends.
type StructureDetector struct {
	cfg DetectorConfig
	log *logger.Logger
}

func NewStructureDetector(cfg DetectorConfig, baseLog *logger.Logger) *StructureDetector {
	return &StructureDetector{cfg: cfg, log: baseLog.With("component", "StructureDetector")}
}

type headingPattern struct {
	re       *regexp.Regexp
	elemType string
	level    int // -1 derives the level from the captured number depth
	baseConf float64
}

var chapterPatterns = []headingPattern{
	{regexp.MustCompile(`^\s*(?:CHAPTER|Chapter)\s+(\d+)\s*[:.\-]?\s*(.*)$`), ElementChapter, 0, 0.95},
	{regexp.MustCompile(`^\s*(?:Unit|Part|Lesson|Module)\s+(\d+)\s*[:.\-]?\s*(.*)$`), ElementChapter, 0, 0.85},
	{regexp.MustCompile(`^\s*(?:CHAPTER|Chapter)\s+([IVXLCDM]+)\s*[:.\-]?\s*(.*)$`), ElementChapter, 0, 0.9},
	{regexp.MustCompile(`^\s*(\d{1,2})\.\s+([A-Z][^.!?]{2,60})\s*$`), ElementChapter, 0, 0.6},
}

var sectionPatterns = []headingPattern{
	{regexp.MustCompile(`^\s*(\d+\.\d+\.\d+\.\d+)\s*[:.]?\s+(.+)$`), ElementSubsubsection, 3, 0.8},
	{regexp.MustCompile(`^\s*(\d+\.\d+\.\d+)\s*[:.]?\s+(.+)$`), ElementSubsection, 2, 0.85},
	{regexp.MustCompile(`^\s*(\d+\.\d+)\s*[:.]?\s+(.+)$`), ElementSection, 1, 0.85},
	{regexp.MustCompile(`^\s*Section\s+(\d+(?:\.\d+)*)\s*[:.]?\s*(.*)$`), ElementSection, -1, 0.8},
	{regexp.MustCompile(`^\s*Subsection\s+(\d+(?:\.\d+)*)\s*[:.]?\s*(.*)$`), ElementSubsection, -1, 0.8},
	{regexp.MustCompile(`^\s*([A-Z])\.\s+([A-Z].{2,60})$`), ElementSection, 1, 0.5},
	{regexp.MustCompile(`^\s*([ivxl]+)\.\s+(.{3,60})$`), ElementSection, 1, 0.5},
}

var boldHeadingRe = regexp.MustCompile(`^\s*(?:\*\*(.{3,70}?)\*\*|__(.{3,70}?)__)\s*$`)
var allCapsHeadingRe = regexp.MustCompile(`^\s*([A-Z][A-Z0-9 \-:,']{3,60})\s*$`)

var headingKeywords = regexp.MustCompile(`\b(introduction|overview|summary|conclusion|review|exercises|preface|fundamentals|basics|applications|theory|methods)\b`)

// Detect parses text into ordered structure elements plus the derived
// hierarchy rollup. Empty input yields zero elements and a warning.
func (d *StructureDetector) Detect(text string) *DetectionResult {
	started := time.Now()
	result := &DetectionResult{
		Hierarchy: Hierarchy{Totals: map[string]int{}},
	}

	if strings.TrimSpace(text) == "" {
		result.Warnings = append(result.Warnings, "empty text: no structure detected")
		result.Stats.Elapsed = time.Since(started)
		return result
	}

	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmedLen := len(line)
		if elem, ok := d.matchLine(strings.TrimRight(line, "\n"), offset); ok {
			result.Elements = append(result.Elements, elem)
		}
		offset += trimmedLen
		result.Stats.LineCount++
	}

	d.assignLevels(result.Elements)
	d.assignEndOffsets(result.Elements, len(text))

	for i := range result.Elements {
		result.Hierarchy.Totals[result.Elements[i].Type]++
		if result.Elements[i].Level > result.Hierarchy.MaxDepth {
			result.Hierarchy.MaxDepth = result.Elements[i].Level
		}
	}
	result.Stats.ElementCount = len(result.Elements)
	result.Stats.ChapterCount = result.Hierarchy.Totals[ElementChapter]
	result.Stats.SectionCount = result.Hierarchy.Totals[ElementSection] +
		result.Hierarchy.Totals[ElementSubsection] +
		result.Hierarchy.Totals[ElementSubsubsection]

	result.Hierarchy.NumberingConsistency = numberingConsistency(result.Elements)
	result.Hierarchy.OverallConfidence = meanConfidence(result.Elements)
	result.Hierarchy.QualityScore = d.qualityScore(result)

	if result.Stats.ChapterCount == 0 {
		result.Warnings = append(result.Warnings, "no chapters detected")
	} else if result.Stats.ChapterCount < d.cfg.MinChapters {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("only %d chapters detected (minimum %d)", result.Stats.ChapterCount, d.cfg.MinChapters))
	}
	if result.Hierarchy.QualityScore < d.cfg.QualityThreshold {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("structure quality %.2f below threshold %.2f", result.Hierarchy.QualityScore, d.cfg.QualityThreshold))
	}
	if result.Hierarchy.MaxDepth > 4 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("deeply nested structure (depth %d); processing anyway", result.Hierarchy.MaxDepth))
	}

	result.Stats.Elapsed = time.Since(started)
	return result
}

func (d *StructureDetector) matchLine(line string, offset int) (StructureElement, bool) {
	if strings.TrimSpace(line) == "" {
		return StructureElement{}, false
	}

	for _, p := range chapterPatterns {
		if m := p.re.FindStringSubmatch(line); m != nil {
			return buildElement(p, m[1], m[2], offset), true
		}
	}
	for _, p := range sectionPatterns {
		if m := p.re.FindStringSubmatch(line); m != nil {
			return buildElement(p, m[1], m[2], offset), true
		}
	}
	if m := boldHeadingRe.FindStringSubmatch(line); m != nil {
		title := m[1]
		if title == "" {
			title = m[2]
		}
		return buildElement(headingPattern{elemType: ElementHeading, level: 1, baseConf: 0.55}, "", title, offset), true
	}
	if m := allCapsHeadingRe.FindStringSubmatch(line); m != nil && len(strings.Fields(m[1])) <= 8 {
		return buildElement(headingPattern{elemType: ElementHeading, level: 1, baseConf: 0.5}, "", m[1], offset), true
	}
	if isTitleCaseHeading(line) {
		return buildElement(headingPattern{elemType: ElementHeading, level: 1, baseConf: 0.4}, "", strings.TrimSpace(line), offset), true
	}
	return StructureElement{}, false
}

func buildElement(p headingPattern, number, title string, offset int) StructureElement {
	level := p.level
	if level < 0 {
		level = numberDepth(number)
		if p.elemType == ElementSubsection && level < 2 {
			level = 2
		}
	}
	return StructureElement{
		Type:           p.elemType,
		Level:          level,
		Number:         strings.TrimSpace(number),
		Title:          strings.TrimSpace(title),
		StartOffset:    offset,
		EndOffset:      -1,
		NumberingStyle: inferNumberingStyle(number),
		Confidence:     adjustConfidence(p.baseConf, title, number),
	}
}

// numberDepth maps "3" -> 1, "3.2" -> 1, "3.2.1" -> 2, deeper -> 3.
func numberDepth(number string) int {
	dots := strings.Count(number, ".")
	switch {
	case dots <= 1:
		return 1
	case dots == 2:
		return 2
	default:
		return 3
	}
}

func inferNumberingStyle(number string) string {
	n := strings.TrimSpace(number)
	if n == "" {
		return NumberingNone
	}
	if strings.Contains(n, ".") {
		return NumberingDecimal
	}
	if _, err := strconv.Atoi(n); err == nil {
		return NumberingArabic
	}
	if regexp.MustCompile(`^[IVXLCDMivxlcdm]+$`).MatchString(n) {
		return NumberingRoman
	}
	if len(n) == 1 && n[0] >= 'A' && n[0] <= 'Z' {
		return NumberingLetter
	}
	return NumberingNone
}

func adjustConfidence(base float64, title, number string) float64 {
	c := base
	t := strings.TrimSpace(title)
	if l := len(t); l >= 3 && l <= 80 {
		c += 0.05
	} else {
		c -= 0.1
	}
	if headingKeywords.MatchString(strings.ToLower(t)) {
		c += 0.1
	}
	if number != "" && parseableNumber(number) {
		c += 0.05
	}
	return clamp01(c)
}

func parseableNumber(number string) bool {
	n := strings.TrimSpace(number)
	if n == "" {
		return false
	}
	for _, part := range strings.Split(n, ".") {
		if _, err := strconv.Atoi(part); err == nil {
			continue
		}
		if romanValue(part) > 0 {
			continue
		}
		if len(part) == 1 && ((part[0] >= 'A' && part[0] <= 'Z') || (part[0] >= 'a' && part[0] <= 'z')) {
			continue
		}
		return false
	}
	return true
}

func romanValue(s string) int {
	values := map[byte]int{'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000}
	upper := strings.ToUpper(s)
	total, prev := 0, 0
	for i := len(upper) - 1; i >= 0; i-- {
		v, ok := values[upper[i]]
		if !ok {
			return 0
		}
		if v < prev {
			total -= v
		} else {
			total += v
			prev = v
		}
	}
	return total
}

func isTitleCaseHeading(line string) bool {
	t := strings.TrimSpace(line)
	if len(t) < 4 || len(t) > 70 {
		return false
	}
	if strings.HasSuffix(t, ".") || strings.HasSuffix(t, ",") || strings.HasSuffix(t, ";") {
		return false
	}
	words := strings.Fields(t)
	if len(words) < 2 || len(words) > 8 {
		return false
	}
	minor := map[string]bool{"a": true, "an": true, "the": true, "of": true, "in": true, "and": true, "or": true, "to": true, "for": true, "with": true}
	for i, w := range words {
		r := rune(w[0])
		if r >= 'A' && r <= 'Z' {
			continue
		}
		if i > 0 && minor[strings.ToLower(w)] {
			continue
		}
		return false
	}
	return true
}

// assignLevels raises non-chapter levels so they stay strictly greater than
// the level of the preceding chapter.
func (d *StructureDetector) assignLevels(elements []StructureElement) {
	lastChapterLevel := -1
	for i := range elements {
		if elements[i].Type == ElementChapter {
			lastChapterLevel = elements[i].Level
			continue
		}
		if lastChapterLevel >= 0 && elements[i].Level <= lastChapterLevel {
			if elements[i].Level < 1 {
				elements[i].Level = 1
			}
			elements[i].Level += lastChapterLevel
		}
	}
}

// assignEndOffsets closes each element at the start of the next element with
// the same or higher (numerically lower-or-equal) level, or document end.
func (d *StructureDetector) assignEndOffsets(elements []StructureElement, textLen int) {
	for i := range elements {
		elements[i].EndOffset = textLen
		for j := i + 1; j < len(elements); j++ {
			if elements[j].Level <= elements[i].Level {
				elements[i].EndOffset = elements[j].StartOffset
				break
			}
		}
	}
}

// numberingConsistency groups elements by (type, level) and averages the
// frequency of each group's dominant numbering style.
func numberingConsistency(elements []StructureElement) float64 {
	type groupKey struct {
		elemType string
		level    int
	}
	groups := map[groupKey]map[string]int{}
	for _, e := range elements {
		key := groupKey{e.Type, e.Level}
		if groups[key] == nil {
			groups[key] = map[string]int{}
		}
		groups[key][e.NumberingStyle]++
	}
	if len(groups) == 0 {
		return 0
	}
	sum := 0.0
	for _, styles := range groups {
		total, dominant := 0, 0
		for _, n := range styles {
			total += n
			if n > dominant {
				dominant = n
			}
		}
		sum += float64(dominant) / float64(total)
	}
	return sum / float64(len(groups))
}

func meanConfidence(elements []StructureElement) float64 {
	if len(elements) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range elements {
		sum += e.Confidence
	}
	return sum / float64(len(elements))
}

func (d *StructureDetector) qualityScore(result *DetectionResult) float64 {
	score := 0.6*result.Hierarchy.OverallConfidence + 0.2*result.Hierarchy.NumberingConsistency
	if result.Stats.ChapterCount >= d.cfg.MinChapters {
		score += 0.1
	}
	if result.Stats.ChapterCount > 0 {
		ratio := float64(result.Stats.SectionCount) / float64(result.Stats.ChapterCount)
		if ratio >= 1 && ratio <= 10 {
			score += 0.1
		}
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
