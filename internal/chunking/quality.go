package chunking

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/yungbote/studygraph-backend/internal/platform/logger"
)

// Assessment is the quality assessor's verdict on a detection result.
type Assessment struct {
	Overall     float64            `json:"overall"`
	Strategy    string             `json:"strategy"`
	Confidence  float64            `json:"confidence"`
	Factors     map[string]float64 `json:"factors"`
	Warnings    []string           `json:"warnings,omitempty"`
	Suggestions []string           `json:"suggestions,omitempty"`
}

// QualityAssessor scores detected structure and picks the chunking strategy.
type QualityAssessor struct {
	cfg DetectorConfig
	log *logger.Logger
}

func NewQualityAssessor(cfg DetectorConfig, baseLog *logger.Logger) *QualityAssessor {
	return &QualityAssessor{cfg: cfg, log: baseLog.With("component", "QualityAssessor")}
}

func (a *QualityAssessor) Assess(detection *DetectionResult) *Assessment {
	out := &Assessment{Factors: map[string]float64{}}
	if detection == nil || len(detection.Elements) == 0 {
		out.Strategy = StrategyFallback
		out.Confidence = 0.1
		out.Warnings = append(out.Warnings, "no structure elements; falling back to boundary-aware chunking")
		return out
	}

	heading := a.headingConsistency(detection)
	boundaries := a.chapterBoundaries(detection)
	organization := a.sectionOrganization(detection)
	hierarchy := a.hierarchyLogic(detection)

	out.Factors["heading_consistency"] = heading
	out.Factors["chapter_boundaries"] = boundaries
	out.Factors["section_organization"] = organization
	out.Factors["hierarchy_logic"] = hierarchy

	out.Overall = 0.4*heading + 0.3*boundaries + 0.2*organization + 0.1*hierarchy

	threshold := a.cfg.StrategyThreshold
	switch {
	case math.Abs(out.Overall-threshold) < 0.1:
		out.Strategy = StrategyHybrid
	case out.Overall >= threshold:
		out.Strategy = StrategyContentAware
	default:
		out.Strategy = StrategyFallback
	}

	out.Confidence = out.Overall
	if detection.Stats.ChapterCount < a.cfg.MinChapters {
		out.Confidence -= 0.2
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("chapter count %d below minimum %d", detection.Stats.ChapterCount, a.cfg.MinChapters))
	}
	if detection.Hierarchy.NumberingConsistency < 0.5 {
		out.Confidence -= 0.2
		out.Suggestions = append(out.Suggestions, "normalize heading numbering styles for better structure detection")
	}
	if out.Confidence < 0.1 {
		out.Confidence = 0.1
	}

	if heading < 0.5 {
		out.Suggestions = append(out.Suggestions, "headings are inconsistent; consider the fallback strategy")
	}
	if organization < 0.4 {
		out.Suggestions = append(out.Suggestions, "section organization is weak; chunk boundaries may ignore structure")
	}
	return out
}

// headingConsistency: numbering-style consistency, level appropriateness,
// title-format cohesion and sequential-numbering rate, averaged.
func (a *QualityAssessor) headingConsistency(d *DetectionResult) float64 {
	styles := numberingConsistency(d.Elements)

	expected := map[string]int{
		ElementChapter:       0,
		ElementSection:       1,
		ElementSubsection:    2,
		ElementSubsubsection: 3,
	}
	appropriate, considered := 0, 0
	for _, e := range d.Elements {
		want, ok := expected[e.Type]
		if !ok {
			continue
		}
		considered++
		if e.Level == want {
			appropriate++
		}
	}
	levelScore := 1.0
	if considered > 0 {
		levelScore = float64(appropriate) / float64(considered)
	}

	formats := map[string]int{}
	for _, e := range d.Elements {
		formats[titleFormat(e.Title)]++
	}
	dominant := 0
	for _, n := range formats {
		if n > dominant {
			dominant = n
		}
	}
	formatScore := float64(dominant) / float64(len(d.Elements))

	seqScore := sequentialNumberingRate(d.Elements)

	return (styles + levelScore + formatScore + seqScore) / 4
}

func titleFormat(title string) string {
	t := strings.TrimSpace(title)
	if t == "" {
		return "empty"
	}
	if t == strings.ToUpper(t) && t != strings.ToLower(t) {
		return "caps"
	}
	if isTitleCaseHeading(t) {
		return "titlecase"
	}
	return "sentence"
}

func sequentialNumberingRate(elements []StructureElement) float64 {
	type groupKey struct {
		elemType string
		level    int
	}
	groups := map[groupKey][]int{}
	for _, e := range elements {
		n := lastNumberSegment(e.Number)
		if n < 0 {
			continue
		}
		key := groupKey{e.Type, e.Level}
		groups[key] = append(groups[key], n)
	}
	pairs, sequential := 0, 0
	for _, nums := range groups {
		for i := 1; i < len(nums); i++ {
			pairs++
			if nums[i] == nums[i-1]+1 {
				sequential++
			}
		}
	}
	if pairs == 0 {
		return 0.5
	}
	return float64(sequential) / float64(pairs)
}

func lastNumberSegment(number string) int {
	n := strings.TrimSpace(number)
	if n == "" {
		return -1
	}
	parts := strings.Split(n, ".")
	v, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		if rv := romanValue(parts[len(parts)-1]); rv > 0 {
			return rv
		}
		return -1
	}
	return v
}

// chapterBoundaries: chapter count vs minimum, spacing consistency, title
// quality and length uniformity.
func (a *QualityAssessor) chapterBoundaries(d *DetectionResult) float64 {
	chapters := make([]StructureElement, 0)
	for _, e := range d.Elements {
		if e.Type == ElementChapter {
			chapters = append(chapters, e)
		}
	}
	if len(chapters) == 0 {
		return 0
	}

	countScore := math.Min(float64(len(chapters))/float64(a.cfg.MinChapters), 1)

	spacingScore := 1.0
	if len(chapters) > 2 {
		gaps := make([]float64, 0, len(chapters)-1)
		for i := 1; i < len(chapters); i++ {
			gaps = append(gaps, float64(chapters[i].StartOffset-chapters[i-1].StartOffset))
		}
		mean, variance := meanVariance(gaps)
		if mean > 0 {
			spacingScore = 1 / (1 + variance/mean)
		}
	}

	titleSum := 0.0
	for _, c := range chapters {
		titleSum += chapterTitleQuality(c.Title)
	}
	titleScore := titleSum / float64(len(chapters))

	lengthScore := 1.0
	if len(chapters) > 1 {
		lengths := make([]float64, 0, len(chapters))
		for _, c := range chapters {
			if c.EndOffset > c.StartOffset {
				lengths = append(lengths, float64(c.EndOffset-c.StartOffset))
			}
		}
		if cv := coefficientOfVariation(lengths); cv > 0 {
			lengthScore = 1 / (1 + cv)
		}
	}

	return (countScore + spacingScore + titleScore + lengthScore) / 4
}

func chapterTitleQuality(title string) float64 {
	t := strings.TrimSpace(title)
	score := 0.0
	if l := len(t); l >= 3 && l <= 60 {
		score += 0.4
	} else if l > 0 {
		score += 0.2
	}
	if t != "" && t[0] >= 'A' && t[0] <= 'Z' {
		score += 0.3
	}
	if headingKeywords.MatchString(strings.ToLower(t)) {
		score += 0.3
	}
	return clamp01(score)
}

// sectionOrganization: sections-per-chapter in 1..5, depth appropriateness,
// subsection ratio and length balance.
func (a *QualityAssessor) sectionOrganization(d *DetectionResult) float64 {
	chapterCount := d.Hierarchy.Totals[ElementChapter]
	sectionCount := d.Hierarchy.Totals[ElementSection]
	subsectionCount := d.Hierarchy.Totals[ElementSubsection] + d.Hierarchy.Totals[ElementSubsubsection]

	distScore := 0.5
	if chapterCount > 0 {
		perChapter := float64(sectionCount) / float64(chapterCount)
		if perChapter >= 1 && perChapter <= 5 {
			distScore = 1
		} else if perChapter > 5 {
			distScore = 5 / perChapter
		} else {
			distScore = perChapter
		}
	}

	depthScore := 0.3
	switch d.Hierarchy.MaxDepth {
	case 2, 3:
		depthScore = 1
	case 1:
		depthScore = 0.7
	case 4:
		depthScore = 0.6
	case 0:
		depthScore = 0.4
	}

	ratioScore := 1.0
	if sectionCount > 0 {
		ratio := float64(subsectionCount) / float64(sectionCount)
		if ratio > 1 {
			ratioScore = 1 / ratio
		}
	} else if subsectionCount > 0 {
		ratioScore = 0
	}

	balanceScore := 1.0
	lengths := make([]float64, 0)
	for _, e := range d.Elements {
		if e.Type == ElementSection && e.EndOffset > e.StartOffset {
			lengths = append(lengths, float64(e.EndOffset-e.StartOffset))
		}
	}
	if cv := coefficientOfVariation(lengths); cv > 0 {
		balanceScore = 1 / (1 + cv)
	}

	return clamp01((distScore + depthScore + ratioScore + balanceScore) / 4)
}

// hierarchyLogic: proper nesting, no orphaned types, monotone numbering and
// no level jumps greater than one.
func (a *QualityAssessor) hierarchyLogic(d *DetectionResult) float64 {
	nestScore := 1.0
	sawChapter := false
	orphans := 0
	for _, e := range d.Elements {
		switch e.Type {
		case ElementChapter:
			sawChapter = true
		case ElementSection, ElementSubsection, ElementSubsubsection:
			if !sawChapter {
				orphans++
			}
		}
	}
	if len(d.Elements) > 0 {
		nestScore = 1 - float64(orphans)/float64(len(d.Elements))
	}

	orphanTypeScore := 1.0
	if d.Hierarchy.Totals[ElementSubsection] > 0 && d.Hierarchy.Totals[ElementSection] == 0 {
		orphanTypeScore = 0
	}

	monotoneScore := 1.0
	prev := -1
	pairs, ordered := 0, 0
	for _, e := range d.Elements {
		if e.Type != ElementChapter {
			continue
		}
		n := lastNumberSegment(e.Number)
		if n < 0 {
			continue
		}
		if prev >= 0 {
			pairs++
			if n > prev {
				ordered++
			}
		}
		prev = n
	}
	if pairs > 0 {
		monotoneScore = float64(ordered) / float64(pairs)
	}

	transitionScore := 1.0
	pairs, ok := 0, 0
	for i := 1; i < len(d.Elements); i++ {
		pairs++
		if d.Elements[i].Level <= d.Elements[i-1].Level+1 {
			ok++
		}
	}
	if pairs > 0 {
		transitionScore = float64(ok) / float64(pairs)
	}

	return clamp01((nestScore + orphanTypeScore + monotoneScore + transitionScore) / 4)
}

func meanVariance(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return mean, variance
}

func coefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean, variance := meanVariance(values)
	if mean == 0 {
		return 0
	}
	return math.Sqrt(variance) / mean
}
