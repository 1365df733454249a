package chunking

import (
	"regexp"
	"sort"
	"strings"
)

// The three detectors emit spans that chunk boundaries must not split.
// Overlapping or near-adjacent (<=20 chars) regions merge, combining kinds.

const mergeGap = 20

type mathPattern struct {
	re   *regexp.Regexp
	kind string
}

var mathPatterns = []mathPattern{
	{regexp.MustCompile(`\$\$[\s\S]+?\$\$`), RegionDisplayMath},
	{regexp.MustCompile(`\\\[[\s\S]+?\\\]`), RegionDisplayMath},
	{regexp.MustCompile(`\$[^$\n]+\$`), RegionInlineMath},
	{regexp.MustCompile(`\\\([^)]*?\\\)`), RegionInlineMath},
	{regexp.MustCompile(`\\begin\{(?:equation|align|eqnarray)\*?\}[\s\S]+?\\end\{(?:equation|align|eqnarray)\*?\}`), RegionEquation},
	{regexp.MustCompile(`\\frac\{[^{}]+\}\{[^{}]+\}`), RegionMathExpression},
	{regexp.MustCompile(`\b[a-zA-Z]\s*\(\s*[a-zA-Z](?:\s*,\s*[a-zA-Z])*\s*\)\s*=`), RegionFunction},
	// simple equality a op b = c
	{regexp.MustCompile(`\b\w+\s*[+\-*/]\s*\w+\s*=\s*[\w.\-]+`), RegionEquation},
	// comparison with context on both sides
	{regexp.MustCompile(`\b[\w.]+\s*(?:=|<=|>=|!=|<|>)\s*[\w.\-]+\s*[+\-*/^]\s*[\w.]+`), RegionMathExpression},
	// polynomial-ish runs like 3x^2 + 2x
	{regexp.MustCompile(`\b\d*[a-z]\^?\d*\s*[+\-]\s*\d*[a-z]\^?\d*`), RegionMathExpression},
	// Greek letter runs and designated unicode math symbols
	{regexp.MustCompile(`[\x{0391}-\x{03C9}]+\s*[=<>+\-*/]\s*[\w\x{0391}-\x{03C9}]+`), RegionMathExpression},
	{regexp.MustCompile(`[∑∏∫√∞≈≠≤≥±∂∇∈∉⊂⊆∪∩]`), RegionMathExpression},
}

// MathDetector locates math spans that must survive chunking intact.
type MathDetector struct{}

func (MathDetector) Detect(text string) []ProtectedRegion {
	var regions []ProtectedRegion
	for _, p := range mathPatterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			regions = append(regions, ProtectedRegion{Start: loc[0], End: loc[1], Kind: p.kind})
		}
	}
	return regions
}

var definitionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bdefinition\s*\d*(?:\.\d+)*\s*[:.]`),
	regexp.MustCompile(`(?i)\b[A-Za-z][\w\s]{0,40}?\bis\s+defined\s+as\b`),
	regexp.MustCompile(`(?i)\b[A-Z][a-z][\w]*\s+is\s+(?:a|an)\s+\w+`),
	regexp.MustCompile(`(?i)\b(?:let|suppose)\s+[\w\s$\\{}^]+?\s+be\b`),
	regexp.MustCompile(`(?i)\bwe\s+define\b`),
}

// DefinitionDetector finds definition sentences and extends the span through
// the following one or two sentences, capped at 200 extra characters.
type DefinitionDetector struct{}

func (DefinitionDetector) Detect(text string) []ProtectedRegion {
	var regions []ProtectedRegion
	for _, re := range definitionPatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			start := sentenceStart(text, loc[0])
			end := sentenceEnd(text, loc[1])
			end = extendSentences(text, end, 2, 200)
			regions = append(regions, ProtectedRegion{Start: start, End: end, Kind: RegionDefinition})
		}
	}
	return regions
}

var examplePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:example|exercise|problem)\s+\d+(?:\.\d+)*`),
	regexp.MustCompile(`(?i)\bfor\s+(?:instance|example)\b`),
	regexp.MustCompile(`(?i)\bconsider\s+the\s+following\b`),
}

var resolutionRe = regexp.MustCompile(`(?i)\b(?:solution|answer|proof|therefore)\b`)

// ExampleDetector finds worked examples, extending through a subsequent
// Solution/Answer/Proof/Therefore sentence (<=300 chars) or to the next
// paragraph break.
type ExampleDetector struct{}

func (ExampleDetector) Detect(text string) []ProtectedRegion {
	var regions []ProtectedRegion
	for _, re := range examplePatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			start := sentenceStart(text, loc[0])
			end := sentenceEnd(text, loc[1])

			limit := end + 300
			if limit > len(text) {
				limit = len(text)
			}
			if m := resolutionRe.FindStringIndex(text[end:limit]); m != nil {
				end = sentenceEnd(text, end+m[1])
			} else if brk := strings.Index(text[end:], "\n\n"); brk >= 0 && end+brk <= limit {
				end += brk
			}
			regions = append(regions, ProtectedRegion{Start: start, End: end, Kind: RegionExample})
		}
	}
	return regions
}

// DetectProtectedRegions runs the enabled detectors and merges the union.
func DetectProtectedRegions(text string, cfg ChunkerConfig) []ProtectedRegion {
	var all []ProtectedRegion
	if cfg.PreserveMath {
		all = append(all, MathDetector{}.Detect(text)...)
	}
	if cfg.PreserveDefinitions {
		all = append(all, DefinitionDetector{}.Detect(text)...)
	}
	if cfg.PreserveExamples {
		all = append(all, ExampleDetector{}.Detect(text)...)
	}
	return MergeRegions(all)
}

// MergeRegions sorts by start and merges overlapping or within-20-char
// regions; merged kinds combine as "a+b".
func MergeRegions(regions []ProtectedRegion) []ProtectedRegion {
	if len(regions) == 0 {
		return nil
	}
	sort.Slice(regions, func(i, j int) bool {
		if regions[i].Start == regions[j].Start {
			return regions[i].End < regions[j].End
		}
		return regions[i].Start < regions[j].Start
	})

	merged := []ProtectedRegion{regions[0]}
	for _, r := range regions[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End+mergeGap {
			if r.End > last.End {
				last.End = r.End
			}
			last.Kind = combineKinds(last.Kind, r.Kind)
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

func combineKinds(a, b string) string {
	if a == b {
		return a
	}
	for _, part := range strings.Split(a, "+") {
		if part == b {
			return a
		}
	}
	return a + "+" + b
}

// RegionContains reports whether pos falls inside region (half-open span).
func (r ProtectedRegion) Contains(pos int) bool {
	return pos >= r.Start && pos < r.End
}

// HasKind reports whether the possibly-merged kind includes want.
func (r ProtectedRegion) HasKind(want string) bool {
	for _, part := range strings.Split(r.Kind, "+") {
		if part == want {
			return true
		}
	}
	return false
}

// IsMath covers every math-flavored region kind.
func (r ProtectedRegion) IsMath() bool {
	for _, part := range strings.Split(r.Kind, "+") {
		switch part {
		case RegionInlineMath, RegionDisplayMath, RegionEquation, RegionFunction, RegionMathExpression:
			return true
		}
	}
	return false
}

// ---- sentence helpers (shared with the chunkers) ----

func isSentenceTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

// sentenceStart walks back to the character after the previous terminator.
func sentenceStart(text string, pos int) int {
	if pos > len(text) {
		pos = len(text)
	}
	for i := pos - 1; i > 0; i-- {
		if isSentenceTerminator(text[i]) || text[i] == '\n' {
			start := i + 1
			for start < pos && (text[start] == ' ' || text[start] == '\n') {
				start++
			}
			return start
		}
	}
	return 0
}

// sentenceEnd walks forward to just past the next terminator.
func sentenceEnd(text string, pos int) int {
	if pos >= len(text) {
		return len(text)
	}
	for i := pos; i < len(text); i++ {
		if isSentenceTerminator(text[i]) {
			return i + 1
		}
		if text[i] == '\n' && i+1 < len(text) && text[i+1] == '\n' {
			return i
		}
	}
	return len(text)
}

// extendSentences advances end across up to n further sentences without
// exceeding maxExtra characters.
func extendSentences(text string, end, n, maxExtra int) int {
	limit := end + maxExtra
	if limit > len(text) {
		limit = len(text)
	}
	out := end
	for i := 0; i < n; i++ {
		next := sentenceEnd(text, out)
		if next <= out || next > limit {
			break
		}
		out = next
	}
	return out
}
