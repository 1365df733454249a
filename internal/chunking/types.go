package chunking

import "time"

// Element types recognized by the structure detector.
const (
	ElementChapter       = "chapter"
	ElementSection       = "section"
	ElementSubsection    = "subsection"
	ElementSubsubsection = "subsubsection"
	ElementHeading       = "heading"
)

// Numbering styles inferred from captured numbers.
const (
	NumberingArabic  = "arabic"
	NumberingDecimal = "decimal"
	NumberingRoman   = "roman"
	NumberingLetter  = "letter"
	NumberingNone    = "none"
)

// Chunk content types.
const (
	ContentText       = "text"
	ContentMath       = "math"
	ContentDefinition = "definition"
	ContentExample    = "example"
)

// Chunking strategies.
const (
	StrategyContentAware = "content_aware"
	StrategyFallback     = "fallback"
	StrategyHybrid       = "hybrid"
)

// Protected region kinds. Merged regions combine kinds as "a+b".
const (
	RegionInlineMath     = "inline_math"
	RegionDisplayMath    = "display_math"
	RegionEquation       = "equation"
	RegionFunction       = "function"
	RegionMathExpression = "mathematical_expression"
	RegionDefinition     = "definition"
	RegionExample        = "example"
)

// StructureElement is one detected heading, ordered by StartOffset.
type StructureElement struct {
	Type           string  `json:"type"`
	Level          int     `json:"level"`
	Number         string  `json:"number,omitempty"`
	Title          string  `json:"title"`
	StartOffset    int     `json:"start_offset"`
	EndOffset      int     `json:"end_offset"`
	NumberingStyle string  `json:"numbering_style"`
	Confidence     float64 `json:"confidence"`
}

// Hierarchy is the derived rollup over detected elements.
type Hierarchy struct {
	Totals               map[string]int `json:"totals"`
	MaxDepth             int            `json:"max_depth"`
	NumberingConsistency float64        `json:"numbering_consistency"`
	OverallConfidence    float64        `json:"overall_confidence"`
	QualityScore         float64        `json:"quality_score"`
}

type DetectionStats struct {
	LineCount    int           `json:"line_count"`
	ElementCount int           `json:"element_count"`
	ChapterCount int           `json:"chapter_count"`
	SectionCount int           `json:"section_count"`
	Elapsed      time.Duration `json:"elapsed"`
}

// DetectionResult is the full output of the structure detector.
type DetectionResult struct {
	Elements  []StructureElement `json:"elements"`
	Hierarchy Hierarchy          `json:"hierarchy"`
	Warnings  []string           `json:"warnings,omitempty"`
	Stats     DetectionStats     `json:"stats"`
}

// IsValidTextbook reports whether the detected structure clears the minimum
// bar for content-aware processing. Failures warn, never error.
func (d *DetectionResult) IsValidTextbook(minChapters int, qualityThreshold float64) bool {
	if d == nil {
		return false
	}
	return d.Stats.ChapterCount >= minChapters && d.Hierarchy.QualityScore >= qualityThreshold
}

// ProtectedRegion is a span chunk boundaries must not split.
type ProtectedRegion struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Kind  string `json:"kind"`
}

// Chunk is a contiguous text span with retrieval metadata.
type Chunk struct {
	ChunkID       string    `json:"chunk_id"`
	DocumentID    string    `json:"document_id"`
	Chapter       string    `json:"chapter,omitempty"`
	Section       string    `json:"section,omitempty"`
	ContentType   string    `json:"content_type"`
	Start         int       `json:"start"`
	End           int       `json:"end"`
	Text          string    `json:"text"`
	WordCount     int       `json:"word_count"`
	SentenceCount int       `json:"sentence_count"`
	Keywords      []string  `json:"keywords,omitempty"`
	Difficulty    float64   `json:"difficulty"`
	Confidence    float64   `json:"confidence"`
	Strategy      string    `json:"strategy"`
	Embedding     []float32 `json:"embedding,omitempty"`
}
