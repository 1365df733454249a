package graph

import "time"

type Textbook struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Subject     string    `json:"subject"`
	ProcessedAt time.Time `json:"processed_at"`
}

type Chapter struct {
	TextbookID string `json:"textbook_id"`
	Number     int    `json:"number"`
	Title      string `json:"title"`
	Pages      string `json:"pages,omitempty"`
}

type Section struct {
	TextbookID    string `json:"textbook_id"`
	Number        string `json:"number"`
	Title         string `json:"title"`
	ChapterNumber int    `json:"chapter_number"`
}

type Concept struct {
	TextbookID    string `json:"textbook_id"`
	SectionNumber string `json:"section_number"`
	Name          string `json:"name"`
}

type ChunkNode struct {
	ID              string    `json:"id"`
	TextbookID      string    `json:"textbook_id"`
	Subject         string    `json:"subject,omitempty"`
	ChapterNumber   int       `json:"chapter_number"`
	SectionNumber   string    `json:"section_number"`
	ConceptName     string    `json:"concept_name,omitempty"`
	Text            string    `json:"text"`
	Embedding       []float32 `json:"embedding,omitempty"`
	HasEmbedding    bool      `json:"has_embedding"`
	CharCount       int       `json:"char_count"`
	WordCount       int       `json:"word_count"`
	HasPrerequisite []string  `json:"has_prerequisite,omitempty"`
	PrerequisiteFor []string  `json:"prerequisite_for,omitempty"`
}

type SearchResult struct {
	Chunk ChunkNode `json:"chunk"`
	Score float64   `json:"score"`
}

// ChainEntry is one hop of a prerequisite traversal.
type ChainEntry struct {
	Chunk ChunkNode `json:"chunk"`
	Depth int       `json:"depth"`
	Type  string    `json:"type,omitempty"`
}

// Prerequisite requirement strengths.
const (
	RequirementStrong   = "STRONG"
	RequirementWeak     = "WEAK"
	RequirementOptional = "OPTIONAL"
)
