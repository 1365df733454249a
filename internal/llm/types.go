package llm

import "time"

// Question cognition levels, roughly Bloom's taxonomy.
const (
	TypeComprehension = "comprehension"
	TypeApplication   = "application"
	TypeAnalysis      = "analysis"
	TypeSynthesis     = "synthesis"
	TypeEvaluation    = "evaluation"
)

func ValidQuestionType(t string) bool {
	switch t {
	case TypeComprehension, TypeApplication, TypeAnalysis, TypeSynthesis, TypeEvaluation:
		return true
	}
	return false
}

type QuestionRequest struct {
	ChunkText  string `json:"chunk_text"`
	Concept    string `json:"concept"`
	Difficulty int    `json:"difficulty"`
	Context    string `json:"context,omitempty"`
	Type       string `json:"type,omitempty"`
}

type GeneratedQuestion struct {
	Question       string    `json:"question"`
	ExpectedAnswer string    `json:"expected_answer"`
	Concept        string    `json:"concept"`
	Difficulty     int       `json:"difficulty"`
	Type           string    `json:"type"`
	Cached         bool      `json:"cached"`
	GeneratedAt    time.Time `json:"generated_at"`
}

type MultiQuestionRequest struct {
	ChunkText     string   `json:"chunk_text"`
	Concept       string   `json:"concept"`
	Count         int      `json:"count"`
	MinDifficulty int      `json:"min_difficulty"`
	MaxDifficulty int      `json:"max_difficulty"`
	Types         []string `json:"types,omitempty"`
	Context       string   `json:"context,omitempty"`
}

type QueryExpansion struct {
	Original  string   `json:"original"`
	Sentences []string `json:"sentences"`
	Combined  string   `json:"combined"`
	Cached    bool     `json:"cached"`
}

type EvaluationRequest struct {
	Question      string `json:"question"`
	Expected      string `json:"expected"`
	StudentAnswer string `json:"student_answer"`
	Context       string `json:"context,omitempty"`
	Difficulty    int    `json:"difficulty"`
}

type Evaluation struct {
	Score       float64  `json:"score"`
	Feedback    string   `json:"feedback"`
	Suggestions []string `json:"suggestions,omitempty"`
	Fallback    bool     `json:"fallback,omitempty"`
	Cached      bool     `json:"cached,omitempty"`
}

// ContentAnalysis summarizes one chunk for graph enrichment.
type ContentAnalysis struct {
	Summary     string   `json:"summary"`
	KeyConcepts []string `json:"key_concepts,omitempty"`
	Difficulty  int      `json:"difficulty"`
	Cached      bool     `json:"cached,omitempty"`
}
