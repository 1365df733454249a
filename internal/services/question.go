package services

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/studygraph-backend/internal/graph"
	"github.com/yungbote/studygraph-backend/internal/llm"
	"github.com/yungbote/studygraph-backend/internal/platform/apierr"
	"github.com/yungbote/studygraph-backend/internal/platform/logger"
)

type ChunkQuestions struct {
	ChunkID   string                   `json:"chunk_id"`
	Concept   string                   `json:"concept"`
	Questions []*llm.GeneratedQuestion `json:"questions,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// QuestionService exposes question generation, including generation straight
// from stored graph chunks.
type QuestionService interface {
	Generate(ctx context.Context, req llm.QuestionRequest) (*llm.GeneratedQuestion, error)
	GenerateMultiple(ctx context.Context, req llm.MultiQuestionRequest) ([]*llm.GeneratedQuestion, error)
	GenerateFromChunks(ctx context.Context, chunkIDs []string, perChunk, difficulty int) ([]ChunkQuestions, error)
}

type questionService struct {
	llm   *llm.Orchestrator
	store *graph.Store
	log   *logger.Logger
}

func NewQuestionService(orchestrator *llm.Orchestrator, store *graph.Store, baseLog *logger.Logger) QuestionService {
	return &questionService{
		llm:   orchestrator,
		store: store,
		log:   baseLog.With("service", "QuestionService"),
	}
}

func (s *questionService) require() error {
	if s.llm == nil || !s.llm.Available() {
		return apierr.New(http.StatusServiceUnavailable, "llm_unavailable", fmt.Errorf("llm client not configured"))
	}
	return nil
}

func (s *questionService) Generate(ctx context.Context, req llm.QuestionRequest) (*llm.GeneratedQuestion, error) {
	if err := s.require(); err != nil {
		return nil, err
	}
	q, err := s.llm.GenerateQuestion(ctx, req)
	if err != nil {
		if err == llm.ErrBreakerOpen {
			return nil, apierr.New(http.StatusServiceUnavailable, "llm_unavailable", err)
		}
		return nil, apierr.New(http.StatusBadRequest, "generation_failed", err)
	}
	return q, nil
}

func (s *questionService) GenerateMultiple(ctx context.Context, req llm.MultiQuestionRequest) ([]*llm.GeneratedQuestion, error) {
	if err := s.require(); err != nil {
		return nil, err
	}
	out, err := s.llm.GenerateQuestions(ctx, req)
	if err != nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "generation_failed", err)
	}
	return out, nil
}

// GenerateFromChunks loads each chunk from the graph and fans out question
// generation. Per-chunk failures land in the result rather than failing the
// whole batch.
func (s *questionService) GenerateFromChunks(ctx context.Context, chunkIDs []string, perChunk, difficulty int) ([]ChunkQuestions, error) {
	if err := s.require(); err != nil {
		return nil, err
	}
	if len(chunkIDs) == 0 {
		return nil, apierr.New(http.StatusBadRequest, "missing_chunks", fmt.Errorf("at least one chunk id is required"))
	}
	if s.store == nil || !s.store.Available() {
		return nil, apierr.New(http.StatusServiceUnavailable, "graph_unavailable", fmt.Errorf("graph store not configured"))
	}
	if perChunk <= 0 {
		perChunk = 1
	}
	if difficulty < 1 || difficulty > 5 {
		difficulty = 3
	}

	out := make([]ChunkQuestions, len(chunkIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(questionFanOutLimit)
	for i := range chunkIDs {
		g.Go(func() error {
			id := chunkIDs[i]
			out[i] = ChunkQuestions{ChunkID: id}
			chunk, err := s.store.GetChunk(gctx, id)
			if err != nil {
				out[i].Error = err.Error()
				return nil
			}
			if chunk == nil {
				out[i].Error = "chunk not found"
				return nil
			}
			concept := chunk.ConceptName
			if concept == "" {
				concept = chunk.ID
			}
			out[i].Concept = concept
			questions, err := s.llm.GenerateQuestions(gctx, llm.MultiQuestionRequest{
				ChunkText:     chunk.Text,
				Concept:       concept,
				Count:         perChunk,
				MinDifficulty: difficulty,
				MaxDifficulty: difficulty,
			})
			if err != nil {
				out[i].Error = err.Error()
				return nil
			}
			out[i].Questions = questions
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}
