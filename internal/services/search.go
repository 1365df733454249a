package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/studygraph-backend/internal/graph"
	"github.com/yungbote/studygraph-backend/internal/llm"
	"github.com/yungbote/studygraph-backend/internal/platform/apierr"
	"github.com/yungbote/studygraph-backend/internal/platform/logger"
	"github.com/yungbote/studygraph-backend/internal/platform/openai"
)

const (
	defaultSearchLimit = 5
	maxSearchLimit     = 50
	maxQueryLength     = 1000
	chainDepthDefault  = 3
)

type SearchRequest struct {
	Query                string    `json:"query"`
	Embedding            []float32 `json:"embedding,omitempty"`
	MinScore             float64   `json:"min_score"`
	Limit                int       `json:"limit"`
	Subject              string    `json:"subject,omitempty"`
	IncludePrerequisites bool      `json:"include_prerequisites,omitempty"`
	IncludeDependents    bool      `json:"include_dependents,omitempty"`
}

type SearchHit struct {
	Chunk         graph.ChunkNode    `json:"chunk"`
	Score         float64            `json:"score"`
	Prerequisites []graph.ChainEntry `json:"prerequisites,omitempty"`
	Dependents    []graph.ChainEntry `json:"dependents,omitempty"`
}

type SearchResponse struct {
	Query     string              `json:"query"`
	Hits      []SearchHit         `json:"results"`
	Expansion *llm.QueryExpansion `json:"expansion,omitempty"`
}

type SearchComparison struct {
	Regular  *SearchResponse `json:"regular"`
	Enhanced *SearchResponse `json:"enhanced"`
}

// ChunkGraph is the slice of the graph store the search surface depends on.
type ChunkGraph interface {
	Available() bool
	VectorSearch(ctx context.Context, embedding []float32, minScore float64, limit int, subject string) ([]graph.SearchResult, error)
	UpsertChunk(ctx context.Context, chunk graph.ChunkNode) error
	CreatePrerequisite(ctx context.Context, chunkID, prereqChunkID, requirement string) error
	PrerequisiteChain(ctx context.Context, chunkID string, maxDepth int) ([]graph.ChainEntry, error)
	Dependents(ctx context.Context, chunkID string, maxDepth int) ([]graph.ChainEntry, error)
}

type SearchService interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	EnhancedSearch(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	CompareSearch(ctx context.Context, req SearchRequest) (*SearchComparison, error)
	InsertChunk(ctx context.Context, chunk graph.ChunkNode) error
	CreatePrerequisite(ctx context.Context, chunkID, prereqChunkID, requirement string) error
	PrerequisiteChain(ctx context.Context, chunkID string, maxDepth int) ([]graph.ChainEntry, error)
	Dependents(ctx context.Context, chunkID string, maxDepth int) ([]graph.ChainEntry, error)
}

type searchService struct {
	store    ChunkGraph
	embedder openai.Client
	llm      *llm.Orchestrator
	log      *logger.Logger
}

func NewSearchService(store ChunkGraph, embedder openai.Client, orchestrator *llm.Orchestrator, baseLog *logger.Logger) SearchService {
	return &searchService{
		store:    store,
		embedder: embedder,
		llm:      orchestrator,
		log:      baseLog.With("service", "SearchService"),
	}
}

func (s *searchService) validate(req *SearchRequest) error {
	if len(req.Embedding) == 0 {
		if req.Query == "" {
			return apierr.New(http.StatusBadRequest, "missing_query", fmt.Errorf("query or embedding is required"))
		}
		if len(req.Query) > maxQueryLength {
			return apierr.New(http.StatusBadRequest, "query_too_long", fmt.Errorf("query exceeds %d characters", maxQueryLength))
		}
	}
	if req.Limit <= 0 {
		req.Limit = defaultSearchLimit
	}
	if req.Limit > maxSearchLimit {
		req.Limit = maxSearchLimit
	}
	if req.MinScore < 0 || req.MinScore > 1 {
		return apierr.New(http.StatusBadRequest, "invalid_min_score", fmt.Errorf("min_score must be in [0,1]"))
	}
	return nil
}

func (s *searchService) embed(ctx context.Context, text string) ([]float32, error) {
	if s.embedder == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "embedding_unavailable", fmt.Errorf("embedding client not configured"))
	}
	emb, err := s.embedder.EmbedOne(ctx, text)
	if err != nil || len(emb) == 0 {
		if err == nil {
			err = fmt.Errorf("empty embedding")
		}
		return nil, apierr.New(http.StatusInternalServerError, "embedding_failed", fmt.Errorf("Failed to generate embedding: %w", err))
	}
	return emb, nil
}

func (s *searchService) run(ctx context.Context, req SearchRequest, embedding []float32) (*SearchResponse, error) {
	if !s.store.Available() {
		return nil, apierr.New(http.StatusServiceUnavailable, "graph_unavailable", fmt.Errorf("graph store not configured"))
	}

	results, err := s.store.VectorSearch(ctx, embedding, req.MinScore, req.Limit, req.Subject)
	if err != nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "search_failed", err)
	}

	out := &SearchResponse{Query: req.Query, Hits: make([]SearchHit, 0, len(results))}
	for _, r := range results {
		hit := SearchHit{Chunk: r.Chunk, Score: r.Score}
		if req.IncludePrerequisites {
			chain, err := s.store.PrerequisiteChain(ctx, r.Chunk.ID, chainDepthDefault)
			if err != nil {
				s.log.Warn("Prerequisite expansion failed", "chunk_id", r.Chunk.ID, "error", err)
			} else {
				hit.Prerequisites = chain
			}
		}
		if req.IncludeDependents {
			deps, err := s.store.Dependents(ctx, r.Chunk.ID, chainDepthDefault)
			if err != nil {
				s.log.Warn("Dependent expansion failed", "chunk_id", r.Chunk.ID, "error", err)
			} else {
				hit.Dependents = deps
			}
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

func (s *searchService) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}
	embedding := req.Embedding
	if len(embedding) == 0 {
		var err error
		embedding, err = s.embed(ctx, req.Query)
		if err != nil {
			return nil, err
		}
	}
	return s.run(ctx, req, embedding)
}

// EnhancedSearch expands the query into academic sentences before embedding.
// Expansion failure degrades to a plain search rather than failing the call.
func (s *searchService) EnhancedSearch(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if err := s.validate(&req); err != nil {
		return nil, err
	}
	if req.Query == "" || s.llm == nil || !s.llm.Available() {
		return s.Search(ctx, req)
	}

	expansion, err := s.llm.ExpandQuery(ctx, req.Query)
	if err != nil {
		s.log.Warn("Query expansion failed, using raw query", "error", err)
		return s.Search(ctx, req)
	}

	embedding, err := s.embed(ctx, expansion.Combined)
	if err != nil {
		return nil, err
	}
	out, err := s.run(ctx, req, embedding)
	if err != nil {
		return nil, err
	}
	out.Expansion = expansion
	return out, nil
}

func (s *searchService) CompareSearch(ctx context.Context, req SearchRequest) (*SearchComparison, error) {
	regular, err := s.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	enhanced, err := s.EnhancedSearch(ctx, req)
	if err != nil {
		return nil, err
	}
	return &SearchComparison{Regular: regular, Enhanced: enhanced}, nil
}

// InsertChunk writes one chunk node, embedding its text first when no
// embedding was supplied.
func (s *searchService) InsertChunk(ctx context.Context, chunk graph.ChunkNode) error {
	if chunk.ID == "" || chunk.Text == "" {
		return apierr.New(http.StatusBadRequest, "invalid_chunk", fmt.Errorf("chunk id and text are required"))
	}
	if !s.store.Available() {
		return apierr.New(http.StatusServiceUnavailable, "graph_unavailable", fmt.Errorf("graph store not configured"))
	}
	if len(chunk.Embedding) == 0 {
		emb, err := s.embed(ctx, chunk.Text)
		if err != nil {
			return err
		}
		chunk.Embedding = emb
	}
	chunk.HasEmbedding = true
	if chunk.CharCount == 0 {
		chunk.CharCount = len(chunk.Text)
	}
	if err := s.store.UpsertChunk(ctx, chunk); err != nil {
		return apierr.New(http.StatusServiceUnavailable, "graph_write_failed", err)
	}
	return nil
}

func (s *searchService) CreatePrerequisite(ctx context.Context, chunkID, prereqChunkID, requirement string) error {
	if chunkID == "" || prereqChunkID == "" {
		return apierr.New(http.StatusBadRequest, "invalid_prerequisite", fmt.Errorf("chunk_id and prerequisite_chunk_id are required"))
	}
	if !s.store.Available() {
		return apierr.New(http.StatusServiceUnavailable, "graph_unavailable", fmt.Errorf("graph store not configured"))
	}
	if err := s.store.CreatePrerequisite(ctx, chunkID, prereqChunkID, requirement); err != nil {
		if errors.Is(err, graph.ErrCycle) {
			return apierr.New(http.StatusBadRequest, "prerequisite_cycle", err)
		}
		return apierr.New(http.StatusBadRequest, "prerequisite_failed", err)
	}
	return nil
}

func (s *searchService) PrerequisiteChain(ctx context.Context, chunkID string, maxDepth int) ([]graph.ChainEntry, error) {
	if !s.store.Available() {
		return nil, apierr.New(http.StatusServiceUnavailable, "graph_unavailable", fmt.Errorf("graph store not configured"))
	}
	chain, err := s.store.PrerequisiteChain(ctx, chunkID, maxDepth)
	if err != nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "graph_query_failed", err)
	}
	return chain, nil
}

func (s *searchService) Dependents(ctx context.Context, chunkID string, maxDepth int) ([]graph.ChainEntry, error) {
	if !s.store.Available() {
		return nil, apierr.New(http.StatusServiceUnavailable, "graph_unavailable", fmt.Errorf("graph store not configured"))
	}
	deps, err := s.store.Dependents(ctx, chunkID, maxDepth)
	if err != nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "graph_query_failed", err)
	}
	return deps, nil
}
