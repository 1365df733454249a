package services

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/studygraph-backend/internal/graph"
)

type fakeGraph struct {
	available   bool
	results     []graph.SearchResult
	prereqErr   error
	prereqCalls [][3]string
	chunks      map[string]graph.ChunkNode
}

func (f *fakeGraph) Available() bool { return f.available }

func (f *fakeGraph) VectorSearch(ctx context.Context, embedding []float32, minScore float64, limit int, subject string) ([]graph.SearchResult, error) {
	return f.results, nil
}

func (f *fakeGraph) UpsertChunk(ctx context.Context, chunk graph.ChunkNode) error {
	if f.chunks == nil {
		f.chunks = map[string]graph.ChunkNode{}
	}
	f.chunks[chunk.ID] = chunk
	return nil
}

func (f *fakeGraph) CreatePrerequisite(ctx context.Context, chunkID, prereqChunkID, requirement string) error {
	f.prereqCalls = append(f.prereqCalls, [3]string{chunkID, prereqChunkID, requirement})
	return f.prereqErr
}

func (f *fakeGraph) PrerequisiteChain(ctx context.Context, chunkID string, maxDepth int) ([]graph.ChainEntry, error) {
	return nil, nil
}

func (f *fakeGraph) Dependents(ctx context.Context, chunkID string, maxDepth int) ([]graph.ChainEntry, error) {
	return nil, nil
}

func TestCreatePrerequisite_RefusesCycleClosingEdge(t *testing.T) {
	fg := &fakeGraph{
		available: true,
		prereqErr: fmt.Errorf("graph: create prerequisite b->a: %w", graph.ErrCycle),
	}
	svc := NewSearchService(fg, nil, nil, testLogger(t))

	err := svc.CreatePrerequisite(context.Background(), "b", "a", "")
	apiErr := apiError(t, err)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "prerequisite_cycle", apiErr.Code)
}

func TestCreatePrerequisite_OtherGraphErrorsAreBadRequest(t *testing.T) {
	fg := &fakeGraph{
		available: true,
		prereqErr: fmt.Errorf("graph: unknown requirement type %q", "MANDATORY"),
	}
	svc := NewSearchService(fg, nil, nil, testLogger(t))

	err := svc.CreatePrerequisite(context.Background(), "a", "b", "MANDATORY")
	apiErr := apiError(t, err)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "prerequisite_failed", apiErr.Code)
}

func TestCreatePrerequisite_RequiresBothIDs(t *testing.T) {
	fg := &fakeGraph{available: true}
	svc := NewSearchService(fg, nil, nil, testLogger(t))

	err := svc.CreatePrerequisite(context.Background(), "", "b", "")
	assert.Equal(t, http.StatusBadRequest, apiError(t, err).Status)
	assert.Empty(t, fg.prereqCalls)
}

func TestCreatePrerequisite_GraphUnavailable(t *testing.T) {
	fg := &fakeGraph{available: false}
	svc := NewSearchService(fg, nil, nil, testLogger(t))

	err := svc.CreatePrerequisite(context.Background(), "a", "b", "")
	assert.Equal(t, http.StatusServiceUnavailable, apiError(t, err).Status)
}

func TestCreatePrerequisite_PassesRequirementThrough(t *testing.T) {
	fg := &fakeGraph{available: true}
	svc := NewSearchService(fg, nil, nil, testLogger(t))

	require.NoError(t, svc.CreatePrerequisite(context.Background(), "a", "b", graph.RequirementWeak))
	require.Len(t, fg.prereqCalls, 1)
	assert.Equal(t, [3]string{"a", "b", graph.RequirementWeak}, fg.prereqCalls[0])
}

func TestSearch_ReturnsGraphHits(t *testing.T) {
	fg := &fakeGraph{
		available: true,
		results: []graph.SearchResult{
			{Chunk: graph.ChunkNode{ID: "doc_c1", Text: "Vertices and edges."}, Score: 0.93},
		},
	}
	svc := NewSearchService(fg, &stubModel{}, nil, testLogger(t))

	resp, err := svc.Search(context.Background(), SearchRequest{Query: "graph basics"})
	require.NoError(t, err)
	require.Len(t, resp.Hits, 1)
	assert.Equal(t, "doc_c1", resp.Hits[0].Chunk.ID)
	assert.InDelta(t, 0.93, resp.Hits[0].Score, 1e-9)
}
