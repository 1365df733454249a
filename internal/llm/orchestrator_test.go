package llm

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeModel implements openai.Client with canned replies.
type fakeModel struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (f *fakeModel) GenerateText(ctx context.Context, system, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeModel) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i := range out {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (f *fakeModel) EmbedOne(ctx context.Context, input string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (f *fakeModel) Dimension(ctx context.Context) (int, error) { return 3, nil }

func (f *fakeModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

const questionReply = `QUESTION: In the context of graph traversal, how does breadth first search decide the order in which vertices of a connected graph are visited, and why does that order matter?
EXPECTED_ANSWER: Breadth first search performs graph traversal level by level, starting at the source vertex and visiting every neighbour before moving outward. Because vertices are discovered in order of distance, the first time a vertex is reached the path taken to it is the shortest one in an unweighted graph.`

func testOrchestrator(t *testing.T, model *fakeModel) *Orchestrator {
	t.Helper()
	log := testLogger(t)
	cache := NewResponseCache(nil, log)
	breaker := NewCircuitBreaker(5, 30*time.Second, log)
	return NewOrchestrator(model, cache, breaker, log)
}

func TestGenerateQuestion_SecondCallServedFromCache(t *testing.T) {
	model := &fakeModel{reply: questionReply}
	o := testOrchestrator(t, model)
	req := QuestionRequest{ChunkText: "BFS visits level by level.", Concept: "graph traversal"}

	first, err := o.GenerateQuestion(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, TypeComprehension, first.Type)
	assert.Equal(t, 3, first.Difficulty)

	second, err := o.GenerateQuestion(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Question, second.Question)
	assert.Equal(t, 1, model.callCount())
}

func TestGenerateQuestion_RejectsMalformedReply(t *testing.T) {
	model := &fakeModel{reply: "QUESTION: Short?\nEXPECTED_ANSWER: Too brief."}
	o := testOrchestrator(t, model)

	_, err := o.GenerateQuestion(context.Background(), QuestionRequest{
		ChunkText: "text", Concept: "graph traversal",
	})
	assert.ErrorContains(t, err, "question length")
}

func TestGenerateQuestion_RequiredFields(t *testing.T) {
	o := testOrchestrator(t, &fakeModel{reply: questionReply})

	_, err := o.GenerateQuestion(context.Background(), QuestionRequest{Concept: "x"})
	assert.Error(t, err)

	_, err = o.GenerateQuestion(context.Background(), QuestionRequest{
		ChunkText: "text", Concept: "graph traversal", Type: "trick",
	})
	assert.ErrorContains(t, err, "unknown question type")
}

func TestGenerateQuestions_CyclesTypesAndKeepsAll(t *testing.T) {
	model := &fakeModel{reply: questionReply}
	o := testOrchestrator(t, model)

	got, err := o.GenerateQuestions(context.Background(), MultiQuestionRequest{
		ChunkText: "BFS visits level by level.",
		Concept:   "graph traversal",
		Count:     3,
	})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestOrchestrator_BreakerOpensAndShortCircuits(t *testing.T) {
	model := &fakeModel{err: fmt.Errorf("upstream down")}
	log := testLogger(t)
	o := NewOrchestrator(model, NewResponseCache(nil, log), NewCircuitBreaker(2, time.Minute, log), log)
	req := QuestionRequest{ChunkText: "text", Concept: "graph traversal"}

	for i := 0; i < 2; i++ {
		_, err := o.GenerateQuestion(context.Background(), req)
		assert.ErrorContains(t, err, "upstream down")
	}
	require.Equal(t, BreakerOpen, o.Breaker().State())

	_, err := o.GenerateQuestion(context.Background(), req)
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.Equal(t, 2, model.callCount())
}

func TestEvaluateAnswer_UsesModelReply(t *testing.T) {
	model := &fakeModel{reply: "SCORE: 0.9\nFEEDBACK: Thorough answer."}
	o := testOrchestrator(t, model)

	eval, err := o.EvaluateAnswer(context.Background(), EvaluationRequest{
		Question: "What is BFS?", Expected: "Breadth first search.", StudentAnswer: "level order",
	})
	require.NoError(t, err)
	assert.False(t, eval.Fallback)
	assert.InDelta(t, 0.9, eval.Score, 1e-9)
}

func TestEvaluateAnswer_FallsBackWhenModelFails(t *testing.T) {
	model := &fakeModel{err: fmt.Errorf("timeout")}
	o := testOrchestrator(t, model)

	eval, err := o.EvaluateAnswer(context.Background(), EvaluationRequest{
		Question: "What is BFS?", Expected: "Breadth first search visits level by level.", StudentAnswer: "it visits level by level",
	})
	require.NoError(t, err)
	assert.True(t, eval.Fallback)
}

func TestEvaluateAnswer_FallsBackOnUnparsableReply(t *testing.T) {
	model := &fakeModel{reply: "I refuse to grade this."}
	o := testOrchestrator(t, model)

	eval, err := o.EvaluateAnswer(context.Background(), EvaluationRequest{
		Question: "What is BFS?", Expected: "Breadth first search.", StudentAnswer: "searching",
	})
	require.NoError(t, err)
	assert.True(t, eval.Fallback)
}

func TestExpandQuery_BuildsCombinedText(t *testing.T) {
	model := &fakeModel{reply: "1. Graph theory studies vertices and edges.\n2. Traversal orders matter for search."}
	o := testOrchestrator(t, model)

	exp, err := o.ExpandQuery(context.Background(), "graphs")
	require.NoError(t, err)
	assert.Equal(t, "graphs", exp.Original)
	require.Len(t, exp.Sentences, 2)
	assert.Equal(t, "graphs Graph theory studies vertices and edges. Traversal orders matter for search.", exp.Combined)

	cached, err := o.ExpandQuery(context.Background(), "graphs")
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	assert.Equal(t, 1, model.callCount())
}

func TestAnalyzeContent_ParsesAndCaches(t *testing.T) {
	model := &fakeModel{reply: "SUMMARY: Covers graph basics.\nKEY_CONCEPTS: graphs | edges\nDIFFICULTY: 2"}
	o := testOrchestrator(t, model)

	analysis, err := o.AnalyzeContent(context.Background(), "chunk text")
	require.NoError(t, err)
	assert.Equal(t, "Covers graph basics.", analysis.Summary)
	assert.Equal(t, 2, analysis.Difficulty)

	again, err := o.AnalyzeContent(context.Background(), "chunk text")
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, 1, model.callCount())
}

func TestOrchestrator_UnconfiguredClient(t *testing.T) {
	log := testLogger(t)
	o := NewOrchestrator(nil, NewResponseCache(nil, log), NewCircuitBreaker(5, time.Minute, log), log)

	assert.False(t, o.Available())
	_, err := o.ExpandQuery(context.Background(), "graphs")
	assert.ErrorContains(t, err, "not configured")
}
