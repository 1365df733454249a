package llm

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/studygraph-backend/internal/platform/logger"
	"github.com/yungbote/studygraph-backend/internal/platform/openai"
)

const expansionSentences = 5

// Orchestrator is the single entry point for model calls: every operation
// goes through the cache, the circuit breaker and the client's retry loop.
type Orchestrator struct {
	client  openai.Client
	cache   *ResponseCache
	breaker *CircuitBreaker
	log     *logger.Logger
}

func NewOrchestrator(client openai.Client, cache *ResponseCache, breaker *CircuitBreaker, baseLog *logger.Logger) *Orchestrator {
	return &Orchestrator{
		client:  client,
		cache:   cache,
		breaker: breaker,
		log:     baseLog.With("service", "LLMOrchestrator"),
	}
}

func (o *Orchestrator) Available() bool {
	return o != nil && o.client != nil
}

func (o *Orchestrator) Breaker() *CircuitBreaker {
	return o.breaker
}

// complete runs one guarded model call.
func (o *Orchestrator) complete(ctx context.Context, system, user string) (string, error) {
	if !o.Available() {
		return "", fmt.Errorf("llm: client not configured")
	}
	if !o.breaker.Allow() {
		return "", ErrBreakerOpen
	}
	out, err := o.client.GenerateText(ctx, system, user)
	if err != nil {
		o.breaker.RecordFailure()
		return "", err
	}
	o.breaker.RecordSuccess()
	return out, nil
}

// GenerateQuestion produces one question/answer pair for a chunk. Results
// are cached for an hour keyed by the full prompt inputs.
func (o *Orchestrator) GenerateQuestion(ctx context.Context, req QuestionRequest) (*GeneratedQuestion, error) {
	if req.ChunkText == "" || req.Concept == "" {
		return nil, fmt.Errorf("llm: chunk_text and concept are required")
	}
	if req.Difficulty < 1 || req.Difficulty > 5 {
		req.Difficulty = 3
	}
	if req.Type == "" {
		req.Type = TypeComprehension
	}
	if !ValidQuestionType(req.Type) {
		return nil, fmt.Errorf("llm: unknown question type %q", req.Type)
	}

	key := Key("question", req.Type, strconv.Itoa(req.Difficulty), req.Concept, req.Context, req.ChunkText)
	var cached GeneratedQuestion
	if o.cache.Get(ctx, key, &cached) {
		cached.Cached = true
		return &cached, nil
	}

	raw, err := o.complete(ctx, questionSystemPrompt, questionPrompt(req))
	if err != nil {
		return nil, err
	}
	question, answer, ok := parseQuestion(raw)
	if !ok {
		return nil, fmt.Errorf("llm: could not parse question from model reply")
	}
	if err := validateGenerated(question, answer, req.Concept); err != nil {
		return nil, err
	}

	out := &GeneratedQuestion{
		Question:       question,
		ExpectedAnswer: answer,
		Concept:        req.Concept,
		Difficulty:     req.Difficulty,
		Type:           req.Type,
		GeneratedAt:    time.Now().UTC(),
	}
	o.cache.Set(ctx, key, out, questionTTL)
	return out, nil
}

// GenerateQuestions fans out over the requested count in parallel and keeps
// whatever succeeded. It only errors when every generation failed.
func (o *Orchestrator) GenerateQuestions(ctx context.Context, req MultiQuestionRequest) ([]*GeneratedQuestion, error) {
	if req.Count <= 0 {
		req.Count = 3
	}
	if req.MinDifficulty < 1 {
		req.MinDifficulty = 1
	}
	if req.MaxDifficulty < req.MinDifficulty {
		req.MaxDifficulty = req.MinDifficulty
	}
	if req.MaxDifficulty > 5 {
		req.MaxDifficulty = 5
	}
	types := req.Types
	if len(types) == 0 {
		types = []string{TypeComprehension, TypeApplication, TypeAnalysis}
	}

	results := make([]*GeneratedQuestion, req.Count)
	span := req.MaxDifficulty - req.MinDifficulty + 1

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := 0; i < req.Count; i++ {
		g.Go(func() error {
			q, err := o.GenerateQuestion(gctx, QuestionRequest{
				ChunkText:  req.ChunkText,
				Concept:    req.Concept,
				Difficulty: req.MinDifficulty + i%span,
				Context:    req.Context,
				Type:       types[i%len(types)],
			})
			if err != nil {
				o.log.Warn("Question generation failed", "concept", req.Concept, "error", err)
				return nil
			}
			results[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	kept := results[:0]
	for _, q := range results {
		if q != nil {
			kept = append(kept, q)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("llm: all %d question generations failed", req.Count)
	}
	return kept, nil
}

// ExpandQuery rewrites a user query as academic sentences for re-embedding.
func (o *Orchestrator) ExpandQuery(ctx context.Context, userText string) (*QueryExpansion, error) {
	if userText == "" {
		return nil, fmt.Errorf("llm: query text is required")
	}

	key := Key("expansion", userText)
	var cached QueryExpansion
	if o.cache.Get(ctx, key, &cached) {
		cached.Cached = true
		return &cached, nil
	}

	raw, err := o.complete(ctx, expansionSystemPrompt, expansionPrompt(userText, expansionSentences))
	if err != nil {
		return nil, err
	}
	sentences := parseSentences(raw, expansionSentences)
	if len(sentences) == 0 {
		return nil, fmt.Errorf("llm: expansion produced no sentences")
	}

	combined := userText
	for _, s := range sentences {
		combined += " " + s
	}
	out := &QueryExpansion{Original: userText, Sentences: sentences, Combined: combined}
	o.cache.Set(ctx, key, out, expansionTTL)
	return out, nil
}

// EvaluateAnswer grades a student answer. When the model is unreachable or
// the breaker is open it degrades to the offline word-overlap grader rather
// than failing the evaluation.
func (o *Orchestrator) EvaluateAnswer(ctx context.Context, req EvaluationRequest) (*Evaluation, error) {
	if req.Question == "" || req.Expected == "" {
		return nil, fmt.Errorf("llm: question and expected answer are required")
	}
	if req.Difficulty < 1 || req.Difficulty > 5 {
		req.Difficulty = 3
	}

	raw, err := o.complete(ctx, evaluationSystemPrompt, evaluationPrompt(req))
	if err != nil {
		o.log.Warn("Falling back to offline evaluation", "error", err)
		return fallbackEvaluate(req), nil
	}
	eval, ok := parseEvaluation(raw)
	if !ok {
		o.log.Warn("Unparsable evaluation reply, using offline grader")
		return fallbackEvaluate(req), nil
	}
	return eval, nil
}

// AnalyzeContent summarizes one chunk. Cached aggressively since chunks are
// immutable after ingestion.
func (o *Orchestrator) AnalyzeContent(ctx context.Context, chunkText string) (*ContentAnalysis, error) {
	if chunkText == "" {
		return nil, fmt.Errorf("llm: chunk text is required")
	}

	key := Key("analysis", chunkText)
	var cached ContentAnalysis
	if o.cache.Get(ctx, key, &cached) {
		cached.Cached = true
		return &cached, nil
	}

	raw, err := o.complete(ctx, analysisSystemPrompt, analysisPrompt(chunkText))
	if err != nil {
		return nil, err
	}
	analysis, ok := parseAnalysis(raw)
	if !ok {
		return nil, fmt.Errorf("llm: could not parse analysis from model reply")
	}
	o.cache.Set(ctx, key, analysis, analysisTTL)
	return analysis, nil
}
