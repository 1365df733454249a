package chunking

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/studygraph-backend/internal/platform/logger"
)

// Postprocess drop thresholds.
const (
	dropBelowLength     = 50
	dropBelowConfidence = 0.2
	dropBelowWords      = 5
	dropUniqueRatio     = 0.3
)

type ChunkRequest struct {
	Text     string             `json:"text"`
	DocID    string             `json:"doc_id"`
	Elements []StructureElement `json:"elements,omitempty"`
	BaseMeta map[string]string  `json:"base_meta,omitempty"`
	// Force bypasses the assessor: content_aware, fallback or hybrid.
	Force string `json:"force,omitempty"`
}

type ChunkTimings struct {
	Preprocess  time.Duration `json:"preprocess"`
	Assess      time.Duration `json:"assess"`
	Chunk       time.Duration `json:"chunk"`
	Postprocess time.Duration `json:"postprocess"`
	Total       time.Duration `json:"total"`
}

type ChunkStats struct {
	ChunkCount    int     `json:"chunk_count"`
	TotalChars    int     `json:"total_chars"`
	TotalWords    int     `json:"total_words"`
	MeanChunkSize float64 `json:"mean_chunk_size"`
	MeanConf      float64 `json:"mean_confidence"`
	Dropped       int     `json:"dropped"`
}

type ChunkResult struct {
	Chunks          []Chunk           `json:"chunks"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	Strategy        string            `json:"strategy"`
	Quality         *Assessment       `json:"quality,omitempty"`
	Stats           ChunkStats        `json:"stats"`
	Warnings        []string          `json:"warnings,omitempty"`
	Recommendations []string          `json:"recommendations,omitempty"`
	Timings         ChunkTimings      `json:"timings"`
}

type BatchRequest struct {
	BookID  string       `json:"book_id"`
	Request ChunkRequest `json:"request"`
}

type BatchError struct {
	BookID string `json:"book_id"`
	Error  string `json:"error"`
}

type BatchResult struct {
	Results   []*ChunkResult `json:"results"`
	Successes int            `json:"successes"`
	Failures  int            `json:"failures"`
	Errors    []BatchError   `json:"errors,omitempty"`
	Elapsed   time.Duration  `json:"elapsed"`
	Docs      int            `json:"docs"`
}

// GlobalStats are process-wide counters, mutex-guarded when ThreadSafe.
type GlobalStats struct {
	DocumentsProcessed int           `json:"documents_processed"`
	ContentAwareRuns   int           `json:"content_aware_runs"`
	FallbackRuns       int           `json:"fallback_runs"`
	HybridRetries      int           `json:"hybrid_retries"`
	ChunksEmitted      int           `json:"chunks_emitted"`
	CumulativeTime     time.Duration `json:"cumulative_time"`
}

// ChunkingController orchestrates assessment, strategy dispatch, chunking
// and validation, with batch support and global statistics.
type ChunkingController struct {
	cfg      ChunkerConfig
	detCfg   DetectorConfig
	log      *logger.Logger
	detector *StructureDetector
	assessor *QualityAssessor
	aware    *ContentAwareChunker
	fallback *FallbackChunker

	mu    sync.Mutex
	stats GlobalStats
}

func NewChunkingController(cfg ChunkerConfig, detCfg DetectorConfig, baseLog *logger.Logger) *ChunkingController {
	log := baseLog.With("component", "ChunkingController")
	return &ChunkingController{
		cfg:      cfg,
		detCfg:   detCfg,
		log:      log,
		detector: NewStructureDetector(detCfg, baseLog),
		assessor: NewQualityAssessor(detCfg, baseLog),
		aware:    NewContentAwareChunker(cfg, baseLog),
		fallback: NewFallbackChunker(cfg, baseLog),
	}
}

var (
	blankRunRe      = regexp.MustCompile(`\n{3,}`)
	pageHeaderRe    = regexp.MustCompile(`(?m)^\s*(?:Page\s+\d+(?:\s+of\s+\d+)?|\d+\s*\|\s*P\s*a\s*g\s*e|-\s*\d+\s*-)\s*$`)
	formattingBarRe = regexp.MustCompile(`(?m)^\s*[-=_*]{4,}\s*$`)
)

func preprocess(text string) string {
	out := pageHeaderRe.ReplaceAllString(text, "")
	out = formattingBarRe.ReplaceAllString(out, "")
	out = blankRunRe.ReplaceAllString(out, "\n\n")
	return out
}

// Chunk runs the full pipeline for one document.
func (c *ChunkingController) Chunk(ctx context.Context, req ChunkRequest) (*ChunkResult, error) {
	started := time.Now()
	result := &ChunkResult{Metadata: req.BaseMeta}

	if req.DocID == "" {
		return nil, fmt.Errorf("chunk: missing doc_id")
	}
	if strings.TrimSpace(req.Text) == "" {
		result.Warnings = append(result.Warnings, "empty text: no chunks produced")
		result.Strategy = StrategyFallback
		result.Timings.Total = time.Since(started)
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	preStart := time.Now()
	text := preprocess(req.Text)
	result.Timings.Preprocess = time.Since(preStart)

	assessStart := time.Now()
	elements := req.Elements
	var detection *DetectionResult
	strategy := req.Force
	if strategy == "" || strategy == StrategyContentAware || strategy == StrategyHybrid {
		if len(elements) == 0 {
			detection = c.detector.Detect(text)
			elements = detection.Elements
			result.Warnings = append(result.Warnings, detection.Warnings...)
		}
	}
	if strategy == "" {
		if detection == nil {
			detection = c.detector.Detect(text)
			elements = detection.Elements
		}
		assessment := c.assessor.Assess(detection)
		result.Quality = assessment
		result.Warnings = append(result.Warnings, assessment.Warnings...)
		result.Recommendations = append(result.Recommendations, assessment.Suggestions...)
		strategy = assessment.Strategy
	}
	result.Timings.Assess = time.Since(assessStart)

	chunkStart := time.Now()
	chunks, used, err := c.dispatch(text, req.DocID, elements, strategy)
	if err != nil {
		return nil, err
	}
	result.Strategy = used
	result.Timings.Chunk = time.Since(chunkStart)

	postStart := time.Now()
	kept, dropped := postprocess(chunks, req.DocID)
	result.Chunks = kept
	result.Stats = computeStats(kept, dropped)
	result.Timings.Postprocess = time.Since(postStart)

	if len(kept) == 0 {
		result.Warnings = append(result.Warnings, "all chunks filtered during postprocessing")
	}
	if result.Stats.MeanConf > 0 && result.Stats.MeanConf < 0.5 {
		result.Recommendations = append(result.Recommendations, "low mean chunk confidence; review source formatting")
	}

	result.Timings.Total = time.Since(started)
	c.recordRun(used, len(kept), result.Timings.Total)
	return result, nil
}

// dispatch runs the chosen strategy; hybrid retries with fallback when
// content-aware output is empty or weak.
func (c *ChunkingController) dispatch(text, docID string, elements []StructureElement, strategy string) ([]Chunk, string, error) {
	switch strategy {
	case StrategyContentAware:
		return c.aware.Chunk(text, docID, elements), StrategyContentAware, nil
	case StrategyFallback:
		return c.fallback.Chunk(text, docID), StrategyFallback, nil
	case StrategyHybrid:
		chunks := c.aware.Chunk(text, docID, elements)
		if len(chunks) == 0 || meanChunkConfidence(chunks) < 0.6 {
			c.mu.Lock()
			c.stats.HybridRetries++
			c.mu.Unlock()
			return c.fallback.Chunk(text, docID), StrategyFallback, nil
		}
		return chunks, StrategyContentAware, nil
	default:
		return nil, "", fmt.Errorf("chunk: unknown strategy %q", strategy)
	}
}

func meanChunkConfidence(chunks []Chunk) float64 {
	if len(chunks) == 0 {
		return 0
	}
	sum := 0.0
	for _, ch := range chunks {
		sum += ch.Confidence
	}
	return sum / float64(len(chunks))
}

// postprocess drops junk chunks and renumbers ids as {doc}_chunk_{ordinal:04}.
func postprocess(chunks []Chunk, docID string) ([]Chunk, int) {
	kept := make([]Chunk, 0, len(chunks))
	dropped := 0
	for _, ch := range chunks {
		if len(ch.Text) < dropBelowLength ||
			ch.Confidence < dropBelowConfidence ||
			ch.WordCount < dropBelowWords {
			dropped++
			continue
		}
		if ch.WordCount > 10 {
			unique := map[string]bool{}
			for _, w := range tokenize(ch.Text) {
				unique[w] = true
			}
			if float64(len(unique))/float64(ch.WordCount) < dropUniqueRatio {
				dropped++
				continue
			}
		}
		kept = append(kept, ch)
	}
	for i := range kept {
		kept[i].ChunkID = fmt.Sprintf("%s_chunk_%04d", docID, i+1)
	}
	return kept, dropped
}

func computeStats(chunks []Chunk, dropped int) ChunkStats {
	stats := ChunkStats{ChunkCount: len(chunks), Dropped: dropped}
	confSum := 0.0
	for _, ch := range chunks {
		stats.TotalChars += len(ch.Text)
		stats.TotalWords += ch.WordCount
		confSum += ch.Confidence
	}
	if len(chunks) > 0 {
		stats.MeanChunkSize = float64(stats.TotalChars) / float64(len(chunks))
		stats.MeanConf = confSum / float64(len(chunks))
	}
	return stats
}

func (c *ChunkingController) recordRun(strategy string, chunkCount int, elapsed time.Duration) {
	if c.cfg.ThreadSafe {
		c.mu.Lock()
		defer c.mu.Unlock()
	}
	c.stats.DocumentsProcessed++
	c.stats.ChunksEmitted += chunkCount
	c.stats.CumulativeTime += elapsed
	switch strategy {
	case StrategyContentAware:
		c.stats.ContentAwareRuns++
	case StrategyFallback:
		c.stats.FallbackRuns++
	}
}

func (c *ChunkingController) Statistics() GlobalStats {
	if c.cfg.ThreadSafe {
		c.mu.Lock()
		defer c.mu.Unlock()
	}
	return c.stats
}

func (c *ChunkingController) ResetStatistics() {
	if c.cfg.ThreadSafe {
		c.mu.Lock()
		defer c.mu.Unlock()
	}
	c.stats = GlobalStats{}
}

// ChunkBatch fans requests out over a bounded worker pool. Results come back
// in input order; failures land in Errors with their originating book id.
func (c *ChunkingController) ChunkBatch(ctx context.Context, requests []BatchRequest, maxWorkers int) (*BatchResult, error) {
	started := time.Now()
	if maxWorkers <= 0 {
		maxWorkers = c.cfg.MaxWorkers
	}
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	out := &BatchResult{
		Results: make([]*ChunkResult, len(requests)),
		Docs:    len(requests),
	}
	errs := make([]error, len(requests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)
	for i := range requests {
		g.Go(func() error {
			res, err := c.Chunk(gctx, requests[i].Request)
			if err != nil {
				errs[i] = err
				return nil
			}
			out.Results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, err := range errs {
		if err != nil {
			out.Failures++
			out.Errors = append(out.Errors, BatchError{BookID: requests[i].BookID, Error: err.Error()})
			continue
		}
		out.Successes++
	}
	out.Elapsed = time.Since(started)
	return out, nil
}
