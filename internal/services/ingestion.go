package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/studygraph-backend/internal/chunking"
	"github.com/yungbote/studygraph-backend/internal/graph"
	"github.com/yungbote/studygraph-backend/internal/platform/apierr"
	"github.com/yungbote/studygraph-backend/internal/platform/logger"
	"github.com/yungbote/studygraph-backend/internal/platform/openai"
)

const embedBatchSize = 64

type IngestRequest struct {
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	// Force overrides the assessor-chosen chunking strategy.
	Force string `json:"force,omitempty"`
}

type IngestResult struct {
	TextbookID string                `json:"textbook_id"`
	Strategy   string                `json:"strategy"`
	Chapters   int                   `json:"chapters"`
	Sections   int                   `json:"sections"`
	Concepts   int                   `json:"concepts"`
	Chunks     int                   `json:"chunks"`
	Embedded   int                   `json:"embedded"`
	Quality    *chunking.Assessment  `json:"quality,omitempty"`
	Stats      chunking.ChunkStats   `json:"stats"`
	Warnings   []string              `json:"warnings,omitempty"`
	Timings    chunking.ChunkTimings `json:"timings"`
}

type IngestionService interface {
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)
	PreviewChunks(ctx context.Context, req IngestRequest) (*chunking.ChunkResult, error)
	Stats(ctx context.Context) (map[string]any, error)
}

type ingestionService struct {
	controller *chunking.ChunkingController
	embedder   openai.Client
	store      *graph.Store
	log        *logger.Logger
}

func NewIngestionService(controller *chunking.ChunkingController, embedder openai.Client, store *graph.Store, baseLog *logger.Logger) IngestionService {
	return &ingestionService{
		controller: controller,
		embedder:   embedder,
		store:      store,
		log:        baseLog.With("service", "IngestionService"),
	}
}

// documentID derives a stable id from the source bytes so re-ingesting the
// same document always targets the same subtree.
func documentID(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "doc_" + hex.EncodeToString(sum[:6])
}

func (s *ingestionService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, apierr.New(http.StatusBadRequest, "missing_text", fmt.Errorf("text is required"))
	}
	if !s.store.Available() {
		return nil, apierr.New(http.StatusServiceUnavailable, "graph_unavailable", fmt.Errorf("graph store not configured"))
	}

	docID := documentID(req.Text)
	chunkRes, err := s.controller.Chunk(ctx, chunking.ChunkRequest{
		Text:  req.Text,
		DocID: docID,
		Force: req.Force,
	})
	if err != nil {
		return nil, apierr.New(http.StatusBadRequest, "chunking_failed", err)
	}

	embedded, err := s.embedChunks(ctx, chunkRes.Chunks)
	if err != nil {
		return nil, err
	}

	textbook, chapters, sections, concepts, nodes := buildSubtree(docID, req, chunkRes.Chunks)
	if err := s.store.IngestSubtree(ctx, textbook, chapters, sections, concepts, nodes); err != nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "graph_write_failed", err)
	}

	s.log.Info("Document ingested",
		"textbook_id", docID,
		"strategy", chunkRes.Strategy,
		"chunks", len(chunkRes.Chunks),
		"embedded", embedded,
	)
	return &IngestResult{
		TextbookID: docID,
		Strategy:   chunkRes.Strategy,
		Chapters:   len(chapters),
		Sections:   len(sections),
		Concepts:   len(concepts),
		Chunks:     len(nodes),
		Embedded:   embedded,
		Quality:    chunkRes.Quality,
		Stats:      chunkRes.Stats,
		Warnings:   chunkRes.Warnings,
		Timings:    chunkRes.Timings,
	}, nil
}

// embedChunks fills embeddings in place, batched. Failed slots stay nil and
// the chunk lands in the graph without an embedding.
func (s *ingestionService) embedChunks(ctx context.Context, chunks []chunking.Chunk) (int, error) {
	if s.embedder == nil || len(chunks) == 0 {
		return 0, nil
	}

	embedded := 0
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, ch := range chunks[start:end] {
			texts = append(texts, ch.Text)
		}
		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return embedded, apierr.New(http.StatusServiceUnavailable, "embedding_failed", err)
		}
		for i, vec := range vectors {
			if len(vec) == 0 {
				s.log.Warn("Embedding slot empty", "chunk_id", chunks[start+i].ChunkID)
				continue
			}
			chunks[start+i].Embedding = vec
			embedded++
		}
	}
	return embedded, nil
}

// buildSubtree projects postprocessed chunks onto the graph node model.
// Chapters and sections come from the refs stamped during chunking; each
// chunk's first keyword doubles as its concept name.
func buildSubtree(docID string, req IngestRequest, chunks []chunking.Chunk) (graph.Textbook, []graph.Chapter, []graph.Section, []graph.Concept, []graph.ChunkNode) {
	textbook := graph.Textbook{
		ID:          docID,
		Title:       req.Title,
		Subject:     req.Subject,
		ProcessedAt: time.Now().UTC(),
	}
	if textbook.Title == "" {
		textbook.Title = docID
	}

	chapterSeen := map[int]bool{}
	sectionSeen := map[string]bool{}
	conceptSeen := map[string]bool{}
	var chapters []graph.Chapter
	var sections []graph.Section
	var concepts []graph.Concept
	nodes := make([]graph.ChunkNode, 0, len(chunks))

	for _, ch := range chunks {
		chapterNum, _ := strconv.Atoi(ch.Chapter)
		if chapterNum > 0 && !chapterSeen[chapterNum] {
			chapterSeen[chapterNum] = true
			chapters = append(chapters, graph.Chapter{
				TextbookID: docID,
				Number:     chapterNum,
				Title:      fmt.Sprintf("Chapter %d", chapterNum),
			})
		}
		if ch.Section != "" && !sectionSeen[ch.Section] {
			sectionSeen[ch.Section] = true
			sections = append(sections, graph.Section{
				TextbookID:    docID,
				Number:        ch.Section,
				Title:         fmt.Sprintf("Section %s", ch.Section),
				ChapterNumber: chapterNum,
			})
		}

		concept := ""
		if len(ch.Keywords) > 0 {
			concept = ch.Keywords[0]
		}
		if concept != "" && ch.Section != "" && !conceptSeen[concept] {
			conceptSeen[concept] = true
			concepts = append(concepts, graph.Concept{
				TextbookID:    docID,
				SectionNumber: ch.Section,
				Name:          concept,
			})
		}

		nodes = append(nodes, graph.ChunkNode{
			ID:            ch.ChunkID,
			TextbookID:    docID,
			Subject:       req.Subject,
			ChapterNumber: chapterNum,
			SectionNumber: ch.Section,
			ConceptName:   concept,
			Text:          ch.Text,
			Embedding:     ch.Embedding,
			HasEmbedding:  len(ch.Embedding) > 0,
			CharCount:     len(ch.Text),
			WordCount:     ch.WordCount,
		})
	}
	return textbook, chapters, sections, concepts, nodes
}

// PreviewChunks runs the pipeline without touching embeddings or the graph.
func (s *ingestionService) PreviewChunks(ctx context.Context, req IngestRequest) (*chunking.ChunkResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, apierr.New(http.StatusBadRequest, "missing_text", fmt.Errorf("text is required"))
	}
	res, err := s.controller.Chunk(ctx, chunking.ChunkRequest{
		Text:  req.Text,
		DocID: documentID(req.Text),
		Force: req.Force,
	})
	if err != nil {
		return nil, apierr.New(http.StatusBadRequest, "chunking_failed", err)
	}
	return res, nil
}

func (s *ingestionService) Stats(ctx context.Context) (map[string]any, error) {
	out := map[string]any{
		"chunking": s.controller.Statistics(),
	}
	if s.store.Available() {
		counts, err := s.store.Stats(ctx)
		if err != nil {
			s.log.Warn("Graph stats unavailable", "error", err)
		} else {
			out["graph"] = counts
		}
	}
	return out, nil
}
