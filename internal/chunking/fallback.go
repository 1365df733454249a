package chunking

import (
	"strings"

	"github.com/yungbote/studygraph-backend/internal/platform/logger"
)

// FallbackChunker slides a target-sized window over unstructured text,
// preferring paragraph, then sentence, then whitespace boundaries. Chapter
// and section refs stay empty.
type FallbackChunker struct {
	cfg ChunkerConfig
	log *logger.Logger
}

func NewFallbackChunker(cfg ChunkerConfig, baseLog *logger.Logger) *FallbackChunker {
	return &FallbackChunker{cfg: cfg, log: baseLog.With("component", "FallbackChunker")}
}

func (f *FallbackChunker) Chunk(text, docID string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	regions := DetectProtectedRegions(text, f.cfg)

	if len(text) < f.cfg.MinSize {
		chunk := f.emit(text, docID, 0, len(text), 1, regions)
		return []Chunk{chunk}
	}

	var chunks []Chunk
	cur := 0
	ordinal := 0
	first := true
	for len(text)-cur > f.cfg.TargetSize+boundarySearchSpan {
		boundary := chooseBoundary(text, cur, len(text), regions, f.cfg)
		if boundary <= cur {
			break
		}
		start := cur
		if !first && f.cfg.OverlapSize > 0 {
			start = overlapStart(regions, cur, 0, f.cfg.OverlapSize)
		}
		ordinal++
		chunks = append(chunks, f.emit(text, docID, start, boundary, ordinal, regions))
		cur = boundary
		first = false
	}

	if len(text) > cur {
		if len(text)-cur < f.cfg.MinSize && len(chunks) > 0 {
			last := &chunks[len(chunks)-1]
			last.End = len(text)
			last.Text = text[last.Start:]
			finishChunk(last, regions, f.cfg)
		} else {
			start := cur
			if !first && f.cfg.OverlapSize > 0 {
				start = overlapStart(regions, cur, 0, f.cfg.OverlapSize)
			}
			ordinal++
			chunks = append(chunks, f.emit(text, docID, start, len(text), ordinal, regions))
		}
	}
	return chunks
}

func (f *FallbackChunker) emit(text, docID string, start, end, ordinal int, regions []ProtectedRegion) Chunk {
	chunk := Chunk{
		ChunkID:    assemblyChunkID(docID, "", "", ordinal),
		DocumentID: docID,
		Start:      start,
		End:        end,
		Text:       text[start:end],
		Strategy:   StrategyFallback,
	}
	finishChunk(&chunk, regions, f.cfg)
	return chunk
}
