package chunking

import (
	"fmt"
	"strings"

	"github.com/yungbote/studygraph-backend/internal/platform/logger"
)

// boundarySearchSpan is how far past the sliding target a boundary may land.
const boundarySearchSpan = 200

// ContentAwareChunker produces structure-respecting chunks that never split
// protected regions.
type ContentAwareChunker struct {
	cfg ChunkerConfig
	log *logger.Logger
}

func NewContentAwareChunker(cfg ChunkerConfig, baseLog *logger.Logger) *ContentAwareChunker {
	return &ContentAwareChunker{cfg: cfg, log: baseLog.With("component", "ContentAwareChunker")}
}

// section is a contiguous structured span with its enclosing refs.
type section struct {
	start   int
	end     int
	chapter string
	secref  string
}

func deriveSections(textLen int, elements []StructureElement) []section {
	if len(elements) == 0 {
		return []section{{start: 0, end: textLen}}
	}

	var out []section
	if elements[0].StartOffset > 0 {
		out = append(out, section{start: 0, end: elements[0].StartOffset})
	}

	chapter, secref := "", ""
	for i, e := range elements {
		switch e.Type {
		case ElementChapter:
			chapter = e.Number
			secref = ""
		case ElementSection, ElementSubsection, ElementSubsubsection:
			secref = e.Number
		}
		end := textLen
		if i+1 < len(elements) {
			end = elements[i+1].StartOffset
		}
		if end <= e.StartOffset {
			continue
		}
		out = append(out, section{start: e.StartOffset, end: end, chapter: chapter, secref: secref})
	}
	return out
}

func (c *ContentAwareChunker) Chunk(text, docID string, elements []StructureElement) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	regions := DetectProtectedRegions(text, c.cfg)
	sections := deriveSections(len(text), elements)

	var chunks []Chunk
	ordinal := 0
	for _, sec := range sections {
		secChunks := c.chunkSection(text, docID, sec, regions, &ordinal)
		chunks = append(chunks, secChunks...)
	}
	return chunks
}

func (c *ContentAwareChunker) chunkSection(text, docID string, sec section, allRegions []ProtectedRegion, ordinal *int) []Chunk {
	body := text[sec.start:sec.end]
	if strings.TrimSpace(body) == "" {
		return nil
	}

	regions := regionsWithin(allRegions, sec.start, sec.end)

	if sec.end-sec.start < c.cfg.MinSize {
		*ordinal++
		chunk := c.emit(text, docID, sec, sec.start, sec.end, *ordinal, regions)
		return []Chunk{chunk}
	}

	var chunks []Chunk
	cur := sec.start
	prevStructural := true // section head counts as a structural boundary
	for sec.end-cur > c.cfg.TargetSize+boundarySearchSpan {
		boundary := chooseBoundary(text, cur, sec.end, regions, c.cfg)
		if boundary <= cur {
			break
		}
		start := cur
		if !prevStructural && c.cfg.OverlapSize > 0 {
			start = overlapStart(regions, cur, sec.start, c.cfg.OverlapSize)
		}
		*ordinal++
		chunks = append(chunks, c.emit(text, docID, sec, start, boundary, *ordinal, regions))
		cur = boundary
		prevStructural = false
	}

	// Final span; merge into the previous chunk when below MinSize.
	if sec.end > cur {
		if sec.end-cur < c.cfg.MinSize && len(chunks) > 0 {
			last := &chunks[len(chunks)-1]
			last.End = sec.end
			last.Text = text[last.Start:sec.end]
			finishChunk(last, regions, c.cfg)
		} else {
			start := cur
			if !prevStructural && c.cfg.OverlapSize > 0 {
				start = overlapStart(regions, cur, sec.start, c.cfg.OverlapSize)
			}
			*ordinal++
			chunks = append(chunks, c.emit(text, docID, sec, start, sec.end, *ordinal, regions))
		}
	}
	return chunks
}

func (c *ContentAwareChunker) emit(text, docID string, sec section, start, end, ordinal int, regions []ProtectedRegion) Chunk {
	chunk := Chunk{
		ChunkID:    assemblyChunkID(docID, sec.chapter, sec.secref, ordinal),
		DocumentID: docID,
		Chapter:    sec.chapter,
		Section:    sec.secref,
		Start:      start,
		End:        end,
		Text:       text[start:end],
		Strategy:   StrategyContentAware,
	}
	finishChunk(&chunk, regions, c.cfg)
	return chunk
}

func assemblyChunkID(docID, chapter, secref string, ordinal int) string {
	switch {
	case chapter != "" && secref != "":
		return fmt.Sprintf("%s_ch%s_s%s_c%d", docID, chapter, secref, ordinal)
	case chapter != "":
		return fmt.Sprintf("%s_ch%s_c%d", docID, chapter, ordinal)
	default:
		return fmt.Sprintf("%s_c%d", docID, ordinal)
	}
}

// overlapStart backs the chunk start up by the overlap, clamped to floor and
// snapped out of any protected region it would land inside.
func overlapStart(regions []ProtectedRegion, cur, floor, overlap int) int {
	start := cur - overlap
	if start < floor {
		start = floor
	}
	if r := regionAt(regions, start); r != nil && start > r.Start {
		start = r.End
		if start > cur {
			start = cur
		}
	}
	return start
}

func regionsWithin(regions []ProtectedRegion, start, end int) []ProtectedRegion {
	var out []ProtectedRegion
	for _, r := range regions {
		if r.End <= start || r.Start >= end {
			continue
		}
		out = append(out, r)
	}
	return out
}

func regionAt(regions []ProtectedRegion, pos int) *ProtectedRegion {
	for i := range regions {
		if regions[i].Contains(pos) {
			return &regions[i]
		}
	}
	return nil
}

func insideRegion(regions []ProtectedRegion, pos int) bool {
	for _, r := range regions {
		if pos > r.Start && pos < r.End {
			return true
		}
	}
	return false
}

// chooseBoundary picks the next chunk boundary after cur. The search window
// is [cur+min, target+200) clipped to the section. A target inside a
// protected region snaps to the region's edge; otherwise candidates are
// scored 0.7*quality + 0.3*distance_penalty.
func chooseBoundary(text string, cur, sectionEnd int, regions []ProtectedRegion, cfg ChunkerConfig) int {
	target := cur + cfg.TargetSize
	lo := cur + cfg.MinSize
	hi := target + boundarySearchSpan
	if hi > sectionEnd {
		hi = sectionEnd
	}
	if lo >= hi {
		return sectionEnd
	}

	if r := regionAt(regions, target); r != nil {
		if r.End > lo && r.End <= hi {
			return r.End
		}
		if r.Start >= lo && r.Start < hi {
			return r.Start
		}
		// Region swallows the window. Emit up to its start if that leaves a
		// viable chunk, else carry the whole region (it may exceed MaxSize).
		if r.Start > cur+1 {
			return r.Start
		}
		if r.End < sectionEnd {
			return r.End
		}
		return sectionEnd
	}

	best, bestScore := -1, -1.0
	for pos := lo; pos < hi; pos++ {
		if insideRegion(regions, pos) {
			continue
		}
		quality := boundaryQuality(text, pos)
		if quality == 0 {
			continue
		}
		distance := pos - target
		if distance < 0 {
			distance = -distance
		}
		penalty := 1 - float64(distance)/float64(boundarySearchSpan)
		if penalty < 0 {
			penalty = 0
		}
		score := 0.7*quality + 0.3*penalty
		if score > bestScore {
			best, bestScore = pos, score
		}
	}
	if best > 0 {
		return best
	}

	// No natural boundary: cut at the target, nudged out of any region.
	pos := target
	if pos > sectionEnd {
		pos = sectionEnd
	}
	if r := regionAt(regions, pos); r != nil {
		if r.End <= sectionEnd {
			return r.End
		}
		return r.Start
	}
	return pos
}

// boundaryQuality: paragraph break 0.9, sentence end 0.7, whitespace 0.5.
func boundaryQuality(text string, pos int) float64 {
	if pos <= 0 || pos >= len(text) {
		return 0
	}
	if pos >= 2 && text[pos-1] == '\n' && text[pos-2] == '\n' {
		return 0.9
	}
	if isSentenceTerminator(text[pos-1]) && (text[pos] == ' ' || text[pos] == '\n') {
		return 0.7
	}
	if text[pos-1] == ' ' || text[pos-1] == '\n' {
		return 0.5
	}
	return 0
}
