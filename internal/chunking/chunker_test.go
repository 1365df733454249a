package chunking

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proseParagraphs(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "Paragraph %d talks about the topic at hand in a steady, unremarkable voice. ", i+1)
		b.WriteString("It keeps adding sentences so the text grows long enough to need several chunks. ")
		b.WriteString("Every sentence ends cleanly so boundary scoring has something to work with.\n\n")
	}
	return b.String()
}

func TestFallbackChunker_ShortTextSingleChunk(t *testing.T) {
	cfg := DefaultChunkerConfig()
	f := NewFallbackChunker(cfg, testLogger(t))

	chunks := f.Chunk("A short piece of text.", "doc1")
	require.Len(t, chunks, 1)
	assert.Equal(t, "A short piece of text.", chunks[0].Text)
	assert.Equal(t, StrategyFallback, chunks[0].Strategy)
	assert.Empty(t, chunks[0].Chapter)
}

func TestFallbackChunker_EmptyText(t *testing.T) {
	f := NewFallbackChunker(DefaultChunkerConfig(), testLogger(t))
	assert.Nil(t, f.Chunk("   \n ", "doc1"))
}

func TestFallbackChunker_SizeBounds(t *testing.T) {
	cfg := DefaultChunkerConfig()
	f := NewFallbackChunker(cfg, testLogger(t))
	text := proseParagraphs(30)

	chunks := f.Chunk(text, "doc1")
	require.Greater(t, len(chunks), 1)
	for i, ch := range chunks {
		assert.GreaterOrEqual(t, len(ch.Text), cfg.MinSize, "chunk %d below min", i)
		assert.LessOrEqual(t, len(ch.Text), cfg.MaxSize, "chunk %d above max", i)
		assert.Equal(t, ch.Text, text[ch.Start:ch.End])
	}
}

func TestFallbackChunker_CoversWholeDocument(t *testing.T) {
	f := NewFallbackChunker(DefaultChunkerConfig(), testLogger(t))
	text := proseParagraphs(20)

	chunks := f.Chunk(text, "doc1")
	require.NotEmpty(t, chunks)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, len(text), chunks[len(chunks)-1].End)
	// Consecutive chunks may overlap but never leave gaps.
	for i := 1; i < len(chunks); i++ {
		assert.LessOrEqual(t, chunks[i].Start, chunks[i-1].End)
	}
}

func TestContentAwareChunker_NoRegionStraddle(t *testing.T) {
	cfg := DefaultChunkerConfig()
	c := NewContentAwareChunker(cfg, testLogger(t))

	var b strings.Builder
	b.WriteString(proseParagraphs(8))
	b.WriteString("The key identity is $E = mc^2$ and it anchors the whole discussion.\n\n")
	b.WriteString(proseParagraphs(8))
	text := b.String()

	regions := DetectProtectedRegions(text, cfg)
	chunks := c.Chunk(text, "doc1", nil)
	require.NotEmpty(t, chunks)

	for _, r := range regions {
		for _, ch := range chunks {
			straddles := (r.Start < ch.Start && r.End > ch.Start) ||
				(r.Start < ch.End && r.End > ch.End)
			assert.False(t, straddles,
				"region [%d,%d) %s straddles chunk [%d,%d)", r.Start, r.End, r.Kind, ch.Start, ch.End)
		}
	}
}

func TestContentAwareChunker_PreservesMathSubstring(t *testing.T) {
	c := NewContentAwareChunker(DefaultChunkerConfig(), testLogger(t))

	text := proseParagraphs(6) + "Consider $E = mc^2$ as the anchor.\n\n" + proseParagraphs(6)
	chunks := c.Chunk(text, "doc1", nil)
	require.NotEmpty(t, chunks)

	holder := -1
	for i, ch := range chunks {
		if strings.Contains(ch.Text, "$E = mc^2$") {
			holder = i
			break
		}
	}
	require.GreaterOrEqual(t, holder, 0, "no chunk preserved the math span intact")
	assert.Equal(t, ContentMath, chunks[holder].ContentType)
}

func TestContentAwareChunker_SectionRefs(t *testing.T) {
	cfg := DefaultChunkerConfig()
	c := NewContentAwareChunker(cfg, testLogger(t))

	text := "Chapter 1: Introduction\n\n" + proseParagraphs(4) +
		"1.1 Motivation\n\n" + proseParagraphs(4)
	elements := []StructureElement{
		{Type: ElementChapter, Level: 0, Number: "1", Title: "Introduction", StartOffset: 0},
		{Type: ElementSection, Level: 1, Number: "1.1", Title: "Motivation", StartOffset: strings.Index(text, "1.1 Motivation")},
	}

	chunks := c.Chunk(text, "doc1", elements)
	require.NotEmpty(t, chunks)

	sawSection := false
	for _, ch := range chunks {
		assert.Equal(t, "1", ch.Chapter)
		if ch.Section == "1.1" {
			sawSection = true
			assert.Contains(t, ch.ChunkID, "_ch1_s1.1_c")
		}
	}
	assert.True(t, sawSection, "no chunk carried the section ref")
}

func TestContentAwareChunker_TinySectionSingleChunk(t *testing.T) {
	cfg := DefaultChunkerConfig()
	c := NewContentAwareChunker(cfg, testLogger(t))

	chunks := c.Chunk("Short section body.", "doc1", nil)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Short section body.", chunks[0].Text)
}

func TestAssemblyChunkID(t *testing.T) {
	assert.Equal(t, "doc_ch2_s2.1_c3", assemblyChunkID("doc", "2", "2.1", 3))
	assert.Equal(t, "doc_ch2_c3", assemblyChunkID("doc", "2", "", 3))
	assert.Equal(t, "doc_c3", assemblyChunkID("doc", "", "", 3))
}

func TestChooseBoundary_PrefersParagraphBreak(t *testing.T) {
	cfg := DefaultChunkerConfig()
	// One paragraph break near the target; the boundary should land on it.
	text := strings.Repeat("a", 990) + ".\n\n" + strings.Repeat("b", 600)
	pos := chooseBoundary(text, 0, len(text), nil, cfg)
	assert.Equal(t, 993, pos)
}

func TestChooseBoundary_SnapsOutOfRegion(t *testing.T) {
	cfg := DefaultChunkerConfig()
	text := strings.Repeat("a", 2000)
	// A region swallowing the whole search window.
	regions := []ProtectedRegion{{Start: 100, End: 1600, Kind: RegionDisplayMath}}
	pos := chooseBoundary(text, 0, len(text), regions, cfg)
	assert.True(t, pos == 100 || pos == 1600, "boundary %d should sit on a region edge", pos)
}
