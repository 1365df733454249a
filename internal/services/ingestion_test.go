package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/studygraph-backend/internal/chunking"
)

func TestDocumentID_StableAndPrefixed(t *testing.T) {
	a := documentID("same source text")
	b := documentID("same source text")
	c := documentID("different source text")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Regexp(t, `^doc_[0-9a-f]{12}$`, a)
}

func TestBuildSubtree_ProjectsChunksOntoGraphModel(t *testing.T) {
	req := IngestRequest{Title: "Discrete Math", Subject: "math"}
	chunks := []chunking.Chunk{
		{ChunkID: "doc_chunk_0001", Chapter: "1", Section: "1.1", Text: "Sets and elements.", Keywords: []string{"sets", "elements"}, WordCount: 3, Embedding: []float32{1, 0}},
		{ChunkID: "doc_chunk_0002", Chapter: "1", Section: "1.1", Text: "More on sets.", Keywords: []string{"sets"}, WordCount: 3},
		{ChunkID: "doc_chunk_0003", Chapter: "2", Section: "2.1", Text: "Relations between sets.", Keywords: []string{"relations"}, WordCount: 3},
	}

	textbook, chapters, sections, concepts, nodes := buildSubtree("doc_abc", req, chunks)

	assert.Equal(t, "doc_abc", textbook.ID)
	assert.Equal(t, "Discrete Math", textbook.Title)
	assert.Equal(t, "math", textbook.Subject)
	assert.False(t, textbook.ProcessedAt.IsZero())

	// Chapters and sections are deduplicated across chunks.
	require.Len(t, chapters, 2)
	assert.Equal(t, 1, chapters[0].Number)
	assert.Equal(t, "Chapter 1", chapters[0].Title)
	require.Len(t, sections, 2)
	assert.Equal(t, "1.1", sections[0].Number)
	assert.Equal(t, 1, sections[0].ChapterNumber)

	// First keyword names the concept, once per distinct name.
	require.Len(t, concepts, 2)
	assert.Equal(t, "sets", concepts[0].Name)
	assert.Equal(t, "relations", concepts[1].Name)

	require.Len(t, nodes, 3)
	assert.Equal(t, "sets", nodes[0].ConceptName)
	assert.True(t, nodes[0].HasEmbedding)
	assert.False(t, nodes[1].HasEmbedding)
	assert.Equal(t, len("Sets and elements."), nodes[0].CharCount)
	assert.Equal(t, "math", nodes[2].Subject)
	assert.Equal(t, 2, nodes[2].ChapterNumber)
}

func TestBuildSubtree_UntitledFallsBackToDocID(t *testing.T) {
	textbook, chapters, sections, concepts, nodes := buildSubtree("doc_xyz", IngestRequest{}, []chunking.Chunk{
		{ChunkID: "doc_chunk_0001", Text: "Plain text with no structure.", WordCount: 5},
	})

	assert.Equal(t, "doc_xyz", textbook.Title)
	assert.Empty(t, chapters)
	assert.Empty(t, sections)
	assert.Empty(t, concepts)
	require.Len(t, nodes, 1)
	assert.Empty(t, nodes[0].ConceptName)
	assert.False(t, nodes[0].HasEmbedding)
}
