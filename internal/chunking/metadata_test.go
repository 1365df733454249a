package chunking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords_TopFiveByFrequency(t *testing.T) {
	text := "graph graph graph vertex vertex edge edge edge edge path cycle tree"
	got := extractKeywords(text)

	assert.Len(t, got, 5)
	assert.Equal(t, "edge", got[0])
	assert.Equal(t, "graph", got[1])
	assert.Equal(t, "vertex", got[2])
	// Remaining singletons tie and sort alphabetically.
	assert.Equal(t, []string{"cycle", "path"}, got[3:])
}

func TestExtractKeywords_SkipsStopWordsAndShortTokens(t *testing.T) {
	got := extractKeywords("the and for a an it matrix")
	assert.Equal(t, []string{"matrix"}, got)
}

func TestCountSentences(t *testing.T) {
	assert.Equal(t, 3, countSentences("One. Two! Three?"))
	assert.Equal(t, 1, countSentences("Wait... what"))
	assert.Equal(t, 1, countSentences("no terminator at all"))
	assert.Equal(t, 0, countSentences("   "))
}

func TestClassifyContent_Priority(t *testing.T) {
	regions := []ProtectedRegion{
		{Start: 0, End: 10, Kind: RegionDefinition},
		{Start: 20, End: 30, Kind: RegionInlineMath},
	}
	assert.Equal(t, ContentMath, classifyContent(regions, 0, 40))
	assert.Equal(t, ContentDefinition, classifyContent(regions, 0, 15))
	assert.Equal(t, ContentText, classifyContent(regions, 12, 18))
	assert.Equal(t, ContentText, classifyContent(nil, 0, 100))
}

func TestEstimateDifficulty_ContentTypeAdjustments(t *testing.T) {
	plain := "The cat sat on a mat. It was a red mat."
	base := estimateDifficulty(plain, ContentText)
	math := estimateDifficulty(plain, ContentMath)
	example := estimateDifficulty(plain, ContentExample)

	assert.InDelta(t, base+0.2, math, 1e-9)
	assert.InDelta(t, base-0.1, example, 1e-9)
	assert.GreaterOrEqual(t, base, 0.0)
	assert.LessOrEqual(t, math, 1.0)
}

func TestScoreChunkConfidence(t *testing.T) {
	cfg := DefaultChunkerConfig()

	inRange := make([]byte, 500)
	for i := range inRange {
		inRange[i] = 'a'
	}
	text := string(inRange[:499]) + "."
	assert.InDelta(t, 0.9, scoreChunkConfidence(text, ContentText, cfg), 1e-9)

	// Below minimum and no terminator.
	assert.InDelta(t, 0.5, scoreChunkConfidence("tiny chunk", ContentText, cfg), 1e-9)

	// Protected content adds a tenth.
	assert.InDelta(t, 1.0, scoreChunkConfidence(text, ContentMath, cfg), 1e-9)
}
