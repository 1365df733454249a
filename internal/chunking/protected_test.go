package chunking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMathDetector_InlineAndDisplay(t *testing.T) {
	text := "The identity $E = mc^2$ is famous. Also:\n$$\n\\int_0^1 x dx\n$$\nend."
	regions := MathDetector{}.Detect(text)

	require.NotEmpty(t, regions)
	foundInline, foundDisplay := false, false
	for _, r := range regions {
		got := text[r.Start:r.End]
		if r.Kind == RegionInlineMath && strings.Contains(got, "E = mc^2") {
			foundInline = true
		}
		if r.Kind == RegionDisplayMath {
			foundDisplay = true
		}
	}
	assert.True(t, foundInline, "inline math region missing")
	assert.True(t, foundDisplay, "display math region missing")
}

func TestDefinitionDetector_ExtendsSentences(t *testing.T) {
	text := "Definition 1.1: A function is a relation between sets. Each element in the domain maps to exactly one element. This property distinguishes functions."
	regions := DefinitionDetector{}.Detect(text)

	require.NotEmpty(t, regions)
	r := regions[0]
	assert.Equal(t, RegionDefinition, r.Kind)
	span := text[r.Start:r.End]
	assert.Contains(t, span, "A function is a relation between sets.")
	assert.Contains(t, span, "maps to exactly one element.")
}

func TestExampleDetector_ExtendsThroughSolution(t *testing.T) {
	text := "Example 2.3: Compute the derivative of x squared. Solution: apply the power rule to get 2x. Unrelated follow-on sentence."
	regions := ExampleDetector{}.Detect(text)

	require.NotEmpty(t, regions)
	span := text[regions[0].Start:regions[0].End]
	assert.Contains(t, span, "Solution")
	assert.Equal(t, RegionExample, regions[0].Kind)
}

func TestMergeRegions_MergesWithinGap(t *testing.T) {
	merged := MergeRegions([]ProtectedRegion{
		{Start: 0, End: 10, Kind: RegionInlineMath},
		{Start: 25, End: 40, Kind: RegionDefinition},
		{Start: 100, End: 120, Kind: RegionExample},
	})

	require.Len(t, merged, 2)
	assert.Equal(t, 0, merged[0].Start)
	assert.Equal(t, 40, merged[0].End)
	assert.Equal(t, "inline_math+definition", merged[0].Kind)
	assert.Equal(t, RegionExample, merged[1].Kind)
}

func TestMergeRegions_KindUnionIsDeduplicated(t *testing.T) {
	merged := MergeRegions([]ProtectedRegion{
		{Start: 0, End: 10, Kind: RegionInlineMath},
		{Start: 5, End: 15, Kind: RegionInlineMath},
		{Start: 12, End: 30, Kind: RegionEquation},
	})

	require.Len(t, merged, 1)
	assert.Equal(t, "inline_math+equation", merged[0].Kind)
	assert.True(t, merged[0].HasKind(RegionInlineMath))
	assert.True(t, merged[0].HasKind(RegionEquation))
	assert.False(t, merged[0].HasKind(RegionDefinition))
}

func TestMergeRegions_Empty(t *testing.T) {
	assert.Nil(t, MergeRegions(nil))
}

func TestProtectedRegion_IsMath(t *testing.T) {
	assert.True(t, ProtectedRegion{Kind: RegionDisplayMath}.IsMath())
	assert.True(t, ProtectedRegion{Kind: "definition+equation"}.IsMath())
	assert.False(t, ProtectedRegion{Kind: RegionDefinition}.IsMath())
}

func TestDetectProtectedRegions_RespectsConfig(t *testing.T) {
	text := "Definition 1.1: A set is a collection of objects. It has members."
	cfg := DefaultChunkerConfig()
	cfg.PreserveDefinitions = false
	cfg.PreserveMath = false
	cfg.PreserveExamples = false

	assert.Empty(t, DetectProtectedRegions(text, cfg))

	cfg.PreserveDefinitions = true
	assert.NotEmpty(t, DetectProtectedRegions(text, cfg))
}

func TestSentenceHelpers(t *testing.T) {
	text := "First sentence. Second sentence here. Third."

	assert.Equal(t, 0, sentenceStart(text, 5))
	assert.Equal(t, 16, sentenceStart(text, 20))
	assert.Equal(t, 15, sentenceEnd(text, 3))
	assert.Equal(t, len(text), sentenceEnd(text, len(text)))
}
