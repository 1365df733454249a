package chunking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualityAssessor_NoElementsFallsBack(t *testing.T) {
	a := NewQualityAssessor(DefaultDetectorConfig(), testLogger(t))

	out := a.Assess(&DetectionResult{})
	assert.Equal(t, StrategyFallback, out.Strategy)
	assert.InDelta(t, 0.1, out.Confidence, 1e-9)
	assert.NotEmpty(t, out.Warnings)

	out = a.Assess(nil)
	assert.Equal(t, StrategyFallback, out.Strategy)
}

func TestQualityAssessor_WellStructuredTextbook(t *testing.T) {
	d := NewStructureDetector(DefaultDetectorConfig(), testLogger(t))
	a := NewQualityAssessor(DefaultDetectorConfig(), testLogger(t))

	out := a.Assess(d.Detect(structuredText))

	require.NotNil(t, out)
	assert.Contains(t, []string{StrategyContentAware, StrategyHybrid}, out.Strategy)
	assert.Greater(t, out.Overall, 0.4)
	assert.GreaterOrEqual(t, out.Confidence, 0.1)
	for name, score := range out.Factors {
		assert.GreaterOrEqual(t, score, 0.0, name)
		assert.LessOrEqual(t, score, 1.0, name)
	}
}

func TestQualityAssessor_CompositeWeights(t *testing.T) {
	d := NewStructureDetector(DefaultDetectorConfig(), testLogger(t))
	a := NewQualityAssessor(DefaultDetectorConfig(), testLogger(t))

	out := a.Assess(d.Detect(structuredText))
	want := 0.4*out.Factors["heading_consistency"] +
		0.3*out.Factors["chapter_boundaries"] +
		0.2*out.Factors["section_organization"] +
		0.1*out.Factors["hierarchy_logic"]
	assert.InDelta(t, want, out.Overall, 1e-9)
}

func TestQualityAssessor_ConfidenceFloor(t *testing.T) {
	a := NewQualityAssessor(DefaultDetectorConfig(), testLogger(t))

	// One lonely low-confidence heading: deficiencies push confidence down
	// but never below the floor.
	detection := &DetectionResult{
		Elements: []StructureElement{
			{Type: ElementHeading, Level: 1, Title: "misc", Confidence: 0.3},
		},
		Hierarchy: Hierarchy{Totals: map[string]int{ElementHeading: 1}},
	}
	out := a.Assess(detection)
	assert.GreaterOrEqual(t, out.Confidence, 0.1)
}

func TestSequentialNumberingRate(t *testing.T) {
	elements := []StructureElement{
		{Type: ElementChapter, Level: 0, Number: "1"},
		{Type: ElementChapter, Level: 0, Number: "2"},
		{Type: ElementChapter, Level: 0, Number: "3"},
		{Type: ElementChapter, Level: 0, Number: "7"},
	}
	assert.InDelta(t, 2.0/3.0, sequentialNumberingRate(elements), 1e-9)

	assert.InDelta(t, 0.5, sequentialNumberingRate(nil), 1e-9)
}
