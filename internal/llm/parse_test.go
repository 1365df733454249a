package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuestion_Labeled(t *testing.T) {
	raw := "QUESTION: What is a graph?\nEXPECTED_ANSWER: A graph is a set of vertices and edges."
	q, a, ok := parseQuestion(raw)

	require.True(t, ok)
	assert.Equal(t, "What is a graph?", q)
	assert.Equal(t, "A graph is a set of vertices and edges.", a)
}

func TestParseQuestion_HeuristicFallback(t *testing.T) {
	raw := "Here is something for you.\nWhat is a spanning tree?\n\nA spanning tree is a subgraph that connects all vertices with no cycles. It has exactly n minus one edges."
	q, a, ok := parseQuestion(raw)

	require.True(t, ok)
	assert.Equal(t, "What is a spanning tree?", q)
	assert.Contains(t, a, "spanning tree is a subgraph")
}

func TestParseQuestion_NoQuestionFails(t *testing.T) {
	_, _, ok := parseQuestion("Just a statement with no interrogative content.")
	assert.False(t, ok)
}

func TestParseEvaluation_FullReply(t *testing.T) {
	raw := "SCORE: 0.85\nFEEDBACK: Good coverage of the main idea.\nSUGGESTIONS: Mention pivots | Explain the base case"
	eval, ok := parseEvaluation(raw)

	require.True(t, ok)
	assert.InDelta(t, 0.85, eval.Score, 1e-9)
	assert.Equal(t, "Good coverage of the main idea.", eval.Feedback)
	assert.Equal(t, []string{"Mention pivots", "Explain the base case"}, eval.Suggestions)
}

func TestParseEvaluation_ScoreClampedAndDefaults(t *testing.T) {
	eval, ok := parseEvaluation("SCORE: 1.7")
	require.True(t, ok)
	assert.InDelta(t, 1.0, eval.Score, 1e-9)
	assert.Equal(t, "Answer evaluated.", eval.Feedback)
	assert.Empty(t, eval.Suggestions)
}

func TestParseEvaluation_MissingScoreFails(t *testing.T) {
	_, ok := parseEvaluation("FEEDBACK: fine work")
	assert.False(t, ok)
}

func TestParseEvaluation_SuggestionsCapped(t *testing.T) {
	eval, ok := parseEvaluation("SCORE: 0.5\nSUGGESTIONS: a | b | c | d | e")
	require.True(t, ok)
	assert.Len(t, eval.Suggestions, 3)
}

func TestParseAnalysis(t *testing.T) {
	raw := "SUMMARY: Covers graph basics.\nKEY_CONCEPTS: graphs | vertices | edges\nDIFFICULTY: 4"
	analysis, ok := parseAnalysis(raw)

	require.True(t, ok)
	assert.Equal(t, "Covers graph basics.", analysis.Summary)
	assert.Equal(t, []string{"graphs", "vertices", "edges"}, analysis.KeyConcepts)
	assert.Equal(t, 4, analysis.Difficulty)
}

func TestParseAnalysis_MissingSummaryFails(t *testing.T) {
	_, ok := parseAnalysis("KEY_CONCEPTS: graphs\nDIFFICULTY: 2")
	assert.False(t, ok)
}

func TestParseSentences_StripsListMarkers(t *testing.T) {
	raw := "1. Graph theory studies vertices and edges.\n- Traversal order matters for search.\n\n2) Trees are acyclic graphs."
	got := parseSentences(raw, 5)

	assert.Equal(t, []string{
		"Graph theory studies vertices and edges.",
		"Traversal order matters for search.",
		"Trees are acyclic graphs.",
	}, got)
}

func TestParseSentences_CapsAtN(t *testing.T) {
	got := parseSentences("one\ntwo\nthree\nfour", 2)
	assert.Len(t, got, 2)
}
