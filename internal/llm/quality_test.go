package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	gateQuestion = "How does a balanced binary search tree keep lookups fast as elements are inserted, and which rotations keep the height bounded during updates?"
	gateAnswer   = strings.TrimSpace(strings.Repeat(
		"A balanced binary search tree rebalances itself with rotations after inserts so the height stays logarithmic. ", 3))
)

func TestValidateGenerated_Accepts(t *testing.T) {
	assert.NoError(t, validateGenerated(gateQuestion, gateAnswer, "binary search tree"))
}

func TestValidateGenerated_QuestionLength(t *testing.T) {
	err := validateGenerated("Too short?", gateAnswer, "binary search tree")
	assert.ErrorContains(t, err, "question length")

	long := strings.Repeat(gateQuestion, 5)
	err = validateGenerated(long, gateAnswer, "binary search tree")
	assert.ErrorContains(t, err, "question length")
}

func TestValidateGenerated_AnswerLength(t *testing.T) {
	err := validateGenerated(gateQuestion, "Short answer.", "binary search tree")
	assert.ErrorContains(t, err, "answer length")
}

func TestValidateGenerated_MustEndWithQuestionMark(t *testing.T) {
	statement := strings.TrimSuffix(gateQuestion, "?") + "."
	err := validateGenerated(statement, gateAnswer, "binary search tree")
	assert.ErrorContains(t, err, "question mark")
}

func TestValidateGenerated_RejectsPlaceholders(t *testing.T) {
	err := validateGenerated(gateQuestion, gateAnswer+" [citation needed]", "binary search tree")
	assert.ErrorContains(t, err, "placeholder")
}

func TestValidateGenerated_ConceptMustAppear(t *testing.T) {
	err := validateGenerated(gateQuestion, gateAnswer, "fourier transform analysis")
	assert.ErrorContains(t, err, "does not mention")

	// One of three concept tokens present clears the 30 percent bar.
	assert.NoError(t, validateGenerated(gateQuestion, gateAnswer, "tree pruning cutback"))
}

func TestValidateGenerated_EmptyConceptSkipsCheck(t *testing.T) {
	assert.NoError(t, validateGenerated(gateQuestion, gateAnswer, "  "))
}
