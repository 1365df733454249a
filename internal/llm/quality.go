package llm

import (
	"fmt"
	"strings"
)

// Generation acceptance bounds.
const (
	questionMinChars = 100
	questionMaxChars = 500
	answerMinChars   = 200
	answerMaxChars   = 1000
	conceptTokenRate = 0.3
)

var placeholderTokens = []string{"…", "TODO", "["}

// validateGenerated rejects model output that is malformed, truncated or
// off-topic for the requested concept.
func validateGenerated(question, answer, concept string) error {
	if n := len(question); n < questionMinChars || n > questionMaxChars {
		return fmt.Errorf("llm: question length %d outside [%d, %d]", n, questionMinChars, questionMaxChars)
	}
	if n := len(answer); n < answerMinChars || n > answerMaxChars {
		return fmt.Errorf("llm: answer length %d outside [%d, %d]", n, answerMinChars, answerMaxChars)
	}
	if !strings.HasSuffix(strings.TrimSpace(question), "?") {
		return fmt.Errorf("llm: question does not end with a question mark")
	}
	for _, tok := range placeholderTokens {
		if strings.Contains(question, tok) || strings.Contains(answer, tok) {
			return fmt.Errorf("llm: output contains placeholder token %q", tok)
		}
	}

	tokens := strings.Fields(strings.ToLower(concept))
	if len(tokens) == 0 {
		return nil
	}
	combined := strings.ToLower(question + " " + answer)
	hits := 0
	for _, tok := range tokens {
		if strings.Contains(combined, tok) {
			hits++
		}
	}
	if float64(hits)/float64(len(tokens)) < conceptTokenRate {
		return fmt.Errorf("llm: output does not mention concept %q", concept)
	}
	return nil
}
