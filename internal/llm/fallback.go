package llm

import (
	"strings"
)

// fallbackScoreCap keeps offline grades from claiming full mastery.
const fallbackScoreCap = 0.9

// shortAnswerChars damps scores for answers too short to show understanding.
const shortAnswerChars = 50

// fallbackEvaluate grades by word overlap against the expected answer when
// the model is unreachable.
func fallbackEvaluate(req EvaluationRequest) *Evaluation {
	student := strings.ToLower(strings.TrimSpace(req.StudentAnswer))
	expected := strings.ToLower(req.Expected)

	if student == "" {
		return &Evaluation{
			Score:    0,
			Feedback: "No answer was provided.",
			Suggestions: []string{
				"Write out your understanding of the concept in your own words.",
			},
			Fallback: true,
		}
	}

	expectedWords := map[string]bool{}
	for _, w := range strings.Fields(expected) {
		w = strings.Trim(w, ".,;:!?()\"'")
		if len(w) >= 3 {
			expectedWords[w] = true
		}
	}

	matched := 0
	seen := map[string]bool{}
	for _, w := range strings.Fields(student) {
		w = strings.Trim(w, ".,;:!?()\"'")
		if expectedWords[w] && !seen[w] {
			matched++
			seen[w] = true
		}
	}

	score := 0.0
	if len(expectedWords) > 0 {
		score = float64(matched) / float64(len(expectedWords))
	}
	if len(student) < shortAnswerChars {
		score *= float64(len(student)) / float64(shortAnswerChars)
	}
	if score > fallbackScoreCap {
		score = fallbackScoreCap
	}

	eval := &Evaluation{Score: score, Fallback: true}
	switch {
	case score >= 0.7:
		eval.Feedback = "Your answer covers most of the key points of the expected answer."
		eval.Suggestions = []string{"Compare your answer with the model answer for remaining gaps."}
	case score >= 0.4:
		eval.Feedback = "Your answer touches on some of the expected material but misses important points."
		eval.Suggestions = []string{
			"Re-read the source material for this concept.",
			"Include the key terms the question asks about.",
		}
	default:
		eval.Feedback = "Your answer does not yet address the expected material."
		eval.Suggestions = []string{
			"Review the concept before answering again.",
			"Try explaining the idea step by step in your own words.",
		}
	}
	return eval
}
