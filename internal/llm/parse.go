package llm

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	questionRe    = regexp.MustCompile(`(?is)QUESTION:\s*(.+?)(?:EXPECTED_ANSWER:|$)`)
	answerRe      = regexp.MustCompile(`(?is)EXPECTED_ANSWER:\s*(.+)$`)
	scoreRe       = regexp.MustCompile(`(?is)SCORE:\s*([0-9]*\.?[0-9]+)`)
	feedbackRe    = regexp.MustCompile(`(?is)FEEDBACK:\s*(.+?)(?:SUGGESTIONS:|$)`)
	suggestionsRe = regexp.MustCompile(`(?is)SUGGESTIONS:\s*(.+)$`)
	summaryRe     = regexp.MustCompile(`(?is)SUMMARY:\s*(.+?)(?:KEY_CONCEPTS:|$)`)
	conceptsRe    = regexp.MustCompile(`(?is)KEY_CONCEPTS:\s*(.+?)(?:DIFFICULTY:|$)`)
	difficultyRe  = regexp.MustCompile(`(?is)DIFFICULTY:\s*([1-5])`)
)

// parseQuestion pulls the QUESTION/EXPECTED_ANSWER pair out of a model
// reply. When the labels are missing it falls back to heuristics: the first
// line ending in a question mark is the question, the longest remaining
// block is the answer.
func parseQuestion(raw string) (question, answer string, ok bool) {
	if m := questionRe.FindStringSubmatch(raw); m != nil {
		question = strings.TrimSpace(m[1])
	}
	if m := answerRe.FindStringSubmatch(raw); m != nil {
		answer = strings.TrimSpace(m[1])
	}
	if question != "" && answer != "" {
		return question, answer, true
	}

	blocks := strings.Split(raw, "\n")
	for _, line := range blocks {
		line = strings.TrimSpace(line)
		if question == "" && strings.HasSuffix(line, "?") {
			question = line
			break
		}
	}
	if answer == "" {
		for _, block := range strings.Split(raw, "\n\n") {
			block = strings.TrimSpace(block)
			if block == question {
				continue
			}
			if len(block) > len(answer) {
				answer = block
			}
		}
	}
	return question, answer, question != "" && answer != ""
}

// parseEvaluation pulls SCORE/FEEDBACK/SUGGESTIONS out of a model reply.
// A missing or unparsable score fails the parse; missing feedback gets a
// generic line.
func parseEvaluation(raw string) (*Evaluation, bool) {
	m := scoreRe.FindStringSubmatch(raw)
	if m == nil {
		return nil, false
	}
	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, false
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	eval := &Evaluation{Score: score, Feedback: "Answer evaluated."}
	if fm := feedbackRe.FindStringSubmatch(raw); fm != nil {
		if fb := strings.TrimSpace(fm[1]); fb != "" {
			eval.Feedback = fb
		}
	}
	if sm := suggestionsRe.FindStringSubmatch(raw); sm != nil {
		eval.Suggestions = splitList(sm[1], 3)
	}
	return eval, true
}

func parseAnalysis(raw string) (*ContentAnalysis, bool) {
	analysis := &ContentAnalysis{Difficulty: 3}
	found := false
	if m := summaryRe.FindStringSubmatch(raw); m != nil {
		analysis.Summary = strings.TrimSpace(m[1])
		found = analysis.Summary != ""
	}
	if m := conceptsRe.FindStringSubmatch(raw); m != nil {
		analysis.KeyConcepts = splitList(m[1], 10)
	}
	if m := difficultyRe.FindStringSubmatch(raw); m != nil {
		if d, err := strconv.Atoi(m[1]); err == nil {
			analysis.Difficulty = d
		}
	}
	return analysis, found
}

// parseSentences keeps non-empty lines, stripping list markers the model
// sometimes adds despite instructions.
func parseSentences(raw string, n int) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789.) ")
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == n {
			break
		}
	}
	return out
}

func splitList(raw string, max int) []string {
	var out []string
	for _, part := range strings.Split(raw, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
		if len(out) == max {
			break
		}
	}
	return out
}
