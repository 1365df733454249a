package llm

import (
	"fmt"
	"strings"
)

const questionSystemPrompt = `You are an expert educator writing assessment questions for a learning platform. Always answer in exactly the requested format.`

const evaluationSystemPrompt = `You are an expert educator grading student answers. Be fair, specific and encouraging. Always answer in exactly the requested format.`

const expansionSystemPrompt = `You rewrite informal study queries as precise academic sentences suitable for textbook retrieval.`

const analysisSystemPrompt = `You analyze educational text and summarize it for indexing. Always answer in exactly the requested format.`

func questionPrompt(req QuestionRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create one %s question about the concept %q at difficulty %d (1=easiest, 5=hardest).\n\n", req.Type, req.Concept, req.Difficulty)
	fmt.Fprintf(&b, "Source material:\n%s\n\n", req.ChunkText)
	if req.Context != "" {
		fmt.Fprintf(&b, "Additional context:\n%s\n\n", req.Context)
	}
	b.WriteString("The question must be answerable from the source material alone, between 100 and 500 characters, and end with a question mark. ")
	b.WriteString("The expected answer must be a complete model answer between 200 and 1000 characters.\n\n")
	b.WriteString("Reply in exactly this format:\nQUESTION: <the question>\nEXPECTED_ANSWER: <the model answer>")
	return b.String()
}

func evaluationPrompt(req EvaluationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Grade this student answer at difficulty %d (1=easiest, 5=hardest).\n\n", req.Difficulty)
	fmt.Fprintf(&b, "Question:\n%s\n\n", req.Question)
	fmt.Fprintf(&b, "Expected answer:\n%s\n\n", req.Expected)
	fmt.Fprintf(&b, "Student answer:\n%s\n\n", req.StudentAnswer)
	if req.Context != "" {
		fmt.Fprintf(&b, "Source context:\n%s\n\n", req.Context)
	}
	b.WriteString("Score from 0.0 (no understanding) to 1.0 (complete understanding). Give concise feedback and at most three concrete suggestions.\n\n")
	b.WriteString("Reply in exactly this format:\nSCORE: <0.0-1.0>\nFEEDBACK: <one or two sentences>\nSUGGESTIONS: <suggestion one> | <suggestion two> | <suggestion three>")
	return b.String()
}

func expansionPrompt(userText string, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A student searched for: %q\n\n", userText)
	fmt.Fprintf(&b, "Write exactly %d distinct academic sentences a textbook would use to discuss this topic. ", n)
	b.WriteString("Use formal terminology, one sentence per line, no numbering and no commentary.")
	return b.String()
}

func analysisPrompt(chunkText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this educational text:\n\n%s\n\n", chunkText)
	b.WriteString("Reply in exactly this format:\nSUMMARY: <two sentences>\nKEY_CONCEPTS: <concept one> | <concept two> | <concept three>\nDIFFICULTY: <1-5>")
	return b.String()
}
