package chunking

import (
	"regexp"
	"sort"
	"strings"
)

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "had": true,
	"her": true, "was": true, "one": true, "our": true, "out": true,
	"this": true, "that": true, "with": true, "have": true, "from": true,
	"they": true, "will": true, "been": true, "has": true, "their": true,
	"which": true, "when": true, "where": true, "what": true, "were": true,
	"there": true, "these": true, "those": true, "then": true, "than": true,
	"each": true, "also": true, "into": true, "such": true, "some": true,
	"more": true, "other": true, "only": true, "its": true, "may": true,
	"any": true, "most": true, "over": true, "between": true, "both": true,
}

var wordRe = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9'_-]*`)

var mathSymbolRe = regexp.MustCompile(`[=+\-*/^<>∑∏∫√∞≈≠≤≥±∂∇∈∉⊂⊆∪∩$\\]`)

func tokenize(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}

func countSentences(text string) int {
	count := 0
	for i := 0; i < len(text); i++ {
		if isSentenceTerminator(text[i]) {
			count++
			for i+1 < len(text) && isSentenceTerminator(text[i+1]) {
				i++
			}
		}
	}
	if count == 0 && strings.TrimSpace(text) != "" {
		count = 1
	}
	return count
}

// extractKeywords picks the top-5 tokens of length >= 3 by frequency,
// excluding stop words. Ties break alphabetically for determinism.
func extractKeywords(text string) []string {
	freq := map[string]int{}
	for _, tok := range tokenize(text) {
		if len(tok) < 3 || stopWords[tok] {
			continue
		}
		freq[tok]++
	}
	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > 5 {
		words = words[:5]
	}
	return words
}

// classifyContent assigns the chunk's content type by the kinds of protected
// regions it contains: math wins, then definition, then example.
func classifyContent(regions []ProtectedRegion, start, end int) string {
	hasDef, hasExample := false, false
	for _, r := range regions {
		if r.End <= start || r.Start >= end {
			continue
		}
		if r.IsMath() {
			return ContentMath
		}
		if r.HasKind(RegionDefinition) {
			hasDef = true
		}
		if r.HasKind(RegionExample) {
			hasExample = true
		}
	}
	if hasDef {
		return ContentDefinition
	}
	if hasExample {
		return ContentExample
	}
	return ContentText
}

// estimateDifficulty starts at 0.5 and adjusts for content type, vocabulary,
// sentence length and math symbol density.
func estimateDifficulty(text, contentType string) float64 {
	d := 0.5
	switch contentType {
	case ContentMath:
		d += 0.2
	case ContentDefinition:
		d += 0.15
	case ContentExample:
		d -= 0.1
	}

	words := tokenize(text)
	if len(words) > 0 {
		totalLen := 0
		for _, w := range words {
			totalLen += len(w)
		}
		if float64(totalLen)/float64(len(words)) > 6 {
			d += 0.1
		}
	}

	if sentences := countSentences(text); sentences > 0 && len(words) > 0 {
		if float64(len(words))/float64(sentences) > 20 {
			d += 0.1
		}
	}

	d += 0.02 * float64(len(mathSymbolRe.FindAllString(text, -1)))

	return clamp01(d)
}

// scoreChunkConfidence starts at 0.8 and adjusts for size fit, protected
// content and a clean sentence ending.
func scoreChunkConfidence(text, contentType string, cfg ChunkerConfig) float64 {
	c := 0.8
	if len(text) >= cfg.MinSize && len(text) <= cfg.MaxSize {
		c += 0.1
	} else if len(text) < cfg.MinSize {
		c -= 0.2
	}
	if contentType != ContentText {
		c += 0.1
	}
	trimmed := strings.TrimSpace(text)
	if trimmed != "" && !isSentenceTerminator(trimmed[len(trimmed)-1]) {
		c -= 0.1
	}
	return clamp01(c)
}

// finishChunk fills derived metadata common to both strategies.
func finishChunk(chunk *Chunk, regions []ProtectedRegion, cfg ChunkerConfig) {
	chunk.WordCount = len(tokenize(chunk.Text))
	chunk.SentenceCount = countSentences(chunk.Text)
	chunk.Keywords = extractKeywords(chunk.Text)
	chunk.ContentType = classifyContent(regions, chunk.Start, chunk.End)
	chunk.Difficulty = estimateDifficulty(chunk.Text, chunk.ContentType)
	chunk.Confidence = scoreChunkConfidence(chunk.Text, chunk.ContentType, cfg)
}
