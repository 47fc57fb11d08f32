package sentence

import "strings"

// Format joins tokens with single spaces and attaches punctuation tokens to
// the preceding word. Built answers and targets both go through Format
// before comparison.
func Format(tokens []string) string {
	var b strings.Builder
	for i, tok := range tokens {
		if i > 0 && !isPunctuation(tok) {
			b.WriteByte(' ')
		}
		b.WriteString(tok)
	}
	return b.String()
}

func isPunctuation(tok string) bool {
	if tok == "" {
		return false
	}
	switch tok[0] {
	case '.', ',', '!', '?', ';', ':':
		return true
	}
	return false
}

// Grade is the outcome of an exact-match comparison of both sentences
type Grade struct {
	Sentence1Correct bool `json:"sentence1_correct"`
	Sentence2Correct bool `json:"sentence2_correct"`
	IsCorrect        bool `json:"is_correct"`
}

// GradeSentences compares formatted answers to formatted targets. Case and
// punctuation are significant and there is no partial credit.
func GradeSentences(built1, built2 string, target1, target2 []string) Grade {
	g := Grade{
		Sentence1Correct: built1 == Format(target1),
		Sentence2Correct: built2 == Format(target2),
	}
	g.IsCorrect = g.Sentence1Correct && g.Sentence2Correct
	return g
}

// WrongTokens lists, position by position, the picked tokens that differ
// from the target. A picked token past the end of the target counts as
// wrong. Duplicates are dropped keeping the first occurrence.
func WrongTokens(picked, target []string) []string {
	seen := make(map[string]struct{})
	wrong := []string{}
	for i, p := range picked {
		if i < len(target) && p == target[i] {
			continue
		}
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		wrong = append(wrong, p)
	}
	return wrong
}

// WrongTokensBoth concatenates the per-sentence diagnostics without
// de-duplicating across sentences.
func WrongTokensBoth(picked1, target1, picked2, target2 []string) []string {
	return append(WrongTokens(picked1, target1), WrongTokens(picked2, target2)...)
}
