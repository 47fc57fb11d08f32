// Package sentence implements the two-sentence builder: token pools, the
// tap/reset/submit state machine and exact-match grading.
package sentence

import (
	"math/rand"
	"strconv"
)

// Pool namespaces keep the ids of the two slots disjoint
const (
	Namespace1 = "s1"
	Namespace2 = "s2"
)

// Token is one selectable chip. IDs are unique within a pool, so duplicate
// words stay independently selectable.
type Token struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// BuildPool creates one token per target word followed by one per distractor
func BuildPool(target, distractors []string, namespace string) []Token {
	tokens := make([]Token, 0, len(target)+len(distractors))
	add := func(text string) {
		id := namespace + "-" + strconv.Itoa(len(tokens)) + "-" + text
		tokens = append(tokens, Token{ID: id, Text: text})
	}
	for _, text := range target {
		add(text)
	}
	for _, text := range distractors {
		add(text)
	}
	return tokens
}

// Shuffle returns a Fisher-Yates permutation of tokens. The input is not
// modified. A nil rng uses the package-level source.
func Shuffle(tokens []Token, rng *rand.Rand) []Token {
	out := make([]Token, len(tokens))
	copy(out, tokens)

	intn := rand.Intn
	if rng != nil {
		intn = rng.Intn
	}
	for i := len(out) - 1; i > 0; i-- {
		j := intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// texts extracts the display text of each token
func texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Text
	}
	return out
}
