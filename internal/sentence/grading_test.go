package sentence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   string
	}{
		{"empty", nil, ""},
		{"single", []string{"Hello"}, "Hello"},
		{"period", []string{"I’m", "concerned", "."}, "I’m concerned."},
		{"comma inside", []string{"To", "address", "this", ",", "I", "suggest"}, "To address this, I suggest"},
		{"question", []string{"Could", "you", "help", "?"}, "Could you help?"},
		{"all punctuation marks", []string{"a", "!", "b", ";", "c", ":", "d"}, "a! b; c: d"},
		{"leading punctuation token", []string{".", "a"}, ". a"},
		{"hyphenated word", []string{"part-time", "staff"}, "part-time staff"},
		{"punctuation prefix token", []string{"wait", "...", "ok"}, "wait... ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.tokens))
		})
	}
}

func TestFormatDeterministic(t *testing.T) {
	tokens := []string{"Just", "to", "confirm", ",", "we", "have", "enough", "stock", "."}
	assert.Equal(t, Format(tokens), Format(tokens))
	assert.NotEqual(t, Format(tokens), Format([]string{"to", "Just", "confirm", ",", "we", "have", "enough", "stock", "."}))
}

func TestGradeSentences(t *testing.T) {
	target1 := []string{"I’m", "concerned", "about", "coverage", "."}
	target2 := []string{"To", "address", "this", ",", "I", "suggest", "swapping", "shifts", "."}

	tests := []struct {
		name       string
		built1     string
		built2     string
		wantFirst  bool
		wantSecond bool
	}{
		{"both exact", "I’m concerned about coverage.", "To address this, I suggest swapping shifts.", true, true},
		{"first wrong case", "i’m concerned about coverage.", "To address this, I suggest swapping shifts.", false, true},
		{"second missing punctuation", "I’m concerned about coverage.", "To address this, I suggest swapping shifts", true, false},
		{"apostrophe differs", "I'm concerned about coverage.", "To address this, I suggest swapping shifts.", false, true},
		{"both empty", "", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := GradeSentences(tt.built1, tt.built2, target1, target2)
			assert.Equal(t, tt.wantFirst, g.Sentence1Correct)
			assert.Equal(t, tt.wantSecond, g.Sentence2Correct)
			assert.Equal(t, tt.wantFirst && tt.wantSecond, g.IsCorrect)
		})
	}
}

func TestWrongTokens(t *testing.T) {
	tests := []struct {
		name   string
		picked []string
		target []string
		want   []string
	}{
		{
			name:   "contraction split",
			picked: []string{"I", "am", "concerned"},
			target: []string{"I’m", "concerned"},
			want:   []string{"I", "am", "concerned"},
		},
		{
			name:   "exact",
			picked: []string{"a", "b"},
			target: []string{"a", "b"},
			want:   []string{},
		},
		{
			name:   "short answer reports nothing for missing positions",
			picked: []string{"a"},
			target: []string{"a", "b", "c"},
			want:   []string{},
		},
		{
			name:   "dedup keeps first occurrence",
			picked: []string{"maybe", "x", "maybe", "y"},
			target: []string{"a", "b", "c", "d"},
			want:   []string{"maybe", "x", "y"},
		},
		{
			name:   "nothing picked",
			picked: nil,
			target: []string{"a"},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WrongTokens(tt.picked, tt.target))
		})
	}
}

func TestWrongTokensBothKeepsCrossSentenceDuplicates(t *testing.T) {
	got := WrongTokensBoth(
		[]string{"maybe"}, []string{"I’m"},
		[]string{"maybe"}, []string{"To"},
	)
	assert.Equal(t, []string{"maybe", "maybe"}, got)
}
