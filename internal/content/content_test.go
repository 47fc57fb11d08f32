package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	scenes := c.Scenes()
	require.Len(t, scenes, 3)
	for i, s := range scenes {
		assert.Equal(t, i+1, s.N)
		require.Len(t, s.Rounds, RoundsPerScene)
		assert.Len(t, s.PatternLines, 2)
	}
	assert.Equal(t, 3, c.MaxScene())

	_, round, err := c.Round(1, 1)
	require.NoError(t, err)
	assert.Equal(t, "manager", round.CharacterID)
	assert.Equal(t, []string{"I’m", "concerned", "about", "the", "weekend", "staffing", "shortage", "."}, round.TargetTokens1)

	ch, ok := c.Character(round.CharacterID)
	require.True(t, ok)
	assert.Equal(t, "Manager", ch.Name)
	assert.Equal(t, "manager", ch.ID)

	var ids []string
	for _, character := range c.Characters() {
		ids = append(ids, character.ID)
	}
	assert.Equal(t, []string{"colleague", "manager", "staff"}, ids)
}

func TestNumericTokensStayStrings(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	_, round, err := c.Round(3, 1)
	require.NoError(t, err)
	assert.Contains(t, round.TargetTokens1, "3")
	assert.Contains(t, round.TargetTokens1, "PM")
}

func TestLookupMisses(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	_, err = c.Scene(99)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = c.Round(1, 4)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = c.Round(1, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "no scenes",
			yaml: "characters: {}\nscenes: []\n",
		},
		{
			name: "two rounds",
			yaml: `
characters:
  a: {name: A}
scenes:
  - n: 1
    rounds:
      - {n: 1, character: a, target1: [x], target2: [y]}
      - {n: 2, character: a, target1: [x], target2: [y]}
`,
		},
		{
			name: "unknown character",
			yaml: `
characters:
  a: {name: A}
scenes:
  - n: 1
    rounds:
      - {n: 1, character: a, target1: [x], target2: [y]}
      - {n: 2, character: b, target1: [x], target2: [y]}
      - {n: 3, character: a, target1: [x], target2: [y]}
`,
		},
		{
			name: "duplicate scene",
			yaml: `
characters:
  a: {name: A}
scenes:
  - n: 1
    rounds:
      - {n: 1, character: a, target1: [x], target2: [y]}
      - {n: 2, character: a, target1: [x], target2: [y]}
      - {n: 3, character: a, target1: [x], target2: [y]}
  - n: 1
    rounds:
      - {n: 1, character: a, target1: [x], target2: [y]}
      - {n: 2, character: a, target1: [x], target2: [y]}
      - {n: 3, character: a, target1: [x], target2: [y]}
`,
		},
		{
			name: "empty target",
			yaml: `
characters:
  a: {name: A}
scenes:
  - n: 1
    rounds:
      - {n: 1, character: a, target1: [], target2: [y]}
      - {n: 2, character: a, target1: [x], target2: [y]}
      - {n: 3, character: a, target1: [x], target2: [y]}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
characters:
  a: {name: A}
scenes:
  - n: 4
    title: Custom
    rounds:
      - {n: 3, character: a, target1: [c], target2: [z]}
      - {n: 1, character: a, target1: [a], target2: [x]}
      - {n: 2, character: a, target1: [b], target2: [y]}
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	_, round, err := c.Round(4, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, round.TargetTokens1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
