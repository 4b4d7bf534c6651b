package board

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBoard = `{
  "categories": [
    {
      "title": "Go",
      "clues": [
        {"prompt": "p1", "response": "r1", "hint": "h1", "value": 100},
        {"prompt": "p2", "response": "r2", "value": 200, "can_wager": true, "exclusive": true}
      ]
    }
  ]
}`

func TestParseValidBoard(t *testing.T) {
	b, err := Parse([]byte(validBoard))
	require.NoError(t, err)

	require.Len(t, b.Categories, 1)
	require.Len(t, b.Categories[0].Clues, 2)
	assert.Equal(t, "Go", b.Categories[0].Title)
	assert.Equal(t, Points(100), b.Categories[0].Clues[0].Value)
	assert.True(t, b.Categories[0].Clues[1].CanWager)
	assert.True(t, b.Categories[0].Clues[1].Exclusive)
}

func TestParseStripsRevealedFlags(t *testing.T) {
	b, err := Parse([]byte(`{"categories":[{"title":"t","clues":[
		{"prompt":"p","response":"r","value":100,"revealed":true}]}]}`))
	require.NoError(t, err)
	assert.False(t, b.Categories[0].Clues[0].Revealed, "boards must load face-down")
}

func TestParseRejectsMalformedBoards(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{"not json", `{`},
		{"no categories", `{"categories": []}`},
		{"untitled category", `{"categories":[{"title":" ","clues":[{"prompt":"p","response":"r","value":100}]}]}`},
		{"empty category", `{"categories":[{"title":"t","clues":[]}]}`},
		{"blank prompt", `{"categories":[{"title":"t","clues":[{"prompt":" ","response":"r","value":100}]}]}`},
		{"missing response", `{"categories":[{"title":"t","clues":[{"prompt":"p","value":100}]}]}`},
		{"zero value", `{"categories":[{"title":"t","clues":[{"prompt":"p","response":"r","value":0}]}]}`},
		{"negative value", `{"categories":[{"title":"t","clues":[{"prompt":"p","response":"r","value":-100}]}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.json))
			assert.ErrorIs(t, err, ErrMalformedBoard)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "demo.json"), []byte(validBoard), 0o644))

	b, err := Load(dir, "demo")
	require.NoError(t, err)
	assert.Len(t, b.Categories, 1)

	_, err = Load(dir, "demo.json")
	assert.NoError(t, err, "explicit extension should work too")

	_, err = Load(dir, "missing")
	assert.Error(t, err)
}

func TestLoadRefusesPathTraversal(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"", "../demo", "sub/demo", ".hidden"} {
		_, err := Load(dir, name)
		assert.ErrorIs(t, err, ErrMalformedBoard, "name %q", name)
	}
}

func TestClueLookup(t *testing.T) {
	b, err := Parse([]byte(validBoard))
	require.NoError(t, err)

	clue, ok := b.Clue(ClueRef{Category: 0, Clue: 1})
	require.True(t, ok)
	assert.Equal(t, "p2", clue.Prompt)

	for _, ref := range []ClueRef{{-1, 0}, {0, -1}, {1, 0}, {0, 2}} {
		_, ok := b.Clue(ref)
		assert.False(t, ok, "ref %+v", ref)
		assert.False(t, b.Contains(ref))
	}
}

func TestFirstUnrevealedAndExhausted(t *testing.T) {
	b, err := Parse([]byte(validBoard))
	require.NoError(t, err)

	ref, ok := b.FirstUnrevealed()
	require.True(t, ok)
	assert.Equal(t, ClueRef{Category: 0, Clue: 0}, ref)
	assert.False(t, b.Exhausted())

	b.Categories[0].Clues[0].Revealed = true
	ref, ok = b.FirstUnrevealed()
	require.True(t, ok)
	assert.Equal(t, ClueRef{Category: 0, Clue: 1}, ref)

	b.Categories[0].Clues[1].Revealed = true
	_, ok = b.FirstUnrevealed()
	assert.False(t, ok)
	assert.True(t, b.Exhausted())
}

func TestCloneIsIndependent(t *testing.T) {
	b, err := Parse([]byte(validBoard))
	require.NoError(t, err)

	clone := b.Clone()
	clone.Categories[0].Clues[0].Revealed = true

	assert.False(t, b.Categories[0].Clues[0].Revealed, "clone shares backing array with original")
}
