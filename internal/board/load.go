package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrMalformedBoard = errors.New("malformed board")

// Load reads a board definition by name from dir. Names are plain file
// stems; path traversal out of dir is refused.
func Load(dir, name string) (Board, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return Board{}, fmt.Errorf("%w: bad board name %q", ErrMalformedBoard, name)
	}
	if filepath.Ext(name) == "" {
		name += ".json"
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return Board{}, fmt.Errorf("read board %q: %w", name, err)
	}
	return Parse(data)
}

// Parse decodes and validates a JSON board definition.
func Parse(data []byte) (Board, error) {
	var b Board
	if err := json.Unmarshal(data, &b); err != nil {
		return Board{}, fmt.Errorf("%w: %v", ErrMalformedBoard, err)
	}
	if err := Validate(b); err != nil {
		return Board{}, err
	}
	// Boards always start face-down, whatever the file says.
	for c := range b.Categories {
		for q := range b.Categories[c].Clues {
			b.Categories[c].Clues[q].Revealed = false
		}
	}
	return b, nil
}

// Validate enforces the minimal board schema: at least one category, no
// empty categories, non-blank prompts and responses, positive values.
func Validate(b Board) error {
	if len(b.Categories) == 0 {
		return fmt.Errorf("%w: no categories", ErrMalformedBoard)
	}
	for c, cat := range b.Categories {
		if strings.TrimSpace(cat.Title) == "" {
			return fmt.Errorf("%w: category %d has no title", ErrMalformedBoard, c)
		}
		if len(cat.Clues) == 0 {
			return fmt.Errorf("%w: category %q has no clues", ErrMalformedBoard, cat.Title)
		}
		for q, clue := range cat.Clues {
			if strings.TrimSpace(clue.Prompt) == "" {
				return fmt.Errorf("%w: category %q clue %d has no prompt", ErrMalformedBoard, cat.Title, q)
			}
			if strings.TrimSpace(clue.Response) == "" {
				return fmt.Errorf("%w: category %q clue %d has no response", ErrMalformedBoard, cat.Title, q)
			}
			if clue.Value <= 0 {
				return fmt.Errorf("%w: category %q clue %d has non-positive value %d", ErrMalformedBoard, cat.Title, q, clue.Value)
			}
		}
	}
	return nil
}
