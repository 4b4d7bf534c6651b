package board

// Points is signed: rejected answers deduct the clue value, so scores and
// adjustments can go negative.
type Points int

// ClueRef identifies one clue within a loaded board by category and
// position. Refs are stable for the lifetime of the board.
type ClueRef struct {
	Category int `json:"category"`
	Clue     int `json:"clue"`
}

type Clue struct {
	// Prompt is what contestants see, phrased as an answer.
	Prompt string `json:"prompt"`
	// Response is the expected reply from contestants. Admin-only until the
	// clue resolves.
	Response string `json:"response"`
	// Hint carries extra context or alternative responses the admin might
	// accept. Hidden from contestants until explicitly revealed.
	Hint     string `json:"hint,omitempty"`
	Value    Points `json:"value"`
	CanWager bool   `json:"can_wager,omitempty"`
	// Exclusive restricts buzzing to the contestant holding board control.
	Exclusive bool `json:"exclusive,omitempty"`
	Revealed  bool `json:"revealed"`
}

type Category struct {
	Title string `json:"title"`
	Clues []Clue `json:"clues"`
}

type Board struct {
	Categories []Category `json:"categories"`
}

// Clue returns the clue at ref, or false when ref points outside the board.
func (b Board) Clue(ref ClueRef) (Clue, bool) {
	if ref.Category < 0 || ref.Category >= len(b.Categories) {
		return Clue{}, false
	}
	cat := b.Categories[ref.Category]
	if ref.Clue < 0 || ref.Clue >= len(cat.Clues) {
		return Clue{}, false
	}
	return cat.Clues[ref.Clue], true
}

// Contains reports whether ref points at a clue on this board.
func (b Board) Contains(ref ClueRef) bool {
	_, ok := b.Clue(ref)
	return ok
}

// FirstUnrevealed walks categories in order and returns the first clue not
// yet revealed.
func (b Board) FirstUnrevealed() (ClueRef, bool) {
	for c, cat := range b.Categories {
		for q, clue := range cat.Clues {
			if !clue.Revealed {
				return ClueRef{Category: c, Clue: q}, true
			}
		}
	}
	return ClueRef{}, false
}

// Exhausted reports whether every clue on the board has been revealed.
func (b Board) Exhausted() bool {
	_, ok := b.FirstUnrevealed()
	return !ok
}

// Clone deep-copies the board so callers can mutate revealed flags without
// sharing backing arrays.
func (b Board) Clone() Board {
	out := Board{Categories: make([]Category, len(b.Categories))}
	for i, cat := range b.Categories {
		clues := make([]Clue, len(cat.Clues))
		copy(clues, cat.Clues)
		out.Categories[i] = Category{Title: cat.Title, Clues: clues}
	}
	return out
}
