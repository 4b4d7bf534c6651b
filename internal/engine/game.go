package engine

import (
	"github.com/lectrix/buzzboard/internal/board"
)

type Phase string

const (
	// PhasePreparing is the initial phase: no board loaded, no lobby.
	PhasePreparing Phase = "preparing"
	// PhaseConnecting doubles as the picking lobby between clues.
	PhaseConnecting Phase = "connecting"
	PhaseClue       Phase = "clue"
	PhaseBuzzing    Phase = "buzzing"
	PhaseBuzzed     Phase = "buzzed"
	PhaseResolution Phase = "resolution"
	// PhaseComplete is terminal: every clue revealed, only bookkeeping and
	// reset still allowed.
	PhaseComplete Phase = "complete"
)

type Contestant struct {
	// ID is stable from registration until explicit removal or reset. It
	// survives disconnects.
	ID string
	// Name is empty until someone names the contestant; NameHint is the
	// placeholder shown meanwhile (controller port, user agent, seat number).
	Name     string
	NameHint string
	Score    board.Points
	// Connected tracks transport liveness only; identity and score persist
	// regardless.
	Connected bool
}

// DisplayName is the name clients should render.
func (c Contestant) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.NameHint
}

// Game is the single authoritative aggregate. It is a value: Apply never
// mutates its receiver, so a rejected command leaves the caller's copy
// untouched.
type Game struct {
	Phase       Phase
	Board       board.Board
	Contestants []Contestant

	// ActiveClue is meaningful in the Clue, Buzzing, Buzzed and Resolution
	// phases only.
	ActiveClue board.ClueRef
	// Exclusive restricts the current clue's buzz window to the control
	// holder.
	Exclusive bool
	// Wager overrides the active clue's value when non-zero.
	Wager board.Points
	// Buzzed is the contestant holding the floor in Buzzed/Resolution.
	// Empty in Resolution means the clue resolved without a winner.
	Buzzed string
	// ShowHint reveals the clue hint to everyone during Resolution.
	ShowHint bool
	// Excluded holds contestants locked out of the current clue by a
	// rejected answer.
	Excluded map[string]bool
	// Control is the contestant who last answered correctly. Gates
	// exclusive clues.
	Control string
}

func NewGame() Game {
	return Game{
		Phase:    PhasePreparing,
		Excluded: map[string]bool{},
	}
}

// Clone deep-copies the aggregate so transitions can build the next value
// without sharing slices or maps with the previous one.
func (g Game) Clone() Game {
	out := g
	out.Board = g.Board.Clone()
	out.Contestants = make([]Contestant, len(g.Contestants))
	copy(out.Contestants, g.Contestants)
	out.Excluded = make(map[string]bool, len(g.Excluded))
	for id, v := range g.Excluded {
		out.Excluded[id] = v
	}
	return out
}

// ContestantByID returns the index of the contestant with the given id.
func (g Game) ContestantByID(id string) (int, bool) {
	for i, c := range g.Contestants {
		if c.ID == id {
			return i, true
		}
	}
	return 0, false
}

// ActiveValue is what the current clue is worth, honoring any wager.
func (g Game) ActiveValue() board.Points {
	if g.Wager > 0 {
		return g.Wager
	}
	clue, ok := g.Board.Clue(g.ActiveClue)
	if !ok {
		return 0
	}
	return clue.Value
}

// eligibleBuzzers are the contestants who could still win the current buzz
// window: connected, not locked out, and allowed by the exclusive rule.
func (g Game) eligibleBuzzers() []string {
	var ids []string
	for _, c := range g.Contestants {
		if !c.Connected || g.Excluded[c.ID] {
			continue
		}
		if g.Exclusive && g.Control != "" && c.ID != g.Control {
			continue
		}
		ids = append(ids, c.ID)
	}
	return ids
}

// clearClueState resets all per-clue bookkeeping.
func (g *Game) clearClueState() {
	g.ActiveClue = board.ClueRef{}
	g.Exclusive = false
	g.Wager = 0
	g.Buzzed = ""
	g.ShowHint = false
	g.Excluded = map[string]bool{}
}
