// Package view derives role-specific snapshots from the authoritative game
// state. Projection is pure: the same (game, role, viewer) always yields the
// same snapshot, so redaction rules can be tested without any transport.
package view

import (
	"sort"

	"github.com/lectrix/buzzboard/internal/board"
	"github.com/lectrix/buzzboard/internal/engine"
)

type Snapshot struct {
	Phase engine.Phase `json:"phase"`
	// You is the viewer's own contestant id, set on contestant snapshots.
	You         string           `json:"you,omitempty"`
	Contestants []ContestantView `json:"contestants"`
	Board       *BoardView       `json:"board,omitempty"`
	Clue        *ClueView        `json:"clue,omitempty"`
	// Controls lists the commands the admin can issue right now. Always
	// empty for other roles.
	Controls []string `json:"controls,omitempty"`
}

type ContestantView struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Score     board.Points `json:"score"`
	Connected bool         `json:"connected"`
	Buzzed    bool         `json:"buzzed,omitempty"`
	Excluded  bool         `json:"excluded,omitempty"`
}

type BoardView struct {
	Categories []CategoryView `json:"categories"`
}

type CategoryView struct {
	Title string     `json:"title"`
	Clues []ClueCell `json:"clues"`
}

// ClueCell is the face-down board tile: value and whether it has been
// played. Prompt text never appears here.
type ClueCell struct {
	Value    board.Points `json:"value"`
	Revealed bool         `json:"revealed"`
}

type ClueView struct {
	Ref       board.ClueRef `json:"ref"`
	Prompt    string        `json:"prompt"`
	Value     board.Points  `json:"value"`
	CanWager  bool          `json:"can_wager,omitempty"`
	Exclusive bool          `json:"exclusive,omitempty"`
	// Contestant holds the floor in Buzzed/Resolution.
	Contestant string `json:"contestant,omitempty"`
	ShowHint   bool   `json:"show_hint,omitempty"`
	// Hint is present for the admin always, and for everyone else only
	// once show_hint is set during Resolution.
	Hint string `json:"hint,omitempty"`
	// Response is never sent to non-admin roles.
	Response string `json:"response,omitempty"`
}

// Project renders the snapshot a single connection should see. viewerID is
// the bound contestant id and is ignored unless role is RoleContestant.
func Project(g engine.Game, role engine.Role, viewerID string) Snapshot {
	admin := role == engine.RoleAdmin

	snap := Snapshot{
		Phase:       g.Phase,
		Contestants: make([]ContestantView, 0, len(g.Contestants)),
	}
	if role == engine.RoleContestant {
		snap.You = viewerID
	}

	for _, c := range g.Contestants {
		snap.Contestants = append(snap.Contestants, ContestantView{
			ID:        c.ID,
			Name:      c.DisplayName(),
			Score:     c.Score,
			Connected: c.Connected,
			Buzzed:    g.Buzzed == c.ID,
			Excluded:  g.Excluded[c.ID],
		})
	}

	// The board stays hidden from non-admin roles until the lobby opens.
	if len(g.Board.Categories) > 0 && (admin || g.Phase != engine.PhasePreparing) {
		snap.Board = projectBoard(g.Board)
	}

	if clue, ok := g.Board.Clue(g.ActiveClue); ok && clueVisible(g.Phase) {
		cv := &ClueView{
			Ref:        g.ActiveClue,
			Prompt:     clue.Prompt,
			Value:      g.ActiveValue(),
			CanWager:   clue.CanWager,
			Exclusive:  g.Exclusive,
			Contestant: g.Buzzed,
			ShowHint:   g.ShowHint,
		}
		if admin {
			cv.Hint = clue.Hint
			cv.Response = clue.Response
		} else if g.Phase == engine.PhaseResolution && g.ShowHint {
			cv.Hint = clue.Hint
		}
		snap.Clue = cv
	}

	if admin {
		snap.Controls = controls(g)
	}
	return snap
}

func clueVisible(p engine.Phase) bool {
	switch p {
	case engine.PhaseClue, engine.PhaseBuzzing, engine.PhaseBuzzed, engine.PhaseResolution:
		return true
	}
	return false
}

func projectBoard(b board.Board) *BoardView {
	bv := &BoardView{Categories: make([]CategoryView, 0, len(b.Categories))}
	for _, cat := range b.Categories {
		cv := CategoryView{Title: cat.Title, Clues: make([]ClueCell, 0, len(cat.Clues))}
		for _, clue := range cat.Clues {
			cv.Clues = append(cv.Clues, ClueCell{Value: clue.Value, Revealed: clue.Revealed})
		}
		bv.Categories = append(bv.Categories, cv)
	}
	return bv
}

// controls enumerates the admin affordances for the current phase, in a
// fixed order so snapshots stay diffable.
func controls(g engine.Game) []string {
	var cmds []engine.CommandType
	switch g.Phase {
	case engine.PhasePreparing:
		cmds = append(cmds, engine.CmdLoadBoard)
		if len(g.Board.Categories) > 0 {
			cmds = append(cmds, engine.CmdOpenLobby)
		}
	case engine.PhaseConnecting:
		cmds = append(cmds, engine.CmdRegisterContestant, engine.CmdRemoveContestant)
		if len(g.Contestants) > 0 {
			cmds = append(cmds, engine.CmdStartGame)
		}
		cmds = append(cmds, engine.CmdSelectClue)
	case engine.PhaseClue:
		cmds = append(cmds, engine.CmdClueFullyShown)
		if clue, ok := g.Board.Clue(g.ActiveClue); ok && clue.CanWager {
			cmds = append(cmds, engine.CmdSetWager)
		}
		cmds = append(cmds, engine.CmdFinishClue)
	case engine.PhaseBuzzing:
		cmds = append(cmds, engine.CmdFinishClue)
	case engine.PhaseBuzzed:
		cmds = append(cmds, engine.CmdAcceptAnswer, engine.CmdRejectAnswer, engine.CmdFinishClue)
	case engine.PhaseResolution:
		if !g.ShowHint {
			cmds = append(cmds, engine.CmdRevealHint)
		}
		cmds = append(cmds, engine.CmdSelectClue, engine.CmdFinishClue)
	}

	// Bookkeeping commands are valid from every phase.
	cmds = append(cmds, engine.CmdNameContestant, engine.CmdAwardPoints, engine.CmdRevokePoints, engine.CmdResetGame)

	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = string(c)
	}
	sort.Strings(out)
	return out
}
