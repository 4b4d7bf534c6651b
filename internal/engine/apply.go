package engine

import (
	"fmt"

	"github.com/lectrix/buzzboard/internal/board"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleContestant Role = "contestant"
	RoleSpectator  Role = "spectator"
)

type CommandType string

const (
	CmdOpenLobby      CommandType = "open_lobby"
	CmdLoadBoard      CommandType = "load_board"
	CmdStartGame      CommandType = "start_game"
	CmdSelectClue     CommandType = "select_clue"
	CmdClueFullyShown CommandType = "clue_fully_shown"
	CmdBuzz           CommandType = "buzz"
	CmdSetWager       CommandType = "set_wager"
	CmdAcceptAnswer   CommandType = "accept_answer"
	CmdRejectAnswer   CommandType = "reject_answer"
	CmdRevealHint     CommandType = "reveal_hint"
	CmdFinishClue     CommandType = "finish_clue"
	CmdNameContestant CommandType = "name_contestant"
	CmdAwardPoints    CommandType = "award_points"
	CmdRevokePoints   CommandType = "revoke_points"
	CmdResetGame      CommandType = "reset_game"

	// Issued by the server itself, never parsed off the wire.
	CmdRegisterContestant CommandType = "register_contestant"
	CmdRemoveContestant   CommandType = "remove_contestant"
	CmdSetConnected       CommandType = "set_connected"
)

type Command struct {
	Type CommandType

	// Issuer is the connection's immutable role; IssuerID is the bound
	// contestant id when Issuer is RoleContestant.
	Issuer   Role
	IssuerID string

	Board      board.Board   // load_board
	Clue       board.ClueRef // select_clue
	Contestant string        // target contestant id
	Name       string        // name_contestant
	NameHint   string        // register_contestant
	Points     board.Points  // award/revoke/set_wager
	Connected  bool          // set_connected
}

// adminOnly lists commands that only the admin connection may issue.
var adminOnly = map[CommandType]bool{
	CmdOpenLobby:          true,
	CmdLoadBoard:          true,
	CmdStartGame:          true,
	CmdSelectClue:         true,
	CmdClueFullyShown:     true,
	CmdSetWager:           true,
	CmdAcceptAnswer:       true,
	CmdRejectAnswer:       true,
	CmdRevealHint:         true,
	CmdFinishClue:         true,
	CmdAwardPoints:        true,
	CmdRevokePoints:       true,
	CmdResetGame:          true,
	CmdRegisterContestant: true,
	CmdRemoveContestant:   true,
	CmdSetConnected:       true,
}

// Apply is the single transition function. It returns the next game value
// and never mutates g; on error the returned game equals g.
func Apply(g Game, cmd Command) (Game, error) {
	if err := checkRole(g, cmd); err != nil {
		return g, err
	}

	switch cmd.Type {
	case CmdOpenLobby:
		return openLobby(g)
	case CmdLoadBoard:
		return loadBoard(g, cmd.Board)
	case CmdStartGame:
		return startGame(g)
	case CmdSelectClue:
		return selectClue(g, cmd.Clue)
	case CmdClueFullyShown:
		return clueFullyShown(g)
	case CmdBuzz:
		return buzz(g, cmd.IssuerID)
	case CmdSetWager:
		return setWager(g, cmd.Points)
	case CmdAcceptAnswer:
		return acceptAnswer(g)
	case CmdRejectAnswer:
		return rejectAnswer(g)
	case CmdRevealHint:
		return revealHint(g)
	case CmdFinishClue:
		return finishClue(g)
	case CmdNameContestant:
		return nameContestant(g, cmd.Contestant, cmd.Name)
	case CmdAwardPoints:
		return adjustScore(g, cmd.Contestant, cmd.Points)
	case CmdRevokePoints:
		return adjustScore(g, cmd.Contestant, -cmd.Points)
	case CmdResetGame:
		return NewGame(), nil
	case CmdRegisterContestant:
		return registerContestant(g, cmd.Contestant, cmd.NameHint)
	case CmdRemoveContestant:
		return removeContestant(g, cmd.Contestant)
	case CmdSetConnected:
		return setConnected(g, cmd.Contestant, cmd.Connected)
	default:
		return g, fmt.Errorf("%w: %q", ErrUnsupportedCommand, cmd.Type)
	}
}

func checkRole(g Game, cmd Command) error {
	switch cmd.Type {
	case CmdBuzz:
		if cmd.Issuer != RoleContestant {
			return ErrWrongRole
		}
	case CmdNameContestant:
		// Admin may name anyone, a contestant only themselves.
		if cmd.Issuer == RoleAdmin {
			return nil
		}
		if cmd.Issuer == RoleContestant && cmd.Contestant == cmd.IssuerID {
			return nil
		}
		return ErrWrongRole
	default:
		if adminOnly[cmd.Type] && cmd.Issuer != RoleAdmin {
			return ErrWrongRole
		}
	}
	return nil
}

func openLobby(g Game) (Game, error) {
	if g.Phase != PhasePreparing {
		return g, ErrWrongPhase
	}
	if len(g.Board.Categories) == 0 {
		return g, ErrNoBoard
	}
	next := g.Clone()
	next.Phase = PhaseConnecting
	return next, nil
}

func loadBoard(g Game, b board.Board) (Game, error) {
	if g.Phase != PhasePreparing {
		return g, ErrWrongPhase
	}
	if err := board.Validate(b); err != nil {
		return g, err
	}
	next := g.Clone()
	next.Board = b.Clone()
	return next, nil
}

func startGame(g Game) (Game, error) {
	if g.Phase != PhaseConnecting {
		return g, ErrWrongPhase
	}
	if len(g.Contestants) == 0 {
		return g, ErrNoContestants
	}
	first, ok := g.Board.FirstUnrevealed()
	if !ok {
		return g, ErrNoBoard
	}
	return enterClue(g, first)
}

func selectClue(g Game, ref board.ClueRef) (Game, error) {
	switch g.Phase {
	case PhaseConnecting:
		return enterClue(g, ref)
	case PhaseResolution:
		// Selecting the next clue straight from Resolution finalizes the
		// current one first.
		next, err := sealActiveClue(g)
		if err != nil {
			return g, err
		}
		out, err := enterClue(next, ref)
		if err != nil {
			return g, err
		}
		return out, nil
	default:
		return g, ErrWrongPhase
	}
}

func enterClue(g Game, ref board.ClueRef) (Game, error) {
	clue, ok := g.Board.Clue(ref)
	if !ok || clue.Revealed {
		return g, fmt.Errorf("%w: clue %d/%d", ErrUnknownTarget, ref.Category, ref.Clue)
	}
	next := g.Clone()
	next.clearClueState()
	next.Phase = PhaseClue
	next.ActiveClue = ref
	next.Exclusive = clue.Exclusive
	return next, nil
}

func clueFullyShown(g Game) (Game, error) {
	if g.Phase != PhaseClue {
		return g, ErrWrongPhase
	}
	next := g.Clone()
	next.Phase = PhaseBuzzing
	return next, nil
}

// buzz is the arbiter. The room actor admits commands one at a time, so the
// first buzz seen here while the window is open wins outright; everything
// after it finds the phase already at Buzzed and loses.
func buzz(g Game, contestantID string) (Game, error) {
	switch g.Phase {
	case PhaseBuzzing:
		if _, ok := g.ContestantByID(contestantID); !ok {
			return g, fmt.Errorf("%w: contestant %q", ErrUnknownTarget, contestantID)
		}
		if g.Excluded[contestantID] {
			return g, ErrWindowClosed
		}
		if g.Exclusive && g.Control != "" && contestantID != g.Control {
			return g, ErrWindowClosed
		}
		next := g.Clone()
		next.Phase = PhaseBuzzed
		next.Buzzed = contestantID
		return next, nil
	case PhaseBuzzed:
		// The race for this clue is decided. Losing is terminal until a
		// rejection reopens the window.
		return g, ErrWindowClosed
	default:
		return g, ErrWrongPhase
	}
}

func setWager(g Game, points board.Points) (Game, error) {
	if g.Phase != PhaseClue {
		return g, ErrWrongPhase
	}
	clue, ok := g.Board.Clue(g.ActiveClue)
	if !ok || !clue.CanWager {
		return g, ErrWrongPhase
	}
	if points <= 0 {
		return g, ErrBadWager
	}
	next := g.Clone()
	next.Wager = points
	return next, nil
}

func acceptAnswer(g Game) (Game, error) {
	if g.Phase != PhaseBuzzed {
		return g, ErrWrongPhase
	}
	i, ok := g.ContestantByID(g.Buzzed)
	if !ok {
		return g, fmt.Errorf("%w: buzzed contestant %q", ErrUnknownTarget, g.Buzzed)
	}
	next := g.Clone()
	next.Contestants[i].Score += g.ActiveValue()
	next.Control = g.Buzzed
	next.Phase = PhaseResolution
	next.ShowHint = false
	return next, nil
}

func rejectAnswer(g Game) (Game, error) {
	if g.Phase != PhaseBuzzed {
		return g, ErrWrongPhase
	}
	i, ok := g.ContestantByID(g.Buzzed)
	if !ok {
		return g, fmt.Errorf("%w: buzzed contestant %q", ErrUnknownTarget, g.Buzzed)
	}
	next := g.Clone()
	next.Contestants[i].Score -= g.ActiveValue()
	next.Excluded[g.Buzzed] = true
	next.Buzzed = ""

	if len(next.eligibleBuzzers()) == 0 {
		// Nobody left who could buzz: resolve with no winner.
		next.Phase = PhaseResolution
		next.ShowHint = false
		return next, nil
	}
	next.Phase = PhaseBuzzing
	return next, nil
}

func revealHint(g Game) (Game, error) {
	if g.Phase != PhaseResolution || g.ShowHint {
		return g, ErrWrongPhase
	}
	next := g.Clone()
	next.ShowHint = true
	return next, nil
}

func finishClue(g Game) (Game, error) {
	switch g.Phase {
	case PhaseClue, PhaseBuzzing, PhaseBuzzed, PhaseResolution:
	default:
		return g, ErrWrongPhase
	}
	next, err := sealActiveClue(g)
	if err != nil {
		return g, err
	}
	if next.Board.Exhausted() {
		next.Phase = PhaseComplete
	} else {
		next.Phase = PhaseConnecting
	}
	return next, nil
}

// sealActiveClue marks the active clue revealed and clears per-clue state.
// The phase is left for the caller to set.
func sealActiveClue(g Game) (Game, error) {
	if !g.Board.Contains(g.ActiveClue) {
		return g, fmt.Errorf("%w: active clue %d/%d outside board", ErrUnknownTarget, g.ActiveClue.Category, g.ActiveClue.Clue)
	}
	next := g.Clone()
	next.Board.Categories[g.ActiveClue.Category].Clues[g.ActiveClue.Clue].Revealed = true
	next.clearClueState()
	return next, nil
}

func nameContestant(g Game, id, name string) (Game, error) {
	i, ok := g.ContestantByID(id)
	if !ok {
		return g, fmt.Errorf("%w: contestant %q", ErrUnknownTarget, id)
	}
	next := g.Clone()
	next.Contestants[i].Name = name
	return next, nil
}

func adjustScore(g Game, id string, delta board.Points) (Game, error) {
	i, ok := g.ContestantByID(id)
	if !ok {
		return g, fmt.Errorf("%w: contestant %q", ErrUnknownTarget, id)
	}
	next := g.Clone()
	next.Contestants[i].Score += delta
	return next, nil
}

func registerContestant(g Game, id, nameHint string) (Game, error) {
	if g.Phase != PhaseConnecting {
		return g, ErrWrongPhase
	}
	if _, ok := g.ContestantByID(id); ok {
		return g, fmt.Errorf("%w: contestant %q already registered", ErrUnknownTarget, id)
	}
	next := g.Clone()
	if nameHint == "" {
		nameHint = fmt.Sprintf("Player %d", len(g.Contestants)+1)
	}
	next.Contestants = append(next.Contestants, Contestant{
		ID:        id,
		NameHint:  nameHint,
		Connected: true,
	})
	return next, nil
}

func removeContestant(g Game, id string) (Game, error) {
	// Removal is only allowed while no clue is live, so the buzz window and
	// the floor holder can never dangle.
	switch g.Phase {
	case PhasePreparing, PhaseConnecting, PhaseComplete:
	default:
		return g, ErrWrongPhase
	}
	i, ok := g.ContestantByID(id)
	if !ok {
		return g, fmt.Errorf("%w: contestant %q", ErrUnknownTarget, id)
	}
	next := g.Clone()
	next.Contestants = append(next.Contestants[:i], next.Contestants[i+1:]...)
	delete(next.Excluded, id)
	if next.Control == id {
		next.Control = ""
	}
	return next, nil
}

func setConnected(g Game, id string, connected bool) (Game, error) {
	i, ok := g.ContestantByID(id)
	if !ok {
		return g, fmt.Errorf("%w: contestant %q", ErrUnknownTarget, id)
	}
	next := g.Clone()
	next.Contestants[i].Connected = connected
	return next, nil
}
