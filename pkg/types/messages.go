// Package types defines the wire protocol spoken over the websocket.
//
// Client -> Server: a tagged command object. "type" selects the command;
// unknown types are rejected with an error message, never ignored.
//
//	{"type": "buzz"}
//	{"type": "load_board", "board": "demo"}
//	{"type": "select_clue", "clue": {"category": 0, "clue": 1}}
//	{"type": "award_points", "contestant": "<id>", "points": 100}
//	{"type": "name_contestant", "contestant": "<id>", "name": "Ada"}
//
// Server -> Client: either a full role-projected snapshot (pushed after
// every accepted mutation and once on connect) or a per-connection error
// notice that clears on the next snapshot.
package types

import (
	"github.com/lectrix/buzzboard/internal/board"
	"github.com/lectrix/buzzboard/internal/view"
)

type ClientMessage struct {
	Type string `json:"type"`
	// Board names a board definition file for load_board.
	Board      string         `json:"board,omitempty"`
	Clue       *board.ClueRef `json:"clue,omitempty"`
	Contestant string         `json:"contestant,omitempty"`
	Name       string         `json:"name,omitempty"`
	Points     int            `json:"points,omitempty"`
}

type ServerMessage struct {
	Type    string         `json:"type"` // "snapshot" | "error"
	Version int            `json:"version,omitempty"`
	State   *view.Snapshot `json:"state,omitempty"`
	Code    string         `json:"code,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Error codes carried on ServerMessage.Code.
const (
	CodeWrongPhase     = "wrong_phase"
	CodeWrongRole      = "wrong_role"
	CodeWindowClosed   = "window_closed"
	CodeUnknownTarget  = "unknown_target"
	CodeMalformedBoard = "malformed_board"
	CodeNoContestants  = "no_contestants"
	CodeNoBoard        = "no_board"
	CodeBadWager       = "bad_wager"
	CodeUnsupported    = "unsupported"
	CodeInternal       = "internal"
)
