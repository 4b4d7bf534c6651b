package engine

import "errors"

// Command rejections. All of these are per-issuer notices: they leave the
// game untouched and are never fatal to the session.
var (
	ErrWrongPhase         = errors.New("command not valid in current phase")
	ErrWrongRole          = errors.New("issuer lacks the required role")
	ErrWindowClosed       = errors.New("buzz window already closed")
	ErrUnknownTarget      = errors.New("unknown contestant or clue")
	ErrNoContestants      = errors.New("no contestants registered")
	ErrNoBoard            = errors.New("no board loaded")
	ErrBadWager           = errors.New("wager must be positive")
	ErrUnsupportedCommand = errors.New("unsupported command")
)
