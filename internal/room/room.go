// Package room owns the authoritative Game behind a single actor goroutine.
// Every command from every connection funnels through the room's inbox, so
// admission order is the only ordering authority: the buzz race is decided
// by whichever buzz the actor dequeues first, with no extra locking.
package room

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/lectrix/buzzboard/internal/board"
	"github.com/lectrix/buzzboard/internal/engine"
	"github.com/lectrix/buzzboard/internal/session"
	"github.com/lectrix/buzzboard/internal/view"
	"github.com/lectrix/buzzboard/pkg/types"
)

// outboxSize bounds each connection's send queue. A client that falls this
// far behind is dropped rather than allowed to stall the broadcast.
const outboxSize = 16

var errInternal = errors.New("internal error applying command")

type Msg interface{ isRoomMsg() }

// Join registers a live connection. The room immediately pushes a full
// role-projected snapshot to Outbox. A second Join for the same contestant
// replaces the stale connection (reconnect).
type Join struct {
	SessionID    string
	Role         engine.Role
	ContestantID string
	Outbox       chan types.ServerMessage
}

type Leave struct{ SessionID string }

// FromClient carries a decoded command. BoardRef is set instead of
// Cmd.Board for load_board; the room resolves it through its loader.
type FromClient struct {
	SessionID string
	Cmd       engine.Command
	BoardRef  string
}

// ClaimSeat registers a new contestant and issues its capability token.
// Only valid while the game is in the Connecting phase.
type ClaimSeat struct {
	NameHint string
	Reply    chan ClaimResult
}

type ClaimResult struct {
	Token        string
	ContestantID string
	Err          error
}

// GetState reflects internal state without data races; used by tests and
// the HTTP layer.
type GetState struct{ Reply chan View }

type View struct {
	Version    int
	NumClients int
	Game       engine.Game
}

type Shutdown struct{}

func (Join) isRoomMsg()       {}
func (Leave) isRoomMsg()      {}
func (FromClient) isRoomMsg() {}
func (ClaimSeat) isRoomMsg()  {}
func (GetState) isRoomMsg()   {}
func (Shutdown) isRoomMsg()   {}

type client struct {
	role         engine.Role
	contestantID string
	outbox       chan types.ServerMessage
}

// BoardLoader resolves a board reference from a load_board command into a
// validated board.
type BoardLoader func(ref string) (board.Board, error)

type Room struct {
	inbox     chan Msg
	game      engine.Game
	version   int
	clients   map[string]*client
	tokens    *session.Registry
	loadBoard BoardLoader
	log       *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func New(parent context.Context, tokens *session.Registry, loader BoardLoader, log *zap.Logger) *Room {
	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		inbox:     make(chan Msg, 64),
		game:      engine.NewGame(),
		clients:   make(map[string]*client),
		tokens:    tokens,
		loadBoard: loader,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg)
			case Leave:
				r.handleLeave(msg.SessionID)
			case FromClient:
				r.handleCommand(msg)
			case ClaimSeat:
				r.handleClaimSeat(msg)
			case GetState:
				msg.Reply <- View{
					Version:    r.version,
					NumClients: len(r.clients),
					Game:       r.game.Clone(),
				}
			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handleJoin(msg Join) {
	if msg.Role == engine.RoleContestant {
		// Replace any stale connection still bound to this contestant so a
		// reconnect is idempotent.
		for id, c := range r.clients {
			if c.role == engine.RoleContestant && c.contestantID == msg.ContestantID {
				close(c.outbox)
				delete(r.clients, id)
			}
		}
	}

	r.clients[msg.SessionID] = &client{
		role:         msg.Role,
		contestantID: msg.ContestantID,
		outbox:       msg.Outbox,
	}
	r.log.Info("client joined",
		zap.String("session", msg.SessionID),
		zap.String("role", string(msg.Role)))

	if msg.Role == engine.RoleContestant {
		if i, ok := r.game.ContestantByID(msg.ContestantID); ok && !r.game.Contestants[i].Connected {
			if next, err := engine.Apply(r.game, engine.Command{
				Type:       engine.CmdSetConnected,
				Issuer:     engine.RoleAdmin,
				Contestant: msg.ContestantID,
				Connected:  true,
			}); err == nil {
				r.game = next
				r.version++
				r.broadcast()
				return
			}
		}
	}

	// Everyone gets a full snapshot on connect, not just on the next
	// mutation.
	r.send(msg.SessionID, r.snapshotFor(r.clients[msg.SessionID]))
}

func (r *Room) handleLeave(sessionID string) {
	c, ok := r.clients[sessionID]
	if !ok {
		return
	}
	delete(r.clients, sessionID)
	// The writer goroutine exits by draining a closed outbox; leaving it
	// open would strand one goroutine per disconnect.
	close(c.outbox)
	r.log.Info("client left", zap.String("session", sessionID))

	if c.role != engine.RoleContestant {
		return
	}
	// Identity and score survive; only liveness changes, and only if no
	// other connection is still bound to this contestant.
	for _, other := range r.clients {
		if other.role == engine.RoleContestant && other.contestantID == c.contestantID {
			return
		}
	}
	if next, err := engine.Apply(r.game, engine.Command{
		Type:       engine.CmdSetConnected,
		Issuer:     engine.RoleAdmin,
		Contestant: c.contestantID,
		Connected:  false,
	}); err == nil {
		r.game = next
		r.version++
		r.broadcast()
	}
}

func (r *Room) handleCommand(msg FromClient) {
	cmd := msg.Cmd

	if cmd.Type == engine.CmdLoadBoard {
		if cmd.Issuer != engine.RoleAdmin {
			r.reject(msg.SessionID, engine.ErrWrongRole)
			return
		}
		b, err := r.loadBoard(msg.BoardRef)
		if err != nil {
			r.reject(msg.SessionID, err)
			return
		}
		cmd.Board = b
	}

	next, err := r.apply(cmd)
	if err != nil {
		r.reject(msg.SessionID, err)
		return
	}

	r.game = next
	r.version++

	switch cmd.Type {
	case engine.CmdResetGame:
		r.tokens.RevokeContestants()
	case engine.CmdRemoveContestant:
		r.tokens.RevokeContestant(cmd.Contestant)
	}

	r.log.Debug("command applied",
		zap.String("command", string(cmd.Type)),
		zap.String("phase", string(r.game.Phase)),
		zap.Int("version", r.version))
	r.broadcast()
}

// apply runs the transition function, converting an invariant-violation
// panic into a local error so one bad command cannot take the room down or
// leave the aggregate half-mutated.
func (r *Room) apply(cmd engine.Command) (g engine.Game, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("invariant violation applying command",
				zap.String("command", string(cmd.Type)),
				zap.Any("panic", rec))
			g, err = r.game, errInternal
		}
	}()
	return engine.Apply(r.game, cmd)
}

func (r *Room) handleClaimSeat(msg ClaimSeat) {
	if r.game.Phase != engine.PhaseConnecting {
		msg.Reply <- ClaimResult{Err: engine.ErrWrongPhase}
		return
	}
	token, id := r.tokens.IssueContestant()
	next, err := r.apply(engine.Command{
		Type:       engine.CmdRegisterContestant,
		Issuer:     engine.RoleAdmin,
		Contestant: id,
		NameHint:   msg.NameHint,
	})
	if err != nil {
		r.tokens.RevokeContestant(id)
		msg.Reply <- ClaimResult{Err: err}
		return
	}
	r.game = next
	r.version++
	r.log.Info("seat claimed", zap.String("contestant", id))
	r.broadcast()
	msg.Reply <- ClaimResult{Token: token, ContestantID: id}
}

func (r *Room) snapshotFor(c *client) types.ServerMessage {
	snap := view.Project(r.game, c.role, c.contestantID)
	return types.ServerMessage{Type: "snapshot", Version: r.version, State: &snap}
}

// broadcast pushes a fresh role-projected snapshot to every client. Sends
// are non-blocking: a client with a full outbox is dropped so it can never
// stall delivery to the others. Dropping a contestant marks them
// disconnected, which is a mutation like any other: bump the version and
// fan out again so the survivors see it now, not on the next unrelated
// command. Each extra pass removes at least one client, so this terminates.
func (r *Room) broadcast() {
	for {
		var dropped []*client
		for id, c := range r.clients {
			select {
			case c.outbox <- r.snapshotFor(c):
			default:
				r.log.Warn("dropping slow client", zap.String("session", id))
				close(c.outbox)
				delete(r.clients, id)
				dropped = append(dropped, c)
			}
		}

		changed := false
		for _, c := range dropped {
			if c.role != engine.RoleContestant {
				continue
			}
			if next, err := engine.Apply(r.game, engine.Command{
				Type:       engine.CmdSetConnected,
				Issuer:     engine.RoleAdmin,
				Contestant: c.contestantID,
				Connected:  false,
			}); err == nil {
				r.game = next
				changed = true
			}
		}
		if !changed {
			return
		}
		r.version++
	}
}

func (r *Room) send(sessionID string, msg types.ServerMessage) {
	c, ok := r.clients[sessionID]
	if !ok {
		return
	}
	select {
	case c.outbox <- msg:
	default:
		close(c.outbox)
		delete(r.clients, sessionID)
	}
}

// reject reports a command rejection to the issuing connection only. The
// shared state is untouched and other connections never see the failure.
func (r *Room) reject(sessionID string, err error) {
	r.log.Debug("command rejected", zap.String("session", sessionID), zap.Error(err))
	r.send(sessionID, types.ServerMessage{
		Type:  "error",
		Code:  ErrorCode(err),
		Error: err.Error(),
	})
}

func (r *Room) shutdown() {
	for id, c := range r.clients {
		close(c.outbox)
		delete(r.clients, id)
	}
	r.cancel()
}

// ErrorCode maps a rejection to its wire code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, engine.ErrWrongPhase):
		return types.CodeWrongPhase
	case errors.Is(err, engine.ErrWrongRole):
		return types.CodeWrongRole
	case errors.Is(err, engine.ErrWindowClosed):
		return types.CodeWindowClosed
	case errors.Is(err, engine.ErrUnknownTarget):
		return types.CodeUnknownTarget
	case errors.Is(err, board.ErrMalformedBoard):
		return types.CodeMalformedBoard
	case errors.Is(err, engine.ErrNoContestants):
		return types.CodeNoContestants
	case errors.Is(err, engine.ErrNoBoard):
		return types.CodeNoBoard
	case errors.Is(err, engine.ErrBadWager):
		return types.CodeBadWager
	case errors.Is(err, engine.ErrUnsupportedCommand):
		return types.CodeUnsupported
	default:
		return types.CodeInternal
	}
}
