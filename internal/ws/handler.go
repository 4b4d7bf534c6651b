package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lectrix/buzzboard/internal/board"
	"github.com/lectrix/buzzboard/internal/engine"
	"github.com/lectrix/buzzboard/internal/room"
	"github.com/lectrix/buzzboard/internal/session"
	"github.com/lectrix/buzzboard/pkg/types"
)

const writeTimeout = 3 * time.Second

// Handler upgrades a connection, fixes its role from the capability token,
// and bridges it to the room: a writer goroutine drains the outbox while
// the read loop feeds decoded commands into the room's inbox. The role is
// immutable for the connection's lifetime.
func Handler(rm *room.Room, tokens *session.Registry, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, contestantID := tokens.Resolve(r.URL.Query().Get("token"))

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			log.Warn("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		sessionID := uuid.NewString()
		outbox := make(chan types.ServerMessage, 32)

		rm.Inbox() <- room.Join{
			SessionID:    sessionID,
			Role:         role,
			ContestantID: contestantID,
			Outbox:       outbox,
		}
		// Closing the transport tears down only this connection's loops;
		// an in-flight command in the room keeps going.
		defer func() { rm.Inbox() <- room.Leave{SessionID: sessionID} }()

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for msg := range outbox {
				payload, err := json.Marshal(msg)
				if err != nil {
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
			// Outbox closed: the room dropped or replaced this connection.
			conn.Close(websocket.StatusGoingAway, "replaced or dropped")
		}()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				cm = types.ClientMessage{Type: "malformed_json"}
			}

			// Unknown types still go through the room so the rejection
			// rides the same ordered path as accepted commands.
			rm.Inbox() <- toRoomMessage(sessionID, role, contestantID, cm)
		}
	}
}

// toRoomMessage maps a wire command onto an engine command. Server-internal
// commands (set_connected, register_contestant) are never mapped off the
// wire; their types fall through as unsupported.
func toRoomMessage(sessionID string, role engine.Role, contestantID string, m types.ClientMessage) room.FromClient {
	cmd := engine.Command{
		Type:     engine.CommandType(m.Type),
		Issuer:   role,
		IssuerID: contestantID,
	}
	out := room.FromClient{SessionID: sessionID}

	switch cmd.Type {
	case engine.CmdLoadBoard:
		out.BoardRef = m.Board

	case engine.CmdSelectClue:
		cmd.Clue = board.ClueRef{Category: -1, Clue: -1}
		if m.Clue != nil {
			cmd.Clue = *m.Clue
		}

	case engine.CmdSetWager, engine.CmdAwardPoints, engine.CmdRevokePoints:
		cmd.Contestant = m.Contestant
		cmd.Points = board.Points(m.Points)

	case engine.CmdNameContestant:
		cmd.Contestant = m.Contestant
		cmd.Name = m.Name
		// A contestant naming themselves may omit the target.
		if role == engine.RoleContestant && cmd.Contestant == "" {
			cmd.Contestant = contestantID
		}

	case engine.CmdRemoveContestant:
		cmd.Contestant = m.Contestant

	case engine.CmdSetConnected, engine.CmdRegisterContestant:
		// Internal commands are not part of the wire protocol.
		cmd.Type = engine.CommandType("forbidden:" + m.Type)
	}

	out.Cmd = cmd
	return out
}
