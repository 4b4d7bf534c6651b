package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/lectrix/buzzboard/internal/board"
	"github.com/lectrix/buzzboard/internal/room"
	"github.com/lectrix/buzzboard/internal/session"
	"github.com/lectrix/buzzboard/pkg/types"
)

func testLoader(ref string) (board.Board, error) {
	return board.Parse([]byte(`{"categories":[{"title":"t","clues":[
		{"prompt":"p","response":"r","value":100}]}]}`))
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) types.ServerMessage {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg types.ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return msg
}

func TestHandler_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tokens := session.NewRegistry("admin-token")
	rm := room.New(ctx, tokens, testLoader, zap.NewNop())
	srv := httptest.NewServer(Handler(rm, tokens, zap.NewNop()))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=admin-token"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// Full snapshot arrives on connect, before any mutation.
	first := readMessage(t, ctx, conn)
	if first.Type != "snapshot" || first.Version != 0 {
		t.Fatalf("want snapshot v0 on connect, got %+v", first)
	}
	if len(first.State.Controls) == 0 {
		t.Fatalf("admin connection missing controls: %+v", first.State)
	}

	// A command round-trips into a fresh broadcast.
	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type":"load_board","board":"demo"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	next := readMessage(t, ctx, conn)
	if next.Type != "snapshot" || next.Version != 1 {
		t.Fatalf("want snapshot v1 after load_board, got %+v", next)
	}

	// Garbage input yields a private error, not a disconnect.
	if err := conn.Write(ctx, websocket.MessageText, []byte(`{notjson`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	errMsg := readMessage(t, ctx, conn)
	if errMsg.Type != "error" {
		t.Fatalf("want error notice for malformed json, got %+v", errMsg)
	}
}

func TestHandler_SpectatorWithoutToken(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tokens := session.NewRegistry("admin-token")
	rm := room.New(ctx, tokens, testLoader, zap.NewNop())
	srv := httptest.NewServer(Handler(rm, tokens, zap.NewNop()))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	first := readMessage(t, ctx, conn)
	if first.Type != "snapshot" {
		t.Fatalf("want snapshot on connect, got %+v", first)
	}
	if len(first.State.Controls) != 0 {
		t.Fatalf("spectator must not receive controls")
	}

	// Read-only role: a gameplay command is rejected.
	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type":"open_lobby"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	errMsg := readMessage(t, ctx, conn)
	if errMsg.Type != "error" || errMsg.Code != types.CodeWrongRole {
		t.Fatalf("want wrong_role error, got %+v", errMsg)
	}
}
