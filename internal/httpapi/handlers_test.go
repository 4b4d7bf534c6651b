package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lectrix/buzzboard/internal/board"
	"github.com/lectrix/buzzboard/internal/engine"
	"github.com/lectrix/buzzboard/internal/room"
	"github.com/lectrix/buzzboard/internal/session"
)

func testLoader(ref string) (board.Board, error) {
	return board.Parse([]byte(`{"categories":[{"title":"t","clues":[
		{"prompt":"p","response":"r","value":100}]}]}`))
}

func newTestServer(t *testing.T) (*httptest.Server, *room.Room, *session.Registry) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	tokens := session.NewRegistry("admin-token")
	rm := room.New(ctx, tokens, testLoader, zap.NewNop())
	srv := httptest.NewServer(SetupRoutes(rm, tokens, "http://example.test/", zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv, rm, tokens
}

// openLobby drives the room to Connecting so seats can be claimed.
func openLobby(t *testing.T, rm *room.Room) {
	t.Helper()
	rm.Inbox() <- room.FromClient{SessionID: "adm", Cmd: engine.Command{Type: engine.CmdLoadBoard, Issuer: engine.RoleAdmin}, BoardRef: "t"}
	rm.Inbox() <- room.FromClient{SessionID: "adm", Cmd: engine.Command{Type: engine.CmdOpenLobby, Issuer: engine.RoleAdmin}}

	deadline := time.Now().Add(time.Second)
	for {
		reply := make(chan room.View, 1)
		rm.Inbox() <- room.GetState{Reply: reply}
		if v := <-reply; v.Game.Phase == engine.PhaseConnecting {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("room never reached connecting phase")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClaimSeat(t *testing.T) {
	srv, rm, tokens := newTestServer(t)
	openLobby(t, rm)

	resp, err := http.Post(srv.URL+"/seats", "application/json", strings.NewReader(`{"name_hint":"phone"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var seat struct {
		Token        string `json:"token"`
		ContestantID string `json:"contestant_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&seat))
	require.NotEmpty(t, seat.Token)
	require.NotEmpty(t, seat.ContestantID)

	// The token binds to the freshly registered contestant.
	role, id := tokens.Resolve(seat.Token)
	assert.Equal(t, engine.RoleContestant, role)
	assert.Equal(t, seat.ContestantID, id)

	reply := make(chan room.View, 1)
	rm.Inbox() <- room.GetState{Reply: reply}
	v := <-reply
	i, ok := v.Game.ContestantByID(seat.ContestantID)
	require.True(t, ok)
	assert.Equal(t, "phone", v.Game.Contestants[i].NameHint)
}

func TestClaimSeatRejectedBeforeLobbyOpens(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/seats", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestClaimSeatCanceledRequestReleasesSeat(t *testing.T) {
	_, rm, _ := newTestServer(t)
	openLobby(t, rm)

	// Hold the room loop on an unanswered state request so the claim
	// cannot be answered before the handler sees the canceled context.
	gate := make(chan room.View)
	rm.Inbox() <- room.GetState{Reply: gate}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/seats", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	ClaimSeat(rm, zap.NewNop())(rec, req)

	<-gate

	// The claim still lands in the room, but its token was never
	// delivered; the handler must release the seat instead of leaving an
	// orphan contestant for the admin to clean up.
	deadline := time.Now().Add(time.Second)
	for {
		reply := make(chan room.View, 1)
		rm.Inbox() <- room.GetState{Reply: reply}
		v := <-reply
		if len(v.Game.Contestants) == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("orphan contestant left behind: %+v", v.Game.Contestants)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestJoinQR(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/join/qr.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestHealthzAndVersion(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/version")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
