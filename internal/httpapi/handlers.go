package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/lectrix/buzzboard/internal/engine"
	"github.com/lectrix/buzzboard/internal/room"
)

const releaseVersion = "0.1.0"

type seatRequest struct {
	NameHint string `json:"name_hint,omitempty"`
}

type seatResponse struct {
	Token        string `json:"token"`
	ContestantID string `json:"contestant_id"`
}

// ClaimSeat registers a new contestant and hands back the capability token
// that binds future connections to that identity. Seats can only be
// claimed while the lobby is open.
func ClaimSeat(rm *room.Room, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req seatRequest
		if r.Body != nil {
			// An empty body is fine; the room picks a placeholder hint.
			_ = json.NewDecoder(r.Body).Decode(&req)
		}
		if req.NameHint == "" {
			req.NameHint = r.UserAgent()
		}

		reply := make(chan room.ClaimResult, 1)
		rm.Inbox() <- room.ClaimSeat{NameHint: req.NameHint, Reply: reply}

		select {
		case res := <-reply:
			if res.Err != nil {
				if errors.Is(res.Err, engine.ErrWrongPhase) {
					http.Error(w, "lobby is not open", http.StatusConflict)
					return
				}
				log.Error("seat claim failed", zap.Error(res.Err))
				http.Error(w, "failed to claim seat", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(seatResponse{
				Token:        res.Token,
				ContestantID: res.ContestantID,
			})
		case <-r.Context().Done():
			// The claim may still land after the caller is gone. Wait for
			// the room's reply and release the seat so no contestant
			// lingers with a token that was never delivered.
			go func() {
				if res := <-reply; res.Err == nil {
					rm.Inbox() <- room.FromClient{Cmd: engine.Command{
						Type:       engine.CmdRemoveContestant,
						Issuer:     engine.RoleAdmin,
						Contestant: res.ContestantID,
					}}
				}
			}()
		}
	}
}

// JoinQR serves a QR code pointing at the join URL so contestants in the
// room can claim a seat from their phones.
func JoinQR(baseURL string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		png, err := qrcode.Encode(baseURL, qrcode.Medium, 256)
		if err != nil {
			log.Error("qr encoding failed", zap.Error(err))
			http.Error(w, "failed to render qr code", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func Version(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("buzzboard v" + releaseVersion + "\n"))
}
