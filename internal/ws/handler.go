package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/classpick/classpick-backend/internal/hub"
	"github.com/classpick/classpick-backend/internal/room"
	"github.com/classpick/classpick-backend/internal/session"
	"github.com/classpick/classpick-backend/internal/types"
)

// Handler bridges one presentation client to its class room: snapshots out,
// commands in. The room must already exist (POST the session first).
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		class := r.URL.Query().Get("class")
		if class == "" {
			http.Error(w, "missing class", http.StatusBadRequest)
			return
		}

		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.GetRoom{Class: class, Reply: reply}
		rm := <-reply
		if rm == nil {
			http.Error(w, "no session for class", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan room.Snapshot, 64)
		clientID := randID(6)

		rm.Inbox() <- room.Join{ClientID: clientID, Outbox: out}
		defer func() { rm.Inbox() <- room.Leave{ClientID: clientID} }()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for snap := range out {
				msg := types.ServerMessage{
					Type:    "StateSnapshot",
					Version: snap.Version,
					Session: &snap.Session,
					Frame:   snap.Frame,
					Cues:    snap.Cues,
				}
				payload, _ := json.Marshal(msg)
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				// Otherwise just exit (room.Leave in defer):
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			cmd, ok := toRoomCommand(cm)
			if !ok {
				log.Debug("unknown client message", zap.String("type", cm.Type))
				writeError(r.Context(), conn, "unknown type")
				continue
			}

			rm.Inbox() <- room.FromClient{Cmd: cmd}
		}
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: "Error", Error: msg})
	_ = conn.Write(ctx, websocket.MessageText, payload)
}

func toRoomCommand(m types.ClientMessage) (room.Command, bool) {
	switch m.Type {
	case "StartSession":
		effects := true
		if m.Effects != nil {
			effects = *m.Effects
		}
		return room.Command{
			Type:     room.CmdStartSession,
			Duration: time.Duration(m.DurationSec) * time.Second,
			Effects:  effects,
		}, true

	case "NextRound":
		return room.Command{Type: room.CmdNextRound}, true

	case "Rate":
		rating, ok := session.ParseRating(m.Rating)
		if !ok {
			return room.Command{}, false
		}
		return room.Command{Type: room.CmdRate, Rating: rating}, true

	case "Exit":
		return room.Command{Type: room.CmdExit}, true

	case "SetEffects":
		effects := true
		if m.Effects != nil {
			effects = *m.Effects
		}
		return room.Command{Type: room.CmdSetEffects, Effects: effects}, true

	case "SetSound":
		on := true
		if m.Enabled != nil {
			on = *m.Enabled
		}
		return room.Command{Type: room.CmdSetSound, SoundOn: on}, true

	default:
		return room.Command{}, false
	}
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
