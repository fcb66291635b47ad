// Package hub keeps one room per class. Rooms outlive websocket
// connections, which is what gives a class its session memory: reconnecting
// resumes the surviving pool and grade book. Removing a room is the only way
// to refill a depleted pool short of a process restart.
package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/classpick/classpick-backend/internal/room"
	"github.com/classpick/classpick-backend/internal/session"
)

type HubMsg interface{ isHubMsg() }

type GetRoom struct {
	Class string
	Reply chan *room.Room
}

type EnsureRoom struct {
	Class  string
	Roster []string // only used if creation happens
	Reply  chan *room.Room
}

type RemoveRoom struct {
	Class string
}

type ShutdownHub struct{}

func (GetRoom) isHubMsg()     {}
func (EnsureRoom) isHubMsg()  {}
func (RemoveRoom) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox   chan HubMsg
	rooms   map[string]*room.Room
	env     session.Env
	roomCfg room.Config
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context, env session.Env, roomCfg room.Config, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		rooms:   make(map[string]*room.Room),
		env:     env,
		roomCfg: roomCfg,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case GetRoom:
				msg.Reply <- h.rooms[msg.Class] // may be nil

			case EnsureRoom:
				if r := h.rooms[msg.Class]; r != nil {
					msg.Reply <- r
					break
				}
				r := room.New(h.ctx, msg.Class, msg.Roster, h.env, h.roomCfg, h.log)
				h.rooms[msg.Class] = r
				h.log.Info("room created", zap.String("class", msg.Class))
				msg.Reply <- r

			case RemoveRoom:
				if r := h.rooms[msg.Class]; r != nil {
					r.Inbox() <- room.Shutdown{}
					delete(h.rooms, msg.Class)
					h.log.Info("room removed", zap.String("class", msg.Class))
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for _, r := range h.rooms {
		r.Inbox() <- room.Shutdown{}
	}
	clear(h.rooms)
	h.cancel()
}
