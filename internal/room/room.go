// Package room runs one goroutine per class. The room owns the class's
// session state, the reel animator, and the frame ticker; everything reaches
// it through a typed message inbox, so no locking is needed anywhere in the
// round lifecycle.
package room

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/classpick/classpick-backend/internal/audio"
	"github.com/classpick/classpick-backend/internal/session"
	"github.com/classpick/classpick-backend/internal/spin"
	"github.com/classpick/classpick-backend/internal/types"
)

type Msg interface{ isRoomMsg() }

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isRoomMsg() {}

type Leave struct{ ClientID string }

func (Leave) isRoomMsg() {}

type FromClient struct {
	Cmd Command
}

func (FromClient) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type CommandType string

const (
	CmdStartSession CommandType = "StartSession"
	CmdNextRound    CommandType = "NextRound"
	CmdRate         CommandType = "Rate"
	CmdExit         CommandType = "Exit"
	CmdSetEffects   CommandType = "SetEffects"
	CmdSetSound     CommandType = "SetSound"
)

type Command struct {
	Type     CommandType
	Duration time.Duration // StartSession
	Effects  bool          // StartSession, SetEffects
	Rating   session.Rating
	SoundOn  bool
}

type Snapshot struct {
	Version int
	Session types.SessionView
	Frame   *spin.Frame
	Cues    []audio.Cue
}

// View is test-only introspection, answered from inside the loop so there
// are no data races.
type View struct {
	Version    int
	NumClients int
	State      session.State
	Animating  bool
}

type Config struct {
	FrameInterval time.Duration
	RowHeight     float64
}

func (c Config) withDefaults() Config {
	if c.FrameInterval <= 0 {
		c.FrameInterval = 33 * time.Millisecond
	}
	return c
}

type Room struct {
	inbox   chan Msg
	state   session.State
	env     session.Env
	roster  []string
	cfg     Config
	log     *zap.Logger
	version int
	clients map[string]chan Snapshot

	duration time.Duration
	effects  bool
	feedback string

	sound       audio.Player
	pendingCues []audio.Cue

	anim         *spin.Animator
	ticker       *time.Ticker
	lastTick     time.Time
	lastFrame    *spin.Frame
	overlayFired bool

	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, class string, roster []string, env session.Env, cfg Config, log *zap.Logger) *Room {
	ctx, cancel := context.WithCancel(parent)

	r := &Room{
		inbox:    make(chan Msg, 64),
		state:    session.NewState(class),
		env:      env,
		roster:   append([]string(nil), roster...),
		cfg:      cfg.withDefaults(),
		log:      log.With(zap.String("class", class)),
		clients:  make(map[string]chan Snapshot),
		duration: time.Duration(types.DefaultDurationSec) * time.Second,
		effects:  true,
		ctx:      ctx,
		cancel:   cancel,
	}
	r.sound = audio.NewBroadcaster(func(c audio.Cue) {
		r.pendingCues = append(r.pendingCues, c)
	})

	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) loop() {
	for {
		// nil channel while no round is animating: the select simply
		// never fires on it.
		var tickC <-chan time.Time
		if r.ticker != nil {
			tickC = r.ticker.C
		}

		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case now := <-tickC:
			r.onTick(now)

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- r.snapshot()

			case Leave:
				// Closing the outbox releases the client's writer
				// goroutine.
				if ch, ok := r.clients[msg.ClientID]; ok {
					close(ch)
					delete(r.clients, msg.ClientID)
				}
				// Presentation torn down mid-round: suppress the
				// animation and leave the pool untouched, like
				// closing the slot window.
				if len(r.clients) == 0 && r.anim != nil {
					r.abortRound()
				}

			case FromClient:
				r.handle(msg.Cmd)

			case GetState:
				msg.Reply <- View{
					Version:    r.version,
					NumClients: len(r.clients),
					State:      r.state,
					Animating:  r.anim != nil,
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handle(cmd Command) {
	switch cmd.Type {
	case CmdStartSession:
		if r.anim != nil {
			return // round already running
		}
		r.duration = clampDuration(cmd.Duration)
		r.effects = cmd.Effects
		events, ok := r.apply(session.Command{Type: session.CmdStart, Roster: r.roster})
		if !ok {
			return
		}
		if session.ContainsEvent(events, session.EvtSessionStarted) {
			r.sound.PlayOnce(audio.TrackIntro)
			r.nextRound()
			return
		}
		// Straight to summary on a depleted pool.
		r.sound.PlayOnce(audio.TrackClosing)
		r.broadcast()

	case CmdNextRound:
		r.nextRound()

	case CmdRate:
		events, ok := r.apply(session.Command{Type: session.CmdRate, Rating: cmd.Rating})
		if !ok {
			return
		}
		for _, e := range events {
			if e.Type != session.EvtRatingApplied {
				continue
			}
			r.feedback = e.Message
			if track, ok := audio.RatingTrack(string(e.Rating)); ok {
				r.sound.PlayOnce(track)
			}
		}
		r.broadcast()

	case CmdExit:
		if r.anim != nil {
			r.abortRound()
			return
		}
		if _, ok := r.apply(session.Command{Type: session.CmdExit}); ok {
			r.broadcast()
		}

	case CmdSetEffects:
		// Takes effect from the next round; a running reel is not
		// reconfigured mid-flight.
		r.effects = cmd.Effects

	case CmdSetSound:
		r.sound.SetEnabled(cmd.SoundOn)
		r.broadcast()

	default:
		r.log.Warn("unsupported room command", zap.String("type", string(cmd.Type)))
	}
}

func (r *Room) nextRound() {
	r.feedback = ""
	r.lastFrame = nil
	events, ok := r.apply(session.Command{Type: session.CmdNextRound})
	if !ok {
		return
	}
	for _, e := range events {
		if e.Type == session.EvtWinnerCommitted {
			r.beginRound(e.Student)
			return
		}
	}
	if session.ContainsEvent(events, session.EvtSummaryReached) {
		r.sound.PlayOnce(audio.TrackClosing)
	}
	r.broadcast()
}

// beginRound spins up the animator for the committed winner. The filler
// pool is a snapshot of the remaining students, winner still included.
func (r *Room) beginRound(winner string) {
	r.anim = spin.New(spin.Config{
		Duration:  r.duration,
		RowHeight: r.cfg.RowHeight,
		Effects:   r.effects,
	}, r.state.Pool, winner, r.env.Rng.Filler)

	first := r.anim.Frame()
	r.lastFrame = &first
	r.overlayFired = false
	r.lastTick = time.Now()
	r.ticker = time.NewTicker(r.cfg.FrameInterval)

	if r.effects {
		r.sound.PlayLoop(audio.SlotTrack(r.duration))
	}
	r.broadcast()
}

func (r *Room) onTick(now time.Time) {
	if r.anim == nil {
		return // stale fire after the round stopped
	}

	dt := now.Sub(r.lastTick)
	r.lastTick = now

	frame, done := r.anim.Tick(dt)
	r.lastFrame = &frame

	if lead := r.duration - audio.TimeUpLead; !r.overlayFired && r.anim.Elapsed() >= lead {
		r.overlayFired = true
		r.sound.PlayOverlay(audio.TrackTimeUp)
	}

	if done {
		r.stopReel(false)
		r.sound.Stop()
		r.apply(session.Command{Type: session.CmdRoundDone})
	}
	r.broadcast()
}

// abortRound tears the animation down without completing it: the committed
// winner stays in the pool and the session parks until the next start.
func (r *Room) abortRound() {
	r.stopReel(true)
	r.sound.Stop()
	if _, ok := r.apply(session.Command{Type: session.CmdExit}); ok {
		r.broadcast()
	}
}

func (r *Room) stopReel(closeAnim bool) {
	if r.ticker != nil {
		r.ticker.Stop()
		r.ticker = nil
	}
	if r.anim != nil {
		if closeAnim {
			r.anim.Close()
			r.lastFrame = nil
		}
		r.anim = nil
	}
}

func (r *Room) apply(cmd session.Command) ([]session.Event, bool) {
	events, next, err := session.Apply(r.state, cmd, r.env)
	if err != nil {
		r.log.Warn("command rejected",
			zap.String("cmd", string(cmd.Type)),
			zap.String("phase", string(r.state.Phase)),
			zap.Error(err))
		return nil, false
	}
	r.state = next
	return events, true
}

func (r *Room) view() types.SessionView {
	v := types.SessionView{
		Class:     r.state.Class,
		Phase:     r.state.Phase,
		Remaining: len(r.state.Pool),
		Feedback:  r.feedback,
		Aborted:   r.state.Aborted,
	}
	// The committed winner stays hidden until the reel lands.
	if r.state.Phase == session.PhaseGrading {
		v.Winner = r.state.Winner
	}
	if r.state.Phase == session.PhaseSummary || r.state.Phase == session.PhaseGrading {
		v.Grades = r.state.Grades
	}
	return v
}

func (r *Room) snapshot() Snapshot {
	cues := r.pendingCues
	r.pendingCues = nil
	return Snapshot{
		Version: r.version,
		Session: r.view(),
		Frame:   r.lastFrame,
		Cues:    cues,
	}
}

func (r *Room) broadcast() {
	r.version++
	snap := r.snapshot()
	for id, ch := range r.clients {
		select {
		case ch <- snap:
			// ok
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(r.clients, id)
		}
	}
}

func (r *Room) shutdown() {
	r.stopReel(true)
	for id, ch := range r.clients {
		close(ch)
		delete(r.clients, id)
	}
	r.cancel()
}

func clampDuration(d time.Duration) time.Duration {
	if d < time.Second {
		if d <= 0 {
			return time.Duration(types.DefaultDurationSec) * time.Second
		}
		return time.Second
	}
	return d
}
