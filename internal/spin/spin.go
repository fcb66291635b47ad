package spin

import (
	"math"
	"time"
)

// Mode is the animator's lifecycle. Spinning decays toward settling, settling
// interpolates the committed winner into the centre slot, done is terminal.
type Mode string

const (
	ModeSpinning Mode = "spinning"
	ModeSettling Mode = "settling"
	ModeDone     Mode = "done"
)

// Placeholder shown in the centre slot while effects are disabled.
const Placeholder = "Please prepare your answer."

type Config struct {
	Duration time.Duration

	// RowHeight is the vertical distance between slots in presentation
	// units. Phase is tracked in the same units.
	RowHeight float64

	MaxRowsPerSec float64
	MinRowsPerSec float64

	// SmoothTau is the low-pass time constant applied when chasing the
	// target speed, so frame-time variance doesn't show up as jitter.
	SmoothTau time.Duration

	// DecayPower shapes the ease-out speed curve; > 2 keeps the reel fast
	// early and drops sharply near the deadline.
	DecayPower float64

	SettleTime time.Duration

	// Effects false skips the reel entirely: a static placeholder for the
	// full duration, then straight to done with the committed winner.
	Effects bool
}

func (c Config) withDefaults() Config {
	if c.RowHeight <= 0 {
		c.RowHeight = 92
	}
	if c.MaxRowsPerSec <= 0 {
		c.MaxRowsPerSec = 7.5
	}
	if c.MinRowsPerSec <= 0 {
		c.MinRowsPerSec = 1.0
	}
	if c.SmoothTau <= 0 {
		c.SmoothTau = 180 * time.Millisecond
	}
	if c.DecayPower <= 0 {
		c.DecayPower = 2.1
	}
	if c.SettleTime <= 0 {
		c.SettleTime = 650 * time.Millisecond
	}
	if c.Duration <= 0 {
		c.Duration = time.Second
	}
	return c
}

type Slot struct {
	Text string `json:"text"`

	// Offset is the slot's vertical displacement from the reel centre.
	Offset float64 `json:"offset"`

	// Emphasis is 0..1, peaking when the slot sits on the centre band.
	// The presentation maps it to font size and colour blend.
	Emphasis float64 `json:"emphasis"`

	Hidden bool `json:"hidden,omitempty"`
}

type Frame struct {
	Prev     Slot    `json:"prev"`
	Cur      Slot    `json:"cur"`
	Next     Slot    `json:"next"`
	Phase    float64 `json:"phase"`
	Progress float64 `json:"progress"`
	Mode     Mode    `json:"mode"`
}

// Animator is the reel state machine. It holds no reference to any timer or
// scheduler; the owner feeds it dt values and renders the returned frames.
type Animator struct {
	cfg    Config
	pool   []string
	winner string
	fill   func([]string) string

	prev, cur, next string

	elapsed time.Duration
	phase   float64
	speed   float64
	mode    Mode

	settleElapsed time.Duration
	settlePhase0  float64

	rotations int
	closed    bool
}

// New commits winner for the round. pool is the cosmetic filler source and
// is copied; when empty, the winner itself is the only filler.
func New(cfg Config, pool []string, winner string, fill func([]string) string) *Animator {
	cfg = cfg.withDefaults()
	if len(pool) == 0 {
		pool = []string{winner}
	}
	if fill == nil {
		fill = func(p []string) string { return p[0] }
	}

	a := &Animator{
		cfg:    cfg,
		pool:   append([]string(nil), pool...),
		winner: winner,
		fill:   fill,
		mode:   ModeSpinning,
		speed:  cfg.MaxRowsPerSec,
	}
	a.prev = fill(a.pool)
	a.cur = fill(a.pool)
	a.next = fill(a.pool)
	if !cfg.Effects {
		a.cur = Placeholder
	}
	return a
}

// Close suppresses all further ticks. Safe to call more than once.
func (a *Animator) Close() { a.closed = true }

func (a *Animator) Mode() Mode { return a.mode }

func (a *Animator) Elapsed() time.Duration { return a.elapsed }

// Rotations reports how many rotation events have fired so far.
func (a *Animator) Rotations() int { return a.rotations }

// Frame renders the current state without advancing time.
func (a *Animator) Frame() Frame { return a.frame() }

// Tick advances the animation by dt and returns the frame to render. done is
// true exactly once, on the tick that completes the round.
func (a *Animator) Tick(dt time.Duration) (Frame, bool) {
	if a.closed || a.mode == ModeDone {
		return a.frame(), false
	}
	if dt < time.Millisecond {
		dt = time.Millisecond
	}
	a.elapsed += dt

	if !a.cfg.Effects {
		if a.elapsed >= a.cfg.Duration {
			a.finish()
			return a.frame(), true
		}
		return a.frame(), false
	}

	// Entering the settle: freeze fillers and force the next slot to the
	// committed winner so the last rotation lands it dead centre. The
	// transition tick renders the freeze frame; interpolation starts on
	// the next one.
	if a.mode == ModeSpinning && a.elapsed >= a.cfg.Duration {
		a.mode = ModeSettling
		a.settleElapsed = 0
		a.settlePhase0 = a.phase
		a.next = a.winner
		return a.frame(), false
	}

	switch a.mode {
	case ModeSpinning:
		sec := dt.Seconds()
		t := clamp01(float64(a.elapsed) / float64(a.cfg.Duration))
		target := a.cfg.MinRowsPerSec +
			(a.cfg.MaxRowsPerSec-a.cfg.MinRowsPerSec)*math.Pow(1-t, a.cfg.DecayPower)
		alpha := math.Min(1, sec/a.cfg.SmoothTau.Seconds())
		a.speed += (target - a.speed) * alpha
		a.phase += a.speed * a.cfg.RowHeight * sec

		// A stalled frame can advance more than a full row; every
		// overflow is its own rotation event.
		for a.phase >= a.cfg.RowHeight {
			a.phase -= a.cfg.RowHeight
			a.rotate()
		}

	case ModeSettling:
		a.settleElapsed += dt
		p := clamp01(float64(a.settleElapsed) / float64(a.cfg.SettleTime))
		eased := 1 - math.Pow(1-p, 3)
		a.phase = a.settlePhase0 + (a.cfg.RowHeight-a.settlePhase0)*eased
		if p >= 1 {
			a.finish()
			return a.frame(), true
		}
	}

	return a.frame(), false
}

func (a *Animator) rotate() {
	a.prev, a.cur = a.cur, a.next
	a.next = a.fill(a.pool)
	a.rotations++
}

func (a *Animator) finish() {
	a.cur = a.winner
	a.phase = 0
	a.mode = ModeDone
}

func (a *Animator) frame() Frame {
	f := Frame{
		Phase:    a.phase,
		Progress: clamp01(float64(a.elapsed) / float64(a.cfg.Duration)),
		Mode:     a.mode,
	}

	if a.mode == ModeDone {
		f.Cur = Slot{Text: FormatName(a.cur), Emphasis: 1}
		f.Prev = Slot{Hidden: true}
		f.Next = Slot{Hidden: true}
		f.Progress = 1
		return f
	}

	if !a.cfg.Effects {
		f.Cur = Slot{Text: a.cur, Emphasis: 1}
		f.Prev = Slot{Hidden: true}
		f.Next = Slot{Hidden: true}
		return f
	}

	f.Prev = a.slot(a.prev, -a.cfg.RowHeight-a.phase)
	f.Cur = a.slot(a.cur, -a.phase)
	f.Next = a.slot(a.next, a.cfg.RowHeight-a.phase)
	return f
}

// slot computes per-slot emphasis from vertical distance to centre,
// recomputed every tick so the blend tracks the current phase.
func (a *Animator) slot(text string, offset float64) Slot {
	d := math.Min(1, math.Abs(offset)/a.cfg.RowHeight)
	s := (1 - d) * (1 - d)
	return Slot{Text: FormatName(text), Offset: offset, Emphasis: s}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
