// Package audio reduces sound to a fire-and-forget cue capability. The core
// issues play/loop/stop commands and never learns whether anything was heard;
// failures stay inside the adapter so they can never disturb animation timing.
package audio

import "time"

type Action string

const (
	ActionPlay    Action = "play"
	ActionLoop    Action = "loop"
	ActionOverlay Action = "overlay"
	ActionStop    Action = "stop"
)

type Track string

const (
	TrackIntro      Track = "welcome"
	TrackClosing    Track = "closing"
	TrackSlotShort  Track = "select_student"
	TrackSlotMedium Track = "medium_slot"
	TrackSlotLong   Track = "long_slot"
	TrackTimeUp     Track = "timeup"
	TrackRatingAs   Track = "sound_a_star"
	TrackRatingA    Track = "sound_a"
	TrackRatingB    Track = "sound_b"
	TrackRatingC    Track = "sound_c"
)

// Duration thresholds for picking a spin loop that roughly matches the
// round length.
const (
	shortMax  = 4990 * time.Millisecond
	mediumMax = 19990 * time.Millisecond
)

// TimeUpLead is how long before the deadline the time-up overlay fires.
const TimeUpLead = 200 * time.Millisecond

func SlotTrack(duration time.Duration) Track {
	switch {
	case duration <= shortMax:
		return TrackSlotShort
	case duration <= mediumMax:
		return TrackSlotMedium
	default:
		return TrackSlotLong
	}
}

func RatingTrack(rating string) (Track, bool) {
	switch rating {
	case "A*":
		return TrackRatingAs, true
	case "A":
		return TrackRatingA, true
	case "B":
		return TrackRatingB, true
	case "C":
		return TrackRatingC, true
	default:
		return "", false
	}
}

type Cue struct {
	Action Action `json:"action"`
	Track  Track  `json:"track,omitempty"`
}

// Player is the capability the core talks to. Implementations must never
// fail observably: disabled, unavailable, or broken all degrade to no-op.
type Player interface {
	PlayOnce(Track)
	PlayLoop(Track)
	PlayOverlay(Track)
	Stop()
	SetEnabled(bool)
}

// Broadcaster forwards cues to a sink (in practice the room's snapshot
// broadcast, so the presentation does the actual playback).
type Broadcaster struct {
	enabled bool
	sink    func(Cue)
}

func NewBroadcaster(sink func(Cue)) *Broadcaster {
	return &Broadcaster{enabled: true, sink: sink}
}

func (b *Broadcaster) PlayOnce(t Track)    { b.emit(Cue{Action: ActionPlay, Track: t}) }
func (b *Broadcaster) PlayLoop(t Track)    { b.emit(Cue{Action: ActionLoop, Track: t}) }
func (b *Broadcaster) PlayOverlay(t Track) { b.emit(Cue{Action: ActionOverlay, Track: t}) }

// Stop always goes through, even while disabled, so muting mid-loop
// silences whatever is playing.
func (b *Broadcaster) Stop() {
	if b.sink == nil {
		return
	}
	b.send(Cue{Action: ActionStop})
}

func (b *Broadcaster) SetEnabled(enabled bool) {
	b.enabled = enabled
	if !enabled {
		b.Stop()
	}
}

func (b *Broadcaster) emit(c Cue) {
	if !b.enabled || b.sink == nil {
		return
	}
	b.send(c)
}

func (b *Broadcaster) send(c Cue) {
	// A misbehaving sink must not reach the caller; audio is best-effort.
	defer func() { _ = recover() }()
	b.sink(c)
}
