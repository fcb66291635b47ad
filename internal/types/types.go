package types

import (
	"github.com/classpick/classpick-backend/internal/audio"
	"github.com/classpick/classpick-backend/internal/session"
	"github.com/classpick/classpick-backend/internal/spin"
)

// Round duration presets offered by the presentation; any integer >= 1 is
// accepted on the wire, these are just the buttons.
var DurationPresets = []int{5, 30, 60, 120}

const DefaultDurationSec = 5

type ClientMessage struct {
	Type string `json:"type"`

	// StartSession
	DurationSec int   `json:"duration_sec,omitempty"`
	Effects     *bool `json:"effects,omitempty"`

	// Rate
	Rating string `json:"rating,omitempty"`

	// SetSound
	Enabled *bool `json:"enabled,omitempty"`
}

type SessionView struct {
	Class     string                    `json:"class"`
	Phase     session.Phase             `json:"phase"`
	Remaining int                       `json:"remaining"`
	Winner    string                    `json:"winner,omitempty"`
	Feedback  string                    `json:"feedback,omitempty"`
	Grades    map[string]session.Rating `json:"grades,omitempty"`
	Aborted   bool                      `json:"aborted,omitempty"`
}

type ServerMessage struct {
	Type    string       `json:"type"` // "StateSnapshot" | "Error"
	Version int          `json:"version,omitempty"`
	Session *SessionView `json:"session,omitempty"`
	Frame   *spin.Frame  `json:"frame,omitempty"`
	Cues    []audio.Cue  `json:"cues,omitempty"`
	Error   string       `json:"error,omitempty"`
}
