package ws

import (
	"testing"
	"time"

	"github.com/classpick/classpick-backend/internal/room"
	"github.com/classpick/classpick-backend/internal/session"
	"github.com/classpick/classpick-backend/internal/types"
)

func boolPtr(b bool) *bool { return &b }

func TestToRoomCommand(t *testing.T) {
	cases := []struct {
		name   string
		in     types.ClientMessage
		want   room.Command
		wantOk bool
	}{
		{
			name:   "start with preset",
			in:     types.ClientMessage{Type: "StartSession", DurationSec: 30, Effects: boolPtr(true)},
			want:   room.Command{Type: room.CmdStartSession, Duration: 30 * time.Second, Effects: true},
			wantOk: true,
		},
		{
			name:   "start defaults effects on",
			in:     types.ClientMessage{Type: "StartSession", DurationSec: 5},
			want:   room.Command{Type: room.CmdStartSession, Duration: 5 * time.Second, Effects: true},
			wantOk: true,
		},
		{
			name:   "rate a-star",
			in:     types.ClientMessage{Type: "Rate", Rating: "A*"},
			want:   room.Command{Type: room.CmdRate, Rating: session.RatingAStar},
			wantOk: true,
		},
		{
			name:   "rate unknown rating",
			in:     types.ClientMessage{Type: "Rate", Rating: "Z"},
			wantOk: false,
		},
		{
			name:   "sound off",
			in:     types.ClientMessage{Type: "SetSound", Enabled: boolPtr(false)},
			want:   room.Command{Type: room.CmdSetSound, SoundOn: false},
			wantOk: true,
		},
		{
			name:   "effects off",
			in:     types.ClientMessage{Type: "SetEffects", Effects: boolPtr(false)},
			want:   room.Command{Type: room.CmdSetEffects, Effects: false},
			wantOk: true,
		},
		{
			name:   "exit",
			in:     types.ClientMessage{Type: "Exit"},
			want:   room.Command{Type: room.CmdExit},
			wantOk: true,
		},
		{
			name:   "unknown type",
			in:     types.ClientMessage{Type: "Dance"},
			wantOk: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toRoomCommand(tc.in)
			if ok != tc.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOk)
			}
			if ok && got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}
