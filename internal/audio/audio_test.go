package audio

import (
	"testing"
	"time"
)

func TestSlotTrackThresholds(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want Track
	}{
		{time.Second, TrackSlotShort},
		{4990 * time.Millisecond, TrackSlotShort},
		{5 * time.Second, TrackSlotMedium},
		{19990 * time.Millisecond, TrackSlotMedium},
		{20 * time.Second, TrackSlotLong},
		{2 * time.Minute, TrackSlotLong},
	}
	for _, tc := range cases {
		if got := SlotTrack(tc.d); got != tc.want {
			t.Fatalf("SlotTrack(%v) = %v, want %v", tc.d, got, tc.want)
		}
	}
}

func TestBroadcasterEmitsWhileEnabled(t *testing.T) {
	var got []Cue
	b := NewBroadcaster(func(c Cue) { got = append(got, c) })

	b.PlayLoop(TrackSlotShort)
	b.PlayOverlay(TrackTimeUp)
	b.Stop()

	want := []Cue{
		{Action: ActionLoop, Track: TrackSlotShort},
		{Action: ActionOverlay, Track: TrackTimeUp},
		{Action: ActionStop},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d cues, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cue %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBroadcasterDisabledDropsAllButStop(t *testing.T) {
	var got []Cue
	b := NewBroadcaster(func(c Cue) { got = append(got, c) })

	b.SetEnabled(false) // emits a stop to silence anything in flight
	got = nil

	b.PlayOnce(TrackRatingA)
	b.PlayLoop(TrackSlotLong)
	b.PlayOverlay(TrackTimeUp)
	if len(got) != 0 {
		t.Fatalf("disabled broadcaster emitted %d cues", len(got))
	}

	b.Stop()
	if len(got) != 1 || got[0].Action != ActionStop {
		t.Fatalf("stop should pass through while disabled, got %+v", got)
	}
}

func TestBroadcasterSwallowsPanickingSink(t *testing.T) {
	b := NewBroadcaster(func(Cue) { panic("sink exploded") })
	b.PlayOnce(TrackIntro) // must not propagate
	b.Stop()
}

func TestBroadcasterNilSinkIsNoop(t *testing.T) {
	b := NewBroadcaster(nil)
	b.PlayLoop(TrackSlotMedium)
	b.Stop()
	b.SetEnabled(false)
}

func TestRatingTrack(t *testing.T) {
	for rating, want := range map[string]Track{
		"A*": TrackRatingAs, "A": TrackRatingA, "B": TrackRatingB, "C": TrackRatingC,
	} {
		got, ok := RatingTrack(rating)
		if !ok || got != want {
			t.Fatalf("RatingTrack(%q) = %v,%v", rating, got, ok)
		}
	}
	if _, ok := RatingTrack("F"); ok {
		t.Fatalf("unknown rating should not resolve")
	}
}
