package room

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/classpick/classpick-backend/internal/audio"
	"github.com/classpick/classpick-backend/internal/draw"
	"github.com/classpick/classpick-backend/internal/session"
)

func testRoom(t *testing.T, roster []string) (*Room, chan Snapshot) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	env := session.Env{
		Rng:      draw.New(time.Now().UnixNano()),
		Messages: map[string][]string{"A": {"Nice."}},
	}
	r := New(ctx, "ClassA", roster, env, Config{FrameInterval: 20 * time.Millisecond}, zap.NewNop())

	out := make(chan Snapshot, 512)
	r.Inbox() <- Join{ClientID: "c1", Outbox: out}
	return r, out
}

// recvSnapshot receives one snapshot with a timeout so tests never hang.
func recvSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatalf("client outbox closed unexpectedly")
		}
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for snapshot")
		return Snapshot{} // unreachable
	}
}

// waitForPhase drains snapshots until the session reaches phase.
func waitForPhase(t *testing.T, ch <-chan Snapshot, phase session.Phase, within time.Duration) Snapshot {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				t.Fatalf("client outbox closed while waiting for %v", phase)
			}
			if snap.Session.Phase == phase {
				return snap
			}
		case <-deadline:
			t.Fatalf("timed out waiting for phase %v", phase)
		}
	}
}

func recvView(t *testing.T, r *Room, within time.Duration) View {
	t.Helper()
	reply := make(chan View, 1)
	r.Inbox() <- GetState{Reply: reply}
	select {
	case v := <-reply:
		return v
	case <-time.After(within):
		t.Fatalf("timed out waiting for view")
		return View{} // unreachable
	}
}

func TestRoom_JoinSendsCurrentSnapshot(t *testing.T) {
	_, out := testRoom(t, []string{"Alice", "Bob"})

	first := recvSnapshot(t, out, 200*time.Millisecond)
	if first.Version != 0 {
		t.Fatalf("after join: want version=0, got %d", first.Version)
	}
	if first.Session.Phase != session.PhaseIdle {
		t.Fatalf("after join: want idle, got %v", first.Session.Phase)
	}
}

func TestRoom_RoundCompletesAndRemovesWinner(t *testing.T) {
	r, out := testRoom(t, []string{"Alice", "Bob"})
	_ = recvSnapshot(t, out, 200*time.Millisecond)

	r.Inbox() <- FromClient{Cmd: Command{
		Type:     CmdStartSession,
		Duration: time.Second,
		Effects:  false,
	}}

	snap := waitForPhase(t, out, session.PhaseGrading, 5*time.Second)
	if snap.Session.Winner == "" {
		t.Fatalf("grading snapshot carries no winner")
	}
	if snap.Session.Remaining != 1 {
		t.Fatalf("remaining = %d, want 1", snap.Session.Remaining)
	}
	if snap.Frame == nil || snap.Frame.Cur.Text != snap.Session.Winner {
		t.Fatalf("final frame does not display the winner: %+v", snap.Frame)
	}

	v := recvView(t, r, 200*time.Millisecond)
	if v.Animating {
		t.Fatalf("still animating after round completion")
	}
	if len(v.State.Pool) != 1 {
		t.Fatalf("pool = %v, want one student left", v.State.Pool)
	}
}

func TestRoom_AnimatedRoundBroadcastsFramesAndLandsWinner(t *testing.T) {
	r, out := testRoom(t, []string{"Alice", "Bob", "Carol"})
	_ = recvSnapshot(t, out, 200*time.Millisecond)

	r.Inbox() <- FromClient{Cmd: Command{
		Type:     CmdStartSession,
		Duration: time.Second,
		Effects:  true,
	}}

	frames := 0
	deadline := time.After(5 * time.Second)
	for {
		var snap Snapshot
		select {
		case snap = <-out:
		case <-deadline:
			t.Fatalf("round never completed; saw %d frames", frames)
		}
		if snap.Frame != nil {
			frames++
		}
		if snap.Session.Phase == session.PhaseGrading {
			if frames < 10 {
				t.Fatalf("only %d frames broadcast during a 1s spin", frames)
			}
			if snap.Frame.Cur.Text != snap.Session.Winner {
				t.Fatalf("landed %q, winner %q", snap.Frame.Cur.Text, snap.Session.Winner)
			}
			return
		}
	}
}

func TestRoom_SessionWalkReachesSummary(t *testing.T) {
	r, out := testRoom(t, []string{"Alice", "Bob"})
	_ = recvSnapshot(t, out, 200*time.Millisecond)

	start := Command{Type: CmdStartSession, Duration: time.Second, Effects: false}
	r.Inbox() <- FromClient{Cmd: start}

	for i := 0; i < 2; i++ {
		if i > 0 {
			// Make sure the next round actually started before looking
			// for its grading snapshot, or we'd match the previous one.
			_ = waitForPhase(t, out, session.PhaseAnimating, 5*time.Second)
		}
		snap := waitForPhase(t, out, session.PhaseGrading, 5*time.Second)
		if snap.Session.Winner == "" {
			t.Fatalf("round %d: no winner", i)
		}
		r.Inbox() <- FromClient{Cmd: Command{Type: CmdRate, Rating: session.RatingA}}
		r.Inbox() <- FromClient{Cmd: Command{Type: CmdNextRound}}
	}

	snap := waitForPhase(t, out, session.PhaseSummary, 5*time.Second)
	if len(snap.Session.Grades) != 2 {
		t.Fatalf("summary grades = %v, want 2 entries", snap.Session.Grades)
	}
	if snap.Session.Remaining != 0 {
		t.Fatalf("summary remaining = %d, want 0", snap.Session.Remaining)
	}
	foundClosing := false
	for _, c := range snap.Cues {
		if c.Action == audio.ActionPlay && c.Track == audio.TrackClosing {
			foundClosing = true
		}
	}
	if !foundClosing {
		t.Fatalf("summary snapshot missing closing cue: %v", snap.Cues)
	}
}

func TestRoom_SessionStartEmitsWelcomeCue(t *testing.T) {
	r, out := testRoom(t, []string{"Alice"})
	_ = recvSnapshot(t, out, 200*time.Millisecond)

	r.Inbox() <- FromClient{Cmd: Command{Type: CmdStartSession, Duration: time.Second, Effects: false}}

	snap := recvSnapshot(t, out, time.Second)
	found := false
	for _, c := range snap.Cues {
		if c.Action == audio.ActionPlay && c.Track == audio.TrackIntro {
			found = true
		}
	}
	if !found {
		t.Fatalf("first snapshot after start missing welcome cue: %v", snap.Cues)
	}
}

func TestRoom_LeaveClosesOutbox(t *testing.T) {
	r, out := testRoom(t, []string{"Alice"})
	_ = recvSnapshot(t, out, 200*time.Millisecond)

	out2 := make(chan Snapshot, 8)
	r.Inbox() <- Join{ClientID: "c2", Outbox: out2}
	_ = recvSnapshot(t, out2, 200*time.Millisecond)

	r.Inbox() <- Leave{ClientID: "c2"}

	// The writer goroutine ranges over the outbox; leaving must close it.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-out2:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("outbox still open after leave")
		}
	}
}

func TestRoom_RatingBroadcastsFeedbackAndCue(t *testing.T) {
	r, out := testRoom(t, []string{"Alice"})
	_ = recvSnapshot(t, out, 200*time.Millisecond)

	r.Inbox() <- FromClient{Cmd: Command{Type: CmdStartSession, Duration: time.Second, Effects: false}}
	_ = waitForPhase(t, out, session.PhaseGrading, 5*time.Second)

	r.Inbox() <- FromClient{Cmd: Command{Type: CmdRate, Rating: session.RatingA}}

	deadline := time.After(2 * time.Second)
	for {
		var snap Snapshot
		select {
		case snap = <-out:
		case <-deadline:
			t.Fatalf("no feedback snapshot")
		}
		if snap.Session.Feedback == "" {
			continue
		}
		if snap.Session.Feedback != "Nice." {
			t.Fatalf("feedback = %q", snap.Session.Feedback)
		}
		foundCue := false
		for _, c := range snap.Cues {
			if c.Action == audio.ActionPlay && c.Track == audio.TrackRatingA {
				foundCue = true
			}
		}
		if !foundCue {
			t.Fatalf("rating cue missing from %v", snap.Cues)
		}
		return
	}
}

func TestRoom_ExitMidAnimationKeepsPoolIntact(t *testing.T) {
	r, out := testRoom(t, []string{"Alice", "Bob", "Carol"})
	_ = recvSnapshot(t, out, 200*time.Millisecond)

	r.Inbox() <- FromClient{Cmd: Command{Type: CmdStartSession, Duration: 10 * time.Second, Effects: true}}
	_ = waitForPhase(t, out, session.PhaseAnimating, 2*time.Second)

	r.Inbox() <- FromClient{Cmd: Command{Type: CmdExit}}
	snap := waitForPhase(t, out, session.PhaseIdle, 2*time.Second)
	if !snap.Session.Aborted {
		t.Fatalf("exit snapshot not marked aborted")
	}

	v := recvView(t, r, 200*time.Millisecond)
	if v.Animating {
		t.Fatalf("animation survived exit")
	}
	if len(v.State.Pool) != 3 {
		t.Fatalf("aborted round mutated the pool: %v", v.State.Pool)
	}
}

func TestRoom_LastClientLeavingAbortsRound(t *testing.T) {
	r, out := testRoom(t, []string{"Alice", "Bob"})
	_ = recvSnapshot(t, out, 200*time.Millisecond)

	r.Inbox() <- FromClient{Cmd: Command{Type: CmdStartSession, Duration: 10 * time.Second, Effects: true}}
	_ = waitForPhase(t, out, session.PhaseAnimating, 2*time.Second)

	r.Inbox() <- Leave{ClientID: "c1"}

	// Wait for the abort to land, then confirm no rotation work continues.
	time.Sleep(200 * time.Millisecond)
	v := recvView(t, r, 200*time.Millisecond)
	if v.Animating {
		t.Fatalf("round kept animating with no clients attached")
	}
	if len(v.State.Pool) != 2 {
		t.Fatalf("teardown mutated the pool: %v", v.State.Pool)
	}
}

func TestRoom_ShutdownClosesClients(t *testing.T) {
	r, out := testRoom(t, []string{"Alice"})
	_ = recvSnapshot(t, out, 200*time.Millisecond)

	r.Inbox() <- Shutdown{}

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-out:
			if !ok {
				return // closed, as expected
			}
		case <-deadline:
			t.Fatalf("outbox never closed after shutdown")
		}
	}
}

func TestRoom_ResumeReusesSurvivingPool(t *testing.T) {
	r, out := testRoom(t, []string{"Alice", "Bob"})
	_ = recvSnapshot(t, out, 200*time.Millisecond)

	r.Inbox() <- FromClient{Cmd: Command{Type: CmdStartSession, Duration: time.Second, Effects: false}}
	snap := waitForPhase(t, out, session.PhaseGrading, 5*time.Second)
	first := snap.Session.Winner

	r.Inbox() <- FromClient{Cmd: Command{Type: CmdExit}}
	_ = waitForPhase(t, out, session.PhaseIdle, 2*time.Second)

	// Resuming must draw from the shrunken pool, never re-picking the
	// first winner.
	r.Inbox() <- FromClient{Cmd: Command{Type: CmdStartSession, Duration: time.Second, Effects: false}}
	snap = waitForPhase(t, out, session.PhaseGrading, 5*time.Second)
	if snap.Session.Winner == first {
		t.Fatalf("student %q selected twice across resume", first)
	}
	if snap.Session.Remaining != 0 {
		t.Fatalf("remaining = %d, want 0", snap.Session.Remaining)
	}
}
