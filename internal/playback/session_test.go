package playback

import (
	"context"
	"testing"
	"time"

	"scanstage/internal/types"
)

func timeline(stamps ...int64) []types.AnimationEvent {
	events := make([]types.AnimationEvent, len(stamps))
	for i, ts := range stamps {
		events[i] = types.AnimationEvent{Timestamp: ts, Action: types.ActionMove}
	}
	events[len(events)-1].Action = types.ActionComplete
	return events
}

func TestAdvanceConsumesInOrder(t *testing.T) {
	session := NewSession(timeline(0, 100, 250, 600), time.Now())

	due := session.Advance(150 * time.Millisecond)
	if len(due) != 2 {
		t.Fatalf("expected 2 due events at 150ms, got %d", len(due))
	}
	if due[0].Timestamp != 0 || due[1].Timestamp != 100 {
		t.Errorf("due events out of order: %d, %d", due[0].Timestamp, due[1].Timestamp)
	}

	// Advancing again with the same elapsed time yields nothing new.
	if again := session.Advance(150 * time.Millisecond); len(again) != 0 {
		t.Errorf("re-advance returned %d events, want 0", len(again))
	}

	due = session.Advance(600 * time.Millisecond)
	if len(due) != 2 {
		t.Fatalf("expected remaining 2 events at 600ms, got %d", len(due))
	}
	if !session.Done() {
		t.Error("session should be done after consuming all events")
	}
}

func TestAdvanceTiesKeepInsertionOrder(t *testing.T) {
	events := []types.AnimationEvent{
		{Timestamp: 100, Action: types.ActionMove},
		{Timestamp: 100, Action: types.ActionPause},
		{Timestamp: 100, Action: types.ActionGlow},
	}
	session := NewSession(events, time.Now())

	due := session.Advance(100 * time.Millisecond)
	if len(due) != 3 {
		t.Fatalf("expected all 3 tied events, got %d", len(due))
	}
	want := []types.ActionType{types.ActionMove, types.ActionPause, types.ActionGlow}
	for i, action := range want {
		if due[i].Action != action {
			t.Errorf("tied event %d = %s, want %s", i, due[i].Action, action)
		}
	}
}

func TestPauseExcludesTimeFromClock(t *testing.T) {
	start := time.Unix(0, 0)
	session := NewSession(timeline(0, 500), start)

	session.Pause(start.Add(200 * time.Millisecond))

	// While paused, the clock is frozen at the pause point and nothing fires.
	if got := session.Elapsed(start.Add(10 * time.Second)); got != 200*time.Millisecond {
		t.Errorf("elapsed while paused = %v, want 200ms", got)
	}
	if due := session.Advance(time.Hour); due != nil {
		t.Errorf("advance while paused returned %d events, want none", len(due))
	}

	session.Resume(start.Add(1200 * time.Millisecond))

	// One second paused: wall clock 1500ms reads as 500ms of playback.
	if got := session.Elapsed(start.Add(1500 * time.Millisecond)); got != 500*time.Millisecond {
		t.Errorf("elapsed after resume = %v, want 500ms", got)
	}
}

func TestPauseResumeIdempotent(t *testing.T) {
	start := time.Unix(0, 0)
	session := NewSession(timeline(0), start)

	session.Resume(start) // resume while running is a no-op
	session.Pause(start.Add(100 * time.Millisecond))
	session.Pause(start.Add(5 * time.Second)) // second pause must not move the mark
	session.Resume(start.Add(600 * time.Millisecond))

	if got := session.Elapsed(start.Add(700 * time.Millisecond)); got != 200*time.Millisecond {
		t.Errorf("elapsed = %v, want 200ms", got)
	}
}

func TestSkipToEnd(t *testing.T) {
	session := NewSession(timeline(0, 100, 200, 300), time.Now())
	session.Advance(50 * time.Millisecond)

	rest := session.SkipToEnd()
	if len(rest) != 3 {
		t.Fatalf("expected 3 remaining events, got %d", len(rest))
	}
	if rest[len(rest)-1].Action != types.ActionComplete {
		t.Error("skip must hand back the terminal complete event")
	}
	if !session.Done() || session.Remaining() != 0 {
		t.Error("session should be fully consumed after SkipToEnd")
	}
}

func TestRunAppliesAllEvents(t *testing.T) {
	session := NewSession(timeline(0, 10, 20), time.Now())

	var applied []types.AnimationEvent
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := session.Run(ctx, time.Millisecond, 1.0, func(e types.AnimationEvent) {
		applied = append(applied, e)
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(applied) != 3 {
		t.Fatalf("applied %d events, want 3", len(applied))
	}
	for i := 1; i < len(applied); i++ {
		if applied[i].Timestamp < applied[i-1].Timestamp {
			t.Error("events applied out of timestamp order")
		}
	}
}

func TestRunCancellation(t *testing.T) {
	// Far-future timestamps guarantee cancellation wins.
	session := NewSession(timeline(int64(time.Hour/time.Millisecond)), time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := session.Run(ctx, time.Millisecond, 1.0, func(types.AnimationEvent) {
		t.Error("no event should fire after cancellation")
	})
	if err != context.Canceled {
		t.Errorf("run returned %v, want context.Canceled", err)
	}
	if session.Done() {
		t.Error("cancelled session must not be marked done")
	}
}

func TestSpeedMultiplier(t *testing.T) {
	session := NewSession(timeline(0, 100), time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	start := time.Now()
	err := session.Run(ctx, time.Millisecond, 10.0, func(types.AnimationEvent) { count++ })
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if count != 2 {
		t.Errorf("applied %d events, want 2", count)
	}
	// At 10x the 100ms storyboard completes well inside the real 100ms.
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("10x playback took %v, expected well under 100ms", elapsed)
	}
}

func TestSessionIDsUnique(t *testing.T) {
	a := NewSession(timeline(0), time.Now())
	b := NewSession(timeline(0), time.Now())
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("session IDs must be unique and non-empty: %q vs %q", a.ID, b.ID)
	}
}
