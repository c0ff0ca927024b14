// Package playback drives a storyboard in real time. A Session is the
// explicit per-playback state object: constructed fresh for every run,
// owned by its consumer, and discarded on cancellation. Nothing here is
// process-global.
package playback

import (
	"context"
	"time"

	"github.com/google/uuid"

	"scanstage/internal/types"
)

// Session consumes one storyboard exactly once. The event list is treated as
// immutable; replaying requires a new session, never mutation of the list.
//
// A Session is not safe for concurrent use: generation and playback are both
// expected to run on the single UI-update goroutine.
type Session struct {
	ID     string
	events []types.AnimationEvent
	cursor int

	started     time.Time
	paused      bool
	pausedAt    time.Time
	pausedTotal time.Duration
}

// NewSession creates a session over the given events with the clock started
// at now.
func NewSession(events []types.AnimationEvent, now time.Time) *Session {
	return &Session{
		ID:      uuid.NewString(),
		events:  events,
		started: now,
	}
}

// Elapsed returns playback time at now, excluding any time spent paused.
func (s *Session) Elapsed(now time.Time) time.Duration {
	if s.paused {
		return s.pausedAt.Sub(s.started) - s.pausedTotal
	}
	return now.Sub(s.started) - s.pausedTotal
}

// Advance returns every unconsumed event whose timestamp has been reached at
// the given elapsed time, in list order, and moves the cursor past them.
// Events sharing a timestamp come back in insertion order. While paused,
// Advance returns nothing.
func (s *Session) Advance(elapsed time.Duration) []types.AnimationEvent {
	if s.paused {
		return nil
	}

	start := s.cursor
	elapsedMillis := elapsed.Milliseconds()
	for s.cursor < len(s.events) && s.events[s.cursor].Timestamp <= elapsedMillis {
		s.cursor++
	}
	return s.events[start:s.cursor]
}

// Pause freezes the playback clock. No events are consumed until Resume.
func (s *Session) Pause(now time.Time) {
	if s.paused {
		return
	}
	s.paused = true
	s.pausedAt = now
}

// Resume unfreezes the clock; the paused interval is excluded from Elapsed.
func (s *Session) Resume(now time.Time) {
	if !s.paused {
		return
	}
	s.paused = false
	s.pausedTotal += now.Sub(s.pausedAt)
}

// SkipToEnd consumes all remaining events and returns them so the caller can
// apply the terminal complete state immediately.
func (s *Session) SkipToEnd() []types.AnimationEvent {
	start := s.cursor
	s.cursor = len(s.events)
	s.paused = false
	return s.events[start:]
}

// Done reports whether every event has been consumed.
func (s *Session) Done() bool {
	return s.cursor >= len(s.events)
}

// Remaining returns the number of unconsumed events.
func (s *Session) Remaining() int {
	return len(s.events) - s.cursor
}

// Run drives the session with a ticker until the storyboard completes or the
// context is cancelled. Each due event is handed to apply in order. The speed
// multiplier scales storyboard time against wall-clock time (2.0 plays twice
// as fast). Cancellation performs no rollback: effects already applied stay
// applied, per the session ownership contract.
func (s *Session) Run(ctx context.Context, frameInterval time.Duration, speed float64, apply func(types.AnimationEvent)) error {
	if speed <= 0 {
		speed = 1.0
	}

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for !s.Done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			elapsed := time.Duration(float64(s.Elapsed(now)) * speed)
			for _, event := range s.Advance(elapsed) {
				apply(event)
			}
		}
	}
	return nil
}
