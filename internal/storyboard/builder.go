// Package storyboard turns an ordered region list into the timed animation
// event sequence a rendering frontend plays back as a simulated document scan.
package storyboard

import (
	"scanstage/internal/geometry"
	"scanstage/internal/types"
)

// Canvas is the fixed logical frame all coordinates are expressed in. The
// renderer scales it to the displayed area.
var Canvas = types.Size{Width: 800, Height: 1000}

// Timeline durations in milliseconds. They are intentionally large: the scan
// is meant to read as a slow, legible animation, not a progress bar.
const (
	moveMillis       = 2400
	pauseMillis      = 3000
	glowMillis       = 1800
	tagMillis        = 1200
	beamMillis       = 1500
	transitionMillis = 900

	// Transition sub-paths interleave at fine granularity relative to the
	// enclosing timeline: each sub-point is offset by its path index times
	// subStepMillis rather than consuming a full move duration.
	subStepMillis = 60
	pathSteps     = 8
)

// Build produces the ordered event timeline for the given regions.
//
// Regions are processed strictly in the order supplied; nothing is filtered,
// reordered or deduplicated, and malformed regions (including zero-area
// boxes) pass through untouched. The result always ends with exactly one
// complete event. An empty region list yields just that terminal event; the
// demo fallback for empty input is caller policy, not handled here.
func Build(regions []types.Region, canvas types.Size) []types.AnimationEvent {
	var events []types.AnimationEvent
	var now int64

	if len(regions) > 0 {
		// Initial approach to the first region.
		events = append(events, types.AnimationEvent{
			Timestamp: now,
			Position:  regions[0].Box.Center(),
			Action:    types.ActionMove,
			Kind:      regions[0].Kind,
		})
		now += moveMillis
	}

	for i, region := range regions {
		center := region.Box.Center()
		box := region.Box
		label := region.Kind.Label()

		// The initial approach already placed the cursor on the first
		// region, so its leading move is skipped.
		if i > 0 {
			events = append(events, types.AnimationEvent{
				Timestamp: now,
				Position:  center,
				Action:    types.ActionMove,
				Kind:      region.Kind,
			})
			now += moveMillis
		}

		events = append(events, types.AnimationEvent{
			Timestamp: now,
			Position:  center,
			Highlight: &box,
			Label:     label,
			Action:    types.ActionPause,
			Kind:      region.Kind,
		})
		now += pauseMillis

		// Visually a continuation of the pause, distinguished only by action.
		events = append(events, types.AnimationEvent{
			Timestamp: now,
			Position:  center,
			Highlight: &box,
			Label:     label,
			Action:    types.ActionGlow,
			Kind:      region.Kind,
		})
		now += glowMillis

		events = append(events, types.AnimationEvent{
			Timestamp: now,
			Position:  center,
			Label:     label,
			Action:    types.ActionTagPopout,
			Kind:      region.Kind,
		})
		now += tagMillis

		// The label was already consumed visually by the tag pop-out.
		events = append(events, types.AnimationEvent{
			Timestamp: now,
			Position:  center,
			Action:    types.ActionBeamTransfer,
			Kind:      region.Kind,
		})
		now += beamMillis

		if i < len(regions)-1 {
			path := geometry.CurvedPath(center, regions[i+1].Box.Center(), pathSteps)
			for j := 1; j < len(path)-1; j++ {
				events = append(events, types.AnimationEvent{
					Timestamp: now + int64(j)*subStepMillis,
					Position:  path[j],
					Action:    types.ActionMove,
					Kind:      region.Kind,
				})
			}
			now += transitionMillis
		}
	}

	events = append(events, types.AnimationEvent{
		Timestamp: now,
		Position:  types.Point{X: canvas.Width / 2, Y: canvas.Height / 2},
		Action:    types.ActionComplete,
	})

	return events
}
