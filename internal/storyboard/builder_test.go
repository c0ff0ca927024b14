package storyboard

import (
	"reflect"
	"testing"

	"scanstage/internal/types"
)

func region(kind types.RegionKind, box types.BoundingBox) types.Region {
	return types.Region{Kind: kind, Text: "x", Box: box, Confidence: 0.9}
}

func countActions(events []types.AnimationEvent) map[types.ActionType]int {
	counts := make(map[types.ActionType]int)
	for _, e := range events {
		counts[e.Action]++
	}
	return counts
}

func TestBuildSingleRegion(t *testing.T) {
	box := types.BoundingBox{X: 60, Y: 260, Width: 680, Height: 160}
	events := Build([]types.Region{region(types.KindSkills, box)}, Canvas)

	wantActions := []types.ActionType{
		types.ActionMove,
		types.ActionPause,
		types.ActionGlow,
		types.ActionTagPopout,
		types.ActionBeamTransfer,
		types.ActionComplete,
	}
	if len(events) != len(wantActions) {
		t.Fatalf("expected %d events, got %d", len(wantActions), len(events))
	}

	for i, want := range wantActions {
		if events[i].Action != want {
			t.Errorf("event[%d].Action = %s, want %s", i, events[i].Action, want)
		}
	}

	// Timestamps strictly increase: no ties are possible without sub-paths.
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp <= events[i-1].Timestamp {
			t.Errorf("timestamp not strictly increasing at %d: %d then %d",
				i, events[i-1].Timestamp, events[i].Timestamp)
		}
	}

	if events[0].Timestamp != 0 {
		t.Errorf("first move at t=%d, want 0", events[0].Timestamp)
	}

	pause := events[1]
	if pause.Highlight == nil || *pause.Highlight != box {
		t.Errorf("pause highlight = %v, want the region box", pause.Highlight)
	}
	if pause.Label != "Skills" {
		t.Errorf("pause label = %q, want %q", pause.Label, "Skills")
	}

	if events[3].Highlight != nil {
		t.Error("tagPopout must not carry a highlight box")
	}
	if events[4].Label != "" || events[4].Highlight != nil {
		t.Error("beamTransfer must carry neither label nor highlight")
	}

	complete := events[len(events)-1]
	wantCenter := types.Point{X: Canvas.Width / 2, Y: Canvas.Height / 2}
	if complete.Position != wantCenter {
		t.Errorf("complete position = %+v, want canvas center %+v", complete.Position, wantCenter)
	}
}

func TestBuildMultipleRegions(t *testing.T) {
	regionList := []types.Region{
		region(types.KindName, types.BoundingBox{X: 60, Y: 40, Width: 680, Height: 90}),
		region(types.KindSkills, types.BoundingBox{X: 60, Y: 260, Width: 680, Height: 160}),
		region(types.KindEducation, types.BoundingBox{X: 60, Y: 800, Width: 680, Height: 140}),
	}

	events := Build(regionList, Canvas)

	last := events[len(events)-1]
	if last.Action != types.ActionComplete {
		t.Fatalf("last event action = %s, want complete", last.Action)
	}

	counts := countActions(events)
	n := len(regionList)
	for _, action := range []types.ActionType{
		types.ActionPause, types.ActionGlow, types.ActionTagPopout, types.ActionBeamTransfer,
	} {
		if counts[action] != n {
			t.Errorf("%s count = %d, want %d", action, counts[action], n)
		}
	}
	if counts[types.ActionComplete] != 1 {
		t.Errorf("complete count = %d, want exactly 1", counts[types.ActionComplete])
	}

	// One leading move per region (the first via the initial approach) plus
	// the interleaved sub-path moves between consecutive regions.
	wantMoves := n + (n-1)*(pathSteps-1)
	if counts[types.ActionMove] != wantMoves {
		t.Errorf("move count = %d, want %d", counts[types.ActionMove], wantMoves)
	}
}

func TestBuildSubPathTiming(t *testing.T) {
	regionList := []types.Region{
		region(types.KindName, types.BoundingBox{X: 60, Y: 40, Width: 680, Height: 90}),
		region(types.KindContact, types.BoundingBox{X: 60, Y: 150, Width: 540, Height: 60}),
	}

	events := Build(regionList, Canvas)

	// Locate the first beamTransfer; the sub-path moves follow it directly.
	var beamIdx int
	for i, e := range events {
		if e.Action == types.ActionBeamTransfer {
			beamIdx = i
			break
		}
	}
	beamEnd := events[beamIdx].Timestamp + beamMillis

	for j := 1; j < pathSteps; j++ {
		e := events[beamIdx+j]
		if e.Action != types.ActionMove {
			t.Fatalf("expected sub-path move at offset %d, got %s", j, e.Action)
		}
		want := beamEnd + int64(j)*subStepMillis
		if e.Timestamp != want {
			t.Errorf("sub-path move %d at t=%d, want %d", j, e.Timestamp, want)
		}
	}

	// The second region's leading move starts a full transition after the beam.
	next := events[beamIdx+pathSteps]
	if next.Action != types.ActionMove {
		t.Fatalf("expected leading move after sub-path, got %s", next.Action)
	}
	if next.Timestamp != beamEnd+transitionMillis {
		t.Errorf("leading move at t=%d, want %d", next.Timestamp, beamEnd+transitionMillis)
	}
}

func TestBuildEmptyRegions(t *testing.T) {
	events := Build(nil, Canvas)

	if len(events) != 1 {
		t.Fatalf("expected only the terminal event, got %d", len(events))
	}
	if events[0].Action != types.ActionComplete || events[0].Timestamp != 0 {
		t.Errorf("terminal event = %+v, want complete at t=0", events[0])
	}
}

func TestBuildZeroAreaBox(t *testing.T) {
	events := Build([]types.Region{
		region(types.KindName, types.BoundingBox{X: 120, Y: 340}),
	}, Canvas)

	if len(events) != 6 {
		t.Fatalf("expected 6 events, got %d", len(events))
	}
	want := types.Point{X: 120, Y: 340}
	if events[0].Position != want {
		t.Errorf("move position = %+v, want box origin %+v", events[0].Position, want)
	}
}

func TestBuildIdempotent(t *testing.T) {
	regionList := []types.Region{
		region(types.KindName, types.BoundingBox{X: 60, Y: 40, Width: 680, Height: 90}),
		region(types.KindExperience, types.BoundingBox{X: 60, Y: 460, Width: 680, Height: 300}),
	}

	a := Build(regionList, Canvas)
	b := Build(regionList, Canvas)

	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs produced structurally different storyboards")
	}
}

func TestDemoStoryboard(t *testing.T) {
	events := Demo(Canvas)

	if len(events) < 2 {
		t.Fatalf("demo storyboard too short: %d events", len(events))
	}
	if events[len(events)-1].Action != types.ActionComplete {
		t.Errorf("demo storyboard must end with complete, got %s", events[len(events)-1].Action)
	}

	counts := countActions(events)
	if counts[types.ActionPause] != len(DemoRegions()) {
		t.Errorf("demo pauses = %d, want one per demo region (%d)",
			counts[types.ActionPause], len(DemoRegions()))
	}
}
