package storyboard

import "scanstage/internal/types"

// demoRegions is the canned sequence used when extraction found nothing to
// scan. The boxes match the extractor's fixed per-kind layout so the demo
// looks identical to a real scan.
var demoRegions = []types.Region{
	{
		Kind:       types.KindName,
		Text:       "Jordan Example",
		Box:        types.BoundingBox{X: 60, Y: 40, Width: 680, Height: 90},
		Confidence: 0.98,
	},
	{
		Kind:       types.KindContact,
		Text:       "jordan@example.com +1 555 0100",
		Box:        types.BoundingBox{X: 60, Y: 150, Width: 540, Height: 60},
		Confidence: 0.95,
	},
	{
		Kind:       types.KindSkills,
		Text:       "Go, Distributed Systems, SQL",
		Box:        types.BoundingBox{X: 60, Y: 260, Width: 680, Height: 160},
		Confidence: 0.90,
	},
	{
		Kind:       types.KindExperience,
		Text:       "Software Engineer, Platform Lead",
		Box:        types.BoundingBox{X: 60, Y: 460, Width: 680, Height: 300},
		Confidence: 0.85,
	},
	{
		Kind:       types.KindEducation,
		Text:       "BSc Computer Science",
		Box:        types.BoundingBox{X: 60, Y: 800, Width: 680, Height: 140},
		Confidence: 0.80,
	},
}

// Demo returns the fixed built-in storyboard callers substitute when no
// regions were detected.
func Demo(canvas types.Size) []types.AnimationEvent {
	return Build(demoRegions, canvas)
}

// DemoRegions returns a copy of the demo region list for the results panel.
func DemoRegions() []types.Region {
	out := make([]types.Region, len(demoRegions))
	copy(out, demoRegions)
	return out
}
