// Package regions maps a document-analysis summary onto typed canvas regions
// for the storyboard generator and the detected-sections panel.
package regions

import (
	"strings"

	"scanstage/internal/types"
)

// The bounding boxes are fixed per kind rather than derived from any rendered
// layout. The system never sees true document coordinates, so it overlays a
// generic guess in the shared logical canvas frame. This is a deliberate
// approximation; do not replace it with layout inference.
var kindBoxes = map[types.RegionKind]types.BoundingBox{
	types.KindName:       {X: 60, Y: 40, Width: 680, Height: 90},
	types.KindContact:    {X: 60, Y: 150, Width: 540, Height: 60},
	types.KindSkills:     {X: 60, Y: 260, Width: 680, Height: 160},
	types.KindExperience: {X: 60, Y: 460, Width: 680, Height: 300},
	types.KindEducation:  {X: 60, Y: 800, Width: 680, Height: 140},
}

// Confidence is likewise a constant per kind, descending down the document.
// It is reported for display only; nothing filters or reorders on it.
var kindConfidence = map[types.RegionKind]float64{
	types.KindName:       0.98,
	types.KindContact:    0.95,
	types.KindSkills:     0.90,
	types.KindExperience: 0.85,
	types.KindEducation:  0.80,
}

// Extract returns one region per populated field group of the summary, in
// fixed document order: name, contact, skills, experience, education. A group
// whose source data is absent or empty is omitted entirely; a region is never
// emitted with empty text.
func Extract(summary types.DocumentSummary) []types.Region {
	var out []types.Region

	if text := strings.TrimSpace(summary.Name); text != "" {
		out = append(out, newRegion(types.KindName, text))
	}

	if text := strings.TrimSpace(summary.Email + " " + summary.Phone); text != "" {
		out = append(out, newRegion(types.KindContact, text))
	}

	if text := joinNonEmpty(summary.Skills); text != "" {
		out = append(out, newRegion(types.KindSkills, text))
	}

	roles := make([]string, 0, len(summary.Experience))
	for _, e := range summary.Experience {
		roles = append(roles, e.Role)
	}
	if text := joinNonEmpty(roles); text != "" {
		out = append(out, newRegion(types.KindExperience, text))
	}

	degrees := make([]string, 0, len(summary.Education))
	for _, e := range summary.Education {
		degrees = append(degrees, e.Degree)
	}
	if text := joinNonEmpty(degrees); text != "" {
		out = append(out, newRegion(types.KindEducation, text))
	}

	return out
}

func newRegion(kind types.RegionKind, text string) types.Region {
	return types.Region{
		Kind:       kind,
		Text:       text,
		Box:        kindBoxes[kind],
		Confidence: kindConfidence[kind],
	}
}

func joinNonEmpty(items []string) string {
	kept := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, ", ")
}
