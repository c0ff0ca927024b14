package types

// Point is a coordinate in the logical canvas frame shared with the renderer.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is the logical canvas dimensions. The rendering layer scales this
// frame to the actual displayed area.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// BoundingBox is an axis-aligned rectangle in logical canvas coordinates.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the center point of the box. A zero-area box is fine;
// the center is simply its origin.
func (b BoundingBox) Center() Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// RegionKind identifies which structural part of the document a region covers.
type RegionKind string

const (
	KindName       RegionKind = "name"
	KindContact    RegionKind = "contact"
	KindSkills     RegionKind = "skills"
	KindExperience RegionKind = "experience"
	KindEducation  RegionKind = "education"
)

// Label returns the human-readable tag shown next to a highlighted region.
func (k RegionKind) Label() string {
	switch k {
	case KindName:
		return "Name"
	case KindContact:
		return "Contact"
	case KindSkills:
		return "Skills"
	case KindExperience:
		return "Experience"
	case KindEducation:
		return "Education"
	default:
		return string(k)
	}
}

// Region is a detected structural area of a document.
//
// Confidence is informational only: it is carried through for display but
// nothing downstream branches on it.
type Region struct {
	Kind       RegionKind  `json:"kind"`
	Text       string      `json:"text"`
	Box        BoundingBox `json:"boundingBox"`
	Confidence float64     `json:"confidence"`
}

// ActionType is the closed set of animation actions.
type ActionType string

const (
	ActionMove         ActionType = "move"
	ActionPause        ActionType = "pause"
	ActionGlow         ActionType = "glow"
	ActionTagPopout    ActionType = "tagPopout"
	ActionBeamTransfer ActionType = "beamTransfer"
	ActionComplete     ActionType = "complete"
)

// AnimationEvent is one scheduled point in a storyboard timeline.
//
// Timestamp is the offset in milliseconds from playback start. Events sharing
// a timestamp must be consumed in list order.
type AnimationEvent struct {
	Timestamp int64        `json:"timestamp"`
	Position  Point        `json:"position"`
	Highlight *BoundingBox `json:"highlightRegion,omitempty"`
	Label     string       `json:"label,omitempty"`
	Action    ActionType   `json:"action"`
	Kind      RegionKind   `json:"kind,omitempty"`
}

// ExperienceEntry is one experience item in a document summary.
type ExperienceEntry struct {
	Role    string `json:"role"`
	Company string `json:"company,omitempty"`
	Period  string `json:"period,omitempty"`
}

// EducationEntry is one education item in a document summary.
type EducationEntry struct {
	Degree string `json:"degree"`
	School string `json:"school,omitempty"`
	Year   string `json:"year,omitempty"`
}

// DocumentSummary is the loosely structured analysis result produced by the
// external document-analysis service. Every field is optional: the zero value
// (empty string, nil slice) is the explicit "not present" marker.
type DocumentSummary struct {
	Name       string            `json:"name,omitempty"`
	Email      string            `json:"email,omitempty"`
	Phone      string            `json:"phone,omitempty"`
	Skills     []string          `json:"skills,omitempty"`
	Experience []ExperienceEntry `json:"experience,omitempty"`
	Education  []EducationEntry  `json:"education,omitempty"`
}

// IsEmpty reports whether the summary carries no extractable field group.
func (s DocumentSummary) IsEmpty() bool {
	return s.Name == "" && s.Email == "" && s.Phone == "" &&
		len(s.Skills) == 0 && len(s.Experience) == 0 && len(s.Education) == 0
}

// RegionsOutput is the response shape for region extraction.
type RegionsOutput struct {
	Regions []Region `json:"regions"`
}

// StoryboardOutput bundles everything a playback frontend needs for one
// session: the logical canvas frame, the detected regions for the results
// panel, and the ordered event timeline.
type StoryboardOutput struct {
	Canvas  Size             `json:"canvas"`
	Regions []Region         `json:"regions"`
	Events  []AnimationEvent `json:"events"`
	Demo    bool             `json:"demo,omitempty"`
}
