// Package geometry provides the path interpolation used by the storyboard
// generator for scan-cursor transitions.
package geometry

import (
	"math"

	"scanstage/internal/types"
)

// BulgeAmplitude is the fixed height of the sine bump applied to curved paths.
const BulgeAmplitude = 36.0

// CurvedPath returns steps+1 points from start to end, inclusive of both
// endpoints. The path is a linear interpolation with a sine-shaped offset
// added equally to both axes, so the cursor bulges away from the straight
// line instead of travelling it. The offset is zero at the endpoints and
// maximal at the midpoint.
//
// The function is pure: identical inputs always give identical outputs, and
// any finite inputs are valid. Endpoints are returned exactly rather than
// recomputed, so no floating-point residue from sin(pi) leaks into them.
func CurvedPath(start, end types.Point, steps int) []types.Point {
	path := make([]types.Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		switch i {
		case 0:
			path = append(path, start)
		case steps:
			path = append(path, end)
		default:
			t := float64(i) / float64(steps)
			offset := math.Sin(t*math.Pi) * BulgeAmplitude
			path = append(path, types.Point{
				X: start.X + (end.X-start.X)*t + offset,
				Y: start.Y + (end.Y-start.Y)*t + offset,
			})
		}
	}
	return path
}
