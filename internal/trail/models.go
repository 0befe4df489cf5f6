package trail

import (
	"math"

	"backend-trailtracker/internal/shared/geo"
)

// Trail is the fixed ordered polyline for the run, with a parallel elevation
// series. Missing elevation samples are stored as NaN.
type Trail struct {
	Points     []geo.Point
	Elevations []float64
}

// TotalDistanceKm is the full polyline length.
func (t Trail) TotalDistanceKm() float64 {
	return geo.PolylineLengthKm(t.Points)
}

// Empty reports whether the trail is unusable for distance computation.
func (t Trail) Empty() bool {
	return len(t.Points) < 2
}

// PointInput is one uploaded trail point; Elevation nil means no sample.
type PointInput struct {
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	Elevation *float64 `json:"elevation_m"`
}

func elevationValue(e *float64) float64 {
	if e == nil {
		return math.NaN()
	}
	return *e
}
