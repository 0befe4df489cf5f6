package progress

import (
	"errors"

	"backend-trailtracker/internal/shared/geo"
	"backend-trailtracker/internal/trail"
)

var ErrEmptyTrail = errors.New("trail needs at least 2 points")

// maxSegments bounds the completed-segment list handed to the map renderer.
const maxSegments = 50

// Result is the completed/remaining split for one fix against one trail.
type Result struct {
	CompletedPoints     []geo.Point
	RemainingPoints     []geo.Point
	CompletedDistanceKm float64
	TotalDistanceKm     float64
	ProgressPercentage  float64
	NearestIndex        int
	OffTrail            bool
	Active              bool
}

// Compute projects the fix onto the trail and splits it. Identical inputs
// always produce the identical split: the scan and the distance sums are a
// fixed left-to-right pass.
//
// Outside an active run window the result is frozen at zero, with the whole
// trail remaining. A fix farther than adherenceKm from every trail point is
// off-trail: zero completed distance, but the total is still reported.
func Compute(t trail.Trail, fix geo.Point, active bool, adherenceKm float64) (Result, error) {
	if t.Empty() {
		return Result{}, ErrEmptyTrail
	}

	total := t.TotalDistanceKm()
	if !active {
		return Result{
			RemainingPoints: t.Points,
			TotalDistanceKm: total,
			NearestIndex:    -1,
		}, nil
	}

	idx, dist := geo.NearestIndex(fix, t.Points)
	if dist > adherenceKm {
		return Result{
			RemainingPoints: t.Points,
			TotalDistanceKm: total,
			NearestIndex:    idx,
			OffTrail:        true,
			Active:          true,
		}, nil
	}

	completed := t.Points[:idx+1]
	remaining := t.Points[idx+1:]
	completedKm := geo.PolylineLengthKm(completed)

	pct := 0.0
	if total > 0 {
		pct = completedKm / total * 100
		if pct > 100 {
			pct = 100
		}
	}

	return Result{
		CompletedPoints:     completed,
		RemainingPoints:     remaining,
		CompletedDistanceKm: completedKm,
		TotalDistanceKm:     total,
		ProgressPercentage:  pct,
		NearestIndex:        idx,
		Active:              true,
	}, nil
}

// SampleSegments strides evenly across the completed points, keeping at most
// maxSegments entries including both endpoints.
func SampleSegments(points []geo.Point) []geo.Point {
	if len(points) <= maxSegments {
		out := make([]geo.Point, len(points))
		copy(out, points)
		return out
	}
	out := make([]geo.Point, maxSegments)
	for i := 0; i < maxSegments; i++ {
		out[i] = points[i*(len(points)-1)/(maxSegments-1)]
	}
	return out
}
