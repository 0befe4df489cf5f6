package waypoint

import (
	"sort"

	"backend-trailtracker/internal/shared/geo"
	"backend-trailtracker/internal/trail"
)

// Order projects each waypoint onto the trail and sorts ascending by the
// projected index. The sort is stable: waypoints landing on the same index
// keep their input order. Recomputed on demand, never persisted.
func Order(t trail.Trail, waypoints []Waypoint) []Ordered {
	ordered := make([]Ordered, 0, len(waypoints))
	for _, wp := range waypoints {
		idx, dist := geo.NearestIndex(geo.Point{Lat: wp.Lat, Lng: wp.Lng}, t.Points)
		o := Ordered{Waypoint: wp, TrackIndex: idx, DistanceToTrailKm: dist}
		if idx >= 0 {
			o.ClosestTrackPoint = t.Points[idx]
		}
		ordered = append(ordered, o)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].TrackIndex < ordered[j].TrackIndex
	})
	return ordered
}

// SegmentStats reports trail distance and elevation gain between two
// projected indices, normalized so the lower index is the segment start.
// Falls back to the straight-line distance when the trail is unusable.
func SegmentStats(t trail.Trail, a, b geo.Point, idxA, idxB int) (distanceKm, gainM float64) {
	if t.Empty() || idxA < 0 || idxB < 0 {
		return geo.Distance(a, b), 0
	}
	start, end := idxA, idxB
	if start > end {
		start, end = end, start
	}
	return geo.PolylineLengthKm(t.Points[start : end+1]), geo.ElevationGainM(t.Elevations, start, end)
}
