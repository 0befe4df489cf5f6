package geo

import "math"

// earthRadiusKm is the mean Earth radius used for all great-circle math.
const earthRadiusKm = 6371.0

// Point is a single coordinate on the trail polyline.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HaversineKm returns the great-circle distance between two coordinates in km.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	if lat1 == lat2 && lng1 == lng2 {
		return 0
	}
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	rLat1 := lat1 * math.Pi / 180
	rLat2 := lat2 * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Distance returns the great-circle distance between two points in km.
func Distance(a, b Point) float64 {
	return HaversineKm(a.Lat, a.Lng, b.Lat, b.Lng)
}

// PolylineLengthKm sums consecutive-pair distances left to right.
// Returns 0 for fewer than 2 points.
func PolylineLengthKm(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}

// NearestIndex scans the polyline for the point closest to target and returns
// its index and the distance to it in km. Exact ties resolve to the lowest
// index. Returns (-1, +Inf) for an empty polyline.
func NearestIndex(target Point, points []Point) (int, float64) {
	best := -1
	bestDist := math.Inf(1)
	for i, p := range points {
		d := Distance(target, p)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best, bestDist
}

// ElevationGainM sums positive elevation deltas over (from, to], in meters.
// Indices are normalized so from <= to; pairs with a missing or NaN sample on
// either side are skipped. Elevations shorter than the polyline are tolerated.
func ElevationGainM(elevations []float64, from, to int) float64 {
	if from > to {
		from, to = to, from
	}
	if from < 0 {
		from = 0
	}
	if to >= len(elevations) {
		to = len(elevations) - 1
	}
	gain := 0.0
	for i := from + 1; i <= to; i++ {
		prev, cur := elevations[i-1], elevations[i]
		if math.IsNaN(prev) || math.IsNaN(cur) {
			continue
		}
		if delta := cur - prev; delta > 0 {
			gain += delta
		}
	}
	return gain
}

// RoundKm rounds a distance to 2 decimal places, the precision exposed to
// consumers.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

// RoundM rounds an elevation gain to the nearest whole meter.
func RoundM(m float64) float64 {
	return math.Round(m)
}
