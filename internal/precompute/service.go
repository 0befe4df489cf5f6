package precompute

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backend-trailtracker/internal/shared/geo"
	"backend-trailtracker/internal/trail"
	"backend-trailtracker/internal/waypoint"
)

var ErrUnknownTable = errors.New("unknown precompute table")

// Table names. The full set is recomputed eagerly by RecalculateAll and
// lazily, one at a time, by stale reads.
const (
	TableTrackDistances           = "trackDistances"
	TableWaypointPositions        = "waypointPositions"
	TableWaypointDistances        = "waypointDistances"
	TablePopupData                = "popupData"
	TableAllWaypointData          = "allWaypointData"
	TableCurrentLocationDistances = "currentLocationDistances"
)

var tableNames = []string{
	TableTrackDistances,
	TableWaypointPositions,
	TableWaypointDistances,
	TablePopupData,
	TableAllWaypointData,
	TableCurrentLocationDistances,
}

// trailStartKey is the pseudo-waypoint pairing every waypoint with the first
// trail point in the distances table.
const trailStartKey = "start"

// TrailSource resolves the current trail; the trail loader satisfies it.
type TrailSource interface {
	Get(ctx context.Context) (trail.Trail, error)
}

// WaypointSource lists the waypoint set to derive tables from.
type WaypointSource interface {
	List(ctx context.Context) ([]waypoint.Waypoint, error)
}

// FixSource resolves the latest accepted location fix; ok is false before the
// first ingest.
type FixSource interface {
	LatestPoint(ctx context.Context) (geo.Point, bool, error)
}

// Position is one waypoint's projection onto the trail, measured from the
// trail start.
type Position struct {
	TrackIndex         int       `json:"trackIndex"`
	DistanceFromStart  float64   `json:"distanceFromStart"`
	ElevationFromStart float64   `json:"elevationFromStart"`
	ClosestTrackPoint  geo.Point `json:"closestTrackPoint"`
	CalculatedAt       time.Time `json:"calculatedAt"`
}

// PairStats is the trail distance and elevation gain between two points.
type PairStats struct {
	Distance      float64   `json:"distance"`
	ElevationGain float64   `json:"elevationGain"`
	CalculatedAt  time.Time `json:"calculatedAt"`
}

type trackDistances struct {
	CumulativeKm []float64 `json:"cumulativeKm"`
	TotalKm      float64   `json:"totalKm"`
	CalculatedAt time.Time `json:"calculatedAt"`
}

type popupEntry struct {
	Name               string  `json:"name"`
	Type               string  `json:"type"`
	IsCompleted        bool    `json:"isCompleted"`
	DistanceFromStart  float64 `json:"distanceFromStart"`
	ElevationFromStart float64 `json:"elevationFromStart"`
}

type allData struct {
	waypoint.Ordered
	DistanceFromStart  float64 `json:"distanceFromStart"`
	ElevationFromStart float64 `json:"elevationFromStart"`
}

// Service computes and caches the derived tables the map front-end reads.
// Reads go through the store: a fresh entry is returned byte-identical, a
// missing or stale one triggers a recompute of that table only.
type Service struct {
	store     *Store
	trails    TrailSource
	waypoints WaypointSource
	fixes     FixSource
	now       func() time.Time
}

func NewService(store *Store, trails TrailSource, waypoints WaypointSource, fixes FixSource) *Service {
	return &Service{store: store, trails: trails, waypoints: waypoints, fixes: fixes, now: time.Now}
}

// Table returns the named table, recomputing on miss or staleness.
func (s *Service) Table(ctx context.Context, name string) (json.RawMessage, error) {
	compute, ok := s.computeFn(name)
	if !ok {
		return nil, ErrUnknownTable
	}
	if payload, _, fresh := s.store.Get(name); fresh {
		return payload, nil
	}
	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	s.store.Set(name, payload)
	return payload, nil
}

// RecalculateAll drops every cached table and recomputes the full set, used
// after bulk waypoint edits.
func (s *Service) RecalculateAll(ctx context.Context) error {
	s.store.Clear()
	for _, name := range tableNames {
		if _, err := s.Table(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// WaypointPositions serves the waypoint handlers' positions endpoint.
func (s *Service) WaypointPositions(ctx context.Context) (json.RawMessage, error) {
	return s.Table(ctx, TableWaypointPositions)
}

// WaypointDistances serves the waypoint handlers' distances endpoint.
func (s *Service) WaypointDistances(ctx context.Context) (json.RawMessage, error) {
	return s.Table(ctx, TableWaypointDistances)
}

func (s *Service) computeFn(name string) (func(ctx context.Context) (any, error), bool) {
	switch name {
	case TableTrackDistances:
		return s.computeTrackDistances, true
	case TableWaypointPositions:
		return s.computeWaypointPositions, true
	case TableWaypointDistances:
		return s.computeWaypointDistances, true
	case TablePopupData:
		return s.computePopupData, true
	case TableAllWaypointData:
		return s.computeAllWaypointData, true
	case TableCurrentLocationDistances:
		return s.computeCurrentLocationDistances, true
	}
	return nil, false
}

func (s *Service) computeTrackDistances(ctx context.Context) (any, error) {
	t, err := s.trails.Get(ctx)
	if err != nil {
		return nil, err
	}
	cumulative := make([]float64, len(t.Points))
	sum := 0.0
	for i := 1; i < len(t.Points); i++ {
		sum += geo.Distance(t.Points[i-1], t.Points[i])
		cumulative[i] = geo.RoundKm(sum)
	}
	return trackDistances{
		CumulativeKm: cumulative,
		TotalKm:      geo.RoundKm(sum),
		CalculatedAt: s.now(),
	}, nil
}

func (s *Service) ordered(ctx context.Context) (trail.Trail, []waypoint.Ordered, error) {
	t, err := s.trails.Get(ctx)
	if err != nil {
		return trail.Trail{}, nil, err
	}
	waypoints, err := s.waypoints.List(ctx)
	if err != nil {
		return trail.Trail{}, nil, err
	}
	return t, waypoint.Order(t, waypoints), nil
}

// fromStart measures the trail distance and elevation gain from the first
// trail point to one projected waypoint, rounded for display.
func fromStart(t trail.Trail, o waypoint.Ordered) (float64, float64) {
	if t.Empty() || o.TrackIndex < 0 {
		return 0, 0
	}
	point := geo.Point{Lat: o.Lat, Lng: o.Lng}
	dist, gain := waypoint.SegmentStats(t, t.Points[0], point, 0, o.TrackIndex)
	return geo.RoundKm(dist), geo.RoundM(gain)
}

func (s *Service) computeWaypointPositions(ctx context.Context) (any, error) {
	t, ordered, err := s.ordered(ctx)
	if err != nil {
		return nil, err
	}
	calculatedAt := s.now()
	positions := make(map[string]Position, len(ordered))
	for _, o := range ordered {
		dist, gain := fromStart(t, o)
		positions[o.ID] = Position{
			TrackIndex:         o.TrackIndex,
			DistanceFromStart:  dist,
			ElevationFromStart: gain,
			ClosestTrackPoint:  o.ClosestTrackPoint,
			CalculatedAt:       calculatedAt,
		}
	}
	return positions, nil
}

func (s *Service) computeWaypointDistances(ctx context.Context) (any, error) {
	t, ordered, err := s.ordered(ctx)
	if err != nil {
		return nil, err
	}
	calculatedAt := s.now()
	distances := make(map[string]PairStats)

	record := func(keyA, keyB string, a, b geo.Point, idxA, idxB int) {
		dist, gain := waypoint.SegmentStats(t, a, b, idxA, idxB)
		stats := PairStats{
			Distance:      geo.RoundKm(dist),
			ElevationGain: geo.RoundM(gain),
			CalculatedAt:  calculatedAt,
		}
		distances[keyA+"-"+keyB] = stats
		distances[keyB+"-"+keyA] = stats
	}

	for i, a := range ordered {
		pa := geo.Point{Lat: a.Lat, Lng: a.Lng}
		if !t.Empty() {
			record(trailStartKey, a.ID, t.Points[0], pa, 0, a.TrackIndex)
		}
		for _, b := range ordered[i+1:] {
			record(a.ID, b.ID, pa, geo.Point{Lat: b.Lat, Lng: b.Lng}, a.TrackIndex, b.TrackIndex)
		}
	}
	return distances, nil
}

func (s *Service) computePopupData(ctx context.Context) (any, error) {
	t, ordered, err := s.ordered(ctx)
	if err != nil {
		return nil, err
	}
	popups := make(map[string]popupEntry, len(ordered))
	for _, o := range ordered {
		dist, gain := fromStart(t, o)
		popups[o.ID] = popupEntry{
			Name:               o.Name,
			Type:               o.Type,
			IsCompleted:        o.IsCompleted,
			DistanceFromStart:  dist,
			ElevationFromStart: gain,
		}
	}
	return popups, nil
}

func (s *Service) computeAllWaypointData(ctx context.Context) (any, error) {
	t, ordered, err := s.ordered(ctx)
	if err != nil {
		return nil, err
	}
	all := make([]allData, 0, len(ordered))
	for _, o := range ordered {
		dist, gain := fromStart(t, o)
		all = append(all, allData{Ordered: o, DistanceFromStart: dist, ElevationFromStart: gain})
	}
	return all, nil
}

func (s *Service) computeCurrentLocationDistances(ctx context.Context) (any, error) {
	t, ordered, err := s.ordered(ctx)
	if err != nil {
		return nil, err
	}
	distances := make(map[string]PairStats)
	fix, ok, err := s.fixes.LatestPoint(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return distances, nil
	}

	fixIdx := -1
	if !t.Empty() {
		fixIdx, _ = geo.NearestIndex(fix, t.Points)
	}
	calculatedAt := s.now()
	for _, o := range ordered {
		dist, gain := waypoint.SegmentStats(t, fix, geo.Point{Lat: o.Lat, Lng: o.Lng}, fixIdx, o.TrackIndex)
		distances[o.ID] = PairStats{
			Distance:      geo.RoundKm(dist),
			ElevationGain: geo.RoundM(gain),
			CalculatedAt:  calculatedAt,
		}
	}
	return distances, nil
}
