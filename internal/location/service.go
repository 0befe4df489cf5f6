package location

import (
	"context"
	"errors"
	"time"

	"backend-trailtracker/internal/db"
	"backend-trailtracker/internal/progress"
	"backend-trailtracker/internal/shared/geo"
	"backend-trailtracker/internal/timeline"
	"backend-trailtracker/internal/trail"
	"backend-trailtracker/internal/waypoint"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrInvalidCoordinates = errors.New("fix requires valid lat/lng coordinates")

// TrailSource resolves the cached trail; the trail loader satisfies it.
type TrailSource interface {
	Get(ctx context.Context) (trail.Trail, error)
}

// Gate resolves whether the run window is active at a given instant.
type Gate interface {
	IsActive(ctx context.Context, now time.Time) (bool, timeline.Timeline, error)
	CurrentPeriod(ctx context.Context) string
}

// ProgressStore persists the computed snapshot.
type ProgressStore interface {
	Save(ctx context.Context, p progress.TrailProgress) error
}

// Completer runs the waypoint state machine against an accepted fix.
type Completer interface {
	EvaluateFix(ctx context.Context, t trail.Trail, fixIndex int, runPeriod string) ([]waypoint.Completion, error)
}

// Recalculator refreshes the derived-table cache after an accepted fix.
type Recalculator interface {
	RecalculateAll(ctx context.Context) error
}

// Broadcaster pushes the updated snapshot to live map clients.
type Broadcaster interface {
	BroadcastProgress(p progress.TrailProgress)
}

// Service ingests location fixes and fans the result out: durable progress
// snapshot, waypoint transitions, cache refresh, websocket broadcast.
type Service struct {
	db           db.Querier
	trails       TrailSource
	gate         Gate
	progress     ProgressStore
	completer    Completer
	recalculator Recalculator
	broadcaster  Broadcaster
	adherenceKm  float64
	now          func() time.Time
}

func NewService(db db.Querier, trails TrailSource, gate Gate, progressStore ProgressStore,
	completer Completer, recalculator Recalculator, broadcaster Broadcaster, adherenceKm float64) *Service {
	return &Service{
		db:           db,
		trails:       trails,
		gate:         gate,
		progress:     progressStore,
		completer:    completer,
		recalculator: recalculator,
		broadcaster:  broadcaster,
		adherenceKm:  adherenceKm,
		now:          time.Now,
	}
}

func validCoordinates(lat, lng float64) bool {
	if lat == 0 && lng == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Ingest validates and persists one fix, then recomputes progress against the
// run window. A persistence failure propagates; the computed result is never
// silently dropped. Cache refresh and broadcast are advisory and cannot fail
// the ingest.
func (s *Service) Ingest(ctx context.Context, fix Fix) (progress.TrailProgress, error) {
	if !validCoordinates(fix.Lat, fix.Lng) {
		return progress.TrailProgress{}, ErrInvalidCoordinates
	}

	t, err := s.trails.Get(ctx)
	if err != nil {
		return progress.TrailProgress{}, err
	}
	if t.Empty() {
		return progress.TrailProgress{}, progress.ErrEmptyTrail
	}

	fix.ID = uuid.NewString()
	if fix.Source == "" {
		fix.Source = SourceWebhook
	}
	if fix.RecordedAt.IsZero() {
		fix.RecordedAt = s.now()
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO location_fixes (id, location, elevation_m, accuracy_m, source, recorded_at)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2,$3), 4326)::geography, $4, $5, $6, $7)
	`, fix.ID, fix.Lng, fix.Lat, fix.ElevationM, fix.AccuracyM, fix.Source, fix.RecordedAt)
	if err != nil {
		return progress.TrailProgress{}, err
	}

	now := s.now()
	active, tl, err := s.gate.IsActive(ctx, now)
	if err != nil {
		return progress.TrailProgress{}, err
	}

	result, err := progress.Compute(t, fix.Point(), active, s.adherenceKm)
	if err != nil {
		return progress.TrailProgress{}, err
	}

	snapshot := progress.TrailProgress{
		CompletedDistanceKm: geo.RoundKm(result.CompletedDistanceKm),
		TotalDistanceKm:     geo.RoundKm(result.TotalDistanceKm),
		ProgressPercentage:  result.ProgressPercentage,
		NearestIndex:        result.NearestIndex,
		OffTrail:            result.OffTrail,
		LastLocation:        fix.Point(),
		CompletedSegments:   progress.SampleSegments(result.CompletedPoints),
		LastUpdated:         now,
	}
	if result.Active && !result.OffTrail {
		snapshot.ElevationGainM = geo.RoundM(geo.ElevationGainM(t.Elevations, 0, result.NearestIndex))
		snapshot.EstimatedCompletion = estimateCompletion(result, tl.StartsAt, now)
	}

	if err := s.progress.Save(ctx, snapshot); err != nil {
		return progress.TrailProgress{}, err
	}

	if result.Active && !result.OffTrail {
		if _, err := s.completer.EvaluateFix(ctx, t, result.NearestIndex, s.gate.CurrentPeriod(ctx)); err != nil {
			return progress.TrailProgress{}, err
		}
	}

	// Derived tables and the live feed are advisory; a refresh failure only
	// costs freshness, never the ingest.
	if s.recalculator != nil {
		_ = s.recalculator.RecalculateAll(ctx)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastProgress(snapshot)
	}
	return snapshot, nil
}

// estimateCompletion extrapolates the finish time from the average pace since
// the run started. Nil until there is measurable completed distance.
func estimateCompletion(result progress.Result, startedAt, now time.Time) *time.Time {
	if result.CompletedDistanceKm <= 0 || !now.After(startedAt) {
		return nil
	}
	remaining := result.TotalDistanceKm - result.CompletedDistanceKm
	if remaining <= 0 {
		return &now
	}
	elapsed := now.Sub(startedAt)
	eta := now.Add(time.Duration(float64(elapsed) * remaining / result.CompletedDistanceKm))
	return &eta
}

// Latest returns the most recent fix; found is false before the first ingest.
func (s *Service) Latest(ctx context.Context) (Fix, bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, ST_Y(location::geometry), ST_X(location::geometry),
		       elevation_m, accuracy_m, source, recorded_at
		FROM location_fixes
		ORDER BY recorded_at DESC
		LIMIT 1
	`)
	var f Fix
	if err := row.Scan(&f.ID, &f.Lat, &f.Lng, &f.ElevationM, &f.AccuracyM, &f.Source, &f.RecordedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Fix{}, false, nil
		}
		return Fix{}, false, err
	}
	return f, true, nil
}

// LatestPoint adapts Latest for the derived-table computations.
func (s *Service) LatestPoint(ctx context.Context) (geo.Point, bool, error) {
	f, found, err := s.Latest(ctx)
	if err != nil || !found {
		return geo.Point{}, false, err
	}
	return f.Point(), true, nil
}

// History returns the newest fixes first, capped at limit.
func (s *Service) History(ctx context.Context, limit int) ([]Fix, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, ST_Y(location::geometry), ST_X(location::geometry),
		       elevation_m, accuracy_m, source, recorded_at
		FROM location_fixes
		ORDER BY recorded_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fixes []Fix
	for rows.Next() {
		var f Fix
		if err := rows.Scan(&f.ID, &f.Lat, &f.Lng, &f.ElevationM, &f.AccuracyM, &f.Source, &f.RecordedAt); err != nil {
			return nil, err
		}
		fixes = append(fixes, f)
	}
	return fixes, nil
}
