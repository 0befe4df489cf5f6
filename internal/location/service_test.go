package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend-trailtracker/internal/progress"
	"backend-trailtracker/internal/shared/geo"
	"backend-trailtracker/internal/timeline"
	"backend-trailtracker/internal/trail"
	"backend-trailtracker/internal/waypoint"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func testTrail() trail.Trail {
	return trail.Trail{
		Points: []geo.Point{
			{Lat: 44.00, Lng: 26.00}, {Lat: 44.05, Lng: 26.05}, {Lat: 44.10, Lng: 26.10},
			{Lat: 44.15, Lng: 26.15}, {Lat: 44.20, Lng: 26.20},
		},
		Elevations: []float64{800, 900, 850, 1000, 950},
	}
}

type fakeTrails struct {
	t   trail.Trail
	err error
}

func (f fakeTrails) Get(_ context.Context) (trail.Trail, error) { return f.t, f.err }

type fakeGate struct {
	active bool
	tl     timeline.Timeline
	period string
}

func (f fakeGate) IsActive(_ context.Context, _ time.Time) (bool, timeline.Timeline, error) {
	return f.active, f.tl, nil
}

func (f fakeGate) CurrentPeriod(_ context.Context) string { return f.period }

type fakeProgressStore struct {
	saved []progress.TrailProgress
	err   error
}

func (f *fakeProgressStore) Save(_ context.Context, p progress.TrailProgress) error {
	f.saved = append(f.saved, p)
	return f.err
}

type fakeCompleter struct {
	fixIndexes []int
	periods    []string
}

func (f *fakeCompleter) EvaluateFix(_ context.Context, _ trail.Trail, fixIndex int, runPeriod string) ([]waypoint.Completion, error) {
	f.fixIndexes = append(f.fixIndexes, fixIndex)
	f.periods = append(f.periods, runPeriod)
	return nil, nil
}

type fakeRecalculator struct{ calls int }

func (f *fakeRecalculator) RecalculateAll(_ context.Context) error {
	f.calls++
	return errors.New("cache down")
}

type fakeBroadcaster struct{ snapshots []progress.TrailProgress }

func (f *fakeBroadcaster) BroadcastProgress(p progress.TrailProgress) {
	f.snapshots = append(f.snapshots, p)
}

func expectFixInsert(mock pgxmock.PgxPoolIface, lng, lat float64) {
	mock.ExpectExec(`INSERT INTO location_fixes`).
		WithArgs(pgxmock.AnyArg(), lng, lat, (*float64)(nil), (*float64)(nil), SourceWebhook, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
}

func activeGate() fakeGate {
	return fakeGate{
		active: true,
		tl:     timeline.Timeline{ID: "tl-1", StartsAt: time.Now().Add(-time.Hour)},
		period: "tl-1",
	}
}

func TestIngestActiveOnTrail(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()
	expectFixInsert(mock, 26.10, 44.10)

	store := &fakeProgressStore{}
	completer := &fakeCompleter{}
	recalc := &fakeRecalculator{}
	broadcaster := &fakeBroadcaster{}
	svc := NewService(mock, fakeTrails{t: testTrail()}, activeGate(), store, completer, recalc, broadcaster, 5.0)

	snapshot, err := svc.Ingest(context.Background(), Fix{Lat: 44.10, Lng: 26.10})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if snapshot.NearestIndex != 2 || snapshot.OffTrail {
		t.Fatalf("expected on-trail projection to index 2, got %+v", snapshot)
	}
	if snapshot.CompletedDistanceKm <= 0 || snapshot.ProgressPercentage <= 0 {
		t.Fatalf("expected measurable progress")
	}
	// 800->900 over (0,2]; the 900->850 drop is ignored.
	if snapshot.ElevationGainM != 100 {
		t.Fatalf("expected 100 m gain, got %v", snapshot.ElevationGainM)
	}
	if snapshot.EstimatedCompletion == nil {
		t.Fatalf("expected an estimated completion with measurable pace")
	}
	if len(snapshot.CompletedSegments) != 3 {
		t.Fatalf("expected 3 completed segments, got %d", len(snapshot.CompletedSegments))
	}

	if len(store.saved) != 1 {
		t.Fatalf("expected one save")
	}
	if len(completer.fixIndexes) != 1 || completer.fixIndexes[0] != 2 || completer.periods[0] != "tl-1" {
		t.Fatalf("expected waypoint evaluation at index 2 for tl-1")
	}
	// The cache refresh failed but the ingest must not.
	if recalc.calls != 1 {
		t.Fatalf("expected cache refresh attempt")
	}
	if len(broadcaster.snapshots) != 1 {
		t.Fatalf("expected broadcast")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestIngestInactiveTimeline(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()
	expectFixInsert(mock, 26.10, 44.10)

	store := &fakeProgressStore{}
	completer := &fakeCompleter{}
	svc := NewService(mock, fakeTrails{t: testTrail()}, fakeGate{}, store, completer, nil, nil, 5.0)

	snapshot, err := svc.Ingest(context.Background(), Fix{Lat: 44.10, Lng: 26.10})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if snapshot.CompletedDistanceKm != 0 || snapshot.ProgressPercentage != 0 || snapshot.NearestIndex != -1 {
		t.Fatalf("expected inert zero snapshot, got %+v", snapshot)
	}
	if snapshot.EstimatedCompletion != nil {
		t.Fatalf("expected no estimate outside the window")
	}
	if len(completer.fixIndexes) != 0 {
		t.Fatalf("fixes outside the window must not touch waypoints")
	}
	if len(store.saved) != 1 {
		t.Fatalf("the frozen snapshot is still persisted")
	}
}

func TestIngestOffTrail(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()
	mock.ExpectExec(`INSERT INTO location_fixes`).
		WithArgs(pgxmock.AnyArg(), 28.0, 46.0, (*float64)(nil), (*float64)(nil), SourceWebhook, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	store := &fakeProgressStore{}
	completer := &fakeCompleter{}
	svc := NewService(mock, fakeTrails{t: testTrail()}, activeGate(), store, completer, nil, nil, 5.0)

	snapshot, err := svc.Ingest(context.Background(), Fix{Lat: 46.0, Lng: 28.0})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !snapshot.OffTrail || snapshot.CompletedDistanceKm != 0 {
		t.Fatalf("expected off-trail zero progress, got %+v", snapshot)
	}
	if snapshot.TotalDistanceKm <= 0 {
		t.Fatalf("total distance is still reported off-trail")
	}
	if len(completer.fixIndexes) != 0 {
		t.Fatalf("off-trail fixes must not touch waypoints")
	}
}

func TestIngestInvalidCoordinates(t *testing.T) {
	svc := NewService(nil, fakeTrails{t: testTrail()}, fakeGate{}, nil, nil, nil, nil, 5.0)

	cases := []Fix{
		{},
		{Lat: 91, Lng: 26},
		{Lat: 44, Lng: 181},
	}
	for _, fix := range cases {
		if _, err := svc.Ingest(context.Background(), fix); !errors.Is(err, ErrInvalidCoordinates) {
			t.Fatalf("expected ErrInvalidCoordinates for %+v, got %v", fix, err)
		}
	}
}

func TestIngestEmptyTrail(t *testing.T) {
	svc := NewService(nil, fakeTrails{}, fakeGate{}, nil, nil, nil, nil, 5.0)
	if _, err := svc.Ingest(context.Background(), Fix{Lat: 44.1, Lng: 26.1}); !errors.Is(err, progress.ErrEmptyTrail) {
		t.Fatalf("expected ErrEmptyTrail, got %v", err)
	}
}

func TestIngestSaveFailurePropagates(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()
	expectFixInsert(mock, 26.10, 44.10)

	saveErr := errors.New("disk full")
	store := &fakeProgressStore{err: saveErr}
	svc := NewService(mock, fakeTrails{t: testTrail()}, activeGate(), store, &fakeCompleter{}, nil, nil, 5.0)

	if _, err := svc.Ingest(context.Background(), Fix{Lat: 44.10, Lng: 26.10}); !errors.Is(err, saveErr) {
		t.Fatalf("expected persistence failure to propagate, got %v", err)
	}
}

func fixRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "lat", "lng", "elevation_m", "accuracy_m", "source", "recorded_at"})
}

func TestLatest(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, ST_Y\(location::geometry\), ST_X\(location::geometry\),`).
		WillReturnRows(fixRows().AddRow("fix-1", 44.1, 26.1, (*float64)(nil), (*float64)(nil), SourceManual, now))

	svc := NewService(mock, nil, nil, nil, nil, nil, nil, 5.0)
	fix, found, err := svc.Latest(context.Background())
	if err != nil || !found {
		t.Fatalf("latest: %v", err)
	}
	if fix.ID != "fix-1" || fix.Source != SourceManual {
		t.Fatalf("unexpected fix %+v", fix)
	}
	if point := fix.Point(); point.Lat != 44.1 || point.Lng != 26.1 {
		t.Fatalf("unexpected point %v", point)
	}
}

func TestLatestNone(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, ST_Y\(location::geometry\), ST_X\(location::geometry\),`).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT id, ST_Y\(location::geometry\), ST_X\(location::geometry\),`).
		WillReturnError(pgx.ErrNoRows)

	svc := NewService(mock, nil, nil, nil, nil, nil, nil, 5.0)
	_, found, err := svc.Latest(context.Background())
	if err != nil || found {
		t.Fatalf("expected not found, nil error")
	}
	if _, found, err := svc.LatestPoint(context.Background()); err != nil || found {
		t.Fatalf("expected LatestPoint not found, nil error")
	}
}

func TestHistory(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, ST_Y\(location::geometry\), ST_X\(location::geometry\),`).
		WithArgs(2).
		WillReturnRows(fixRows().
			AddRow("fix-2", 44.2, 26.2, (*float64)(nil), (*float64)(nil), SourceWebhook, now).
			AddRow("fix-1", 44.1, 26.1, (*float64)(nil), (*float64)(nil), SourceWebhook, now.Add(-time.Minute)))

	svc := NewService(mock, nil, nil, nil, nil, nil, nil, 5.0)
	fixes, err := svc.History(context.Background(), 2)
	if err != nil || len(fixes) != 2 {
		t.Fatalf("history: %v", err)
	}
	if fixes[0].ID != "fix-2" {
		t.Fatalf("expected newest first")
	}
}
