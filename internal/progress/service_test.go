package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend-trailtracker/internal/shared/geo"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

var errProgress = errors.New("progress error")

func snapshot() TrailProgress {
	return TrailProgress{
		CompletedDistanceKm: 12.34,
		TotalDistanceKm:     56.78,
		ProgressPercentage:  21.73,
		ElevationGainM:      450,
		NearestIndex:        17,
		LastLocation:        geo.Point{Lat: 44.1, Lng: 26.1},
		CompletedSegments:   []geo.Point{{Lat: 44.0, Lng: 26.0}, {Lat: 44.1, Lng: 26.1}},
		LastUpdated:         time.Now(),
	}
}

func TestSave(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	p := snapshot()
	mock.ExpectExec(`INSERT INTO trail_progress`).
		WithArgs(p.CompletedDistanceKm, p.TotalDistanceKm, p.ProgressPercentage,
			p.ElevationGainM, p.NearestIndex, p.OffTrail, p.LastLocation.Lng, p.LastLocation.Lat,
			pgxmock.AnyArg(), p.EstimatedCompletion, p.LastUpdated).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService(mock)
	if err := svc.Save(context.Background(), p); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO trail_progress`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errProgress)

	svc := NewService(mock)
	if err := svc.Save(context.Background(), snapshot()); err == nil {
		t.Fatalf("expected persistence failure to propagate")
	}
}

func TestLoad(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT completed_distance_km, total_distance_km, progress_percentage`).
		WillReturnRows(pgxmock.NewRows([]string{
			"completed_distance_km", "total_distance_km", "progress_percentage", "elevation_gain_m",
			"nearest_index", "off_trail", "lat", "lng", "completed_segments", "estimated_completion", "last_updated",
		}).AddRow(12.34, 56.78, 21.73, 450.0, 17, false, 44.1, 26.1,
			[]byte(`[{"lat":44.0,"lng":26.0}]`), (*time.Time)(nil), time.Now()))

	svc := NewService(mock)
	p, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p == nil || p.CompletedDistanceKm != 12.34 || len(p.CompletedSegments) != 1 {
		t.Fatalf("unexpected snapshot")
	}
}

func TestLoadNoRow(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT completed_distance_km, total_distance_km, progress_percentage`).
		WillReturnError(pgx.ErrNoRows)

	svc := NewService(mock)
	p, err := svc.Load(context.Background())
	if err != nil || p != nil {
		t.Fatalf("expected nil snapshot without error, got %v %v", p, err)
	}
}

func TestLoadError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT completed_distance_km, total_distance_km, progress_percentage`).
		WillReturnError(errProgress)

	svc := NewService(mock)
	if _, err := svc.Load(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
