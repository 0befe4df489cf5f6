package progress

import (
	"context"
	"encoding/json"
	"errors"

	"backend-trailtracker/internal/db"

	"github.com/jackc/pgx/v5"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Save upserts the single live progress row. A write failure propagates to
// the ingest caller; the computed result is never silently dropped.
func (s *Service) Save(ctx context.Context, p TrailProgress) error {
	segments, err := json.Marshal(p.CompletedSegments)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO trail_progress (id, completed_distance_km, total_distance_km, progress_percentage,
		                            elevation_gain_m, nearest_index, off_trail, location,
		                            completed_segments, estimated_completion, last_updated)
		VALUES (1, $1, $2, $3, $4, $5, $6, ST_SetSRID(ST_MakePoint($7,$8), 4326)::geography, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE
		SET completed_distance_km=EXCLUDED.completed_distance_km,
		    total_distance_km=EXCLUDED.total_distance_km,
		    progress_percentage=EXCLUDED.progress_percentage,
		    elevation_gain_m=EXCLUDED.elevation_gain_m,
		    nearest_index=EXCLUDED.nearest_index,
		    off_trail=EXCLUDED.off_trail,
		    location=EXCLUDED.location,
		    completed_segments=EXCLUDED.completed_segments,
		    estimated_completion=EXCLUDED.estimated_completion,
		    last_updated=EXCLUDED.last_updated
	`, p.CompletedDistanceKm, p.TotalDistanceKm, p.ProgressPercentage,
		p.ElevationGainM, p.NearestIndex, p.OffTrail, p.LastLocation.Lng, p.LastLocation.Lat,
		segments, p.EstimatedCompletion, p.LastUpdated)
	return err
}

// Load returns the stored snapshot, or nil before the first ingest.
func (s *Service) Load(ctx context.Context) (*TrailProgress, error) {
	row := s.db.QueryRow(ctx, `
		SELECT completed_distance_km, total_distance_km, progress_percentage, elevation_gain_m,
		       nearest_index, off_trail, ST_Y(location::geometry), ST_X(location::geometry),
		       completed_segments, estimated_completion, last_updated
		FROM trail_progress WHERE id=1
	`)
	var p TrailProgress
	var segments []byte
	err := row.Scan(&p.CompletedDistanceKm, &p.TotalDistanceKm, &p.ProgressPercentage, &p.ElevationGainM,
		&p.NearestIndex, &p.OffTrail, &p.LastLocation.Lat, &p.LastLocation.Lng,
		&segments, &p.EstimatedCompletion, &p.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(segments, &p.CompletedSegments); err != nil {
		return nil, err
	}
	return &p, nil
}
