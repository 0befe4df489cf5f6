package trail

import (
	"context"
	"errors"

	"backend-trailtracker/internal/db"
	"backend-trailtracker/internal/shared/geo"
)

var ErrTrailTooShort = errors.New("trail needs at least 2 points")

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Load reads the full ordered polyline. Null elevations come back as NaN so
// the geometry kernel can skip them.
func (s *Service) Load(ctx context.Context) (Trail, error) {
	rows, err := s.db.Query(ctx, `
		SELECT ST_Y(location::geometry), ST_X(location::geometry), elevation_m
		FROM trail_points
		ORDER BY seq
	`)
	if err != nil {
		return Trail{}, err
	}
	defer rows.Close()

	var t Trail
	for rows.Next() {
		var lat, lng float64
		var elevation *float64
		if err := rows.Scan(&lat, &lng, &elevation); err != nil {
			return Trail{}, err
		}
		t.Points = append(t.Points, geo.Point{Lat: lat, Lng: lng})
		t.Elevations = append(t.Elevations, elevationValue(elevation))
	}
	return t, nil
}

// Replace swaps the stored polyline for a new one. The old trail is removed
// first so seq numbering restarts at 0.
func (s *Service) Replace(ctx context.Context, points []PointInput) error {
	if len(points) < 2 {
		return ErrTrailTooShort
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM trail_points`); err != nil {
		return err
	}
	for i, p := range points {
		_, err := s.db.Exec(ctx, `
			INSERT INTO trail_points (seq, location, elevation_m)
			VALUES ($1, ST_SetSRID(ST_MakePoint($2,$3), 4326)::geography, $4)
		`, i, p.Lng, p.Lat, p.Elevation)
		if err != nil {
			return err
		}
	}
	return nil
}
