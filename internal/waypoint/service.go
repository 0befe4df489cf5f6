package waypoint

import (
	"context"
	"errors"
	"time"

	"backend-trailtracker/internal/db"

	"github.com/google/uuid"
)

var ErrInvalidType = errors.New("type must be intermediary or finishStart")

type Service struct {
	db  db.Querier
	now func() time.Time
}

func NewService(db db.Querier) *Service {
	return &Service{db: db, now: time.Now}
}

func validType(t string) bool {
	return t == TypeIntermediary || t == TypeFinishStart
}

func (s *Service) Create(ctx context.Context, input Waypoint) (Waypoint, error) {
	if input.Type == "" {
		input.Type = TypeIntermediary
	}
	if !validType(input.Type) {
		return Waypoint{}, ErrInvalidType
	}
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO waypoints (id, name, type, location)
		VALUES ($1,$2,$3, ST_SetSRID(ST_MakePoint($4,$5), 4326)::geography)
		RETURNING created_at, updated_at
	`, input.ID, input.Name, input.Type, input.Lng, input.Lat)
	if err := row.Scan(&input.CreatedAt, &input.UpdatedAt); err != nil {
		return Waypoint{}, err
	}
	return input, nil
}

func (s *Service) Update(ctx context.Context, id string, patch Waypoint) (Waypoint, error) {
	wp, err := s.Get(ctx, id)
	if err != nil {
		return Waypoint{}, err
	}
	if patch.Name != "" {
		wp.Name = patch.Name
	}
	if patch.Type != "" {
		if !validType(patch.Type) {
			return Waypoint{}, ErrInvalidType
		}
		wp.Type = patch.Type
	}
	if patch.Lat != 0 {
		wp.Lat = patch.Lat
	}
	if patch.Lng != 0 {
		wp.Lng = patch.Lng
	}

	wp.UpdatedAt = s.now()
	_, err = s.db.Exec(ctx, `
		UPDATE waypoints
		SET name=$2, type=$3,
		    location=ST_SetSRID(ST_MakePoint($4,$5), 4326)::geography,
		    updated_at=$6
		WHERE id=$1
	`, wp.ID, wp.Name, wp.Type, wp.Lng, wp.Lat, wp.UpdatedAt)
	if err != nil {
		return Waypoint{}, err
	}
	return wp, nil
}

func (s *Service) Get(ctx context.Context, id string) (Waypoint, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, type, ST_Y(location::geometry), ST_X(location::geometry),
		       is_completed, completed_at, COALESCE(completed_by,''), created_at, updated_at
		FROM waypoints WHERE id=$1
	`, id)
	var wp Waypoint
	if err := row.Scan(&wp.ID, &wp.Name, &wp.Type, &wp.Lat, &wp.Lng,
		&wp.IsCompleted, &wp.CompletedAt, &wp.CompletedBy, &wp.CreatedAt, &wp.UpdatedAt); err != nil {
		return Waypoint{}, err
	}
	return wp, nil
}

// List returns all waypoints in creation order, the input order that stable
// ordering preserves for index ties.
func (s *Service) List(ctx context.Context) ([]Waypoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, type, ST_Y(location::geometry), ST_X(location::geometry),
		       is_completed, completed_at, COALESCE(completed_by,''), created_at, updated_at
		FROM waypoints
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var waypoints []Waypoint
	for rows.Next() {
		var wp Waypoint
		if err := rows.Scan(&wp.ID, &wp.Name, &wp.Type, &wp.Lat, &wp.Lng,
			&wp.IsCompleted, &wp.CompletedAt, &wp.CompletedBy, &wp.CreatedAt, &wp.UpdatedAt); err != nil {
			return nil, err
		}
		waypoints = append(waypoints, wp)
	}
	return waypoints, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM waypoints WHERE id=$1`, id)
	return err
}

// ClearCompletions wipes the audit trail and resets every waypoint to
// Pending. This is the deliberate manual step after an old run; setting a new
// timeline never does it implicitly.
func (s *Service) ClearCompletions(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM waypoint_completions`); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `
		UPDATE waypoints
		SET is_completed=false, completed_at=NULL, completed_by=NULL, updated_at=$1
	`, s.now())
	return err
}
