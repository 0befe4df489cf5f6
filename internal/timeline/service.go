package timeline

import (
	"context"
	"errors"
	"time"

	"backend-trailtracker/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrInvalidBounds     = errors.New("start and finish must be valid timestamps")
	ErrFinishBeforeStart = errors.New("finish must be after start")
)

const boundLayout = "2006-01-02 15:04"

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Set replaces the live run window. The previous window is removed rather
// than updated; completions recorded under it are kept (clearing them is an
// explicit separate admin action).
func (s *Service) Set(ctx context.Context, req SetRequest) (Timeline, error) {
	startsAt, err := time.Parse(boundLayout, req.StartDate+" "+req.StartTime)
	if err != nil {
		return Timeline{}, ErrInvalidBounds
	}
	finishesAt, err := time.Parse(boundLayout, req.FinishDate+" "+req.FinishTime)
	if err != nil {
		return Timeline{}, ErrInvalidBounds
	}
	if !finishesAt.After(startsAt) {
		return Timeline{}, ErrFinishBeforeStart
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM run_timelines`); err != nil {
		return Timeline{}, err
	}

	t := Timeline{ID: uuid.NewString(), StartsAt: startsAt, FinishesAt: finishesAt}
	row := s.db.QueryRow(ctx, `
		INSERT INTO run_timelines (id, starts_at, finishes_at)
		VALUES ($1,$2,$3)
		RETURNING created_at
	`, t.ID, t.StartsAt, t.FinishesAt)
	if err := row.Scan(&t.CreatedAt); err != nil {
		return Timeline{}, err
	}
	return t, nil
}

// Get returns the live timeline; found is false when no window is set.
func (s *Service) Get(ctx context.Context) (Timeline, bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, starts_at, finishes_at, created_at
		FROM run_timelines
		ORDER BY created_at DESC
		LIMIT 1
	`)
	var t Timeline
	if err := row.Scan(&t.ID, &t.StartsAt, &t.FinishesAt, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Timeline{}, false, nil
		}
		return Timeline{}, false, err
	}
	return t, true, nil
}

// Clear removes the run window entirely; all automatic progress and
// completion logic goes inert until a new one is set.
func (s *Service) Clear(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DELETE FROM run_timelines`)
	return err
}

// CurrentPeriod returns the live timeline's ID as the run period tag for
// completion audit records; empty when no window is set or lookup fails.
func (s *Service) CurrentPeriod(ctx context.Context) string {
	t, found, err := s.Get(ctx)
	if err != nil || !found {
		return ""
	}
	return t.ID
}

// IsActive resolves the gate for a given instant. No timeline means inactive,
// never an error.
func (s *Service) IsActive(ctx context.Context, now time.Time) (bool, Timeline, error) {
	t, found, err := s.Get(ctx)
	if err != nil {
		return false, Timeline{}, err
	}
	if !found {
		return false, Timeline{}, nil
	}
	return t.Active(now), t, nil
}
