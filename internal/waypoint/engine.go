package waypoint

import (
	"context"

	"backend-trailtracker/internal/trail"

	"github.com/google/uuid"
)

// EvaluateFix fires the Pending -> Completed transition for every waypoint
// whose projected index lies strictly before the runner's projected index.
// The caller guarantees the run window is active for the fix. Returns only
// the completions that actually fired; already-Completed waypoints are
// skipped, so re-delivery of the same fix is a no-op.
func (s *Service) EvaluateFix(ctx context.Context, t trail.Trail, fixIndex int, runPeriod string) ([]Completion, error) {
	waypoints, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var fired []Completion
	for _, o := range Order(t, waypoints) {
		if o.TrackIndex < 0 || fixIndex <= o.TrackIndex {
			continue
		}
		if o.IsCompleted {
			continue
		}
		c, ok, err := s.transition(ctx, o.ID, true, CompletedByAuto, runPeriod)
		if err != nil {
			return fired, err
		}
		if ok {
			fired = append(fired, c)
		}
	}
	return fired, nil
}

// MarkCompleted is the admin override into Completed. It runs through the
// same transition as the geometric check, so idempotence and the audit trail
// hold uniformly; it does not require an active run window.
func (s *Service) MarkCompleted(ctx context.Context, id, runPeriod string) (Completion, bool, error) {
	return s.transition(ctx, id, true, CompletedByAdmin, runPeriod)
}

// MarkIncomplete is the only path back to Pending.
func (s *Service) MarkIncomplete(ctx context.Context, id, runPeriod string) (Completion, bool, error) {
	return s.transition(ctx, id, false, CompletedByAdmin, runPeriod)
}

// transition re-reads the waypoint, treats an already-matching state as a
// no-op, and guards the write so racing deliveries cannot duplicate audit
// records: only the write that flips the flag inserts one.
func (s *Service) transition(ctx context.Context, id string, toCompleted bool, by, runPeriod string) (Completion, bool, error) {
	wp, err := s.Get(ctx, id)
	if err != nil {
		return Completion{}, false, err
	}
	if wp.IsCompleted == toCompleted {
		return Completion{}, false, nil
	}

	now := s.now()
	var tagged int64
	if toCompleted {
		tag, err := s.db.Exec(ctx, `
			UPDATE waypoints
			SET is_completed=true, completed_at=$2, completed_by=$3, updated_at=$2
			WHERE id=$1 AND is_completed=false
		`, id, now, by)
		if err != nil {
			return Completion{}, false, err
		}
		tagged = tag.RowsAffected()
	} else {
		tag, err := s.db.Exec(ctx, `
			UPDATE waypoints
			SET is_completed=false, completed_at=NULL, completed_by=NULL, updated_at=$2
			WHERE id=$1 AND is_completed=true
		`, id, now)
		if err != nil {
			return Completion{}, false, err
		}
		tagged = tag.RowsAffected()
	}
	if tagged == 0 {
		return Completion{}, false, nil
	}

	c := Completion{
		ID:          uuid.NewString(),
		WaypointID:  id,
		IsCompleted: toCompleted,
		CompletedAt: now,
		CompletedBy: by,
		RunPeriod:   runPeriod,
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO waypoint_completions (id, waypoint_id, is_completed, completed_at, completed_by, run_period)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, c.ID, c.WaypointID, c.IsCompleted, c.CompletedAt, c.CompletedBy, c.RunPeriod)
	if err != nil {
		return Completion{}, false, err
	}
	return c, true, nil
}
