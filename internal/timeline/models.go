package timeline

import "time"

// Timeline is the scheduled run window. Only one timeline is live at a time;
// its ID doubles as the run period tag on completion audit records.
type Timeline struct {
	ID         string    `json:"id"`
	StartsAt   time.Time `json:"starts_at"`
	FinishesAt time.Time `json:"finishes_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Active reports whether now falls inside the window, inclusive on both ends.
func (t Timeline) Active(now time.Time) bool {
	return !now.Before(t.StartsAt) && !now.After(t.FinishesAt)
}

// SetRequest carries the admin wall-clock bounds as separate date and time
// fields, the shape the map front-end submits.
type SetRequest struct {
	StartDate  string `json:"start_date"`
	StartTime  string `json:"start_time"`
	FinishDate string `json:"finish_date"`
	FinishTime string `json:"finish_time"`
}
