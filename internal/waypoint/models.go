package waypoint

import (
	"time"

	"backend-trailtracker/internal/shared/geo"
)

const (
	TypeIntermediary = "intermediary"
	TypeFinishStart  = "finishStart"

	CompletedByAuto  = "auto"
	CompletedByAdmin = "admin"
)

// Waypoint is an admin-defined point of interest anchored to trail
// coordinates. It never stores a trail index; that is projected on demand so
// a trail replacement cannot leave stale anchors behind.
type Waypoint struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	Lat         float64    `json:"lat"`
	Lng         float64    `json:"lng"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CompletedBy string     `json:"completed_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Completion is one append-only audit record of a state transition, tagged
// with the run period that produced it.
type Completion struct {
	ID          string    `json:"id"`
	WaypointID  string    `json:"waypoint_id"`
	IsCompleted bool      `json:"is_completed"`
	CompletedAt time.Time `json:"completed_at"`
	CompletedBy string    `json:"completed_by"`
	RunPeriod   string    `json:"run_period"`
}

// Ordered is a waypoint with its projected position along the trail.
type Ordered struct {
	Waypoint
	TrackIndex        int       `json:"track_index"`
	DistanceToTrailKm float64   `json:"distance_to_trail_km"`
	ClosestTrackPoint geo.Point `json:"closest_track_point"`
}
