package progress

import (
	"time"

	"backend-trailtracker/internal/shared/geo"
)

// TrailProgress is the durable snapshot consumers read from the map display.
// Distances are rounded to 2 decimals, the percentage is left at full
// precision for the caller to format.
type TrailProgress struct {
	CompletedDistanceKm float64     `json:"completed_distance_km"`
	TotalDistanceKm     float64     `json:"total_distance_km"`
	ProgressPercentage  float64     `json:"progress_percentage"`
	ElevationGainM      float64     `json:"elevation_gain_m"`
	NearestIndex        int         `json:"nearest_index"`
	OffTrail            bool        `json:"off_trail"`
	LastLocation        geo.Point   `json:"last_location"`
	CompletedSegments   []geo.Point `json:"completed_segments"`
	EstimatedCompletion *time.Time  `json:"estimated_completion"`
	LastUpdated         time.Time   `json:"last_updated"`
}
