package location

import (
	"time"

	"backend-trailtracker/internal/shared/geo"
)

const (
	SourceWebhook = "webhook"
	SourceManual  = "manual"
)

// Fix is one accepted GPS sample from the tracker webhook or a manual test
// input. Accuracy and elevation are optional; the trail's own elevation
// series drives the gain math, not the fix.
type Fix struct {
	ID         string    `json:"id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	ElevationM *float64  `json:"elevation_m"`
	AccuracyM  *float64  `json:"accuracy_m"`
	Source     string    `json:"source"`
	RecordedAt time.Time `json:"recorded_at"`
}

func (f Fix) Point() geo.Point {
	return geo.Point{Lat: f.Lat, Lng: f.Lng}
}
