package trail

import (
	"errors"
	"math"

	"backend-trailtracker/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

type pointResponse struct {
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	Elevation *float64 `json:"elevation_m"`
}

func RegisterRoutes(r fiber.Router, svc *Service, loader *Loader, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		t, err := loader.Get(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		points := make([]pointResponse, len(t.Points))
		for i, p := range t.Points {
			points[i] = pointResponse{Lat: p.Lat, Lng: p.Lng}
			if i < len(t.Elevations) && !math.IsNaN(t.Elevations[i]) {
				e := t.Elevations[i]
				points[i].Elevation = &e
			}
		}
		return c.JSON(fiber.Map{
			"points":            points,
			"point_count":       len(t.Points),
			"total_distance_km": geo.RoundKm(t.TotalDistanceKm()),
		})
	})

	r.Put("/", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Points []PointInput `json:"points"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := svc.Replace(c.Context(), body.Points); err != nil {
			if errors.Is(err, ErrTrailTooShort) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		loader.Invalidate()
		return c.JSON(fiber.Map{"point_count": len(body.Points)})
	})
}
