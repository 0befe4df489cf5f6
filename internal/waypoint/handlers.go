package waypoint

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
)

// PeriodSource resolves the live run period tag; empty when no timeline is
// set.
type PeriodSource interface {
	CurrentPeriod(ctx context.Context) string
}

// DerivedTables serves the cached positions/distances payloads.
type DerivedTables interface {
	WaypointPositions(ctx context.Context) (json.RawMessage, error)
	WaypointDistances(ctx context.Context) (json.RawMessage, error)
}

// OrderSource resolves the current trail and returns waypoints sorted by
// projected index.
type OrderSource func(ctx context.Context) ([]Ordered, error)

func RegisterRoutes(r fiber.Router, svc *Service, orderSource OrderSource, periods PeriodSource, tables DerivedTables, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		waypoints, err := svc.List(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(waypoints)
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Waypoint
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name required")
		}
		wp, err := svc.Create(c.Context(), req)
		if err != nil {
			if errors.Is(err, ErrInvalidType) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(wp)
	})

	r.Get("/ordered", func(c *fiber.Ctx) error {
		ordered, err := orderSource(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(ordered)
	})

	r.Get("/positions", func(c *fiber.Ctx) error {
		payload, err := tables.WaypointPositions(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Set("Content-Type", "application/json")
		return c.Send(payload)
	})

	r.Get("/distances", func(c *fiber.Ctx) error {
		payload, err := tables.WaypointDistances(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Set("Content-Type", "application/json")
		return c.Send(payload)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		wp, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "waypoint not found")
		}
		return c.JSON(wp)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req Waypoint
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		wp, err := svc.Update(c.Context(), c.Params("id"), req)
		if err != nil {
			if errors.Is(err, ErrInvalidType) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(wp)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/complete", authMiddleware, func(c *fiber.Ctx) error {
		completion, fired, err := svc.MarkCompleted(c.Context(), c.Params("id"), periods.CurrentPeriod(c.Context()))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"fired": fired, "completion": completionOrNil(completion, fired)})
	})

	r.Post("/:id/incomplete", authMiddleware, func(c *fiber.Ctx) error {
		completion, fired, err := svc.MarkIncomplete(c.Context(), c.Params("id"), periods.CurrentPeriod(c.Context()))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"fired": fired, "completion": completionOrNil(completion, fired)})
	})
}

func completionOrNil(c Completion, fired bool) any {
	if !fired {
		return nil
	}
	return c
}
