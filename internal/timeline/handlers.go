package timeline

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

// CompletionClearer wipes waypoint completion records; wired to the waypoint
// service so clearing stays an explicit admin step tied to timeline changes.
type CompletionClearer interface {
	ClearCompletions(ctx context.Context) error
}

func RegisterRoutes(r fiber.Router, svc *Service, clearer CompletionClearer, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		t, found, err := svc.Get(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if !found {
			return c.JSON(fiber.Map{"timeline": nil, "active": false})
		}
		return c.JSON(fiber.Map{"timeline": t, "active": t.Active(time.Now())})
	})

	r.Put("/", authMiddleware, func(c *fiber.Ctx) error {
		var req SetRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		t, err := svc.Set(c.Context(), req)
		if err != nil {
			if errors.Is(err, ErrInvalidBounds) || errors.Is(err, ErrFinishBeforeStart) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(t)
	})

	r.Delete("/", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Clear(c.Context()); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Delete("/completions", authMiddleware, func(c *fiber.Ctx) error {
		if err := clearer.ClearCompletions(c.Context()); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
