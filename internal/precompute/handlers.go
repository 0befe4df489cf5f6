package precompute

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/recalculate", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.RecalculateAll(c.Context()); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"recalculated": tableNames})
	})

	r.Get("/:name", func(c *fiber.Ctx) error {
		payload, err := svc.Table(c.Context(), c.Params("name"))
		if err != nil {
			if errors.Is(err, ErrUnknownTable) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Set("Content-Type", "application/json")
		return c.Send(payload)
	})
}
