package location

import (
	"errors"
	"strconv"

	"backend-trailtracker/internal/progress"

	"github.com/gofiber/fiber/v2"
)

const defaultHistoryLimit = 100

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/", func(c *fiber.Ctx) error {
		var fix Fix
		if err := c.BodyParser(&fix); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		snapshot, err := svc.Ingest(c.Context(), fix)
		if err != nil {
			if errors.Is(err, ErrInvalidCoordinates) || errors.Is(err, progress.ErrEmptyTrail) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(snapshot)
	})

	r.Get("/latest", func(c *fiber.Ctx) error {
		fix, found, err := svc.Latest(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if !found {
			return c.JSON(nil)
		}
		return c.JSON(fix)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultHistoryLimit)))
		if err != nil || limit <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be a positive integer")
		}
		fixes, err := svc.History(c.Context(), limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fixes)
	})
}
