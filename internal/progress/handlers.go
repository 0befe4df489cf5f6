package progress

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/", func(c *fiber.Ctx) error {
		p, err := svc.Load(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if p == nil {
			// No ingest has happened yet; this is an inert result, not an error.
			return c.JSON(nil)
		}
		return c.JSON(p)
	})
}
