package server

import (
	"context"

	"backend-trailtracker/internal/auth"
	"backend-trailtracker/internal/config"
	"backend-trailtracker/internal/location"
	"backend-trailtracker/internal/precompute"
	"backend-trailtracker/internal/progress"
	"backend-trailtracker/internal/shared/geo"
	"backend-trailtracker/internal/stream"
	"backend-trailtracker/internal/timeline"
	"backend-trailtracker/internal/trail"
	"backend-trailtracker/internal/waypoint"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

// latestFixSource defers the location service lookup: the precompute service
// is built before the location service, which in turn needs the precompute
// service for cache refreshes.
type latestFixSource struct {
	svc *location.Service
}

func (l *latestFixSource) LatestPoint(ctx context.Context) (geo.Point, bool, error) {
	if l.svc == nil {
		return geo.Point{}, false, nil
	}
	return l.svc.LatestPoint(ctx)
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	trailSvc := trail.NewService(s.DB)
	loader := trail.NewLoader(trailSvc, s.Cfg.TrailCacheTTL(), nil)
	timelineSvc := timeline.NewService(s.DB)
	waypointSvc := waypoint.NewService(s.DB)
	progressSvc := progress.NewService(s.DB)

	orderSource := func(ctx context.Context) ([]waypoint.Ordered, error) {
		t, err := loader.Get(ctx)
		if err != nil {
			return nil, err
		}
		waypoints, err := waypointSvc.List(ctx)
		if err != nil {
			return nil, err
		}
		return waypoint.Order(t, waypoints), nil
	}

	fixes := &latestFixSource{}
	precomputeStore := precompute.NewStore(s.Cfg.PrecomputeTTL(), nil)
	precomputeSvc := precompute.NewService(precomputeStore, loader, waypointSvc, fixes)

	locationSvc := location.NewService(s.DB, loader, timelineSvc, progressSvc,
		waypointSvc, precomputeSvc, s.Stream, s.Cfg.TrackAdherenceKm)
	fixes.svc = locationSvc

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	trail.RegisterRoutes(s.App.Group("/trail"), trailSvc, loader, jwtMiddleware)
	timeline.RegisterRoutes(s.App.Group("/timeline"), timelineSvc, waypointSvc, jwtMiddleware)
	location.RegisterRoutes(s.App.Group("/locations"), locationSvc)
	progress.RegisterRoutes(s.App.Group("/progress"), progressSvc)
	waypoint.RegisterRoutes(s.App.Group("/waypoints"), waypointSvc, orderSource, timelineSvc, precomputeSvc, jwtMiddleware)
	precompute.RegisterRoutes(s.App.Group("/precompute"), precomputeSvc, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
