package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"
	temporallog "go.temporal.io/sdk/log"

	"github.com/samirrijal/placemap/internal/adapters/auth"
	"github.com/samirrijal/placemap/internal/adapters/http"
	"github.com/samirrijal/placemap/internal/adapters/imagehost"
	"github.com/samirrijal/placemap/internal/adapters/memcache"
	"github.com/samirrijal/placemap/internal/adapters/memory"
	natsadapter "github.com/samirrijal/placemap/internal/adapters/nats"
	"github.com/samirrijal/placemap/internal/adapters/postgres"
	temporaladapter "github.com/samirrijal/placemap/internal/adapters/temporal"
	"github.com/samirrijal/placemap/internal/adapters/valkey"
	"github.com/samirrijal/placemap/internal/core/ports"
	"github.com/samirrijal/placemap/internal/core/usecases"
	"github.com/samirrijal/placemap/internal/pkg/config"
	"github.com/samirrijal/placemap/internal/pkg/logging"
	"github.com/samirrijal/placemap/internal/pkg/metrics"
	"github.com/samirrijal/placemap/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("placemap-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{}

	// Spatial store
	var (
		places   ports.PlaceRepository
		users    ports.UserRepository
		distance ports.DistanceCalculator
	)
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		slog.Warn("using in-memory store, data is lost on restart")
		store := memory.New()
		places, users = store.Places(), store.Users()
	default:
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		places, users = postgres.NewPlaceRepo(db), postgres.NewUserRepo(db)
		distance = postgres.NewDistanceCalculator(db)
		deps.DB = db
		go reportPoolStats(ctx, db)
	}

	// Cache: Valkey when reachable, otherwise in-process
	var cache ports.CacheService
	if vc, err := valkey.New(ctx, cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable, falling back to in-process cache", "error", err)
		cache = memcache.New(10*time.Minute, 5*time.Minute)
	} else {
		defer vc.Close()
		cache = vc
		deps.Cache = vc
	}

	// NATS
	var events ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, events disabled", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	// Raw NATS connection for WebSocket relay
	if nc, err := natsadapter.RawConn(cfg.NATS.URL); err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer nc.Close()
		deps.NATS = nc
	}

	// Avatars
	var (
		images  ports.ImageHost
		janitor ports.AssetJanitor
	)
	if cfg.ImageHost.Enabled() {
		host := imagehost.New(imagehost.Config{
			UploadURL:  cfg.ImageHost.UploadURL,
			APIURL:     cfg.ImageHost.APIURL,
			PrivateKey: cfg.ImageHost.PrivateKey,
			Folder:     cfg.ImageHost.Folder,
		}, nil)
		images = host
		janitor = imagehost.InlineJanitor{Images: host}

		if cfg.Temporal.Enabled {
			tc, err := client.Dial(client.Options{
				HostPort:  cfg.Temporal.HostPort,
				Namespace: cfg.Temporal.Namespace,
				Logger:    temporallog.NewStructuredLogger(slog.Default()),
			})
			if err != nil {
				slog.Warn("temporal unavailable, deleting replaced avatars inline", "error", err)
			} else {
				defer tc.Close()
				janitor = temporaladapter.NewJanitor(tc, cfg.Temporal.TaskQueue)
			}
		}
	}

	// Use cases
	engine := usecases.NewProximityEngine(distance, cache)
	deps.Places = usecases.NewPlaceService(places, engine, cache, events)
	deps.Users = usecases.NewUserService(users, engine, images, janitor, events)
	deps.Auth = usecases.NewAuthService(users,
		auth.BcryptHasher{Cost: cfg.Auth.BcryptCost},
		auth.NewJWTIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour),
		events,
	)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    imagehost.MaxUploadBytes + 1024*1024, // avatar plus multipart overhead
		AppName:      "Placemap API",
	})
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${latency} ${method} ${path} ${locals:requestid}\n",
		Output: os.Stderr,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps, http.DefaultRouterOptions)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "storage", cfg.Storage.Driver)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// reportPoolStats refreshes the pgx pool gauges until ctx is done.
func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s := db.Stat(); s != nil {
				metrics.UpdateDBPoolMetrics(s)
			}
		}
	}
}
