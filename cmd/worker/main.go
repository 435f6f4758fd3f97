package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	temporallog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/placemap/internal/adapters/imagehost"
	"github.com/samirrijal/placemap/internal/adapters/postgres"
	"github.com/samirrijal/placemap/internal/pkg/config"
	"github.com/samirrijal/placemap/internal/pkg/logging"
	"github.com/samirrijal/placemap/internal/workflows"
)

func main() {
	cfg, err := config.Load("placemap-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	if !cfg.ImageHost.Enabled() {
		log.Fatal("imagehost.upload_url is not set; there is nothing to clean up")
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    temporallog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.AssetCleanupWorkflow)
	w.RegisterActivity(&workflows.AssetActivities{
		Images: imagehost.New(imagehost.Config{
			UploadURL:  cfg.ImageHost.UploadURL,
			APIURL:     cfg.ImageHost.APIURL,
			PrivateKey: cfg.ImageHost.PrivateKey,
			Folder:     cfg.ImageHost.Folder,
		}, nil),
		Users: postgres.NewUserRepo(db),
	})

	slog.Info("asset cleanup worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
