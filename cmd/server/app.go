package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasktrack-api/internal/clock"
	"github.com/phrazzld/tasktrack-api/internal/config"
	"github.com/phrazzld/tasktrack-api/internal/notification"
	"github.com/phrazzld/tasktrack-api/internal/platform/storage"
	"github.com/phrazzld/tasktrack-api/internal/service"
	"github.com/phrazzld/tasktrack-api/internal/service/auth"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// application holds the shared dependencies of a running server so they
// can be wired once and released together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	clock  clock.Clock

	gateway      store.Gateway
	closeGateway func()

	jwtService     auth.JWTService
	taskService    service.TaskService
	subtaskService service.SubtaskService
	tagService     service.TagService

	scheduler *notification.Scheduler
}

// newApplication opens storage, builds the services and, when enabled,
// starts the reminder scheduler. On error everything opened so far is
// released.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		clock:  clock.System(),
	}

	var err error
	app.gateway, app.closeGateway, err = storage.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := app.init(); err != nil {
		app.cleanup()
		return nil, err
	}

	logger.Info("application initialized successfully")
	return app, nil
}

func (app *application) init() error {
	var err error
	app.jwtService, err = auth.NewJWTService(app.config.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	app.logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", app.config.Auth.TokenLifetimeMinutes))

	app.taskService, err = service.NewTaskService(app.gateway, app.clock, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create task service: %w", err)
	}
	app.subtaskService, err = service.NewSubtaskService(app.gateway, app.clock, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create subtask service: %w", err)
	}
	app.tagService, err = service.NewTagService(app.gateway, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create tag service: %w", err)
	}

	if !app.config.Notification.Enabled {
		app.logger.Info("notification scheduler disabled")
		return nil
	}

	app.scheduler, err = notification.NewScheduler(
		app.taskService,
		notification.NewLogNotifier(app.logger),
		app.clock,
		notification.Config{
			Interval: app.config.Notification.CheckInterval(),
			LeadTime: app.config.Notification.LeadTime(),
		},
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification scheduler: %w", err)
	}
	if err := app.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start notification scheduler: %w", err)
	}
	return nil
}

// Run serves HTTP until ctx is canceled.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops background work and closes storage. It is safe to call on
// a partially built application.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	if app.closeGateway != nil {
		app.closeGateway()
	}
	app.logger.Info("application shutdown completed")
}
