package app

import (
	"context"
	"database/sql"
	"fmt"

	httpapi "arriendo-cajas-backend/internal/api/http"
	"arriendo-cajas-backend/internal/cache"
	"arriendo-cajas-backend/internal/config"
	"arriendo-cajas-backend/internal/db"
	"arriendo-cajas-backend/internal/jobs"
	"arriendo-cajas-backend/internal/logger"
	"arriendo-cajas-backend/internal/mail"
	"arriendo-cajas-backend/internal/notification"
	"arriendo-cajas-backend/internal/push"
	"arriendo-cajas-backend/internal/repository/postgres"
	"arriendo-cajas-backend/internal/service"

	"github.com/redis/go-redis/v9"
)

// App owns the shared connections and the service graph used by every binary
type App struct {
	Config   *config.Config
	DB       *sql.DB
	Store    *postgres.Store
	Redis    *redis.Client
	Services httpapi.Services

	closers []func() error
}

// New connects to PostgreSQL and, when configured, redis, then builds every service
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	conn, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, DB: conn, closers: []func() error{conn.Close}}

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(conn); err != nil {
			a.Close()
			return nil, err
		}
	}

	trackingCache := cache.TrackingCache(cache.NoopTrackingCache{})
	if cfg.Redis.Addr != "" {
		client, closeRedis, err := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.User, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			// tracking falls back to the database
			logger.Warn("Redis unavailable, tracking cache and job locks disabled", "error", err)
		} else {
			a.Redis = client
			a.closers = append(a.closers, closeRedis)
			trackingCache = cache.NewTrackingCache(client, cfg.TrackingCacheTTL())
		}
	}

	pushNotifier, err := push.New(ctx, cfg)
	if err != nil {
		logger.Warn("Push notifications disabled", "error", err)
		pushNotifier = push.NoopNotifier{}
	}

	renderer, err := notification.NewRenderer()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}

	store := postgres.NewStore(conn)
	a.Store = store
	loc := cfg.Location()

	dispatcher := notification.NewDispatcher(renderer, mail.New(cfg), store.EmailLogs)
	notifications := service.NewNotificationService(store.Rentals, store.Customers, store.Drivers, store.Outbox, dispatcher,
		service.NotificationOptions{
			PublicBaseURL: cfg.Server.PublicBaseURL,
			Location:      loc,
			BatchSize:     cfg.Outbox.BatchSize,
			ClaimTimeout:  cfg.ClaimTimeout(),
		})

	a.Services = httpapi.Services{
		Auth:      service.NewAuthService(store.Users),
		Customers: service.NewCustomerService(store.Customers),
		Drivers:   service.NewDriverService(store.Drivers),
		Inventory: service.NewInventoryService(store.Inventory),
		Rentals: service.NewRentalService(store.TxManager, store.Rentals, store.Customers, store.Drivers, store.Inventory,
			store.Outbox, store.EmailLogs, notifications, trackingCache, pushNotifier,
			service.RentalOptions{
				EnforceTransitions: cfg.Rentals.EnforceTransitions,
				DefaultPricePerDay: cfg.Rentals.DefaultPricePerDay,
				DefaultRentalDays:  cfg.Rentals.DefaultRentalDays,
			}),
		Payments:      service.NewPaymentService(store.TxManager, store.Payments, store.Rentals, store.Customers, store.Outbox, notifications),
		Notifications: notifications,
		Reminders: service.NewReminderService(store.Rentals, store.Reminders, notifications, service.ReminderOptions{
			DaysBefore: cfg.Reminders.DaysBefore,
			Dedupe:     cfg.Reminders.Dedupe,
			Location:   loc,
		}),
		EmailLogs: service.NewEmailLogService(store.EmailLogs),
		Reports:   service.NewReportService(store.Reports, store.Rentals, store.Customers, store.Drivers),
		Tracking:  service.NewTrackingService(store.Rentals, store.Drivers, trackingCache),
	}

	return a, nil
}

// JobRunner builds the scheduled job runner, locking through redis when it is available
func (a *App) JobRunner() *jobs.JobRunner {
	var locker jobs.Locker
	if a.Redis != nil {
		locker = cache.NewJobLock(a.Redis)
	}
	return jobs.NewJobRunner(&jobs.Services{
		Reminders:     a.Services.Reminders,
		Notifications: a.Services.Notifications,
	}, a.Config, locker)
}

// Ready reports whether the database answers
func (a *App) Ready(ctx context.Context) error {
	return a.Store.Ping(ctx)
}

// Close releases connections in reverse order of acquisition
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("Failed to close resource", "error", err)
		}
	}
	a.closers = nil
}
