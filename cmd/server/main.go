package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	attendancehandler "steeple/internal/attendance/handler"
	attendanceservice "steeple/internal/attendance/service"
	attendancestore "steeple/internal/attendance/store"
	"steeple/internal/audit"
	"steeple/internal/device"
	httprouter "steeple/internal/http"
	jwttoken "steeple/internal/jwt_token"
	locationhandler "steeple/internal/location/handler"
	locationservice "steeple/internal/location/service"
	locationstore "steeple/internal/location/store"
	"steeple/internal/member"
	"steeple/internal/platform/config"
	"steeple/internal/platform/logger"
	"steeple/internal/platform/metrics"
	"steeple/internal/platform/postgres"
	platformredis "steeple/internal/platform/redis"
	"steeple/internal/schedule"
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zone, err := time.LoadLocation(cfg.ChurchTimezone)
	if err != nil {
		return err
	}
	log.Info("starting steeple", "addr", cfg.Addr, "timezone", cfg.ChurchTimezone)

	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
	} else {
		log.Warn("postgres not configured, using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		log.Warn("redis not configured, device guard is per-instance")
	}

	m := metrics.New()
	auditRecorder := audit.NewRecorder(auditStore(db), log.With("component", "audit"))

	var (
		members   member.Store
		locations locationstore.Store
		records   attendancestore.Store
	)
	if db != nil {
		members = member.NewPostgres(db)
		locations = locationstore.NewPostgres(db)
		records = attendancestore.NewPostgres(db)
	} else {
		members = member.NewInMemoryStore()
		locations = locationstore.NewInMemory()
		records = attendancestore.NewInMemory()
	}

	var usage device.UsageStore = device.NewInMemoryStore()
	if redisClient != nil {
		usage = device.NewFallbackStore(
			device.NewRedisStore(redisClient.Client, redisClient.Key("device")),
			device.NewInMemoryStore(),
			log.With("component", "device"),
		)
	}
	guard := device.NewGuard(usage, cfg.DeviceUsageTTL, log.With("component", "device"))

	locationSvc := locationservice.New(locations, auditRecorder, log.With("component", "location"))
	attendanceSvc := attendanceservice.New(
		records, members, locations,
		schedule.New(zone), guard, m, auditRecorder,
		log.With("component", "attendance"),
	)

	router := httprouter.New(httprouter.Deps{
		Logger:     log,
		Metrics:    m,
		Validator:  jwttoken.NewValidator(cfg.JWTSigningKey),
		Attendance: attendancehandler.New(attendanceSvc, log.With("component", "attendance")),
		Locations:  locationhandler.New(locationSvc, log.With("component", "location")),
		Health:     healthChecks(db, redisClient),
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func auditStore(db *sql.DB) audit.Store {
	if db == nil {
		return audit.NewInMemoryStore()
	}
	return audit.NewPostgresStore(db)
}

func healthChecks(db *sql.DB, redisClient *platformredis.Client) map[string]httprouter.HealthChecker {
	checks := map[string]httprouter.HealthChecker{}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if redisClient != nil {
		checks["redis"] = redisClient.Health
	}
	return checks
}
