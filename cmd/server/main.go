package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/Spok95/factory-mix/internal/api"
	"github.com/Spok95/factory-mix/internal/auth"
	"github.com/Spok95/factory-mix/internal/config"
	"github.com/Spok95/factory-mix/internal/domain/colormix"
	"github.com/Spok95/factory-mix/internal/domain/formulas"
	"github.com/Spok95/factory-mix/internal/domain/inventory"
	"github.com/Spok95/factory-mix/internal/domain/materials"
	"github.com/Spok95/factory-mix/internal/domain/users"
	"github.com/Spok95/factory-mix/internal/infra/db"
	httpx "github.com/Spok95/factory-mix/internal/infra/http"
	"github.com/Spok95/factory-mix/internal/infra/logger"
	"github.com/Spok95/factory-mix/internal/infra/notify"
	"github.com/Spok95/factory-mix/migrations"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return migrations.Up(sqlDB)
}

func newNotifier(cfg config.Config, log *slog.Logger) colormix.LowStockNotifier {
	if cfg.Telegram.Token == "" {
		return notify.Noop{Log: log}
	}
	tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.AdminChatID, log)
	if err != nil {
		log.Error("telegram disabled", "err", err)
		return notify.Noop{Log: log}
	}
	return tg
}

func main() {
	path := os.Getenv("APP_CONFIG")
	if path == "" {
		path = "config/example.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)
	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runMigrations(cfg.Postgres.DSN); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	loginLimit, err := api.RateLimit(cfg.RateLimit.Login)
	if err != nil {
		log.Error("bad ratelimit.login", "err", err)
		return
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Error("bad app.timezone", "err", err)
		return
	}

	matRepo := materials.NewRepo(pool)
	h := api.NewHandler(api.Deps{
		Issuer:    auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Users:     users.NewRepo(pool),
		Materials: materials.NewService(matRepo, log),
		Stock:     inventory.NewService(pool, log),
		Formulas:  formulas.NewService(formulas.NewRepo(pool), matRepo, log),
		Mixes:     colormix.NewService(colormix.NewPgScope(pool), newNotifier(cfg, log), cfg.Mix.ConflictRetries, log),
		Location:  loc,
		Log:       log,
	})

	srv := httpx.New(httpx.Options{
		Addr:          cfg.HTTP.Addr,
		ReadTimeout:   cfg.HTTP.ReadTimeout,
		WriteTimeout:  cfg.HTTP.WriteTimeout,
		ExposeMetrics: cfg.Metrics.Enabled,
	}, func(r *gin.Engine) { h.Register(r, loginLimit) })

	go func() {
		if err := srv.Start(); err != nil {
			log.Error("http server error", "err", err)
			stop()
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
