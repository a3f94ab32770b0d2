// @title         facegate operator console
// @version       0.1.0
// @description   Drives the liveness challenge and identity submission flow of a single kiosk

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"facegate/internal/modkit"
	"facegate/internal/modkit/module"
	"facegate/internal/modkit/repokit"
	"facegate/internal/platform/config"
	perr "facegate/internal/platform/errors"
	"facegate/internal/platform/logger"
	phttp "facegate/internal/platform/net/http"
	"facegate/internal/platform/net/middleware"
	"facegate/internal/platform/store"

	"facegate/internal/services/api"
	attemptmod "facegate/internal/services/attempt/module"

	"github.com/joho/godotenv"
)

func main() {
	// a missing .env is fine, the environment wins either way
	_ = godotenv.Load()

	root := config.New()
	appCfg := root.Prefix("FACEGATE_")
	consoleCfg := appCfg.Prefix("CONSOLE_") // FACEGATE_CONSOLE_API_PORT etc
	pgCfg := root.Prefix("SERVICE_PGSQL_")

	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pg store.TxRunner
	if appCfg.MayBool("JOURNAL_ENABLED", false) {
		st, err := store.Open(
			ctx,
			store.Config{
				AppName: "facegate-kiosk",
				PG: store.PGConfig{
					Enabled:     true,
					URL:         pgCfg.MustString("DBURL"),
					MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 2)),
					SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
					LogSQL:      pgCfg.MayBool("LOG_SQL", false),
				},
			},
			store.WithLogger(*l),
		)
		if err != nil {
			l.Panic().Err(err).Msg("store.Open failed")
		}
		defer func() {
			if err := st.Close(context.Background()); err != nil {
				l.Error().Err(err).Msg("failed to close store")
			}
		}()
		repokit.MustGuard(ctx, st)
		pg = st.PG
	}

	swaggerOn := consoleCfg.MayBool("SWAGGER", true)
	attempts := attemptmod.New(
		modkit.Deps{Log: *l, Cfg: appCfg, PG: pg},
		attemptmod.FromConfig(root),
		modkit.WithSwagger(swaggerOn),
		modkit.WithMiddlewares(middleware.AllowContentType("application/json")),
	)
	if err := attempts.Open(ctx); err != nil {
		if !perr.IsCode(err, perr.ErrorCodeDevice) {
			l.Panic().Err(err).Msg("attempt module open failed")
		}
		// the session already shows the failure to the operator
		l.Error().Err(err).Msg("capture device unavailable")
	}
	defer func() {
		if err := attempts.Close(); err != nil {
			l.Error().Err(err).Msg("failed to close attempt session")
		}
	}()

	// http server (reads FACEGATE_CONSOLE_API_PORT)
	srv := phttp.NewServer(consoleCfg)
	api.Mount(srv.Router(), api.Options{
		Config:         consoleCfg,
		PG:             pg,
		Modules:        []module.Module{attempts},
		CORSOrigins:    consoleCfg.MayCSV("CORS_ORIGINS", nil),
		SlowRequest:    consoleCfg.MayDuration("SLOW_REQUEST", time.Second),
		EnableSwagger:  swaggerOn,
		EnableProfiler: consoleCfg.MayBool("PROFILER", false),
	})

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
	l.Info().Msg("console stopped")
}
