// Package api composes the operator console: middleware, docs, meta and attempt routes
package api

import (
	"time"

	"facegate/internal/modkit"
	"facegate/internal/modkit/module"
	"facegate/internal/modkit/swaggerkit"
	"facegate/internal/platform/config"
	"facegate/internal/platform/logger"
	phttp "facegate/internal/platform/net/http"
	"facegate/internal/platform/net/middleware"
	"facegate/internal/platform/store"

	metamod "facegate/internal/services/api/meta/module"
)

// Options are the console options
type Options struct {
	Config config.Conf
	// PG is nil when the journal is disabled
	PG store.TxRunner
	// Modules are mounted under /api/v1 after meta
	Modules        []module.Module
	CORSOrigins    []string
	SlowRequest    time.Duration
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the console onto the given router
func Mount(r phttp.Router, opt Options) {
	// chi wants every middleware before the first route
	r.Use(middleware.Defaults()...)
	r.Use(middleware.AccessLogZerolog(middleware.AccessLogOptions{
		Slow:      opt.SlowRequest,
		SkipPaths: []string{"/healthz"},
	}))
	if len(opt.CORSOrigins) > 0 {
		r.Use(middleware.CORS(middleware.CORSOptions{AllowedOrigins: opt.CORSOrigins, MaxAge: 300}))
	}
	r.Use(middleware.Heartbeat("/healthz"))

	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	deps := modkit.Deps{Cfg: opt.Config, PG: opt.PG}
	mods := append([]module.Module{metamod.New(deps)}, opt.Modules...)

	log := logger.Named("console")
	r.Route("/api/v1", func(api phttp.Router) {
		for _, m := range mods {
			log.Debug().Str("module", m.Name()).Str("prefix", "/api/v1"+m.Prefix()).Msg("mounting module")
			// register each module's ports under its own name for cross-module lookups
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
	})
}
