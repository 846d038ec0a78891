package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mohammed-shakir/cityjson-codec/internal/cache/doccache"
	"github.com/mohammed-shakir/cityjson-codec/internal/cache/redisstore"
	"github.com/mohammed-shakir/cityjson-codec/internal/core/config"
	"github.com/mohammed-shakir/cityjson-codec/internal/core/health"
	"github.com/mohammed-shakir/cityjson-codec/internal/core/observability"
	"github.com/mohammed-shakir/cityjson-codec/internal/core/server"
	"github.com/mohammed-shakir/cityjson-codec/internal/logger"
	"github.com/mohammed-shakir/cityjson-codec/internal/metrics"
	"github.com/mohammed-shakir/cityjson-codec/internal/service"
	"github.com/mohammed-shakir/cityjson-codec/internal/session"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Service:   "cityjsond",
		Component: "server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	appLog.Info("starting cityjsond",
		"addr", cfg.Addr,
		"version", Version,
		"session_driver", cfg.Session.Driver,
		"precision", cfg.Codec.Precision,
		"dedupe", cfg.Codec.Dedupe)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := server.Deps{}
	if cfg.MetricsEnabled {
		p := metrics.Init(metrics.Config{
			Enabled: true,
			Build: metrics.BuildInfo{
				Version:   Version,
				Revision:  os.Getenv("BUILD_REVISION"),
				Branch:    os.Getenv("BUILD_BRANCH"),
				BuildDate: os.Getenv("BUILD_DATE"),
			},
		})
		observability.Init(p.Registerer(), true)
		deps.Metrics = p.Handler()
	} else {
		observability.Init(nil, false)
	}

	checks := health.Checks{}
	var sessions session.Store
	docOpts := []doccache.Option{doccache.WithOpTimeout(cfg.CacheOpTimeout), doccache.WithLogger(&zl)}

	if cfg.Session.Driver == "redis" {
		rc, err := redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Error("redis connect failed", "addr", cfg.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = rc.Close() }()
		sessions = session.NewRedisStore(rc, cfg.Session.TTL)
		docOpts = append(docOpts, doccache.WithRedis(rc, cfg.Session.TTL))
		checks["redis"] = rc.Ping
	} else {
		s, err := session.NewMemoryStore(cfg.Session.CacheSize)
		if err != nil {
			appLog.Error("session store setup failed", "err", err)
			return 1
		}
		sessions = s
	}

	docs, err := doccache.New(cfg.DocCacheSize, docOpts...)
	if err != nil {
		appLog.Error("document cache setup failed", "err", err)
		return 1
	}
	deps.Ready = checks

	eng := service.New(cfg, appLog, &zl, sessions, docs)
	if err := server.Run(ctx, cfg, appLog, eng, deps); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
