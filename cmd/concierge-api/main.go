// README: Entry point; loads config, wires the decision core, and serves the turn API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"concierge/internal/ai"
	"concierge/internal/config"
	httptransport "concierge/internal/http"
	"concierge/internal/infra"
	"concierge/internal/modules/catalog"
	"concierge/internal/modules/negotiation"
	"concierge/internal/modules/session"
	"concierge/internal/modules/strategy"
	"concierge/internal/modules/turn"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := infra.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("db init", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer func() { _ = redisClient.Close() }()
	if err := infra.PingRedis(ctx, redisClient); err != nil {
		logger.Fatal("redis init", zap.Error(err))
	}

	catalogStore := catalog.NewStore(dbPool, cfg.Decision.TagCap)
	negotiationSvc := negotiation.NewService(negotiation.NewRuleStore(dbPool), logger.Named("negotiation"))
	sessionStore := session.NewStore(redisClient, cfg.Session.TTL)

	var renderer ai.Renderer
	if cfg.AI.GeminiKey != "" {
		gemini, err := ai.NewGeminiRenderer(ctx, cfg.AI.GeminiKey, cfg.AI.Model)
		if err != nil {
			logger.Fatal("gemini init", zap.Error(err))
		}
		defer gemini.Close()
		renderer = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set; /api/turns/respond will return 503")
	}

	turnSvc := turn.NewService(catalogStore, sessionStore, negotiationSvc, renderer, turn.Config{
		SearchLimit:        cfg.Decision.SearchLimit,
		TagCap:             cfg.Decision.TagCap,
		ClarifierTTL:       cfg.Decision.ClarifierTTL,
		OpenerHistory:      cfg.Decision.OpenerHistory,
		RelaxationPriority: cfg.Decision.RelaxationPriority,
		Thresholds:         strategy.DefaultThresholds,
	}, logger.Named("turn"))

	server := httptransport.NewServer(httptransport.ServerDeps{
		Addr:  cfg.HTTP.Addr,
		Turns: turnSvc,
		Log:   logger,
	})

	if err := server.Run(ctx); err != nil {
		logger.Fatal("http server", zap.Error(err))
	}
}
