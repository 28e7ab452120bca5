package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wuwenbin0122/agentmate/internal/agent"
	"github.com/wuwenbin0122/agentmate/internal/api"
	"github.com/wuwenbin0122/agentmate/internal/db"
	"github.com/wuwenbin0122/agentmate/internal/llm"
	"github.com/wuwenbin0122/agentmate/internal/tools"
	"github.com/wuwenbin0122/agentmate/internal/utils"
)

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("config: failed to load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := utils.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("logger: failed to initialise: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	history, err := db.Open(ctx, cfg.History)
	if err != nil {
		sugar.Fatalf("history: failed to open %s backend: %v", cfg.History.Backend, err)
	}
	defer func() {
		if err := history.Close(); err != nil {
			sugar.Warnf("history: close error: %v", err)
		}
	}()

	completer, err := llm.NewClient(cfg.LLM)
	if err != nil {
		sugar.Fatalf("llm: failed to initialise client: %v", err)
	}

	toolbox, err := tools.NewToolbox(cfg.Tools, sugar.Named("tools"))
	if err != nil {
		sugar.Fatalf("tools: failed to initialise: %v", err)
	}
	if cfg.Tools.OpenWeatherAPIKey == "" {
		sugar.Warn("OPENWEATHER_API_KEY not set, air quality answers use offline mode")
	}

	assistant := agent.New(
		history,
		tools.NewDefaultRouter(toolbox),
		completer,
		agent.OptionsFromConfig(cfg.Memory),
		sugar.Named("agent"),
	)

	handler := api.NewHandler(assistant, sugar.Named("api"))
	router := api.NewRouter(handler, logger.Named("http"))

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
		// completion calls can take up to LLM_TIMEOUT twice when compaction runs
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.LLM.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sugar.Infow("server listening",
			"addr", server.Addr,
			"model", completer.Model(),
			"history_backend", cfg.History.Backend,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("server crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		sugar.Warnf("graceful shutdown failed: %v", err)
	}

	sugar.Info("server stopped cleanly")
}
