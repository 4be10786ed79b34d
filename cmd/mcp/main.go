package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	mcpadapter "github.com/mkarpenko/songbrain/internal/adapters/mcp"
	"github.com/mkarpenko/songbrain/internal/bootstrap"
	"github.com/mkarpenko/songbrain/internal/config"
	"github.com/mkarpenko/songbrain/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("mcp", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	srv := mcpadapter.NewServer(app.IngestUC, app.RetrieveUC, app.TranslateUC, app.SearchUC, logger)
	logger.Info("mcp server serving on stdio")
	if err := srv.ServeStdio(); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
