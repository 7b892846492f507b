// Command findtime-api serves the find-time HTTP API
package main

import (
	"context"
	"os/signal"
	"syscall"

	"findtime/internal/platform/config"
	"findtime/internal/platform/logger"
	"findtime/internal/services/api"
)

func main() {
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// FINDTIME_* for the api, SERVICE_* for the backends
	if err := api.Run(ctx, config.New()); err != nil {
		l.Panic().Err(err).Msg("findtime-api stopped")
	}
}
