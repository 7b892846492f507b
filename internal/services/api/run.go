package api

import (
	"context"

	"findtime/internal/platform/config"
	"findtime/internal/platform/logger"
	"findtime/internal/platform/metrics"
	phttp "findtime/internal/platform/net/http"
	"findtime/internal/platform/store"
)

// Run opens the store, mounts the API and serves until ctx ends
func Run(ctx context.Context, root config.Conf) error {
	log := logger.Named("api")

	st, err := store.Open(ctx, store.ConfigFrom(root, "findtime", "api"), store.WithLogger(*logger.Get()))
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to close store")
		}
	}()

	if err := st.Guard(ctx); err != nil {
		log.Warn().Err(err).Msg("backend not answering at startup; /api/v1/meta/ready will report it")
	}

	opt := OptionsFromConfig(root)
	opt.Store = st
	opt.Metrics = metrics.New()

	srv := phttp.NewServer(root.Prefix("FINDTIME_"))
	mods := Mount(srv.Router(), opt)
	for _, m := range mods {
		log.Debug().Str("module", m.Name()).Msg("module mounted")
	}
	return srv.Run(ctx)
}
