package main

import (
	"context"
	"errors"

	"github.com/21namanpandey/e-library/config"
)

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// configFromContext returns the config loaded by the root command.
func configFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}
