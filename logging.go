package main

import (
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/21namanpandey/e-library/config"
	"github.com/lmittmann/tint"
)

func setupLogging(cfg *config.Config) {
	level := parseLevel(cfg.LogLevel)

	var h slog.Handler
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey {
					return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
				}
				return a
			},
		})
	} else {
		h = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05.000",
		})
	}
	slog.SetDefault(slog.New(h))

	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo).Writer())
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
