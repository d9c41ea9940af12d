package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/geomagtools/thermomag/cmd/curietool/app"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "c", "curietool.yaml", "path to the run configuration")
	flag.Parse()

	var logLevel slog.LevelVar
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: &logLevel}))

	config, err := app.LoadConfig(configPath)
	if err != nil {
		logger.Error("cannot load run configuration", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}
	logLevel.Set(config.LogLevel())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, config, logger); err != nil {
		logger.Error("analysis failed", slog.Any("error", err))
		os.Exit(1)
	}
}
