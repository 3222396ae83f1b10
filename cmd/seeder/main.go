package main

import (
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/cherop/pactpay/internal/app"
	seeders "github.com/cherop/pactpay/internal/seeder"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	application, err := app.NewApplication(logger)
	if err != nil {
		trace := string(debug.Stack())
		logger.Error(err.Error(), "trace", trace)
		os.Exit(1)
	}
	defer application.DB.Close()

	seeders.New(application.DB).Run()

	logger.Info("database seeded")
}
