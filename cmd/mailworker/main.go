// Command mailworker receives Pub/Sub push deliveries of mail notifications and sends them.
package main

import (
	"context"
	"log/slog"

	"smartblog/config"
	"smartblog/internal/delivery"
	"smartblog/internal/delivery/worker"
	"smartblog/internal/delivery/worker/handler"
	logs "smartblog/internal/infra/log"
	"smartblog/internal/infra/mail"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func main() {
	fx.New(
		fx.Provide(
			config.New,
			logs.New,
			mail.NewWorkerSender,
			handler.NewPushHandler,
			worker.NewServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger}
		}),
		fx.Invoke(serve),
	).Run()
}

// serve runs the push endpoint once the sender is ready. A listener failure stops the process.
func serve(lc fx.Lifecycle, shutdowner fx.Shutdowner, logger *slog.Logger, server delivery.Delivery) {
	lc.Append(fx.StartHook(func() {
		go func() {
			if err := server.Serve(context.Background()); err != nil {
				logger.Error("Mail worker stopped", slog.Any("error", err))
				if shutdownErr := shutdowner.Shutdown(fx.ExitCode(1)); shutdownErr != nil {
					logger.Error("Failed to shut down", slog.Any("error", shutdownErr))
				}
			}
		}()
	}))
}
