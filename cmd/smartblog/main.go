package main

import (
	"context"
	"log/slog"

	"smartblog/config"
	"smartblog/internal/delivery"
	"smartblog/internal/delivery/http"
	"smartblog/internal/delivery/http/middleware"
	"smartblog/internal/delivery/http/router/handler"
	"smartblog/internal/infra/auth"
	logs "smartblog/internal/infra/log"
	"smartblog/internal/infra/mail"
	"smartblog/internal/infra/persistence/postgres"
	"smartblog/internal/infra/sanitize"
	"smartblog/internal/usecase/impl"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"gorm.io/gorm"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle
	fx.Shutdowner

	Logger     *slog.Logger
	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger}
		}),
		fx.Invoke(
			startJanitor,
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
		newDBPinger,
		newMetricsRegistry,
		func(reg *prometheus.Registry) prometheus.Registerer { return reg },
	)
}

// newMetricsRegistry holds the HTTP and mail metrics next to the runtime collectors.
func newMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

// newDBPinger exposes the pool behind gorm to the health check.
func newDBPinger(db *gorm.DB) (handler.Pinger, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get PostgreSQL sql.DB")
	}

	return sqlDB, nil
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewUserRepository,
			postgres.NewSessionTokenRepository,
			postgres.NewVerificationTokenRepository,
			postgres.NewPostRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			sanitize.NewSanitizer,
		),
		mail.Module,
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuthService,
			impl.NewAuthorizationService,
			impl.NewUserService,
			impl.NewPostService,
			impl.NewTokenJanitor,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewUserHandler,
			handler.NewPostHandler,
			handler.NewHealthHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

// startJanitor forces the construction of the token janitor, which runs on the app lifecycle.
func startJanitor(*impl.TokenJanitor) {}

// startServer serves every delivery once the earlier start hooks (database ping, migration,
// mail workers) have run. The first delivery to fail shuts the application down.
func startServer(ctx context.Context, params startServerParams) {
	params.Append(fx.StartHook(func() {
		for _, d := range params.Deliveries {
			go func() {
				if err := d.Serve(ctx); err != nil {
					params.Logger.Error("Delivery stopped", slog.Any("error", err))
					if shutdownErr := params.Shutdown(fx.ExitCode(1)); shutdownErr != nil {
						params.Logger.Error("Failed to shut down", slog.Any("error", shutdownErr))
					}
				}
			}()
		}
	}))
}
