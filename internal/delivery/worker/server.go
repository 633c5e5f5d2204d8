// Package worker serves the push endpoint of the mail worker.
package worker

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"smartblog/config"
	"smartblog/internal/delivery"
	"smartblog/internal/delivery/http/middleware"
	"smartblog/internal/delivery/worker/handler"
	"smartblog/internal/domain/lifecycle"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// pushBodyLimit covers a rendered mail wrapped in a push envelope.
const pushBodyLimit = "1M"

type workerServer struct {
	logger *slog.Logger
	http   *http.Server
}

type ServerParams struct {
	fx.In

	Lc          fx.Lifecycle
	Cfg         *config.Config
	Logger      *slog.Logger
	PushHandler *handler.PushHandler
}

func NewServer(params ServerParams) (delivery.Delivery, error) {
	timeouts := params.Cfg.HTTP.Timeouts
	srv := &workerServer{
		logger: params.Logger,
		http: &http.Server{
			Addr:              net.JoinHostPort("0.0.0.0", strconv.Itoa(params.Cfg.HTTP.Port)),
			Handler:           NewEcho(params.Cfg, params.Logger, params.PushHandler),
			ReadTimeout:       timeouts.ReadTimeout,
			ReadHeaderTimeout: timeouts.ReadHeaderTimeout,
			WriteTimeout:      timeouts.WriteTimeout,
			IdleTimeout:       timeouts.IdleTimeout,
		},
	}

	params.Lc.Append(fx.StopHook(srv.stop))

	return srv, nil
}

// NewEcho routes GET /health and POST /push.
func NewEcho(cfg *config.Config, logger *slog.Logger, pushHandler *handler.PushHandler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(
		echomiddleware.Recover(),
		middleware.NewRequestIDMiddleware(logger).Process,
		middleware.AccessLog(logger, cfg.Env.Debug),
	)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.POST("/push", pushHandler.HandlePush, echomiddleware.BodyLimit(pushBodyLimit))

	return e
}

func (s *workerServer) Serve(_ context.Context) error {
	s.logger.Info("Starting mail worker HTTP server", slog.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "mail worker server failed")
	}

	return nil
}

func (s *workerServer) stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	s.logger.Info("Shutting down mail worker HTTP server")

	return errors.WithStack(s.http.Shutdown(ctx))
}
