package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	deliverycontext "smartblog/internal/delivery/context"
	"smartblog/internal/delivery/http/response"

	"github.com/labstack/echo/v4"
)

const healthPingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler answers load balancer probes. Without a database it only reports liveness.
type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Check(c echo.Context) error {
	if h.db == nil {
		return response.JSON(c, http.StatusOK, map[string]string{"status": "ok"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), healthPingTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		deliverycontext.GetLoggerOrDefault(ctx, slog.Default()).WarnContext(ctx, "Health check failed", slog.Any("error", err))

		return response.JSON(c, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "down"})
	}

	return response.JSON(c, http.StatusOK, map[string]string{"status": "ok", "database": "up"})
}
