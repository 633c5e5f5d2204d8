package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_Check(t *testing.T) {
	tests := []struct {
		name   string
		db     Pinger
		status int
		body   string
	}{
		{name: "liveness only", status: http.StatusOK, body: `{"status":"ok"}`},
		{
			name:   "database up",
			db:     pingFunc(func(context.Context) error { return nil }),
			status: http.StatusOK,
			body:   `{"status":"ok","database":"up"}`,
		},
		{
			name:   "database down",
			db:     pingFunc(func(context.Context) error { return errors.New("connection refused") }),
			status: http.StatusServiceUnavailable,
			body:   `{"status":"unavailable","database":"down"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

			assert.NoError(t, NewHealthHandler(tt.db).Check(c))
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}
