// Package handler contains the push handler of the mail worker.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"smartblog/config"
	deliverycontext "smartblog/internal/delivery/context"
	"smartblog/internal/domain/entity"
	"smartblog/internal/domain/service"
	"smartblog/internal/infra/pubsub"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

// TokenValidator checks a Google-signed OIDC token against the expected audience.
type TokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// PushHandler delivers the notifications pushed by Pub/Sub or the local HTTP publisher.
type PushHandler struct {
	audience string
	validate TokenValidator
	sender   service.MailSender
	logger   *slog.Logger
}

// PushHandlerParams holds dependencies for the PushHandler
type PushHandlerParams struct {
	fx.In

	Config    *config.Config
	Logger    *slog.Logger
	Sender    service.MailSender
	Validator TokenValidator `optional:"true"`
}

// NewPushHandler creates a new Pub/Sub push handler. Push requests are authenticated
// only when pubsub.pushAudience is configured.
func NewPushHandler(params PushHandlerParams) *PushHandler {
	var audience string
	if params.Config.PubSub != nil {
		audience = params.Config.PubSub.PushAudience
	}

	validate := params.Validator
	if validate == nil {
		validate = idtoken.Validate
	}

	return &PushHandler{
		audience: audience,
		validate: validate,
		sender:   params.Sender,
		logger:   params.Logger,
	}
}

// HandlePush answers 2xx once the mail is delivered, 503 to have the message redelivered.
func (h *PushHandler) HandlePush(c echo.Context) error {
	ctx := c.Request().Context()
	logger := deliverycontext.GetLoggerOrDefault(ctx, h.logger)

	if h.audience != "" {
		if err := h.verifyPushToken(c.Request()); err != nil {
			logger.Warn("[Worker] Invalid Pub/Sub token", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	var msg pubsub.PushMessage
	if err := c.Bind(&msg); err != nil {
		logger.Error("[Worker] Failed to parse push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	n, err := decode(&msg)
	if err != nil {
		logger.Error("[Worker] Rejected push message",
			slog.String("message_id", msg.Message.MessageID),
			slog.Any("error", err),
		)

		return c.NoContent(http.StatusBadRequest)
	}

	// The id travelling with the notification wins over the one of the push request.
	if n.RequestID == "" {
		n.RequestID = deliverycontext.GetRequestIDFromContext(ctx)
	}
	if n.RequestID == "" {
		n.RequestID = uuid.NewString()
	}
	logger = h.logger.With(
		slog.String("request_id", n.RequestID),
		slog.String("message_id", msg.Message.MessageID),
	)
	ctx = deliverycontext.WithLogger(deliverycontext.WithRequestID(ctx, n.RequestID), logger)

	if err := h.sender.Send(ctx, n); err != nil {
		logger.Error("[Worker] Failed to deliver mail", slog.String("subject", n.Subject), slog.Any("error", err))

		return c.NoContent(http.StatusServiceUnavailable)
	}

	logger.Info("[Worker] Mail delivered", slog.String("subject", n.Subject))

	return c.NoContent(http.StatusOK)
}

func decode(msg *pubsub.PushMessage) (entity.Notification, error) {
	n, err := msg.DecodeNotification()
	if err != nil {
		return n, err
	}
	if n.Recipient == "" {
		return n, errors.New("notification without recipient")
	}

	return n, nil
}

// verifyPushToken verifies the JWT attached to Google Pub/Sub push requests.
// Reference: https://cloud.google.com/pubsub/docs/push#authenticating_standard_push_requests
func (h *PushHandler) verifyPushToken(req *http.Request) error {
	authHeader := req.Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return errors.New("missing authorization header")
	}

	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		return errors.New("invalid authorization header format")
	}

	payload, err := h.validate(req.Context(), token, h.audience)
	if err != nil {
		return errors.Wrap(err, "failed to validate token")
	}

	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}

	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok && !emailVerified {
		return errors.New("email not verified")
	}

	return nil
}
