package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	deliverycontext "smartblog/internal/delivery/context"
	"smartblog/internal/domain/entity"
	"smartblog/internal/domain/service"

	"github.com/pkg/errors"
)

const (
	localPushTimeout  = 30 * time.Second
	localPushAttempts = 3
	localPushBackoff  = 500 * time.Millisecond
)

// localHTTPPublisher posts push messages straight to a mail worker, standing in for a
// Pub/Sub push subscription during development. Like Pub/Sub it redelivers on 5xx.
type localHTTPPublisher struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
	attempts int
	backoff  time.Duration
}

func NewLocalHTTPPublisher(endpoint string, logger *slog.Logger) (service.MailSender, error) {
	if endpoint == "" {
		return nil, errors.New("local endpoint is required for the http transport")
	}

	return &localHTTPPublisher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: localPushTimeout},
		logger:   logger,
		attempts: localPushAttempts,
		backoff:  localPushBackoff,
	}, nil
}

func (p *localHTTPPublisher) Send(ctx context.Context, n entity.Notification) error {
	msg, err := NewPushMessage(n, time.Now())
	if err != nil {
		return err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return errors.WithStack(err)
	}

	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		retry, err := p.push(ctx, body, n.RequestID)
		if err == nil {
			p.logger.DebugContext(ctx, "Mail notification pushed",
				slog.String("message_id", msg.Message.MessageID),
				slog.Int("attempt", attempt),
			)

			return nil
		}
		lastErr = err
		if !retry || attempt == p.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		case <-time.After(p.backoff * time.Duration(attempt)):
		}
	}

	return errors.Wrapf(lastErr, "push to %s failed", p.endpoint)
}

// push performs one delivery and reports whether a failure is worth retrying.
func (p *localHTTPPublisher) push(ctx context.Context, body []byte, requestID string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set(deliverycontext.HeaderXRequestID, requestID)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return ctx.Err() == nil, errors.WithStack(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return true, errors.Errorf("worker answered %d", resp.StatusCode)
	case resp.StatusCode >= http.StatusMultipleChoices:
		return false, errors.Errorf("worker rejected the message with %d", resp.StatusCode)
	default:
		return false, nil
	}
}

func (p *localHTTPPublisher) Close() error {
	p.client.CloseIdleConnections()

	return nil
}
