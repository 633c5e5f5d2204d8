package mail

import (
	"context"
	"log/slog"

	"smartblog/internal/domain/entity"
	"smartblog/internal/domain/service"
)

type logSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that only writes notifications to the log, for development.
func NewLogSender(logger *slog.Logger) service.MailSender {
	return &logSender{logger: logger}
}

func (s *logSender) Send(ctx context.Context, n entity.Notification) error {
	s.logger.InfoContext(ctx, "Mail not sent, log sender configured",
		slog.String("recipient", n.Recipient),
		slog.String("subject", n.Subject),
		slog.String("request_id", n.RequestID),
	)
	s.logger.DebugContext(ctx, "Mail body", slog.String("body", n.Body))

	return nil
}

func (s *logSender) Close() error {
	return nil
}
