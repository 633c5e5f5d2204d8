package mail

import (
	"context"
	"log/slog"

	"smartblog/config"
	"smartblog/internal/domain/constants"
	"smartblog/internal/domain/service"
	"smartblog/internal/infra/pubsub"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// SenderParams holds dependencies for the MailSender, injected by Fx
type SenderParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// NewMailSender creates the sender the dispatcher workers use, based on mail.transport.
func NewMailSender(params SenderParams) (service.MailSender, error) {
	cfg := params.Config
	logger := params.Logger

	var sender service.MailSender
	var err error

	switch cfg.Mail.Transport {
	case constants.MailTransportDirect:
		sender, err = NewDeliverySender(cfg.Mail, logger)

	case constants.MailTransportPubSub:
		logger.Info("Handing mail to Google Pub/Sub")
		sender, err = pubsub.NewGooglePubSubPublisher(context.Background(), cfg.PubSub, logger)

	case constants.MailTransportHTTP:
		var endpoint string
		if cfg.PubSub != nil {
			endpoint = cfg.PubSub.LocalEndpoint
		}
		logger.Info("Handing mail to the local mail worker", slog.String("endpoint", endpoint))
		sender, err = pubsub.NewLocalHTTPPublisher(endpoint, logger)

	default:
		return nil, errors.Errorf("unknown mail transport: %s", cfg.Mail.Transport)
	}
	if err != nil {
		return nil, err
	}

	registerClose(params.Lc, sender, logger)

	return sender, nil
}

// NewDeliverySender creates the sender that actually delivers mail, based on mail.sender.
func NewDeliverySender(cfg *config.MailConfig, logger *slog.Logger) (service.MailSender, error) {
	switch cfg.Sender {
	case constants.MailSenderSMTP:
		logger.Info("Delivering mail over SMTP", slog.String("host", cfg.SMTP.Host), slog.Int("port", cfg.SMTP.Port))

		return NewSMTPSender(cfg, logger)
	case constants.MailSenderLog:
		logger.Info("Mail delivery disabled, notifications are logged")

		return NewLogSender(logger), nil
	default:
		return nil, errors.Errorf("unknown mail sender: %s", cfg.Sender)
	}
}

// NewWorkerSender provides the delivery sender of the mail worker and closes it with the app.
func NewWorkerSender(params SenderParams) (service.MailSender, error) {
	sender, err := NewDeliverySender(params.Config.Mail, params.Logger)
	if err != nil {
		return nil, err
	}

	registerClose(params.Lc, sender, params.Logger)

	return sender, nil
}

func registerClose(lc fx.Lifecycle, sender service.MailSender, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Info("Closing MailSender")

			return sender.Close()
		},
	})
}

// Module provides the mail FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewMailSender),
	fx.Provide(NewDispatcher),
)
