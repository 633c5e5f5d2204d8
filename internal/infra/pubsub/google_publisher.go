// Package pubsub hands notifications to an external mail worker through Pub/Sub.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"smartblog/config"
	"smartblog/internal/domain/entity"
	"smartblog/internal/domain/service"

	"cloud.google.com/go/pubsub/v2"
	pubsubpb "cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// AttributeRequestID is the message attribute carrying the originating request id.
const AttributeRequestID = "request_id"

// googlePubSubPublisher implements MailSender by publishing to Google Cloud Pub/Sub
type googlePubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	logger    *slog.Logger
}

// NewGooglePubSubPublisher connects to the configured topic, failing when it does not exist.
func NewGooglePubSubPublisher(ctx context.Context, cfg *config.PubSubConfig, logger *slog.Logger) (service.MailSender, error) {
	if cfg == nil || cfg.ProjectID == "" {
		return nil, errors.New("project ID is required for the pubsub transport")
	}
	if cfg.TopicID == "" {
		return nil, errors.New("topic ID is required for the pubsub transport")
	}

	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Pub/Sub client")
	}

	if err := ensureTopic(ctx, client, cfg); err != nil {
		client.Close()

		return nil, err
	}

	// Mails to one recipient are delivered in publish order.
	publisher := client.Publisher(cfg.TopicID)
	publisher.EnableMessageOrdering = true

	logger.Info("Google Pub/Sub mail publisher initialized",
		slog.String("project_id", cfg.ProjectID),
		slog.String("topic_id", cfg.TopicID),
	)

	return &googlePubSubPublisher{
		client:    client,
		publisher: publisher,
		logger:    logger,
	}, nil
}

func ensureTopic(ctx context.Context, client *pubsub.Client, cfg *config.PubSubConfig) error {
	topic := fmt.Sprintf("projects/%s/topics/%s", cfg.ProjectID, cfg.TopicID)
	if _, err := client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: topic}); err != nil {
		return errors.Wrapf(err, "failed to get topic %s", cfg.TopicID)
	}

	return nil
}

// Send publishes the notification and waits for the server acknowledgement.
func (p *googlePubSubPublisher) Send(ctx context.Context, n entity.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return errors.WithStack(err)
	}

	msg := &pubsub.Message{Data: data, OrderingKey: n.Recipient}
	if n.RequestID != "" {
		msg.Attributes = map[string]string{AttributeRequestID: n.RequestID}
	}

	serverID, err := p.publisher.Publish(ctx, msg).Get(ctx)
	if err != nil {
		// A failed ordered publish pauses the key until resumed.
		p.publisher.ResumePublish(n.Recipient)

		return errors.Wrapf(err, "failed to publish mail for %s", n.Recipient)
	}

	p.logger.DebugContext(ctx, "Mail notification published",
		slog.String("server_id", serverID),
		slog.String("request_id", n.RequestID),
	)

	return nil
}

// Close releases Pub/Sub client resources
func (p *googlePubSubPublisher) Close() error {
	if p.publisher != nil {
		p.publisher.Stop()
	}
	if p.client != nil {
		return errors.WithStack(p.client.Close())
	}

	return nil
}
