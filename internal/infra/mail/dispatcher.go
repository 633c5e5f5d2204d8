// Package mail queues notifications in-process and delivers them from a pool of workers.
package mail

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"smartblog/config"
	"smartblog/internal/domain/entity"
	domainerrors "smartblog/internal/domain/errors"
	"smartblog/internal/domain/lifecycle"
	"smartblog/internal/domain/service"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
	"gocloud.dev/pubsub"
	_ "gocloud.dev/pubsub/mempubsub"
)

const (
	metadataRequestID = "request_id"
	sendTimeout       = 30 * time.Second
)

// Dispatcher implements service.NotificationDispatcher on top of a gocloud.dev topic.
// Workers receive from the matching subscription and hand each message to a MailSender.
type Dispatcher struct {
	topic    *pubsub.Topic
	sub      *pubsub.Subscription
	sender   service.MailSender
	workers  int
	logger   *slog.Logger
	failures prometheus.Counter

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// DispatcherParams holds dependencies for the Dispatcher, injected by Fx
type DispatcherParams struct {
	fx.In

	Lc         fx.Lifecycle
	Config     *config.Config
	Logger     *slog.Logger
	Sender     service.MailSender
	Registerer prometheus.Registerer `optional:"true"`
}

// NewDispatcher opens the queue named by mail.queueURL and starts the workers with the app.
func NewDispatcher(params DispatcherParams) (service.NotificationDispatcher, error) {
	cfg := params.Config.Mail
	ctx := context.Background()

	topic, err := pubsub.OpenTopic(ctx, cfg.QueueURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open mail topic %s", cfg.QueueURL)
	}
	sub, err := pubsub.OpenSubscription(ctx, cfg.QueueURL)
	if err != nil {
		_ = topic.Shutdown(ctx)

		return nil, errors.Wrapf(err, "failed to open mail subscription %s", cfg.QueueURL)
	}

	registerer := params.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	failures := promauto.With(registerer).NewCounter(prometheus.CounterOpts{
		Name: "smartblog_mail_delivery_failures_total",
		Help: "Number of notifications that could not be queued or delivered.",
	})

	d := newDispatcher(topic, sub, params.Sender, cfg.Workers, params.Logger, failures)

	params.Lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			d.Start()

			return nil
		},
		OnStop: d.Stop,
	})

	return d, nil
}

func newDispatcher(topic *pubsub.Topic, sub *pubsub.Subscription, sender service.MailSender, workers int, logger *slog.Logger, failures prometheus.Counter) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}

	return &Dispatcher{
		topic:    topic,
		sub:      sub,
		sender:   sender,
		workers:  workers,
		logger:   logger,
		failures: failures,
	}
}

// Dispatch queues the notification. Failures are logged and counted, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, n entity.Notification) {
	body, err := json.Marshal(n)
	if err != nil {
		d.fail(ctx, n, errors.Wrap(err, "failed to encode notification"))

		return
	}

	msg := &pubsub.Message{Body: body}
	if n.RequestID != "" {
		msg.Metadata = map[string]string{metadataRequestID: n.RequestID}
	}

	// The request may finish before the queue accepts the message.
	if err := d.topic.Send(context.WithoutCancel(ctx), msg); err != nil {
		d.fail(ctx, n, errors.Wrap(err, "failed to queue notification"))
	}
}

// Start launches the worker pool.
func (d *Dispatcher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	for range d.workers {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.work(ctx)
		}()
	}

	d.logger.Info("Mail workers started", slog.Int("workers", d.workers))
}

// Stop closes the topic, waits for in-flight deliveries and releases the subscription.
func (d *Dispatcher) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	topicErr := d.topic.Shutdown(shutdownCtx)
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	subErr := d.sub.Shutdown(shutdownCtx)

	d.logger.Info("Mail workers stopped")

	if topicErr != nil {
		return errors.Wrap(topicErr, "failed to shut down mail topic")
	}

	return errors.Wrap(subErr, "failed to shut down mail subscription")
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		msg, err := d.sub.Receive(ctx)
		if err != nil {
			if ctx.Err() == nil {
				// Receive errors are not retryable, the subscription is unusable.
				d.logger.Error("Mail subscription failed", slog.Any("error", err))
			}

			return
		}

		d.handle(ctx, msg)
	}
}

func (d *Dispatcher) handle(ctx context.Context, msg *pubsub.Message) {
	// Delivery is best effort, a failed message is never redelivered.
	defer msg.Ack()

	var n entity.Notification
	if err := json.Unmarshal(msg.Body, &n); err != nil {
		d.fail(ctx, n, errors.Wrap(err, "failed to decode notification"))

		return
	}
	if n.RequestID == "" {
		n.RequestID = msg.Metadata[metadataRequestID]
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, n); err != nil {
		d.fail(ctx, n, err)

		return
	}

	d.logger.Debug("Notification delivered",
		slog.String("recipient", n.Recipient),
		slog.String("request_id", n.RequestID),
	)
}

func (d *Dispatcher) fail(ctx context.Context, n entity.Notification, cause error) {
	d.failures.Inc()

	err := domainerrors.ErrNotificationDelivery.WithDetails(cause.Error())
	d.logger.ErrorContext(ctx, "Notification delivery failed",
		slog.String("recipient", n.Recipient),
		slog.String("subject", n.Subject),
		slog.String("request_id", n.RequestID),
		slog.Any("error", err),
	)
}
