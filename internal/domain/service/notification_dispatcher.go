package service

import (
	"context"

	"smartblog/internal/domain/entity"
)

// NotificationDispatcher accepts notifications for best-effort asynchronous delivery.
// Dispatch never blocks on delivery and never reports delivery failures to the caller.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, notification entity.Notification)
}

// MailSender delivers a single notification synchronously.
type MailSender interface {
	Send(ctx context.Context, notification entity.Notification) error

	// Close releases any resources held by the sender
	Close() error
}
