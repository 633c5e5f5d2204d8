package pubsub

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"smartblog/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// localSubscription is the subscription name reported in locally built push messages.
const localSubscription = "projects/local/subscriptions/mail-sub"

// PushMessage is the JSON body Pub/Sub posts to push subscribers.
type PushMessage struct {
	Message struct {
		Data        string            `json:"data"` // base64
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// NewPushMessage wraps a notification the way Pub/Sub push delivers it.
func NewPushMessage(n entity.Notification, now time.Time) (*PushMessage, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	m := &PushMessage{Subscription: localSubscription}
	m.Message.Data = base64.StdEncoding.EncodeToString(data)
	m.Message.MessageID = uuid.NewString()
	m.Message.PublishTime = now.UTC().Format(time.RFC3339)
	if n.RequestID != "" {
		m.Message.Attributes = map[string]string{AttributeRequestID: n.RequestID}
	}

	return m, nil
}

// DecodeNotification extracts the notification carried by a push message. The request id
// attribute fills in for a payload without one.
func (m *PushMessage) DecodeNotification() (entity.Notification, error) {
	var n entity.Notification

	data, err := base64.StdEncoding.DecodeString(m.Message.Data)
	if err != nil {
		return n, errors.Wrap(err, "failed to decode message data")
	}
	if err := json.Unmarshal(data, &n); err != nil {
		return n, errors.Wrap(err, "failed to parse notification")
	}
	if n.RequestID == "" {
		n.RequestID = m.Message.Attributes[AttributeRequestID]
	}

	return n, nil
}
