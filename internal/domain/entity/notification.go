package entity

// Notification is a mail message handed to the dispatcher. It is never persisted.
type Notification struct {
	Subject   string `json:"subject"`
	Recipient string `json:"recipient"`
	Body      string `json:"body"`

	// RequestID ties the delivery logs back to the request that caused it.
	RequestID string `json:"requestId,omitempty"`
}
