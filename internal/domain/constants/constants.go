// Package constants holds configuration values shared across layers.
package constants

// Mail transports decide how the API hands a notification off after it leaves the in-process queue.
const (
	MailTransportDirect = "direct" // deliver with the configured sender
	MailTransportPubSub = "pubsub" // publish to Google Pub/Sub for the mail worker
	MailTransportHTTP   = "http"   // push to a local mail worker endpoint
)

// Mail senders perform the final delivery.
const (
	MailSenderSMTP = "smtp"
	MailSenderLog  = "log"
)
