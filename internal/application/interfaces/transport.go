package interfaces

import "context"

type Message struct {
	MessageID     string
	Body          string
	Attributes    map[string]string
	ReceiptHandle string
}

// Queue is the inbound transport. The queue address is bound when the adapter is built.
type Queue interface {
	ReceiveMessages(ctx context.Context, maxCount, waitSeconds int32) ([]Message, error)
	DeleteMessage(ctx context.Context, receiptHandle string) error
}

// Topic is the outbound transport; Publish returns the broker-assigned message id.
type Topic interface {
	Publish(ctx context.Context, message string, attributes map[string]string) (string, error)
}

type Archive interface {
	Put(ctx context.Context, key string, body []byte) error
}

// Message attribute names shared by inbound and outbound messages.
const (
	AttrEventType     = "EventType"
	AttrEventID       = "EventId"
	AttrCorrelationID = "CorrelationId"
	AttrPublishedAt   = "PublishedAt"
)
