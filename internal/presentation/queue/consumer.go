package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/Builder-Lawyers/execution-service/internal/application/errs"
	"github.com/Builder-Lawyers/execution-service/internal/application/events"
	"github.com/Builder-Lawyers/execution-service/internal/application/interfaces"
	"github.com/Builder-Lawyers/execution-service/pkg/env"
)

type PaymentConfirmedHandler interface {
	Handle(ctx context.Context, event events.PaymentConfirmed) (bool, error)
}

type OsCanceledHandler interface {
	Handle(ctx context.Context, event events.OsCanceled) (bool, error)
}

type ConsumerConfig struct {
	MaxMessages  int32
	WaitSeconds  int32
	ErrorBackoff time.Duration
}

// SQS accepts 1 to 10 messages per receive and long-polls for at most 20 seconds.
const (
	maxReceiveMessages = 10
	maxWaitSeconds     = 20
)

func NewConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		MaxMessages:  int32(clamp(env.GetInt("SQS_MAX_MESSAGES", maxReceiveMessages), 1, maxReceiveMessages)),
		WaitSeconds:  int32(clamp(env.GetInt("SQS_WAIT_SECONDS", 10), 0, maxWaitSeconds)),
		ErrorBackoff: env.GetDuration("SQS_ERROR_BACKOFF", time.Second),
	}
}

func clamp(value, lo, hi int) int {
	return min(max(value, lo), hi)
}

// Consumer long-polls the billing queue and routes each message to its handler.
// A message is deleted once handled, or when it can never be handled.
type Consumer struct {
	queue            interfaces.Queue
	cfg              ConsumerConfig
	paymentConfirmed PaymentConfirmedHandler
	osCanceled       OsCanceledHandler
	metrics          interfaces.Metrics
}

func NewConsumer(queue interfaces.Queue, cfg ConsumerConfig, paymentConfirmed PaymentConfirmedHandler,
	osCanceled OsCanceledHandler, metrics interfaces.Metrics,
) *Consumer {
	return &Consumer{queue: queue, cfg: cfg, paymentConfirmed: paymentConfirmed, osCanceled: osCanceled, metrics: metrics}
}

func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("Starting queue consumer...")
	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping queue consumer loop")
			return nil
		default:
		}

		if err := c.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			if errs.IsRetryable(err) {
				slog.Warn("transient err receiving from queue, backing off", "err", err)
			} else {
				slog.Error("err receiving from queue", "err", err)
			}
			select {
			case <-ctx.Done():
			case <-time.After(c.cfg.ErrorBackoff):
			}
		}
	}
}

// Poll receives one batch and processes it message by message.
func (c *Consumer) Poll(ctx context.Context) error {
	messages, err := c.queue.ReceiveMessages(ctx, c.cfg.MaxMessages, c.cfg.WaitSeconds)
	if err != nil {
		return err
	}

	// a started batch is finished even when shutdown begins
	workCtx := context.WithoutCancel(ctx)
	for _, msg := range messages {
		c.process(workCtx, msg)
	}
	return nil
}

func (c *Consumer) process(ctx context.Context, msg interfaces.Message) {
	envelope, err := Decode(msg)
	if err != nil {
		slog.Error("dropping undecodable message", "messageId", msg.MessageID, "err", err)
		c.metrics.MessageConsumed(ctx, events.KindUnknown.String(), interfaces.OutcomeDropped)
		c.delete(ctx, msg)
		return
	}

	log := slog.With("messageId", msg.MessageID, "eventId", envelope.EventID,
		"type", envelope.EventType, "correlationId", envelope.CorrelationID)
	log.Debug("msg received from queue")

	var duplicate bool
	switch envelope.Kind {
	case events.KindPaymentConfirmed:
		var event events.PaymentConfirmed
		if event, err = envelope.PaymentConfirmed(); err == nil {
			duplicate, err = c.paymentConfirmed.Handle(ctx, event)
		}
	case events.KindOsCanceled:
		var event events.OsCanceled
		if event, err = envelope.OsCanceled(); err == nil {
			duplicate, err = c.osCanceled.Handle(ctx, event)
		}
	default:
		log.Warn("unknown event type, dropping message")
		c.metrics.MessageConsumed(ctx, envelope.EventType, interfaces.OutcomeDropped)
		c.delete(ctx, msg)
		return
	}

	switch {
	case errs.IsPoison(err):
		log.Error("dropping poison message", "err", err)
		c.metrics.MessageConsumed(ctx, envelope.EventType, interfaces.OutcomeDropped)
		c.delete(ctx, msg)
	case err != nil:
		// left on the queue; redelivered after the visibility timeout
		log.Error("err handling message", "err", err)
		c.metrics.MessageConsumed(ctx, envelope.EventType, interfaces.OutcomeFailed)
	case duplicate:
		c.metrics.MessageConsumed(ctx, envelope.EventType, interfaces.OutcomeDuplicate)
		c.delete(ctx, msg)
	default:
		c.metrics.MessageConsumed(ctx, envelope.EventType, interfaces.OutcomeHandled)
		c.delete(ctx, msg)
	}
}

func (c *Consumer) delete(ctx context.Context, msg interfaces.Message) {
	if err := c.queue.DeleteMessage(ctx, msg.ReceiptHandle); err != nil {
		slog.Error("err deleting message", "messageId", msg.MessageID, "err", err)
	}
}
