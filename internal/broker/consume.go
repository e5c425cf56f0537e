package broker

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// PoisonPillError marks a message as structurally unrecoverable: the
// consume loop calls msg.Term() on these (never redelivered) instead of
// msg.Nak() (redelivered after back-off). Ground: apps/audit-service's
// globalPoisonPillError / apps/trm-service's poisonPillError.
type PoisonPillError struct{ Msg string }

func (e *PoisonPillError) Error() string { return "poison pill: " + e.Msg }

// Handler processes one message's payload. Returning nil acks the
// message; returning a *PoisonPillError terminates it; any other error
// naks it for redelivery.
type Handler func(ctx context.Context, subject string, data []byte) error

// ConsumeOpts configures a durable pull subscription.
type ConsumeOpts struct {
	Subject      string
	Durable      string
	FetchBatch   int
	FetchTimeout time.Duration
	BindStream   string
}

// Consume creates a durable pull subscription and runs Fetch-dispatch-ack
// in a background goroutine until ctx is cancelled. It returns once the
// subscription is established; the goroutine owns its own lifetime.
// Ground: apps/notification-service/internal/consumer/event_consumer.go
// and apps/audit-service/internal/consumer/global_audit_consumer.go.
func (c *Client) Consume(ctx context.Context, opts ConsumeOpts, handle Handler) error {
	if opts.FetchBatch <= 0 {
		opts.FetchBatch = 10
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 5 * time.Second
	}

	subOpts := []nats.SubOpt{nats.AckExplicit(), nats.ManualAck()}
	if opts.BindStream != "" {
		subOpts = append(subOpts, nats.BindStream(opts.BindStream))
	}

	sub, err := c.JS.PullSubscribe(opts.Subject, opts.Durable, subOpts...)
	if err != nil {
		return err
	}

	c.Log.Info("consumer started",
		zap.String("subject", opts.Subject),
		zap.String("durable", opts.Durable),
	)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.Log.Info("consumer stopping", zap.String("durable", opts.Durable))
				return
			default:
			}

			msgs, err := sub.Fetch(opts.FetchBatch, nats.MaxWait(opts.FetchTimeout))
			if err != nil {
				if err == nats.ErrTimeout {
					continue
				}
				c.Log.Error("fetch error", zap.String("durable", opts.Durable), zap.Error(err))
				continue
			}

			for _, msg := range msgs {
				c.dispatch(ctx, msg, handle)
			}
		}
	}()

	return nil
}

func (c *Client) dispatch(ctx context.Context, msg *nats.Msg, handle Handler) {
	err := handle(ctx, msg.Subject, msg.Data)
	if err == nil {
		msg.Ack()
		return
	}

	if ppe, ok := err.(*PoisonPillError); ok {
		c.Log.Warn("terminating poison-pill message",
			zap.String("subject", msg.Subject), zap.Error(ppe))
		msg.Term()
		return
	}

	c.Log.Error("nak message (transient error)",
		zap.String("subject", msg.Subject), zap.Error(err))
	msg.Nak()
}
