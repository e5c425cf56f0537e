// Package broker adapts the CDR pipeline's stage processes to NATS
// JetStream, the partitioned log broker described in spec.md §6. It is
// grounded on packages/go-core/natsclient from the teacher monorepo,
// generalized from a single DOMAIN_EVENTS stream to the pipeline's
// cdr.* topic hierarchy.
package broker

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Client wraps a NATS connection and its JetStream context.
type Client struct {
	Conn *nats.Conn
	JS   nats.JetStreamContext
	Log  *zap.Logger
}

// NewClient connects to NATS and initializes a JetStream context. The
// connection retries indefinitely on failure (spec.md §4.1: "Broker
// transient errors trigger a bounded backoff and retry indefinitely").
func NewClient(url string, logger *zap.Logger) (*Client, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(1*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("initialize JetStream: %w", err)
	}

	logger.Info("NATS JetStream connected", zap.String("url", url))
	return &Client{Conn: nc, JS: js, Log: logger}, nil
}

// Close drains and closes the underlying NATS connection, flushing any
// in-flight publishes before the process exits.
func (c *Client) Close() {
	if c.Conn == nil {
		return
	}
	if err := c.Conn.Drain(); err != nil {
		c.Conn.Close()
	}
}

// PublishWithRetry publishes data to subject, retrying transient errors
// with a 1-5s bounded backoff per spec.md §5 ("Cancellation & timeouts").
// It takes no context and keeps retrying until the publish succeeds.
func (c *Client) PublishWithRetry(subject string, data []byte) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 0 // retry indefinitely, per spec.md §4.1

	op := func() error {
		_, err := c.JS.Publish(subject, data)
		if err != nil {
			c.Log.Warn("publish failed, retrying", zap.String("subject", subject), zap.Error(err))
		}
		return err
	}
	return backoff.Retry(op, bo)
}
