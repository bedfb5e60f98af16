package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/schoolyard/schoolyard/application/port/outbound"
)

// Consumer is the single logical audit worker. It pops one message at a
// time, writes it through the audit store and acknowledges it. A failing
// message is redelivered with backoff up to maxAttempts and then moved to
// the dead-letter list; no message can ever take the worker loop down.
// Multiple consumer instances may share the queue: Redis hands each message
// to exactly one of them per delivery, and store writes are idempotent on
// the event ID.
type Consumer struct {
	client      *redis.Client
	store       outbound.AuditStore
	logger      *logrus.Logger
	maxAttempts int
	backoff     time.Duration
	popTimeout  time.Duration
}

func NewConsumer(client *redis.Client, store outbound.AuditStore, logger *logrus.Logger, maxAttempts int, backoff time.Duration) *Consumer {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Consumer{
		client:      client,
		store:       store,
		logger:      logger,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		popTimeout:  5 * time.Second,
	}
}

// Run blocks until ctx is cancelled. Queue connectivity problems are logged
// and retried; they never terminate the loop.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("audit worker started")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := c.client.BRPopLPush(ctx, QueueKey, ProcessingKey, c.popTimeout).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // queue empty
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.WithError(err).Warn("failed to pop from audit queue, retrying")
			if !c.sleep(ctx, c.backoff) {
				return ctx.Err()
			}
			continue
		}

		c.handle(ctx, raw)
	}
}

// handle processes one delivery. The message is always removed from the
// processing list; its fate is persist, requeue or dead-letter.
func (c *Consumer) handle(ctx context.Context, raw string) {
	defer c.ack(ctx, raw)

	var payload auditPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		c.logger.WithError(err).Warn("malformed audit payload, dead-lettering")
		c.deadLetter(ctx, raw)
		return
	}

	err := c.store.Write(ctx, payload.toEvent())
	if err == nil {
		c.logger.WithFields(logrus.Fields{
			"event_id": payload.ID,
			"action":   payload.Action,
			"user_id":  payload.UserID,
		}).Debug("audit event recorded")
		return
	}

	payload.Attempts++
	if payload.Attempts >= c.maxAttempts {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"event_id": payload.ID,
			"attempts": payload.Attempts,
		}).Error("audit event exhausted redelivery, dead-lettering")
		c.deadLetter(ctx, raw)
		return
	}

	c.logger.WithError(err).WithFields(logrus.Fields{
		"event_id": payload.ID,
		"attempts": payload.Attempts,
	}).Warn("audit event write failed, requeueing")

	body, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		c.deadLetter(ctx, raw)
		return
	}
	// RPush places the retry at the pop end, so it redelivers ahead of
	// newer events once its backoff has elapsed.
	if pushErr := c.client.RPush(ctx, QueueKey, body).Err(); pushErr != nil {
		c.logger.WithError(pushErr).WithField("event_id", payload.ID).Error("failed to requeue audit event")
		c.deadLetter(ctx, raw)
		return
	}

	// Exponential per-message backoff before the next delivery attempt.
	c.sleep(ctx, c.backoff<<uint(payload.Attempts-1))
}

func (c *Consumer) ack(ctx context.Context, raw string) {
	if err := c.client.LRem(ctx, ProcessingKey, 1, raw).Err(); err != nil {
		c.logger.WithError(err).Warn("failed to ack audit message")
	}
}

func (c *Consumer) deadLetter(ctx context.Context, raw string) {
	if err := c.client.LPush(ctx, DeadLetterKey, raw).Err(); err != nil {
		c.logger.WithError(err).Error("failed to dead-letter audit message")
	}
}

func (c *Consumer) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
