package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/schoolyard/schoolyard/application/port/outbound"
	"github.com/schoolyard/schoolyard/domain/entity"
)

// Producer enqueues audit events onto the durable Redis queue. Publishing is
// fire-and-forget: when the queue is unreachable the event is written to the
// local log instead, and the caller's request is never failed or delayed
// beyond the bounded retry budget.
type Producer struct {
	client   *redis.Client
	logger   *logrus.Logger
	attempts int
	backoff  time.Duration
}

func NewProducer(client *redis.Client, logger *logrus.Logger, attempts int, backoff time.Duration) outbound.AuditPublisher {
	if attempts <= 0 {
		attempts = 3
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	return &Producer{
		client:   client,
		logger:   logger,
		attempts: attempts,
		backoff:  backoff,
	}
}

// Publish reports whether the event reached the queue. It never returns an
// error and never panics; exhausting the retry budget downgrades the event
// to local diagnostic logging.
func (p *Producer) Publish(ctx context.Context, event *entity.AuditEvent) bool {
	body, err := json.Marshal(payloadFrom(event))
	if err != nil {
		p.logFallback(event, err)
		return false
	}

	delay := p.backoff
	for attempt := 1; ; attempt++ {
		// LPush pairs with the consumer's BRPopLPush from the right end,
		// so delivery is oldest-first.
		err = p.client.LPush(ctx, QueueKey, body).Err()
		if err == nil {
			return true
		}
		if attempt >= p.attempts {
			break
		}

		select {
		case <-ctx.Done():
			p.logFallback(event, ctx.Err())
			return false
		case <-time.After(delay):
		}
		delay *= 2
	}

	p.logFallback(event, err)
	return false
}

// logFallback records the event to local diagnostics so it is not silently
// dropped while the queue is unreachable.
func (p *Producer) logFallback(event *entity.AuditEvent, err error) {
	p.logger.WithError(err).WithFields(logrus.Fields{
		"event_id":  event.ID,
		"tenant_id": event.TenantID,
		"user_id":   event.UserID,
		"action":    event.Action,
		"status":    event.Status,
		"details":   event.Details,
	}).Warn("audit event not enqueued, recorded to local log only")
}
