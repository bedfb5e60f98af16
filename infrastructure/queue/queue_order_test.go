package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolyard/schoolyard/domain/entity"
)

func newMiniredisClient(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func TestPublishEnqueues(t *testing.T) {
	client := newMiniredisClient(t)
	defer client.Close()

	producer := NewProducer(client, testLogger(), 3, time.Millisecond)
	event := entity.NewAuditEvent("u1", "t1", entity.ActionUserLogin, entity.AuditStatusSuccess)

	assert.True(t, producer.Publish(context.Background(), event))

	length, err := client.LLen(context.Background(), QueueKey).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 1, length)
}

func TestQueueDeliversOldestFirst(t *testing.T) {
	client := newMiniredisClient(t)
	defer client.Close()

	producer := NewProducer(client, testLogger(), 3, time.Millisecond)

	first := entity.NewAuditEvent("u1", "t1", entity.ActionUserLogin, entity.AuditStatusFailure)
	second := entity.NewAuditEvent("u2", "t1", entity.ActionUserLogin, entity.AuditStatusFailure)
	require.True(t, producer.Publish(context.Background(), first))
	require.True(t, producer.Publish(context.Background(), second))

	store := &stubStore{}
	consumer := newTestConsumer(client, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.written) == 2
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, first.ID, store.written[0].ID, "the oldest published event must be delivered first")
	assert.Equal(t, second.ID, store.written[1].ID)
}

func TestQueueAcksProcessedMessages(t *testing.T) {
	client := newMiniredisClient(t)
	defer client.Close()

	producer := NewProducer(client, testLogger(), 3, time.Millisecond)
	event := entity.NewAuditEvent("u1", "t1", entity.ActionUserLogin, entity.AuditStatusSuccess)
	require.True(t, producer.Publish(context.Background(), event))

	store := &stubStore{}
	consumer := newTestConsumer(client, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.written) == 1
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	processing, err := client.LLen(context.Background(), ProcessingKey).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 0, processing, "an acked message must leave the processing list")
}
