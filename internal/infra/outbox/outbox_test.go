package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "sejour/internal/app/outbox"
)

func record(id, name string) appoutbox.EventRecord {
	return appoutbox.EventRecord{
		ID:         id,
		Name:       name,
		Aggregate:  "agg-1",
		Payload:    []byte(`{"reservation_id":"res-1"}`),
		OccurredAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestStoreStagingAndFlush(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Add(ctx, record("ev-1", "reservation.requested")))
	assert.Equal(t, 0, store.PendingCount(), "staged records are invisible until flush")

	doc, err := store.Claim(ctx, "w1")
	require.NoError(t, err)
	assert.Nil(t, doc, "nothing publishable before flush")

	require.NoError(t, store.Flush(ctx))
	assert.Equal(t, 1, store.PendingCount())

	doc, err = store.Claim(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "ev-1", doc.ID)
	assert.Equal(t, 1, doc.Attempts)
	assert.Equal(t, "w1", doc.ClaimedBy)

	// Claimed documents are not handed out twice.
	doc, err = store.Claim(ctx, "w2")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestStoreMarkSent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Add(ctx, record("ev-1", "reservation.requested")))
	require.NoError(t, store.Flush(ctx))

	doc, err := store.Claim(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, doc)

	require.NoError(t, store.MarkSent(ctx, doc.ID))
	assert.Equal(t, 0, store.PendingCount())
}

func TestStoreMarkFailedRequeuesWithBackoff(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Add(ctx, record("ev-1", "reservation.requested")))
	require.NoError(t, store.Flush(ctx))

	doc, err := store.Claim(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, doc)

	require.NoError(t, store.MarkFailed(ctx, doc.ID, time.Now().Add(time.Hour), "broker down"))
	assert.Equal(t, 1, store.PendingCount())

	// Not due yet.
	doc, err = store.Claim(ctx, "w1")
	require.NoError(t, err)
	assert.Nil(t, doc)

	require.NoError(t, store.MarkFailed(ctx, "ev-1", time.Now().Add(-time.Second), "broker down"))
	doc, err = store.Claim(ctx, "w1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, 2, doc.Attempts)
	assert.Equal(t, "broker down", doc.LastError)
}

type capturingProducer struct {
	topics   []string
	keys     []string
	payloads [][]byte
	headers  []map[string]string
	fail     error
}

func (p *capturingProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.fail != nil {
		return p.fail
	}
	p.topics = append(p.topics, topic)
	p.keys = append(p.keys, key)
	p.payloads = append(p.payloads, payload)
	p.headers = append(p.headers, headers)
	return nil
}

func TestWorkerPublishesCloudEvents(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Add(ctx, record("ev-1", "reservation.requested")))
	require.NoError(t, store.Flush(ctx))

	producer := &capturingProducer{}
	worker := &Worker{Store: store, Producer: producer, ID: "w1"}

	require.NoError(t, worker.processOnce(ctx))
	require.Len(t, producer.payloads, 1)
	assert.Equal(t, "reservation.events.v1", producer.topics[0])
	assert.Equal(t, "agg-1", producer.keys[0])
	assert.Equal(t, "application/cloudevents+json", producer.headers[0]["content-type"])

	var evt map[string]any
	require.NoError(t, json.Unmarshal(producer.payloads[0], &evt))
	assert.Equal(t, "1.0", evt["specversion"])
	assert.Equal(t, "reservation.requested.v1", evt["type"])
	assert.Equal(t, "app://sejour", evt["source"])
	data, ok := evt["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "res-1", data["reservation_id"])

	assert.Equal(t, 0, store.PendingCount())
}

func TestWorkerRetriesOnPublishError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Add(ctx, record("ev-1", "reservation.requested")))
	require.NoError(t, store.Flush(ctx))

	producer := &capturingProducer{fail: errors.New("connection refused")}
	worker := &Worker{
		Store:    store,
		Producer: producer,
		ID:       "w1",
		Backoff:  []time.Duration{-time.Second},
	}

	require.NoError(t, worker.processOnce(ctx))
	assert.Equal(t, 1, store.PendingCount(), "failed publish keeps the document queued")

	// The negative backoff makes the retry due immediately.
	producer.fail = nil
	require.NoError(t, worker.processOnce(ctx))
	assert.Equal(t, 0, store.PendingCount())
	require.Len(t, producer.topics, 1)
}

func TestTopicFor(t *testing.T) {
	w := &Worker{}
	assert.Equal(t, "reservation.events.v1", w.topicFor("reservation.accepted"))
	assert.Equal(t, "calendar.events.v1", w.topicFor("calendar.period_created"))
	assert.Equal(t, "ping.events.v1", w.topicFor("ping"))

	w.TopicPrefix = "dev."
	assert.Equal(t, "dev.reservation.events.v1", w.topicFor("reservation.accepted"))
}
