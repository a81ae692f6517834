package processors

import (
	// Go Internal Packages
	"context"
	"sync"
	"testing"

	// Local Packages
	errors "cardflow/errors"
	models "cardflow/models"
	redisrepo "cardflow/repositories/redis"

	// External Packages
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryDLQ struct {
	mu      sync.Mutex
	records []models.FailedRecord
}

func (q *memoryDLQ) Send(_ context.Context, records []models.FailedRecord) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.records = append(q.records, records...)
	return nil
}

func TestDispatcherKeepsOrderWithinKey(t *testing.T) {
	d := NewDispatcher(zap.NewNop(), &memoryDLQ{})

	var mu sync.Mutex
	seen := map[string][]string{}
	d.Handle("a", func(_ context.Context, r models.Record) error {
		mu.Lock()
		defer mu.Unlock()
		seen[string(r.Key)] = append(seen[string(r.Key)], string(r.Value))
		return nil
	})

	records := []models.Record{
		{Topic: "a", Key: []byte("k1"), Value: []byte("1")},
		{Topic: "a", Key: []byte("k2"), Value: []byte("1")},
		{Topic: "a", Key: []byte("k1"), Value: []byte("2")},
		{Topic: "a", Key: []byte("k1"), Value: []byte("3")},
		{Topic: "a", Key: []byte("k2"), Value: []byte("2")},
	}
	require.NoError(t, d.ProcessRecords(context.Background(), records))

	assert.Equal(t, []string{"1", "2", "3"}, seen["k1"])
	assert.Equal(t, []string{"1", "2"}, seen["k2"])
}

func TestDispatcherParksFailures(t *testing.T) {
	dlq := &memoryDLQ{}
	d := NewDispatcher(zap.NewNop(), dlq)
	d.Handle("ok", func(context.Context, models.Record) error { return nil })
	d.Handle("bad", func(context.Context, models.Record) error { return errors.New("boom") })
	d.Handle("panics", func(context.Context, models.Record) error { panic("kaboom") })

	records := []models.Record{
		{Topic: "ok", Key: []byte("1")},
		{Topic: "bad", Key: []byte("2")},
		{Topic: "panics", Key: []byte("3")},
		{Topic: "unknown", Key: []byte("4")},
	}
	require.NoError(t, d.ProcessRecords(context.Background(), records))

	require.Len(t, dlq.records, 3)
	topics := []string{}
	for _, r := range dlq.records {
		topics = append(topics, r.Record.Topic)
		assert.NotEmpty(t, r.Error)
	}
	assert.ElementsMatch(t, []string{"bad", "panics", "unknown"}, topics)
}

func TestJSONHandler(t *testing.T) {
	var got models.TransactionCompleted
	handler := JSON(func(_ context.Context, msg models.TransactionCompleted) error {
		got = msg
		return nil
	})

	err := handler(context.Background(), models.Record{Value: []byte(`{"transaction_id":"7d444840-9dc0-11d1-b245-5ffdce74fad2"}`)})
	require.NoError(t, err)
	assert.Equal(t, "7d444840-9dc0-11d1-b245-5ffdce74fad2", got.TransactionID.String())

	err = handler(context.Background(), models.Record{Topic: "TransactionCompleted", Value: []byte(`{`)})
	assert.True(t, errors.IsKind(err, errors.Invalid))
}

func TestTopicsSorted(t *testing.T) {
	d := NewDispatcher(zap.NewNop(), nil)
	d.Handle("b", nil)
	d.Handle("a", nil)
	assert.Equal(t, []string{"a", "b"}, d.Topics())
}

func TestDispatcherFailsBatchWhenFailuresCannotBeParked(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client, err := redisrepo.Connect(ctx, mr.Addr(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	d := NewDispatcher(zap.NewNop(), redisrepo.NewDeadLetterQueue(client, zap.NewNop(), "dlq"))
	d.Handle(models.TopicRefundRequested, func(context.Context, models.Record) error { return errors.New("refund rejected") })
	d.Handle(models.TopicTransactionCompleted, func(context.Context, models.Record) error { return nil })

	refund := models.Record{Topic: models.TopicRefundRequested, Key: []byte("tx-1"), Value: []byte(`{}`)}
	require.NoError(t, d.ProcessRecords(ctx, []models.Record{refund}))
	list, err := mr.List("dlq")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	mr.Close()
	assert.Error(t, d.ProcessRecords(ctx, []models.Record{refund}))
	assert.NoError(t, d.ProcessRecords(ctx, []models.Record{{Topic: models.TopicTransactionCompleted, Key: []byte("tx-2")}}))
}
