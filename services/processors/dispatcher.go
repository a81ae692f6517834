package processors

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	// Local Packages
	errors "cardflow/errors"
	models "cardflow/models"

	// External Packages
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 32

// Handler processes one record. An error sends the record to the dead letter queue.
type Handler func(ctx context.Context, record models.Record) error

type DeadLetterQueue interface {
	Send(ctx context.Context, records []models.FailedRecord) error
}

// Dispatcher routes polled records to the handler registered for their topic.
// Records sharing a key are handled in order; different keys run concurrently.
type Dispatcher struct {
	Logger      *zap.Logger
	DLQ         DeadLetterQueue
	Concurrency int
	Now         func() time.Time

	handlers map[string]Handler
}

func NewDispatcher(logger *zap.Logger, dlq DeadLetterQueue) *Dispatcher {
	return &Dispatcher{
		Logger:      logger,
		DLQ:         dlq,
		Concurrency: defaultConcurrency,
		Now:         time.Now,
		handlers:    make(map[string]Handler),
	}
}

func (d *Dispatcher) Handle(topic string, handler Handler) {
	d.handlers[topic] = handler
}

// Topics returns the registered topics in a stable order.
func (d *Dispatcher) Topics() []string {
	topics := make([]string, 0, len(d.handlers))
	for topic := range d.handlers {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// ProcessRecords handles a polled batch. Handler failures are parked in the dead
// letter queue; only a failure to park them is returned.
func (d *Dispatcher) ProcessRecords(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	var (
		mu     sync.Mutex
		failed []models.FailedRecord
	)

	g := new(errgroup.Group)
	g.SetLimit(d.Concurrency)
	for _, group := range groupByKey(records) {
		g.Go(func() error {
			for _, record := range group {
				if err := d.process(ctx, record); err != nil {
					d.Logger.Error("failed to process record",
						zap.String("topic", record.Topic),
						zap.ByteString("key", record.Key),
						zap.Int64("offset", record.Offset),
						zap.Error(err),
					)
					mu.Lock()
					failed = append(failed, models.FailedRecord{Record: record, Error: err.Error(), FailedAt: d.Now().UTC()})
					mu.Unlock()
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) == 0 {
		return nil
	}
	if d.DLQ == nil {
		return fmt.Errorf("%d records failed and no dead letter queue is configured", len(failed))
	}
	return d.DLQ.Send(ctx, failed)
}

func (d *Dispatcher) process(ctx context.Context, record models.Record) (err error) {
	handler, ok := d.handlers[record.Topic]
	if !ok {
		return errors.E(errors.Invalid, "no handler for topic "+record.Topic, nil)
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.E(errors.Internal, fmt.Sprintf("handler panic: %v", r), nil)
		}
	}()
	return handler(ctx, record)
}

// groupByKey splits records by key, keeping the poll order inside every group.
func groupByKey(records []models.Record) [][]models.Record {
	index := make(map[string]int)
	var groups [][]models.Record
	for _, record := range records {
		key := record.Topic
		if len(record.Key) > 0 {
			key = string(record.Key)
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], record)
	}
	return groups
}

// JSON adapts a typed handler to a record Handler by decoding the record value.
func JSON[T any](fn func(ctx context.Context, msg T) error) Handler {
	return func(ctx context.Context, record models.Record) error {
		var msg T
		if err := json.Unmarshal(record.Value, &msg); err != nil {
			return errors.E(errors.Invalid, "cannot decode "+record.Topic, err)
		}
		return fn(ctx, msg)
	}
}
