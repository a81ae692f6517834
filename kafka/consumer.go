package kafka

import (
	// Go Internal Packages
	"context"
	"errors"
	"time"

	// Local Packages
	models "cardflow/models"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// retryBackoff spaces out the redelivery of a batch the processor refused.
const retryBackoff = time.Second

type Consumer struct {
	Client    *kgo.Client
	Config    *Config
	Processor RecordProcessor
	Logger    *zap.Logger
}

type RecordProcessor interface {
	ProcessRecords(ctx context.Context, records []models.Record) error
}

func NewConsumer(client *kgo.Client, conf *Config, processor RecordProcessor, logger *zap.Logger) *Consumer {
	return &Consumer{Client: client, Config: conf, Processor: processor, Logger: logger}
}

// Poll consumes the configured topics until ctx is canceled. Offsets are committed
// only after the processor accepted the whole batch; a refused batch is fetched
// again from its first offset on every partition.
func (c *Consumer) Poll(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			c.Logger.Warn("polling stopped: context canceled")
			return ctx.Err()
		}

		fetches := c.Client.PollRecords(ctx, c.Config.RecordsPerPoll)
		if fetches.IsClientClosed() {
			return errors.New("kafka client closed")
		}
		if errors.Is(fetches.Err0(), context.Canceled) {
			return ctx.Err()
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			c.Logger.Error("fetch error", zap.String("topic", topic), zap.Int32("partition", partition), zap.Error(err))
		})

		records := toRecords(fetches.Records())
		if len(records) == 0 {
			c.Client.AllowRebalance()
			continue
		}

		if err := c.Processor.ProcessRecords(ctx, records); err != nil {
			c.Logger.Error("failed to process records, rewinding batch", zap.Int("count", len(records)), zap.Error(err))
			c.Client.SetOffsets(rewindOffsets(fetches.Records()))
			c.Client.AllowRebalance()

			select {
			case <-ctx.Done():
			case <-time.After(retryBackoff):
			}
			continue
		}

		if err := c.Client.CommitRecords(ctx, fetches.Records()...); err != nil {
			c.Logger.Error("failed to commit records", zap.Error(err))
		}
		c.Client.AllowRebalance()
	}
}

func toRecords(fetched []*kgo.Record) []models.Record {
	records := make([]models.Record, len(fetched))
	for idx, record := range fetched {
		records[idx] = models.Record{
			Key:       record.Key,
			Value:     record.Value,
			Topic:     record.Topic,
			Partition: record.Partition,
			Offset:    record.Offset,
		}
	}
	return records
}

// rewindOffsets returns the offset of the first fetched record of every partition.
func rewindOffsets(fetched []*kgo.Record) map[string]map[int32]kgo.EpochOffset {
	offsets := make(map[string]map[int32]kgo.EpochOffset)
	for _, record := range fetched {
		partitions, ok := offsets[record.Topic]
		if !ok {
			partitions = make(map[int32]kgo.EpochOffset)
			offsets[record.Topic] = partitions
		}
		if _, seen := partitions[record.Partition]; seen {
			continue
		}
		partitions[record.Partition] = kgo.EpochOffset{Epoch: record.LeaderEpoch, Offset: record.Offset}
	}
	return offsets
}
