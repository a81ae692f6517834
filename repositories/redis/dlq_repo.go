package redis

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"

	// Local Packages
	errors "cardflow/errors"
	models "cardflow/models"

	// External Packages
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type DeadLetterQueue struct {
	client   *redis.Client
	logger   *zap.Logger
	listName string
}

func NewDeadLetterQueue(client *redis.Client, logger *zap.Logger, listName string) *DeadLetterQueue {
	return &DeadLetterQueue{client: client, logger: logger, listName: listName}
}

// Send appends the failed records to the dead letter list. A record that cannot be
// stored is logged and skipped so the rest of the batch still lands, and Send then
// fails so the caller does not treat the batch as parked.
func (q *DeadLetterQueue) Send(ctx context.Context, records []models.FailedRecord) error {
	if len(records) == 0 {
		return nil
	}

	successCount := 0
	for _, record := range records {
		jsonData, err := json.Marshal(record)
		if err != nil {
			q.logger.Error("failed to marshal record", zap.Error(err))
			continue
		}

		err = q.client.RPush(ctx, q.listName, jsonData).Err()
		if err != nil {
			q.logger.Error("failed to store record",
				zap.String("topic", record.Record.Topic),
				zap.ByteString("key", record.Record.Key),
				zap.Error(err),
			)
			continue
		}
		successCount++
	}

	if successCount > 0 {
		q.logger.Info("sent records to dead letter queue", zap.Int("count", successCount), zap.String("list", q.listName))
	}
	if successCount < len(records) {
		msg := fmt.Sprintf("stored %d of %d failed records in %s", successCount, len(records), q.listName)
		return errors.E(errors.Internal, msg, nil)
	}
	return nil
}
