package kafka

import (
	// Go Internal Packages
	"context"
	"encoding/json"

	// Local Packages
	models "cardflow/models"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

type Producer struct {
	Client *kgo.Client
	Logger *zap.Logger
}

func NewProducer(client *kgo.Client, logger *zap.Logger) *Producer {
	return &Producer{Client: client, Logger: logger}
}

// Publish writes event to the topic named after its type and waits for the ack.
func (p *Producer) Publish(ctx context.Context, event models.Event) error {
	record, err := newRecord(event)
	if err != nil {
		return err
	}

	if err = p.Client.ProduceSync(ctx, record).FirstErr(); err != nil {
		p.Logger.Error("failed to publish event", zap.String("topic", record.Topic), zap.String("key", event.Key()), zap.Error(err))
		return err
	}
	p.Logger.Debug("published event", zap.String("topic", record.Topic), zap.String("key", event.Key()))
	return nil
}

func newRecord(event models.Event) (*kgo.Record, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return &kgo.Record{Topic: event.Topic(), Key: []byte(event.Key()), Value: value}, nil
}
