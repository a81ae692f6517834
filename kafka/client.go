package kafka

import (
	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
)

type Config struct {
	Brokers        []string
	Name           string
	Topics         []string
	RecordsPerPoll int
}

// NewClient creates the single Kafka client of a service. It joins the consumer
// group only when topics are configured; a client without topics only produces.
func NewClient(conf *Config, metrics *kprom.Metrics) (*kgo.Client, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(conf.Brokers...),
		kgo.ClientID(conf.Name),
		kgo.WithHooks(metrics),
		kgo.AllowAutoTopicCreation(),
	}

	if len(conf.Topics) > 0 {
		opts = append(opts,
			kgo.ConsumerGroup(conf.Name),
			kgo.ConsumeTopics(conf.Topics...),
			kgo.DisableAutoCommit(),
			kgo.BlockRebalanceOnPoll(),
		)
	}

	return kgo.NewClient(opts...)
}
