package config

import (
	// Go Internal Packages
	"testing"
	"time"

	// External Packages
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDefaults(t *testing.T) Config {
	t.Helper()
	k := koanf.New(".")
	require.NoError(t, k.Load(rawbytes.Provider(DefaultConfig), yaml.Parser()))

	var cfg Config
	require.NoError(t, k.Unmarshal("", &cfg))
	return cfg
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := loadDefaults(t)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30*time.Second, cfg.Policy.LockTTL())
	assert.Equal(t, time.Minute, cfg.Policy.FraudWindow())
	assert.Equal(t, 5*time.Minute, cfg.Policy.CacheTTL())
	assert.Equal(t, time.Hour, cfg.Fees.Interval())
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.ElementsMatch(t, []string{"Admin", "User"}, cfg.Auth.Users["admin"].Roles)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Redis.URI = ""
	cfg.Policy.LockTTLSeconds = 0
	cfg.Kafka.Brokers = nil

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.uri cannot be empty")
	assert.Contains(t, err.Error(), "policy.lock_ttl_seconds must be positive")
	assert.Contains(t, err.Error(), "kafka.brokers cannot be empty")
}
