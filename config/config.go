package config

import (
	// Go Internal Packages
	"time"

	// Local Packages
	errors "cardflow/errors"
)

var DefaultConfig = []byte(`
application: "cardflow"

logger:
  level: "debug"

is_prod_mode: false

http:
  addr: ":8080"

mongo:
  uri: "mongodb://localhost:27017/?replicaSet=rs0"
  database: "cardflow"

redis:
  uri: "localhost:6379"
  password: ""
  dlq_list: "cardflow:dlq"

kafka:
  brokers:
    - "localhost:9092"
  consumer_name: "cardflow"
  records_per_poll: 500

policy:
  cache_ttl_seconds: 300
  lock_ttl_seconds: 30
  fraud_window_seconds: 60
  fee_ttl_seconds: 7200

fees:
  interval_seconds: 3600

auth:
  jwt_secret: "dev-secret-change-me"
  issuer: "cardflow"
  token_ttl_minutes: 30
  internal_api_key: "dev-internal-key"
  users:
    admin:
      password: "password"
      roles: ["Admin", "User"]

services:
  card_management_url: "http://localhost:8081"
`)

// SecretEnv maps the environment variables that override secrets and endpoints
// to their configuration keys.
var SecretEnv = map[string]string{
	"MONGO_URI":        "mongo.uri",
	"REDIS_URI":        "redis.uri",
	"REDIS_PASSWORD":   "redis.password",
	"KAFKA_BROKERS":    "kafka.brokers",
	"JWT_SECRET":       "auth.jwt_secret",
	"INTERNAL_API_KEY": "auth.internal_api_key",
	"IS_PROD_MODE":     "is_prod_mode",
}

type Config struct {
	Application string   `koanf:"application"`
	Logger      Logger   `koanf:"logger"`
	IsProdMode  bool     `koanf:"is_prod_mode"`
	HTTP        HTTP     `koanf:"http"`
	Mongo       Mongo    `koanf:"mongo"`
	Redis       Redis    `koanf:"redis"`
	Kafka       Kafka    `koanf:"kafka"`
	Policy      Policy   `koanf:"policy"`
	Fees        Fees     `koanf:"fees"`
	Auth        Auth     `koanf:"auth"`
	Services    Services `koanf:"services"`
}

type Logger struct {
	Level string `koanf:"level"`
}

type HTTP struct {
	Addr string `koanf:"addr"`
}

type Mongo struct {
	URI      string `koanf:"uri"`
	Database string `koanf:"database"`
}

type Redis struct {
	URI      string `koanf:"uri"`
	Password string `koanf:"password"`
	DLQList  string `koanf:"dlq_list"`
}

type Kafka struct {
	Brokers        []string `koanf:"brokers"`
	ConsumerName   string   `koanf:"consumer_name"`
	RecordsPerPoll int      `koanf:"records_per_poll"`
}

// Policy holds the saga tunables. None of them are invariants of the design.
type Policy struct {
	CacheTTLSeconds    int `koanf:"cache_ttl_seconds"`
	LockTTLSeconds     int `koanf:"lock_ttl_seconds"`
	FraudWindowSeconds int `koanf:"fraud_window_seconds"`
	FeeTTLSeconds      int `koanf:"fee_ttl_seconds"`
}

func (p Policy) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLSeconds) * time.Second
}

func (p Policy) LockTTL() time.Duration {
	return time.Duration(p.LockTTLSeconds) * time.Second
}

func (p Policy) FraudWindow() time.Duration {
	return time.Duration(p.FraudWindowSeconds) * time.Second
}

func (p Policy) FeeTTL() time.Duration {
	return time.Duration(p.FeeTTLSeconds) * time.Second
}

type Fees struct {
	IntervalSeconds int `koanf:"interval_seconds"`
}

func (f Fees) Interval() time.Duration {
	return time.Duration(f.IntervalSeconds) * time.Second
}

type Auth struct {
	JWTSecret       string          `koanf:"jwt_secret"`
	Issuer          string          `koanf:"issuer"`
	TokenTTLMinutes int             `koanf:"token_ttl_minutes"`
	InternalAPIKey  string          `koanf:"internal_api_key"`
	Users           map[string]User `koanf:"users"`
}

func (a Auth) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

type User struct {
	Password string   `koanf:"password"`
	Roles    []string `koanf:"roles"`
}

type Services struct {
	CardManagementURL string `koanf:"card_management_url"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	ve := errors.ValidationErrs()

	if c.Application == "" {
		ve.Add("application", "cannot be empty")
	}
	if c.Logger.Level == "" {
		ve.Add("logger.level", "cannot be empty")
	}
	if c.HTTP.Addr == "" {
		ve.Add("http.addr", "cannot be empty")
	}
	if c.Mongo.URI == "" {
		ve.Add("mongo.uri", "cannot be empty")
	}
	if c.Mongo.Database == "" {
		ve.Add("mongo.database", "cannot be empty")
	}
	if c.Redis.URI == "" {
		ve.Add("redis.uri", "cannot be empty")
	}
	if len(c.Kafka.Brokers) == 0 {
		ve.Add("kafka.brokers", "cannot be empty")
	}
	if c.Kafka.RecordsPerPoll <= 0 {
		ve.Add("kafka.records_per_poll", "must be positive")
	}
	if c.Policy.CacheTTLSeconds <= 0 {
		ve.Add("policy.cache_ttl_seconds", "must be positive")
	}
	if c.Policy.LockTTLSeconds <= 0 {
		ve.Add("policy.lock_ttl_seconds", "must be positive")
	}
	if c.Policy.FraudWindowSeconds <= 0 {
		ve.Add("policy.fraud_window_seconds", "must be positive")
	}
	if c.Policy.FeeTTLSeconds <= 0 {
		ve.Add("policy.fee_ttl_seconds", "must be positive")
	}
	if c.Fees.IntervalSeconds <= 0 {
		ve.Add("fees.interval_seconds", "must be positive")
	}
	if c.Auth.JWTSecret == "" {
		ve.Add("auth.jwt_secret", "cannot be empty")
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		ve.Add("auth.token_ttl_minutes", "must be positive")
	}

	return ve.Err()
}
