package main

import (
	// Go Internal Packages
	"context"
	"errors"
	"net/http"
	"time"

	// Local Packages
	api "cardflow/api"
	cardsclient "cardflow/clients/cards"
	config "cardflow/config"
	kafka "cardflow/kafka"
	mongodb "cardflow/repositories/mongodb"
	redis "cardflow/repositories/redis"
	"cardflow/services/authorization"
	"cardflow/services/cards"
	"cardflow/services/fees"
	"cardflow/services/processors"
	"cardflow/services/transactions"

	// External Packages
	goredis "github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// service holds what every sub-command shares: configuration, logger and the
// Kafka client metrics.
type service struct {
	name    string
	conf    config.Config
	logger  *zap.Logger
	metrics *kprom.Metrics
}

func newService(name string, conf config.Config, logger *zap.Logger) *service {
	return &service{name: name, conf: conf, logger: logger, metrics: kprom.NewMetrics("cardflow")}
}

func (s *service) runCards(ctx context.Context) error {
	mongoClient, err := s.connectMongo(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	redisClient, err := s.connectRedis(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	db := s.conf.Mongo.Database
	cache := redis.NewCache(redisClient)
	producer := kafka.NewProducer(nil, s.logger)
	feeReader := fees.NewReader(mongodb.NewFeeRepository(mongoClient, db), cache, s.conf.Policy.FeeTTL())
	cardService := cards.NewService(s.logger, mongodb.NewCardRepository(mongoClient, db), cache, feeReader, producer, s.conf.Policy.CacheTTL())

	dispatcher := processors.NewDispatcher(s.logger, redis.NewDeadLetterQueue(redisClient, s.logger, s.conf.Redis.DLQList))
	processors.RegisterCardHandlers(dispatcher, cardService, feeReader)

	auth := api.NewAuthenticator(s.conf.Auth)
	router := s.router(auth, api.NewCardsAPI(cardService, auth, cardsclient.APIKeyHeader, s.conf.Auth.InternalAPIKey))
	return s.run(ctx, dispatcher, producer, router)
}

func (s *service) runTransactions(ctx context.Context) error {
	mongoClient, err := s.connectMongo(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	redisClient, err := s.connectRedis(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	producer := kafka.NewProducer(nil, s.logger)
	processor := transactions.NewTxProcessor(s.logger, mongodb.NewTxRepository(mongoClient, s.conf.Mongo.Database), redis.NewLockManager(redisClient), producer)

	dispatcher := processors.NewDispatcher(s.logger, redis.NewDeadLetterQueue(redisClient, s.logger, s.conf.Redis.DLQList))
	processors.RegisterTransactionHandlers(dispatcher, processor)
	return s.run(ctx, dispatcher, producer, s.router(nil))
}

func (s *service) runAuthorization(ctx context.Context) error {
	mongoClient, err := s.connectMongo(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	redisClient, err := s.connectRedis(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	db := s.conf.Mongo.Database
	cache := redis.NewCache(redisClient)
	producer := kafka.NewProducer(nil, s.logger)
	directory := cardsclient.NewClient(s.conf.Services.CardManagementURL, s.conf.Auth.InternalAPIKey)
	gate := authorization.NewGate(s.logger, mongodb.NewAuthRepository(mongoClient, db), directory, cache, s.conf.Policy.CacheTTL())
	authorizer := &authorization.Authorizer{
		Logger:    s.logger,
		Gate:      gate,
		Locks:     redis.NewLockManager(redisClient),
		Fraud:     redis.NewFraudGuard(redisClient, s.logger),
		Fees:      fees.NewReader(mongodb.NewFeeRepository(mongoClient, db), cache, s.conf.Policy.FeeTTL()),
		Cache:     cache,
		Cards:     directory,
		Publisher: producer,
		Policy:    s.conf.Policy,
	}

	dispatcher := processors.NewDispatcher(s.logger, redis.NewDeadLetterQueue(redisClient, s.logger, s.conf.Redis.DLQList))
	processors.RegisterAuthorizationHandlers(dispatcher, gate)

	auth := api.NewAuthenticator(s.conf.Auth)
	router := s.router(auth, api.NewAuthorizationAPI(authorizer, gate, auth))
	return s.run(ctx, dispatcher, producer, router)
}

// runFees only produces; it has no topics to consume.
func (s *service) runFees(ctx context.Context) error {
	mongoClient, err := s.connectMongo(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	client, err := s.kafkaClient(nil)
	if err != nil {
		return err
	}
	defer client.Close()

	updater := fees.NewUpdater(s.logger, mongodb.NewFeeRepository(mongoClient, s.conf.Mongo.Database), kafka.NewProducer(client, s.logger), s.conf.Fees.Interval())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return updater.Run(ctx) })
	g.Go(func() error { return s.serve(ctx, s.router(nil)) })
	return g.Wait()
}

// run attaches one Kafka client to both the producer and the consumer of the
// dispatcher topics, then polls and serves HTTP until ctx is done.
func (s *service) run(ctx context.Context, dispatcher *processors.Dispatcher, producer *kafka.Producer, router http.Handler) error {
	client, err := s.kafkaClient(dispatcher.Topics())
	if err != nil {
		return err
	}
	defer client.Close()
	producer.Client = client

	conf := &kafka.Config{
		Brokers:        s.conf.Kafka.Brokers,
		Name:           s.consumerName(),
		Topics:         dispatcher.Topics(),
		RecordsPerPoll: s.conf.Kafka.RecordsPerPoll,
	}
	consumer := kafka.NewConsumer(client, conf, dispatcher, s.logger)

	s.logger.Info("starting service", zap.Strings("topics", conf.Topics), zap.String("addr", s.conf.HTTP.Addr))
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return consumer.Poll(ctx) })
	g.Go(func() error { return s.serve(ctx, router) })
	return g.Wait()
}

func (s *service) kafkaClient(topics []string) (*kgo.Client, error) {
	client, err := kafka.NewClient(&kafka.Config{
		Brokers: s.conf.Kafka.Brokers,
		Name:    s.consumerName(),
		Topics:  topics,
	}, s.metrics)
	if err != nil {
		s.logger.Error("cannot create kafka client", zap.Error(err))
	}
	return client, err
}

// consumerName gives every service its own consumer group so each one sees every
// event it subscribes to.
func (s *service) consumerName() string {
	return s.conf.Kafka.ConsumerName + "-" + s.name
}

func (s *service) router(auth *api.Authenticator, apis ...api.Routes) http.Handler {
	return api.NewRouter(s.logger, auth, s.metrics.Handler(), apis...)
}

func (s *service) serve(ctx context.Context, handler http.Handler) error {
	srv := &http.Server{Addr: s.conf.HTTP.Addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

func (s *service) connectMongo(ctx context.Context) (*mongo.Client, error) {
	client, err := mongodb.Connect(ctx, s.conf.Mongo.URI)
	if err != nil {
		s.logger.Error("cannot create mongo client", zap.Error(err))
		return nil, err
	}
	if err = mongodb.EnsureIndexes(ctx, client.Database(s.conf.Mongo.Database)); err != nil {
		_ = client.Disconnect(ctx)
		s.logger.Error("cannot create mongo indexes", zap.Error(err))
		return nil, err
	}
	return client, nil
}

func (s *service) connectRedis(ctx context.Context) (*goredis.Client, error) {
	client, err := redis.Connect(ctx, s.conf.Redis.URI, s.conf.Redis.Password)
	if err != nil {
		s.logger.Error("cannot create redis client", zap.Error(err))
	}
	return client, err
}
