package main

import (
	// Go Internal Packages
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	// Local Packages
	config "cardflow/config"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	_ "github.com/jsternberg/zap-logfmt"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"go.uber.org/zap"
)

var (
	app        = kingpin.New("cardflow", "Card to card transfers run as a choreographed saga.")
	configPath = app.Flag("config", "Path to the application config file").Short('c').Default("config.yml").String()

	authorizationCmd = app.Command("authorization", "Run the authorization service.")
	cardsCmd         = app.Command("cards", "Run the card management service.")
	transactionsCmd  = app.Command("transactions", "Run the transaction service.")
	feesCmd          = app.Command("fees", "Run the fee updater.")
)

// LoadConfig loads the default configuration and overrides it with the config file
// specified by the path defined in the config flag
func LoadConfig(path string) *koanf.Koanf {
	k := koanf.New(".")
	_ = k.Load(rawbytes.Provider(config.DefaultConfig), yaml.Parser())
	if path != "" {
		_ = k.Load(file.Provider(path), yaml.Parser())
	}
	return k
}

// LoadSecrets overrides secrets and endpoints with the environment variables named
// in config.SecretEnv.
func LoadSecrets(k *koanf.Koanf) error {
	return k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		path, ok := config.SecretEnv[key]
		if !ok || value == "" {
			return "", nil
		}
		if key == "KAFKA_BROKERS" {
			return path, strings.Split(value, ",")
		}
		return path, value
	}), nil)
}

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	k := LoadConfig(*configPath)
	if err := LoadSecrets(k); err != nil {
		log.Fatalf("Error loading secrets: %v", err)
	}
	appKonf := config.Config{}

	// Unmarshalling config into struct
	err := k.Unmarshal("", &appKonf)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Validate the config loaded
	if err = appKonf.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if !appKonf.IsProdMode {
		k.Print()
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "logfmt"
	_ = cfg.Level.UnmarshalText([]byte(appKonf.Logger.Level))
	cfg.InitialFields = make(map[string]any)
	cfg.InitialFields["host"], _ = os.Hostname()
	cfg.InitialFields["service"] = command
	cfg.OutputPaths = []string{"stdout"}
	logger, _ := cfg.Build()
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := newService(command, appKonf, logger)
	switch command {
	case authorizationCmd.FullCommand():
		err = svc.runAuthorization(ctx)
	case cardsCmd.FullCommand():
		err = svc.runCards(ctx)
	case transactionsCmd.FullCommand():
		err = svc.runTransactions(ctx)
	case feesCmd.FullCommand():
		err = svc.runFees(ctx)
	}

	if err != nil && ctx.Err() == nil {
		logger.Fatal("service stopped", zap.Error(err))
	}
	logger.Info("service stopped")
}
