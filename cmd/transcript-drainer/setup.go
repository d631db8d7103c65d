package main

import (
	"fmt"
	"net"

	"github.com/kubev2v/transcript-drainer/internal/config"
	"github.com/kubev2v/transcript-drainer/internal/events"
	"github.com/kubev2v/transcript-drainer/internal/store"
	"github.com/kubev2v/transcript-drainer/internal/transcript"
	"github.com/kubev2v/transcript-drainer/pkg/log"
	"go.uber.org/zap"
)

// setup reads the configuration and installs the global logger. The returned func
// flushes and restores the logger.
func setup() (*config.Config, func(), error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, func() {}, fmt.Errorf("reading configuration: %w", err)
	}

	logger := log.InitLog(log.ParseLevel(cfg.Service.LogLevel))
	undo := zap.ReplaceGlobals(logger)

	zap.S().Debugf("using config: %s", cfg)

	return cfg, func() {
		_ = logger.Sync()
		undo()
	}, nil
}

// openStore connects to the database. Sqlite databases are created on the fly,
// postgres ones are expected to be migrated beforehand.
func openStore(cfg *config.Config) (store.Store, error) {
	zap.S().Info("initializing data store")
	db, err := store.InitDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing data store: %w", err)
	}

	s := store.NewStore(db)
	if cfg.Database.Type == "sqlite" {
		if err := s.InitialMigration(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("running initial migration: %w", err)
		}
	}

	return s, nil
}

func newEventProducer(cfg *config.Config) *events.EventProducer {
	opts := []events.ProducerOptions{
		events.WithOutputTopic(cfg.Kafka.Topic),
		events.WithSource(cfg.Kafka.Source),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		zap.S().Infow("publishing events to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
		return events.NewEventProducer(events.NewKafkaWriter(cfg.Kafka.Brokers), opts...)
	}
	return events.NewEventProducer(&events.StdoutWriter{}, opts...)
}

// newArchiver returns nil when archiving is not configured or the client cannot be built.
func newArchiver(cfg *config.Config) transcript.Archiver {
	if cfg.Archive.Endpoint == "" {
		return nil
	}

	archiver, err := transcript.NewMinioArchiver(
		transcript.WithEndpoint(cfg.Archive.Endpoint),
		transcript.WithBucket(cfg.Archive.Bucket),
		transcript.WithCredentials(cfg.Archive.AccessKey, cfg.Archive.SecretKey),
		transcript.WithPrefix(cfg.Archive.Prefix),
		transcript.WithSSL(cfg.Archive.UseSSL),
	)
	if err != nil {
		zap.S().Errorw("failed to create transcript archiver, archiving disabled", "error", err)
		return nil
	}

	zap.S().Infow("archiving transcripts", "endpoint", cfg.Archive.Endpoint, "bucket", cfg.Archive.Bucket)
	return archiver
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
