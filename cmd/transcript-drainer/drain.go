package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	apiserver "github.com/kubev2v/transcript-drainer/internal/api_server"
	"github.com/kubev2v/transcript-drainer/internal/drainer"
	"github.com/kubev2v/transcript-drainer/internal/service"
	"github.com/kubev2v/transcript-drainer/internal/transcript"
	"github.com/kubev2v/transcript-drainer/internal/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runDrain(cmd *cobra.Command, args []string) error {
	// arguments are valid, errors from here on are not usage errors
	cmd.SilenceUsage = true

	batchSize, err := parseBatchSize(args[0])
	if err != nil {
		return err
	}

	cfg, done, err := setup()
	defer done()
	if err != nil {
		return err
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	producer := newEventProducer(cfg)
	defer func() {
		if err := producer.Close(); err != nil {
			zap.S().Warnw("failed to close event producer", "error", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	if cfg.Service.MetricsAddress != "" {
		listener, err := newListener(cfg.Service.MetricsAddress)
		if err != nil {
			return err
		}

		serverCtx, stopServer := context.WithCancel(context.Background())
		defer stopServer()

		metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener, s)
		go func() {
			if err := metricsServer.Run(serverCtx); err != nil {
				zap.S().Errorw("metrics server stopped", "error", err)
			}
		}()
	}

	transformerOpts := []transcript.Option{
		transcript.WithLanguage(cfg.Transcript.Language),
		transcript.WithChunkWords(cfg.Transcript.ChunkWords),
	}
	if archiver := newArchiver(cfg); archiver != nil {
		transformerOpts = append(transformerOpts, transcript.WithArchiver(archiver))
	}
	transformer := transcript.NewYouTubeTransformer(cfg.Transcript.Timeout, transformerOpts...)
	executor := worker.NewExecutor(transformer,
		worker.WithWorkers(cfg.Service.WorkerPoolSize),
		worker.WithTimeout(cfg.Transcript.Timeout),
	)

	d := drainer.New(batchSize,
		service.NewClaimer(s),
		executor,
		service.NewReconciler(s, producer),
		drainer.WithClaimRetries(cfg.Service.ClaimRetries),
		drainer.WithEventProducer(producer),
	)

	summary, err := d.Run(ctx)
	if err != nil {
		zap.S().Errorw("drain aborted", "summary", summary.String(), "error", err)
		return err
	}

	zap.S().Infow("drain finished", "state", d.State(), "summary", summary.String())
	return nil
}
