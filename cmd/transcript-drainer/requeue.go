package main

import (
	"context"
	"fmt"
	"time"

	"github.com/kubev2v/transcript-drainer/internal/service"
	"github.com/spf13/cobra"
)

var olderThan time.Duration

var requeueCmd = &cobra.Command{
	Use:   "requeue",
	Short: "Return stale processing items to pending",
	Long: `Returns to pending the work items left in processing for longer than --older-than,
typically by a drainer which crashed mid batch. Make sure no drainer is running a batch
older than the threshold, its items would be transformed twice.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		n, err := service.NewQueueService(s).RequeueStale(context.Background(), olderThan)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "requeued %d work items\n", n)
		return nil
	},
}

func init() {
	requeueCmd.Flags().DurationVar(&olderThan, "older-than", time.Hour, "Minimum time since the item entered processing")
}
