package main

import (
	"context"
	"fmt"

	"github.com/kubev2v/transcript-drainer/internal/service"
	"github.com/spf13/cobra"
)

var enqueueCmd = &cobra.Command{
	Use:          "enqueue <video-id>...",
	Short:        "Add videos to the queue",
	Args:         cobra.MinimumNArgs(1),
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

		items, err := service.NewQueueService(s).Enqueue(context.Background(), args...)
		if err != nil {
			return err
		}

		for _, item := range items {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", item.ID, item.ExternalID)
		}
		return nil
	},
}
