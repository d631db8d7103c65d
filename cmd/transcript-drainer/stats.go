package main

import (
	"context"
	"fmt"
	"time"

	"github.com/kubev2v/transcript-drainer/internal/service"
	"github.com/kubev2v/transcript-drainer/internal/store/model"
	"github.com/spf13/cobra"
)

var (
	listStatus string
	listLimit  int
)

var statsCmd = &cobra.Command{
	Use:          "stats",
	Short:        "Print the number of work items per status",
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

		queue := service.NewQueueService(s)
		out := cmd.OutOrStdout()

		if listStatus != "" {
			status, err := model.ParseWorkItemStatus(listStatus)
			if err != nil {
				return err
			}
			items, err := queue.List(context.Background(), status, listLimit)
			if err != nil {
				return err
			}
			for _, item := range items {
				fmt.Fprintf(out, "%d\t%s\t%s\n", item.ID, item.ExternalID, item.UpdatedAt.Format(time.RFC3339))
			}
			return nil
		}

		stats, err := queue.Stats(context.Background())
		if err != nil {
			return err
		}

		for _, status := range model.AllWorkItemStatuses {
			fmt.Fprintf(out, "%-12s %d\n", status, stats.ByStatus[status])
		}
		fmt.Fprintf(out, "%-12s %d\n", "total", stats.Total)

		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&listStatus, "status", "", "List the items in this status instead of the counters")
	statsCmd.Flags().IntVar(&listLimit, "limit", 50, "Maximum number of items listed with --status")
}
