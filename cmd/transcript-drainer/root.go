package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "transcript-drainer <batch-size>",
	Short: "Drain the queue of videos awaiting transcript extraction",
	Long: `Claims batches of pending work items, fetches the transcript of every claimed
video and records the outcome, until no pending item is left.`,
	Args: batchSizeArg,
	RunE: runDrain,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(requeueCmd)
	rootCmd.AddCommand(enqueueCmd)

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a configuration file in dotenv format")
}

// batchSizeArg accepts exactly one positive integer.
func batchSizeArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	if _, err := parseBatchSize(args[0]); err != nil {
		return err
	}
	return nil
}

func parseBatchSize(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("batch size must be a positive integer, got %q", arg)
	}
	return n, nil
}
