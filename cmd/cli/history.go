package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/diff-warden/internal/wire"
)

var (
	historyRepo  string
	historyPR    int
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the scan runs recorded by the webhook server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, cleanup, err := wire.InitializeStore(cfg, appLogger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer cleanup()
		if store == nil {
			return errors.New("scan history needs a database: set database.host or DW_DATABASE_HOST")
		}

		runs, err := store.ListRuns(cmd.Context(), historyRepo, historyPR, historyLimit)
		if err != nil {
			return err
		}

		if historyJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(runs)
		}
		if len(runs) == 0 {
			fmt.Printf("No scan runs recorded for %s.\n", historyRepo)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "PR\tHEAD\tSTATUS\tFILES\tFINDINGS\tFAILURES\tWHEN")
		for _, run := range runs {
			fmt.Fprintf(w, "#%d\t%s\t%s\t%d/%d\t%d\t%d\t%s\n",
				run.PRNumber,
				shortSHA(run.HeadSHA),
				run.Status,
				run.FilesScanned, run.FilesChanged,
				run.Findings,
				run.Failures,
				run.CreatedAt.Format(time.RFC822),
			)
		}
		return w.Flush()
	},
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func init() { //nolint:gochecknoinits // Cobra command registration
	historyCmd.Flags().StringVar(&historyRepo, "repo", "", "Repository as owner/name")
	historyCmd.Flags().IntVar(&historyPR, "pr", 0, "Only runs for this pull request")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output as JSON")
	_ = historyCmd.MarkFlagRequired("repo")
	rootCmd.AddCommand(historyCmd)
}
