package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sevigo/diff-warden/internal/scm"
)

var pathForComparison string

var filesystemCmd = &cobra.Command{
	Use:     "filesystem <path>",
	Aliases: []string{"fs"},
	Short:   "Scan a directory, optionally against an older copy of it",
	Long: `Scan every text file under <path>. With --path-for-comparison only files that
differ from the older copy are analyzed, and only their changed lines are anchored.

Examples:
  diffwarden filesystem ./src
  diffwarden filesystem ./src --path-for-comparison ./src-v1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, dir := range []string{args[0], pathForComparison} {
			if dir == "" {
				continue
			}
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				return fmt.Errorf("%s is not a directory", dir)
			}
		}

		console, err := newConsole()
		if err != nil {
			return err
		}
		source := scm.NewFilesystem(args[0], pathForComparison, console, appLogger)
		return runScan(cmd.Context(), source)
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	filesystemCmd.Flags().StringVar(&pathForComparison, "path-for-comparison", "", "Older copy of the directory to diff against")
	rootCmd.AddCommand(filesystemCmd)
}
