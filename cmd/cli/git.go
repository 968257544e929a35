package main

import (
	"github.com/spf13/cobra"

	"github.com/sevigo/diff-warden/internal/scm"
)

var (
	refForCompare    string
	refToCompare     string
	commitForCompare string
	commitToCompare  string
)

var gitCmd = &cobra.Command{
	Use:   "git <path>",
	Short: "Scan the changes between two revisions of a local git repository",
	Long: `Scan the files changed between a base revision and a compare revision of the
repository at <path>. Commits take precedence over refs.

Examples:
  diffwarden git .
  diffwarden git . --ref-for-compare develop --ref-to-compare feature/login
  diffwarden git . --commit-for-compare 3f2a9c1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, compare := refForCompare, refToCompare
		if commitForCompare != "" {
			base = commitForCompare
		}
		if commitToCompare != "" {
			compare = commitToCompare
		}

		console, err := newConsole()
		if err != nil {
			return err
		}
		source := scm.NewGit(args[0], base, compare, console, appLogger)
		return runScan(cmd.Context(), source)
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	gitCmd.Flags().StringVar(&refForCompare, "ref-for-compare", scm.DefaultBaseRevision, "Base branch or tag")
	gitCmd.Flags().StringVar(&refToCompare, "ref-to-compare", scm.DefaultCompareRevision, "Branch or tag with the changes")
	gitCmd.Flags().StringVar(&commitForCompare, "commit-for-compare", "", "Base commit")
	gitCmd.Flags().StringVar(&commitToCompare, "commit-to-compare", "", "Commit with the changes")
	rootCmd.AddCommand(gitCmd)
}
