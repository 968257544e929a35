package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/sevigo/diff-warden/internal/github"
	"github.com/sevigo/diff-warden/internal/gitutil"
	"github.com/sevigo/diff-warden/internal/scm"
)

var githubCmd = &cobra.Command{
	Use:   "github <owner/repo> <pr> | github <pr-url>",
	Short: "Scan a GitHub pull request and post the findings as a review",
	Long: `Scan the files changed by a pull request and post the findings as review
comments on the changed lines.

Examples:
  diffwarden github octo/app 42
  diffwarden github https://github.com/octo/app/pull/42`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, repo, prNumber, err := gitutil.ParsePullRequestTarget(args)
		if err != nil {
			return err
		}

		token := cfg.GitHub.Token
		if token == "" {
			token = os.Getenv("GITHUB_TOKEN")
		}
		if token == "" {
			return errors.New("a GitHub token is required: use --github-token, DW_GITHUB_TOKEN or GITHUB_TOKEN")
		}

		ctx := cmd.Context()
		client := github.NewPATClient(ctx, token, appLogger)
		source := scm.NewGitHub(client, owner, repo, prNumber)
		err = runScan(ctx, source)
		if err == nil || errors.Is(err, errFindingsFound) {
			dimColor.Printf("Pull request: https://github.com/%s/%s/pull/%d\n", owner, repo, prNumber)
		}
		return err
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	githubCmd.Flags().StringP("github-token", "t", "", "GitHub token with pull request write access")
	rootCmd.AddCommand(githubCmd)
}
