package gitutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	prURLRegex    = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)/pull/(\d+)$`)
	repoNameRegex = regexp.MustCompile(`^([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)$`)
)

// ParsePullRequestURL parses a GitHub Pull Request URL and extracts the owner, repo, and PR number.
// Supported format: https://github.com/{owner}/{repo}/pull/{number}
func ParsePullRequestURL(url string) (owner, repo string, prNumber int, err error) {
	url = strings.TrimSuffix(url, "/")

	matches := prURLRegex.FindStringSubmatch(url)
	if len(matches) != 4 {
		return "", "", 0, fmt.Errorf("invalid pull request URL format: %s", url)
	}

	prNumber, err = strconv.Atoi(matches[3])
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid PR number '%s': %w", matches[3], err)
	}
	return matches[1], matches[2], prNumber, nil
}

// ParsePullRequestTarget accepts either a single pull request URL or an
// "owner/repo" name followed by the PR number.
func ParsePullRequestTarget(args []string) (owner, repo string, prNumber int, err error) {
	switch len(args) {
	case 1:
		return ParsePullRequestURL(args[0])
	case 2:
		matches := repoNameRegex.FindStringSubmatch(args[0])
		if matches == nil {
			return "", "", 0, fmt.Errorf("invalid repository name %q, expected owner/repo", args[0])
		}
		prNumber, err = strconv.Atoi(args[1])
		if err != nil || prNumber <= 0 {
			return "", "", 0, fmt.Errorf("invalid PR number '%s'", args[1])
		}
		return matches[1], matches[2], prNumber, nil
	default:
		return "", "", 0, fmt.Errorf("expected a pull request URL or owner/repo and a PR number, got %d arguments", len(args))
	}
}
