package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevigo/diff-warden/internal/core"
)

func validEvent() *core.GitHubEvent {
	return &core.GitHubEvent{
		RepoOwner:      "octo",
		RepoName:       "repo",
		RepoFullName:   "octo/repo",
		PRNumber:       7,
		InstallationID: 42,
	}
}

func TestValidateEvent(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *core.GitHubEvent)
		wantErr string
	}{
		{name: "valid", mutate: func(*core.GitHubEvent) {}},
		{name: "missing owner", mutate: func(e *core.GitHubEvent) { e.RepoOwner = "" }, wantErr: "owner"},
		{name: "missing name", mutate: func(e *core.GitHubEvent) { e.RepoName = "" }, wantErr: "repository name"},
		{name: "missing full name", mutate: func(e *core.GitHubEvent) { e.RepoFullName = "" }, wantErr: "full name"},
		{name: "zero PR", mutate: func(e *core.GitHubEvent) { e.PRNumber = 0 }, wantErr: "pull request number"},
		{name: "missing installation", mutate: func(e *core.GitHubEvent) { e.InstallationID = 0 }, wantErr: "installation ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEvent()
			tt.mutate(e)
			err := ValidateEvent(e)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	assert.Error(t, ValidateEvent(nil))
}
