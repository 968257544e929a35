package filter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRules_DefaultExtensions(t *testing.T) {
	r := New(nil, nil, nil, nil)

	tests := []struct {
		name string
		file string
		want bool
	}{
		{"go file", "main.go", true},
		{"nested python", "pkg/sub/app.py", true},
		{"typescript react", "web/src/App.tsx", true},
		{"markdown", "README.md", false},
		{"lockfile", "go.sum", false},
		{"no extension", "Makefile", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Included(tt.file))
		})
	}
}

func TestRules_ExcludeWins(t *testing.T) {
	r := New(nil, []string{"vendor/", "*_test.go"}, nil, []string{"gen/*.go"})

	assert.True(t, r.Included("internal/app.go"))
	assert.False(t, r.Included("vendor/lib/x.go"))
	assert.False(t, r.Included("internal/app_test.go"))
	assert.False(t, r.Included("gen/model.go"))
}

func TestRules_ExtraIncludeExtendsDefaults(t *testing.T) {
	r := New(nil, nil, []string{"*.tf"}, nil)

	assert.True(t, r.Included("infra/main.tf"))
	assert.True(t, r.Included("main.go"))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	include := filepath.Join(dir, "diffwarden.include")
	ignore := filepath.Join(dir, "diffwarden.ignore")
	require.NoError(t, os.WriteFile(include, []byte("# only yaml\n\n*.yaml\n"), 0o600))
	require.NoError(t, os.WriteFile(ignore, []byte("secrets.yaml\n"), 0o600))

	r, err := Load(include, ignore, nil, nil)
	require.NoError(t, err)

	inc, exc := r.Patterns()
	assert.Equal(t, []string{"*.yaml"}, inc)
	assert.Equal(t, []string{"secrets.yaml"}, exc)
	assert.True(t, r.Included("deploy/app.yaml"))
	assert.False(t, r.Included("deploy/secrets.yaml"))
	assert.False(t, r.Included("main.go"))
}

func TestLoad_MissingFilesUseDefaults(t *testing.T) {
	dir := t.TempDir()

	r, err := Load(filepath.Join(dir, "nope.include"), filepath.Join(dir, "nope.ignore"), nil, nil)
	require.NoError(t, err)
	assert.True(t, r.Included("main.go"))
}

func TestLoad_UnreadableFileFails(t *testing.T) {
	dir := t.TempDir()

	// A directory exists but cannot be read as a rules file.
	_, err := Load(dir, "", nil, nil)
	assert.Error(t, err)
}

func TestExceedsLineLength(t *testing.T) {
	long := strings.Repeat("x", 11)

	assert.False(t, ExceedsLineLength("short\nlines", "+ok", 10))
	assert.True(t, ExceedsLineLength("short\n"+long, "", 10))
	assert.True(t, ExceedsLineLength("", "@@ -1 +1 @@\n+"+long, 10))
	assert.False(t, ExceedsLineLength(strings.Repeat("é", 10), "", 10))
}
