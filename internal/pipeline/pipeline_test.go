package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sevigo/diff-warden/internal/cache"
	"github.com/sevigo/diff-warden/internal/config"
	"github.com/sevigo/diff-warden/internal/core"
	"github.com/sevigo/diff-warden/internal/llm"
	"github.com/sevigo/diff-warden/internal/pipeline"
	"github.com/sevigo/diff-warden/mocks"
)

const appPatch = "@@ -0,0 +1,3 @@\n+package app\n+\n+password := \"hunter2\"\n"

type memStore struct {
	mu      sync.Mutex
	entries map[string][]core.Finding
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string][]core.Finding)}
}

func (m *memStore) Get(_ context.Context, hash string) ([]core.Finding, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.entries[hash]
	return f, ok
}

func (m *memStore) Put(_ context.Context, _, hash string, findings []core.Finding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[hash] = findings
	return nil
}

func testOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.MinDuration = 0
	return opts
}

func newPipeline(t *testing.T, source core.SourceProvider, analyzer core.Analyzer, store cache.Store, opts pipeline.Options) *pipeline.Pipeline {
	t.Helper()
	prompts, err := llm.NewPromptManager()
	require.NoError(t, err)
	p, err := pipeline.New(source, analyzer, prompts, nil, store, opts, nil)
	require.NoError(t, err)
	return p
}

func TestScan_FiltersMapsAndDedupes(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockSourceProvider(ctrl)
	analyzer := mocks.NewMockAnalyzer(ctrl)
	ctx := context.Background()

	source.EXPECT().Name().Return("test").AnyTimes()
	analyzer.EXPECT().Name().Return("default").AnyTimes()
	source.EXPECT().ChangedFiles(ctx).Return([]core.ChangedFile{
		{Filename: "app.go", Patch: appPatch},
		{Filename: "README.md", Patch: "@@ -0,0 +1 @@\n+# hi\n"},
		{Filename: "deleted.go", Patch: ""},
		{Filename: "bundle.min.js", Patch: "@@ -0,0 +1 @@\n+" + strings.Repeat("x", 1200) + "\n"},
	}, nil)
	// Read once for the line length check and reused for the cache key.
	source.EXPECT().ReadFile(gomock.Any(), "app.go").Return("package app\n\npassword := \"hunter2\"\n", nil).Times(1)
	source.EXPECT().ReadFile(gomock.Any(), "bundle.min.js").Return(strings.Repeat("x", 1200), nil).Times(1)

	analyzer.EXPECT().Findings(gomock.Any(), gomock.Any(), "\n\nFile: app.go\n"+appPatch+"\n", gomock.Any()).
		Return([]core.Finding{
			{File: "app.go", Snippet: "package app", Issue: "minor", WeaknessID: "CWE-1", Priority: 2},
			{File: "app.go", Snippet: `password := "hunter2"`, Issue: "hardcoded secret", WeaknessID: "CWE-798", Priority: 9},
			{File: "app.go", Snippet: `"hunter2"`, Issue: "same secret again", WeaknessID: "CWE-798", Priority: 8},
			{File: "app.go", Snippet: "not in the diff", Issue: "hallucinated", WeaknessID: "CWE-2", Priority: 9},
		}, nil)

	p := newPipeline(t, source, analyzer, newMemStore(), testOptions())
	res, err := p.Scan(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Changed)
	assert.Equal(t, 1, res.Analyzed)
	assert.Empty(t, res.Failures)

	require.Len(t, res.Findings, 2)
	assert.Equal(t, "hardcoded secret", res.Findings[0].Issue)
	assert.Equal(t, 3, res.Findings[0].Line())
	assert.Equal(t, "minor", res.Findings[1].Issue)
	assert.Equal(t, 1, res.Findings[1].Line())

	require.Len(t, res.Comments, 2)
	assert.Equal(t, core.ReviewComment{Path: "app.go", Position: 3, Body: res.Comments[0].Body}, res.Comments[0])
	assert.Contains(t, res.Comments[0].Body, "**Priority:** CRITICAL")
	assert.Equal(t, 1, res.Comments[1].Position)
}

func TestScan_ChangedFilesErrorIsFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockSourceProvider(ctrl)
	analyzer := mocks.NewMockAnalyzer(ctrl)

	source.EXPECT().Name().Return("test").AnyTimes()
	analyzer.EXPECT().Name().Return("default").AnyTimes()
	source.EXPECT().ChangedFiles(gomock.Any()).Return(nil, errors.New("boom"))

	_, err := newPipeline(t, source, analyzer, nil, testOptions()).Scan(context.Background())
	assert.ErrorContains(t, err, "boom")
}

func TestScan_FailedUnitIsReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockSourceProvider(ctrl)
	analyzer := mocks.NewMockAnalyzer(ctrl)

	source.EXPECT().Name().Return("test").AnyTimes()
	analyzer.EXPECT().Name().Return("default").AnyTimes()
	source.EXPECT().ChangedFiles(gomock.Any()).Return([]core.ChangedFile{
		{Filename: "a.go", Patch: "@@ -0,0 +1 @@\n+package a\n"},
		{Filename: "b.go", Patch: "@@ -0,0 +1 @@\n+package b\n"},
	}, nil)
	source.EXPECT().ReadFile(gomock.Any(), gomock.Any()).Return("", errors.New("unreadable")).AnyTimes()

	analyzer.EXPECT().Findings(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, user string, _ []core.Tool) ([]core.Finding, error) {
			if strings.Contains(user, "File: a.go") {
				return nil, errors.New("model timeout")
			}
			return []core.Finding{{File: "b.go", Snippet: "package b", Issue: "x", WeaknessID: "CWE-1", Priority: 5}}, nil
		}).Times(2)

	res, err := newPipeline(t, source, analyzer, nil, testOptions()).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go"}, res.FailedFiles())
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "b.go", res.Findings[0].File)
}

func TestScan_CacheHitSkipsAnalyzer(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockSourceProvider(ctrl)
	analyzer := mocks.NewMockAnalyzer(ctrl)

	content := "package app\n\npassword := \"hunter2\"\n"
	store := newMemStore()
	require.NoError(t, store.Put(context.Background(), "app.go", cache.HashContent(content), []core.Finding{
		{File: "app.go", Snippet: "password", Issue: "cached", WeaknessID: "CWE-798", Priority: 9},
	}))

	source.EXPECT().Name().Return("test").AnyTimes()
	analyzer.EXPECT().Name().Return("default").AnyTimes()
	source.EXPECT().ChangedFiles(gomock.Any()).Return([]core.ChangedFile{{Filename: "app.go", Patch: appPatch}}, nil)
	source.EXPECT().ReadFile(gomock.Any(), "app.go").Return(content, nil).Times(1)

	res, err := newPipeline(t, source, analyzer, store, testOptions()).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cached)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "cached", res.Findings[0].Issue)
}

func TestScan_AnalystsAndPromptRules(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockSourceProvider(ctrl)
	analyzer := mocks.NewMockAnalyzer(ctrl)

	source.EXPECT().Name().Return("test").AnyTimes()
	analyzer.EXPECT().Name().Return("default").AnyTimes()
	source.EXPECT().ChangedFiles(gomock.Any()).Return([]core.ChangedFile{{Filename: "app.go", Patch: appPatch}}, nil)
	source.EXPECT().ReadFile(gomock.Any(), "app.go").Return("package app\n", nil)

	var systems []string
	var toolNames []string
	analyzer.EXPECT().Findings(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, system, _ string, tools []core.Tool) ([]core.Finding, error) {
			systems = append(systems, system)
			for _, tool := range tools {
				toolNames = append(toolNames, tool.Name)
			}
			return []core.Finding{{Snippet: "package app", Issue: "issue", WeaknessID: "CWE-1"}}, nil
		}).Times(2)

	opts := testOptions()
	opts.Analysts = []string{"security", "typo"}
	opts.PromptRules = &config.PromptRules{Pre: "PROJECT RULES\n"}

	res, err := newPipeline(t, source, analyzer, nil, opts).Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, systems, 2)
	for _, s := range systems {
		assert.True(t, strings.HasPrefix(s, "PROJECT RULES\n"))
		assert.Contains(t, s, `{"findings": []}`)
	}
	assert.Equal(t, []string{pipeline.ReadFileTool, pipeline.ReadFileTool}, toolNames)

	// The typo finding carries N/A and is never deduplicated against the security one.
	require.Len(t, res.Findings, 2)
	assert.Equal(t, "app.go", res.Findings[0].File)
	assert.Equal(t, "typo", res.Findings[0].Category)
	assert.Equal(t, core.NotApplicable, res.Findings[0].WeaknessID)
	assert.Equal(t, "Security", res.Findings[1].Category)
	assert.Equal(t, 1, res.Findings[1].Priority)
}

func TestScan_DisableToolsAndSkipLineLength(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockSourceProvider(ctrl)
	analyzer := mocks.NewMockAnalyzer(ctrl)

	long := "@@ -0,0 +1 @@\n+" + strings.Repeat("y", 2000) + "\n"
	source.EXPECT().Name().Return("test").AnyTimes()
	analyzer.EXPECT().Name().Return("default").AnyTimes()
	source.EXPECT().ChangedFiles(gomock.Any()).Return([]core.ChangedFile{{Filename: "gen.go", Patch: long}}, nil)
	source.EXPECT().ReadFile(gomock.Any(), "gen.go").Return("", nil)
	analyzer.EXPECT().Findings(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Nil()).Return(nil, nil)

	opts := testOptions()
	opts.DisableTools = true
	opts.SkipLineLengthCheck = true

	res, err := newPipeline(t, source, analyzer, nil, opts).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Analyzed)
	assert.Empty(t, res.Findings)
}

func TestNew_UnknownAnalyst(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockSourceProvider(ctrl)
	analyzer := mocks.NewMockAnalyzer(ctrl)
	analyzer.EXPECT().Name().Return("default").AnyTimes()

	prompts, err := llm.NewPromptManager()
	require.NoError(t, err)

	opts := testOptions()
	opts.Analysts = []string{"astrology"}
	_, err = pipeline.New(source, analyzer, prompts, nil, nil, opts, nil)
	assert.ErrorContains(t, err, "astrology")
}

func TestPublish(t *testing.T) {
	comments := []core.ReviewComment{{Path: "app.go", Position: 3, Body: "body"}}
	list := []core.Finding{{File: "app.go", Issue: "hardcoded secret", Recommendation: "use a vault"}}

	tests := []struct {
		name        string
		summary     string
		summaryErr  error
		wantSummary string
	}{
		{name: "model summary", summary: "All bad.", wantSummary: "All bad."},
		{name: "model failure falls back", summaryErr: errors.New("down"), wantSummary: pipeline.FallbackSummary},
		{name: "blank summary falls back", summary: "  \n", wantSummary: pipeline.FallbackSummary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			source := mocks.NewMockSourceProvider(ctrl)
			analyzer := mocks.NewMockAnalyzer(ctrl)
			ctx := context.Background()

			source.EXPECT().Name().Return("test").AnyTimes()
			analyzer.EXPECT().Name().Return("default").AnyTimes()
			analyzer.EXPECT().Prompt(ctx, gomock.Any(),
				"- **File**: `app.go`\n  - **Issue**: hardcoded secret\n  - **Recommendation**: use a vault\n\n", gomock.Nil()).
				Return(tt.summary, tt.summaryErr)
			source.EXPECT().CreateReview(ctx, tt.wantSummary, comments, true).Return(nil)

			p := newPipeline(t, source, analyzer, nil, testOptions())
			summary, err := p.Publish(ctx, &pipeline.Result{Findings: list, Comments: comments})
			require.NoError(t, err)
			assert.Equal(t, tt.wantSummary, summary)
		})
	}
}

func TestScan_WithFakeAnalyzer(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockSourceProvider(ctrl)

	source.EXPECT().Name().Return("test").AnyTimes()
	source.EXPECT().ChangedFiles(gomock.Any()).Return([]core.ChangedFile{
		{Filename: "list.py", Patch: "@@ -0,0 +1 @@\n+items = []\n"},
	}, nil)
	source.EXPECT().ReadFile(gomock.Any(), "list.py").Return("items = []\n", nil)

	res, err := newPipeline(t, source, llm.NewFake(), nil, testOptions()).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "list.py", res.Findings[0].File)
	assert.Equal(t, 1, res.Findings[0].Line())
}

func TestResult_SetFindingsRebuildsComments(t *testing.T) {
	line := 4
	res := &pipeline.Result{Comments: []core.ReviewComment{{Path: "old.go"}}}
	res.SetFindings([]core.Finding{
		{File: "a.go", LineNumber: &line, Position: 5, Issue: "x", Priority: 5},
		{File: "b.go", Issue: "unanchored"},
	})
	require.Len(t, res.Comments, 1)
	assert.Equal(t, "a.go", res.Comments[0].Path)
	assert.Equal(t, 4, res.Comments[0].Position)
}

func TestNewShellSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockSourceProvider(ctrl)
	analyzer := mocks.NewMockAnalyzer(ctrl)
	session := mocks.NewMockSession(ctrl)

	source.EXPECT().Name().Return("git:repo (main..HEAD)").AnyTimes()
	analyzer.EXPECT().Name().Return("default").AnyTimes()
	extra := core.Tool{Name: "get_findings"}
	analyzer.EXPECT().NewSession(gomock.Any(), gomock.Any()).DoAndReturn(func(system string, tools []core.Tool) (core.Session, error) {
		assert.Contains(t, system, "git:repo (main..HEAD)")
		assert.Contains(t, system, "There are 4 findings")
		require.Len(t, tools, 2)
		assert.Equal(t, pipeline.ReadFileTool, tools[0].Name)
		assert.Equal(t, "get_findings", tools[1].Name)
		return session, nil
	})

	p := newPipeline(t, source, analyzer, nil, testOptions())
	got, err := p.NewShellSession(4, extra)
	require.NoError(t, err)
	assert.Equal(t, session, got)
}

func TestNewShellSession_Unsupported(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockSourceProvider(ctrl)
	source.EXPECT().Name().Return("test").AnyTimes()

	p := newPipeline(t, source, llm.NewFake(), nil, testOptions())
	_, err := p.NewShellSession(1)
	assert.ErrorIs(t, err, llm.ErrSessionUnsupported)
}

func TestScan_IdenticalFilesKeepTheirOwnFindings(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockSourceProvider(ctrl)

	const patch = "@@ -0,0 +1 @@\n+items = []\n"
	source.EXPECT().Name().Return("test").AnyTimes()
	source.EXPECT().ChangedFiles(gomock.Any()).Return([]core.ChangedFile{
		{Filename: "a.py", Patch: patch},
		{Filename: "b.py", Patch: patch},
	}, nil)
	source.EXPECT().ReadFile(gomock.Any(), gomock.Any()).Return("items = []\n", nil).Times(2)

	store, err := cache.NewFileCache(t.TempDir(), nil)
	require.NoError(t, err)

	opts := testOptions()
	opts.RateLimit = 1
	res, err := newPipeline(t, source, llm.NewFake(), store, opts).Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Cached)
	require.Len(t, res.Findings, 2)
	byFile := map[string]int{}
	for _, f := range res.Findings {
		byFile[f.File]++
	}
	assert.Equal(t, map[string]int{"a.py": 1, "b.py": 1}, byFile)
	require.Len(t, res.Comments, 2)
}
