package web

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/diff-warden/internal/core"
)

func sampleFindings() []EnrichedFinding {
	line := 3
	return []EnrichedFinding{
		{
			Finding: core.Finding{
				File: "app.go", Title: "Hardcoded <secret>", Issue: "secret in source",
				WeaknessID: "CWE-798", Priority: 9, LineNumber: &line, Snippet: `password := "x"`,
			},
			FileContents: "package app\n\npassword := \"x\"\n\nfunc main() {}\n",
		},
		{
			Finding:      core.Finding{File: "gone.go", Issue: "unreadable", Priority: 2},
			FileContents: ContentsUnavailable,
		},
	}
}

func TestEnrich(t *testing.T) {
	calls := map[string]int{}
	read := func(_ context.Context, name string) (string, error) {
		calls[name]++
		if name == "missing.go" {
			return "", errors.New("no such file")
		}
		return "contents of " + name, nil
	}

	out := Enrich(context.Background(), read, []core.Finding{
		{File: "a.go"}, {File: "missing.go"}, {File: "a.go"},
	})
	require.Len(t, out, 3)
	assert.Equal(t, "contents of a.go", out[0].FileContents)
	assert.Equal(t, ContentsUnavailable, out[1].FileContents)
	assert.Equal(t, "contents of a.go", out[2].FileContents)
	assert.Equal(t, 1, calls["a.go"])
}

func TestRouter_Index(t *testing.T) {
	r := NewRouter(sampleFindings(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Findings (2)")
	assert.Contains(t, body, "Hardcoded &lt;secret&gt;")
	assert.Contains(t, body, `href="/findings/1"`)
	assert.Contains(t, body, "CRITICAL")
}

func TestRouter_IndexEmpty(t *testing.T) {
	r := NewRouter(nil, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No issues found")
}

func TestRouter_Detail(t *testing.T) {
	r := NewRouter(sampleFindings(), nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/findings/0", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Lines 1-6")
	assert.Contains(t, rec.Body.String(), "func main() {}")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/findings/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ContentsUnavailable)
	assert.NotContains(t, rec.Body.String(), "Lines ")

	for _, path := range []string{"/findings/2", "/findings/-1", "/findings/abc"} {
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestRouter_APIFindings(t *testing.T) {
	r := NewRouter(sampleFindings(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/findings", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "app.go", got[0]["file"])
	assert.Equal(t, "CWE-798", got[0]["weakness_id"])
	assert.EqualValues(t, 3, got[0]["line_number"])
	assert.Nil(t, got[1]["line_number"])
	assert.Equal(t, ContentsUnavailable, got[1]["file_contents"])
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, NewRouter(nil, nil), nil) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/api/findings")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestRender_FailureSendsNoPartialBody(t *testing.T) {
	broken := template.Must(template.New("page.html").Parse(`<h1>partial</h1>{{template "missing" .}}`))
	h := &handler{templates: broken, logger: slog.Default()}

	rec := httptest.NewRecorder()
	h.render(rec, "page.html", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "partial")
	assert.Contains(t, rec.Body.String(), "Internal Server Error")
}
