package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/aretw0/threadbare/pkg/adapters/http"
	"github.com/aretw0/threadbare/pkg/adapters/memory"
	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/dsl"
	"github.com/aretw0/threadbare/pkg/observability"
	"github.com/aretw0/threadbare/pkg/script"
	"github.com/aretw0/threadbare/pkg/session"
)

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	b := dsl.New("http")
	b.Add("Start").
		Line("Welcome.").
		Wait(0.05).
		Choice(dsl.Opt("Stay", ""), dsl.Opt("Locked", "Start").If(dsl.Visited("Secret"))).
		Pause().
		Line("Bye.")
	b.Add("Secret")
	b.Add("Empty").Choice(dsl.Opt("Nope", "").If(dsl.Visited("Secret"))).Line("Skipped.")
	story, err := b.Build()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	mgr := session.NewManager(memory.NewStore(), story.Nodes,
		session.WithRunnerOptions(story.RunnerOptions(script.WithLifecycleHooks(metrics.Hooks()))...),
	)
	return httpadapter.NewHandler(mgr, story.Start.Name, httpadapter.WithMetrics(reg))
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, session.View) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var view session.View
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	}
	return w.Code, view
}

func TestServer_SessionFlow(t *testing.T) {
	h := newHandler(t)

	code, view := do(t, h, "POST", "/sessions", `{"id":"s1"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "s1", view.ID)
	assert.Equal(t, domain.StateLine, view.State)
	assert.Equal(t, "Welcome.", view.Line)

	code, view = do(t, h, "POST", "/sessions/s1/execute", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, domain.StateTimer, view.State)
	assert.Equal(t, 3, view.WaitTimer)

	code, view = do(t, h, "POST", "/sessions/s1/tick", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, domain.StateTimer, view.State)
	assert.Equal(t, 2, view.WaitTimer)

	code, view = do(t, h, "POST", "/sessions/s1/tick", `{"count":5}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, domain.StateOptions, view.State)
	assert.Equal(t, []session.OptionView{
		{Index: 0, Text: "Stay", Enabled: true},
		{Index: 1, Text: "Locked", Enabled: false},
	}, view.Options)

	code, _ = do(t, h, "POST", "/sessions/s1/choose", `{"index":1}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, h, "POST", "/sessions/s1/choose", `{"index":7}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, h, "POST", "/sessions/s1/skip", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, view = do(t, h, "POST", "/sessions/s1/choose", `{"index":0}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, domain.StatePaused, view.State)

	code, view = do(t, h, "POST", "/sessions/s1/resume", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Bye.", view.Line)

	code, view = do(t, h, "POST", "/sessions/s1/execute", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, domain.StateOff, view.State)

	code, _ = do(t, h, "POST", "/sessions/s1/execute", "")
	assert.Equal(t, http.StatusConflict, code)

	code, view = do(t, h, "GET", "/sessions/s1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, domain.StateOff, view.State)
}

func TestServer_SkipWhenNothingEnabled(t *testing.T) {
	h := newHandler(t)

	code, view := do(t, h, "POST", "/sessions", `{"id":"s2","node":"Empty"}`)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, domain.StateOptions, view.State)

	code, view = do(t, h, "POST", "/sessions/s2/skip", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Skipped.", view.Line)
}

func TestServer_Errors(t *testing.T) {
	h := newHandler(t)

	code, view := do(t, h, "POST", "/sessions", "")
	require.Equal(t, http.StatusCreated, code)
	assert.Len(t, view.ID, 36, "generated ids are uuids")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"Duplicate", "POST", "/sessions", `{"id":"` + view.ID + `"}`, http.StatusConflict},
		{"Unknown Node", "POST", "/sessions", `{"node":"Nowhere"}`, http.StatusBadRequest},
		{"Bad Body", "POST", "/sessions", `{`, http.StatusBadRequest},
		{"Unknown Session", "GET", "/sessions/ghost", "", http.StatusNotFound},
		{"Wrong State Resume", "POST", "/sessions/" + view.ID + "/resume", "", http.StatusConflict},
		{"Wrong State Choose", "POST", "/sessions/" + view.ID + "/choose", `{"index":0}`, http.StatusConflict},
		{"Bad Tick", "POST", "/sessions/" + view.ID + "/tick", `{"count":0}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestServer_ListAndDelete(t *testing.T) {
	h := newHandler(t)
	do(t, h, "POST", "/sessions", `{"id":"b"}`)
	do(t, h, "POST", "/sessions", `{"id":"a"}`)

	req := httptest.NewRequest("GET", "/sessions", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var ids []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ids))
	assert.Equal(t, []string{"a", "b"}, ids)

	req = httptest.NewRequest("GET", "/sessions/a/snapshot", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, domain.StateLine, snap.State)
	assert.Equal(t, "Start", snap.Top())

	code, _ := do(t, h, "DELETE", "/sessions/a", "")
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = do(t, h, "GET", "/sessions/a", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_HealthInfoMetrics(t *testing.T) {
	h := newHandler(t)
	do(t, h, "POST", "/sessions", `{"id":"m"}`)

	for _, path := range []string{"/health", "/info"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `threadbare_node_enters_total{node="Start"} 1`)

	req = httptest.NewRequest("OPTIONS", "/sessions", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_SubscribeEvents(t *testing.T) {
	srv := httptest.NewServer(newHandler(t))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/sessions", "application/json", bytes.NewBufferString(`{"id":"sse"}`))
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/sessions/sse/events", nil)
	require.NoError(t, err)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()

	lines := bufio.NewScanner(stream.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	resp, err = http.Post(srv.URL+"/sessions/sse/execute", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	for lines.Scan() {
		line := lines.Text()
		if !strings.HasPrefix(line, "data: {") {
			continue
		}
		var view session.View
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &view))
		assert.Equal(t, "sse", view.ID)
		assert.Equal(t, domain.StateTimer, view.State)
		return
	}
	t.Fatal("no view event received")
}
