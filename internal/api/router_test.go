package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/newsviews/internal/api/handlers"
	"github.com/wonny/newsviews/internal/contracts"
	"github.com/wonny/newsviews/internal/pipeline"
	"github.com/wonny/newsviews/internal/viewconfig"
	"github.com/wonny/newsviews/pkg/logger"
	"github.com/wonny/newsviews/pkg/metrics"
)

type stubSource struct{}

func (stubSource) FetchArticles(_ context.Context, instrument string, _ int) ([]contracts.Article, error) {
	if instrument == "FAIL" {
		return nil, assert.AnError
	}
	return []contracts.Article{{Title: "t", Text: "body for " + instrument, Source: "bloomberg.com"}}, nil
}

type stubClassifier struct{}

func (stubClassifier) Classify(_ context.Context, text string) (contracts.SentimentDistribution, error) {
	if strings.Contains(text, "MSFT") {
		return contracts.SentimentDistribution{Positive: 1}, nil
	}
	return contracts.SentimentDistribution{Neutral: 1}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *pipeline.Orchestrator) {
	t.Helper()

	cfg := viewconfig.Default()
	m := metrics.New()
	o, err := pipeline.NewOrchestrator(&cfg, stubSource{}, stubClassifier{}, 5, m, logger.Nop())
	require.NoError(t, err)

	log := logger.Nop()
	vh := handlers.NewViewsHandler(o, []string{"MSFT", "GOOGL"}, log)
	hh := handlers.NewHealthHandler(nil, "newsviews")
	return NewRouter(vh, hh, m, log), o
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := doRequest(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotContains(t, body, "database")
}

func TestEvaluate_Scenario(t *testing.T) {
	h, o := newTestRouter(t)

	body := `{
		"now": "2024-03-15T12:00:00Z",
		"instruments": {
			"X": [
				{"title": "a", "source": "bloomberg.com", "date": "2024-03-15T12:00:00Z",
				 "distribution": {"positive": 0.9, "neutral": 0.1, "negative": 0}},
				{"title": "b", "source": "unknown.example", "date": "2024-02-04T12:00:00Z",
				 "distribution": {"positive": 0, "neutral": 0, "negative": 1}}
			],
			"EMPTY": []
		}
	}`

	rec := doRequest(t, h, http.MethodPost, "/api/views/evaluate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handlers.EvaluateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, contracts.ViewSet{"X": 0.03}, resp.Views)
	assert.Equal(t, o.ConfigHash(), resp.ConfigHash)
	require.Contains(t, resp.Instruments, "X")
	assert.InDelta(t, 0.72, resp.Instruments["X"].Aggregate.Distribution.Positive, 1e-9)
	assert.True(t, resp.Instruments["EMPTY"].Aggregate.UsedFallback)
}

func TestEvaluate_BadRequests(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"unknown field", `{"instrumnets": {}}`, http.StatusBadRequest},
		{"no instruments", `{"instruments": {}}`, http.StatusBadRequest},
		{"malformed distribution", `{"instruments": {"X": [{"title": "t", "distribution": {"positive": 0.9, "negative": 0.9}}]}}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodPost, "/api/views/evaluate", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestRun(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := doRequest(t, h, http.MethodPost, "/api/views/run", `{"instruments": ["msft", "GOOGL", "FAIL"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp pipeline.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, contracts.ViewSet{"MSFT": 0.03}, resp.Views)
	assert.Contains(t, resp.Failed, "FAIL")
	assert.Contains(t, resp.Instruments, "GOOGL")
}

func TestRun_DefaultInstruments(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := doRequest(t, h, http.MethodPost, "/api/views/run", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp pipeline.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Instruments, 2)
}

func TestGetConfig(t *testing.T) {
	h, o := newTestRouter(t)

	rec := doRequest(t, h, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.ConfigResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, o.ConfigHash(), resp.Hash)
	assert.Equal(t, 0.03, resp.Config.Views.MaxReturn)
}

func TestMetricsAndNotFound(t *testing.T) {
	h, _ := newTestRouter(t)

	// populate a counter first
	doRequest(t, h, http.MethodPost, "/api/views/run", `{"instruments": ["MSFT"]}`)

	rec := doRequest(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "newsviews_views_emitted_total")

	rec = doRequest(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
