package finbert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/newsviews/internal/contracts"
	"github.com/wonny/newsviews/pkg/config"
	"github.com/wonny/newsviews/pkg/httputil"
	"github.com/wonny/newsviews/pkg/logger"
	"github.com/wonny/newsviews/pkg/redis"
)

var longText = strings.Repeat("Revenue grew strongly and margins expanded. ", 10)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	log := logger.Nop()
	cfg := config.FinBERTConfig{
		BaseURL:       srv.URL + "/",
		Timeout:       5 * time.Second,
		MinTextLength: 150,
		CacheTTL:      time.Hour,
	}
	httpClient := httputil.NewWithTimeout(log, cfg.Timeout).DisableRetry()
	return NewClient(httpClient, nil, cfg, log), &calls
}

func TestClassify_NamedFields(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)

		var req predictRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, longText, req.Text)

		_, _ = w.Write([]byte(`{"positive":0.8,"neutral":0.15,"negative":0.05}`))
	})

	dist, err := client.Classify(context.Background(), longText)
	require.NoError(t, err)
	assert.Equal(t, contracts.SentimentDistribution{Positive: 0.8, Neutral: 0.15, Negative: 0.05}, dist)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestClassify_LabelOrderVector(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"probabilities":[0.7,0.2,0.1]}`))
	})

	dist, err := client.Classify(context.Background(), longText)
	require.NoError(t, err)
	assert.Equal(t, 0.7, dist.Negative)
	assert.Equal(t, 0.2, dist.Neutral)
	assert.Equal(t, 0.1, dist.Positive)
}

func TestClassify_ShortTextGuard(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server must not be called for short text")
	})

	dist, err := client.Classify(context.Background(), "Apple beats estimates")
	require.NoError(t, err)
	assert.True(t, dist.IsZero())
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestClassify_Truncates(t *testing.T) {
	huge := strings.Repeat("가", MaxTextLength+100)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req predictRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, MaxTextLength, len([]rune(req.Text)))
		_, _ = w.Write([]byte(`{"positive":0,"neutral":1,"negative":0}`))
	})

	_, err := client.Classify(context.Background(), huge)
	require.NoError(t, err)
}

func TestClassify_ServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	})

	_, err := client.Classify(context.Background(), longText)
	require.Error(t, err)

	var se *httputil.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
}

func TestClassify_DisabledCache(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"positive":0.1,"neutral":0.1,"negative":0.8}`))
	})
	client.cache = redis.NewCache(redis.Disabled(), "test")

	for i := 0; i < 2; i++ {
		_, err := client.Classify(context.Background(), longText)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "가나", Truncate("가나다", 2))
}

func TestClassify_RedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if testing.Short() || addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	defer rdb.Close()

	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"positive":0.6,"neutral":0.3,"negative":0.1}`))
	})
	cache := redis.NewCache(redis.NewFromRedis(rdb), "finbert-test")
	client.cache = cache

	text := longText + time.Now().String()
	defer func() { _ = cache.Delete(context.Background(), redis.ClassificationKey(ModelName, text)) }()

	first, err := client.Classify(context.Background(), text)
	require.NoError(t, err)
	second, err := client.Classify(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}
