package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestNewEmbeddingService_RequiresKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s, err := NewEmbeddingService(Config{APIKey: "k", BatchSize: 500})
	require.NoError(t, err)

	assert.Equal(t, 1536, s.Dimensions())
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.Equal(t, DefaultBatchSize, s.batchSize, "batch size is capped")
	assert.Equal(t, domain.AIProviderOpenAI, s.Provider())
}

func TestEmbedBatch_SplitsIntoBatches(t *testing.T) {
	var requests atomic.Int32
	var maxBatch atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		requests.Add(1)

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if n := int32(len(req.Input)); n > maxBatch.Load() {
			maxBatch.Store(n)
		}

		var resp embeddingResponse
		// Answer in reverse order to check index handling.
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, struct {
				Embedding []float64 `json:"embedding"`
				Index     int       `json:"index"`
			}{Embedding: []float64{float64(len(req.Input[i]))}, Index: i})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	s, err := NewEmbeddingService(Config{APIKey: "test-key", BaseURL: server.URL, BatchSize: 2, RequestsPerSecond: 1000})
	require.NoError(t, err)

	out, err := s.EmbedBatch(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})

	require.NoError(t, err)
	assert.Equal(t, int32(3), requests.Load())
	assert.Equal(t, int32(2), maxBatch.Load())
	require.Len(t, out, 5)
	for i, v := range out {
		assert.Equal(t, []float32{float32(i + 1)}, v)
	}
}

func TestEmbedBatch_RateLimited(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer server.Close()

	s, err := NewEmbeddingService(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	start := time.Now()
	_, err = s.EmbedBatch(context.Background(), []string{"a", "b"})

	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, int32(1), requests.Load(), "a 429 is returned without retrying")
	assert.Less(t, time.Since(start), time.Second)
}

func TestEmbedBatch_RetriesAfterRateLimit(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if requests.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.25,0.75],"index":0}]}`))
	}))
	defer server.Close()

	s, err := NewEmbeddingService(Config{APIKey: "k", BaseURL: server.URL, RequestsPerSecond: 1000, MaxRetries: 1})
	require.NoError(t, err)

	v, err := s.Embed(context.Background(), "text")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.75}, v)
	assert.Equal(t, int32(2), requests.Load())
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, 2*time.Second, retryDelay("2", 0))
	assert.Equal(t, time.Duration(0), retryDelay("0", 3))
	assert.Equal(t, maxRetryDelay, retryDelay("600", 0))
	assert.Equal(t, time.Second, retryDelay("", 0))
	assert.Equal(t, 4*time.Second, retryDelay("soon", 2))
	assert.Equal(t, maxRetryDelay, retryDelay("", 10))
}

func TestEmbedBatch_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"auth"}}`))
	}))
	defer server.Close()

	s, err := NewEmbeddingService(Config{APIKey: "bad", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = s.EmbedBatch(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestEmbedBatch_Empty(t *testing.T) {
	s, err := NewEmbeddingService(Config{APIKey: "k"})
	require.NoError(t, err)

	out, err := s.EmbedBatch(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, out)
}
