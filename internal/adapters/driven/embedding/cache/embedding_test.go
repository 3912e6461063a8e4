package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// countingEmbedder counts calls to Embed.
type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = c.Embed(ctx, t)
	}
	return out, nil
}

func (c *countingEmbedder) Dimensions() int { return 2 }
func (c *countingEmbedder) ModelName() string { return "counting" }
func (c *countingEmbedder) Provider() domain.AIProvider { return domain.AIProviderOllama }
func (c *countingEmbedder) Ping(_ context.Context) error { return nil }
func (c *countingEmbedder) Close() error { return nil }

func TestEmbed_CachesResult(t *testing.T) {
	inner := &countingEmbedder{}
	s := New(inner, 0, 0)

	a, err := s.Embed(context.Background(), "holiday policy")
	require.NoError(t, err)
	b, err := s.Embed(context.Background(), "holiday policy")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, domain.AIProviderOllama, s.Provider())
	assert.Equal(t, "counting", s.ModelName())
}

func TestEmbed_ReturnsCopies(t *testing.T) {
	s := New(&countingEmbedder{}, 0, 0)

	a, _ := s.Embed(context.Background(), "abc")
	a[0] = 99
	b, _ := s.Embed(context.Background(), "abc")

	assert.Equal(t, float32(3), b[0])
}

func TestEmbed_ErrorsNotCached(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("down")}
	s := New(inner, 0, 0)

	_, err := s.Embed(context.Background(), "q")
	require.Error(t, err)
	_, err = s.Embed(context.Background(), "q")
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 0, s.Len())
}

func TestEmbed_EvictsAndExpires(t *testing.T) {
	inner := &countingEmbedder{}
	s := New(inner, 1, 50*time.Millisecond)

	_, _ = s.Embed(context.Background(), "one")
	_, _ = s.Embed(context.Background(), "two")
	_, _ = s.Embed(context.Background(), "one")
	assert.Equal(t, 3, inner.calls, "size one evicts the older entry")

	time.Sleep(120 * time.Millisecond)
	_, _ = s.Embed(context.Background(), "one")
	assert.Equal(t, 4, inner.calls, "expired entries are recomputed")

	s.Purge()
	assert.Equal(t, 0, s.Len())
}

func TestEmbedBatch_PassesThrough(t *testing.T) {
	inner := &countingEmbedder{}
	s := New(inner, 0, 0)

	_, err := s.EmbedBatch(context.Background(), []string{"a", "a"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 0, s.Len())
}
