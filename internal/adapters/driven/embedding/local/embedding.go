// Package local provides an in-process embedding model that needs no network.
//
// The model hashes tokens and adjacent token pairs into a fixed number of
// signed buckets (the hashing trick), applies sublinear term weighting and
// L2-normalises the result. It is much weaker than a neural model but is
// always available, so ingestion can fall back to it.
package local

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// pairWeight scales adjacent-token features relative to single tokens.
const pairWeight = 0.5

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`)

// defaultStopwords are dropped before hashing.
var defaultStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "but", "by", "for", "from",
	"has", "have", "he", "her", "his", "i", "if", "in", "into", "is", "it",
	"its", "of", "on", "or", "our", "she", "so", "that", "the", "their",
	"them", "then", "there", "these", "they", "this", "to", "was", "we",
	"were", "what", "when", "which", "who", "will", "with", "you", "your",
}

// model is the initialised, read-only state shared by all callers.
type model struct {
	stopwords map[string]struct{}
}

// EmbeddingService embeds text with the hashed bag-of-words model.
// The model is built on first use; concurrent first callers share one build.
type EmbeddingService struct {
	dimensions int

	mu    sync.Mutex // guards model
	init  singleflight.Group
	ready atomic.Bool
	model *model

	// loads counts model builds, for tests.
	loads atomic.Int32
}

// NewEmbeddingService creates the local model with the given dimensions.
// Zero uses domain.LocalEmbeddingDimensions.
func NewEmbeddingService(dimensions int) *EmbeddingService {
	if dimensions <= 0 {
		dimensions = domain.LocalEmbeddingDimensions
	}
	return &EmbeddingService{dimensions: dimensions}
}

// load returns the model, building it once.
func (s *EmbeddingService) load() *model {
	if s.ready.Load() {
		return s.current()
	}
	v, _, _ := s.init.Do("model", func() (interface{}, error) {
		if s.ready.Load() {
			return s.current(), nil
		}
		s.loads.Add(1)
		logger.Debug("local embedding: building model (%d dims)", s.dimensions)
		m := &model{stopwords: make(map[string]struct{}, len(defaultStopwords))}
		for _, w := range defaultStopwords {
			m.stopwords[w] = struct{}{}
		}
		s.mu.Lock()
		s.model = m
		s.mu.Unlock()
		s.ready.Store(true)
		return m, nil
	})
	return v.(*model)
}

func (s *EmbeddingService) current() *model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.vector(s.load(), text), nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m := s.load()
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = s.vector(m, t)
	}
	return out, nil
}

// vector hashes the text's features into a normalised vector.
// Text without any token yields the zero vector.
func (s *EmbeddingService) vector(m *model, text string) []float32 {
	var tokens []string
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := m.stopwords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}

	counts := make(map[string]float64, len(tokens)*2)
	for i, tok := range tokens {
		counts[tok]++
		if i > 0 {
			counts[tokens[i-1]+" "+tok] += pairWeight
		}
	}

	acc := make([]float64, s.dimensions)
	for feature, tf := range counts {
		idx, sign := s.bucket(feature)
		acc[idx] += sign * (1 + math.Log(1+tf))
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	out := make([]float32, s.dimensions)
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i, v := range acc {
		out[i] = float32(v / norm)
	}
	return out
}

// bucket maps a feature to an index and a sign.
func (s *EmbeddingService) bucket(feature string) (int, float64) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()
	sign := 1.0
	if sum>>63 == 1 {
		sign = -1.0
	}
	return int(sum % uint64(s.dimensions)), sign
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return domain.LocalEmbeddingModel
}

// Provider returns the local provider.
func (s *EmbeddingService) Provider() domain.AIProvider {
	return domain.AIProviderLocal
}

// Ping always succeeds; the model has no external dependency.
func (s *EmbeddingService) Ping(_ context.Context) error {
	s.load()
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
