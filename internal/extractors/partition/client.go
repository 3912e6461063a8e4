// Package partition calls an Unstructured-compatible partition API.
//
// The same client serves two extraction methods: "hosted" targets the
// cloud service with an API key, "local" targets a self-run container.
// Each client owns a circuit breaker so that an unreachable service
// stops costing the full attempt timeout on every file.
package partition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.Extractor = (*Client)(nil)

// Default configuration values.
const (
	DefaultStrategy     = "fast"
	DefaultTimeout      = 30 * time.Second
	DefaultFailureLimit = 3
	DefaultCooldown     = 30 * time.Second

	apiKeyHeader = "unstructured-api-key"
)

// Config holds configuration for a partition client.
type Config struct {
	// Method is ExtractionHosted or ExtractionLocal.
	Method domain.ExtractionMethod

	// URL is the full partition endpoint.
	URL string

	// APIKey is sent in the unstructured-api-key header when set.
	APIKey string

	// Strategy is the partition strategy (fast, hi_res, auto).
	Strategy string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// FailureLimit is the consecutive failures that open the breaker.
	FailureLimit uint32

	// Cooldown is how long the breaker stays open.
	Cooldown time.Duration
}

// Client extracts elements by posting files to a partition endpoint.
type Client struct {
	client   *http.Client
	method   domain.ExtractionMethod
	url      string
	apiKey   string
	strategy string
	breaker  *gobreaker.CircuitBreaker
}

// partitionElement is the partition API response element format.
type partitionElement struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Metadata struct {
		PageNumber int `json:"page_number"`
	} `json:"metadata"`
}

// New creates a partition client.
func New(cfg Config) *Client {
	if cfg.Method == "" {
		cfg.Method = domain.ExtractionLocal
	}
	if cfg.Strategy == "" {
		cfg.Strategy = DefaultStrategy
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.FailureLimit == 0 {
		cfg.FailureLimit = DefaultFailureLimit
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = DefaultCooldown
	}

	limit := cfg.FailureLimit
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "partition-" + string(cfg.Method),
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= limit
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("%s breaker: %s -> %s", name, from, to)
		},
	})

	return &Client{
		client:   &http.Client{Timeout: cfg.Timeout},
		method:   cfg.Method,
		url:      cfg.URL,
		apiKey:   cfg.APIKey,
		strategy: cfg.Strategy,
		breaker:  breaker,
	}
}

// Method returns the extraction method name.
func (c *Client) Method() domain.ExtractionMethod {
	return c.method
}

// Supports reports whether the content type is worth sending to the service.
func (c *Client) Supports(ct domain.ContentType) bool {
	return ct != domain.ContentUnsupported
}

// Extract posts the file and maps the returned elements.
func (c *Client) Extract(ctx context.Context, file *domain.RawFile, _ domain.ContentType) ([]domain.Element, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}
	if c.url == "" {
		return nil, fmt.Errorf("%s: no endpoint configured: %w", c.method, domain.ErrNotImplemented)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, file)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s: service unavailable: %w", c.method, err)
		}
		return nil, err
	}

	raw, _ := result.([]partitionElement)
	elements := make([]domain.Element, 0, len(raw))
	for _, el := range raw {
		text := strings.TrimSpace(el.Text)
		if text == "" {
			continue
		}
		elements = append(elements, domain.Element{
			Text:       text,
			Type:       mapElementType(el.Type),
			PageNumber: el.Metadata.PageNumber,
		})
	}
	return elements, nil
}

// post sends one multipart request.
func (c *Client) post(ctx context.Context, file *domain.RawFile) ([]partitionElement, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	filename := file.Filename
	if filename == "" {
		filename = "upload"
	}
	part, err := mw.CreateFormFile("files", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := mw.WriteField("strategy", c.strategy); err != nil {
		return nil, fmt.Errorf("write strategy: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%s error (status %d): %s", c.method, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var elements []partitionElement
	if err := json.NewDecoder(resp.Body).Decode(&elements); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return elements, nil
}

// mapElementType folds the service's element vocabulary onto ours.
func mapElementType(t string) domain.ElementType {
	switch t {
	case "Title", "Header":
		return domain.ElementTitle
	case "NarrativeText", "Text", "FigureCaption", "Address", "EmailAddress":
		return domain.ElementNarrativeText
	case "ListItem":
		return domain.ElementListItem
	case "Table":
		return domain.ElementTable
	case "CodeSnippet", "Formula":
		return domain.ElementCode
	default:
		return domain.ElementUncategorized
	}
}
