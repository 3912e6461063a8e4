package partition

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestClient_Extract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("unstructured-api-key"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "hi_res", r.FormValue("strategy"))
		f, hdr, err := r.FormFile("files")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "report.pdf", hdr.Filename)
		assert.Equal(t, "%PDF-fake", string(data))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"type": "Title", "text": "Quarterly Report", "metadata": map[string]any{"page_number": 1}},
			{"type": "NarrativeText", "text": "Revenue grew.", "metadata": map[string]any{"page_number": 1}},
			{"type": "PageBreak", "text": "  ", "metadata": map[string]any{}},
			{"type": "Table", "text": "a | b", "metadata": map[string]any{"page_number": 2}},
		})
	}))
	defer server.Close()

	c := New(Config{Method: domain.ExtractionHosted, URL: server.URL, APIKey: "secret", Strategy: "hi_res"})
	elements, err := c.Extract(context.Background(), &domain.RawFile{Filename: "report.pdf", Content: []byte("%PDF-fake")}, domain.ContentPDF)

	require.NoError(t, err)
	require.Len(t, elements, 3)
	assert.Equal(t, domain.Element{Text: "Quarterly Report", Type: domain.ElementTitle, PageNumber: 1}, elements[0])
	assert.Equal(t, domain.ElementNarrativeText, elements[1].Type)
	assert.Equal(t, domain.ElementTable, elements[2].Type)
	assert.Equal(t, 2, elements[2].PageNumber)
	assert.Equal(t, domain.ExtractionHosted, c.Method())
}

func TestClient_NoAPIKeyHeaderWhenUnset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["Unstructured-Api-Key"]
		assert.False(t, present)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := New(Config{URL: server.URL})
	elements, err := c.Extract(context.Background(), &domain.RawFile{Content: []byte("x")}, domain.ContentText)

	require.NoError(t, err)
	assert.Empty(t, elements)
	assert.Equal(t, domain.ExtractionLocal, c.Method())
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad file", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	_, err := New(Config{URL: server.URL}).Extract(context.Background(), &domain.RawFile{Content: []byte("x")}, domain.ContentPDF)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
	assert.Contains(t, err.Error(), "bad file")
}

func TestClient_BreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(Config{URL: server.URL, FailureLimit: 2, Cooldown: time.Minute})
	file := &domain.RawFile{Content: []byte("x")}
	for i := 0; i < 2; i++ {
		_, err := c.Extract(context.Background(), file, domain.ContentPDF)
		require.Error(t, err)
	}

	_, err := c.Extract(context.Background(), file, domain.ContentPDF)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "service unavailable")
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_NoEndpoint(t *testing.T) {
	_, err := New(Config{}).Extract(context.Background(), &domain.RawFile{Content: []byte("x")}, domain.ContentPDF)
	assert.ErrorIs(t, err, domain.ErrNotImplemented)
}

func TestClient_Supports(t *testing.T) {
	c := New(Config{})
	assert.True(t, c.Supports(domain.ContentPDF))
	assert.True(t, c.Supports(domain.ContentDOCX))
	assert.False(t, c.Supports(domain.ContentUnsupported))
}

func TestMapElementType(t *testing.T) {
	assert.Equal(t, domain.ElementTitle, mapElementType("Header"))
	assert.Equal(t, domain.ElementListItem, mapElementType("ListItem"))
	assert.Equal(t, domain.ElementCode, mapElementType("Formula"))
	assert.Equal(t, domain.ElementUncategorized, mapElementType("Image"))
}
