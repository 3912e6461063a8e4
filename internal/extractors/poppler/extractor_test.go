package poppler

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error

	name string
	args []string
	seen []byte
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.name = name
	m.args = args
	// The input path is the second to last argument.
	if len(args) >= 2 {
		m.seen, _ = os.ReadFile(args[len(args)-2])
	}
	return m.output, m.err
}

func TestExtractor_Method(t *testing.T) {
	e := New("")
	assert.Equal(t, domain.ExtractionPoppler, e.Method())
	assert.Equal(t, DefaultBinary, e.binary)
	assert.True(t, e.Supports(domain.ContentPDF))
	assert.False(t, e.Supports(domain.ContentHTML))
}

func TestExtract_SplitsPages(t *testing.T) {
	runner := &mockRunner{output: []byte("Annual Report\n\nRevenue grew by ten percent.\n\fSecond page body text.\n\f")}
	e := NewWithRunner("/opt/bin/pdftotext", runner)

	elements, err := e.Extract(context.Background(),
		&domain.RawFile{Filename: "r.pdf", Content: []byte("%PDF-1.4 fake")}, domain.ContentPDF)

	require.NoError(t, err)
	require.Len(t, elements, 3)
	assert.Equal(t, domain.Element{Text: "Annual Report", Type: domain.ElementTitle, PageNumber: 1}, elements[0])
	assert.Equal(t, 1, elements[1].PageNumber)
	assert.Equal(t, "Second page body text.", elements[2].Text)
	assert.Equal(t, 2, elements[2].PageNumber)

	assert.Equal(t, "/opt/bin/pdftotext", runner.name)
	assert.Equal(t, "-", runner.args[len(runner.args)-1])
	assert.Equal(t, "%PDF-1.4 fake", string(runner.seen))
}

func TestExtract_RunnerError(t *testing.T) {
	runner := &mockRunner{err: errors.New("pdftotext crashed")}

	_, err := NewWithRunner("", runner).Extract(context.Background(),
		&domain.RawFile{Content: []byte("%PDF")}, domain.ContentPDF)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
}

func TestExtract_Unsupported(t *testing.T) {
	_, err := NewWithRunner("", &mockRunner{}).Extract(context.Background(),
		&domain.RawFile{Content: []byte("x")}, domain.ContentText)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestExtract_MissingBinary(t *testing.T) {
	e := New("definitely-not-a-real-pdftotext-binary")

	_, err := e.Extract(context.Background(), &domain.RawFile{Content: []byte("%PDF")}, domain.ContentPDF)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolNotFound)
}
