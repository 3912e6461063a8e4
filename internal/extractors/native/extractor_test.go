package native

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestExtractor_Supports(t *testing.T) {
	e := New()
	assert.Equal(t, domain.ExtractionNative, e.Method())
	assert.True(t, e.Supports(domain.ContentPDF))
	assert.True(t, e.Supports(domain.ContentHTML))
	assert.True(t, e.Supports(domain.ContentSpreadsheet))
	assert.False(t, e.Supports(domain.ContentText))
	assert.False(t, e.Supports(domain.ContentDOCX))
}

func TestExtract_UnsupportedType(t *testing.T) {
	_, err := New().Extract(context.Background(), &domain.RawFile{Content: []byte("x")}, domain.ContentText)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestExtract_NilFile(t *testing.T) {
	_, err := New().Extract(context.Background(), nil, domain.ContentPDF)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtract_HTML(t *testing.T) {
	html := `<!DOCTYPE html><html><head><title>Handbook</title><style>body{}</style></head>
<body>
  <h2>Leave   policy</h2>
  <p>Employees accrue <b>two</b> days per month.</p>
  <blockquote><p>Quoted inner paragraph.</p></blockquote>
  <ul><li>Annual</li><li>Sick</li></ul>
  <table><tr><th>Type</th><th>Days</th></tr><tr><td>Annual</td><td>24</td></tr></table>
  <pre>line one
line two</pre>
  <script>var hidden = 1;</script>
</body></html>`

	elements, err := New().Extract(context.Background(), &domain.RawFile{Content: []byte(html)}, domain.ContentHTML)

	require.NoError(t, err)
	require.Len(t, elements, 8)
	assert.Equal(t, domain.Element{Text: "Handbook", Type: domain.ElementTitle}, elements[0])
	assert.Equal(t, domain.Element{Text: "Leave policy", Type: domain.ElementTitle}, elements[1])
	assert.Equal(t, "Employees accrue two days per month.", elements[2].Text)
	assert.Equal(t, "Quoted inner paragraph.", elements[3].Text)
	assert.Equal(t, domain.ElementListItem, elements[4].Type)
	assert.Equal(t, "Sick", elements[5].Text)
	assert.Equal(t, domain.ElementTable, elements[6].Type)
	assert.Equal(t, "Type | Days\nAnnual | 24", elements[6].Text)
	assert.Equal(t, domain.ElementCode, elements[7].Type)
	assert.Equal(t, "line one\nline two", elements[7].Text)
}

func TestExtract_Spreadsheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Region"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Revenue"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "EMEA"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 1200))
	_, err := f.NewSheet("Empty")
	require.NoError(t, err)
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	elements, err := New().Extract(context.Background(), &domain.RawFile{Content: buf.Bytes()}, domain.ContentSpreadsheet)

	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Equal(t, domain.ElementTable, elements[0].Type)
	assert.Equal(t, 1, elements[0].PageNumber)
	assert.Equal(t, "Sheet1\nRegion | Revenue\nEMEA | 1200", elements[0].Text)
}

func TestExtract_InvalidPDF(t *testing.T) {
	_, err := New().Extract(context.Background(), &domain.RawFile{Content: []byte("not a pdf")}, domain.ContentPDF)
	assert.Error(t, err)
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Extract(ctx, &domain.RawFile{Content: []byte("<p>x</p>")}, domain.ContentHTML)
	assert.ErrorIs(t, err, context.Canceled)
}
