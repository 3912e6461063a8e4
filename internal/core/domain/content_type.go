package domain

import (
	"path/filepath"
	"strings"
)

// ContentType is the closed set of file kinds the pipeline understands.
// It is resolved once per upload and dispatched by lookup afterwards.
type ContentType string

// Content types.
const (
	ContentText        ContentType = "text"
	ContentMarkdown    ContentType = "markdown"
	ContentCode        ContentType = "code"
	ContentHTML        ContentType = "html"
	ContentPDF         ContentType = "pdf"
	ContentDOCX        ContentType = "docx"
	ContentSpreadsheet ContentType = "spreadsheet"
	ContentUnsupported ContentType = "unsupported"
)

// IsTextLike reports whether the raw bytes can be read directly as text.
func (c ContentType) IsTextLike() bool {
	switch c {
	case ContentText, ContentMarkdown, ContentCode, ContentHTML:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (c ContentType) String() string {
	return string(c)
}

var mimeContentTypes = map[string]ContentType{
	"text/plain":       ContentText,
	"text/csv":         ContentText,
	"text/yaml":        ContentText,
	"text/toml":        ContentText,
	"application/json": ContentText,
	"application/xml":  ContentText,
	"text/xml":         ContentText,

	"text/markdown":         ContentMarkdown,
	"text/x-markdown":       ContentMarkdown,
	"text/html":             ContentHTML,
	"application/xhtml+xml": ContentHTML,

	"application/pdf": ContentPDF,

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ContentDOCX,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       ContentSpreadsheet,

	"text/x-go":          ContentCode,
	"text/x-python":      ContentCode,
	"text/x-rust":        ContentCode,
	"text/x-java":        ContentCode,
	"text/x-c":           ContentCode,
	"text/x-c++":         ContentCode,
	"text/x-ruby":        ContentCode,
	"text/x-shellscript": ContentCode,
	"text/x-sql":         ContentCode,
	"text/javascript":    ContentCode,
	"text/typescript":    ContentCode,
}

var extensionContentTypes = map[string]ContentType{
	".txt":      ContentText,
	".text":     ContentText,
	".log":      ContentText,
	".csv":      ContentText,
	".json":     ContentText,
	".yaml":     ContentText,
	".yml":      ContentText,
	".toml":     ContentText,
	".xml":      ContentText,
	".md":       ContentMarkdown,
	".markdown": ContentMarkdown,
	".html":     ContentHTML,
	".htm":      ContentHTML,
	".pdf":      ContentPDF,
	".docx":     ContentDOCX,
	".xlsx":     ContentSpreadsheet,
	".go":       ContentCode,
	".py":       ContentCode,
	".rs":       ContentCode,
	".java":     ContentCode,
	".c":        ContentCode,
	".h":        ContentCode,
	".cpp":      ContentCode,
	".rb":       ContentCode,
	".sh":       ContentCode,
	".sql":      ContentCode,
	".js":       ContentCode,
	".jsx":      ContentCode,
	".ts":       ContentCode,
	".tsx":      ContentCode,
}

// ResolveContentType maps a declared MIME type and filename to a ContentType.
// The MIME type wins when it is specific; generic types defer to the extension.
func ResolveContentType(mimeType, filename string) ContentType {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	byExt, extKnown := extensionContentTypes[strings.ToLower(filepath.Ext(filename))]

	if ct, ok := mimeContentTypes[mimeType]; ok {
		// text/plain is often sent for markdown and source files.
		if ct == ContentText && extKnown && byExt.IsTextLike() {
			return byExt
		}
		return ct
	}
	if extKnown {
		return byExt
	}
	if strings.HasPrefix(mimeType, "text/") {
		return ContentText
	}
	return ContentUnsupported
}
