package domain

// ElementType classifies an extracted text element.
type ElementType string

// Element types. The names follow the partition services' vocabulary.
const (
	ElementTitle         ElementType = "Title"
	ElementNarrativeText ElementType = "NarrativeText"
	ElementListItem      ElementType = "ListItem"
	ElementTable         ElementType = "Table"
	ElementCode          ElementType = "CodeSnippet"
	ElementUncategorized ElementType = "UncategorizedText"

	// ElementDiagnostic describes an extraction failure in place of content.
	ElementDiagnostic ElementType = "Diagnostic"
)

// Element is one structured piece of text produced by extraction.
type Element struct {
	// Text is the element content.
	Text string

	// Type classifies the element.
	Type ElementType

	// PageNumber is the 1-based source page, or 0 when unknown.
	PageNumber int
}

// ExtractionResult is the output of the extraction chain.
type ExtractionResult struct {
	// Elements are the extracted elements in document order.
	Elements []Element

	// Method names the extraction method that succeeded.
	Method string

	// Attempts records each method tried, in order.
	Attempts []ExtractionAttempt
}

// ExtractionAttempt is one method invocation within the chain.
type ExtractionAttempt struct {
	Method string
	Err    error
}

// Diagnostic reports whether the result is a failure description only.
func (r *ExtractionResult) Diagnostic() bool {
	return len(r.Elements) == 1 && r.Elements[0].Type == ElementDiagnostic
}
