// Package extractors assembles extraction methods into an ordered chain.
//
// Methods live in sub-packages:
//
//   - partition: hosted and self-hosted partition services over HTTP
//   - native: in-process format libraries (PDF, HTML, XLSX)
//   - poppler: the pdftotext command-line tool
//   - basic: the always-available fallback
//
// The chain tries methods strictly in order, time-boxing each attempt.
// It never returns an error; total failure yields one diagnostic element.
package extractors
