package basic

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// maxStreamSize bounds how much a single inflated stream may grow.
const maxStreamSize = 16 << 20

var (
	pdfMagic       = []byte("%PDF")
	streamKeyword  = []byte("stream")
	endstreamToken = []byte("endstream")
	objKeyword     = []byte("obj")
)

// ExtractPDFText performs a minimal scan of a PDF's content streams and
// returns the text shown by Tj, TJ, ' and " operators. Flate-compressed
// streams are inflated; other filters are skipped. Layout is approximate.
func ExtractPDFText(content []byte) (string, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(content, " \t\r\n"), pdfMagic) {
		return "", fmt.Errorf("basic: missing %%PDF header: %w", domain.ErrInvalidInput)
	}

	var out strings.Builder
	rest := content
	offset := 0
	for {
		idx := bytes.Index(rest, streamKeyword)
		if idx < 0 {
			break
		}
		// Skip the "stream" inside "endstream".
		if idx >= 3 && bytes.HasSuffix(rest[:idx], []byte("end")) {
			rest = rest[idx+len(streamKeyword):]
			offset += idx + len(streamKeyword)
			continue
		}

		dictStart := bytes.LastIndex(content[:offset+idx], objKeyword)
		if dictStart < 0 {
			dictStart = 0
		}
		dict := content[dictStart : offset+idx]

		dataStart := idx + len(streamKeyword)
		if dataStart < len(rest) && rest[dataStart] == '\r' {
			dataStart++
		}
		if dataStart < len(rest) && rest[dataStart] == '\n' {
			dataStart++
		}
		end := bytes.Index(rest[dataStart:], endstreamToken)
		if end < 0 {
			break
		}
		data := trimEOL(rest[dataStart : dataStart+end])

		if stream, ok := decodeStream(dict, data); ok {
			if text := contentStreamText(stream); strings.TrimSpace(text) != "" {
				out.WriteString(text)
				out.WriteString("\n\n")
			}
		}

		consumed := dataStart + end + len(endstreamToken)
		rest = rest[consumed:]
		offset += consumed
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", domain.ErrEmptyContent
	}
	return text, nil
}

// decodeStream returns the stream bytes if they can be read without a
// full PDF library. Font, image and unknown-filter streams are skipped.
func decodeStream(dict, data []byte) ([]byte, bool) {
	if bytes.Contains(dict, []byte("/Image")) || bytes.Contains(dict, []byte("/Length1")) ||
		bytes.Contains(dict, []byte("/FontFile")) {
		return nil, false
	}
	if !bytes.Contains(dict, []byte("/Filter")) {
		return data, true
	}
	if !bytes.Contains(dict, []byte("/FlateDecode")) {
		return nil, false
	}
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	defer zr.Close()
	// Truncated streams still yield their readable prefix.
	inflated, _ := io.ReadAll(io.LimitReader(zr, maxStreamSize))
	return inflated, len(inflated) > 0
}

// contentStreamText walks a content stream and collects shown strings.
func contentStreamText(stream []byte) string {
	var (
		out     strings.Builder
		pending []string
		inText  bool
	)

	flushLine := func() {
		if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
			out.WriteByte('\n')
		}
	}

	for i := 0; i < len(stream); {
		c := stream[i]
		switch {
		case c == '(':
			s, next := readLiteral(stream, i)
			pending = append(pending, s)
			i = next
		case c == '<' && i+1 < len(stream) && stream[i+1] != '<':
			s, next := readHex(stream, i)
			pending = append(pending, s)
			i = next
		case c == '%':
			for i < len(stream) && stream[i] != '\n' && stream[i] != '\r' {
				i++
			}
		case isDelimiter(c):
			i++
		default:
			start := i
			for i < len(stream) && !isDelimiter(stream[i]) && stream[i] != '(' && stream[i] != '<' {
				i++
			}
			if i == start {
				i++
				continue
			}
			op := string(stream[start:i])
			switch op {
			case "BT":
				inText = true
			case "ET":
				inText = false
				flushLine()
			case "Tj", "TJ":
				if inText {
					out.WriteString(strings.Join(pending, ""))
				}
			case "'", "\"":
				if inText {
					flushLine()
					out.WriteString(strings.Join(pending, ""))
				}
			case "Td", "TD", "T*", "Tm":
				if inText {
					flushLine()
				}
			}
			if !isNumber(op) {
				pending = pending[:0]
			}
		}
	}
	return collapseSpaces(out.String())
}

// trimEOL drops the single end-of-line marker that precedes endstream.
func trimEOL(b []byte) []byte {
	if bytes.HasSuffix(b, []byte("\r\n")) {
		return b[:len(b)-2]
	}
	if bytes.HasSuffix(b, []byte("\n")) || bytes.HasSuffix(b, []byte("\r")) {
		return b[:len(b)-1]
	}
	return b
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0, '[', ']', '{', '}', '/', '>', ')':
		return true
	}
	return false
}

func isNumber(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if (r < '0' || r > '9') && r != '.' && r != '-' && r != '+' {
			return false
		}
	}
	return true
}

// readLiteral parses a (...) string starting at i, handling nesting and escapes.
func readLiteral(b []byte, i int) (string, int) {
	var sb strings.Builder
	depth := 0
	for i < len(b) {
		c := b[i]
		switch {
		case c == '(':
			if depth > 0 {
				sb.WriteByte(c)
			}
			depth++
			i++
		case c == ')':
			depth--
			i++
			if depth == 0 {
				return sb.String(), i
			}
			sb.WriteByte(c)
		case c == '\\' && i+1 < len(b):
			i++
			e := b[i]
			switch e {
			case 'n':
				sb.WriteByte('\n')
				i++
			case 'r', 't', 'f', 'b':
				sb.WriteByte(' ')
				i++
			case '\r', '\n':
				i++
			default:
				if e >= '0' && e <= '7' {
					v := 0
					n := 0
					for n < 3 && i < len(b) && b[i] >= '0' && b[i] <= '7' {
						v = v*8 + int(b[i]-'0')
						i++
						n++
					}
					if v >= 32 && v < 127 {
						sb.WriteByte(byte(v))
					}
				} else {
					sb.WriteByte(e)
					i++
				}
			}
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), i
}

// readHex parses a <...> string; only printable single-byte text is kept.
func readHex(b []byte, i int) (string, int) {
	end := bytes.IndexByte(b[i:], '>')
	if end < 0 {
		return "", len(b)
	}
	hex := bytes.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, b[i+1:i+end])
	if len(hex)%2 == 1 {
		hex = append(hex, '0')
	}
	var sb strings.Builder
	for j := 0; j+1 < len(hex); j += 2 {
		v := hexVal(hex[j])<<4 | hexVal(hex[j+1])
		if v >= 32 && v < 127 {
			sb.WriteByte(byte(v))
		}
	}
	return sb.String(), i + end + 1
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return 0
}
