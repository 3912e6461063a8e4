package domain

// RawFile is an uploaded file as handed over by the upload boundary.
// Size and type validation have already happened.
type RawFile struct {
	// Filename is the original file name.
	Filename string

	// MIMEType is the declared content type.
	MIMEType string

	// Content is the raw file bytes.
	Content []byte
}

// Size returns the content length in bytes.
func (f *RawFile) Size() int64 {
	return int64(len(f.Content))
}
