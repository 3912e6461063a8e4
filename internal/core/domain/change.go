package domain

import "time"

// ChangeType describes what happened to a watched file.
type ChangeType string

const (
	// ChangeCreated is a new file.
	ChangeCreated ChangeType = "created"

	// ChangeUpdated is a file whose content changed.
	ChangeUpdated ChangeType = "updated"

	// ChangeDeleted is a removed or renamed-away file.
	ChangeDeleted ChangeType = "deleted"
)

// FileChange is a file event reported by a connector.
type FileChange struct {
	// Type is the kind of change.
	Type ChangeType

	// Path is the file path relative to the connector root.
	Path string

	// ModTime is the file's modification time. Zero for deletions.
	ModTime time.Time

	// File holds the file content. Empty for deletions.
	File RawFile
}
