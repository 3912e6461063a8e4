package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// FolderSync mirrors a directory connector into a scope.
type FolderSync interface {
	// Scan uploads new files, replaces changed ones and reprocesses
	// unchanged files whose last run failed or left them unsearchable.
	Scan(ctx context.Context, connector driven.Connector, scope string) (*SyncReport, error)

	// Watch applies changes as the connector reports them until ctx is
	// cancelled. onEvent may be nil.
	Watch(ctx context.Context, connector driven.Connector, scope string, onEvent func(SyncEvent)) error
}

// SyncAction is what FolderSync did with one file.
type SyncAction string

// Sync actions.
const (
	SyncUploaded    SyncAction = "uploaded"
	SyncReplaced    SyncAction = "replaced"
	SyncReprocessed SyncAction = "reprocessed"
	SyncDeleted     SyncAction = "deleted"
	SyncSkipped     SyncAction = "skipped"
	SyncFailed      SyncAction = "failed"
)

// SyncEvent reports the handling of one file change.
type SyncEvent struct {
	// Path is the file path relative to the connector root.
	Path string

	// Action is what was done.
	Action SyncAction

	// DocumentID is the affected document, if any.
	DocumentID string

	// Err is set when Action is failed.
	Err error
}

// SyncReport collects the events of one scan.
type SyncReport struct {
	Events []SyncEvent
}

// Count returns the number of events with the given action.
func (r *SyncReport) Count(action SyncAction) int {
	n := 0
	for _, e := range r.Events {
		if e.Action == action {
			n++
		}
	}
	return n
}
