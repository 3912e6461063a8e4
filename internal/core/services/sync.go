package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure FolderSync implements the interface.
var _ driving.FolderSync = (*FolderSync)(nil)

// FolderSync mirrors a directory into a scope. Documents are matched to
// files by filename, which is the path relative to the connector root.
type FolderSync struct {
	ingest driving.IngestService
	docs   driving.DocumentService

	mu sync.Mutex
}

// NewFolderSync creates a folder sync over the ingest and document services.
func NewFolderSync(ingest driving.IngestService, docs driving.DocumentService) *FolderSync {
	return &FolderSync{
		ingest: ingest,
		docs:   docs,
	}
}

// Scan applies every file the connector currently holds.
// Documents whose files have gone are left in place.
func (s *FolderSync) Scan(ctx context.Context, connector driven.Connector, scope string) (*driving.SyncReport, error) {
	if err := connector.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate %s connector: %w", connector.Type(), err)
	}

	known, err := s.index(ctx, scope)
	if err != nil {
		return nil, err
	}

	logger.Section("Folder Scan")
	report := &driving.SyncReport{}
	changesCh, errsCh := connector.Scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return report, ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if err != nil {
				return report, fmt.Errorf("connector error: %w", err)
			}

		case change, ok := <-changesCh:
			if !ok {
				if errsCh != nil {
					for err := range errsCh {
						if err != nil {
							return report, fmt.Errorf("connector error: %w", err)
						}
					}
				}
				logger.Info("Scan complete: %d uploaded, %d replaced, %d reprocessed, %d unchanged, %d failed",
					report.Count(driving.SyncUploaded), report.Count(driving.SyncReplaced),
					report.Count(driving.SyncReprocessed), report.Count(driving.SyncSkipped),
					report.Count(driving.SyncFailed))
				return report, nil
			}
			report.Events = append(report.Events, s.apply(ctx, scope, known, change))
		}
	}
}

// Watch applies changes until ctx is cancelled or the connector stops.
func (s *FolderSync) Watch(
	ctx context.Context,
	connector driven.Connector,
	scope string,
	onEvent func(driving.SyncEvent),
) error {
	known, err := s.index(ctx, scope)
	if err != nil {
		return err
	}

	changesCh, err := connector.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	for change := range changesCh {
		event := s.apply(ctx, scope, known, change)
		if onEvent != nil {
			onEvent(event)
		}
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

// index maps filenames to the scope's documents.
func (s *FolderSync) index(ctx context.Context, scope string) (map[string]*domain.Document, error) {
	docs, err := s.docs.List(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list scope %s: %w", scope, err)
	}
	known := make(map[string]*domain.Document, len(docs))
	for i := range docs {
		known[docs[i].Filename] = &docs[i]
	}
	return known, nil
}

// apply handles one change. Changes are applied one at a time.
func (s *FolderSync) apply(
	ctx context.Context,
	scope string,
	known map[string]*domain.Document,
	change domain.FileChange,
) driving.SyncEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := known[change.Path]
	event := driving.SyncEvent{Path: change.Path}

	if change.Type == domain.ChangeDeleted {
		if existing == nil {
			event.Action = driving.SyncSkipped
			return event
		}
		logger.Debug("Deleting: %s", change.Path)
		event.DocumentID = existing.ID
		if err := s.docs.Delete(ctx, existing.ID); err != nil {
			return failed(event, err)
		}
		delete(known, change.Path)
		event.Action = driving.SyncDeleted
		return event
	}

	if existing != nil && unchanged(existing, change) {
		event.DocumentID = existing.ID
		if existing.State == domain.StateCompleted && existing.IndexStatus != domain.IndexStatusDegraded {
			event.Action = driving.SyncSkipped
			return event
		}
		logger.Debug("Reprocessing: %s (%s)", change.Path, existing.State)
		result, err := s.ingest.Reprocess(ctx, existing.ID)
		if errors.Is(err, domain.ErrProcessing) {
			event.Action = driving.SyncSkipped
			return event
		}
		if err != nil {
			return failed(event, err)
		}
		known[change.Path] = result.Document
		event.Action = driving.SyncReprocessed
		return outcome(event, result.Document)
	}

	event.Action = driving.SyncUploaded
	if existing != nil {
		logger.Debug("Replacing: %s", change.Path)
		if err := s.docs.Delete(ctx, existing.ID); err != nil {
			return failed(event, err)
		}
		delete(known, change.Path)
		event.Action = driving.SyncReplaced
	} else {
		logger.Debug("Uploading: %s", change.Path)
	}

	result, err := s.ingest.Upload(ctx, driving.UploadRequest{File: change.File, Scope: scope})
	if err != nil {
		return failed(event, err)
	}
	known[change.Path] = result.Document
	event.DocumentID = result.Document.ID
	return outcome(event, result.Document)
}

// unchanged reports whether the document was ingested from this version of the file.
func unchanged(doc *domain.Document, change domain.FileChange) bool {
	return doc.Size == change.File.Size() && !change.ModTime.After(doc.UpdatedAt)
}

func outcome(event driving.SyncEvent, doc *domain.Document) driving.SyncEvent {
	if doc.State == domain.StateFailed {
		event.Action = driving.SyncFailed
		event.Err = errors.New(doc.LastError)
	}
	return event
}

func failed(event driving.SyncEvent, err error) driving.SyncEvent {
	logger.Warn("sync %s: %v", event.Path, err)
	event.Action = driving.SyncFailed
	event.Err = err
	return event
}
