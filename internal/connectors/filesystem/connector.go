// Package filesystem watches a local directory and reports file changes
// so they can be uploaded, replaced or deleted in a scope.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Verify interface compliance.
var _ driven.Connector = (*Connector)(nil)

// MaxFileSize is the largest file the connector reads.
const MaxFileSize = 50 << 20

// ErrClosed is returned by Watch after Close.
var ErrClosed = errors.New("filesystem connector closed")

// Connector reads files under a root directory.
type Connector struct {
	rootPath string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// New creates a connector rooted at rootPath.
func New(rootPath string) *Connector {
	return &Connector{rootPath: rootPath}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "filesystem"
}

// Root returns the watched directory.
func (c *Connector) Root() string {
	return c.rootPath
}

// Validate checks the root path exists and is a readable directory.
func (c *Connector) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(c.rootPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("path does not exist: %s", c.rootPath)
		}
		return fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", c.rootPath)
	}

	f, err := os.Open(c.rootPath)
	if err != nil {
		return fmt.Errorf("directory not readable: %w", err)
	}
	return f.Close()
}

// Scan walks the root and reports each visible, supported file as created.
func (c *Connector) Scan(ctx context.Context) (<-chan domain.FileChange, <-chan error) {
	changes := make(chan domain.FileChange)
	errs := make(chan error, 1)

	go func() {
		defer close(changes)
		defer close(errs)

		err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == c.rootPath {
					return err
				}
				logger.Warn("scan %s: %v", path, err)
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if path != c.rootPath && isHidden(d.Name()) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}

			change, ok := c.readFile(path, domain.ChangeCreated)
			if !ok {
				return nil
			}
			select {
			case changes <- change:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
		if err != nil {
			errs <- err
		}
	}()

	return changes, errs
}

// Watch reports changes under the root until ctx is cancelled.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.FileChange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	info, err := os.Stat(c.rootPath)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", c.rootPath)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// fsnotify is not recursive; add every visible directory
	err = filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if path != c.rootPath && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			logger.Warn("watch %s: %v", path, err)
		}
		return nil
	})
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("add watch paths: %w", err)
	}
	c.watcher = watcher

	changes := make(chan domain.FileChange)
	go c.loop(ctx, watcher, changes)
	return changes, nil
}

func (c *Connector) loop(ctx context.Context, watcher *fsnotify.Watcher, changes chan<- domain.FileChange) {
	defer close(changes)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(info.Name()) {
					if err := watcher.Add(event.Name); err != nil {
						logger.Warn("watch %s: %v", event.Name, err)
					}
					continue
				}
			}
			change := c.handleFsEvent(event)
			if change == nil {
				continue
			}
			select {
			case changes <- *change:
			case <-ctx.Done():
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error: %v", err)
		}
	}
}

// handleFsEvent converts an fsnotify event into a change, or nil to skip it.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.FileChange {
	rel := c.relative(event.Name)
	if isHidden(rel) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &domain.FileChange{Type: domain.ChangeDeleted, Path: rel}
	case event.Has(fsnotify.Create):
		if change, ok := c.readFile(event.Name, domain.ChangeCreated); ok {
			return &change
		}
	case event.Has(fsnotify.Write):
		if change, ok := c.readFile(event.Name, domain.ChangeUpdated); ok {
			return &change
		}
	}
	return nil
}

// readFile loads a regular, supported file below the size cap.
func (c *Connector) readFile(path string, changeType domain.ChangeType) (domain.FileChange, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return domain.FileChange{}, false
	}
	if info.Size() > MaxFileSize {
		logger.Warn("skipping %s: %d bytes exceeds limit", path, info.Size())
		return domain.FileChange{}, false
	}

	mimeType := DetectMIMEType(path)
	if domain.ResolveContentType(mimeType, path) == domain.ContentUnsupported {
		logger.Debug("skipping unsupported file %s", path)
		return domain.FileChange{}, false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("read %s: %v", path, err)
		return domain.FileChange{}, false
	}

	return domain.FileChange{
		Type:    changeType,
		Path:    c.relative(path),
		ModTime: info.ModTime(),
		File: domain.RawFile{
			Filename: c.relative(path),
			MIMEType: mimeType,
			Content:  content,
		},
	}, true
}

func (c *Connector) relative(path string) string {
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Close stops any active watch. Safe to call more than once.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.watcher == nil {
		return nil
	}
	err := c.watcher.Close()
	c.watcher = nil
	return err
}

// customMIMETypes covers extensions the system MIME table often lacks.
var customMIMETypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".rs":       "text/x-rust",
	".ts":       "text/typescript",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
	".sh":       "text/x-shellscript",
	".sql":      "text/x-sql",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx":     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// DetectMIMEType returns the MIME type for a filename without parameters.
// Files without an extension are treated as plain text.
func DetectMIMEType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "text/plain"
	}
	if mimeType, ok := customMIMETypes[ext]; ok {
		return mimeType
	}
	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		if i := strings.Index(mimeType, ";"); i >= 0 {
			mimeType = strings.TrimSpace(mimeType[:i])
		}
		return mimeType
	}
	return "application/octet-stream"
}

// isHidden reports whether any path element starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}
