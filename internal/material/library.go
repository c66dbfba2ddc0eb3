package material

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kpauljoseph/cardforge/pkg/logger"
)

// Entry is one material found in a Library.
type Entry struct {
	Name string
	Path string
	Size int64
}

// Library serves PDFs from a directory tree.
type Library struct {
	root   string
	logger *logger.Logger
}

func NewLibrary(root string, log *logger.Logger) *Library {
	if log == nil {
		log = logger.Discard()
	}
	return &Library{root: root, logger: log}
}

func (l *Library) Root() string {
	return l.root
}

// List walks the library and returns every PDF sorted by name.
func (l *Library) List(ctx context.Context) ([]Entry, error) {
	var entries []Entry

	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if d.IsDir() {
			l.logger.Trace("Scanning directory: %s", path)
			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("error reading %s: %w", path, err)
		}
		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			rel = path
		}
		entries = append(entries, Entry{Name: filepath.ToSlash(rel), Path: path, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no PDF files found in %s or its subdirectories", l.root)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	l.logger.Debug("Found %d materials in %s", len(entries), l.root)
	return entries, nil
}

// Load reads the named file below the library root.
func (l *Library) Load(ctx context.Context, ref Ref) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if strings.TrimSpace(ref.Name) == "" {
		return Document{}, ErrNoRef
	}
	full, err := l.resolve(ref.Name)
	if err != nil {
		return Document{}, err
	}

	data, err := os.ReadFile(full)
	if os.IsNotExist(err) {
		return Document{}, fmt.Errorf("%s: %w", ref.Name, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to read material: %w", err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(full)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	l.logger.Debug("Loaded material %s (%d bytes)", ref.Name, len(data))
	return newDocument(ref.Name, contentType, data)
}

func (l *Library) resolve(name string) (string, error) {
	root, err := filepath.Abs(l.root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve library root: %w", err)
	}
	full := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", name, ErrOutsideRoot)
	}
	return full, nil
}
