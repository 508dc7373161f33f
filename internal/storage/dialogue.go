package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
)

// ErrInvalidName is returned for document names that escape the dialogue directory.
var ErrInvalidName = errors.New("invalid dialogue file name")

// Dialogue document operations (filesystem-backed)

func (r *RedisStorage) dialogueDir() string {
	return filepath.Join(r.dataDir, "dialogue")
}

// ListDialogueFiles returns the slash-separated paths of all dialogue
// documents under the dialogue directory, in lexical order.
func (r *RedisStorage) ListDialogueFiles(ctx context.Context) ([]string, error) {
	return listDocuments(r.dialogueDir(), r.logger.Warn)
}

func (r *RedisStorage) ReadDialogueFile(ctx context.Context, name string) ([]byte, error) {
	path, err := documentPath(r.dialogueDir(), name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Error("Dialogue file not found", "path", path, "error", err)
			return nil, fmt.Errorf("dialogue file not found: %s", name)
		}
		return nil, fmt.Errorf("failed to read dialogue file: %w", err)
	}
	return data, nil
}

func listDocuments(root string, warn func(msg string, args ...any)) ([]string, error) {
	var names []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return fs.SkipAll
			}
			warn("Skipping unreadable dialogue path", "path", path, "error", err)
			return nil
		}
		if d.IsDir() || !dialogue.IsDocumentPath(path) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list dialogue files: %w", err)
	}

	return names, nil
}

func documentPath(root, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(root, clean), nil
}

// FileSource reads dialogue documents from files and directories named on
// the command line. Directories are searched recursively. Document names are
// the paths themselves.
type FileSource struct {
	paths  []string
	logger *slog.Logger
}

// Ensure FileSource implements DialogueSource interface
var _ DialogueSource = (*FileSource)(nil)

func NewFileSource(logger *slog.Logger, paths ...string) *FileSource {
	return &FileSource{
		paths:  paths,
		logger: logger,
	}
}

// ListDialogueFiles returns the named files as given, followed for each
// directory by the documents beneath it. A path that does not exist is an error.
func (f *FileSource) ListDialogueFiles(ctx context.Context) ([]string, error) {
	var names []string
	for _, path := range f.paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat dialogue path: %w", err)
		}
		if !info.IsDir() {
			names = append(names, path)
			continue
		}

		docs, err := listDocuments(path, f.logger.Warn)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			names = append(names, filepath.Join(path, filepath.FromSlash(doc)))
		}
	}
	return names, nil
}

func (f *FileSource) ReadDialogueFile(ctx context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read dialogue file: %w", err)
	}
	return data, nil
}
