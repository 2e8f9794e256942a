package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/IshaanNene/iconfetch/internal/types"
)

// DefaultExt is used when the icon URL path carries no extension.
const DefaultExt = ".ico"

// FileStorage writes the icon to a single file on disk.
type FileStorage struct {
	path   string
	dir    string
	logger *slog.Logger
}

// NewFileStorage creates a file storage. When outputPath is empty the file
// name is derived from the target host, placed under dir.
func NewFileStorage(outputPath, dir string, logger *slog.Logger) *FileStorage {
	return &FileStorage{
		path:   outputPath,
		dir:    dir,
		logger: logger.With("component", "file_storage"),
	}
}

func (s *FileStorage) Name() string { return "file" }

// Save writes icon bytes, creating parent directories and overwriting any
// existing file, and returns the absolute path written.
func (s *FileStorage) Save(icon *types.Icon, targetURL string) (string, error) {
	outputPath := s.path
	if outputPath == "" {
		outputPath = filepath.Join(s.dir, DefaultFilename(targetURL, icon.SourceURL))
	}

	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", &types.StorageError{Path: outputPath, Err: fmt.Errorf("create output dir: %w", err)}
		}
	}

	if err := os.WriteFile(outputPath, icon.Data, 0o644); err != nil {
		return "", &types.StorageError{Path: outputPath, Err: err}
	}

	abs, err := filepath.Abs(outputPath)
	if err != nil {
		return "", &types.StorageError{Path: outputPath, Err: err}
	}

	s.logger.Info("favicon saved", "path", abs, "size", len(icon.Data))
	return abs, nil
}

// DefaultFilename builds "<host><ext>": the target hostname with any leading
// "www." removed, plus the extension of the icon URL path (".ico" if none).
func DefaultFilename(targetURL, iconURL string) string {
	host := "favicon"
	if req, err := types.NewRequest(targetURL); err == nil && req.Domain() != "" {
		host = strings.TrimPrefix(req.Domain(), "www.")
	}
	return host + iconExt(iconURL)
}

func iconExt(iconURL string) string {
	u, err := url.Parse(iconURL)
	if err != nil {
		return DefaultExt
	}
	ext := path.Ext(u.Path)
	if ext == "" || ext == "." {
		return DefaultExt
	}
	return ext
}
