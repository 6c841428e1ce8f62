package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	uploadDir    = "uploads"
	convertedDir = "converted"
)

// FileStore persists uploaded sources and converted outputs on the local
// filesystem, under two sibling areas rooted at basePath.
type FileStore struct {
	basePath string
}

// NewFileStore initializes a FileStore rooted at basePath and ensures both
// storage areas exist.
func NewFileStore(basePath string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	for _, dir := range []string{uploadDir, convertedDir} {
		if err := os.MkdirAll(filepath.Join(basePath, dir), 0o755); err != nil {
			return nil, fmt.Errorf("storage: ensure %s area: %w", dir, err)
		}
	}
	return &FileStore{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	return s.basePath
}

// UploadArea returns the directory holding uploaded source files.
func (s *FileStore) UploadArea() string {
	return filepath.Join(s.basePath, uploadDir)
}

// ConvertedArea returns the directory holding conversion outputs.
func (s *FileStore) ConvertedArea() string {
	return filepath.Join(s.basePath, convertedDir)
}

// SaveUpload streams an uploaded source into the upload area under the job id
// and returns the stored path together with the byte count.
func (s *FileStore) SaveUpload(jobID, fileName string, r io.Reader) (string, int64, error) {
	name, err := sanitizeName(fileName)
	if err != nil {
		return "", 0, err
	}
	path := filepath.Join(s.UploadArea(), jobID+"-"+name)

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("storage: create upload: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("storage: write upload: %w", err)
	}
	return path, n, nil
}

// OutputPath resolves the deterministic output location for a job: the
// converted area, job id, original base name and target extension.
func (s *FileStore) OutputPath(jobID, fileName, targetFormat string) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	if base == "" || base == "." {
		base = "file"
	}
	return filepath.Join(s.ConvertedArea(), fmt.Sprintf("%s-%s.%s", jobID, base, targetFormat))
}

// Open opens a stored file for reading.
func (s *FileStore) Open(path string) (*os.File, os.FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return f, info, nil
}

// sanitizeName strips any path components from an uploaded file name.
func sanitizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return "", errors.New("storage: invalid file name")
	}
	return name, nil
}
