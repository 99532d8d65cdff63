package data

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"minicms/internal/biz"

	"github.com/spf13/afero"
)

// fileStorage keeps uploads in a directory that is served under urlPrefix.
type fileStorage struct {
	fs        afero.Fs
	urlPrefix string
}

// OpenUploadDir creates dir if needed and returns a filesystem rooted at
// it. The same filesystem backs the storage and the public file server.
func OpenUploadDir(dir string) (afero.Fs, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return afero.NewBasePathFs(afero.NewOsFs(), dir), nil
}

// NewStorage stores uploads on fsys, which is rooted at the upload
// directory.
func NewStorage(fsys afero.Fs, urlPrefix string) biz.MediaStorage {
	return &fileStorage{fs: fsys, urlPrefix: "/" + strings.Trim(urlPrefix, "/")}
}

func checkName(filename string) error {
	if filename == "" || filename != path.Base(filename) || strings.ContainsAny(filename, `/\`) || strings.HasPrefix(filename, ".") {
		return fmt.Errorf("invalid upload filename %q", filename)
	}
	return nil
}

func (s *fileStorage) Save(filename string, r io.Reader) (string, error) {
	if err := checkName(filename); err != nil {
		return "", err
	}
	f, err := s.fs.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create upload: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		s.fs.Remove(filename)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		s.fs.Remove(filename)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return s.urlPrefix, nil
}

func (s *fileStorage) Remove(filename string) error {
	if err := checkName(filename); err != nil {
		return err
	}
	if err := s.fs.Remove(filename); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove upload: %w", err)
	}
	return nil
}
