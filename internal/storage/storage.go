// Package storage keeps uploaded document files on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	// ErrTooLarge is returned when an upload exceeds the size limit
	ErrTooLarge = errors.New("file exceeds the maximum upload size")
	// ErrUnsupportedType is returned for files that are not PDF or images
	ErrUnsupportedType = errors.New("unsupported file type")
)

var allowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// Object describes a stored file
type Object struct {
	Path     string
	Size     int64
	MimeType string
}

// Local stores files under a base directory
type Local struct {
	basePath string
	maxSize  int64
}

// NewLocal creates the base directory if needed
func NewLocal(basePath string, maxSize int64) (*Local, error) {
	if basePath == "" {
		basePath = "./uploads"
	}
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Local{basePath: basePath, maxSize: maxSize}, nil
}

// Save writes data to <base>/<owner>/<prefix>-<uuid><ext>. Files larger
// than the limit or of an unsupported type are removed and rejected.
func (s *Local) Save(_ context.Context, owner uuid.UUID, prefix, fileName string, data io.Reader) (*Object, error) {
	dir := filepath.Join(s.basePath, owner.String())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create owner dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(fileName)))
	path := filepath.Join(dir, fmt.Sprintf("%s-%s%s", strings.ToLower(prefix), uuid.New().String(), ext))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o640)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	reader := data
	if s.maxSize > 0 {
		reader = io.LimitReader(data, s.maxSize+1)
	}
	size, err := io.Copy(f, reader)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write file: %w", err)
	}
	if s.maxSize > 0 && size > s.maxSize {
		_ = os.Remove(path)
		return nil, ErrTooLarge
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("detect file type: %w", err)
	}
	base := strings.SplitN(mtype.String(), ";", 2)[0]
	if !allowedMimeTypes[base] {
		_ = os.Remove(path)
		return nil, ErrUnsupportedType
	}

	return &Object{Path: path, Size: size, MimeType: base}, nil
}

// Open returns a reader for a stored file
func (s *Local) Open(_ context.Context, path string) (io.ReadCloser, error) {
	if err := s.contains(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *Local) Delete(_ context.Context, path string) error {
	if path == "" {
		return nil
	}
	if err := s.contains(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (s *Local) contains(path string) error {
	base, err := filepath.Abs(s.basePath)
	if err != nil {
		return fmt.Errorf("resolve storage dir: %w", err)
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q is outside storage", path)
	}
	return nil
}
