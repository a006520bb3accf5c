package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"edubot/internal/domain"

	"github.com/gabriel-vasile/mimetype"
)

// MaxUploadSize caps local documents read for upload. API Gateway rejects
// payloads above 10MB and base64 grows the file by a third.
const MaxUploadSize = 7 * 1024 * 1024

var ErrFileTooLarge = fmt.Errorf("file is too large, the limit is %dMB", MaxUploadSize/(1024*1024))

type fileRepo struct {
	maxSize int64
}

// NewFileSource reads documents from the local filesystem.
func NewFileSource() domain.FileSource {
	return &fileRepo{maxSize: MaxUploadSize}
}

func (r *fileRepo) Read(path string) (*domain.LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, errors.New(path + " is a directory")
	}
	if info.Size() > r.maxSize {
		return nil, ErrFileTooLarge
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return &domain.LocalFile{
		Name:        filepath.Base(path),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}
