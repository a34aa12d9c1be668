package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"attendance-backend/utils"

	"github.com/google/uuid"
)

// ImageStore keeps face images and profile pictures on local disk. Paths
// handed back are relative to BaseDir and use forward slashes.
type ImageStore struct {
	BaseDir string
}

func NewImageStore(baseDir string) *ImageStore {
	if strings.TrimSpace(baseDir) == "" {
		baseDir = "uploads"
	}
	return &ImageStore{BaseDir: baseDir}
}

// SaveBase64 decodes a raw base64 string or data URI and stores it under
// subdir. The decoded bytes are returned so callers need not read them back.
func (s *ImageStore) SaveBase64(b64 string, subdir string) (string, []byte, error) {
	data, ext, err := utils.DecodeBase64Image(b64)
	if err != nil {
		return "", nil, fmt.Errorf("decode base64: %w", err)
	}
	rel, err := s.Save(data, ext, subdir)
	if err != nil {
		return "", nil, err
	}
	return rel, data, nil
}

func (s *ImageStore) Save(data []byte, ext string, subdir string) (string, error) {
	if len(data) == 0 {
		return "", utils.ErrEmptyImage
	}
	if ext == "" {
		ext = ".jpg"
	}

	dir := filepath.Join(s.BaseDir, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("mkdir uploads dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s%s", time.Now().Format("20060102T150405"), uuid.NewString()[:8], ext)
	fullpath := filepath.Join(dir, filename)

	if err := os.WriteFile(fullpath, data, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	// stored as "faces/check_in/xxx.jpg"
	return filepath.ToSlash(filepath.Join(subdir, filename)), nil
}

func (s *ImageStore) Load(rel string) ([]byte, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimSpace(rel)))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return nil, errors.New("invalid image path")
	}
	data, err := os.ReadFile(filepath.Join(s.BaseDir, clean))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}
