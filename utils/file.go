package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CopyFileWithTimestamp copies sourcePath into uploadDir as
// name_<unix>_<uuid>.ext and returns the stored key (the destination file
// name) and full path. An existing file is never overwritten.
func CopyFileWithTimestamp(sourcePath, uploadDir string) (key string, destPath string, err error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create upload directory: %v", err)
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to open source file: %v", err)
	}
	defer src.Close()

	originalName := filepath.Base(sourcePath)
	ext := filepath.Ext(originalName)
	base := strings.TrimSuffix(originalName, ext)
	key = fmt.Sprintf("%s_%d_%s%s", base, time.Now().Unix(), uuid.NewString(), ext)
	destPath = filepath.Join(uploadDir, key)

	dst, err := os.OpenFile(destPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", "", fmt.Errorf("failed to create destination file: %v", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(destPath)
		return "", "", fmt.Errorf("failed to copy file: %v", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(destPath)
		return "", "", fmt.Errorf("failed to write destination file: %v", err)
	}
	return key, destPath, nil
}

// RemoveStoredFile deletes a file previously stored under uploadDir by key.
// A missing file is not an error.
func RemoveStoredFile(uploadDir, key string) error {
	if key == "" || key != filepath.Base(key) {
		return fmt.Errorf("invalid file key %q", key)
	}
	if err := os.Remove(filepath.Join(uploadDir, key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stored file: %v", err)
	}
	return nil
}

// FindPDFFiles lists *.pdf files directly under dir, sorted by name.
func FindPDFFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %v", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}
