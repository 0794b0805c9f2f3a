package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const stagedPrefix = "upload-"

// TempStorage stages upload bytes on disk for the duration of one analysis.
type TempStorage interface {
	// Stage writes data to a new file whose name ends in suffix and returns its path.
	Stage(suffix string, data io.Reader) (string, error)
	Remove(path string) error
	Exists(path string) bool
	// RemoveStale deletes staged files older than maxAge, left behind by a crash.
	RemoveStale(maxAge time.Duration) (int, error)
}

type tempStorage struct {
	basePath string
}

func NewTempStorage(basePath string) TempStorage {
	return &tempStorage{basePath: basePath}
}

func (s *tempStorage) Stage(suffix string, data io.Reader) (string, error) {
	// Создаем директорию если нужно
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return "", err
	}

	file, err := os.CreateTemp(s.basePath, stagedPrefix+"*"+suffix)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(file, data); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", err
	}

	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", err
	}
	return file.Name(), nil
}

func (s *tempStorage) Remove(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *tempStorage) Exists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

func (s *tempStorage) RemoveStale(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), stagedPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := s.Remove(filepath.Join(s.basePath, entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}
