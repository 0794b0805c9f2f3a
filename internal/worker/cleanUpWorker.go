package worker

import (
	"context"
	"time"

	"github.com/ds124wfegd/image-analyser/internal/database"
	"github.com/ds124wfegd/image-analyser/internal/pkg/storage"
	"github.com/sirupsen/logrus"
)

// UploadCleanupWorker drops expired uploads and staged files left behind by
// an interrupted analysis.
type UploadCleanupWorker struct {
	repo     database.UploadRepository
	storage  storage.TempStorage
	interval time.Duration
	maxAge   time.Duration
}

// NewUploadCleanupWorker: maxAge is how old a staged file must be before it
// counts as orphaned.
func NewUploadCleanupWorker(repo database.UploadRepository, tmp storage.TempStorage, interval, maxAge time.Duration) *UploadCleanupWorker {
	return &UploadCleanupWorker{
		repo:     repo,
		storage:  tmp,
		interval: interval,
		maxAge:   maxAge,
	}
}

// Start blocks until ctx is cancelled.
func (w *UploadCleanupWorker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.WithField("interval", w.interval.String()).Info("Upload cleanup worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Upload cleanup worker stopped")
			return ctx.Err()
		case <-ticker.C:
			w.Cleanup(ctx)
		}
	}
}

// Cleanup выполняет один проход очистки
func (w *UploadCleanupWorker) Cleanup(ctx context.Context) {
	uploads, err := w.repo.PurgeExpired(ctx)
	if err != nil {
		logrus.Errorf("Failed to purge expired uploads: %v", err)
	}

	files, err := w.storage.RemoveStale(w.maxAge)
	if err != nil {
		logrus.Errorf("Failed to remove stale temporary files: %v", err)
	}

	if uploads > 0 || files > 0 {
		logrus.WithFields(logrus.Fields{
			"uploads": uploads,
			"files":   files,
		}).Info("Upload cleanup completed")
	}
}
