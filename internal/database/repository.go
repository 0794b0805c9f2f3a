package database

import (
	"context"
	"sync"
	"time"

	"github.com/ds124wfegd/image-analyser/internal/entity"
	"github.com/redis/go-redis/v9"
)

// UploadRepository keeps staged uploads between the upload request and the
// analyze request. Lookups of unknown or expired uploads return
// entity.ErrUploadNotFound.
type UploadRepository interface {
	Save(ctx context.Context, image *entity.UploadedImage) error
	FindByID(ctx context.Context, id string) (*entity.UploadedImage, error)
	Delete(ctx context.Context, id string) error
	// BeginAnalysis moves the upload to Analyzing. Only one caller wins, the
	// others get entity.ErrAnalysisInProgress.
	BeginAnalysis(ctx context.Context, id string) (*entity.UploadedImage, error)
	// FinishAnalysis stores the result and moves the upload to Done.
	FinishAnalysis(ctx context.Context, id string, result entity.AnalysisResult) error
	// PurgeExpired drops expired uploads and returns how many were removed.
	PurgeExpired(ctx context.Context) (int, error)
	Name() string
}

type memoryUploadRepository struct {
	mu      sync.Mutex
	uploads map[string]*entity.UploadedImage
	now     func() time.Time
}

type redisUploadRepository struct {
	client  *redis.Client
	lockTTL time.Duration
}
