package database

import (
	"context"
	"time"

	"github.com/ds124wfegd/image-analyser/internal/entity"
)

func NewMemoryUploadRepository() UploadRepository {
	return newMemoryUploadRepository(time.Now)
}

func newMemoryUploadRepository(now func() time.Time) *memoryUploadRepository {
	return &memoryUploadRepository{
		uploads: make(map[string]*entity.UploadedImage),
		now:     now,
	}
}

func (r *memoryUploadRepository) Name() string {
	return "memory"
}

func (r *memoryUploadRepository) Save(_ context.Context, image *entity.UploadedImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictExpired()

	stored := *image
	r.uploads[image.ID] = &stored
	return nil
}

func (r *memoryUploadRepository) FindByID(_ context.Context, id string) (*entity.UploadedImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	image, err := r.get(id)
	if err != nil {
		return nil, err
	}
	found := *image
	return &found, nil
}

func (r *memoryUploadRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.get(id); err != nil {
		return err
	}
	delete(r.uploads, id)
	return nil
}

func (r *memoryUploadRepository) BeginAnalysis(_ context.Context, id string) (*entity.UploadedImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	image, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if image.Status == entity.StatusAnalyzing {
		return nil, entity.ErrAnalysisInProgress
	}

	image.Status = entity.StatusAnalyzing
	found := *image
	return &found, nil
}

func (r *memoryUploadRepository) FinishAnalysis(_ context.Context, id string, result entity.AnalysisResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	image, err := r.get(id)
	if err != nil {
		return err
	}
	image.Status = entity.StatusDone
	image.Result = &result
	return nil
}

// get must be called with mu held.
func (r *memoryUploadRepository) get(id string) (*entity.UploadedImage, error) {
	image, ok := r.uploads[id]
	if !ok {
		return nil, entity.ErrUploadNotFound
	}
	if !image.ExpiresAt.IsZero() && !r.now().Before(image.ExpiresAt) {
		delete(r.uploads, id)
		return nil, entity.ErrUploadNotFound
	}
	return image, nil
}

func (r *memoryUploadRepository) PurgeExpired(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.evictExpired(), nil
}

func (r *memoryUploadRepository) evictExpired() int {
	now := r.now()
	removed := 0
	for id, image := range r.uploads {
		if !image.ExpiresAt.IsZero() && !now.Before(image.ExpiresAt) {
			delete(r.uploads, id)
			removed++
		}
	}
	return removed
}
