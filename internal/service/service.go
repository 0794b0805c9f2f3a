package service

import (
	"context"
	"strings"
	"time"

	"github.com/ds124wfegd/image-analyser/config"
	"github.com/ds124wfegd/image-analyser/internal/database"
	"github.com/ds124wfegd/image-analyser/internal/entity"
	"github.com/ds124wfegd/image-analyser/internal/metrics"
	"github.com/ds124wfegd/image-analyser/internal/pkg/inference"
	"github.com/ds124wfegd/image-analyser/internal/pkg/kafka"
	"github.com/ds124wfegd/image-analyser/internal/pkg/preview"
	"github.com/ds124wfegd/image-analyser/internal/pkg/storage"
)

type AnalysisService interface {
	// Upload validates and stages an image. Nothing leaves the process here.
	Upload(ctx context.Context, fileName string, data []byte) (*entity.UploadedImage, error)
	// Analyze runs encode and describe for a staged upload. Failures of the
	// analysis itself come back inside the result, the error is reserved for
	// unknown uploads, a concurrent analysis and store failures.
	Analyze(ctx context.Context, id string) (entity.AnalysisResult, error)
	GetUpload(ctx context.Context, id string) (*entity.UploadedImage, error)
	Preview(ctx context.Context, id string) (*preview.Image, error)
	DeleteUpload(ctx context.Context, id string) error
	AllowedFormats() []string
}

type analysisService struct {
	repo      database.UploadRepository
	storage   storage.TempStorage
	client    inference.Client
	previewer preview.Previewer
	publisher kafka.EventPublisher
	metrics   *metrics.Metrics

	maxUploadSize  int64
	allowedFormats map[string]bool
	formats        []string
	uploadTTL      time.Duration
}

func NewAnalysisService(
	cfg *config.Config,
	repo database.UploadRepository,
	tmp storage.TempStorage,
	client inference.Client,
	previewer preview.Previewer,
	publisher kafka.EventPublisher,
	m *metrics.Metrics,
) AnalysisService {
	allowed := make(map[string]bool, len(cfg.App.AllowedFormats))
	formats := make([]string, 0, len(cfg.App.AllowedFormats))
	for _, f := range cfg.App.AllowedFormats {
		ext := strings.ToLower(f)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !allowed[ext] {
			allowed[ext] = true
			formats = append(formats, ext)
		}
	}

	return &analysisService{
		repo:           repo,
		storage:        tmp,
		client:         client,
		previewer:      previewer,
		publisher:      publisher,
		metrics:        m,
		maxUploadSize:  cfg.App.MaxUploadSize,
		allowedFormats: allowed,
		formats:        formats,
		uploadTTL:      cfg.Session.UploadTTL,
	}
}

func (s *analysisService) AllowedFormats() []string {
	return s.formats
}
