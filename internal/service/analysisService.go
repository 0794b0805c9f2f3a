package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/ds124wfegd/image-analyser/internal/entity"
	"github.com/ds124wfegd/image-analyser/internal/pkg/encoder"
	"github.com/ds124wfegd/image-analyser/internal/pkg/preview"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func (s *analysisService) Upload(ctx context.Context, fileName string, data []byte) (*entity.UploadedImage, error) {
	image, err := s.validate(fileName, data)
	if err != nil {
		s.metrics.UploadReceived(entity.ErrorCode(err))
		return nil, err
	}

	now := time.Now()
	image.ID = uuid.New().String()
	image.Status = entity.StatusReady
	image.CreatedAt = now
	image.ExpiresAt = now.Add(s.uploadTTL)

	if err := s.repo.Save(ctx, image); err != nil {
		s.metrics.UploadReceived(entity.ErrCodeLocalIO)
		return nil, entity.LocalIOError("failed to stage upload", err)
	}
	s.metrics.UploadReceived("accepted")

	logrus.WithFields(logrus.Fields{
		"image_id":  image.ID,
		"file_name": image.FileName,
		"size":      image.Size,
	}).Info("Upload staged")

	return image, nil
}

// validate checks the extension first, so a disallowed file is never decoded.
func (s *analysisService) validate(fileName string, data []byte) (*entity.UploadedImage, error) {
	ext := entity.NormalizeExtension(fileName)
	if !s.allowedFormats[ext] {
		return nil, entity.ErrUnsupportedFormat
	}
	if len(data) == 0 {
		return nil, entity.ErrNoImageProvided
	}
	if s.maxUploadSize > 0 && int64(len(data)) > s.maxUploadSize {
		return nil, entity.NewAppError(entity.ErrCodeValidation,
			fmt.Sprintf("file is too large, limit is %d bytes", s.maxUploadSize), nil)
	}
	if err := s.previewer.Verify(data); err != nil {
		return nil, entity.NewAppError(entity.ErrCodeValidation, entity.ErrUndecodableImage.Message, err)
	}

	return &entity.UploadedImage{
		FileName:    fileName,
		Extension:   ext,
		ContentType: entity.ContentTypeFor(ext),
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}

func (s *analysisService) Analyze(ctx context.Context, id string) (entity.AnalysisResult, error) {
	image, err := s.repo.BeginAnalysis(ctx, id)
	if err != nil {
		return entity.AnalysisResult{}, err
	}

	logger := logrus.WithFields(logrus.Fields{
		"image_id": image.ID,
		"provider": s.client.Provider(),
		"model":    s.client.Model(),
		"size":     image.Size,
	})
	logger.Info("Analysis started")

	start := time.Now()
	text, err := s.describe(ctx, image)
	took := time.Since(start)

	var result entity.AnalysisResult
	if err != nil {
		result = entity.Failed(image.ID, s.client.Model(), err, took)
		logger.WithError(err).WithField("duration_ms", result.DurationMs).Warn("Analysis failed")
	} else {
		result = entity.Succeeded(image.ID, s.client.Model(), text, took)
		logger.WithField("duration_ms", result.DurationMs).Info("Analysis finished")
	}

	// результат сохраняем даже если клиент уже отключился
	bg := context.WithoutCancel(ctx)
	if err := s.repo.FinishAnalysis(bg, image.ID, result); err != nil {
		logger.WithError(err).Error("Failed to store analysis result")
	}

	s.metrics.AnalysisFinished(s.client.Provider(), result.Success, result.Code, took)

	event := entity.AnalysisEvent{
		ImageID:    image.ID,
		FileName:   image.FileName,
		Size:       image.Size,
		Provider:   s.client.Provider(),
		Model:      s.client.Model(),
		Success:    result.Success,
		Code:       result.Code,
		DurationMs: result.DurationMs,
		OccurredAt: result.FinishedAt,
	}
	if err := s.publisher.Publish(bg, event); err != nil {
		logger.WithError(err).Warn("Failed to publish analysis event")
	}

	return result, nil
}

// describe stages the bytes in a temporary file, encodes it and asks the
// model. The file is gone when describe returns.
func (s *analysisService) describe(ctx context.Context, image *entity.UploadedImage) (string, error) {
	path, err := s.storage.Stage(image.Extension, bytes.NewReader(image.Data))
	if err != nil {
		return "", entity.LocalIOError("failed to write temporary file", err)
	}
	defer func() {
		if err := s.storage.Remove(path); err != nil {
			logrus.WithError(err).WithField("path", path).Error("Failed to remove temporary file")
		}
	}()

	encoded, err := encoder.EncodeFile(path)
	if err != nil {
		return "", err
	}

	return s.client.Describe(ctx, encoded, image.ContentType)
}

func (s *analysisService) GetUpload(ctx context.Context, id string) (*entity.UploadedImage, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *analysisService) Preview(ctx context.Context, id string) (*preview.Image, error) {
	image, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	out, err := s.previewer.Render(image.Data)
	if err != nil {
		return nil, entity.LocalIOError("failed to render preview", err)
	}
	return out, nil
}

func (s *analysisService) DeleteUpload(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logrus.WithField("image_id", id).Info("Upload deleted")
	return nil
}
