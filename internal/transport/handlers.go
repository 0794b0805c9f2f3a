package transport

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ds124wfegd/image-analyser/internal/entity"
	"github.com/ds124wfegd/image-analyser/internal/service"
	"github.com/gin-gonic/gin"
)

// ServiceInfo is reported by the health endpoint.
type ServiceInfo struct {
	Provider       string
	Model          string
	SessionBackend string
}

type ImageHandler struct {
	service       service.AnalysisService
	info          ServiceInfo
	maxUploadSize int64
}

func NewImageHandler(service service.AnalysisService, info ServiceInfo, maxUploadSize int64) *ImageHandler {
	return &ImageHandler{service: service, info: info, maxUploadSize: maxUploadSize}
}

// readUpload pulls the "image" form field into memory, at most maxUploadSize+1
// bytes so the service can tell an oversized file apart.
func (h *ImageHandler) readUpload(c *gin.Context) (string, []byte, error) {
	file, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, entity.NewAppError(entity.ErrCodeValidation, "file is too large", err)
		}
		return "", nil, entity.ErrNoImageProvided
	}

	src, err := file.Open()
	if err != nil {
		return "", nil, entity.LocalIOError("failed to read upload", err)
	}
	defer src.Close()

	limit := h.maxUploadSize
	if limit <= 0 {
		limit = file.Size
	}
	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return "", nil, entity.LocalIOError("failed to read upload", err)
	}
	return file.Filename, data, nil
}

func (h *ImageHandler) accept() string {
	return strings.Join(h.service.AllowedFormats(), ",")
}

func previewURL(id string) string {
	return "/uploads/" + id + "/preview"
}

func toImageResponse(image *entity.UploadedImage) *entity.ImageResponse {
	return &entity.ImageResponse{
		ID:         image.ID,
		FileName:   image.FileName,
		Status:     image.Status,
		PreviewURL: previewURL(image.ID),
		ExpiresAt:  image.ExpiresAt,
		Result:     image.Result,
	}
}

// statusFor maps error codes onto HTTP statuses.
func statusFor(code string) int {
	switch code {
	case entity.ErrCodeValidation:
		return http.StatusBadRequest
	case entity.ErrCodeNotFound:
		return http.StatusNotFound
	case entity.ErrCodeConflict:
		return http.StatusConflict
	case entity.ErrCodeRemoteCall:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	var appErr *entity.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(entity.ErrorCode(err)), gin.H{
		"error": errorMessage(err),
		"code":  entity.ErrorCode(err),
	})
}

func (h *ImageHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"service":         "image-analyser",
		"provider":        h.info.Provider,
		"model":           h.info.Model,
		"session_backend": h.info.SessionBackend,
	})
}
