package transport

import (
	"net/http"

	"github.com/ds124wfegd/image-analyser/internal/entity"
	"github.com/gin-gonic/gin"
)

func (h *ImageHandler) UploadImage(c *gin.Context) {
	fileName, data, err := h.readUpload(c)
	if err != nil {
		respondError(c, err)
		return
	}

	image, err := h.service.Upload(c.Request.Context(), fileName, data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entity.UploadResponse{
		ID:         image.ID,
		FileName:   image.FileName,
		Size:       image.Size,
		Status:     image.Status,
		PreviewURL: previewURL(image.ID),
	})
}

func (h *ImageHandler) AnalyzeImage(c *gin.Context) {
	result, err := h.service.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = statusFor(result.Code)
	}
	c.JSON(status, result)
}

func (h *ImageHandler) GetImage(c *gin.Context) {
	image, err := h.service.GetUpload(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toImageResponse(image))
}

func (h *ImageHandler) DeleteImage(c *gin.Context) {
	if err := h.service.DeleteUpload(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Upload deleted successfully"})
}
