package transport

import (
	"net/http"

	"github.com/ds124wfegd/image-analyser/internal/entity"
	"github.com/gin-gonic/gin"
)

type pageData struct {
	Accept string
	Error  string
	Image  *entity.ImageResponse
	Result *entity.AnalysisResult
}

func (h *ImageHandler) render(c *gin.Context, status int, data pageData) {
	data.Accept = h.accept()
	c.HTML(status, "index.html", data)
}

func (h *ImageHandler) renderError(c *gin.Context, err error) {
	_ = c.Error(err)
	h.render(c, statusFor(entity.ErrorCode(err)), pageData{Error: errorMessage(err)})
}

func (h *ImageHandler) Index(c *gin.Context) {
	h.render(c, http.StatusOK, pageData{})
}

func (h *ImageHandler) UploadPage(c *gin.Context) {
	fileName, data, err := h.readUpload(c)
	if err != nil {
		h.renderError(c, err)
		return
	}

	image, err := h.service.Upload(c.Request.Context(), fileName, data)
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.render(c, http.StatusOK, pageData{Image: toImageResponse(image)})
}

// AnalyzePage blocks until the model answers. A failed analysis is still a
// rendered page, the message is shown inline.
func (h *ImageHandler) AnalyzePage(c *gin.Context) {
	id := c.Param("id")

	result, err := h.service.Analyze(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}

	data := pageData{Result: &result}
	if image, err := h.service.GetUpload(c.Request.Context(), id); err == nil {
		data.Image = toImageResponse(image)
	}
	h.render(c, http.StatusOK, data)
}

func (h *ImageHandler) Preview(c *gin.Context) {
	out, err := h.service.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		c.Status(statusFor(entity.ErrorCode(err)))
		return
	}

	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, out.ContentType, out.Data)
}
