package transport

import (
	"time"

	"github.com/ds124wfegd/image-analyser/internal/metrics"
	"github.com/ds124wfegd/image-analyser/internal/transport/middleware"
	"github.com/ds124wfegd/image-analyser/internal/web"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// multipart overhead on top of the file itself
const formOverhead = 1 << 20

// InitRoutes wires the pages, the JSON API and the service endpoints. m may
// be nil, then /metrics is not exposed.
func InitRoutes(imgHandler *ImageHandler, m *metrics.Metrics) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposeHeaders:   []string{"X-Request-Id"},
		MaxAge:          12 * time.Hour,
	}))
	router.Use(middleware.Logger())
	if m != nil {
		router.Use(middleware.Metrics(m))
	}

	router.SetHTMLTemplate(web.Templates())

	uploadLimit := middleware.BodyLimit(imgHandler.maxUploadSize + formOverhead)

	// Web interface routes
	router.GET("/", imgHandler.Index)
	router.POST("/upload", uploadLimit, imgHandler.UploadPage)
	router.GET("/uploads/:id/preview", imgHandler.Preview)
	router.POST("/uploads/:id/analyze", imgHandler.AnalyzePage)

	// API routes
	api := router.Group("/api/v1")
	{
		uploads := api.Group("/uploads")
		{
			uploads.POST("", uploadLimit, imgHandler.UploadImage)
			uploads.GET("/:id", imgHandler.GetImage)
			uploads.DELETE("/:id", imgHandler.DeleteImage)
			uploads.POST("/:id/analyze", imgHandler.AnalyzeImage)
		}
	}

	// Health check
	router.GET("/health", imgHandler.Health)

	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}
	return router
}
