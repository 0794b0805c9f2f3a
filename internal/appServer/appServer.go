// launching the server, session store, inference client, kafka
package appServer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/ds124wfegd/image-analyser/config"
	"github.com/ds124wfegd/image-analyser/internal/database"
	"github.com/ds124wfegd/image-analyser/internal/metrics"
	"github.com/ds124wfegd/image-analyser/internal/pkg/inference"
	"github.com/ds124wfegd/image-analyser/internal/pkg/kafka"
	"github.com/ds124wfegd/image-analyser/internal/pkg/preview"
	"github.com/ds124wfegd/image-analyser/internal/pkg/storage"
	"github.com/ds124wfegd/image-analyser/internal/service"
	"github.com/ds124wfegd/image-analyser/internal/transport"
	"github.com/ds124wfegd/image-analyser/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/oklog/run"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func NewHTTPServer(cfg *config.Config, handler http.Handler) *Server {
	return &Server{httpServer: &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.Timeout, // analysis blocks the request
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}}
}

func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// app is everything the HTTP layer needs, built from the config.
type app struct {
	handler   http.Handler
	publisher kafka.EventPublisher
	cleanup   *worker.UploadCleanupWorker
	closers   []func() error
}

func (a *app) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			logrus.WithError(err).Warn("error occured on closing resource")
		}
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	repo, err := newUploadRepository(ctx, cfg, a)
	if err != nil {
		return nil, err
	}

	// клиент создается явно, ключ может быть пустым до первого вызова
	client, err := inference.NewClient(cfg.Inference)
	if err != nil {
		return nil, err
	}
	if cfg.Inference.APIKey() == "" {
		logrus.WithField("provider", client.Provider()).Warn("API key is not set, analysis requests will fail")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
	}

	a.publisher = kafka.NewEventPublisher(cfg.Kafka)
	a.closers = append(a.closers, a.publisher.Close)

	tmp := storage.NewTempStorage(cfg.App.TempDir)
	a.cleanup = worker.NewUploadCleanupWorker(repo, tmp, cleanupInterval(cfg), staleFileAge(cfg))

	imgService := service.NewAnalysisService(cfg,
		repo,
		tmp,
		client,
		preview.NewPreviewer(cfg.App.PreviewSize),
		a.publisher,
		m,
	)

	imgHandler := transport.NewImageHandler(imgService, transport.ServiceInfo{
		Provider:       client.Provider(),
		Model:          client.Model(),
		SessionBackend: repo.Name(),
	}, cfg.App.MaxUploadSize)

	a.handler = transport.InitRoutes(imgHandler, m)
	return a, nil
}

func cleanupInterval(cfg *config.Config) time.Duration {
	if cfg.Session.CleanupInterval > 0 {
		return cfg.Session.CleanupInterval
	}
	return 5 * time.Minute
}

// staleFileAge: no analysis outlives the write timeout, older staged files are orphans.
func staleFileAge(cfg *config.Config) time.Duration {
	if cfg.Server.Timeout > 0 {
		return 2 * cfg.Server.Timeout
	}
	return 10 * time.Minute
}

func newUploadRepository(ctx context.Context, cfg *config.Config, a *app) (database.UploadRepository, error) {
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		client := database.NewRedisClient(&cfg.Redis)
		repo, err := database.NewRedisUploadRepository(ctx, client)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return repo, nil
	default:
		return database.NewMemoryUploadRepository(), nil
	}
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(new(logrus.JSONFormatter))

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		logrus.Fatalf("error occured while building application: %s", err.Error())
	}
	defer a.Close()

	srv := NewHTTPServer(cfg, a.handler)
	g := new(run.Group)
	{
		g.Add(func() error {
			logrus.WithField("addr", cfg.GetServerAddress()).Print("App Started")
			return srv.Run()
		}, func(error) {
			logrus.Print("App Shutting Down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logrus.Errorf("error occured on server shutting down: %s", err.Error())
			}
		})
	}
	{
		workerCtx, stop := context.WithCancel(ctx)
		g.Add(func() error {
			return a.cleanup.Start(workerCtx)
		}, func(error) {
			stop()
		})
	}
	{
		g.Add(run.SignalHandler(ctx, syscall.SIGTERM, syscall.SIGINT))
	}

	err = g.Run()

	var sigErr run.SignalError
	switch {
	case errors.As(err, &sigErr), errors.Is(err, http.ErrServerClosed):
		logrus.WithField("reason", err.Error()).Print("App Stopped")
	case err != nil:
		logrus.Errorf("error occured while running http server: %s", err.Error())
	}
}
