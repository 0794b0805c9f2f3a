// Package inference talks to hosted vision-language models.
package inference

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/image-analyser/config"
)

// Client describes one image per call. Every failure is returned as an
// entity.AppError with code REMOTE_CALL_ERROR (or LOCAL_IO_ERROR when the
// input itself cannot be used).
type Client interface {
	Describe(ctx context.Context, imageBase64, mimeType string) (string, error)
	Model() string
	Provider() string
}

// NewClient builds the client for the configured provider. The credential is
// taken as is, an empty one fails at call time.
func NewClient(cfg config.InferenceConfig) (Client, error) {
	switch cfg.Provider {
	case config.ProviderTogether, "":
		return NewTogetherClient(cfg.TogetherAPIKey, cfg.BaseURL, cfg.Model, cfg.Prompt), nil
	case config.ProviderGemini:
		model := cfg.Model
		// модель по умолчанию есть только у together
		if model == "" || model == config.DefaultTogetherModel {
			model = config.DefaultGeminiModel
		}
		return NewGeminiClient(cfg.GeminiAPIKey, model, cfg.Prompt), nil
	default:
		return nil, fmt.Errorf("unknown inference provider %q", cfg.Provider)
	}
}
