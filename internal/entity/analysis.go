package entity

import (
	"errors"
	"time"
)

// AnalysisResult is what the trigger action hands to the renderer: either the
// model's text or a human-readable failure message, never both.
type AnalysisResult struct {
	ImageID    string    `json:"image_id"`
	Success    bool      `json:"success"`
	Text       string    `json:"text,omitempty"`
	Error      string    `json:"error,omitempty"`
	Code       string    `json:"code,omitempty"`
	Model      string    `json:"model,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}

func Succeeded(imageID, model, text string, took time.Duration) AnalysisResult {
	return AnalysisResult{
		ImageID:    imageID,
		Success:    true,
		Text:       text,
		Model:      model,
		DurationMs: took.Milliseconds(),
		FinishedAt: time.Now(),
	}
}

// Failed turns err into a failure result. AppError messages are shown as is,
// anything else is reported as a local I/O failure.
func Failed(imageID, model string, err error, took time.Duration) AnalysisResult {
	code := ErrCodeLocalIO
	msg := err.Error()

	var appErr *AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		msg = appErr.Message
	}

	return AnalysisResult{
		ImageID:    imageID,
		Success:    false,
		Error:      msg,
		Code:       code,
		Model:      model,
		DurationMs: took.Milliseconds(),
		FinishedAt: time.Now(),
	}
}

// AnalysisEvent is published on the event stream after every analysis.
type AnalysisEvent struct {
	ImageID    string    `json:"image_id"`
	FileName   string    `json:"file_name"`
	Size       int64     `json:"size"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	Success    bool      `json:"success"`
	Code       string    `json:"code,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	OccurredAt time.Time `json:"occurred_at"`
}
