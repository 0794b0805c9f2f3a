package inference

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ds124wfegd/image-analyser/config"
	"github.com/ds124wfegd/image-analyser/internal/entity"
	"github.com/ds124wfegd/image-analyser/internal/pkg/encoder"
	openai "github.com/sashabaranov/go-openai"
)

// TogetherClient calls Together's OpenAI-compatible chat completions API.
type TogetherClient struct {
	client *openai.Client
	apiKey string
	model  string
	prompt string
}

func NewTogetherClient(apiKey, baseURL, model, prompt string) *TogetherClient {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	return &TogetherClient{
		client: openai.NewClientWithConfig(clientCfg),
		apiKey: apiKey,
		model:  model,
		prompt: prompt,
	}
}

func (c *TogetherClient) Model() string {
	return c.model
}

func (c *TogetherClient) Provider() string {
	return config.ProviderTogether
}

func (c *TogetherClient) Describe(ctx context.Context, imageBase64, mimeType string) (string, error) {
	if c.apiKey == "" {
		return "", entity.RemoteCallError("missing API credential, set TOGETHER_API_KEY", nil)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: c.prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: encoder.DataURI(mimeType, imageBase64),
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", togetherError(err)
	}

	if len(resp.Choices) == 0 {
		return "", entity.RemoteCallError("malformed response: no completion choices", nil)
	}

	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", entity.RemoteCallError("malformed response: empty completion", nil)
	}
	return text, nil
}

func togetherError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return entity.RemoteCallError("authentication failed, check TOGETHER_API_KEY", err)
		default:
			return entity.RemoteCallError(fmt.Sprintf("model service returned %d: %s", apiErr.HTTPStatusCode, apiErr.Message), err)
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusUnauthorized || reqErr.HTTPStatusCode == http.StatusForbidden {
			return entity.RemoteCallError("authentication failed, check TOGETHER_API_KEY", err)
		}
		return entity.RemoteCallError(fmt.Sprintf("model service returned HTTP %d", reqErr.HTTPStatusCode), err)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return entity.RemoteCallError("request to model service was interrupted", err)
	}

	return entity.RemoteCallError(fmt.Sprintf("request to model service failed: %v", err), err)
}
