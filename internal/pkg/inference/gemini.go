package inference

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/ds124wfegd/image-analyser/config"
	"github.com/ds124wfegd/image-analyser/internal/entity"
	"google.golang.org/genai"
)

// GeminiClient sends the image inline to the Gemini API. The genai client is
// created on first use so a missing key surfaces on the call, not at startup.
type GeminiClient struct {
	apiKey string
	model  string
	prompt string

	mu     sync.Mutex
	client *genai.Client
}

func NewGeminiClient(apiKey, model, prompt string) *GeminiClient {
	return &GeminiClient{apiKey: apiKey, model: model, prompt: prompt}
}

func (g *GeminiClient) Model() string {
	return g.model
}

func (g *GeminiClient) Provider() string {
	return config.ProviderGemini
}

func (g *GeminiClient) Describe(ctx context.Context, imageBase64, mimeType string) (string, error) {
	if g.apiKey == "" {
		return "", entity.RemoteCallError("missing API credential, set GEMINI_API_KEY", nil)
	}

	data, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return "", entity.LocalIOError("image payload is not valid base64", err)
	}

	client, err := g.genaiClient(ctx)
	if err != nil {
		return "", entity.RemoteCallError("cannot create Gemini client", err)
	}

	parts := []*genai.Part{
		genai.NewPartFromText(g.prompt),
		genai.NewPartFromBytes(data, mimeType),
	}
	result, err := client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil)
	if err != nil {
		return "", entity.RemoteCallError(fmt.Sprintf("model service error: %v", err), err)
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", entity.RemoteCallError("malformed response: empty completion", nil)
	}
	return text, nil
}

func (g *GeminiClient) genaiClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	g.client = client
	return client, nil
}
