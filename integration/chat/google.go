package chat

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Google model constants.
const (
	GoogleGeminiFlash = "gemini-2.0-flash"
	GoogleGeminiPro   = "gemini-2.5-pro"
)

// Google implements Provider using the Gemini API.
type Google struct {
	model        string
	systemPrompt string
	backend      genai.Backend
}

// GoogleOption is a functional option for configuring Google.
type GoogleOption func(*Google)

// WithGoogleModel sets the model to use.
func WithGoogleModel(model string) GoogleOption {
	return func(g *Google) {
		g.model = model
	}
}

// WithGoogleSystemPrompt overrides the default city-guide system prompt.
func WithGoogleSystemPrompt(prompt string) GoogleOption {
	return func(g *Google) {
		if prompt != "" {
			g.systemPrompt = prompt
		}
	}
}

// WithGoogleBackend sets the backend to use (Gemini API or Vertex AI).
func WithGoogleBackend(backend genai.Backend) GoogleOption {
	return func(g *Google) {
		g.backend = backend
	}
}

// NewGoogle creates a Gemini chat provider. No credential is taken here;
// each Reply call authenticates with the credential it is given.
func NewGoogle(opts ...GoogleOption) *Google {
	g := &Google{
		model:        GoogleGeminiFlash,
		systemPrompt: defaultSystemPrompt,
		backend:      genai.BackendGeminiAPI,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Name implements Provider.
func (g *Google) Name() string { return "google" }

// Reply implements Provider.
func (g *Google) Reply(ctx context.Context, credential, message string) (Reply, error) {
	if credential == "" {
		return Reply{}, ErrMissingCredential
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  credential,
		Backend: g.backend,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, g.model,
		genai.Text(message),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(g.systemPrompt, genai.RoleUser),
		},
	)
	if err != nil {
		return Reply{}, fmt.Errorf("content generation failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return Reply{}, ErrEmptyReply
	}

	return Reply{Text: text, Model: g.model}, nil
}
