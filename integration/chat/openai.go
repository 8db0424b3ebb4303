package chat

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI model constants.
const (
	OpenAIGPT4oMini = "gpt-4o-mini"
	OpenAIGPT4o     = "gpt-4o"
)

const defaultOpenAIMaxTokens = 512

// OpenAI implements Provider using OpenAI's chat completions API.
type OpenAI struct {
	model        string
	systemPrompt string
	maxTokens    int64
	baseURL      string
	httpClient   *http.Client
}

// OpenAIOption is a functional option for configuring OpenAI.
type OpenAIOption func(*OpenAI)

// WithOpenAIModel sets the model to use.
func WithOpenAIModel(model string) OpenAIOption {
	return func(o *OpenAI) {
		o.model = model
	}
}

// WithOpenAISystemPrompt overrides the default city-guide system prompt.
func WithOpenAISystemPrompt(prompt string) OpenAIOption {
	return func(o *OpenAI) {
		if prompt != "" {
			o.systemPrompt = prompt
		}
	}
}

// WithOpenAIMaxTokens caps the length of generated replies.
func WithOpenAIMaxTokens(n int64) OpenAIOption {
	return func(o *OpenAI) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

// WithOpenAIBaseURL points the client at an alternative endpoint.
// Primarily useful for testing against a local server.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(o *OpenAI) {
		o.baseURL = url
	}
}

// WithOpenAIHTTPClient sets a custom HTTP client.
func WithOpenAIHTTPClient(client *http.Client) OpenAIOption {
	return func(o *OpenAI) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// NewOpenAI creates an OpenAI chat provider. No credential is taken here;
// each Reply call authenticates with the credential it is given.
func NewOpenAI(opts ...OpenAIOption) *OpenAI {
	o := &OpenAI{
		model:        OpenAIGPT4oMini,
		systemPrompt: defaultSystemPrompt,
		maxTokens:    defaultOpenAIMaxTokens,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Name implements Provider.
func (o *OpenAI) Name() string { return "openai" }

// Reply implements Provider.
func (o *OpenAI) Reply(ctx context.Context, credential, message string) (Reply, error) {
	if credential == "" {
		return Reply{}, ErrMissingCredential
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(credential)}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.baseURL))
	}
	if o.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(o.httpClient))
	}
	client := openai.NewClient(reqOpts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(o.systemPrompt),
			openai.UserMessage(message),
		},
		MaxTokens: openai.Int(o.maxTokens),
	})
	if err != nil {
		return Reply{}, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return Reply{}, ErrEmptyReply
	}

	return Reply{
		Text:  resp.Choices[0].Message.Content,
		Model: resp.Model,
	}, nil
}
