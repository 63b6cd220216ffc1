package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/xhad/examaid/internal/models"
	"github.com/xhad/examaid/internal/types"
)

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	Provider    string // "ollama" or "googleai"
	Model       string
	Temperature float64
	MaxTokens   int
	BaseURL     string // Ollama server URL
	APIKey      string // Gemini API key
	HTTPClient  *http.Client
}

// ChatEngine adapts a langchaingo model to the text and vision model
// boundaries, normalising every backend's response to a plain string.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

var (
	_ types.TextModel   = (*ChatEngine)(nil)
	_ types.VisionModel = (*ChatEngine)(nil)
)

// NewWithConfig creates a new ChatEngine with the given configuration.
func NewWithConfig(ctx context.Context, config ChatConfig) (*ChatEngine, error) {
	if config.Provider == "" {
		config.Provider = "ollama"
	}
	if config.Model == "" {
		config.Model = "qwen:0.5b" // Default Ollama model
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}

	var (
		model llms.Model
		err   error
	)
	switch config.Provider {
	case "ollama":
		model, err = ollama.New(
			ollama.WithModel(config.Model),
			ollama.WithServerURL(config.BaseURL),
			ollama.WithHTTPClient(config.HTTPClient))
	case "googleai":
		model, err = googleai.New(ctx,
			googleai.WithAPIKey(config.APIKey),
			googleai.WithDefaultModel(config.Model))
	default:
		return nil, fmt.Errorf("unknown provider %q", config.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return New(model, config), nil
}

// New wraps an already constructed model.
func New(model llms.Model, config ChatConfig) *ChatEngine {
	return &ChatEngine{
		config: config,
		llm:    model,
	}
}

// Model returns the configured model name.
func (ce *ChatEngine) Model() string {
	return ce.config.Model
}

// Generate sends a single text prompt and returns the first choice.
func (ce *ChatEngine) Generate(ctx context.Context, prompt string) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	return ce.generate(ctx, content)
}

// GenerateWithImage sends the image followed by the prompt in one human turn.
func (ce *ChatEngine) GenerateWithImage(ctx context.Context, prompt string, img models.Image) (string, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.BinaryPart(img.MIMEType, img.Data),
				llms.TextPart(prompt),
			},
		},
	}
	return ce.generate(ctx, content)
}

func (ce *ChatEngine) generate(ctx context.Context, content []llms.MessageContent) (string, error) {
	response, err := ce.llm.GenerateContent(ctx, content, ce.callOptions()...)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", types.ErrModelCall, ce.config.Model, err)
	}

	if response == nil || len(response.Choices) == 0 || response.Choices[0] == nil {
		return "", fmt.Errorf("%w: %s: %w", types.ErrModelCall, ce.config.Model, types.ErrEmptyResponse)
	}

	return response.Choices[0].Content, nil
}

func (ce *ChatEngine) callOptions() []llms.CallOption {
	var opts []llms.CallOption
	if ce.config.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(ce.config.Temperature))
	}
	if ce.config.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(ce.config.MaxTokens))
	}
	return opts
}
