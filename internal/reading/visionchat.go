package reading

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/papyrusai/papyrus/internal/image"
)

const (
	defaultVisionBaseURL   = "https://api.openai.com"
	defaultVisionModel     = "gpt-5"
	defaultVisionMaxTokens = 5096
	defaultVisionTimeout   = 120 * time.Second
)

// VisionChatConfig configures the chat-completions vision backend. The
// request and response shapes follow the OpenAI chat completions API and
// must not be changed.
type VisionChatConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxTokens  int
	HEICTarget string
	Timeout    time.Duration
}

// VisionChatReader sends the prompt and the image, inlined as a data URL,
// in a single chat-completion request.
type VisionChatReader struct {
	cfg    VisionChatConfig
	prompt string
	img    *image.Normalized
	client *http.Client
}

type chatMessagePart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type visionChatRequest struct {
	Model               string              `json:"model"`
	Messages            []visionChatMessage `json:"messages"`
	MaxCompletionTokens int                 `json:"max_completion_tokens"`
}

type visionChatMessage struct {
	Role    string            `json:"role"`
	Content []chatMessagePart `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewVisionChatReader normalizes the image up front and returns a reader
// bound to it.
func NewVisionChatReader(cfg VisionChatConfig, prompt, imagePath string) (*VisionChatReader, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultVisionBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultVisionModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultVisionMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultVisionTimeout
	}
	if cfg.HEICTarget == "" {
		cfg.HEICTarget = "png"
	}

	img, err := image.Normalize(imagePath, cfg.HEICTarget)
	if err != nil {
		return nil, err
	}

	return &VisionChatReader{
		cfg:    cfg,
		prompt: prompt,
		img:    img,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (r *VisionChatReader) Read(ctx context.Context) (string, error) {
	payload := visionChatRequest{
		Model: r.cfg.Model,
		Messages: []visionChatMessage{
			{
				Role: "user",
				Content: []chatMessagePart{
					{Type: "text", Text: r.prompt},
					{Type: "image_url", ImageURL: &chatImageURL{URL: r.img.DataURL()}},
				},
			},
		},
		MaxCompletionTokens: r.cfg.MaxTokens,
	}

	body, err := postJSON(ctx, r.client, "vision-chat", r.cfg.BaseURL+"/v1/chat/completions", r.cfg.APIKey, payload)
	if err != nil {
		return "", err
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode vision-chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", &BackendError{Backend: "vision-chat", Body: string(body), Reason: "response has no choices"}
	}
	return parsed.Choices[0].Message.Content, nil
}

// VisionChatFactory binds a configuration into a per-image Factory.
func VisionChatFactory(cfg VisionChatConfig) Factory {
	return func(prompt, imagePath string) (Reader, error) {
		return NewVisionChatReader(cfg, prompt, imagePath)
	}
}
