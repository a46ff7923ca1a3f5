package reading

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/papyrusai/papyrus/internal/image"
)

const (
	defaultOCRBaseURL   = "https://api.mistral.ai"
	defaultOCRModel     = "mistral-ocr-latest"
	defaultOCRChatModel = "mistral-medium-latest"
	defaultOCRTimeout   = 120 * time.Second

	// ocrPromptSeparator joins the caller's prompt with the OCR output in
	// the follow-up chat call.
	ocrPromptSeparator = "\n\n======================\n\nNow the part I'd like to convert: "
)

// OCRChatConfig configures the two-stage OCR-then-chat backend. Request and
// response shapes follow the Mistral OCR and chat completions APIs.
type OCRChatConfig struct {
	BaseURL    string
	APIKey     string
	OCRModel   string
	ChatModel  string
	HEICTarget string
	Timeout    time.Duration
}

// OCRChatReader first runs a document-OCR call over the image, then asks a
// chat model to convert the recognized markdown using the original prompt.
type OCRChatReader struct {
	cfg    OCRChatConfig
	prompt string
	img    *image.Normalized
	client *http.Client
}

type ocrRequest struct {
	Model              string      `json:"model"`
	Document           ocrDocument `json:"document"`
	IncludeImageBase64 bool        `json:"include_image_base64"`
}

type ocrDocument struct {
	Type     string `json:"type"`
	ImageURL string `json:"image_url"`
}

type ocrResponse struct {
	Pages []ocrPage `json:"pages"`
}

type ocrPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

type ocrChatRequest struct {
	Model    string           `json:"model"`
	Messages []ocrChatMessage `json:"messages"`
}

type ocrChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ocrChatResponse leaves content raw: the API may return either a plain
// string or structured parts, and anything but a string is an unexpected
// shape for this pipeline.
type ocrChatResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOCRChatReader normalizes the image up front and returns a reader
// bound to it.
func NewOCRChatReader(cfg OCRChatConfig, prompt, imagePath string) (*OCRChatReader, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOCRBaseURL
	}
	if cfg.OCRModel == "" {
		cfg.OCRModel = defaultOCRModel
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = defaultOCRChatModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultOCRTimeout
	}
	if cfg.HEICTarget == "" {
		cfg.HEICTarget = "png"
	}

	img, err := image.Normalize(imagePath, cfg.HEICTarget)
	if err != nil {
		return nil, err
	}

	return &OCRChatReader{
		cfg:    cfg,
		prompt: prompt,
		img:    img,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (r *OCRChatReader) Read(ctx context.Context) (string, error) {
	markdown, err := r.runOCR(ctx)
	if err != nil {
		return "", err
	}
	return r.runChat(ctx, markdown)
}

// runOCR performs the document-OCR call and concatenates per-page text in
// page order with blank-line separators.
func (r *OCRChatReader) runOCR(ctx context.Context) (string, error) {
	payload := ocrRequest{
		Model: r.cfg.OCRModel,
		Document: ocrDocument{
			Type:     "image_url",
			ImageURL: r.img.DataURL(),
		},
		IncludeImageBase64: true,
	}

	body, err := postJSON(ctx, r.client, "ocr", r.cfg.BaseURL+"/v1/ocr", r.cfg.APIKey, payload)
	if err != nil {
		return "", err
	}

	var parsed ocrResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode ocr response: %w", err)
	}

	pages := parsed.Pages
	sort.Slice(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })

	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		parts = append(parts, p.Markdown)
	}
	return strings.Join(parts, "\n\n"), nil
}

func (r *OCRChatReader) runChat(ctx context.Context, markdown string) (string, error) {
	payload := ocrChatRequest{
		Model: r.cfg.ChatModel,
		Messages: []ocrChatMessage{
			{Role: "user", Content: r.prompt + ocrPromptSeparator + markdown},
		},
	}

	body, err := postJSON(ctx, r.client, "ocr-chat", r.cfg.BaseURL+"/v1/chat/completions", r.cfg.APIKey, payload)
	if err != nil {
		return "", err
	}

	var parsed ocrChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode ocr-chat response: %w", err)
	}
	if len(parsed.Choices) == 0 || len(parsed.Choices[0].Message.Content) == 0 {
		return "", &BackendError{Backend: "ocr-chat", Body: string(body), Reason: "response has no content"}
	}

	var content string
	if err := json.Unmarshal(parsed.Choices[0].Message.Content, &content); err != nil {
		return "", &BackendError{Backend: "ocr-chat", Body: string(body), Reason: "content is not a string"}
	}
	return content, nil
}

// OCRChatFactory binds a configuration into a per-image Factory.
func OCRChatFactory(cfg OCRChatConfig) Factory {
	return func(prompt, imagePath string) (Reader, error) {
		return NewOCRChatReader(cfg, prompt, imagePath)
	}
}
