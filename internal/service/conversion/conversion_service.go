// Package conversion wires configuration, reading backends and the folder
// pipeline into one service shared by the CLI and the HTTP API.
package conversion

import (
	"context"

	"github.com/papyrusai/papyrus/internal/converting"
	"github.com/papyrusai/papyrus/internal/prompt"
)

// Backend names accepted in a Request.
const (
	BackendVision    = "vision"
	BackendOCR       = "ocr"
	BackendTextract  = "textract"
	BackendTesseract = "tesseract"
)

// Backends lists the accepted backend names.
func Backends() []string {
	return []string{BackendVision, BackendOCR, BackendTextract, BackendTesseract}
}

// Request describes one folder conversion run.
type Request struct {
	InputDir  string
	OutputDir string
	// Backend selects the reading implementation, one of Backends().
	Backend string
	// Model overrides the configured model for the vision and ocr
	// backends; the ocr backend applies it to the chat stage. Ignored by
	// textract and tesseract.
	Model  string
	Prompt prompt.ImageToTextPrompt
	// Concurrency overrides the configured bound when > 0.
	Concurrency int
	// RatePerSecond overrides the configured throttle when > 0.
	RatePerSecond float64
	// Sequential disables concurrent dispatch entirely.
	Sequential bool
	// HEICTarget overrides the configured HEIC conversion format when set.
	HEICTarget string
	// MirrorToBucket uploads every result to the configured bucket as well.
	MirrorToBucket bool
}

// Converter runs folder conversions.
type Converter interface {
	Convert(ctx context.Context, req Request) (*converting.Report, error)
}
