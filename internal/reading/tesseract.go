package reading

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/papyrusai/papyrus/internal/image"
)

// TesseractConfig configures the local Tesseract backend. It needs no
// network or credentials, which makes it the fallback when no remote model
// is reachable. Recognition quality on handwriting is far below the remote
// backends.
type TesseractConfig struct {
	Languages  []string
	HEICTarget string
	// Preprocess applies a grayscale, contrast and sharpen pass before
	// recognition. Helps on photographed pages, wasted work on clean scans.
	Preprocess bool
}

// TesseractReader runs local OCR over the normalized image bytes.
type TesseractReader struct {
	cfg TesseractConfig
	img *image.Normalized
}

// NewTesseractReader normalizes the image up front; the Tesseract client
// itself is created per Read because gosseract clients are not safe for
// concurrent use.
func NewTesseractReader(cfg TesseractConfig, imagePath string) (*TesseractReader, error) {
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"eng"}
	}
	if cfg.HEICTarget == "" {
		cfg.HEICTarget = "png"
	}

	img, err := image.Normalize(imagePath, cfg.HEICTarget)
	if err != nil {
		return nil, err
	}

	if cfg.Preprocess {
		cleaned, err := image.PrepareForOCR(img.Bytes)
		if err != nil {
			return nil, fmt.Errorf("preprocess %q: %w", imagePath, err)
		}
		img = &image.Normalized{Bytes: cleaned, MIME: "image/png"}
	}

	return &TesseractReader{cfg: cfg, img: img}, nil
}

func (r *TesseractReader) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(strings.Join(r.cfg.Languages, "+")); err != nil {
		return "", fmt.Errorf("set tesseract language: %w", err)
	}
	if err := client.SetImageFromBytes(r.img.Bytes); err != nil {
		return "", fmt.Errorf("set tesseract image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", &BackendError{Backend: "tesseract", Reason: "recognition failed", Body: err.Error()}
	}
	return text, nil
}

// TesseractFactory binds a configuration into a per-image Factory.
func TesseractFactory(cfg TesseractConfig) Factory {
	return func(_ string, imagePath string) (Reader, error) {
		return NewTesseractReader(cfg, imagePath)
	}
}
