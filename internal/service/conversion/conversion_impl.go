package conversion

import (
	"context"
	"fmt"

	"github.com/papyrusai/papyrus/config"
	"github.com/papyrusai/papyrus/internal/converting"
	"github.com/papyrusai/papyrus/internal/reading"
	"github.com/papyrusai/papyrus/internal/writing"
	"github.com/papyrusai/papyrus/pkg/logger"
)

type ConversionService struct {
	logger logger.Logger
}

func NewService(log logger.Logger) Converter {
	return &ConversionService{logger: log}
}

// GetService builds the default service.
func GetService(log logger.Logger) (Converter, error) {
	return NewService(log), nil
}

func (s *ConversionService) Convert(ctx context.Context, req Request) (*converting.Report, error) {
	if req.InputDir == "" {
		return nil, fmt.Errorf("input folder is required")
	}
	if req.OutputDir == "" {
		return nil, fmt.Errorf("output folder is required")
	}
	if req.Prompt.Instruction == "" {
		return nil, fmt.Errorf("prompt instruction is required")
	}

	settings := config.GetConversionConfig()
	heicTarget := req.HEICTarget
	if heicTarget == "" {
		heicTarget = settings.HEICTarget
	}

	factory, err := buildFactory(ctx, req.Backend, req.Model, heicTarget)
	if err != nil {
		return nil, err
	}

	opts := []converting.Option{
		converting.WithHEICTarget(heicTarget),
	}

	concurrency := req.Concurrency
	if concurrency == 0 {
		concurrency = settings.MaxConcurrency
	}
	if concurrency > 0 {
		opts = append(opts, converting.WithMaxConcurrency(concurrency))
	}

	rate := req.RatePerSecond
	if rate == 0 {
		rate = float64(settings.RatePerSecond)
	}
	if rate > 0 {
		opts = append(opts, converting.WithRateLimit(rate, 1))
	}

	if req.MirrorToBucket {
		mirror, err := bucketMirror()
		if err != nil {
			return nil, err
		}
		opts = append(opts, converting.WithMirror(mirror))
	}

	if req.Sequential {
		return converting.ConvertFolderSequential(ctx, s.logger, factory, req.Prompt, req.InputDir, req.OutputDir, opts...)
	}
	return converting.ConvertFolder(ctx, s.logger, factory, req.Prompt, req.InputDir, req.OutputDir, opts...)
}

// buildFactory maps a backend name to a configured reader factory. A
// non-empty model overrides the configured one where the backend has a
// chat stage.
func buildFactory(ctx context.Context, backend, model, heicTarget string) (reading.Factory, error) {
	switch backend {
	case BackendVision:
		cfg := config.GetOpenAIConfig()
		if model == "" {
			model = cfg.Model
		}
		return reading.VisionChatFactory(reading.VisionChatConfig{
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Model:      model,
			MaxTokens:  cfg.MaxTokens,
			HEICTarget: heicTarget,
		}), nil

	case BackendOCR:
		cfg := config.GetMistralConfig()
		chatModel := cfg.ChatModel
		if model != "" {
			chatModel = model
		}
		return reading.OCRChatFactory(reading.OCRChatConfig{
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			OCRModel:   cfg.OCRModel,
			ChatModel:  chatModel,
			HEICTarget: heicTarget,
		}), nil

	case BackendTextract:
		cfg := config.GetTextractConfig()
		return reading.TextractFactory(ctx, reading.TextractConfig{
			Region:     cfg.Region,
			AccessKey:  cfg.AccessKey,
			SecretKey:  cfg.SecretKey,
			HEICTarget: heicTarget,
		}), nil

	case BackendTesseract:
		cfg := config.GetTesseractConfig()
		return reading.TesseractFactory(reading.TesseractConfig{
			Languages:  cfg.Languages,
			HEICTarget: heicTarget,
			Preprocess: cfg.Preprocess,
		}), nil

	default:
		return nil, fmt.Errorf("unknown backend %q, available: %v", backend, Backends())
	}
}

// bucketMirror builds the per-output writer for the configured bucket.
func bucketMirror() (func(string) writing.Writer, error) {
	cfg := config.GetMinioConfig()
	if !cfg.Enabled() {
		return nil, fmt.Errorf("bucket mirroring requested but MINIO_ENDPOINT and MINIO_BUCKET_NAME are not set")
	}

	client, err := writing.NewMinioClient(writing.MinioConfig{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
		Bucket:    cfg.BucketName,
	})
	if err != nil {
		return nil, err
	}

	return func(outputName string) writing.Writer {
		return writing.NewMinioWriter(client, cfg.BucketName, outputName)
	}, nil
}
