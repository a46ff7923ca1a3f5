package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/papyrusai/papyrus/config"
	"github.com/papyrusai/papyrus/internal/prompt"
	"github.com/papyrusai/papyrus/internal/service/conversion"
	"github.com/papyrusai/papyrus/pkg/logger"
)

func main() {
	var (
		inputDir    = flag.String("input", "", "folder containing the images to convert (required)")
		outputDir   = flag.String("output", "", "folder receiving the output_<name>.txt files (required)")
		backend     = flag.String("backend", conversion.BackendVision, fmt.Sprintf("reading backend, one of %v", conversion.Backends()))
		model       = flag.String("model", "", "override the configured model for the vision and ocr backends")
		promptsFile = flag.String("prompts", "", "YAML prompts file")
		section     = flag.String("section", "", "prompt section name inside the prompts file")
		instruction = flag.String("instruction", "", "inline prompt instruction, alternative to -prompts")
		topic       = flag.String("topic", "", "optional topic context for the prompt")
		concurrency = flag.Int("concurrency", 0, "max concurrent conversions, 0 uses the configured default")
		ratePerSec  = flag.Float64("rate", 0, "max backend calls per second, 0 disables throttling")
		sequential  = flag.Bool("sequential", false, "convert one file at a time")
		heicFormat  = flag.String("heic-format", "", "conversion target for HEIC/HEIF inputs, default from config")
		mirror      = flag.Bool("mirror", false, "also upload results to the configured bucket")
		logLevel    = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	log, err := logger.NewLogger(
		logger.WithLevel(*logLevel),
		logger.WithEncoding("console"),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if *inputDir == "" || *outputDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	p, err := resolvePrompt(*promptsFile, *section, *instruction, *topic)
	if err != nil {
		log.Fatal("Invalid prompt flags", logger.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := conversion.GetService(log)
	if err != nil {
		log.Fatal("Failed to get conversion service", logger.Error(err))
	}

	report, err := svc.Convert(ctx, conversion.Request{
		InputDir:       *inputDir,
		OutputDir:      *outputDir,
		Backend:        *backend,
		Model:          *model,
		Prompt:         p,
		Concurrency:    *concurrency,
		RatePerSecond:  *ratePerSec,
		Sequential:     *sequential,
		HEICTarget:     *heicFormat,
		MirrorToBucket: *mirror,
	})
	if err != nil {
		log.Fatal("Conversion failed to start", logger.Error(err))
	}

	if len(report.Failures) > 0 {
		os.Exit(1)
	}
}

// resolvePrompt picks between a prompts-file section and inline flags.
func resolvePrompt(promptsFile, section, instruction, topic string) (prompt.ImageToTextPrompt, error) {
	if promptsFile != "" {
		if instruction != "" {
			return prompt.ImageToTextPrompt{}, fmt.Errorf("-prompts and -instruction are mutually exclusive")
		}
		if section == "" {
			return prompt.ImageToTextPrompt{}, fmt.Errorf("-section is required with -prompts")
		}
		prompts, err := config.LoadPrompts(promptsFile)
		if err != nil {
			return prompt.ImageToTextPrompt{}, err
		}
		p, err := prompts.Section(section)
		if err != nil {
			return prompt.ImageToTextPrompt{}, err
		}
		if topic != "" {
			p.Topic = topic
		}
		return p, nil
	}

	if instruction == "" {
		return prompt.ImageToTextPrompt{}, fmt.Errorf("either -prompts with -section or -instruction is required")
	}
	return prompt.ImageToTextPrompt{Instruction: instruction, Topic: topic}, nil
}
