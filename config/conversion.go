package config

import (
	"sync"
)

var (
	conversionOnce   sync.Once
	conversionConfig *ConversionConfig
)

// ConversionConfig holds the pipeline-level knobs that are independent of
// any one backend.
type ConversionConfig struct {
	// HEICTarget is the format HEIC/HEIF inputs are converted to before
	// they reach a backend.
	HEICTarget string
	// MaxConcurrency bounds in-flight conversions; 0 means unlimited.
	MaxConcurrency int
	// RatePerSecond throttles backend calls; 0 disables throttling.
	RatePerSecond int
}

func GetConversionConfig() *ConversionConfig {
	conversionOnce.Do(func() {
		loadEnv()

		conversionConfig = &ConversionConfig{
			HEICTarget:     getenvDefault("CONVERSION_HEIC_TARGET", "png"),
			MaxConcurrency: getenvInt("CONVERSION_MAX_CONCURRENCY", 8),
			RatePerSecond:  getenvInt("CONVERSION_RATE_PER_SECOND", 0),
		}
	})
	return conversionConfig
}
