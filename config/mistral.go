package config

import (
	"os"
	"sync"
)

var (
	mistralOnce   sync.Once
	mistralConfig *MistralConfig
)

type MistralConfig struct {
	BaseURL   string
	APIKey    string
	OCRModel  string
	ChatModel string
}

func GetMistralConfig() *MistralConfig {
	mistralOnce.Do(func() {
		loadEnv()

		mistralConfig = &MistralConfig{
			BaseURL:   getenvDefault("MISTRAL_BASE_URL", "https://api.mistral.ai"),
			APIKey:    os.Getenv("MISTRAL_API_KEY"),
			OCRModel:  getenvDefault("MISTRAL_OCR_MODEL", "mistral-ocr-latest"),
			ChatModel: getenvDefault("MISTRAL_CHAT_MODEL", "mistral-medium-latest"),
		}
	})
	return mistralConfig
}
