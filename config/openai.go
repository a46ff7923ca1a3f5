package config

import (
	"os"
	"sync"
)

var (
	openAIOnce   sync.Once
	openAIConfig *OpenAIConfig
)

type OpenAIConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
}

func GetOpenAIConfig() *OpenAIConfig {
	openAIOnce.Do(func() {
		loadEnv()

		openAIConfig = &OpenAIConfig{
			BaseURL:   getenvDefault("OPENAI_BASE_URL", "https://api.openai.com"),
			APIKey:    os.Getenv("OPENAI_API_KEY"),
			Model:     getenvDefault("OPENAI_MODEL", "gpt-5"),
			MaxTokens: getenvInt("OPENAI_MAX_COMPLETION_TOKENS", 5096),
		}
	})
	return openAIConfig
}
