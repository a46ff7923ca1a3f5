package config

import (
	"strings"
	"sync"
)

var (
	tesseractOnce   sync.Once
	tesseractConfig *TesseractConfig
)

type TesseractConfig struct {
	Languages  []string
	Preprocess bool
}

func GetTesseractConfig() *TesseractConfig {
	tesseractOnce.Do(func() {
		loadEnv()

		langs := getenvDefault("TESSERACT_LANGUAGES", "eng")
		tesseractConfig = &TesseractConfig{
			Languages:  strings.Split(langs, "+"),
			Preprocess: getenvBool("TESSERACT_PREPROCESS", false),
		}
	})
	return tesseractConfig
}
