package handlers

import (
	"github.com/papyrusai/papyrus/internal/service/conversion"
	"github.com/papyrusai/papyrus/pkg/logger"
)

type Handlers struct {
	Convert *ConvertHandler
}

func NewHandlers(
	conversionService conversion.Converter,
	logger logger.Logger,
) *Handlers {
	return &Handlers{
		Convert: NewConvertHandler(conversionService, logger),
	}
}
