package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/papyrusai/papyrus/internal/image"
	"github.com/papyrusai/papyrus/internal/prompt"
	"github.com/papyrusai/papyrus/internal/service/conversion"
	"github.com/papyrusai/papyrus/pkg/logger"
)

type ConvertHandler struct {
	service conversion.Converter
	logger  logger.Logger
}

// ConvertRequest is the JSON body of POST /api/v1/convert. Folders are
// paths on the server host.
type ConvertRequest struct {
	InputDir       string `json:"inputDir" binding:"required"`
	OutputDir      string `json:"outputDir" binding:"required"`
	Backend        string `json:"backend"`
	Model          string `json:"model"`
	Instruction    string `json:"instruction" binding:"required"`
	Topic          string `json:"topic"`
	Concurrency    int    `json:"concurrency"`
	Sequential     bool   `json:"sequential"`
	HEICFormat     string `json:"heicFormat"`
	MirrorToBucket bool   `json:"mirrorToBucket"`
}

type FailureResponse struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

type ConvertResponse struct {
	RunID     string            `json:"runId"`
	Total     int               `json:"total"`
	Converted int               `json:"converted"`
	Skipped   int               `json:"skipped"`
	Failures  []FailureResponse `json:"failures"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewConvertHandler(service conversion.Converter, logger logger.Logger) *ConvertHandler {
	return &ConvertHandler{
		service: service,
		logger:  logger,
	}
}

// Convert runs one folder conversion synchronously and returns its report.
// Per-file failures are part of the 200 response, not an error status.
func (h *ConvertHandler) Convert(c *gin.Context) {
	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	backend := req.Backend
	if backend == "" {
		backend = conversion.BackendVision
	}

	report, err := h.service.Convert(c.Request.Context(), conversion.Request{
		InputDir:  req.InputDir,
		OutputDir: req.OutputDir,
		Backend: backend,
		Model:   req.Model,
		Prompt: prompt.ImageToTextPrompt{
			Instruction: req.Instruction,
			Topic:       req.Topic,
		},
		Concurrency:    req.Concurrency,
		Sequential:     req.Sequential,
		HEICTarget:     req.HEICFormat,
		MirrorToBucket: req.MirrorToBucket,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if isRequestError(err) {
			status = http.StatusBadRequest
		}
		h.handleError(c, status, "Conversion failed to start", err)
		return
	}

	failures := make([]FailureResponse, 0, len(report.Failures))
	for _, f := range report.Failures {
		failures = append(failures, FailureResponse{Source: f.Source, Error: f.Err.Error()})
	}

	c.JSON(http.StatusOK, ConvertResponse{
		RunID:     report.RunID,
		Total:     report.Total,
		Converted: report.Converted,
		Skipped:   report.Skipped,
		Failures:  failures,
	})
}

// Backends lists the backend names accepted by Convert.
func (h *ConvertHandler) Backends(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"backends": conversion.Backends()})
}

func (h *ConvertHandler) handleError(c *gin.Context, status int, message string, err error) {
	h.logger.Error(message, logger.Error(err))

	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Message = err.Error()
	}
	c.JSON(status, resp)
}

// isRequestError distinguishes caller mistakes from server-side faults.
func isRequestError(err error) bool {
	var unsupported *image.UnsupportedFormatError
	if errors.As(err, &unsupported) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "required") || strings.Contains(msg, "unknown backend")
}
