package conversion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papyrusai/papyrus/internal/prompt"
	"github.com/papyrusai/papyrus/pkg/logger"
)

func validRequest(t *testing.T) Request {
	return Request{
		InputDir:  t.TempDir(),
		OutputDir: t.TempDir(),
		Backend:   BackendVision,
		Prompt:    prompt.ImageToTextPrompt{Instruction: "transcribe"},
	}
}

func TestConvertRejectsUnknownBackend(t *testing.T) {
	svc := NewService(logger.NewTestLogger())

	req := validRequest(t)
	req.Backend = "carrier-pigeon"

	_, err := svc.Convert(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"carrier-pigeon"`)
	assert.Contains(t, err.Error(), BackendVision)
}

func TestConvertRequiresFolders(t *testing.T) {
	svc := NewService(logger.NewTestLogger())

	req := validRequest(t)
	req.InputDir = ""
	_, err := svc.Convert(context.Background(), req)
	assert.ErrorContains(t, err, "input folder")

	req = validRequest(t)
	req.OutputDir = ""
	_, err = svc.Convert(context.Background(), req)
	assert.ErrorContains(t, err, "output folder")

	req = validRequest(t)
	req.Prompt = prompt.ImageToTextPrompt{}
	_, err = svc.Convert(context.Background(), req)
	assert.ErrorContains(t, err, "instruction")
}

func TestConvertEmptyFolderMakesNoBackendCalls(t *testing.T) {
	svc := NewService(logger.NewTestLogger())

	// an empty input folder yields an empty report without touching the
	// network, whichever backend is selected
	report, err := svc.Convert(context.Background(), validRequest(t))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Total)
	assert.Empty(t, report.Failures)
}

func TestConvertRejectsBadHEICTarget(t *testing.T) {
	svc := NewService(logger.NewTestLogger())

	req := validRequest(t)
	req.HEICTarget = "webp"
	_, err := svc.Convert(context.Background(), req)
	assert.Error(t, err)
}

func TestBackendsListsAll(t *testing.T) {
	assert.Equal(t, []string{"vision", "ocr", "textract", "tesseract"}, Backends())
}
