package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papyrusai/papyrus/internal/converting"
	"github.com/papyrusai/papyrus/internal/service/conversion"
	"github.com/papyrusai/papyrus/pkg/logger"
)

type fakeConverter struct {
	lastReq conversion.Request
	report  *converting.Report
	err     error
}

func (f *fakeConverter) Convert(_ context.Context, req conversion.Request) (*converting.Report, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

func newTestRouter(svc conversion.Converter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewConvertHandler(svc, logger.NewTestLogger())
	r.POST("/api/v1/convert", h.Convert)
	r.GET("/api/v1/backends", h.Backends)
	return r
}

func postConvert(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestConvertEndpointReturnsReport(t *testing.T) {
	svc := &fakeConverter{report: &converting.Report{
		RunID:     "run-1",
		Total:     3,
		Converted: 2,
		Skipped:   1,
		Failures: []converting.Failure{
			{Source: "/in/bad.jpg", Err: errors.New("backend exploded")},
		},
	}}
	r := newTestRouter(svc)

	w := postConvert(t, r, `{
		"inputDir": "/in",
		"outputDir": "/out",
		"backend": "ocr",
		"instruction": "transcribe",
		"topic": "chemistry",
		"concurrency": 4
	}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp ConvertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, 2, resp.Converted)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "/in/bad.jpg", resp.Failures[0].Source)
	assert.Equal(t, "backend exploded", resp.Failures[0].Error)

	assert.Equal(t, "ocr", svc.lastReq.Backend)
	assert.Equal(t, "chemistry", svc.lastReq.Prompt.Topic)
	assert.Equal(t, 4, svc.lastReq.Concurrency)
}

func TestConvertEndpointDefaultsBackend(t *testing.T) {
	svc := &fakeConverter{report: &converting.Report{}}
	r := newTestRouter(svc)

	w := postConvert(t, r, `{"inputDir": "/in", "outputDir": "/out", "instruction": "go"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, conversion.BackendVision, svc.lastReq.Backend)
}

func TestConvertEndpointRejectsMissingFields(t *testing.T) {
	svc := &fakeConverter{report: &converting.Report{}}
	r := newTestRouter(svc)

	w := postConvert(t, r, `{"inputDir": "/in"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConvertEndpointMapsServiceErrors(t *testing.T) {
	svc := &fakeConverter{err: errors.New(`unknown backend "pigeon", available: [vision]`)}
	r := newTestRouter(svc)

	w := postConvert(t, r, `{"inputDir": "/in", "outputDir": "/out", "instruction": "go"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.err = errors.New("disk on fire")
	w = postConvert(t, r, `{"inputDir": "/in", "outputDir": "/out", "instruction": "go"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestBackendsEndpoint(t *testing.T) {
	r := newTestRouter(&fakeConverter{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/backends", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Backends []string `json:"backends"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Backends, "tesseract")
}
