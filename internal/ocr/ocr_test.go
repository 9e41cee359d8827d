package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshtrack/expiry-cli/internal/config"
	"github.com/freshtrack/expiry-cli/internal/model"
)

func TestNewExtractor_Tesseract(t *testing.T) {
	ext, err := NewExtractor(config.OCRConfig{Provider: "tesseract", TesseractPath: "/usr/bin/tesseract"})
	require.NoError(t, err)
	assert.IsType(t, &Tesseract{}, ext)
}

func TestNewExtractor_TesseractDefault(t *testing.T) {
	ext, err := NewExtractor(config.OCRConfig{Provider: ""})
	require.NoError(t, err)
	assert.IsType(t, &Tesseract{}, ext)
}

func TestNewExtractor_RemoteMissingEndpoint(t *testing.T) {
	_, err := NewExtractor(config.OCRConfig{Provider: "remote"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote provider requires endpoint")
}

func TestNewExtractor_RemoteWithEndpoint(t *testing.T) {
	ext, err := NewExtractor(config.OCRConfig{Provider: "remote", Endpoint: "http://ocr.local:9000"})
	require.NoError(t, err)
	assert.IsType(t, &Remote{}, ext)
}

func TestNewExtractor_Multi(t *testing.T) {
	ext, err := NewExtractor(config.OCRConfig{Provider: "multi", Endpoint: "http://ocr.local:9000"})
	require.NoError(t, err)
	assert.IsType(t, &Multi{}, ext)
}

func TestNewExtractor_UnknownProvider(t *testing.T) {
	_, err := NewExtractor(config.OCRConfig{Provider: "unknown"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "unknown"`)
}

func TestTesseract_Defaults(t *testing.T) {
	ts := NewTesseract("", "")
	assert.Equal(t, "tesseract", ts.binPath)
	assert.Equal(t, defaultTesseractLang, ts.lang)

	ts = NewTesseract("/custom/tesseract", "eng")
	assert.Equal(t, "/custom/tesseract", ts.binPath)
	assert.Equal(t, "eng", ts.lang)
}

func TestTesseract_ExtractFragments_BinaryNotFound(t *testing.T) {
	ts := NewTesseract("/nonexistent/tesseract", "")
	_, err := ts.ExtractFragments(context.Background(), "/tmp/photo.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tesseract failed")
}

func TestTesseract_ExtractFragments_Success(t *testing.T) {
	// Fake tesseract binary that prints two lines plus trailing noise.
	tmpDir := t.TempDir()
	fakeBin := filepath.Join(tmpDir, "tesseract")
	script := "#!/bin/sh\nprintf '生产日期：2024年1月15日\\n\\n保质期：12个月\\n'\n"
	require.NoError(t, os.WriteFile(fakeBin, []byte(script), 0755))

	ts := NewTesseract(fakeBin, "")
	fragments, err := ts.ExtractFragments(context.Background(), "/tmp/photo.jpg")
	require.NoError(t, err)
	require.Len(t, fragments, 2)
	assert.Equal(t, "生产日期：2024年1月15日", fragments[0].Text)
	assert.Equal(t, "保质期：12个月", fragments[1].Text)
	for _, f := range fragments {
		assert.Equal(t, "tesseract", f.Engine)
		assert.InDelta(t, tesseractConfidence, f.Confidence, 0.001)
	}
}

func writeTempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("\xff\xd8fake-jpeg"), 0644))
	return path
}

func TestRemote_ExtractFragments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req remoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.Image)

		resp := remoteResponse{Results: []remoteResult{
			{Text: "生产日期：2024年1月15日", Confidence: 0.92},
			{Text: "噪", Confidence: 0.12}, // below floor, dropped
			{Text: "保质期：12个月", Confidence: 0.81},
		}}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp) //nolint:errcheck
	}))
	defer srv.Close()

	r := NewRemote(srv.URL, "test-key", 0.3)
	fragments, err := r.ExtractFragments(context.Background(), writeTempImage(t))
	require.NoError(t, err)
	require.Len(t, fragments, 2)
	assert.Equal(t, "生产日期：2024年1月15日", fragments[0].Text)
	assert.InDelta(t, 0.92, fragments[0].Confidence, 0.001)
	assert.Equal(t, "remote", fragments[0].Engine)
}

func TestRemote_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid api key"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	r := NewRemote(srv.URL, "bad-key", 0)
	_, err := r.ExtractFragments(context.Background(), writeTempImage(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote API returned 401")
}

func TestRemote_FileNotFound(t *testing.T) {
	r := NewRemote("http://ocr.local:9000", "", 0)
	_, err := r.ExtractFragments(context.Background(), "/nonexistent/photo.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read image")
}

func TestRemote_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{invalid json`)) //nolint:errcheck
	}))
	defer srv.Close()

	r := NewRemote(srv.URL, "", 0)
	_, err := r.ExtractFragments(context.Background(), writeTempImage(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal remote response")
}

func TestRemote_DefaultMinConfidence(t *testing.T) {
	r := NewRemote("http://ocr.local:9000", "", 0)
	assert.InDelta(t, defaultMinConfidence, r.minConfidence, 0.001)
}

// stubExtractor is a fixed-output engine for Multi tests.
type stubExtractor struct {
	fragments []model.Fragment
	err       error
}

func (s *stubExtractor) ExtractFragments(context.Context, string) ([]model.Fragment, error) {
	return s.fragments, s.err
}

func TestMulti_MergesEngines(t *testing.T) {
	m := NewMulti(
		&stubExtractor{fragments: []model.Fragment{{Text: "2024/01/15", Confidence: 0.75, Engine: "tesseract"}}},
		&stubExtractor{fragments: []model.Fragment{{Text: "保质期：12个月", Confidence: 0.9, Engine: "remote"}}},
	)

	fragments, err := m.ExtractFragments(context.Background(), "photo.jpg")
	require.NoError(t, err)
	assert.Len(t, fragments, 2)
}

func TestMulti_PartialFailureIsNonFatal(t *testing.T) {
	m := NewMulti(
		&stubExtractor{err: eris.New("engine offline")},
		&stubExtractor{fragments: []model.Fragment{{Text: "2024/01/15", Confidence: 0.9, Engine: "remote"}}},
	)

	fragments, err := m.ExtractFragments(context.Background(), "photo.jpg")
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	assert.Equal(t, "2024/01/15", fragments[0].Text)
}

func TestMulti_AllEnginesFail(t *testing.T) {
	m := NewMulti(
		&stubExtractor{err: eris.New("engine one offline")},
		&stubExtractor{err: eris.New("engine two offline")},
	)

	_, err := m.ExtractFragments(context.Background(), "photo.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 engines failed")
}
