package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshtrack/expiry-cli/internal/model"
	"github.com/freshtrack/expiry-cli/internal/recognize"
	"github.com/freshtrack/expiry-cli/internal/store"
)

func newTestRouter(t *testing.T) (http.Handler, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	today, ok := model.NewDate(2024, 1, 20)
	require.True(t, ok)
	rec := recognize.New(nil, recognize.WithNow(today))

	return newRouter(st, rec, 100, 100), st
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServe_Health(t *testing.T) {
	h, _ := newTestRouter(t)

	w := doRequest(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestServe_Recognize(t *testing.T) {
	h, _ := newTestRouter(t)

	body := `{"fragments":[
		{"text":"生产日期:2024年1月15日","confidence":0.9,"engine":"tesseract"},
		{"text":"保质期:12个月","confidence":0.9,"engine":"tesseract"}
	]}`
	w := doRequest(t, h, http.MethodPost, "/recognize", body)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Contains(t, w.Body.String(), `"production_date":"2024-01-15"`)
	assert.Contains(t, w.Body.String(), `"expiry_date":"2025-01-09"`)
	assert.Contains(t, w.Body.String(), `"days_remaining":355`)
}

func TestServe_Recognize_NoDate(t *testing.T) {
	h, _ := newTestRouter(t)

	w := doRequest(t, h, http.MethodPost, "/recognize",
		`{"fragments":[{"text":"just some words","confidence":0.9}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "no date candidate")
}

func TestServe_Recognize_EmptyFragments(t *testing.T) {
	h, _ := newTestRouter(t)

	w := doRequest(t, h, http.MethodPost, "/recognize", `{"fragments":[]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "no text fragments")
}

func TestServe_Recognize_BadBody(t *testing.T) {
	h, _ := newTestRouter(t)

	w := doRequest(t, h, http.MethodPost, "/recognize", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServe_Parse(t *testing.T) {
	h, _ := newTestRouter(t)

	w := doRequest(t, h, http.MethodPost, "/parse", `{"text":"15/01/2024"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"production_date":"2024-01-15"`)
	assert.Contains(t, w.Body.String(), `"expiry_date":"2024-07-13"`)
}

func TestServe_Parse_Unparseable(t *testing.T) {
	h, _ := newTestRouter(t)

	w := doRequest(t, h, http.MethodPost, "/parse", `{"text":"not a date"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"text":"not a date"`)
}

func TestServe_Expiring(t *testing.T) {
	h, st := newTestRouter(t)

	exp := model.Today().AddDays(2)
	_, err := st.RecordScan(context.Background(), model.Scan{
		ExpiryDate:    exp,
		DaysRemaining: 2,
		Confidence:    0.9,
	})
	require.NoError(t, err)

	w := doRequest(t, h, http.MethodGet, "/expiring?within=7", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), exp.String())
	assert.Contains(t, w.Body.String(), `"days_remaining":2`)
}

func TestServe_Expiring_Empty(t *testing.T) {
	h, _ := newTestRouter(t)

	w := doRequest(t, h, http.MethodGet, "/expiring", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())
}

func TestServe_Expiring_BadWithin(t *testing.T) {
	h, _ := newTestRouter(t)

	w := doRequest(t, h, http.MethodGet, "/expiring?within=soon", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServe_RateLimit(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	// One token, no refill worth mentioning within the test.
	h := newRouter(st, recognize.New(nil), 0.001, 1)

	first := doRequest(t, h, http.MethodPost, "/parse", `{"text":"2024-01-15"}`)
	assert.Equal(t, http.StatusOK, first.Code)

	second := doRequest(t, h, http.MethodPost, "/parse", `{"text":"2024-01-15"}`)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// Health is outside the limited group.
	health := doRequest(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, health.Code)
}
