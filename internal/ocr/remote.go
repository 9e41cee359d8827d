package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/rotisserie/eris"

	"github.com/freshtrack/expiry-cli/internal/model"
)

const defaultMinConfidence = 0.3

// Remote extracts text through an HTTP OCR service (an easyocr-style
// sidecar) that returns per-region text with real confidence scores.
type Remote struct {
	endpoint      string
	apiKey        string
	minConfidence float64
	client        *http.Client
}

// NewRemote creates a Remote extractor. minConfidence <= 0 falls back to
// the 0.3 default; regions below it are discarded.
func NewRemote(endpoint, apiKey string, minConfidence float64) *Remote {
	if minConfidence <= 0 {
		minConfidence = defaultMinConfidence
	}
	return &Remote{
		endpoint:      endpoint,
		apiKey:        apiKey,
		minConfidence: minConfidence,
		client:        &http.Client{},
	}
}

type remoteRequest struct {
	Image string `json:"image"` // base64-encoded image bytes
}

type remoteResponse struct {
	Results []remoteResult `json:"results"`
}

type remoteResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// ExtractFragments reads the image, sends it to the OCR service, and
// returns the recognized regions above the confidence floor.
func (r *Remote) ExtractFragments(ctx context.Context, imagePath string) ([]model.Fragment, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, eris.Wrapf(err, "ocr: read image %s", imagePath)
	}

	bodyBytes, err := json.Marshal(remoteRequest{
		Image: base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return nil, eris.Wrap(err, "ocr: marshal remote request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "ocr: create remote request")
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: remote API call")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: read remote response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("ocr: remote API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var ocrResp remoteResponse
	if err := json.Unmarshal(respBody, &ocrResp); err != nil {
		return nil, eris.Wrap(err, "ocr: unmarshal remote response")
	}

	var fragments []model.Fragment
	for _, res := range ocrResp.Results {
		if res.Confidence < r.minConfidence {
			continue
		}
		fragments = append(fragments, model.Fragment{
			Text:       res.Text,
			Confidence: res.Confidence,
			Engine:     "remote",
		})
	}
	return fragments, nil
}
