package ocr

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/freshtrack/expiry-cli/internal/model"
)

const (
	defaultTesseractLang = "chi_sim+eng"

	// The CLI emits no per-line confidence, so every fragment carries this
	// fixed engine confidence.
	tesseractConfidence = 0.75

	// Restricting the character set to digits and date punctuation cuts
	// down on misreads of dot-matrix date stamps.
	tesseractWhitelist = "0123456789年月日保质期生产制造至个天：:./-"
)

// Tesseract extracts text from images using the tesseract CLI tool.
type Tesseract struct {
	binPath string
	lang    string
}

// NewTesseract creates a Tesseract extractor. Empty binPath and lang fall
// back to "tesseract" and "chi_sim+eng".
func NewTesseract(binPath, lang string) *Tesseract {
	if binPath == "" {
		binPath = "tesseract"
	}
	if lang == "" {
		lang = defaultTesseractLang
	}
	return &Tesseract{binPath: binPath, lang: lang}
}

// ExtractFragments runs tesseract on the given image and returns one
// fragment per non-empty output line.
func (t *Tesseract) ExtractFragments(ctx context.Context, imagePath string) ([]model.Fragment, error) {
	cmd := exec.CommandContext(ctx, t.binPath, imagePath, "stdout",
		"-l", t.lang,
		"--oem", "3",
		"--psm", "6",
		"-c", "tessedit_char_whitelist="+tesseractWhitelist,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, eris.Wrapf(err, "ocr: tesseract failed for %s: %s", imagePath, stderr.String())
	}

	var fragments []model.Fragment
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fragments = append(fragments, model.Fragment{
			Text:       line,
			Confidence: tesseractConfidence,
			Engine:     "tesseract",
		})
	}
	return fragments, nil
}
