package mailsource

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"mailtriage/internal/services"
)

// OCR extracts text from an encoded image.
type OCR interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Tesseract runs the tesseract CLI with the image on stdin.
type Tesseract struct {
	Binary   string
	Language string
}

// NewTesseract returns an OCR engine backed by the given binary.
func NewTesseract(binary, language string) *Tesseract {
	if strings.TrimSpace(binary) == "" {
		binary = "tesseract"
	}
	return &Tesseract{Binary: binary, Language: language}
}

// Recognize implements OCR.
func (t *Tesseract) Recognize(ctx context.Context, image []byte) (string, error) {
	args := []string{"stdin", "stdout"}
	if lang := strings.TrimSpace(t.Language); lang != "" {
		args = append(args, "-l", lang)
	}
	cmd := exec.CommandContext(ctx, t.Binary, args...) //nolint:gosec
	cmd.Stdin = bytes.NewReader(image)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		base := fmt.Errorf("%s %s: %w", t.Binary, strings.Join(args, " "), err)
		return "", services.Wrap(services.ErrExternalTool, "ocr", "recognize", detail, base)
	}
	return strings.TrimSpace(stdout.String()), nil
}
