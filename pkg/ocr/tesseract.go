package ocr

import (
	"context"
	"fmt"

	"github.com/xhad/examaid/internal/command"
	"github.com/xhad/examaid/internal/models"
	"github.com/xhad/examaid/internal/types"
)

type TesseractConfig struct {
	Binary   string
	Language string
	Runner   command.Runner
}

// Tesseract recognises text by piping the image through the tesseract CLI.
type Tesseract struct {
	config TesseractConfig
}

var _ types.OCR = (*Tesseract)(nil)

func NewTesseract(config TesseractConfig) *Tesseract {
	if config.Binary == "" {
		config.Binary = "tesseract"
	}
	if config.Language == "" {
		config.Language = "eng"
	}
	if config.Runner == nil {
		config.Runner = command.Exec
	}

	return &Tesseract{config: config}
}

func (t *Tesseract) Recognize(ctx context.Context, img models.Image) (string, error) {
	if len(img.Data) == 0 {
		return "", fmt.Errorf("empty image")
	}

	out, err := t.config.Runner(ctx, img.Data, t.config.Binary, "stdin", "stdout", "-l", t.config.Language)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}
