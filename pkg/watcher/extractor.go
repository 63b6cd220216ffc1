package watcher

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/xhad/examaid/internal/models"
	"github.com/xhad/examaid/internal/types"
)

// Extractor turns a clipboard payload into a question for the answer model.
type Extractor struct {
	classifier Classifier
	ocr        types.OCR
}

// NewExtractor creates an Extractor. ocr is only required for StrategyOCR.
func NewExtractor(strategy ExtractionStrategy, ocr types.OCR) *Extractor {
	return &Extractor{
		classifier: Classifier{Strategy: strategy},
		ocr:        ocr,
	}
}

func (e *Extractor) Strategy() ExtractionStrategy {
	return e.classifier.Strategy
}

// Extract returns the question carried by p. ok is false when there is
// nothing to ask, such as blank text or an image without legible text.
// Errors wrap types.ErrExtraction.
func (e *Extractor) Extract(ctx context.Context, p models.Payload) (models.Question, bool, error) {
	return e.extract(ctx, e.Route(p), p)
}

// Route reports the extraction path Extract takes for p.
func (e *Extractor) Route(p models.Payload) Route {
	return e.classifier.Route(p)
}

func (e *Extractor) extract(ctx context.Context, route Route, p models.Payload) (q models.Question, ok bool, err error) {
	switch route {
	case RouteNone:
		return q, false, nil

	case RouteText:
		text := strings.TrimSpace(p.Text)
		return models.Question{Text: text}, text != "", nil

	case RouteOCR:
		if e.ocr == nil {
			return q, false, fmt.Errorf("%w: no OCR engine configured", types.ErrExtraction)
		}
		img, err := DecodeImage(p.Image)
		if err != nil {
			return q, false, err
		}
		text, err := e.ocr.Recognize(ctx, img)
		if err != nil {
			return q, false, fmt.Errorf("%w: ocr: %w", types.ErrExtraction, err)
		}
		text = strings.TrimSpace(text)
		return models.Question{Text: text}, text != "", nil

	case RouteVision:
		img, err := DecodeImage(p.Image)
		if err != nil {
			return q, false, err
		}
		return models.Question{Image: &img}, true, nil

	default:
		return q, false, fmt.Errorf("%w: images are not supported by the %s strategy", types.ErrExtraction, e.classifier.Strategy)
	}
}

// DecodeImage validates the image header and records its format and size.
func DecodeImage(data []byte) (models.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return models.Image{}, fmt.Errorf("%w: decode image: %w", types.ErrExtraction, err)
	}

	return models.Image{
		Data:     data,
		MIMEType: "image/" + format,
		Width:    cfg.Width,
		Height:   cfg.Height,
	}, nil
}
