package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xhad/examaid/internal/models"
	"github.com/xhad/examaid/internal/types"
)

const (
	SuccessMarker   = "✅ "
	ErrorMarker     = "❌ Error: "
	StatusAnalyzing = "🔍 Analyzing..."
)

// Synthesizer turns an extracted question into a short, display-ready
// answer. It never returns an error; failures become ErrorMarker answers.
type Synthesizer struct {
	text          types.TextModel
	vision        types.VisionModel
	textTemplate  string
	imageTemplate string
	log           *slog.Logger
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

func WithTextTemplate(tmpl string) SynthesizerOption {
	return func(s *Synthesizer) {
		if tmpl != "" {
			s.textTemplate = tmpl
		}
	}
}

func WithImageTemplate(tmpl string) SynthesizerOption {
	return func(s *Synthesizer) {
		if tmpl != "" {
			s.imageTemplate = tmpl
		}
	}
}

func WithLogger(log *slog.Logger) SynthesizerOption {
	return func(s *Synthesizer) {
		if log != nil {
			s.log = log
		}
	}
}

// NewSynthesizer creates a Synthesizer. vision may be nil when image
// questions are answered through OCR instead.
func NewSynthesizer(text types.TextModel, vision types.VisionModel, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{
		text:          text,
		vision:        vision,
		textTemplate:  TextTemplate,
		imageTemplate: ImageTemplate,
		log:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize answers q and formats the result for display.
func (s *Synthesizer) Synthesize(ctx context.Context, q models.Question) (answer string) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: panic: %v", types.ErrModelCall, r)
			s.log.Error("model call panicked", slog.Any("error", err))
			answer = ErrorAnswer(err)
		}
	}()

	text, err := s.Answer(ctx, q)
	if err != nil {
		s.log.Error("failed to synthesize answer", slog.Bool("image", q.IsImage()), slog.Any("error", err))
		return ErrorAnswer(err)
	}
	return SuccessMarker + text
}

// Answer returns the trimmed model response without any marker.
func (s *Synthesizer) Answer(ctx context.Context, q models.Question) (string, error) {
	var (
		response string
		err      error
	)
	if q.IsImage() {
		if s.vision == nil {
			return "", fmt.Errorf("%w: no vision model configured", types.ErrModelCall)
		}
		response, err = s.vision.GenerateWithImage(ctx, s.imageTemplate, *q.Image)
	} else {
		if s.text == nil {
			return "", fmt.Errorf("%w: no text model configured", types.ErrModelCall)
		}
		response, err = s.text.Generate(ctx, textPrompt(s.textTemplate, q.Text))
	}
	if err != nil {
		if !errors.Is(err, types.ErrModelCall) {
			err = fmt.Errorf("%w: %w", types.ErrModelCall, err)
		}
		return "", err
	}

	response = strings.TrimSpace(response)
	if response == "" {
		return "", fmt.Errorf("%w: %w", types.ErrModelCall, types.ErrEmptyResponse)
	}
	return response, nil
}

// ErrorAnswer formats err for display.
func ErrorAnswer(err error) string {
	return ErrorMarker + err.Error()
}

// IsErrorAnswer reports whether a displayed answer is an error.
func IsErrorAnswer(answer string) bool {
	return strings.HasPrefix(answer, ErrorMarker)
}
