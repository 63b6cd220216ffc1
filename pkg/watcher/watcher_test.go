package watcher_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/examaid/internal/models"
	"github.com/xhad/examaid/internal/types"
	"github.com/xhad/examaid/pkg/llm"
	"github.com/xhad/examaid/pkg/watcher"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// scriptedSource returns its payloads in order, then keeps returning the last.
type scriptedSource struct {
	mu       sync.Mutex
	payloads []models.Payload
	polls    int
}

func (s *scriptedSource) Poll(context.Context) models.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++
	if len(s.payloads) == 0 {
		return models.Payload{}
	}
	p := s.payloads[0]
	if len(s.payloads) > 1 {
		s.payloads = s.payloads[1:]
	}
	return p
}

type recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *recorder) Display(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, text)
}

func (r *recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

type stubModel struct {
	mu      sync.Mutex
	answer  string
	prompts []string
}

func (m *stubModel) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	return m.answer, nil
}

func (m *stubModel) GenerateWithImage(_ context.Context, prompt string, _ models.Image) (string, error) {
	return m.Generate(context.Background(), prompt)
}

func (m *stubModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

type stubOCR struct {
	text string
	err  error
	seen models.Image
}

func (o *stubOCR) Recognize(_ context.Context, img models.Image) (string, error) {
	o.seen = img
	return o.text, o.err
}

func TestChangeDetector(t *testing.T) {
	var d watcher.ChangeDetector

	assert.False(t, d.ShouldProcess(models.Payload{}), "empty payload")
	assert.False(t, d.ShouldProcess(models.TextPayload("  ")), "blank text")
	assert.True(t, d.ShouldProcess(models.TextPayload("q1")))
	assert.False(t, d.ShouldProcess(models.TextPayload("q1")), "repeat")
	assert.True(t, d.ShouldProcess(models.TextPayload("q2")))
	assert.True(t, d.ShouldProcess(models.TextPayload("q1")), "changed back")
	assert.Equal(t, models.TextPayload("q1"), d.Last())

	assert.True(t, d.ShouldProcess(models.ImagePayload([]byte{1, 2})))
	assert.False(t, d.ShouldProcess(models.ImagePayload([]byte{1, 2})))
	assert.True(t, d.ShouldProcess(models.ImagePayload([]byte{1, 3})))

	d.Reset()
	assert.True(t, d.ShouldProcess(models.ImagePayload([]byte{1, 3})))
}

func TestClassifierRoute(t *testing.T) {
	both := models.Payload{Text: "leftover", Image: []byte{1}}

	tests := []struct {
		name     string
		strategy watcher.ExtractionStrategy
		payload  models.Payload
		want     watcher.Route
	}{
		{"empty", watcher.StrategyOCR, models.Payload{}, watcher.RouteNone},
		{"blank text", watcher.StrategyOCR, models.TextPayload(" \n"), watcher.RouteNone},
		{"text", watcher.StrategyOCR, models.TextPayload("q"), watcher.RouteText},
		{"image ocr", watcher.StrategyOCR, models.ImagePayload([]byte{1}), watcher.RouteOCR},
		{"image vision", watcher.StrategyVision, models.ImagePayload([]byte{1}), watcher.RouteVision},
		{"image passthrough", watcher.StrategyPassThrough, models.ImagePayload([]byte{1}), watcher.RouteUnsupported},
		{"image wins over text with ocr", watcher.StrategyOCR, both, watcher.RouteOCR},
		{"image wins over text with vision", watcher.StrategyVision, both, watcher.RouteVision},
		{"image wins over text with passthrough", watcher.StrategyPassThrough, both, watcher.RouteUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := watcher.Classifier{Strategy: tt.strategy}
			assert.Equal(t, tt.want, c.Route(tt.payload))
		})
	}
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]watcher.ExtractionStrategy{
		"passthrough": watcher.StrategyPassThrough,
		"OCR":         watcher.StrategyOCR,
		" vision ":    watcher.StrategyVision,
	} {
		got, err := watcher.ParseStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := watcher.ParseStrategy("telepathy")
	assert.Error(t, err)
}

func TestExtract(t *testing.T) {
	ctx := context.Background()
	img := pngBytes(t, 4, 3)

	t.Run("text is trimmed", func(t *testing.T) {
		e := watcher.NewExtractor(watcher.StrategyOCR, nil)
		q, ok, err := e.Extract(ctx, models.TextPayload("  What is 2+2?\n"))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, models.Question{Text: "What is 2+2?"}, q)
	})

	t.Run("ocr", func(t *testing.T) {
		ocr := &stubOCR{text: " Capital of France?\n"}
		e := watcher.NewExtractor(watcher.StrategyOCR, ocr)
		q, ok, err := e.Extract(ctx, models.ImagePayload(img))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "Capital of France?", q.Text)
		assert.Equal(t, "image/png", ocr.seen.MIMEType)
		assert.Equal(t, 4, ocr.seen.Width)
		assert.Equal(t, 3, ocr.seen.Height)
	})

	t.Run("ocr finds nothing", func(t *testing.T) {
		e := watcher.NewExtractor(watcher.StrategyOCR, &stubOCR{text: "\n"})
		_, ok, err := e.Extract(ctx, models.ImagePayload(img))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ocr failure", func(t *testing.T) {
		e := watcher.NewExtractor(watcher.StrategyOCR, &stubOCR{err: errors.New("tesseract missing")})
		_, _, err := e.Extract(ctx, models.ImagePayload(img))
		assert.ErrorIs(t, err, types.ErrExtraction)
	})

	t.Run("vision skips ocr", func(t *testing.T) {
		ocr := &stubOCR{text: "should not run"}
		e := watcher.NewExtractor(watcher.StrategyVision, ocr)
		q, ok, err := e.Extract(ctx, models.Payload{Text: "leftover", Image: img})
		require.NoError(t, err)
		assert.True(t, ok)
		require.True(t, q.IsImage())
		assert.Empty(t, q.Text)
		assert.Equal(t, img, q.Image.Data)
		assert.Empty(t, ocr.seen.Data)
	})

	t.Run("corrupt image", func(t *testing.T) {
		e := watcher.NewExtractor(watcher.StrategyVision, nil)
		_, _, err := e.Extract(ctx, models.ImagePayload([]byte("not an image")))
		assert.ErrorIs(t, err, types.ErrExtraction)
	})

	t.Run("passthrough image", func(t *testing.T) {
		e := watcher.NewExtractor(watcher.StrategyPassThrough, nil)
		_, _, err := e.Extract(ctx, models.Payload{Text: "leftover", Image: img})
		assert.ErrorIs(t, err, types.ErrExtraction)
	})

	t.Run("route", func(t *testing.T) {
		e := watcher.NewExtractor(watcher.StrategyVision, nil)
		assert.Equal(t, watcher.RouteVision, e.Route(models.Payload{Text: "leftover", Image: img}))
		assert.Equal(t, watcher.RouteText, e.Route(models.TextPayload("q")))
		assert.Equal(t, watcher.RouteNone, e.Route(models.Payload{}))
	})
}

func TestPipelineAnswersTextQuestion(t *testing.T) {
	model := &stubModel{answer: "B"}
	display := &recorder{}
	source := &scriptedSource{payloads: []models.Payload{
		models.TextPayload("What is 2+2? A. 3 B. 4 C. 5"),
	}}
	p := watcher.NewPipeline(source,
		watcher.NewExtractor(watcher.StrategyOCR, nil),
		llm.NewSynthesizer(model, model),
		display, watcher.PipelineConfig{})

	assert.True(t, p.Poll(context.Background()))
	assert.False(t, p.Poll(context.Background()), "same clipboard twice")

	assert.Equal(t, []string{llm.StatusAnalyzing, "✅ B"}, display.Lines())
	assert.Equal(t, 1, model.calls())
}

func TestPipelineCorruptImageThenText(t *testing.T) {
	model := &stubModel{answer: "Paris"}
	display := &recorder{}
	source := &scriptedSource{payloads: []models.Payload{
		models.ImagePayload([]byte("garbage")),
		models.TextPayload("Capital of France?"),
	}}
	p := watcher.NewPipeline(source,
		watcher.NewExtractor(watcher.StrategyOCR, &stubOCR{text: "unused"}),
		llm.NewSynthesizer(model, nil),
		display, watcher.PipelineConfig{})

	p.Poll(context.Background())
	p.Poll(context.Background())

	lines := display.Lines()
	require.Len(t, lines, 3)
	assert.True(t, llm.IsErrorAnswer(lines[0]), lines[0])
	assert.Equal(t, llm.StatusAnalyzing, lines[1])
	assert.Equal(t, "✅ Paris", lines[2])
	assert.Equal(t, 1, model.calls())
}

func TestPipelineDoesNotRetryFailedContent(t *testing.T) {
	display := &recorder{}
	source := &scriptedSource{payloads: []models.Payload{models.ImagePayload([]byte("garbage"))}}
	p := watcher.NewPipeline(source,
		watcher.NewExtractor(watcher.StrategyVision, nil),
		llm.NewSynthesizer(nil, &stubModel{}),
		display, watcher.PipelineConfig{})

	for i := 0; i < 3; i++ {
		p.Poll(context.Background())
	}

	assert.Len(t, display.Lines(), 1)
	assert.Equal(t, models.ImagePayload([]byte("garbage")), p.State().Detector.Last())
}

type panickyAnswerer struct{}

func (panickyAnswerer) Synthesize(context.Context, models.Question) string {
	panic("kaboom")
}

func TestPipelineRecoversFromPanic(t *testing.T) {
	display := &recorder{}
	source := &scriptedSource{payloads: []models.Payload{models.TextPayload("q")}}
	p := watcher.NewPipeline(source,
		watcher.NewExtractor(watcher.StrategyOCR, nil),
		panickyAnswerer{}, display, watcher.PipelineConfig{})

	assert.NotPanics(t, func() { p.Poll(context.Background()) })

	lines := display.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, llm.StatusAnalyzing, lines[0])
	assert.Contains(t, lines[1], "kaboom")
}

func TestPipelineRunStops(t *testing.T) {
	model := &stubModel{answer: "A"}
	display := &recorder{}
	source := &scriptedSource{payloads: []models.Payload{models.TextPayload("q")}}
	p := watcher.NewPipeline(source,
		watcher.NewExtractor(watcher.StrategyOCR, nil),
		llm.NewSynthesizer(model, nil),
		display, watcher.PipelineConfig{Interval: 5 * time.Millisecond})

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	require.Eventually(t, func() bool { return len(display.Lines()) == 2 }, time.Second, 5*time.Millisecond)
	assert.True(t, p.State().Running())
	assert.ErrorIs(t, p.Run(context.Background()), watcher.ErrAlreadyRunning)

	p.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("pipeline did not stop")
	}
	assert.False(t, p.State().Running())
	assert.Equal(t, 1, model.calls())
}

func TestPipelineRunCancel(t *testing.T) {
	source := &scriptedSource{}
	p := watcher.NewPipeline(source,
		watcher.NewExtractor(watcher.StrategyOCR, nil),
		llm.NewSynthesizer(&stubModel{}, nil),
		&recorder{}, watcher.PipelineConfig{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return p.State().Running() }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("pipeline did not stop on cancel")
	}
}
