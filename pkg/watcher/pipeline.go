package watcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/xhad/examaid/internal/models"
	"github.com/xhad/examaid/internal/types"
	"github.com/xhad/examaid/pkg/llm"
)

// DefaultInterval is the time between clipboard polls.
const DefaultInterval = 300 * time.Millisecond

var ErrAlreadyRunning = errors.New("pipeline already running")

// Answerer produces a display-ready answer and never fails.
type Answerer interface {
	Synthesize(ctx context.Context, q models.Question) string
}

// PipelineState is the mutable state of one Pipeline.
type PipelineState struct {
	Detector ChangeDetector
	running  atomic.Bool
}

func (s *PipelineState) Running() bool {
	return s.running.Load()
}

type PipelineConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Pipeline polls a content source and displays an answer for every new
// question it finds.
type Pipeline struct {
	source    types.ContentSource
	extractor *Extractor
	answerer  Answerer
	display   types.Display
	interval  time.Duration
	log       *slog.Logger

	state PipelineState
}

func NewPipeline(source types.ContentSource, extractor *Extractor, answerer Answerer, display types.Display, config PipelineConfig) *Pipeline {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Pipeline{
		source:    source,
		extractor: extractor,
		answerer:  answerer,
		display:   display,
		interval:  config.Interval,
		log:       config.Logger,
	}
}

func (p *Pipeline) State() *PipelineState {
	return &p.state
}

// Run polls until Stop is called or ctx is done. The iteration in flight
// when that happens always runs to completion.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.state.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer p.state.running.Store(false)

	p.log.Info("watching clipboard",
		slog.Duration("interval", p.interval),
		slog.String("strategy", p.extractor.Strategy().String()))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for p.state.running.Load() {
		p.Poll(ctx)

		select {
		case <-ctx.Done():
			p.log.Info("clipboard watcher stopped", slog.Any("reason", ctx.Err()))
			return nil
		case <-ticker.C:
		}
	}

	p.log.Info("clipboard watcher stopped")
	return nil
}

// Stop ends Run after the current iteration.
func (p *Pipeline) Stop() {
	p.state.running.Store(false)
}

// Poll runs a single iteration and reports whether new content was seen.
func (p *Pipeline) Poll(ctx context.Context) (handled bool) {
	ctx = context.WithoutCancel(ctx)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			p.log.Error("poll iteration panicked", slog.Any("error", err))
			p.display.Display(llm.ErrorAnswer(err))
			handled = true
		}
	}()

	payload := p.source.Poll(ctx)
	if !p.state.Detector.ShouldProcess(payload) {
		return false
	}

	route := p.extractor.Route(payload)
	p.log.Debug("new clipboard content", slog.String("route", route.String()))

	q, ok, err := p.extractor.extract(ctx, route, payload)
	if err != nil {
		p.log.Warn("failed to extract question", slog.String("route", route.String()), slog.Any("error", err))
		p.display.Display(llm.ErrorAnswer(err))
		return true
	}
	if !ok {
		p.log.Debug("no question found", slog.String("route", route.String()))
		return true
	}

	p.display.Display(llm.StatusAnalyzing)
	p.display.Display(p.answerer.Synthesize(ctx, q))
	return true
}
