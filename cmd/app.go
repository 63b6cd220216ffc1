package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/xhad/examaid/internal/command"
	"github.com/xhad/examaid/internal/types"
	"github.com/xhad/examaid/pkg/clipboard"
	"github.com/xhad/examaid/pkg/config"
	"github.com/xhad/examaid/pkg/docsource"
	"github.com/xhad/examaid/pkg/llm"
	"github.com/xhad/examaid/pkg/ocr"
	"github.com/xhad/examaid/pkg/processor"
	"github.com/xhad/examaid/pkg/rag"
	"github.com/xhad/examaid/pkg/scraper"
	"github.com/xhad/examaid/pkg/store"
	"github.com/xhad/examaid/pkg/watcher"
)

// app holds the loaded configuration and builds components from it.
type app struct {
	cfg *config.Config
	log *slog.Logger
}

func newApp(g *Globals) (*app, error) {
	cfg, err := config.LoadConfig(g.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verrs := cfg.Validate(); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, e := range verrs {
			errs[i] = e
		}
		return nil, fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}

	level := cfg.Log.Level
	if g.LogLevel != "" {
		level = g.LogLevel
	}

	return &app{cfg: cfg, log: getLogger(level)}, nil
}

func readFileOrDefault(filename, defaultContent string) (string, error) {
	if filename == "" {
		return defaultContent, nil
	}
	contents, err := os.ReadFile(filename)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return string(contents), nil
}

func (a *app) openStore(ctx context.Context) (types.VectorStore, error) {
	if a.cfg.Database.URL != "" {
		a.log.Info("opening postgres index", slog.String("table", a.cfg.Database.TableName))
		pg, err := store.NewWithConfig(ctx, store.VectorStoreConfig{
			ConnString: a.cfg.Database.URL,
			TableName:  a.cfg.Database.TableName,
			VectorDim:  a.cfg.Database.VectorDim,
		})
		if err != nil {
			return nil, err
		}
		return pg, nil
	}

	a.log.Info("opening sqlite index", slog.String("path", a.cfg.RAG.IndexPath))
	lite, err := store.NewSQLite(a.cfg.RAG.IndexPath)
	if err != nil {
		return nil, err
	}
	return lite, nil
}

// openIndex returns the index and a function that closes its store.
func (a *app) openIndex(ctx context.Context) (*rag.Index, func(), error) {
	vs, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open index: %w", err)
	}

	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:     a.cfg.Embedding.Model,
		BatchSize: a.cfg.Embedding.BatchSize,
		BaseURL:   a.cfg.LLM.BaseURL,
	})
	if err != nil {
		vs.Close()
		return nil, nil, err
	}

	closer := func() {
		if err := vs.Close(); err != nil {
			a.log.Warn("failed to close index", slog.Any("error", err))
		}
	}
	return rag.NewIndex(vs, emb, emb.Model(), a.log), closer, nil
}

func (a *app) newIndexer(index *rag.Index) *rag.Indexer {
	return rag.NewIndexer(index, processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize: a.cfg.RAG.ChunkSize,
	}))
}

func (a *app) newGenerator(ctx context.Context, index *rag.Index) (*rag.Generator, error) {
	model, err := llm.NewWithConfig(ctx, llm.ChatConfig{
		Provider:    "ollama",
		Model:       a.cfg.RAG.Model,
		Temperature: a.cfg.LLM.Temperature,
		BaseURL:     a.cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generator model: %w", err)
	}
	return rag.NewGenerator(rag.NewRetriever(index), model, a.cfg.RAG.TopK), nil
}

func (a *app) documentDir() (*docsource.Directory, error) {
	return docsource.NewDirectory(a.cfg.RAG.DataDir, a.cfg.RAG.AllowedExtensions)
}

func (a *app) newScraper(url string, onProgress func(string)) (*scraper.Scraper, error) {
	return scraper.NewWithConfig(scraper.ScraperConfig{
		BaseURL:        url,
		MaxDepth:       a.cfg.Scraper.MaxDepth,
		RateLimit:      a.cfg.Scraper.RateLimit,
		IgnorePatterns: a.cfg.Scraper.IgnorePatterns,
		OnProgress:     onProgress,
		Logger:         a.log,
	})
}

func (a *app) newSynthesizer(ctx context.Context, strategy watcher.ExtractionStrategy) (*llm.Synthesizer, error) {
	textTemplate, err := readFileOrDefault(a.cfg.Watcher.TextPromptFile, llm.TextTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to read text prompt: %w", err)
	}
	if err := llm.ValidateTextTemplate(textTemplate); err != nil {
		return nil, fmt.Errorf("invalid text prompt: %w", err)
	}
	imageTemplate, err := readFileOrDefault(a.cfg.Watcher.ImagePromptFile, llm.ImageTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to read image prompt: %w", err)
	}

	chat := llm.ChatConfig{
		Provider:    a.cfg.LLM.Provider,
		Model:       a.cfg.LLM.Model,
		Temperature: a.cfg.LLM.Temperature,
		MaxTokens:   a.cfg.LLM.MaxTokens,
		BaseURL:     a.cfg.LLM.BaseURL,
		APIKey:      a.cfg.LLM.APIKey,
	}
	text, err := llm.NewWithConfig(ctx, chat)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize text model: %w", err)
	}

	opts := []llm.SynthesizerOption{
		llm.WithTextTemplate(textTemplate),
		llm.WithImageTemplate(imageTemplate),
		llm.WithLogger(a.log),
	}
	if strategy != watcher.StrategyVision {
		return llm.NewSynthesizer(text, nil, opts...), nil
	}

	chat.Model = a.cfg.LLM.VisionModel
	vision, err := llm.NewWithConfig(ctx, chat)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vision model: %w", err)
	}
	return llm.NewSynthesizer(text, vision, opts...), nil
}

func (a *app) newPipeline(ctx context.Context, display types.Display) (*watcher.Pipeline, error) {
	strategy, err := watcher.ParseStrategy(a.cfg.Watcher.Strategy)
	if err != nil {
		return nil, err
	}
	mode, err := clipboard.ParseMode(a.cfg.Watcher.Clipboard)
	if err != nil {
		return nil, err
	}

	var engine types.OCR
	if strategy == watcher.StrategyOCR {
		if !command.Available(a.cfg.OCR.Binary) {
			a.log.Warn("ocr binary not found, image questions will fail", slog.String("binary", a.cfg.OCR.Binary))
		}
		engine = ocr.NewTesseract(ocr.TesseractConfig{
			Binary:   a.cfg.OCR.Binary,
			Language: a.cfg.OCR.Language,
		})
	}

	synth, err := a.newSynthesizer(ctx, strategy)
	if err != nil {
		return nil, err
	}

	source := clipboard.New(clipboard.Config{Mode: mode, Logger: a.log})
	return watcher.NewPipeline(source,
		watcher.NewExtractor(strategy, engine),
		synth,
		display,
		watcher.PipelineConfig{
			Interval: time.Duration(a.cfg.Watcher.PollIntervalMS) * time.Millisecond,
			Logger:   a.log,
		}), nil
}

// watchDocuments keeps the index in step with the document directory until
// ctx is done.
func (a *app) watchDocuments(ctx context.Context, dir *docsource.Directory, indexer *rag.Indexer) error {
	return dir.Watch(ctx, a.log, func(c docsource.Change) {
		var err error
		switch c.Type {
		case docsource.ChangeRemoved:
			err = indexer.Remove(ctx, c.Document.Name)
		default:
			_, err = indexer.Ingest(ctx, c.Document.Name, c.Document.Content)
		}
		if err != nil {
			a.log.Error("failed to update index", slog.String("name", c.Document.Name), slog.Any("error", err))
		}
	})
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}
