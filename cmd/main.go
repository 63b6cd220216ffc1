package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

var version = "dev"

type Globals struct {
	Config   string `help:"Path to the config file." env:"EXAMAID_CONFIG" type:"path" default:""`
	LogLevel string `help:"Override the configured log level (debug, info, warn, error)." env:"LOG_LEVEL" default:""`
}

type CLI struct {
	Globals

	Watch   WatchCommand   `cmd:"watch" help:"Watch the clipboard and answer exam questions."`
	Index   IndexCommand   `cmd:"index" help:"Index the document directory and optionally a documentation site."`
	Ask     AskCommand     `cmd:"ask" help:"Answer a single query from the indexed documents."`
	Chat    ChatCommand    `cmd:"chat" help:"Chat with the indexed documents."`
	Add     AddCommand     `cmd:"add" help:"Save a new document and index it."`
	Serve   ServeCommand   `cmd:"serve" help:"Serve the websocket overlay and query endpoint."`
	Version VersionCommand `cmd:"version" help:"Print the version."`
}

func main() {
	var cli CLI
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx := kong.Parse(&cli,
		kong.Name("examaid"),
		kong.Description("Clipboard exam assistant with a local document index."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.Bind(&cli.Globals))
	if err := kctx.Run(); err != nil {
		log := getLogger("error")
		log.Error("error", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}

func getLogger(level string) *slog.Logger {
	ll := slog.LevelInfo
	switch level {
	case "debug":
		ll = slog.LevelDebug
	case "info":
		ll = slog.LevelInfo
	case "warn":
		ll = slog.LevelWarn
	case "error":
		ll = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: ll,
	}))
}
