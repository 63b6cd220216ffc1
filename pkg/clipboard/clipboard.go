package clipboard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/xhad/examaid/internal/command"
	"github.com/xhad/examaid/internal/models"
	"github.com/xhad/examaid/internal/types"
)

// Mode selects how the clipboard is probed for images.
type Mode string

const (
	ModeWayland Mode = "wayland"
	ModeX11     Mode = "x11"
	ModeText    Mode = "text"
)

const pngType = "image/png"

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeWayland, ModeX11, ModeText:
		return m, nil
	}
	return "", fmt.Errorf("unknown clipboard mode %q", s)
}

type Config struct {
	Mode     Mode
	Runner   command.Runner
	ReadText func() (string, error)
	Logger   *slog.Logger
}

// Source reads the system clipboard, preferring a PNG image over text.
type Source struct {
	config Config
}

var _ types.ContentSource = (*Source)(nil)

func New(config Config) *Source {
	if config.Mode == "" {
		config.Mode = ModeWayland
	}
	if config.Runner == nil {
		config.Runner = command.Exec
	}
	if config.ReadText == nil {
		config.ReadText = clipboard.ReadAll
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Source{config: config}
}

func (s *Source) Mode() Mode {
	return s.config.Mode
}

// Poll returns the current clipboard content. Any read failure yields the
// empty payload.
func (s *Source) Poll(ctx context.Context) models.Payload {
	p, err := s.read(ctx)
	if err != nil {
		s.config.Logger.Debug("clipboard read failed",
			slog.String("mode", string(s.config.Mode)),
			slog.Any("error", fmt.Errorf("%w: %w", types.ErrClipboardRead, err)))
		return models.Payload{}
	}
	return p
}

func (s *Source) read(ctx context.Context) (models.Payload, error) {
	var list, get []string
	switch s.config.Mode {
	case ModeWayland:
		list = []string{"wl-paste", "--list-types"}
		get = []string{"wl-paste", "--type", pngType}
	case ModeX11:
		list = []string{"xclip", "-selection", "clipboard", "-t", "TARGETS", "-o"}
		get = []string{"xclip", "-selection", "clipboard", "-t", pngType, "-o"}
	}

	if list != nil {
		out, err := s.config.Runner(ctx, nil, list[0], list[1:]...)
		if err != nil {
			return models.Payload{}, err
		}
		if hasType(string(out), pngType) {
			data, err := s.config.Runner(ctx, nil, get[0], get[1:]...)
			if err != nil {
				return models.Payload{}, err
			}
			return models.ImagePayload(data), nil
		}
	}

	text, err := s.config.ReadText()
	if err != nil {
		return models.Payload{}, err
	}
	return models.TextPayload(strings.TrimSpace(text)), nil
}

func hasType(list, want string) bool {
	for _, t := range strings.Fields(list) {
		if t == want {
			return true
		}
	}
	return false
}
