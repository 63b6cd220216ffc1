package clipboard_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/examaid/internal/models"
	"github.com/xhad/examaid/pkg/clipboard"
)

type fakeClipboard struct {
	types   string
	image   []byte
	text    string
	listErr error
	textErr error
	calls   []string
}

func (f *fakeClipboard) run(_ context.Context, _ []byte, name string, args ...string) ([]byte, error) {
	call := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, call)
	if strings.Contains(call, "list-types") || strings.Contains(call, "TARGETS") {
		return []byte(f.types), f.listErr
	}
	return f.image, nil
}

func (f *fakeClipboard) readText() (string, error) {
	return f.text, f.textErr
}

func newSource(mode clipboard.Mode, f *fakeClipboard) *clipboard.Source {
	return clipboard.New(clipboard.Config{Mode: mode, Runner: f.run, ReadText: f.readText})
}

func TestPollPrefersImage(t *testing.T) {
	for _, mode := range []clipboard.Mode{clipboard.ModeWayland, clipboard.ModeX11} {
		t.Run(string(mode), func(t *testing.T) {
			f := &fakeClipboard{types: "text/plain\nimage/png\n", image: []byte{0x89, 'P'}, text: "ignored"}
			p := newSource(mode, f).Poll(context.Background())

			assert.Equal(t, models.ImagePayload([]byte{0x89, 'P'}), p)
			require.Len(t, f.calls, 2)
			assert.Contains(t, f.calls[1], "image/png")
		})
	}
}

func TestPollFallsBackToText(t *testing.T) {
	f := &fakeClipboard{types: "text/plain;charset=utf-8 UTF8_STRING", text: "  What is 2+2?\n"}
	p := newSource(clipboard.ModeWayland, f).Poll(context.Background())

	assert.Equal(t, models.TextPayload("What is 2+2?"), p)
	assert.Len(t, f.calls, 1)
}

func TestPollTextMode(t *testing.T) {
	f := &fakeClipboard{text: "hello"}
	p := newSource(clipboard.ModeText, f).Poll(context.Background())

	assert.Equal(t, models.TextPayload("hello"), p)
	assert.Empty(t, f.calls)
}

func TestPollErrorsYieldEmptyPayload(t *testing.T) {
	f := &fakeClipboard{listErr: errors.New("wl-paste: not found")}
	assert.True(t, newSource(clipboard.ModeWayland, f).Poll(context.Background()).Empty())

	f = &fakeClipboard{textErr: errors.New("no selection")}
	assert.True(t, newSource(clipboard.ModeText, f).Poll(context.Background()).Empty())
}

func TestParseMode(t *testing.T) {
	m, err := clipboard.ParseMode("X11")
	require.NoError(t, err)
	assert.Equal(t, clipboard.ModeX11, m)

	_, err = clipboard.ParseMode("carbon-paper")
	assert.Error(t, err)
}
