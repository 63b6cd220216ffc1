package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/xhad/examaid/internal/types"
	"github.com/xhad/examaid/pkg/llm"
)

// Func adapts a plain function to types.Display.
type Func func(text string)

func (f Func) Display(text string) {
	f(text)
}

// Terminal prints answers to w, coloured by outcome.
type Terminal struct {
	mu      sync.Mutex
	w       io.Writer
	success *color.Color
	failure *color.Color
	status  *color.Color
}

var _ types.Display = (*Terminal)(nil)

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{
		w:       w,
		success: color.New(color.FgGreen, color.Bold),
		failure: color.New(color.FgRed),
		status:  color.New(color.FgCyan),
	}
}

func (t *Terminal) Display(text string) {
	c := t.status
	switch {
	case strings.HasPrefix(text, llm.SuccessMarker):
		c = t.success
	case llm.IsErrorAnswer(text):
		c = t.failure
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, c.Sprint(text))
}

// Multi fans each line out to every display in order.
type Multi []types.Display

func (m Multi) Display(text string) {
	for _, d := range m {
		d.Display(text)
	}
}
