package watcher

import (
	"sync"

	"github.com/xhad/examaid/internal/models"
)

// ChangeDetector remembers the last payload handed downstream so each
// clipboard value is processed once.
type ChangeDetector struct {
	mu   sync.Mutex
	last models.Payload
}

// ShouldProcess reports whether p is new, non-empty content. When it is, p
// becomes the last seen payload before ShouldProcess returns, so a failure
// further down the pipeline does not cause the same content to be retried.
func (d *ChangeDetector) ShouldProcess(p models.Payload) bool {
	if p.Empty() {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if p.Equal(d.last) {
		return false
	}
	d.last = p
	return true
}

func (d *ChangeDetector) Last() models.Payload {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

func (d *ChangeDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = models.Payload{}
}
