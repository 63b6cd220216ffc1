package docsource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/xhad/examaid/internal/models"
)

type ChangeType int

const (
	ChangeUpserted ChangeType = iota
	ChangeRemoved
)

func (c ChangeType) String() string {
	if c == ChangeRemoved {
		return "removed"
	}
	return "upserted"
}

// Change is a document created, modified or removed while watching.
type Change struct {
	Type     ChangeType
	Document models.Document
}

// Watch calls fn for every change to an allowed file until ctx is done.
// fn runs on the watcher goroutine.
func (d *Directory) Watch(ctx context.Context, log *slog.Logger, fn func(Change)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(d.path); err != nil {
		return fmt.Errorf("failed to watch %s: %w", d.path, err)
	}
	log.Info("watching document directory", slog.String("path", d.path))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if change := d.handleFsEvent(event); change != nil {
				log.Debug("document changed",
					slog.String("name", change.Document.Name),
					slog.String("change", change.Type.String()))
				fn(*change)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("document watcher error", slog.Any("error", err))
		}
	}
}

func (d *Directory) handleFsEvent(event fsnotify.Event) *Change {
	name := filepath.Base(event.Name)
	if !d.Allowed(name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &Change{
			Type:     ChangeRemoved,
			Document: models.Document{Name: name, Path: event.Name},
		}
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		doc, err := d.read(name)
		if err != nil {
			return nil
		}
		return &Change{Type: ChangeUpserted, Document: doc}
	}
	return nil
}
