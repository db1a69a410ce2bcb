package protoschema

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Update is one result of re-reading a watched proto file.
type Update struct {
	Schema *Schema
	Err    error
}

// Load reads and parses the proto file at path.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read proto: %w", err)
	}
	schema, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return schema, nil
}

// Watch parses the file at path and then re-parses it every time it is
// written, created, or renamed into place. The first update is the initial
// parse. The channel is closed when ctx is done or the watcher fails.
func Watch(ctx context.Context, path string) (<-chan Update, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve proto path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory (editors often replace files rather than write them)
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	ch := make(chan Update, 1)
	go func() {
		defer close(ch)
		defer watcher.Close()

		send := func() bool {
			schema, err := Load(abs)
			select {
			case ch <- Update{Schema: schema, Err: err}:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if _, err := os.Stat(abs); err != nil {
					continue // renamed away; wait for the replacement
				}
				if !send() {
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				select {
				case ch <- Update{Err: fmt.Errorf("watch proto: %w", err)}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
