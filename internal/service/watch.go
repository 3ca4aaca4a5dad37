package service

import (
	"context"
	"fmt"

	"github.com/torfstack/jumble/internal/local"
	"github.com/torfstack/jumble/internal/logging"
)

// Watch merges the JSON files under a local directory once, then re-merges
// and rewrites the output whenever a JSON file below it changes.
func (s *Service) Watch(ctx context.Context, dir string) error {
	if err := s.mergeLocal(dir); err != nil {
		return err
	}

	w, err := local.NewWatcher(dir)
	if err != nil {
		return fmt.Errorf("watch: could not create watcher: %w", err)
	}
	defer w.Close()

	go s.consumeWatcherEvents(dir, w.Events)
	err = w.Run(ctx)
	if err != nil {
		return fmt.Errorf("watch: error while running watcher: %w", err)
	}
	return nil
}

func (s *Service) consumeWatcherEvents(dir string, c <-chan local.WatchEvent) {
	for event := range c {
		logging.Debugf("Received %s event: %s", event.Op, event.Path)
		if err := s.mergeLocal(dir); err != nil {
			logging.Error("could not re-merge after change", err)
		}
	}
}

func (s *Service) mergeLocal(dir string) error {
	files, err := local.CollectDir(dir)
	if err != nil {
		return err
	}
	return s.mergeAndWrite(files)
}
