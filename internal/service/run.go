package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/torfstack/jumble/internal/logging"
	"github.com/torfstack/jumble/internal/merge"
)

// Run performs a single fetch-and-merge pass: collect every JSON file under
// the configured remote path, fold them into one document and write it to
// the output file. When no files are found nothing is written and the run
// still succeeds.
func (s *Service) Run(ctx context.Context) error {
	files, err := s.collector.Collect(ctx, s.cfg.Path)
	if err != nil {
		return err
	}
	return s.mergeAndWrite(files)
}

func (s *Service) mergeAndWrite(files merge.FileSet) error {
	if len(files) == 0 {
		logging.Info("No JSON files found, nothing to write")
		return nil
	}
	logging.Infof("Found %d JSON file(s)", len(files))

	doc, err := merge.Merge(files)
	if err != nil {
		return fmt.Errorf("could not merge files: %w", err)
	}

	if err = WriteDocument(doc, s.cfg.OutputFile); err != nil {
		return err
	}

	logging.Infof("Merged %d file(s) into '%s'", len(files), s.cfg.OutputFile)
	return nil
}

// WriteDocument serializes the merged document with 2-space indentation,
// leaving non-ASCII and HTML characters unescaped.
func WriteDocument(doc any, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("could not open output file '%s': %w", path, err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err = enc.Encode(doc); err != nil {
		_ = f.Close()
		return fmt.Errorf("could not write merged document to '%s': %w", path, err)
	}

	if err = f.Close(); err != nil {
		return fmt.Errorf("could not close output file '%s': %w", path, err)
	}
	return nil
}
