package service

import (
	"context"

	"github.com/torfstack/jumble/internal/config"
	"github.com/torfstack/jumble/internal/merge"
)

// Collector enumerates a remote tree and returns the parsed JSON files
// under it.
type Collector interface {
	Collect(ctx context.Context, path string) (merge.FileSet, error)
}

type Service struct {
	cfg       config.Config
	collector Collector
}

func NewService(cfg config.Config, collector Collector) *Service {
	return &Service{cfg: cfg, collector: collector}
}
