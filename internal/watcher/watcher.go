package watcher

import (
	"context"
	"log/slog"
	"time"

	"rocketpass/internal/config"
	"rocketpass/internal/updater"
)

type Updater interface {
	Update(ctx context.Context, opts updater.Options) (updater.Result, error)
	ExportSeasonXLSX(season int, outputPath string) (string, int, error)
}

// Service refreshes the configured season on a fixed interval.
type Service struct {
	updater  Updater
	cfg      config.Config
	logger   *slog.Logger
	interval time.Duration
}

func NewService(u Updater, cfg config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	interval := time.Duration(cfg.WatchIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Hour
	}
	return &Service{updater: u, cfg: cfg, logger: logger, interval: interval}
}

// Run performs a cycle immediately and then once per interval until ctx is
// cancelled. Cycle errors are logged and do not stop the loop.
func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("watcher cycle failed", "season", s.cfg.Season, "err", err)
		}

		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	res, err := s.updater.Update(ctx, updater.Options{Season: s.cfg.Season})
	if err != nil {
		return err
	}

	if s.cfg.WatchAutoExport && !res.Empty {
		path, n, err := s.updater.ExportSeasonXLSX(res.Season, "")
		if err != nil {
			return err
		}
		s.logger.Info("exported season", "season", res.Season, "rows", n, "path", path)
	}

	s.logger.Info("watcher cycle done", "season", res.Season, "items", res.Items, "empty", res.Empty, "run", res.RunID)
	return nil
}
