package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"rocketpass/internal"
	"rocketpass/internal/config"
	"rocketpass/internal/pipeline"
	"rocketpass/internal/storage"
	"rocketpass/internal/wiki"
)

type Locator interface {
	LocateRewardsPage(ctx context.Context, season int) (string, error)
}

type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (*goquery.Document, error)
}

// Store is the part of the rewards database the updater writes to.
type Store interface {
	ReplaceSeasonRewards(season int, sourceURL string, items []internal.RewardItem) error
	ListRewards(season int, track internal.Track) ([]internal.RewardItem, error)
	InsertRun(run internal.RunRecord) error
	SetMetadata(key, value string) error
}

var _ Store = (*storage.DB)(nil)

type Service struct {
	db      Store
	cfg     config.Config
	locator Locator
	fetcher PageFetcher
	logger  *slog.Logger
}

func NewService(db Store, cfg config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	client := wiki.NewClient(cfg)
	return &Service{db: db, cfg: cfg, locator: client, fetcher: client, logger: logger}
}

// Options override the configured season; a non-empty URL skips the search.
type Options struct {
	Season int
	URL    string
}

type Result struct {
	RunID     string
	Season    int
	SourceURL string
	Items     int
	Written   bool
	Empty     bool
	Report    pipeline.Report
}

// Update refreshes one season: it locates and fetches the rewards page,
// builds the catalog and, when it is not empty, replaces the stored season
// and then the JSON output. An empty catalog is logged and recorded but is not
// an error; previous output is left untouched.
func (s *Service) Update(ctx context.Context, opts Options) (Result, error) {
	start := time.Now()
	season := opts.Season
	if season <= 0 {
		season = s.cfg.Season
	}
	res := Result{RunID: uuid.NewString(), Season: season, SourceURL: opts.URL}
	timings := map[string]float64{}

	fail := func(stage string, err error) (Result, error) {
		err = fmt.Errorf("%s: %w", stage, err)
		timings["totalMs"] = msSince(start)
		s.recordRun(res, internal.RunFailed, err, timings)
		return res, err
	}

	if res.SourceURL == "" {
		s.logger.Info("searching for rocket pass wiki page", "season", season, "query", wiki.SearchQuery(season))
		t0 := time.Now()
		link, err := s.locator.LocateRewardsPage(ctx, season)
		timings["locateMs"] = msSince(t0)
		if err != nil {
			return fail("locate", err)
		}
		res.SourceURL = link
		s.logger.Info("found wiki url", "season", season, "url", link)
	}

	t0 := time.Now()
	doc, err := s.fetcher.FetchPage(ctx, res.SourceURL)
	timings["fetchMs"] = msSince(t0)
	if err != nil {
		return fail("fetch", err)
	}

	t0 = time.Now()
	catalog, err := pipeline.BuildCatalog(doc, pipeline.CatalogOptions{TableSelector: s.cfg.TableSelector})
	timings["parseMs"] = msSince(t0)
	res.Report = catalog.Report
	if errors.Is(err, pipeline.ErrNoRewards) {
		res.Empty = true
		timings["totalMs"] = msSince(start)
		s.logger.Warn("scraping didn't yield items, the wiki structure might have changed; keeping existing data",
			"season", season, "url", res.SourceURL, "tablesSeen", catalog.Report.TablesSeen, "tablesAccepted", catalog.Report.TablesAccepted)
		s.recordRun(res, internal.RunEmpty, nil, timings)
		return res, nil
	}
	if err != nil {
		return fail("parse", err)
	}
	res.Items = len(catalog.Items)

	if err := s.db.ReplaceSeasonRewards(season, res.SourceURL, catalog.Items); err != nil {
		return fail("store", err)
	}

	written, err := pipeline.WriteRewardsJSON(catalog.Items, s.cfg.OutputFile)
	if err != nil {
		return fail("write", err)
	}
	res.Written = written

	if err := s.db.SetMetadata(lastUpdateKey(season), time.Now().UTC().Format(time.RFC3339)); err != nil {
		s.logger.Warn("recording last update failed", "season", season, "err", err)
	}

	timings["totalMs"] = msSince(start)
	s.recordRun(res, internal.RunOK, nil, timings)
	s.logger.Info("rewards updated", "season", season, "items", res.Items, "output", s.cfg.OutputFile)
	return res, nil
}

// ExportSeasonXLSX writes the stored catalog of a season to outputPath, or
// to OUTPUT_DIR/season-<n>.xlsx when outputPath is empty.
func (s *Service) ExportSeasonXLSX(season int, outputPath string) (string, int, error) {
	items, err := s.db.ListRewards(season, "")
	if err != nil {
		return "", 0, err
	}
	if len(items) == 0 {
		return "", 0, fmt.Errorf("no stored rewards for season %d", season)
	}
	if outputPath == "" {
		outputPath = filepath.Join(s.cfg.OutputDir, "season-"+strconv.Itoa(season)+".xlsx")
	}
	if err := pipeline.ExportRewardsToXLSX(season, items, outputPath); err != nil {
		return "", 0, err
	}
	return outputPath, len(items), nil
}

func (s *Service) recordRun(res Result, status internal.RunStatus, runErr error, timings map[string]float64) {
	run := internal.RunRecord{
		ID:        res.RunID,
		Season:    res.Season,
		SourceURL: res.SourceURL,
		Status:    status,
		Items:     res.Items,
		Timings:   timings,
		Counts:    res.Report.Counts(),
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if err := s.db.InsertRun(run); err != nil {
		s.logger.Error("recording run failed", "run", res.RunID, "err", err)
	}
}

func lastUpdateKey(season int) string {
	return "rewards.last_update." + strconv.Itoa(season)
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
