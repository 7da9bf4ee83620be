package updater

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"rocketpass/internal"
	"rocketpass/internal/config"
	"rocketpass/internal/storage"
	"rocketpass/internal/wiki"
)

const rewardsPage = `<html><body>
<table class="wikitable">
<tr><th>TIER 2</th><th>TIER 1</th></tr>
<tr><td>Octane Decal</td><td><img alt="BoostIconRL.png" src="https://img.example/boost.png"></td></tr>
<tr><td>Sticker</td></tr>
</table>
</body></html>`

const emptyPage = `<html><body><table class="wikitable"><tr><th>Nope</th></tr><tr><td>x</td></tr></table></body></html>`

type fakeLocator struct {
	url   string
	err   error
	calls int
}

func (f *fakeLocator) LocateRewardsPage(ctx context.Context, season int) (string, error) {
	f.calls++
	return f.url, f.err
}

type fakeFetcher struct {
	pages map[string]string
}

func (f fakeFetcher) FetchPage(ctx context.Context, pageURL string) (*goquery.Document, error) {
	html, ok := f.pages[pageURL]
	if !ok {
		return nil, &wiki.StatusError{URL: pageURL, StatusCode: http.StatusNotFound}
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func newTestService(t *testing.T, locator Locator, fetcher PageFetcher) (*Service, *storage.DB, config.Config) {
	t.Helper()
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		Season:        21,
		OutputFile:    filepath.Join(tmp, "src", "data", "rocket-pass.json"),
		OutputDir:     filepath.Join(tmp, "out"),
		TableSelector: "table.wikitable",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := &Service{db: db, cfg: cfg, locator: locator, fetcher: fetcher, logger: logger}
	return svc, db, cfg
}

func TestUpdateWritesAndStoresCatalog(t *testing.T) {
	locator := &fakeLocator{url: "https://rocketleague.fandom.com/wiki/Season_21"}
	fetcher := fakeFetcher{pages: map[string]string{locator.url: rewardsPage}}
	svc, db, cfg := newTestService(t, locator, fetcher)

	res, err := svc.Update(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Items != 3 || !res.Written || res.Empty {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Season != 21 || res.SourceURL != locator.url {
		t.Fatalf("unexpected source: %+v", res)
	}

	blob, err := os.ReadFile(cfg.OutputFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(blob), `"name": "Boost"`) {
		t.Fatalf("output missing Boost: %s", blob)
	}

	items, err := db.ListRewards(21, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 || items[0].Tier != 1 || items[0].Name != "Boost" {
		t.Fatalf("stored items=%+v", items)
	}
	if items[0].ImageURL != "https://img.example/boost.png" {
		t.Fatalf("image url=%q", items[0].ImageURL)
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != internal.RunOK || runs[0].ID != res.RunID {
		t.Fatalf("runs=%+v", runs)
	}
	if runs[0].Counts["extracted"] != 3 {
		t.Fatalf("counts=%v", runs[0].Counts)
	}

	last, err := db.GetMetadata("rewards.last_update.21")
	if err != nil {
		t.Fatal(err)
	}
	if last == nil || *last == "" {
		t.Fatal("last update metadata not set")
	}
}

func TestUpdateExplicitURLSkipsSearch(t *testing.T) {
	locator := &fakeLocator{err: errors.New("should not be called")}
	fetcher := fakeFetcher{pages: map[string]string{"https://wiki.example/s20": rewardsPage}}
	svc, _, _ := newTestService(t, locator, fetcher)

	res, err := svc.Update(context.Background(), Options{Season: 20, URL: "https://wiki.example/s20"})
	if err != nil {
		t.Fatal(err)
	}
	if locator.calls != 0 {
		t.Fatalf("locator called %d times", locator.calls)
	}
	if res.Season != 20 || res.Items != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestUpdateEmptyCatalogKeepsExistingOutput(t *testing.T) {
	locator := &fakeLocator{url: "https://wiki.example/s21"}
	fetcher := fakeFetcher{pages: map[string]string{locator.url: emptyPage}}
	svc, db, cfg := newTestService(t, locator, fetcher)

	if err := os.MkdirAll(filepath.Dir(cfg.OutputFile), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.OutputFile, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Update(context.Background(), Options{})
	if err != nil {
		t.Fatalf("empty catalog should not fail: %v", err)
	}
	if !res.Empty || res.Written || res.Items != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	blob, err := os.ReadFile(cfg.OutputFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(blob) != "previous" {
		t.Fatalf("output overwritten: %q", blob)
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != internal.RunEmpty {
		t.Fatalf("runs=%+v", runs)
	}
	seasons, err := db.ListSeasons()
	if err != nil {
		t.Fatal(err)
	}
	if len(seasons) != 0 {
		t.Fatalf("seasons=%+v", seasons)
	}
}

func TestUpdateRecordsFailedRun(t *testing.T) {
	locator := &fakeLocator{err: wiki.ErrPlaceholderAPIKey}
	svc, db, _ := newTestService(t, locator, fakeFetcher{})

	_, err := svc.Update(context.Background(), Options{})
	if !errors.Is(err, wiki.ErrPlaceholderAPIKey) {
		t.Fatalf("expected placeholder key error, got %v", err)
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != internal.RunFailed {
		t.Fatalf("runs=%+v", runs)
	}
	if !strings.HasPrefix(runs[0].Error, "locate: ") {
		t.Fatalf("error=%q", runs[0].Error)
	}
}

func TestUpdateStoreFailureKeepsPreviousOutput(t *testing.T) {
	locator := &fakeLocator{url: "https://wiki.example/s21"}
	fetcher := fakeFetcher{pages: map[string]string{locator.url: rewardsPage}}
	svc, db, cfg := newTestService(t, locator, fetcher)

	previous := []byte(`[{"tier":1,"name":"Old"}]`)
	if err := os.MkdirAll(filepath.Dir(cfg.OutputFile), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.OutputFile, previous, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Update(context.Background(), Options{})
	if err == nil || !strings.HasPrefix(err.Error(), "store: ") {
		t.Fatalf("expected store error, got %v", err)
	}
	if res.Written {
		t.Fatal("output must not be written when storing fails")
	}
	blob, err := os.ReadFile(cfg.OutputFile)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(blob, previous) {
		t.Fatalf("output changed: %s", blob)
	}
}

type failingMetadataStore struct {
	*storage.DB
}

func (failingMetadataStore) SetMetadata(key, value string) error {
	return errors.New("metadata table locked")
}

func TestUpdateLogsMetadataFailure(t *testing.T) {
	locator := &fakeLocator{url: "https://wiki.example/s21"}
	fetcher := fakeFetcher{pages: map[string]string{locator.url: rewardsPage}}
	svc, db, _ := newTestService(t, locator, fetcher)

	var logs bytes.Buffer
	svc.db = failingMetadataStore{DB: db}
	svc.logger = slog.New(slog.NewTextHandler(&logs, nil))

	res, err := svc.Update(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Items != 3 {
		t.Fatalf("items=%d", res.Items)
	}
	out := logs.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "recording last update failed") || !strings.Contains(out, "metadata table locked") {
		t.Fatalf("missing warning in logs:\n%s", out)
	}
}

func TestUpdateFetchFailure(t *testing.T) {
	locator := &fakeLocator{url: "https://wiki.example/missing"}
	svc, _, _ := newTestService(t, locator, fakeFetcher{pages: map[string]string{}})

	_, err := svc.Update(context.Background(), Options{})
	var statusErr *wiki.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 status error, got %v", err)
	}
}

func TestExportSeasonXLSX(t *testing.T) {
	locator := &fakeLocator{url: "https://wiki.example/s21"}
	fetcher := fakeFetcher{pages: map[string]string{locator.url: rewardsPage}}
	svc, _, cfg := newTestService(t, locator, fetcher)

	if _, _, err := svc.ExportSeasonXLSX(21, ""); err == nil {
		t.Fatal("expected error before any update")
	}

	if _, err := svc.Update(context.Background(), Options{}); err != nil {
		t.Fatal(err)
	}
	path, n, err := svc.ExportSeasonXLSX(21, "")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 || path != filepath.Join(cfg.OutputDir, "season-21.xlsx") {
		t.Fatalf("path=%s n=%d", path, n)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateEndToEndWithWikiClient(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "test-key" {
			http.Error(w, "bad key", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"organic_results":[{"link":"https://example.org/other"},{"link":"%s/wiki/Rocket_Pass_21"}]}`, srv.URL)
	})
	mux.HandleFunc("/wiki/Rocket_Pass_21", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, rewardsPage)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	svc, db, cfg := newTestService(t, nil, nil)
	cfg.SerpAPIKey = "test-key"
	cfg.SerpAPIBaseURL = srv.URL + "/search"
	cfg.SerpAPIEngine = "google"
	cfg.SerpAPINumResults = 5
	cfg.WikiDomain = strings.TrimPrefix(srv.URL, "http://")
	cfg.HTTPTimeoutMs = 5000
	cfg.HTTPRateLimitRPS = 100
	cfg.HTTPUserAgent = "rocketpass-test"

	client := wiki.NewClient(cfg)
	svc.cfg = cfg
	svc.locator = client
	svc.fetcher = client

	res, err := svc.Update(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.SourceURL != srv.URL+"/wiki/Rocket_Pass_21" || res.Items != 3 {
		t.Fatalf("unexpected result: %+v", res)
	}
	items, err := db.ListRewards(21, internal.TrackFree)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Name != "Sticker" || items[0].Tier != 2 {
		t.Fatalf("free items=%+v", items)
	}
}
