package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"rocketpass/internal/api"
	"rocketpass/internal/config"
	"rocketpass/internal/pipeline"
	"rocketpass/internal/storage"
	"rocketpass/internal/updater"
	"rocketpass/internal/watcher"
	"rocketpass/internal/wiki"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	catalogOpts := pipeline.CatalogOptions{TableSelector: cfg.TableSelector}

	cmd := os.Args[1]
	switch cmd {
	case "parse":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "saved HTML page path or raw HTML")
		out := fs.String("out", "", "output json path (stdout when empty)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		catalog, err := pipeline.ExtractRewardsFromInput(*input, catalogOpts)
		if errors.Is(err, pipeline.ErrNoRewards) {
			fmt.Printf("no rewards found tables=%d accepted=%d\n", catalog.Report.TablesSeen, catalog.Report.TablesAccepted)
			return
		}
		must(err)
		if strings.TrimSpace(*out) == "" {
			blob, err := pipeline.MarshalRewards(catalog.Items)
			must(err)
			fmt.Println(string(blob))
			return
		}
		_, err = pipeline.WriteRewardsJSON(catalog.Items, *out)
		must(err)
		r := catalog.Report
		fmt.Printf("parse done items=%d tables=%d accepted=%d rowMissing=%d columnMissing=%d dropped=%d output=%s\n",
			r.Extracted, r.TablesSeen, r.TablesAccepted, r.RowMissing, r.ColumnMissing, r.Dropped, *out)
	case "inspect":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "saved HTML page path or raw HTML")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		shapes, err := pipeline.InspectInput(*input, catalogOpts)
		must(err)
		for i, shape := range shapes {
			fmt.Printf("table %d rows=%d headers=%d tiers=%d accepted=%t first=%q\n",
				i, shape.Rows, shape.HeaderCells, shape.TierColumns, shape.Accepted(), shape.HeaderText)
		}
	case "locate":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		season := fs.Int("season", cfg.Season, "rocket pass season")
		_ = fs.Parse(os.Args[2:])
		link, err := wiki.NewClient(cfg).LocateRewardsPage(context.Background(), *season)
		must(err)
		fmt.Println(link)
	default:
		runWithDB(cmd, cfg, logger)
	}
}

func runWithDB(cmd string, cfg config.Config, logger *slog.Logger) {
	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	svc := updater.NewService(db, cfg, logger)

	switch cmd {
	case "update":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		season := fs.Int("season", cfg.Season, "rocket pass season")
		pageURL := fs.String("url", "", "wiki page url (skips the search)")
		_ = fs.Parse(os.Args[2:])
		res, err := svc.Update(context.Background(), updater.Options{Season: *season, URL: *pageURL})
		must(err)
		if res.Empty {
			fmt.Printf("update done season=%d items=0 (existing data kept) url=%s\n", res.Season, res.SourceURL)
			return
		}
		fmt.Printf("update done season=%d items=%d url=%s output=%s\n", res.Season, res.Items, res.SourceURL, cfg.OutputFile)
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		season := fs.Int("season", cfg.Season, "rocket pass season")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		path, n, err := svc.ExportSeasonXLSX(*season, *out)
		must(err)
		fmt.Printf("exported %d rows to %s\n", n, path)
	case "runs":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max runs")
		_ = fs.Parse(os.Args[2:])
		runs, err := db.ListRuns(*limit)
		must(err)
		for _, run := range runs {
			line := fmt.Sprintf("%s %s season=%d status=%s items=%d", run.CreatedAt, run.ID, run.Season, run.Status, run.Items)
			if run.Error != "" {
				line += " error=" + run.Error
			}
			fmt.Println(line)
		}
	case "watch":
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		must(watcher.NewService(svc, cfg, logger).Run(ctx))
	case "serve":
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		must(serve(ctx, cfg, db, logger))
	default:
		usage()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg config.Config, db *storage.DB, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           api.New(db, cfg.APIAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", cfg.APIAddr, "db", cfg.DBPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func usage() {
	fmt.Println("usage: rocketpass <command>")
	fmt.Println("commands:")
	fmt.Println("  update [--season=21] [--url=https://rocketleague.fandom.com/wiki/...]")
	fmt.Println("  locate [--season=21]")
	fmt.Println("  parse --input=page.html [--out=./rewards.json]")
	fmt.Println("  inspect --input=page.html")
	fmt.Println("  export:xlsx [--season=21] [--out=./out/season-21.xlsx]")
	fmt.Println("  runs [--limit=20]")
	fmt.Println("  watch")
	fmt.Println("  serve")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
