package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	tiktok "github.com/RavensCloud/tiktok-stats"
	"github.com/RavensCloud/tiktok-stats/internal/cache"
	"github.com/RavensCloud/tiktok-stats/internal/config"
	"github.com/RavensCloud/tiktok-stats/internal/logging"
	"github.com/RavensCloud/tiktok-stats/internal/metrics"
	"github.com/RavensCloud/tiktok-stats/internal/storage"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitFallback = 3
)

func main() {
	configPath := flag.String("config", "", "Path to config yaml (default ./configs/config.yaml)")
	reset := flag.Bool("reset", false, "Write an all-zero record and exit")
	sample := flag.Bool("sample", false, "Write a sample record and exit")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(conf.Log, os.Stderr)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	os.Exit(run(conf, logger, *reset, *sample))
}

func run(conf *config.Config, logger zerolog.Logger, reset, sample bool) int {
	ctx := context.Background()

	store, closeStore, err := storage.Open(ctx, conf.Store)
	if err != nil {
		logger.Error().Err(err).Str("driver", conf.Store.Driver).Msg("open store")
		return exitFailure
	}
	defer func() {
		if err := closeStore(ctx); err != nil {
			logger.Warn().Err(err).Msg("close store")
		}
	}()

	if reset || sample {
		rec := tiktok.SampleRecord(time.Now())
		if reset {
			rec = tiktok.ResetRecord(time.Now())
		}
		if err := store.Write(ctx, rec); err != nil {
			logger.Error().Err(err).Msg("write record")
			return exitFailure
		}
		printRecord(rec)
		return exitOK
	}

	if err := conf.RequireAccount(); err != nil {
		logger.Error().Err(err).Msg("nothing to fetch")
		return exitFailure
	}

	profile := conf.Profile()
	scraper := tiktok.New().
		WithTimeout(conf.HTTP.Timeout).
		WithRequestInterval(conf.HTTP.RequestInterval).
		WithUserAgent(conf.HTTP.UserAgent).
		WithReferer(profile.Referer).
		WithLogger(logger)
	if err := scraper.SetProxy(conf.HTTP.Proxy); err != nil {
		logger.Error().Err(err).Msg("set proxy")
		return exitFailure
	}
	if conf.HTTP.CookiesFile != "" {
		if err := scraper.LoadCookies(conf.HTTP.CookiesFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn().Err(err).Msg("load cookies")
		}
	}

	recorder := metrics.NewRecorder()
	fetcher := tiktok.NewFetcher(scraper, store).
		WithProfile(profile).
		WithObserver(recorder).
		WithCache(cache.New(conf.Cache.Size, conf.Cache.TTL, logger))

	if conf.Browser.Enabled {
		browser := tiktok.NewBrowserPageFetcher(conf.HTTP.Proxy).WithTimeout(conf.Browser.Timeout)
		defer browser.Close()
		fetcher.WithPageFetcher(browser)
	}

	cycle := func() int {
		runLogger := logger.With().Str("run_id", uuid.NewString()).Logger()
		fetcher.WithLogger(runLogger)

		// Runs are never cancelled midway; a signal only stops the watch loop.
		rec, err := fetcher.Run(context.Background(), conf.Account.Reference)

		if conf.HTTP.CookiesFile != "" {
			if err := scraper.SaveCookies(conf.HTTP.CookiesFile); err != nil {
				runLogger.Warn().Err(err).Msg("save cookies")
			}
		}
		if conf.Metrics.Textfile != "" {
			if err := recorder.WriteTextfile(conf.Metrics.Textfile); err != nil {
				runLogger.Warn().Err(err).Msg("write metrics")
			}
		}

		printRecord(rec)
		if err != nil {
			runLogger.Error().Err(err).Msg("persist record")
			return exitFailure
		}
		if !rec.Status.IsLive() {
			return exitFallback
		}
		return exitOK
	}

	if conf.Watch.Interval <= 0 {
		return cycle()
	}

	stop, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info().Dur("interval", conf.Watch.Interval).Msg("watch mode")
	code := cycle()
	ticker := time.NewTicker(conf.Watch.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop.Done():
			logger.Info().Msg("shutdown signal received")
			return code
		case <-ticker.C:
			code = cycle()
		}
	}
}

func printRecord(r tiktok.StatsRecord) {
	fmt.Printf("Followers:   %d\n", r.Followers)
	fmt.Printf("Likes:       %d\n", r.Likes)
	fmt.Printf("Videos:      %d\n", r.Videos)
	fmt.Printf("Status:      %s\n", r.Status)
	fmt.Printf("Source:      %s\n", r.Source)
	fmt.Printf("Last update: %s\n", r.LastUpdate)
}
