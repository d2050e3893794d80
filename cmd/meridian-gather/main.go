package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meridian/internal/config"
	"meridian/internal/gather"
	"meridian/internal/store"
	"meridian/internal/util"
)

func main() {
	barsOnly := flag.Bool("bars-only", false, "skip the benchmark fetch")
	useParquet := flag.Bool("parquet", false, "write bars to the Parquet store instead of SQLite")
	flag.Parse()

	cfgPath := "config/meridian.yaml"
	if p := os.Getenv("MERIDIAN_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	rng, err := gatherRange(cfg.Gather)
	if err != nil {
		log.Fatalf("invalid gather date range: %v", err)
	}

	var barStore store.BarStore
	var benchStore store.BenchmarkStore
	if *useParquet {
		barStore = store.NewParquetStore(cfg.Storage.DataDir)
	} else {
		s, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open sqlite store: %v", err)
		}
		defer s.Close()
		barStore = s
		benchStore = s
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gatherers := []gather.Gatherer{
		gather.NewDailyBarGatherer(
			cfg.Alpaca.APIKey,
			cfg.Alpaca.APISecret,
			cfg.Alpaca.DataURL,
			barStore,
			cfg.Gather.Universe,
			rng,
			cfg.Gather.BatchSize,
			cfg.Gather.RateLimitPerMin,
		),
	}
	if !*barsOnly && benchStore != nil && cfg.Gather.BenchmarkSymbol != "" {
		gatherers = append(gatherers, gather.NewBenchmarkGatherer(
			cfg.Alpaca.APIKey,
			cfg.Alpaca.APISecret,
			cfg.Alpaca.DataURL,
			benchStore,
			cfg.Gather.BenchmarkName,
			cfg.Gather.BenchmarkSymbol,
			rng,
			cfg.Gather.RateLimitPerMin,
		))
	}

	for _, g := range gatherers {
		logger.Info("starting gatherer", "name", g.Name())
		if err := g.Run(ctx); err != nil {
			log.Fatalf("gatherer %s: %v", g.Name(), err)
		}
	}
}

func gatherRange(cfg config.GatherConfig) (gather.DateRange, error) {
	start, err := time.Parse("2006-01-02", cfg.StartDate)
	if err != nil {
		return gather.DateRange{}, err
	}
	end := time.Now().UTC()
	if cfg.EndDate != "" {
		end, err = time.Parse("2006-01-02", cfg.EndDate)
		if err != nil {
			return gather.DateRange{}, err
		}
	}
	return gather.DateRange{Start: start, End: end}, nil
}
