package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"meridian/internal/backtest"
	"meridian/internal/config"
	"meridian/internal/data"
	"meridian/internal/report"
	"meridian/internal/store"
	"meridian/internal/strategy"
	"meridian/internal/strategy/builtins"
	"meridian/internal/util"
)

func main() {
	listStrategies := flag.Bool("list", false, "list registered strategies and exit")
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

	registry := strategy.NewRegistry()
	registry.Register(builtins.NewMACDCross(1000))
	registry.Register(builtins.NewEqualWeightQuarterly(cfg.Backtest.Benchmark))

	if *listStrategies {
		fmt.Println(strings.Join(registry.List(), "\n"))
		return
	}

	strat, ok := registry.Get(cfg.Backtest.Strategy)
	if !ok {
		log.Fatalf("unknown strategy %q, registered: %v", cfg.Backtest.Strategy, registry.List())
	}

	start, err := time.Parse("2006-01-02", cfg.Backtest.StartDate)
	if err != nil {
		log.Fatalf("invalid backtest start_date: %v", err)
	}
	end, err := time.Parse("2006-01-02", cfg.Backtest.EndDate)
	if err != nil {
		log.Fatalf("invalid backtest end_date: %v", err)
	}

	sqlite, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open sqlite store: %v", err)
	}
	defer sqlite.Close()

	var cache *data.FrameCache
	if cfg.Storage.CacheDir != "" {
		cache = data.NewFrameCache(cfg.Storage.CacheDir)
	}
	provider := data.NewStoreProvider(sqlite, sqlite, sqlite, cache, logger)
	if cfg.Backtest.FundamentalDelayDays > 0 {
		provider.SetFundamentalDelay(cfg.Backtest.FundamentalDelayDays)
	}

	engine := backtest.New(provider, logger)
	result, err := engine.Run(context.Background(), strat, backtest.Params{
		Universe:    cfg.Backtest.Universe,
		Start:       start,
		End:         end,
		InitialCash: cfg.Backtest.InitialCash,
	})
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}

	writer := report.NewWriter(cfg.Storage.ReportDir, logger)
	path, err := writer.Write(result)
	if err != nil {
		log.Fatalf("failed to write report: %v", err)
	}

	fmt.Printf("strategy:          %s\n", result.Strategy)
	fmt.Printf("trades:            %d\n", len(result.Trades))
	fmt.Printf("final cash:        %.2f\n", result.FinalCash)
	fmt.Printf("max drawdown:      %.4f\n", result.MaxDrawdown)
	fmt.Printf("sharpe:            %v\n", result.Sharpe)
	fmt.Printf("information ratio: %v\n", result.InformationRatio)
	fmt.Printf("report:            %s\n", path)
}
