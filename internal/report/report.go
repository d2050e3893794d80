// Package report converts a completed backtest Result into a JSON payload
// for an external renderer and writes it into the report directory.
package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"meridian/internal/backtest"
	"meridian/internal/data"
	"meridian/internal/domain"
)

// Payload is the renderable summary of a run. Metrics that are undefined
// (NaN) are serialized as null.
type Payload struct {
	Strategy    string    `json:"strategy"`
	GeneratedAt time.Time `json:"generated_at"`
	Start       string    `json:"start"`
	End         string    `json:"end"`
	DurationMS  int64     `json:"duration_ms"`

	InitialCash float64        `json:"initial_cash"`
	FinalCash   float64        `json:"final_cash"`
	TradeCount  int            `json:"trade_count"`
	Trades      []domain.Trade `json:"trades"`

	MaxDrawdown      float64  `json:"max_drawdown"`
	Sharpe           *float64 `json:"sharpe"`
	InformationRatio *float64 `json:"information_ratio"`

	MarkToMarket     []Sample `json:"mark_to_market"`
	TotalReturnTrend []Sample `json:"total_return_trend"`
	BenchmarkTrend   []Sample `json:"benchmark_trend,omitempty"`
}

// Sample is one dated value in a serialized series.
type Sample struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Writer writes report payloads into a directory, one file per run.
type Writer struct {
	dir string
	log *slog.Logger
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, log: logger}
}

// Write builds the payload for a result and writes it as pretty-printed
// JSON. The file name combines the strategy name and the generation time.
// It returns the full path of the written file.
func (w *Writer) Write(result *backtest.Result) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	payload := Build(result)
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	name := fmt.Sprintf("%s-%s.json", result.Strategy, payload.GeneratedAt.UTC().Format("20060102T150405"))
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	w.log.Info("wrote backtest report", "path", path, "trades", payload.TradeCount)
	return path, nil
}

// Build converts a Result into a Payload.
func Build(result *backtest.Result) Payload {
	return Payload{
		Strategy:         result.Strategy,
		GeneratedAt:      time.Now(),
		Start:            result.Start.Format("2006-01-02"),
		End:              result.End.Format("2006-01-02"),
		DurationMS:       result.Duration.Milliseconds(),
		InitialCash:      result.InitialCash,
		FinalCash:        result.FinalCash,
		TradeCount:       len(result.Trades),
		Trades:           result.Trades,
		MaxDrawdown:      result.MaxDrawdown,
		Sharpe:           nullableMetric(result.Sharpe),
		InformationRatio: nullableMetric(result.InformationRatio),
		MarkToMarket:     samples(result.MarkToMarket),
		TotalReturnTrend: samples(result.TotalReturnTrend),
		BenchmarkTrend:   samples(result.BenchmarkTrend),
	}
}

// nullableMetric maps NaN to nil so undefined metrics serialize as null
// instead of breaking the JSON encoder.
func nullableMetric(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func samples(s data.Series) []Sample {
	out := make([]Sample, 0, s.Len())
	for i, d := range s.Dates {
		out = append(out, Sample{Date: d.Format("2006-01-02"), Value: s.Values[i]})
	}
	return out
}
