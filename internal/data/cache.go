package data

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
)

// FrameCache is a content-addressed on-disk cache of assembled price frames.
// Entries are keyed by a deterministic digest of the request (date range,
// universe, required fields, benchmark) so that identical runs reuse the
// same file.
type FrameCache struct {
	dir string
}

// NewFrameCache creates a cache rooted at dir. The directory is created on
// first save.
func NewFrameCache(dir string) *FrameCache {
	return &FrameCache{dir: dir}
}

// frameRecord is the Parquet schema for one cached frame cell.
type frameRecord struct {
	Date   int64   `parquet:"date,timestamp(millisecond)"` // Unix ms, midnight UTC
	Ticker string  `parquet:"ticker"`
	Close  float64 `parquet:"close"`
}

// Key returns the digest identifying the cache entry for a request.
func (c *FrameCache) Key(req Request) string {
	id := strings.Join([]string{
		req.Start.Format("2006-01-02"),
		req.End.Format("2006-01-02"),
		strings.Join(req.Universe, ","),
		strings.Join(req.Fields, ","),
		req.Benchmark,
	}, " ")
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}

func (c *FrameCache) path(req Request) string {
	return filepath.Join(c.dir, c.Key(req)+".parquet")
}

// Load returns the cached frame for the request, or ok=false on a miss.
func (c *FrameCache) Load(req Request) (*Frame, bool) {
	records, err := parquet.ReadFile[frameRecord](c.path(req))
	if err != nil || len(records) == 0 {
		return nil, false
	}

	b := NewFrameBuilder()
	for _, r := range records {
		b.Add(r.Ticker, time.UnixMilli(r.Date).UTC(), r.Close)
	}
	return b.Build(), true
}

// Save stores an assembled frame under the request's digest. NaN cells
// (dates before a ticker is listed) are not materialized; rebuilding the
// frame restores them.
func (c *FrameCache) Save(req Request, f *Frame) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}

	var records []frameRecord
	for _, ticker := range f.Columns() {
		for _, d := range f.Dates() {
			v, ok := f.Value(ticker, d)
			if !ok || math.IsNaN(v) {
				continue
			}
			records = append(records, frameRecord{
				Date:   d.UnixMilli(),
				Ticker: ticker,
				Close:  v,
			})
		}
	}
	return parquet.WriteFile(c.path(req), records)
}
