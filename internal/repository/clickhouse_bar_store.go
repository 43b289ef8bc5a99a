package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
)

// SchemaStatements creates the history and tick tables (idempotent).
var SchemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS bars (
		ticker   String,
		interval String,
		ts       DateTime,
		open     Float64,
		high     Float64,
		low      Float64,
		close    Float64,
		volume   Float64
	) ENGINE = ReplacingMergeTree
	ORDER BY (ticker, interval, ts)`,
	`CREATE TABLE IF NOT EXISTS ticks (
		ts     DateTime64(3),
		symbol String,
		price  Float64,
		volume Float64
	) ENGINE = MergeTree
	ORDER BY (symbol, ts)`,
}

// ClickHouseBarStore implements BarStore over ClickHouse.
type ClickHouseBarStore struct {
	db *sql.DB
}

// NewClickHouseBarStore creates a ClickHouse-backed bar store.
func NewClickHouseBarStore(db *sql.DB) repository.BarStore {
	return &ClickHouseBarStore{db: db}
}

func (s *ClickHouseBarStore) StoreBars(ctx context.Context, ticker, interval string, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	const chunkSize = 2000
	for start := 0; start < len(bars); start += chunkSize {
		end := start + chunkSize
		if end > len(bars) {
			end = len(bars)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, b := range bars[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, ticker, interval, b.Time, b.Open, b.High, b.Low, b.Close, b.Volume)
		}

		q := "INSERT INTO bars (ticker, interval, ts, open, high, low, close, volume) VALUES " +
			strings.Join(values, ",")
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store bars %s: %w", ticker, err)
		}
	}
	return nil
}

func (s *ClickHouseBarStore) QueryBars(ctx context.Context, ticker, interval string, from, to time.Time) ([]models.Bar, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, open, high, low, close, volume FROM bars FINAL
		 WHERE ticker = ? AND interval = ? AND ts >= ? AND ts <= ?
		 ORDER BY ts ASC`,
		ticker, interval, from, to)
	if err != nil {
		return nil, fmt.Errorf("query bars %s: %w", ticker, err)
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func (s *ClickHouseBarStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ClickHouseTickStore implements TickStore over ClickHouse.
type ClickHouseTickStore struct {
	db *sql.DB
}

// NewClickHouseTickStore creates a ClickHouse-backed tick store.
func NewClickHouseTickStore(db *sql.DB) repository.TickStore {
	return &ClickHouseTickStore{db: db}
}

func (s *ClickHouseTickStore) StoreBatch(ctx context.Context, ticks []*models.Tick) error {
	if len(ticks) == 0 {
		return nil
	}

	values := make([]string, 0, len(ticks))
	args := make([]interface{}, 0, len(ticks)*4)
	for _, t := range ticks {
		if t == nil || t.Symbol == "" {
			continue
		}
		values = append(values, "(?, ?, ?, ?)")
		args = append(args, t.Time, t.Symbol, t.Price, t.Volume)
	}
	if len(values) == 0 {
		return nil
	}

	q := "INSERT INTO ticks (ts, symbol, price, volume) VALUES " + strings.Join(values, ",")
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("store ticks: %w", err)
	}
	return nil
}

func (s *ClickHouseTickStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
