package provider

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/logger"

	_ "github.com/mattn/go-sqlite3"
)

const localSchema = `
CREATE TABLE IF NOT EXISTS stocks (
	ticker     TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	sector     TEXT NOT NULL DEFAULT '',
	exchange   TEXT NOT NULL DEFAULT 'NSE',
	market_cap REAL
);
CREATE INDEX IF NOT EXISTS idx_stocks_name ON stocks(name);
`

// LocalProvider serves the bundled instrument catalog from SQLite.
// It is pinned: catalog lookups never trip a breaker.
type LocalProvider struct {
	db  *sql.DB
	log *logger.Logger
}

type seedRecord struct {
	Ticker    string   `json:"ticker"`
	Name      string   `json:"name"`
	Sector    string   `json:"sector"`
	Exchange  string   `json:"exchange"`
	MarketCap *float64 `json:"market_cap"`
}

// NewLocalProvider opens (or creates) the catalog database and seeds it
// from seedPath when the stocks table is empty.
func NewLocalProvider(dbPath, seedPath string, log *logger.Logger) (*LocalProvider, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}

	if _, err := db.Exec(localSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init catalog schema: %w", err)
	}

	p := &LocalProvider{db: db, log: log}
	if err := p.seedIfEmpty(seedPath); err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

func (p *LocalProvider) seedIfEmpty(seedPath string) error {
	var count int
	if err := p.db.QueryRow("SELECT COUNT(*) FROM stocks").Scan(&count); err != nil {
		return fmt.Errorf("count catalog: %w", err)
	}
	if count > 0 || seedPath == "" {
		return nil
	}

	raw, err := os.ReadFile(seedPath)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var records []seedRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	tx, err := p.db.Begin()
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(
		"INSERT OR IGNORE INTO stocks (ticker, name, sector, exchange, market_cap) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare seed insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		exchange := r.Exchange
		if exchange == "" {
			exchange = "NSE"
		}
		if _, err := stmt.Exec(r.Ticker, r.Name, r.Sector, exchange, r.MarketCap); err != nil {
			return fmt.Errorf("seed insert %s: %w", r.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}

	p.log.Info("catalog seeded", logger.Int("records", len(records)))
	return nil
}

// Descriptor implements Provider.
func (p *LocalProvider) Descriptor() Descriptor {
	return Descriptor{Name: "local", Priority: 1, Markets: []string{"NSE", "BSE"}, Pinned: true}
}

// Fetch implements Provider. With no terms it lists the catalog; with
// terms it matches ticker or name case-insensitively per term.
func (p *LocalProvider) Fetch(ctx context.Context, terms []string) ([]models.StockRecord, error) {
	if len(terms) == 0 {
		return p.listAll(ctx)
	}

	var out []models.StockRecord
	seen := make(map[string]struct{})
	for _, term := range terms {
		rows, err := p.search(ctx, term)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if _, ok := seen[r.Ticker]; ok {
				continue
			}
			seen[r.Ticker] = struct{}{}
			out = append(out, r)
		}
	}
	return out, nil
}

func (p *LocalProvider) listAll(ctx context.Context) ([]models.StockRecord, error) {
	rows, err := p.db.QueryContext(ctx,
		"SELECT ticker, name, sector, exchange, market_cap FROM stocks ORDER BY ticker")
	if err != nil {
		return nil, fmt.Errorf("catalog list: %w", err)
	}
	defer rows.Close()
	return scanStocks(rows)
}

func (p *LocalProvider) search(ctx context.Context, term string) ([]models.StockRecord, error) {
	pattern := "%" + strings.ToUpper(strings.TrimSpace(term)) + "%"
	rows, err := p.db.QueryContext(ctx,
		`SELECT ticker, name, sector, exchange, market_cap FROM stocks
		 WHERE UPPER(ticker) LIKE ? OR UPPER(name) LIKE ?
		 ORDER BY ticker LIMIT 100`,
		pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("catalog search: %w", err)
	}
	defer rows.Close()
	return scanStocks(rows)
}

func scanStocks(rows *sql.Rows) ([]models.StockRecord, error) {
	var out []models.StockRecord
	for rows.Next() {
		var r models.StockRecord
		var marketCap sql.NullFloat64
		if err := rows.Scan(&r.Ticker, &r.Name, &r.Sector, &r.Exchange, &marketCap); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		if marketCap.Valid {
			v := marketCap.Float64
			r.MarketCap = &v
		}
		r.Source = "local"
		out = append(out, r)
	}
	return out, rows.Err()
}

// Lookup returns one record by exact ticker.
func (p *LocalProvider) Lookup(ctx context.Context, ticker string) (*models.StockRecord, error) {
	row := p.db.QueryRowContext(ctx,
		"SELECT ticker, name, sector, exchange, market_cap FROM stocks WHERE ticker = ?",
		strings.ToUpper(strings.TrimSpace(ticker)))

	var r models.StockRecord
	var marketCap sql.NullFloat64
	if err := row.Scan(&r.Ticker, &r.Name, &r.Sector, &r.Exchange, &marketCap); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog lookup: %w", err)
	}
	if marketCap.Valid {
		v := marketCap.Float64
		r.MarketCap = &v
	}
	r.Source = "local"
	return &r, nil
}

// CheckHealth implements HealthChecker by probing the catalog table.
// A catalog that cannot serve a single row is unhealthy.
func (p *LocalProvider) CheckHealth(ctx context.Context, _ string) error {
	var ticker string
	err := p.db.QueryRowContext(ctx, "SELECT ticker FROM stocks LIMIT 1").Scan(&ticker)
	if err == sql.ErrNoRows {
		return fmt.Errorf("local catalog is empty")
	}
	return err
}

// Close releases the underlying database.
func (p *LocalProvider) Close() error {
	return p.db.Close()
}
