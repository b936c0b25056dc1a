package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"FinTrain/internal/domain/models"
	domrepo "FinTrain/internal/domain/repository"
	pkgch "FinTrain/pkg/clickhouse"
	applogger "FinTrain/pkg/logger"
)

// ClickHouseTicks stores collected ticks and serves them back as a price history.
type ClickHouseTicks struct {
	db     *sql.DB
	table  string
	symbol string
	since  time.Time
	l      *applogger.Logger
}

// NewClickHouseTicks creates ClickHouse tick storage for symbol.
// A zero since reads the whole history.
func NewClickHouseTicks(ch *pkgch.Client, table, symbol string, since time.Time, l *applogger.Logger) *ClickHouseTicks {
	return &ClickHouseTicks{db: ch.DB(), table: table, symbol: symbol, since: since, l: l}
}

// SchemaStatements returns the DDL for the tick table.
func SchemaStatements(table string) []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            ts     DateTime64(3),
            symbol LowCardinality(String),
            price  Float64
        )
        ENGINE = MergeTree
        ORDER BY (symbol, ts)
    `, table)}
}

func (s *ClickHouseTicks) historyQuery() (string, []interface{}) {
	q := fmt.Sprintf("SELECT price FROM %s WHERE symbol = ?", s.table)
	args := []interface{}{s.symbol}
	if !s.since.IsZero() {
		q += " AND ts >= ?"
		args = append(args, s.since)
	}
	q += " ORDER BY ts ASC"
	return q, args
}

// Drain returns every stored price for the symbol in time order.
func (s *ClickHouseTicks) Drain(ctx context.Context) ([]float64, error) {
	start := time.Now()
	q, args := s.historyQuery()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse history query error",
			applogger.String("table", s.table),
			applogger.String("symbol", s.symbol),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]float64, 0, 1024)
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Info("clickhouse history ok",
		applogger.String("table", s.table),
		applogger.String("symbol", s.symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *ClickHouseTicks) Publish(ctx context.Context, t *models.Tick) error {
	return s.PublishBatch(ctx, []*models.Tick{t})
}

// PublishBatch inserts ticks in chunks of multi-row VALUES.
func (s *ClickHouseTicks) PublishBatch(ctx context.Context, ticks []*models.Tick) error {
	const chunkSize = 2000
	for start := 0; start < len(ticks); start += chunkSize {
		end := start + chunkSize
		if end > len(ticks) {
			end = len(ticks)
		}
		q, args := insertQuery(s.table, ticks[start:end])
		if len(args) == 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert ticks: %w", err)
		}
	}
	return nil
}

func insertQuery(table string, ticks []*models.Tick) (string, []interface{}) {
	values := make([]string, 0, len(ticks))
	args := make([]interface{}, 0, len(ticks)*3)
	for _, t := range ticks {
		if t == nil || t.Price == nil || t.Symbol == "" {
			continue
		}
		values = append(values, "(?, ?, ?)")
		args = append(args, time.Unix(t.Timestamp, 0), t.Symbol, *t.Price)
	}
	return fmt.Sprintf("INSERT INTO %s (ts, symbol, price) VALUES %s", table, strings.Join(values, ",")), args
}

// Close is a no-op; the connection pool is owned by pkg/clickhouse.
func (s *ClickHouseTicks) Close() error { return nil }

var (
	_ domrepo.ObservationSource = (*ClickHouseTicks)(nil)
	_ domrepo.TickPublisher     = (*ClickHouseTicks)(nil)
)
