package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"MacroPulse/internal/domain/models"
	domrepo "MacroPulse/internal/domain/repository"
	pkgch "MacroPulse/pkg/clickhouse"
	applogger "MacroPulse/pkg/logger"
)

const insertChunk = 2000

// CHObservationStore archives observations in ClickHouse and serves the
// series that only exist there (ingested breadth proxies).
type CHObservationStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.ObservationStore = (*CHObservationStore)(nil)

func NewCHObservationStore(ch *pkgch.Client, table string) *CHObservationStore {
	return &CHObservationStore{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHObservationStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHObservationStore) Name() string { return "clickhouse" }

// Schema returns the DDL for the observations table. Re-ingesting a date
// keeps the newest row (ReplacingMergeTree on ingested_at).
func (s *CHObservationStore) Schema() []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    series_id   LowCardinality(String),
    source      LowCardinality(String),
    date        Date,
    value       Float64,
    ingested_at DateTime64(3) DEFAULT now64(3)
) ENGINE = ReplacingMergeTree(ingested_at)
ORDER BY (series_id, date)`, s.table)}
}

func (s *CHObservationStore) Init(ctx context.Context) error {
	for _, stmt := range s.Schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init observations table: %w", err)
		}
	}
	return nil
}

// StoreBatch inserts obs with multi-row VALUES, chunked to bound statement size.
func (s *CHObservationStore) StoreBatch(ctx context.Context, seriesID, source string, obs []models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	start := time.Now()
	now := start.UTC()

	for lo := 0; lo < len(obs); lo += insertChunk {
		hi := lo + insertChunk
		if hi > len(obs) {
			hi = len(obs)
		}

		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*5)
		for _, o := range obs[lo:hi] {
			values = append(values, "(?, ?, ?, ?, ?)")
			args = append(args, seriesID, source, o.Date, o.Value, now)
		}

		q := fmt.Sprintf("INSERT INTO %s (series_id, source, date, value, ingested_at) VALUES %s", s.table, strings.Join(values, ", "))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse store observations failed",
				applogger.String("series_id", seriesID),
				applogger.Int("rows", hi-lo),
				applogger.Error(err),
			)
			return fmt.Errorf("store %s: %w", seriesID, err)
		}
	}

	s.l.Debug("clickhouse store observations ok",
		applogger.String("series_id", seriesID),
		applogger.String("source", source),
		applogger.Int("rows", len(obs)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

// Fetch returns the newest value per date for seriesID on or after start.
func (s *CHObservationStore) Fetch(ctx context.Context, seriesID string, start time.Time) (models.Series, error) {
	q := fmt.Sprintf(`SELECT date, argMax(value, ingested_at) AS value
FROM %s
WHERE series_id = ? AND date >= ?
GROUP BY date
ORDER BY date ASC`, s.table)

	rows, err := s.db.QueryContext(ctx, q, seriesID, start)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", seriesID, err)
	}
	defer rows.Close()

	out := make(models.Series, 0, 512)
	for rows.Next() {
		var (
			d time.Time
			v float64
		)
		if err := rows.Scan(&d, &v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", seriesID, err)
		}
		out = append(out, models.ObservationAt(d, v))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows %s: %w", seriesID, err)
	}
	return out, nil
}

func (s *CHObservationStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.Client.
func (s *CHObservationStore) Close() error {
	return nil
}
