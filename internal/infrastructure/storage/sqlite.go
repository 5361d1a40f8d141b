package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/crypto_trade_zones/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS zone_runs (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			interval TEXT NOT NULL,
			timeframe TEXT NOT NULL,
			candles INTEGER NOT NULL,
			zone_count INTEGER NOT NULL,
			nearest_support REAL,
			nearest_resistance REAL,
			tuning TEXT NOT NULL,
			warnings TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_zone_runs_symbol_interval ON zone_runs(symbol, interval, created_at);`,
		`CREATE TABLE IF NOT EXISTS zones (
			run_id TEXT NOT NULL REFERENCES zone_runs(id) ON DELETE CASCADE,
			zone_id INTEGER NOT NULL,
			side TEXT NOT NULL,
			value REAL NOT NULL,
			x0 INTEGER NOT NULL,
			x1 INTEGER NOT NULL,
			strength INTEGER NOT NULL,
			is_reversal BOOLEAN NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, zone_id)
		);`,
		`CREATE TABLE IF NOT EXISTS zone_rows (
			run_id TEXT NOT NULL REFERENCES zone_runs(id) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			time INTEGER NOT NULL,
			close REAL,
			pivot INTEGER NOT NULL,
			support TEXT NOT NULL,
			resistance TEXT NOT NULL,
			nearest_support REAL,
			nearest_resistance REAL,
			PRIMARY KEY (run_id, idx)
		);`,
		`CREATE TABLE IF NOT EXISTS zone_signals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES zone_runs(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			type TEXT NOT NULL,
			direction TEXT NOT NULL,
			strength TEXT NOT NULL,
			confidence REAL NOT NULL,
			price REAL NOT NULL,
			zone_side TEXT NOT NULL,
			zone_value REAL NOT NULL,
			distance_pct REAL NOT NULL,
			momentum_confirms BOOLEAN NOT NULL DEFAULT 0
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}

	return nil
}

// ZoneRepository Implementation

// SaveRun writes the run and all of its zones, rows and signals in one
// transaction. An empty run ID is filled in.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *domain.ZoneRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	a := run.Analysis
	if a == nil {
		a = &domain.Analysis{}
	}

	tuning, err := json.Marshal(a.Tuning)
	if err != nil {
		return fmt.Errorf("encode tuning: %w", err)
	}
	warnings, err := json.Marshal(nonNil(a.Warnings))
	if err != nil {
		return fmt.Errorf("encode warnings: %w", err)
	}
	last, _ := a.Last()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO zone_runs (id, symbol, interval, timeframe, candles, zone_count, nearest_support, nearest_resistance, tuning, warnings, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Symbol, run.Interval, a.Tuning.Timeframe, run.Candles, len(a.Zones),
		toSQL(last.NearestSupport), toSQL(last.NearestResistance), string(tuning), string(warnings), run.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	zoneStmt, err := tx.PrepareContext(ctx, `INSERT INTO zones (run_id, zone_id, side, value, x0, x1, strength, is_reversal) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer zoneStmt.Close()
	for _, z := range a.Zones {
		if _, err := zoneStmt.ExecContext(ctx, run.ID, z.ID, string(z.Side), z.Value, z.X0, z.X1, z.Strength, z.IsReversal); err != nil {
			return fmt.Errorf("insert zone %d: %w", z.ID, err)
		}
	}

	rowStmt, err := tx.PrepareContext(ctx, `INSERT INTO zone_rows (run_id, idx, time, close, pivot, support, resistance, nearest_support, nearest_resistance) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer rowStmt.Close()
	for _, r := range a.Rows {
		support, err := json.Marshal(nonNil(r.Support))
		if err != nil {
			return err
		}
		resistance, err := json.Marshal(nonNil(r.Resistance))
		if err != nil {
			return err
		}
		_, err = rowStmt.ExecContext(ctx, run.ID, r.Index, r.Time, toSQL(domain.Some(r.Close)), int(r.Pivot),
			string(support), string(resistance), toSQL(r.NearestSupport), toSQL(r.NearestResistance))
		if err != nil {
			return fmt.Errorf("insert row %d: %w", r.Index, err)
		}
	}

	for _, sig := range run.Signals {
		_, err := tx.ExecContext(ctx, `INSERT INTO zone_signals (run_id, kind, type, direction, strength, confidence, price, zone_side, zone_value, distance_pct, momentum_confirms)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, sig.Kind, string(sig.Type), sig.Direction, string(sig.Strength), sig.Confidence, sig.Price,
			string(sig.ZoneSide), sig.ZoneValue, sig.DistancePct, sig.MomentumConfirms)
		if err != nil {
			return fmt.Errorf("insert signal: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*domain.ZoneRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, symbol, interval, candles, tuning, warnings, created_at FROM zone_runs WHERE id = ?`, id)

	var run domain.ZoneRun
	var tuning, warnings string
	a := &domain.Analysis{}
	err := row.Scan(&run.ID, &run.Symbol, &run.Interval, &run.Candles, &tuning, &warnings, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tuning), &a.Tuning); err != nil {
		return nil, fmt.Errorf("decode tuning: %w", err)
	}
	if err := json.Unmarshal([]byte(warnings), &a.Warnings); err != nil {
		return nil, fmt.Errorf("decode warnings: %w", err)
	}
	if len(a.Warnings) == 0 {
		a.Warnings = nil
	}

	if a.Zones, err = s.loadZones(ctx, id); err != nil {
		return nil, err
	}
	if a.Rows, err = s.loadRows(ctx, id); err != nil {
		return nil, err
	}
	a.Pivots = make([]domain.PivotLabel, len(a.Rows))
	for i, r := range a.Rows {
		a.Pivots[i] = r.Pivot
	}
	if run.Signals, err = s.loadSignals(ctx, id); err != nil {
		return nil, err
	}

	run.Analysis = a
	return &run, nil
}

func (s *SQLiteStore) LatestRun(ctx context.Context, symbol, interval string) (*domain.ZoneRun, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM zone_runs WHERE symbol = ? AND interval = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		symbol, interval).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest %s %s: %w", symbol, interval, domain.ErrRunNotFound)
	}
	if err != nil {
		return nil, err
	}
	return s.GetRun(ctx, id)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, symbol string, limit int) ([]*domain.RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, symbol, interval, timeframe, candles, zone_count, nearest_support, nearest_resistance, created_at
			  FROM zone_runs WHERE (? = '' OR symbol = ?) ORDER BY created_at DESC, rowid DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, symbol, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.RunSummary
	for rows.Next() {
		var r domain.RunSummary
		var sup, res sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.Symbol, &r.Interval, &r.Timeframe, &r.Candles, &r.Zones, &sup, &res, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.NearestSupport = fromSQL(sup)
		r.NearestResistance = fromSQL(res)
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) loadZones(ctx context.Context, runID string) ([]domain.Zone, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT zone_id, side, value, x0, x1, strength, is_reversal FROM zones WHERE run_id = ? ORDER BY zone_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []domain.Zone
	for rows.Next() {
		var z domain.Zone
		var side string
		if err := rows.Scan(&z.ID, &side, &z.Value, &z.X0, &z.X1, &z.Strength, &z.IsReversal); err != nil {
			return nil, err
		}
		z.Side = domain.Side(side)
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

func (s *SQLiteStore) loadRows(ctx context.Context, runID string) ([]domain.AssignmentRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT idx, time, close, pivot, support, resistance, nearest_support, nearest_resistance FROM zone_rows WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AssignmentRow
	for rows.Next() {
		var r domain.AssignmentRow
		var closePrice, sup, res sql.NullFloat64
		var pivot int
		var support, resistance string
		if err := rows.Scan(&r.Index, &r.Time, &closePrice, &pivot, &support, &resistance, &sup, &res); err != nil {
			return nil, err
		}
		r.Close = math.NaN()
		if closePrice.Valid {
			r.Close = closePrice.Float64
		}
		r.Pivot = domain.PivotLabel(pivot)
		if err := json.Unmarshal([]byte(support), &r.Support); err != nil {
			return nil, fmt.Errorf("decode support slots: %w", err)
		}
		if err := json.Unmarshal([]byte(resistance), &r.Resistance); err != nil {
			return nil, fmt.Errorf("decode resistance slots: %w", err)
		}
		r.NearestSupport = fromSQL(sup)
		r.NearestResistance = fromSQL(res)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loadSignals(ctx context.Context, runID string) ([]domain.Signal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, type, direction, strength, confidence, price, zone_side, zone_value, distance_pct, momentum_confirms FROM zone_signals WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []domain.Signal
	for rows.Next() {
		var sig domain.Signal
		var typ, strength, side string
		if err := rows.Scan(&sig.Kind, &typ, &sig.Direction, &strength, &sig.Confidence, &sig.Price, &side, &sig.ZoneValue, &sig.DistancePct, &sig.MomentumConfirms); err != nil {
			return nil, err
		}
		sig.Type = domain.SignalType(typ)
		sig.Strength = domain.SignalStrength(strength)
		sig.ZoneSide = domain.Side(side)
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}

func toSQL(v domain.NullFloat) sql.NullFloat64 {
	if !v.Valid || !domain.IsFinite(v.Float64) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v.Float64, Valid: true}
}

func fromSQL(v sql.NullFloat64) domain.NullFloat {
	if !v.Valid {
		return domain.NullFloat{}
	}
	return domain.Some(v.Float64)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
