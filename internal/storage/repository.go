// Package storage persists closing records and their sibling financial
// records in SQLite. Writes are single statements: either the full row lands
// or prior state stays authoritative.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"closeout/internal/closing"
	"closeout/internal/reports"
)

var ErrNotFound = errors.New("record not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const closingColumns = `id, date, created_at, cash_actual, card_actual, total_actual,
	cash_system, card_system, total_system, variance, net_sales, vat_amount,
	discount_amount, gross_sales, tips, details`

// SaveClosing inserts a new closing record.
func (r *SQLiteRepository) SaveClosing(ctx context.Context, rec closing.DailyClosing) error {
	details, err := json.Marshal(rec.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO daily_closings (`+closingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Date.String(), rec.CreatedAt.Format(time.RFC3339),
		rec.CashActual, rec.CardActual, rec.TotalActual,
		rec.CashSystem, rec.CardSystem, rec.TotalSystem,
		rec.Variance, rec.NetSales, rec.VATAmount,
		rec.DiscountAmount, rec.GrossSales, rec.Tips,
		string(details),
	)
	if err != nil {
		return fmt.Errorf("insert closing: %w", err)
	}

	slog.InfoContext(ctx, "Closing saved",
		"id", rec.ID,
		"date", rec.Date.String(),
		"total_system", rec.TotalSystem,
		"variance", rec.Variance)

	return nil
}

// UpdateClosing overwrites the whole row for rec.ID. The identity columns
// (id, created_at) are never rewritten.
func (r *SQLiteRepository) UpdateClosing(ctx context.Context, rec closing.DailyClosing) error {
	details, err := json.Marshal(rec.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE daily_closings SET
			date = ?, cash_actual = ?, card_actual = ?, total_actual = ?,
			cash_system = ?, card_system = ?, total_system = ?, variance = ?,
			net_sales = ?, vat_amount = ?, discount_amount = ?, gross_sales = ?,
			tips = ?, details = ?
		WHERE id = ?`,
		rec.Date.String(),
		rec.CashActual, rec.CardActual, rec.TotalActual,
		rec.CashSystem, rec.CardSystem, rec.TotalSystem, rec.Variance,
		rec.NetSales, rec.VATAmount, rec.DiscountAmount, rec.GrossSales,
		rec.Tips, string(details),
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update closing: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update closing %s: %w", rec.ID, ErrNotFound)
	}

	slog.InfoContext(ctx, "Closing updated", "id", rec.ID, "date", rec.Date.String())
	return nil
}

// DeleteClosing hard-removes a record. Soft deletion is deliberately not
// offered; the audit trail lives in the audit log.
func (r *SQLiteRepository) DeleteClosing(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM daily_closings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete closing: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete closing %s: %w", id, ErrNotFound)
	}

	slog.InfoContext(ctx, "Closing deleted", "id", id)
	return nil
}

// GetClosing fetches one record by ID.
func (r *SQLiteRepository) GetClosing(ctx context.Context, id string) (closing.DailyClosing, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+closingColumns+` FROM daily_closings WHERE id = ?`, id)
	rec, err := scanClosing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return closing.DailyClosing{}, fmt.Errorf("closing %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return closing.DailyClosing{}, fmt.Errorf("get closing: %w", err)
	}
	return rec, nil
}

// GetClosingByDate fetches the most recently created record for a calendar
// day. One closing per day is expected but not enforced.
func (r *SQLiteRepository) GetClosingByDate(ctx context.Context, date closing.Date) (closing.DailyClosing, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+closingColumns+` FROM daily_closings
		WHERE date = ? ORDER BY created_at DESC LIMIT 1`, date.String())
	rec, err := scanClosing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return closing.DailyClosing{}, fmt.Errorf("closing for %s: %w", date.String(), ErrNotFound)
	}
	if err != nil {
		return closing.DailyClosing{}, fmt.Errorf("get closing by date: %w", err)
	}
	return rec, nil
}

// ListClosings returns records with date in [from, to], ascending by date.
func (r *SQLiteRepository) ListClosings(ctx context.Context, from, to closing.Date) ([]closing.DailyClosing, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+closingColumns+` FROM daily_closings
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC, created_at ASC`, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list closings: %w", err)
	}
	defer rows.Close()

	var out []closing.DailyClosing
	for rows.Next() {
		rec, err := scanClosing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan closing: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListPurchases(ctx context.Context, from, to closing.Date) ([]reports.LedgerEntry, error) {
	return r.listLedger(ctx, "purchases", from, to)
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, from, to closing.Date) ([]reports.LedgerEntry, error) {
	return r.listLedger(ctx, "expenses", from, to)
}

func (r *SQLiteRepository) ListPayroll(ctx context.Context, from, to closing.Date) ([]reports.LedgerEntry, error) {
	return r.listLedger(ctx, "payroll_runs", from, to)
}

func (r *SQLiteRepository) listLedger(ctx context.Context, table string, from, to closing.Date) ([]reports.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, label, amount FROM `+table+`
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC`, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var out []reports.LedgerEntry
	for rows.Next() {
		var dateStr string
		var e reports.LedgerEntry
		if err := rows.Scan(&dateStr, &e.Label, &e.Amount); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		d, err := closing.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse %s date: %w", table, err)
		}
		e.Date = d
		out = append(out, e)
	}
	return out, rows.Err()
}

// InsertAuditEntry records one audit-log row. Callers treat failures as
// best-effort.
func (r *SQLiteRepository) InsertAuditEntry(ctx context.Context, actor, action, resource, details string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log (created_at, actor, action, resource, details)
		VALUES (?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), actor, action, resource, details)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClosing(row scanner) (closing.DailyClosing, error) {
	var rec closing.DailyClosing
	var dateStr, createdStr, detailsJSON string

	err := row.Scan(
		&rec.ID, &dateStr, &createdStr,
		&rec.CashActual, &rec.CardActual, &rec.TotalActual,
		&rec.CashSystem, &rec.CardSystem, &rec.TotalSystem,
		&rec.Variance, &rec.NetSales, &rec.VATAmount,
		&rec.DiscountAmount, &rec.GrossSales, &rec.Tips,
		&detailsJSON,
	)
	if err != nil {
		return closing.DailyClosing{}, err
	}

	date, err := closing.ParseDate(dateStr)
	if err != nil {
		return closing.DailyClosing{}, fmt.Errorf("parse date: %w", err)
	}
	rec.Date = date

	createdAt, err := time.Parse(time.RFC3339, createdStr)
	if err != nil {
		return closing.DailyClosing{}, fmt.Errorf("parse created_at: %w", err)
	}
	rec.CreatedAt = createdAt

	if err := json.Unmarshal([]byte(detailsJSON), &rec.Details); err != nil {
		return closing.DailyClosing{}, fmt.Errorf("unmarshal details: %w", err)
	}

	return rec, nil
}
