package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ajo/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// sqlite allows one writer; a single connection avoids SQLITE_BUSY under load
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := Migrate(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CreateGroup(ctx context.Context, g *core.Group) error {
	if g.Version == 0 {
		g.Version = 1
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO groups
		(id, name, contribution_minor, frequency, start_date, total_cycles, version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.ContributionAmount.Minor, string(g.Frequency),
		g.StartDate.String(), g.TotalCycles, g.Version, g.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	if err := insertChildren(ctx, tx, g); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Group saved to SQLite",
		"group_id", g.ID,
		"members", len(g.Members),
		"total_cycles", g.TotalCycles)
	return nil
}

func (r *SQLiteRepository) GetGroup(ctx context.Context, id string) (*core.Group, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, contribution_minor, frequency,
		start_date, total_cycles, version, created_at FROM groups WHERE id = ?`, id)
	g, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, groupNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get group %s: %w", id, err)
	}
	if err := r.loadChildren(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (r *SQLiteRepository) ListGroups(ctx context.Context) ([]*core.Group, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, contribution_minor, frequency,
		start_date, total_cycles, version, created_at FROM groups ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	var groups []*core.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list groups: %w", err)
	}
	rows.Close()

	// children are loaded after the cursor closes; the pool has one connection
	for _, g := range groups {
		if err := r.loadChildren(ctx, g); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func (r *SQLiteRepository) SaveGroup(ctx context.Context, g *core.Group) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE groups SET name = ?, contribution_minor = ?,
		frequency = ?, start_date = ?, total_cycles = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		g.Name, g.ContributionAmount.Minor, string(g.Frequency), g.StartDate.String(),
		g.TotalCycles, g.ID, g.Version)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM groups WHERE id = ?`, g.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return groupNotFound(g.ID)
		}
		if err != nil {
			return fmt.Errorf("check group: %w", err)
		}
		return ErrVersionConflict
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM members WHERE group_id = ?`, g.ID); err != nil {
		return fmt.Errorf("clear members: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM payment_records WHERE group_id = ?`, g.ID); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	if err := insertChildren(ctx, tx, g); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	g.Version++
	return nil
}

func (r *SQLiteRepository) DeleteGroup(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM payment_records WHERE group_id = ?`,
		`DELETE FROM members WHERE group_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("delete group %s: %w", id, err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete group %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return groupNotFound(id)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	slog.InfoContext(ctx, "Group deleted from SQLite", "group_id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*core.Group, error) {
	var (
		g                   core.Group
		freq, start, create string
	)
	if err := row.Scan(&g.ID, &g.Name, &g.ContributionAmount.Minor, &freq,
		&start, &g.TotalCycles, &g.Version, &create); err != nil {
		return nil, err
	}
	g.Frequency = core.Frequency(freq)
	d, err := core.ParseDate(start)
	if err != nil {
		return nil, fmt.Errorf("parse start_date %q: %w", start, err)
	}
	g.StartDate = d
	if t, err := time.Parse(time.RFC3339Nano, create); err == nil {
		g.CreatedAt = t
	}
	return &g, nil
}

func (r *SQLiteRepository) loadChildren(ctx context.Context, g *core.Group) error {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, contact, position
		FROM members WHERE group_id = ? ORDER BY position`, g.ID)
	if err != nil {
		return fmt.Errorf("load members: %w", err)
	}
	for rows.Next() {
		var m core.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Contact, &m.Order); err != nil {
			rows.Close()
			return fmt.Errorf("scan member: %w", err)
		}
		g.Members = append(g.Members, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("load members: %w", err)
	}
	rows.Close()

	rows, err = r.db.QueryContext(ctx, `SELECT id, cycle, member_id, due_date, paid_date, amount_minor
		FROM payment_records WHERE group_id = ? ORDER BY cycle, id`, g.ID)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			rec  core.PaymentRecord
			due  string
			paid sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Cycle, &rec.MemberID, &due, &paid, &rec.Amount.Minor); err != nil {
			return fmt.Errorf("scan record: %w", err)
		}
		if rec.DueDate, err = core.ParseDate(due); err != nil {
			return fmt.Errorf("parse due_date %q: %w", due, err)
		}
		if paid.Valid && paid.String != "" {
			d, err := core.ParseDate(paid.String)
			if err != nil {
				return fmt.Errorf("parse paid_date %q: %w", paid.String, err)
			}
			rec.PaidDate = &d
		}
		g.Records = append(g.Records, rec)
	}
	return rows.Err()
}

func insertChildren(ctx context.Context, tx *sql.Tx, g *core.Group) error {
	for _, m := range g.Members {
		if _, err := tx.ExecContext(ctx, `INSERT INTO members (id, group_id, name, contact, position)
			VALUES (?, ?, ?, ?, ?)`, m.ID, g.ID, m.Name, m.Contact, m.Order); err != nil {
			return fmt.Errorf("insert member %s: %w", m.ID, err)
		}
	}
	for _, rec := range g.Records {
		var paid sql.NullString
		if rec.IsPaid() {
			paid = sql.NullString{String: rec.PaidDate.String(), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO payment_records
			(id, group_id, cycle, member_id, due_date, paid_date, amount_minor)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, g.ID, rec.Cycle, rec.MemberID, rec.DueDate.String(), paid, rec.Amount.Minor); err != nil {
			return fmt.Errorf("insert record %s: %w", rec.ID, err)
		}
	}
	return nil
}
