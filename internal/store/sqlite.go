package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/freshtrack/expiry-cli/internal/expiry"
	"github.com/freshtrack/expiry-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Dates are stored as YYYY-MM-DD text so lexicographic comparison in SQL
// matches chronological order.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS products (
	barcode         TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	shelf_life_days INTEGER NOT NULL DEFAULT 180,
	return_days     INTEGER NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS scans (
	id              TEXT PRIMARY KEY,
	barcode         TEXT,
	production_date TEXT,
	expiry_date     TEXT NOT NULL,
	days_remaining  INTEGER NOT NULL,
	confidence      REAL NOT NULL,
	engine          TEXT,
	scanned_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_scans_barcode ON scans(barcode);
CREATE INDEX IF NOT EXISTS idx_scans_expiry_date ON scans(expiry_date);
CREATE INDEX IF NOT EXISTS idx_scans_scanned_at ON scans(scanned_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	if p.Barcode == "" {
		return nil, eris.New("sqlite: product barcode is required")
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (barcode, name, shelf_life_days, return_days, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (barcode) DO UPDATE SET
		   name = excluded.name,
		   shelf_life_days = excluded.shelf_life_days,
		   return_days = excluded.return_days,
		   updated_at = excluded.updated_at`,
		p.Barcode, p.Name, p.ShelfLifeDays, p.ReturnDays, now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert product %s", p.Barcode)
	}
	return &p, nil
}

func (s *SQLiteStore) GetProduct(ctx context.Context, barcode string) (*model.Product, error) {
	var p model.Product
	err := s.db.QueryRowContext(ctx,
		`SELECT barcode, name, shelf_life_days, return_days, created_at, updated_at
		 FROM products WHERE barcode = ?`,
		barcode,
	).Scan(&p.Barcode, &p.Name, &p.ShelfLifeDays, &p.ReturnDays, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get product %s", barcode)
	}
	return &p, nil
}

func (s *SQLiteStore) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT barcode, name, shelf_life_days, return_days, created_at, updated_at
		 FROM products ORDER BY barcode`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list products")
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.Barcode, &p.Name, &p.ShelfLifeDays, &p.ReturnDays, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan product")
		}
		products = append(products, p)
	}
	return products, eris.Wrap(rows.Err(), "sqlite: list products iterate")
}

func (s *SQLiteStore) DeleteProduct(ctx context.Context, barcode string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE barcode = ?`, barcode)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete product %s", barcode)
	}
	return checkRowsAffected(res, "product", barcode)
}

func (s *SQLiteStore) RecordScan(ctx context.Context, scan model.Scan) (*model.Scan, error) {
	fillScanDefaults(&scan)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scans (id, barcode, production_date, expiry_date, days_remaining, confidence, engine, scanned_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		scan.ID, nullString(scan.Barcode), nullDate(scan.ProductionDate), scan.ExpiryDate.String(),
		scan.DaysRemaining, scan.Confidence, nullString(scan.Engine), scan.ScannedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert scan")
	}
	return &scan, nil
}

func (s *SQLiteStore) RecordScans(ctx context.Context, scans []model.Scan) (int, error) {
	if len(scans) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO scans (id, barcode, production_date, expiry_date, days_remaining, confidence, engine, scanned_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert scan")
	}
	defer stmt.Close()

	for i := range scans {
		fillScanDefaults(&scans[i])
		sc := scans[i]
		if _, err := stmt.ExecContext(ctx,
			sc.ID, nullString(sc.Barcode), nullDate(sc.ProductionDate), sc.ExpiryDate.String(),
			sc.DaysRemaining, sc.Confidence, nullString(sc.Engine), sc.ScannedAt,
		); err != nil {
			return 0, eris.Wrap(err, "sqlite: insert scan batch")
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit scan batch")
	}
	return len(scans), nil
}

func (s *SQLiteStore) ListScans(ctx context.Context, filter ScanFilter) ([]model.Scan, error) {
	query := `SELECT id, barcode, production_date, expiry_date, days_remaining, confidence, engine, scanned_at
	          FROM scans WHERE 1=1`
	var args []any

	if filter.Barcode != "" {
		query += ` AND barcode = ?`
		args = append(args, filter.Barcode)
	}
	query += ` ORDER BY scanned_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scans")
	}
	defer rows.Close()

	var scans []model.Scan
	for rows.Next() {
		sc, err := scanScanRow(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, *sc)
	}
	return scans, eris.Wrap(rows.Err(), "sqlite: list scans iterate")
}

func (s *SQLiteStore) ListExpiring(ctx context.Context, within int, today model.Date) ([]ExpiringItem, error) {
	cutoff := today.AddDays(within)

	rows, err := s.db.QueryContext(ctx,
		`SELECT s.barcode, COALESCE(p.name, ''), s.production_date, s.expiry_date, s.scanned_at
		 FROM scans s LEFT JOIN products p ON p.barcode = s.barcode
		 WHERE s.expiry_date <= ?
		 ORDER BY s.expiry_date ASC, s.scanned_at DESC`,
		cutoff.String(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list expiring")
	}
	defer rows.Close()

	var items []ExpiringItem
	for rows.Next() {
		var (
			item       ExpiringItem
			barcode    sql.NullString
			production sql.NullString
			expiryStr  string
		)
		if err := rows.Scan(&barcode, &item.Name, &production, &expiryStr, &item.ScannedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan expiring item")
		}
		item.Barcode = barcode.String
		if item.ProductionDate, err = parseNullDate(production); err != nil {
			return nil, err
		}
		if item.ExpiryDate, err = model.ParseDate(expiryStr); err != nil {
			return nil, eris.Wrap(err, "sqlite: parse expiry date")
		}
		item.DaysRemaining = expiry.DaysRemaining(item.ExpiryDate, today)
		items = append(items, item)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: list expiring iterate")
}

func (s *SQLiteStore) RefreshDaysRemaining(ctx context.Context, today model.Date) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, expiry_date, days_remaining FROM scans`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: refresh days remaining")
	}
	defer rows.Close()

	type update struct {
		id   string
		days int
	}
	var updates []update
	for rows.Next() {
		var (
			id        string
			expiryStr string
			stored    int
		)
		if err := rows.Scan(&id, &expiryStr, &stored); err != nil {
			return 0, eris.Wrap(err, "sqlite: scan refresh row")
		}
		exp, err := model.ParseDate(expiryStr)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: parse expiry date")
		}
		if days := expiry.DaysRemaining(exp, today); days != stored {
			updates = append(updates, update{id: id, days: days})
		}
	}
	if err := rows.Err(); err != nil {
		return 0, eris.Wrap(err, "sqlite: refresh iterate")
	}

	for _, u := range updates {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE scans SET days_remaining = ? WHERE id = ?`,
			u.days, u.id,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: update days remaining %s", u.id)
		}
	}
	return len(updates), nil
}

// helpers

func fillScanDefaults(sc *model.Scan) {
	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	if sc.ScannedAt.IsZero() {
		sc.ScannedAt = time.Now().UTC()
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDate(d model.Date) sql.NullString {
	return sql.NullString{String: d.String(), Valid: !d.IsZero()}
}

func parseNullDate(ns sql.NullString) (model.Date, error) {
	if !ns.Valid || ns.String == "" {
		return model.Date{}, nil
	}
	d, err := model.ParseDate(ns.String)
	if err != nil {
		return model.Date{}, eris.Wrap(err, "sqlite: parse stored date")
	}
	return d, nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanScanRow(row scannable) (*model.Scan, error) {
	var (
		sc         model.Scan
		barcode    sql.NullString
		production sql.NullString
		engine     sql.NullString
		expiryStr  string
	)
	err := row.Scan(&sc.ID, &barcode, &production, &expiryStr,
		&sc.DaysRemaining, &sc.Confidence, &engine, &sc.ScannedAt)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan row")
	}
	sc.Barcode = barcode.String
	sc.Engine = engine.String
	if sc.ProductionDate, err = parseNullDate(production); err != nil {
		return nil, err
	}
	if sc.ExpiryDate, err = model.ParseDate(expiryStr); err != nil {
		return nil, eris.Wrap(err, "sqlite: parse expiry date")
	}
	return &sc, nil
}
