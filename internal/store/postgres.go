package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/freshtrack/expiry-cli/internal/db"
	"github.com/freshtrack/expiry-cli/internal/expiry"
	"github.com/freshtrack/expiry-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"upsert_product": `INSERT INTO products (barcode, name, shelf_life_days, return_days, created_at, updated_at)
	                   VALUES ($1, $2, $3, $4, $5, $6)
	                   ON CONFLICT (barcode) DO UPDATE SET
	                     name = $2, shelf_life_days = $3, return_days = $4, updated_at = $6`,
	"get_product":    `SELECT barcode, name, shelf_life_days, return_days, created_at, updated_at FROM products WHERE barcode = $1`,
	"insert_scan":    `INSERT INTO scans (id, barcode, production_date, expiry_date, days_remaining, confidence, engine, scanned_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS products (
	barcode         TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	shelf_life_days INTEGER NOT NULL DEFAULT 180,
	return_days     INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS scans (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	barcode         TEXT,
	production_date DATE,
	expiry_date     DATE NOT NULL,
	days_remaining  INTEGER NOT NULL,
	confidence      DOUBLE PRECISION NOT NULL,
	engine          TEXT,
	scanned_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_scans_barcode ON scans(barcode);
CREATE INDEX IF NOT EXISTS idx_scans_expiry_date ON scans(expiry_date);
CREATE INDEX IF NOT EXISTS idx_scans_scanned_at ON scans(scanned_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	if p.Barcode == "" {
		return nil, eris.New("postgres: product barcode is required")
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO products (barcode, name, shelf_life_days, return_days, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (barcode) DO UPDATE SET
		   name = $2, shelf_life_days = $3, return_days = $4, updated_at = $6`,
		p.Barcode, p.Name, p.ShelfLifeDays, p.ReturnDays, now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert product %s", p.Barcode)
	}
	return &p, nil
}

func (s *PostgresStore) GetProduct(ctx context.Context, barcode string) (*model.Product, error) {
	var p model.Product
	err := s.pool.QueryRow(ctx,
		`SELECT barcode, name, shelf_life_days, return_days, created_at, updated_at
		 FROM products WHERE barcode = $1`,
		barcode,
	).Scan(&p.Barcode, &p.Name, &p.ShelfLifeDays, &p.ReturnDays, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get product %s", barcode)
	}
	return &p, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT barcode, name, shelf_life_days, return_days, created_at, updated_at
		 FROM products ORDER BY barcode`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list products")
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.Barcode, &p.Name, &p.ShelfLifeDays, &p.ReturnDays, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan product")
		}
		products = append(products, p)
	}
	return products, eris.Wrap(rows.Err(), "postgres: list products iterate")
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, barcode string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE barcode = $1`, barcode)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete product %s", barcode)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("product not found: %s", barcode)
	}
	return nil
}

func (s *PostgresStore) RecordScan(ctx context.Context, scan model.Scan) (*model.Scan, error) {
	fillScanDefaults(&scan)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO scans (id, barcode, production_date, expiry_date, days_remaining, confidence, engine, scanned_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		scan.ID, textOrNil(scan.Barcode), dateOrNil(scan.ProductionDate), scan.ExpiryDate.Time(),
		scan.DaysRemaining, scan.Confidence, textOrNil(scan.Engine), scan.ScannedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert scan")
	}
	return &scan, nil
}

// RecordScans batches whole-photo-batch results through the COPY protocol.
func (s *PostgresStore) RecordScans(ctx context.Context, scans []model.Scan) (int, error) {
	if len(scans) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(scans))
	for i := range scans {
		fillScanDefaults(&scans[i])
		sc := scans[i]
		rows = append(rows, []any{
			sc.ID, textOrNil(sc.Barcode), dateOrNil(sc.ProductionDate), sc.ExpiryDate.Time(),
			sc.DaysRemaining, sc.Confidence, textOrNil(sc.Engine), sc.ScannedAt,
		})
	}

	n, err := db.CopyFrom(ctx, s.pool, "scans",
		[]string{"id", "barcode", "production_date", "expiry_date", "days_remaining", "confidence", "engine", "scanned_at"},
		rows,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: record scans")
	}
	return int(n), nil
}

func (s *PostgresStore) ListScans(ctx context.Context, filter ScanFilter) ([]model.Scan, error) {
	query := `SELECT id, barcode, production_date, expiry_date, days_remaining, confidence, engine, scanned_at
	          FROM scans WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Barcode != "" {
		query += fmt.Sprintf(` AND barcode = $%d`, argIdx)
		args = append(args, filter.Barcode)
		argIdx++
	}
	query += ` ORDER BY scanned_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scans")
	}
	defer rows.Close()

	var scans []model.Scan
	for rows.Next() {
		var (
			sc         model.Scan
			barcode    *string
			production *time.Time
			engine     *string
			expiryTime time.Time
		)
		if err := rows.Scan(&sc.ID, &barcode, &production, &expiryTime,
			&sc.DaysRemaining, &sc.Confidence, &engine, &sc.ScannedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan row")
		}
		if barcode != nil {
			sc.Barcode = *barcode
		}
		if engine != nil {
			sc.Engine = *engine
		}
		if production != nil {
			sc.ProductionDate = model.DateOf(*production)
		}
		sc.ExpiryDate = model.DateOf(expiryTime)
		scans = append(scans, sc)
	}
	return scans, eris.Wrap(rows.Err(), "postgres: list scans iterate")
}

func (s *PostgresStore) ListExpiring(ctx context.Context, within int, today model.Date) ([]ExpiringItem, error) {
	cutoff := today.AddDays(within)

	rows, err := s.pool.Query(ctx,
		`SELECT s.barcode, COALESCE(p.name, ''), s.production_date, s.expiry_date, s.scanned_at
		 FROM scans s LEFT JOIN products p ON p.barcode = s.barcode
		 WHERE s.expiry_date <= $1
		 ORDER BY s.expiry_date ASC, s.scanned_at DESC`,
		cutoff.Time(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list expiring")
	}
	defer rows.Close()

	var items []ExpiringItem
	for rows.Next() {
		var (
			item       ExpiringItem
			barcode    *string
			production *time.Time
			expiryTime time.Time
		)
		if err := rows.Scan(&barcode, &item.Name, &production, &expiryTime, &item.ScannedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan expiring item")
		}
		if barcode != nil {
			item.Barcode = *barcode
		}
		if production != nil {
			item.ProductionDate = model.DateOf(*production)
		}
		item.ExpiryDate = model.DateOf(expiryTime)
		item.DaysRemaining = expiry.DaysRemaining(item.ExpiryDate, today)
		items = append(items, item)
	}
	return items, eris.Wrap(rows.Err(), "postgres: list expiring iterate")
}

func (s *PostgresStore) RefreshDaysRemaining(ctx context.Context, today model.Date) (int, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, expiry_date, days_remaining FROM scans`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: refresh days remaining")
	}
	defer rows.Close()

	type update struct {
		id   string
		days int
	}
	var updates []update
	for rows.Next() {
		var (
			id         string
			expiryTime time.Time
			stored     int
		)
		if err := rows.Scan(&id, &expiryTime, &stored); err != nil {
			return 0, eris.Wrap(err, "postgres: scan refresh row")
		}
		if days := expiry.DaysRemaining(model.DateOf(expiryTime), today); days != stored {
			updates = append(updates, update{id: id, days: days})
		}
	}
	if err := rows.Err(); err != nil {
		return 0, eris.Wrap(err, "postgres: refresh iterate")
	}
	rows.Close()

	for _, u := range updates {
		if _, err := s.pool.Exec(ctx,
			`UPDATE scans SET days_remaining = $1 WHERE id = $2`,
			u.days, u.id,
		); err != nil {
			return 0, eris.Wrapf(err, "postgres: update days remaining %s", u.id)
		}
	}
	return len(updates), nil
}

func textOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func dateOrNil(d model.Date) *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time()
	return &t
}
