package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/monoko6666/mercari-ebay/logger"
)

const productColumns = `id, mercari_url, title_jp, title_en, description_jp, description_en,
	price_jpy, price_usd, condition_mercari, condition_ebay_id, category_id, images,
	stock_status, profit_rate, shipping_cost, exchange_rate`

// schema creates the tables when absent. Images are stored as a text array so
// URLs containing commas round-trip unchanged.
const schema = `
CREATE TABLE IF NOT EXISTS products (
	id                TEXT PRIMARY KEY,
	mercari_url       TEXT NOT NULL,
	title_jp          TEXT NOT NULL DEFAULT '',
	title_en          TEXT NOT NULL DEFAULT '',
	description_jp    TEXT NOT NULL DEFAULT '',
	description_en    TEXT NOT NULL DEFAULT '',
	price_jpy         INTEGER NOT NULL DEFAULT 0,
	price_usd         DOUBLE PRECISION NOT NULL DEFAULT 0,
	condition_mercari TEXT NOT NULL DEFAULT '',
	condition_ebay_id INTEGER NOT NULL DEFAULT 0,
	category_id       TEXT NOT NULL DEFAULT '',
	images            TEXT[] NOT NULL DEFAULT '{}',
	stock_status      TEXT NOT NULL DEFAULT 'available',
	profit_rate       DOUBLE PRECISION NOT NULL DEFAULT 0,
	shipping_cost     INTEGER NOT NULL DEFAULT 0,
	exchange_rate     DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value DOUBLE PRECISION NOT NULL
);
`

// PostgresStore implements ProductStore and SettingsStore on PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects to dsn and verifies the connection
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresStore(db), nil
}

// EnsureSchema creates the products and settings tables if they do not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	logger.ForStore("postgres").Info().Msg("Schema ready")
	return nil
}

// Close closes the database handle
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Create(ctx context.Context, p *Product) error {
	query := `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	images := p.Images
	if images == nil {
		images = []string{}
	}
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.SourceURL, p.TitleSource, p.TitleTranslated, p.DescriptionSource, p.DescriptionTranslated,
		p.PriceSource, p.PriceTarget, p.ConditionSource, p.ConditionTargetID, p.CategoryID, pq.Array(images),
		p.StockStatus, p.ProfitRate, p.ShippingCost, p.ExchangeRate,
	)
	if err != nil {
		return fmt.Errorf("insert product %s: %w", p.ID, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select product %s: %w", id, err)
	}
	return p, nil
}

// List returns products oldest first
func (s *PostgresStore) List(ctx context.Context) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, id string, update ProductUpdate) (*Product, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE products SET title_en = $2, price_usd = $3 WHERE id = $1 RETURNING `+productColumns,
		id, update.TitleTranslated, update.PriceTarget,
	)
	p, err := scanProduct(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}
	return p, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) All(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("select settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]float64)
	for rows.Next() {
		var key string
		var value float64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return WithDefaults(values), nil
}

// Upsert writes all values in one transaction
func (s *PostgresStore) Upsert(ctx context.Context, values map[string]float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`)
	if err != nil {
		return fmt.Errorf("prepare settings upsert: %w", err)
	}
	defer stmt.Close()

	for key, value := range values {
		if _, err := stmt.ExecContext(ctx, key, value); err != nil {
			return fmt.Errorf("upsert setting %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings upsert: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var p Product
	var images pq.StringArray
	err := row.Scan(
		&p.ID, &p.SourceURL, &p.TitleSource, &p.TitleTranslated, &p.DescriptionSource, &p.DescriptionTranslated,
		&p.PriceSource, &p.PriceTarget, &p.ConditionSource, &p.ConditionTargetID, &p.CategoryID, &images,
		&p.StockStatus, &p.ProfitRate, &p.ShippingCost, &p.ExchangeRate,
	)
	if err != nil {
		return nil, err
	}
	p.Images = []string(images)
	if p.Images == nil {
		p.Images = []string{}
	}
	return &p, nil
}
