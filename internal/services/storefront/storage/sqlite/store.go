// Package sqlite provides a SQLite-backed storefront catalog store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/storefront/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/storefront/internal/services/storefront/product"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
	"github.com/louisbranch/storefront/internal/services/storefront/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists catalog products and sections in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite catalog store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return s.sqlDB.PingContext(ctx)
}

// PutProduct inserts or replaces one product keyed by handle.
func (s *Store) PutProduct(ctx context.Context, record storage.ProductRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	p := record.Product
	handle := strings.TrimSpace(p.Handle)
	title := strings.TrimSpace(p.Title)
	if handle == "" {
		return fmt.Errorf("product handle is required")
	}
	if title == "" {
		return fmt.Errorf("product title is required")
	}
	variants := p.Variants
	if variants == nil {
		variants = []product.Variant{}
	}
	variantsJSON, err := json.Marshal(variants)
	if err != nil {
		return fmt.Errorf("encode variants: %w", err)
	}
	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO products (
		   handle, product_id, title, vendor, description_html, variants_json, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(handle) DO UPDATE SET
		   product_id = excluded.product_id,
		   title = excluded.title,
		   vendor = excluded.vendor,
		   description_html = excluded.description_html,
		   variants_json = excluded.variants_json,
		   updated_at = excluded.updated_at`,
		handle,
		strings.TrimSpace(p.ID),
		title,
		strings.TrimSpace(p.Vendor),
		p.DescriptionHTML,
		string(variantsJSON),
		toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("put product: %w", err)
	}
	return nil
}

// GetProduct returns one product by handle.
func (s *Store) GetProduct(ctx context.Context, handle string) (storage.ProductRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.ProductRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ProductRecord{}, fmt.Errorf("storage is not configured")
	}
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return storage.ProductRecord{}, fmt.Errorf("product handle is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT handle, product_id, title, vendor, description_html, variants_json, updated_at
		   FROM products
		  WHERE handle = ?`,
		handle,
	)

	var record storage.ProductRecord
	var variantsJSON string
	var updatedAt int64
	err := row.Scan(
		&record.Product.Handle,
		&record.Product.ID,
		&record.Product.Title,
		&record.Product.Vendor,
		&record.Product.DescriptionHTML,
		&variantsJSON,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ProductRecord{}, storage.ErrNotFound
		}
		return storage.ProductRecord{}, fmt.Errorf("get product: %w", err)
	}
	if err := json.Unmarshal([]byte(variantsJSON), &record.Product.Variants); err != nil {
		return storage.ProductRecord{}, fmt.Errorf("decode variants for %s: %w", handle, err)
	}
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

// PutSection inserts or replaces one section keyed by id. Two sections of
// the same product cannot share a position.
func (s *Store) PutSection(ctx context.Context, record storage.SectionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id := strings.TrimSpace(record.ID)
	kind := strings.TrimSpace(record.Kind)
	if id == "" {
		return fmt.Errorf("section id is required")
	}
	if kind == "" {
		return fmt.Errorf("section kind is required")
	}
	richtext := strings.TrimSpace(string(record.Richtext))
	if richtext == "" {
		richtext = "null"
	}
	if !json.Valid([]byte(richtext)) {
		return fmt.Errorf("section %s richtext is not valid json", id)
	}
	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO sections (
		   section_id, kind, product_handle, position, richtext_json, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(section_id) DO UPDATE SET
		   kind = excluded.kind,
		   product_handle = excluded.product_handle,
		   position = excluded.position,
		   richtext_json = excluded.richtext_json,
		   updated_at = excluded.updated_at`,
		id,
		kind,
		strings.TrimSpace(record.ProductHandle),
		record.Position,
		richtext,
		toMillis(updatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put section: %w", err)
	}
	return nil
}

// GetSection returns one section by id.
func (s *Store) GetSection(ctx context.Context, id string) (storage.SectionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SectionRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SectionRecord{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.SectionRecord{}, fmt.Errorf("section id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT section_id, kind, product_handle, position, richtext_json, updated_at
		   FROM sections
		  WHERE section_id = ?`,
		id,
	)
	record, err := scanSection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SectionRecord{}, storage.ErrNotFound
		}
		return storage.SectionRecord{}, fmt.Errorf("get section: %w", err)
	}
	return record, nil
}

// ListProductSections returns the sections of one product ordered by position.
func (s *Store) ListProductSections(ctx context.Context, handle string) ([]storage.SectionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, fmt.Errorf("product handle is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT section_id, kind, product_handle, position, richtext_json, updated_at
		   FROM sections
		  WHERE product_handle = ?
		  ORDER BY position ASC, section_id ASC`,
		handle,
	)
	if err != nil {
		return nil, fmt.Errorf("list product sections: %w", err)
	}
	defer rows.Close()

	var records []storage.SectionRecord
	for rows.Next() {
		record, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("list product sections: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list product sections: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSection(row rowScanner) (storage.SectionRecord, error) {
	var record storage.SectionRecord
	var richtext string
	var updatedAt int64
	if err := row.Scan(
		&record.ID,
		&record.Kind,
		&record.ProductHandle,
		&record.Position,
		&richtext,
		&updatedAt,
	); err != nil {
		return storage.SectionRecord{}, err
	}
	record.Richtext = json.RawMessage(richtext)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.Store = (*Store)(nil)
