package categorize

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/ledgerhound/stmtledger/internal/domain"
)

// SQLiteStore keeps the mapping in a single-table SQLite database. It suits
// setups where several statement directories share one mapping and the CSV
// file would be edited concurrently.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and
// ensures the mapping table exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping database: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS merchant_categories (
			merchant TEXT PRIMARY KEY,
			category TEXT NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize mapping schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Load() (map[string]domain.Category, error) {
	rows, err := s.db.Query(`SELECT merchant, category FROM merchant_categories`)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping rows: %w", err)
	}
	defer rows.Close()

	mapping := make(map[string]domain.Category)
	for rows.Next() {
		var merchant, category string
		if err := rows.Scan(&merchant, &category); err != nil {
			return nil, fmt.Errorf("failed to scan mapping row: %w", err)
		}
		cat := domain.Category(category)
		if err := domain.RegisterCategory(cat); err != nil {
			return nil, fmt.Errorf("invalid mapping row for %q: %w", merchant, err)
		}
		mapping[strings.ToLower(merchant)] = cat
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mapping rows: %w", err)
	}
	return mapping, nil
}

func (s *SQLiteStore) Save(mapping map[string]domain.Category) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin mapping transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM merchant_categories`); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear mapping table: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO merchant_categories (merchant, category) VALUES (?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare mapping insert: %w", err)
	}
	defer stmt.Close()

	for merchant, category := range mapping {
		if _, err := stmt.Exec(merchant, string(category)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert mapping for %q: %w", merchant, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit mapping: %w", err)
	}
	return nil
}
