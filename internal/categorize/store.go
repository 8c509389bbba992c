// Package categorize assigns spending categories to reconciled records from
// a persistent merchant-to-category map, with an optional advisory suggester
// for merchants the map has never seen.
package categorize

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledgerhound/stmtledger/internal/domain"
)

// Store persists the merchant-to-category map between runs. Keys are
// normalized merchant names, always lowercase.
type Store interface {
	// Load reads the full map. A missing backing file is not an error;
	// it yields an empty map so a first run starts clean.
	Load() (map[string]domain.Category, error)

	// Save writes the full map, replacing whatever was persisted before.
	Save(mapping map[string]domain.Category) error
}

// CSVStore keeps the mapping in a two-column CSV file with a
// "Merchant,Category" header. Rows are written sorted by merchant so that a
// load-then-save round trip reproduces the file byte for byte.
type CSVStore struct {
	path string
}

// NewCSVStore creates a store backed by the CSV file at path.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

func (s *CSVStore) Load() (map[string]domain.Category, error) {
	mapping := make(map[string]domain.Category)

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return mapping, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse mapping file %q: %w", s.path, err)
	}

	for i, row := range rows {
		if i == 0 && strings.EqualFold(row[0], "Merchant") {
			continue
		}
		merchant := strings.ToLower(strings.TrimSpace(row[0]))
		category := strings.TrimSpace(row[1])
		if merchant == "" || category == "" {
			return nil, fmt.Errorf("mapping file %q row %d: empty merchant or category", s.path, i+1)
		}
		cat := domain.Category(category)
		if err := domain.RegisterCategory(cat); err != nil {
			return nil, fmt.Errorf("mapping file %q row %d: %w", s.path, i+1, err)
		}
		mapping[merchant] = cat
	}

	return mapping, nil
}

// Save atomically rewrites the mapping file: write to a temp file in the
// same directory, then rename over the original.
func (s *CSVStore) Save(mapping map[string]domain.Category) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create mapping directory: %w", err)
	}

	merchants := make([]string, 0, len(mapping))
	for m := range mapping {
		merchants = append(merchants, m)
	}
	sort.Strings(merchants)

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create temp mapping file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write([]string{"Merchant", "Category"}); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write mapping header: %w", err)
	}
	for _, m := range merchants {
		if err := writer.Write([]string{m, string(mapping[m])}); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("failed to write mapping row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to flush mapping file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close temp mapping file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace mapping file: %w", err)
	}
	return nil
}
