// Package scanner walks a directory tree and finds statement text files.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledgerhound/stmtledger/internal/lex"
)

// Scanner walks a directory tree and finds statement files.
type Scanner struct {
	rootDir string
}

// New creates a scanner rooted at rootDir.
func New(rootDir string) *Scanner {
	return &Scanner{rootDir: rootDir}
}

// ScanResult is one found statement file with path-derived metadata.
type ScanResult struct {
	Path string

	// Year is the statement year hinted by the filename, falling back to
	// the current year. See lex.ResolveYear.
	Year int

	// Account is the parent directory name, useful when one root holds
	// statements for several accounts.
	Account string
}

// Scan walks the tree and returns statement files sorted by path, so runs
// over the same tree process files in a stable order.
func (s *Scanner) Scan() ([]ScanResult, error) {
	rootDir := s.expandHome(s.rootDir)

	var results []ScanResult
	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !s.isStatementFile(path) {
			return nil
		}

		results = append(results, ScanResult{
			Path:    path,
			Year:    lex.ResolveYear(filepath.Base(path), 0),
			Account: s.accountFor(path, rootDir),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, nil
}

// isStatementFile checks the extension. Statements arrive as extracted
// plain text.
func (s *Scanner) isStatementFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".txt" || ext == ".text"
}

// accountFor derives the account label from the directory containing the
// file. Files directly under the root carry no account.
func (s *Scanner) accountFor(filePath, rootDir string) string {
	relPath, err := filepath.Rel(rootDir, filePath)
	if err != nil {
		return ""
	}
	dir := filepath.Dir(filepath.ToSlash(relPath))
	if dir == "." {
		return ""
	}
	parts := strings.Split(dir, "/")
	return parts[len(parts)-1]
}

// expandHome expands ~ to the home directory.
func (s *Scanner) expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
