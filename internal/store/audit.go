package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pbaille/pantry/internal/domain"
)

// CSVExport appends one row per new account to a flat file. It is a
// secondary copy; the database stays the source of truth.
type CSVExport struct {
	path string
}

// NewCSVExport creates an exporter writing to path
func NewCSVExport(path string) *CSVExport {
	return &CSVExport{path: path}
}

// ExportAccount appends username, password hash and restrictions
func (e *CSVExport) ExportAccount(a *domain.Account) error {
	if err := os.MkdirAll(filepath.Dir(e.path), 0755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	f, err := os.OpenFile(e.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{a.Username, a.PasswordHash, a.Restrictions.String()}); err != nil {
		return fmt.Errorf("write export row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}
	return nil
}
