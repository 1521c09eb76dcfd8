// Package csvio reads and writes the pipeline's flat tables. Tables travel as
// ordered []map[string]string rows keyed by header name; writers emit exactly
// the requested column set so downstream diffs stay stable.
package csvio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/courtdata/assetlineage/internal/domain"
)

// ReadTable reads a UTF-8 CSV file with a header row into one map per record.
// Values are whitespace-trimmed. A missing file is an error (the wrapped
// fs.ErrNotExist is inspectable); an absent table must never silently read as
// an empty one.
func ReadTable(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvio: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csvio: read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, name := range header {
			value := ""
			if i < len(record) {
				value = strings.TrimSpace(record[i])
			}
			row[name] = value
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteTable writes rows to a CSV file with the given column set. Columns
// absent from a row are written as empty strings; extra row keys are ignored.
// Parent directories are created as needed.
func WriteTable(path string, rows []map[string]string, columns []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("csvio: mkdir for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csvio: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("csvio: write header %s: %w", path, err)
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, name := range columns {
			record[i] = row[name]
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("csvio: write row %s: %w", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csvio: flush %s: %w", path, err)
	}
	return nil
}

// RequireColumns verifies that every required column is present on the first
// row of a non-empty table. Empty tables pass: there is nothing to validate.
func RequireColumns(rows []map[string]string, required []string, tableName string) error {
	if len(rows) == 0 {
		return nil
	}
	var missing []string
	for _, name := range required {
		if _, ok := rows[0][name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("csvio: %s: %w: %s", tableName, domain.ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

// WriteJSON writes payload as indented JSON with sorted keys, creating parent
// directories as needed.
func WriteJSON(path string, payload any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("csvio: mkdir for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("csvio: marshal %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("csvio: write %s: %w", path, err)
	}
	return nil
}
