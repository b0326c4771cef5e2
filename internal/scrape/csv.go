package scrape

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
)

// utf8BOM makes spreadsheet programs detect the encoding of the Chinese
// headers.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV saves the table for manual review: header first, then every
// extracted row as-is.
func WriteCSV(path string, t Table) error {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if len(t.Header) > 0 {
		if err := w.Write(t.Header); err != nil {
			return err
		}
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("scrape: write csv: %w", err)
	}
	return nil
}
