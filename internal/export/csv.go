// Package export serializes record collections for download. Rows come out
// in input order; the exporter never re-sorts.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/pipeline"
)

// WriteCSV serializes records as comma-delimited text: one unquoted header
// row taken from the first record's field order, then one row per record
// with every value individually quoted using JSON string escaping, so
// embedded commas, quotes and newlines stay inside their token. A missing
// value renders as an empty quoted string.
//
// An empty collection writes nothing at all, not a lone header row; callers
// use that to suppress the download action entirely.
func WriteCSV(w io.Writer, records []pipeline.Record) error {
	if len(records) == 0 {
		return nil
	}

	columns := records[0].FieldNames()
	if _, err := io.WriteString(w, strings.Join(columns, ",")+"\n"); err != nil {
		return err
	}

	cells := make([]string, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			value, _ := rec.Get(col)
			quoted, err := json.Marshal(pipeline.Text(value))
			if err != nil {
				return fmt.Errorf("quote column %q: %w", col, err)
			}
			cells[i] = string(quoted)
		}
		if _, err := io.WriteString(w, strings.Join(cells, ",")+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// CSV is WriteCSV into a string. An empty collection yields "".
func CSV(records []pipeline.Record) (string, error) {
	var b strings.Builder
	if err := WriteCSV(&b, records); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Filename names a download after its record type and export instant, e.g.
// "devices-20240501-090000.csv".
func Filename(rt pipeline.RecordType, now time.Time) string {
	return fmt.Sprintf("%s-%s.csv", rt, now.Format("20060102-150405"))
}
