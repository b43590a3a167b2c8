package sheet

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/valyala/bytebufferpool"
)

// WriteCSV renders a table as CSV to w through a pooled buffer.
func WriteCSV(w io.Writer, rows [][]string) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	cw := csv.NewWriter(buf)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	if _, err := w.Write(buf.B); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
