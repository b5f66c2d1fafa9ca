package exporter

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"iter"

	"regpulse/internal/schema"
)

// StreamCSV encodes the stream to w under the same file contract as the
// chunk writer: byte-order marker, header row, CRLF line endings, minimal
// quoting. Returns the number of data rows written. A write error usually
// means the client went away; the stream simply stops being consumed.
func StreamCSV(w io.Writer, header schema.Header, rows iter.Seq[schema.Row]) (int, error) {
	buf := bufio.NewWriter(w)
	if _, err := buf.Write(utf8BOM); err != nil {
		return 0, fmt.Errorf("write byte-order marker: %w", err)
	}

	enc := csv.NewWriter(buf)
	enc.UseCRLF = true
	if err := enc.Write(header.Columns()); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	count := 0
	for row := range rows {
		if err := enc.Write(row); err != nil {
			return count, fmt.Errorf("write row: %w", err)
		}
		count++
	}
	enc.Flush()
	if err := enc.Error(); err != nil {
		return count, err
	}
	return count, buf.Flush()
}
