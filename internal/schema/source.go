package schema

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"

	"regpulse/internal/config"
)

// Source streams rows from the registry table. Every call to Stream opens an
// independent read handle, so concurrent requests never interfere.
type Source struct {
	path      string
	delimiter rune
	logger    *slog.Logger
}

// NewSource creates a source over the configured registry table.
func NewSource(cfg config.SourceConfig, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		path:      cfg.Path,
		delimiter: cfg.DelimiterRune(),
		logger:    logger.With(slog.String("component", "source")),
	}
}

// Path returns the source file path.
func (s *Source) Path() string {
	return s.path
}

// Stream opens the source and returns its header plus a lazy, forward-only
// row sequence. The underlying handle is closed when the sequence is
// exhausted or abandoned. Individual malformed rows are skipped, never fatal.
func (s *Source) Stream(ctx context.Context) (Header, iter.Seq[Row], error) {
	file, err := os.Open(s.path)
	if err != nil {
		return Header{}, nil, fmt.Errorf("open source table: %w", err)
	}

	reader := csv.NewReader(bufio.NewReaderSize(file, 1<<16))
	reader.Comma = s.delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headerRow, err := reader.Read()
	if err != nil {
		file.Close()
		if err == io.EOF {
			return Header{}, nil, fmt.Errorf("source table is empty: %s", s.path)
		}
		return Header{}, nil, fmt.Errorf("read source header: %w", err)
	}
	stripBOM(headerRow)
	header := NewHeader(headerRow)

	rows := func(yield func(Row) bool) {
		defer file.Close()
		n := 0
		for {
			if n&1023 == 0 && ctx.Err() != nil {
				return
			}
			n++
			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				var parseErr *csv.ParseError
				if errors.As(err, &parseErr) {
					s.logger.Warn("skipping malformed row",
						slog.Int("line", parseErr.Line),
						slog.String("error", parseErr.Err.Error()))
					continue
				}
				s.logger.Error("source read failed", slog.String("error", err.Error()))
				return
			}
			if !yield(Row(record)) {
				return
			}
		}
	}

	return header, rows, nil
}

// stripBOM removes a UTF-8 byte-order marker from the first header cell.
func stripBOM(record []string) {
	if len(record) > 0 {
		record[0] = trimBOM(record[0])
	}
}

func trimBOM(s string) string {
	const bom = "\uFEFF"
	if len(s) >= len(bom) && s[:len(bom)] == bom {
		return s[len(bom):]
	}
	return s
}
