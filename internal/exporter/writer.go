package exporter

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"

	"regpulse/internal/schema"
)

// utf8BOM leads every output file so spreadsheet tools pick up the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CapacityError reports a stream with more rows than the destinations'
// quotas can absorb and no REST destination to take the overflow. Files
// flushed before the overflow stay on disk; there is no rollback.
type CapacityError struct {
	RowsWritten int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("destinations exhausted after %d rows and no rest destination", e.RowsWritten)
}

// FileResult is one written chunk file.
type FileResult struct {
	Path string `json:"path"`
	Rows int    `json:"rows"`
}

// DestinationResult is the per-destination outcome of a save.
type DestinationResult struct {
	BaseName string       `json:"base_name"`
	Rows     int          `json:"rows"`
	Files    []FileResult `json:"files"`
}

// SaveResult is the outcome of routing a full stream to disk.
type SaveResult struct {
	TotalRows    int                 `json:"total_rows"`
	Destinations []DestinationResult `json:"destinations"`
}

// Router partitions one row stream across an ordered destination list.
// Each row goes to the first fixed destination with quota remaining, then
// to the REST destination; a row no destination can take aborts the save
// with a CapacityError.
type Router struct {
	destinations []Destination
	logger       *slog.Logger
}

// NewRouter validates the destination list and builds a router.
func NewRouter(destinations []Destination, logger *slog.Logger) (*Router, error) {
	if err := ValidateDestinations(destinations); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		destinations: destinations,
		logger:       logger.With(slog.String("component", "exporter")),
	}, nil
}

// Save consumes the stream and writes chunk files. Every destination
// produces at least one file, header-only when it received no rows. On a
// capacity overflow the remaining stream is abandoned and files written so
// far stay in place.
func (r *Router) Save(header schema.Header, rows iter.Seq[schema.Row]) (*SaveResult, error) {
	writers := make([]*chunkWriter, len(r.destinations))
	remaining := make([]int, len(r.destinations))
	restIdx := -1
	for i, d := range r.destinations {
		writers[i] = newChunkWriter(d, header.Columns())
		if d.Rest {
			restIdx = i
			continue
		}
		remaining[i] = d.RowsRequested
	}
	defer func() {
		for _, w := range writers {
			w.close()
		}
	}()

	total := 0
	for row := range rows {
		target := -1
		for i := range r.destinations {
			if !r.destinations[i].Rest && remaining[i] > 0 {
				target = i
				break
			}
		}
		if target == -1 {
			target = restIdx
		}
		if target == -1 {
			for _, w := range writers {
				if err := w.close(); err != nil {
					r.logger.Error("closing chunk after overflow", slog.String("error", err.Error()))
				}
			}
			return nil, &CapacityError{RowsWritten: total}
		}

		if err := writers[target].writeRow(row); err != nil {
			return nil, err
		}
		if !r.destinations[target].Rest {
			remaining[target]--
		}
		total++
	}

	result := &SaveResult{TotalRows: total}
	for _, w := range writers {
		if err := w.finalize(); err != nil {
			return nil, err
		}
		result.Destinations = append(result.Destinations, w.result)
	}

	r.logger.Info("save complete",
		slog.Int("rows", total),
		slog.Int("destinations", len(r.destinations)))
	return result, nil
}

// chunkWriter writes one destination's chunk files, holding at most one
// open file at a time.
type chunkWriter struct {
	dest    Destination
	base    string
	header  []string
	result  DestinationResult

	file        *os.File
	buf         *bufio.Writer
	csv         *csv.Writer
	rowsInChunk int
	fileIndex   int
	currentPath string
}

func newChunkWriter(dest Destination, header []string) *chunkWriter {
	base := SanitizeBaseName(dest.BaseName)
	return &chunkWriter{
		dest:   dest,
		base:   base,
		header: header,
		result: DestinationResult{BaseName: base},
	}
}

func (w *chunkWriter) writeRow(row schema.Row) error {
	if w.file == nil || w.rowsInChunk >= w.dest.MaxRowsPerFile {
		if err := w.roll(); err != nil {
			return err
		}
	}
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("write row to %s: %w", w.currentPath, err)
	}
	w.rowsInChunk++
	w.result.Rows++
	w.result.Files[len(w.result.Files)-1].Rows++
	return nil
}

// roll closes the current chunk, if any, and opens the next one with the
// byte-order marker and header row already written.
func (w *chunkWriter) roll() error {
	if err := w.close(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dest.Dir, 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	w.fileIndex++
	w.currentPath = filepath.Join(w.dest.Dir, fmt.Sprintf("%s%d.csv", w.base, w.fileIndex))
	file, err := os.Create(w.currentPath)
	if err != nil {
		return fmt.Errorf("create chunk file: %w", err)
	}
	w.file = file
	w.buf = bufio.NewWriter(file)
	if _, err := w.buf.Write(utf8BOM); err != nil {
		return fmt.Errorf("write byte-order marker: %w", err)
	}
	w.csv = csv.NewWriter(w.buf)
	w.csv.UseCRLF = true
	if err := w.csv.Write(w.header); err != nil {
		return fmt.Errorf("write header to %s: %w", w.currentPath, err)
	}
	w.rowsInChunk = 0
	w.result.Files = append(w.result.Files, FileResult{Path: w.currentPath})
	return nil
}

// finalize guarantees the destination produced at least one file, then
// closes it.
func (w *chunkWriter) finalize() error {
	if w.fileIndex == 0 {
		if err := w.roll(); err != nil {
			return err
		}
	}
	return w.close()
}

func (w *chunkWriter) close() error {
	if w.file == nil {
		return nil
	}
	w.csv.Flush()
	flushErr := w.csv.Error()
	if err := w.buf.Flush(); flushErr == nil {
		flushErr = err
	}
	if err := w.file.Close(); flushErr == nil {
		flushErr = err
	}
	w.file = nil
	w.buf = nil
	w.csv = nil
	if flushErr != nil {
		return fmt.Errorf("close chunk %s: %w", w.currentPath, flushErr)
	}
	return nil
}
