package filter

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"regpulse/internal/schema"
)

// identifierColumns are the alias candidates for the registry's unique
// business identifier.
var identifierColumns = []string{"kvk", "kvknummer", "kvknumber", "kvk_nummer", "kvk-nummer"}

// IdentifierIndex resolves the identifier column of a header.
func IdentifierIndex(header schema.Header) (int, bool) {
	return header.Index(identifierColumns...)
}

// DuplicateIndex builds and caches sets of external identifiers to suppress
// from the stream. An index is cached per folder, keyed by a signature over
// every file's name, size and modification time, so it rebuilds silently
// whenever the folder's contents change without explicit invalidation.
type DuplicateIndex struct {
	delimiter rune
	logger    *slog.Logger

	mu    sync.Mutex
	cache map[string]cachedIdentifiers
}

type cachedIdentifiers struct {
	signature string
	ids       map[string]struct{}
}

// NewDuplicateIndex creates an index reading exclusion tables with the
// given delimiter.
func NewDuplicateIndex(delimiter rune, logger *slog.Logger) *DuplicateIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &DuplicateIndex{
		delimiter: delimiter,
		logger:    logger.With(slog.String("component", "duplicate_index")),
		cache:     make(map[string]cachedIdentifiers),
	}
}

// Load returns the union of identifier values across every table file in
// folder. Files without a resolvable identifier column are skipped and
// logged, never fatal; an unreadable folder is.
func (d *DuplicateIndex) Load(folder string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("read exclusion folder: %w", err)
	}

	var files []os.FileInfo
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, info)
		names = append(names, e.Name())
	}
	sort.Strings(names)

	signature := folderSignature(files)

	d.mu.Lock()
	cached, hit := d.cache[folder]
	d.mu.Unlock()
	if hit && cached.signature == signature {
		return cached.ids, nil
	}

	ids := make(map[string]struct{})
	for _, name := range names {
		if err := d.collectFile(filepath.Join(folder, name), ids); err != nil {
			d.logger.Warn("skipping exclusion file",
				slog.String("file", name),
				slog.String("error", err.Error()))
		}
	}

	d.mu.Lock()
	d.cache[folder] = cachedIdentifiers{signature: signature, ids: ids}
	d.mu.Unlock()

	d.logger.Info("duplicate index rebuilt",
		slog.String("folder", folder),
		slog.Int("files", len(names)),
		slog.Int("identifiers", len(ids)))
	return ids, nil
}

func (d *DuplicateIndex) collectFile(path string, ids map[string]struct{}) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReader(file))
	reader.Comma = d.delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headerRow, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(headerRow) > 0 {
		headerRow[0] = strings.TrimPrefix(headerRow[0], "\uFEFF")
	}
	idx, ok := IdentifierIndex(schema.NewHeader(headerRow))
	if !ok {
		return fmt.Errorf("no identifier column")
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			continue
		}
		if id := schema.Row(record).Cell(idx); id != "" {
			ids[id] = struct{}{}
		}
	}
}

func folderSignature(files []os.FileInfo) string {
	parts := make([]string, 0, len(files))
	for _, f := range files {
		parts = append(parts, fmt.Sprintf("%s|%d|%d", f.Name(), f.Size(), f.ModTime().UnixNano()))
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// DuplicateFilter suppresses rows whose identifier appears in an external
// exclusion set, and rows whose identifier repeats within the stream
// itself. The first in-stream occurrence wins, which makes this the one
// filter whose output depends on upstream row order.
type DuplicateFilter struct {
	external map[string]struct{}
	logger   *slog.Logger
}

// NewDuplicateFilter creates a duplicate filter over an external identifier
// set (may be nil for in-stream deduplication only).
func NewDuplicateFilter(external map[string]struct{}, logger *slog.Logger) *DuplicateFilter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DuplicateFilter{external: external, logger: logger}
}

// Apply transforms the stream. When the live header has no resolvable
// identifier column the stream passes through unchanged: there is nothing
// to deduplicate on.
func (f *DuplicateFilter) Apply(rows Stream, header schema.Header) Stream {
	idx, ok := IdentifierIndex(header)
	if !ok {
		f.logger.Warn("identifier column missing, duplicate exclusion skipped")
		return rows
	}

	return func(yield func(schema.Row) bool) {
		seen := make(map[string]struct{})
		for row := range rows {
			id := row.Cell(idx)
			if id != "" {
				if _, excluded := f.external[id]; excluded {
					continue
				}
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
			}
			if !yield(row) {
				return
			}
		}
	}
}
