package codelists

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/xuri/excelize/v2"

	"regpulse/internal/config"
)

// Bucket identifies which source column a code list applies to.
type Bucket string

const (
	BucketMain Bucket = "main"
	BucketSub  Bucket = "sub"
	BucketAll  Bucket = "all"
)

// Buckets lists every valid bucket in display order.
var Buckets = []Bucket{BucketMain, BucketSub, BucketAll}

// Valid reports whether b names a known bucket.
func (b Bucket) Valid() bool {
	switch b {
	case BucketMain, BucketSub, BucketAll:
		return true
	}
	return false
}

var stemSanitizer = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type cacheKey struct {
	bucket Bucket
	stem   string
}

// Store persists uploaded industry-code lists, one folder per bucket, one
// code per line. Loaded lists are cached by (bucket, stem) and the cache
// entry is dropped when a new upload replaces the list.
type Store struct {
	dir    string
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[cacheKey]map[string]struct{}
}

// NewStore creates a code-list store rooted at the configured directory.
func NewStore(cfg config.DataConfig, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:    cfg.CodeListDir,
		logger: logger.With(slog.String("component", "codelists")),
		cache:  make(map[cacheKey]map[string]struct{}),
	}
}

// List returns the stored list names per bucket.
func (s *Store) List() map[string][]string {
	out := make(map[string][]string, len(Buckets))
	for _, bucket := range Buckets {
		var names []string
		entries, err := os.ReadDir(s.bucketDir(bucket))
		if err == nil {
			for _, e := range entries {
				if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
					names = append(names, strings.TrimSuffix(e.Name(), ".txt"))
				}
			}
		}
		sort.Strings(names)
		out[string(bucket)] = names
	}
	return out
}

// Save parses an uploaded list (CSV, semicolon/tab separated text, or xlsx),
// de-duplicates its codes and stores them under the sanitized file stem.
// Returns the stem the list is referenced by.
func (s *Store) Save(bucket Bucket, originalName string, content []byte) (string, error) {
	if !bucket.Valid() {
		return "", fmt.Errorf("unknown bucket: %q", bucket)
	}

	var codes []string
	var err error
	if isSpreadsheet(originalName, content) {
		codes, err = codesFromSpreadsheet(content)
	} else {
		codes = codesFromText(content)
	}
	if err != nil {
		return "", err
	}
	if len(codes) == 0 {
		return "", fmt.Errorf("no codes found in uploaded file")
	}

	stem := stemSanitizer.ReplaceAllString(strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName)), "_")
	stem = strings.Trim(stem, "._")
	if stem == "" {
		stem = "code_list"
	}

	dir := s.bucketDir(bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create bucket dir: %w", err)
	}
	path := filepath.Join(dir, stem+".txt")
	if err := os.WriteFile(path, []byte(strings.Join(codes, "\n")+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("store code list: %w", err)
	}

	s.mu.Lock()
	delete(s.cache, cacheKey{bucket: bucket, stem: stem})
	s.mu.Unlock()

	s.logger.Info("code list stored",
		slog.String("bucket", string(bucket)),
		slog.String("stem", stem),
		slog.Int("codes", len(codes)))
	return stem, nil
}

// Codes returns the code set of a stored list. Missing lists resolve to an
// empty set, matching the filter's union semantics.
func (s *Store) Codes(bucket Bucket, stem string) map[string]struct{} {
	key := cacheKey{bucket: bucket, stem: stem}

	s.mu.RLock()
	if cached, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return cached
	}
	s.mu.RUnlock()

	codes := make(map[string]struct{})
	path := filepath.Join(s.bucketDir(bucket), stem+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("code list unreadable",
				slog.String("bucket", string(bucket)),
				slog.String("stem", stem),
				slog.String("error", err.Error()))
		}
		return codes
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if code := strings.TrimSpace(scanner.Text()); code != "" {
			codes[code] = struct{}{}
		}
	}

	s.mu.Lock()
	s.cache[key] = codes
	s.mu.Unlock()
	return codes
}

func (s *Store) bucketDir(bucket Bucket) string {
	return filepath.Join(s.dir, string(bucket))
}

func isSpreadsheet(name string, content []byte) bool {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return true
	}
	return len(content) >= 2 && content[0] == 'P' && content[1] == 'K'
}

func codesFromSpreadsheet(content []byte) ([]string, error) {
	book, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	var cells []string
	for _, row := range rows {
		if len(row) > 0 {
			cells = append(cells, row[0])
		}
	}
	return dedupeCodes(cells), nil
}

func codesFromText(content []byte) []string {
	text := strings.Trim(string(content), "\uFEFF\n\r \t")
	if text == "" {
		return nil
	}
	delimiter := sniffDelimiter(text)

	var cells []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		cells = append(cells, strings.Split(line, delimiter)[0])
	}
	return dedupeCodes(cells)
}

// sniffDelimiter picks the candidate delimiter occurring most often in the
// first line; comma wins ties.
func sniffDelimiter(text string) string {
	firstLine := text
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		firstLine = text[:idx]
	}
	best, bestCount := ",", strings.Count(firstLine, ",")
	for _, cand := range []string{";", "\t"} {
		if count := strings.Count(firstLine, cand); count > bestCount {
			best, bestCount = cand, count
		}
	}
	return best
}

// dedupeCodes normalizes cells to codes, skipping a leading header row when
// it contains letters, preserving first-seen order.
func dedupeCodes(cells []string) []string {
	seen := make(map[string]struct{})
	var codes []string
	for _, cell := range cells {
		code := strings.TrimSpace(cell)
		if code == "" {
			continue
		}
		if len(codes) == 0 && containsLetter(code) {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes
}

func containsLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
