package filter

import (
	"context"
	"fmt"
	"strings"

	"regpulse/internal/codelists"
	"regpulse/internal/schema"
)

var (
	mainCodeColumns = []string{"mainsbi", "main_sbi", "hoofd_sbi", "hoofdactiviteit"}
	subCodeColumns  = []string{"subsbi", "sub_sbi", "nevenactiviteiten", "nevensbi"}
	allCodeColumns  = []string{"allsbi", "all_sbi", "alle_sbi", "sbi_codes"}
)

// CodeBucketSelection is one bucket's constraint: manually entered codes
// plus an optional reference to an uploaded code list.
type CodeBucketSelection struct {
	Codes []string
	File  string
}

// CodeSelection carries the three independent code buckets.
type CodeSelection struct {
	Main CodeBucketSelection
	Sub  CodeBucketSelection
	All  CodeBucketSelection
}

func (s CodeSelection) Active() bool {
	return anyBucketActive(s)
}

func anyBucketActive(s CodeSelection) bool {
	return len(s.Main.Codes) > 0 || s.Main.File != "" ||
		len(s.Sub.Codes) > 0 || s.Sub.File != "" ||
		len(s.All.Codes) > 0 || s.All.File != ""
}

// CodeFilter matches classification codes against three independent
// columns, one per bucket. A bucket's active code set is the union of its
// manual codes and the codes loaded from its referenced list; a cell may
// carry several codes and matches on non-empty intersection.
//
// Policy: a bucket whose active set resolves to empty (for example a
// referenced list that no longer exists) constrains nothing; a bucket with
// codes but no resolvable column keeps its column index unset and therefore
// constrains nothing either. Both cases are lenient, never empty-result.
type CodeFilter struct {
	lists *codelists.Store
}

// NewCodeFilter filters on industry classification codes.
func NewCodeFilter(lists *codelists.Store) *CodeFilter {
	return &CodeFilter{lists: lists}
}

func (f *CodeFilter) Name() string  { return "sbi" }
func (f *CodeFilter) Label() string { return "SBI" }
func (f *CodeFilter) Kind() Kind    { return KindCodes }

func (f *CodeFilter) DistinctValues(context.Context) ([]string, error) {
	return nil, nil // free-form code entry plus uploaded lists
}

// Decode accepts the nested wire form:
//
//	{"main": {"codes": [...], "file": "stem"}, "sub": {...}, "all": {...}}
func (f *CodeFilter) Decode(raw any) (Selection, error) {
	var sel CodeSelection
	if raw == nil {
		return sel, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object keyed by bucket, got %T", raw)
	}
	var err error
	if sel.Main, err = decodeBucket(m["main"]); err != nil {
		return nil, fmt.Errorf("bucket main: %w", err)
	}
	if sel.Sub, err = decodeBucket(m["sub"]); err != nil {
		return nil, fmt.Errorf("bucket sub: %w", err)
	}
	if sel.All, err = decodeBucket(m["all"]); err != nil {
		return nil, fmt.Errorf("bucket all: %w", err)
	}
	return sel, nil
}

func decodeBucket(raw any) (CodeBucketSelection, error) {
	var bucket CodeBucketSelection
	if raw == nil {
		return bucket, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return bucket, fmt.Errorf("expected an object, got %T", raw)
	}
	codes, err := decodeStrings(m["codes"])
	if err != nil {
		return bucket, err
	}
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			bucket.Codes = append(bucket.Codes, c)
		}
	}
	if file, ok := m["file"].(string); ok {
		bucket.File = strings.TrimSpace(file)
	}
	return bucket, nil
}

func (f *CodeFilter) Apply(rows Stream, header schema.Header, sel Selection) Stream {
	codeSel, ok := sel.(CodeSelection)
	if !ok || !anyBucketActive(codeSel) {
		return passthrough(rows)
	}

	type activeBucket struct {
		idx   int
		codes map[string]struct{}
	}
	var buckets []activeBucket
	for _, b := range []struct {
		sel     CodeBucketSelection
		name    codelists.Bucket
		columns []string
	}{
		{codeSel.Main, codelists.BucketMain, mainCodeColumns},
		{codeSel.Sub, codelists.BucketSub, subCodeColumns},
		{codeSel.All, codelists.BucketAll, allCodeColumns},
	} {
		codes := make(map[string]struct{}, len(b.sel.Codes))
		for _, c := range b.sel.Codes {
			codes[c] = struct{}{}
		}
		if b.sel.File != "" && f.lists != nil {
			for c := range f.lists.Codes(b.name, b.sel.File) {
				codes[c] = struct{}{}
			}
		}
		if len(codes) == 0 {
			continue
		}
		idx, found := header.Index(b.columns...)
		if !found {
			continue
		}
		buckets = append(buckets, activeBucket{idx: idx, codes: codes})
	}

	if len(buckets) == 0 {
		return passthrough(rows)
	}

	return func(yield func(schema.Row) bool) {
		for row := range rows {
			match := true
			for _, b := range buckets {
				if !intersects(ParseCodeCell(row.RawCell(b.idx)), b.codes) {
					match = false
					break
				}
			}
			if match && !yield(row) {
				return
			}
		}
	}
}

func intersects(a map[string]struct{}, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
