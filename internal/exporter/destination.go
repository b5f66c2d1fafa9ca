package exporter

import (
	"fmt"
	"regexp"
	"strings"
)

// Destination is one output target of a save request. Fixed destinations
// claim RowsRequested rows in list order; at most one destination may be
// the REST absorber taking everything left over.
type Destination struct {
	Dir            string `json:"dir" validate:"required"`
	BaseName       string `json:"base_name" validate:"required"`
	MaxRowsPerFile int    `json:"max_rows_per_file" validate:"required,gt=0"`
	RowsRequested  int    `json:"rows_requested,omitempty"`
	Rest           bool   `json:"rest,omitempty"`
}

var baseNamePattern = regexp.MustCompile(`[^A-Za-z0-9._ -]+`)

// SanitizeBaseName strips path separators and shell-hostile characters from
// a user-supplied file base name.
func SanitizeBaseName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(name)
	name = baseNamePattern.ReplaceAllString(name, "_")
	name = strings.Trim(name, ". ")
	if name == "" {
		return "export"
	}
	return name
}

// ValidateDestinations rejects a destination list before any row is read:
// non-positive chunk sizes, fixed destinations without a positive quota,
// and more than one REST absorber are all validation errors.
func ValidateDestinations(destinations []Destination) error {
	if len(destinations) == 0 {
		return fmt.Errorf("at least one destination is required")
	}
	restSeen := false
	for i, d := range destinations {
		if d.Dir == "" {
			return fmt.Errorf("destination %d: directory is required", i+1)
		}
		if d.MaxRowsPerFile <= 0 {
			return fmt.Errorf("destination %d: max rows per file must be positive, got %d", i+1, d.MaxRowsPerFile)
		}
		if d.Rest {
			if restSeen {
				return fmt.Errorf("destination %d: only one REST destination is allowed", i+1)
			}
			restSeen = true
			continue
		}
		if d.RowsRequested <= 0 {
			return fmt.Errorf("destination %d: rows requested must be positive for a fixed destination, got %d", i+1, d.RowsRequested)
		}
	}
	return nil
}
