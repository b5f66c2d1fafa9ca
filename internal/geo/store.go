package geo

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/singleflight"

	"regpulse/internal/config"
)

// CustomPrefix marks polygon names that came from uploaded custom areas.
const CustomPrefix = "custom:"

// namePreferenceKeys are the property keys tried, in order, when naming an
// administrative region feature.
var namePreferenceKeys = []string{
	"provincienaam", "naam", "name", "PROV_NAAM", "provincie", "Provincienaam", "Provincie",
}

var stemSanitizer = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
var stemPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// NamedPolygon pairs a display name with its geometry.
type NamedPolygon struct {
	Name     string
	Geometry orb.Geometry
}

// Store is the process-wide polygon cache: fixed administrative regions plus
// user-uploaded custom areas. It populates lazily on first access, guarded
// against concurrent double-construction, and is invalidated explicitly when
// areas are uploaded or deleted, never by time.
type Store struct {
	regionsFile string
	customDir   string
	logger      *slog.Logger

	mu      sync.RWMutex
	loaded  bool
	regions []NamedPolygon
	custom  []NamedPolygon

	group singleflight.Group
}

// NewStore creates a polygon store over the configured data directories.
func NewStore(cfg config.DataConfig, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		regionsFile: cfg.RegionsFile,
		customDir:   cfg.CustomAreaDir,
		logger:      logger.With(slog.String("component", "geo_store")),
	}
}

// Invalidate forces a reload of all geometries on next access.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.regions = nil
	s.custom = nil
	s.mu.Unlock()
	s.logger.Info("polygon cache invalidated")
}

// Names returns all selectable polygon names: administrative regions sorted,
// then custom areas sorted.
func (s *Store) Names() ([]string, error) {
	regions, custom, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(regions)+len(custom))
	for _, p := range regions {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	customNames := make([]string, 0, len(custom))
	for _, p := range custom {
		customNames = append(customNames, p.Name)
	}
	sort.Strings(customNames)
	return append(names, customNames...), nil
}

// Regions returns the administrative region polygons.
func (s *Store) Regions() ([]NamedPolygon, error) {
	regions, _, err := s.snapshot()
	return regions, err
}

// Select returns the polygons matching the given names, in first-loaded
// order. Unknown names are skipped.
func (s *Store) Select(names []string) ([]NamedPolygon, error) {
	regions, custom, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []NamedPolygon
	for _, p := range regions {
		if wanted[p.Name] {
			out = append(out, p)
		}
	}
	for _, p := range custom {
		if wanted[p.Name] {
			out = append(out, p)
		}
	}
	return out, nil
}

// SaveCustomArea validates and persists an uploaded GeoJSON payload, then
// invalidates the cache. Returns the stored name ("custom:<stem>").
func (s *Store) SaveCustomArea(filename string, payload []byte) (string, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".geojson") {
		return "", fmt.Errorf("custom area must be a .geojson file")
	}
	if _, err := decodeCustomPayload(payload); err != nil {
		return "", fmt.Errorf("invalid GeoJSON payload: %w", err)
	}

	stem := stemSanitizer.ReplaceAllString(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)), "_")
	if len(stem) > 80 {
		stem = stem[:80]
	}
	if stem == "" {
		return "", fmt.Errorf("custom area name is empty after sanitization")
	}

	if err := os.MkdirAll(s.customDir, 0o755); err != nil {
		return "", fmt.Errorf("create custom area dir: %w", err)
	}
	target := filepath.Join(s.customDir, stem+".geojson")
	if err := os.WriteFile(target, payload, 0o644); err != nil {
		return "", fmt.Errorf("store custom area: %w", err)
	}

	s.Invalidate()
	return CustomPrefix + stem, nil
}

// DeleteCustomArea removes a previously uploaded area by its display name
// and invalidates the cache. Only custom areas can be removed.
func (s *Store) DeleteCustomArea(name string) error {
	if !strings.HasPrefix(name, CustomPrefix) {
		return fmt.Errorf("only custom areas can be removed")
	}
	stem := strings.TrimPrefix(name, CustomPrefix)
	if stem == "" || !stemPattern.MatchString(stem) {
		return fmt.Errorf("invalid custom area name: %q", stem)
	}
	target := filepath.Join(s.customDir, stem+".geojson")
	if _, err := os.Stat(target); err != nil {
		return fmt.Errorf("custom area not found: %s", stem)
	}
	if err := os.Remove(target); err != nil {
		return fmt.Errorf("remove custom area: %w", err)
	}
	s.Invalidate()
	return nil
}

// snapshot returns a consistent view of the cached polygons, loading them
// on first access. Concurrent first-touch is collapsed to one loader.
func (s *Store) snapshot() ([]NamedPolygon, []NamedPolygon, error) {
	s.mu.RLock()
	if s.loaded {
		regions, custom := s.regions, s.custom
		s.mu.RUnlock()
		return regions, custom, nil
	}
	s.mu.RUnlock()

	_, err, _ := s.group.Do("load", func() (interface{}, error) {
		return nil, s.load()
	})
	if err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.regions, s.custom, nil
}

func (s *Store) load() error {
	regions := s.loadRegions()
	custom := s.loadCustomAreas()

	s.mu.Lock()
	s.regions = regions
	s.custom = custom
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("polygon cache loaded",
		slog.Int("regions", len(regions)),
		slog.Int("custom_areas", len(custom)))
	return nil
}

func (s *Store) loadRegions() []NamedPolygon {
	data, err := os.ReadFile(s.regionsFile)
	if err != nil {
		s.logger.Warn("regions file unavailable",
			slog.String("path", s.regionsFile),
			slog.String("error", err.Error()))
		return nil
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		s.logger.Error("regions file is not a feature collection",
			slog.String("path", s.regionsFile),
			slog.String("error", err.Error()))
		return nil
	}

	var out []NamedPolygon
	for _, feat := range fc.Features {
		if feat == nil || feat.Geometry == nil {
			continue
		}
		name := regionName(feat.Properties, len(out))
		out = append(out, NamedPolygon{Name: name, Geometry: feat.Geometry})
	}
	return out
}

func (s *Store) loadCustomAreas() []NamedPolygon {
	entries, err := os.ReadDir(s.customDir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("custom area dir unreadable",
				slog.String("path", s.customDir),
				slog.String("error", err.Error()))
		}
		return nil
	}

	var out []NamedPolygon
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".geojson") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.customDir, name))
		if err != nil {
			s.logger.Warn("skipping unreadable custom area",
				slog.String("file", name), slog.String("error", err.Error()))
			continue
		}
		geoms, err := decodeCustomPayload(data)
		if err != nil {
			s.logger.Warn("skipping invalid custom area",
				slog.String("file", name), slog.String("error", err.Error()))
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		for _, g := range geoms {
			out = append(out, NamedPolygon{Name: CustomPrefix + stem, Geometry: g})
		}
	}
	return out
}

// decodeCustomPayload accepts a bare Polygon/MultiPolygon, a single Feature
// or a FeatureCollection and returns the contained polygonal geometries.
func decodeCustomPayload(data []byte) ([]orb.Geometry, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}

	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, err
		}
		var geoms []orb.Geometry
		for _, feat := range fc.Features {
			if feat != nil && isPolygonal(feat.Geometry) {
				geoms = append(geoms, feat.Geometry)
			}
		}
		if len(geoms) == 0 {
			return nil, fmt.Errorf("no polygon features in collection")
		}
		return geoms, nil
	case "Feature":
		feat, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, err
		}
		if !isPolygonal(feat.Geometry) {
			return nil, fmt.Errorf("feature geometry is not polygonal")
		}
		return []orb.Geometry{feat.Geometry}, nil
	case "Polygon", "MultiPolygon":
		geom, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, err
		}
		g := geom.Geometry()
		if !isPolygonal(g) {
			return nil, fmt.Errorf("geometry is not polygonal")
		}
		return []orb.Geometry{g}, nil
	default:
		return nil, fmt.Errorf("unsupported GeoJSON type: %q", probe.Type)
	}
}

func isPolygonal(g orb.Geometry) bool {
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return true
	default:
		return false
	}
}

// regionName resolves a feature's display name: preference keys first, then
// any non-empty string property, then a positional placeholder.
func regionName(props geojson.Properties, position int) string {
	for _, key := range namePreferenceKeys {
		if v, ok := props[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	for _, v := range props {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return fmt.Sprintf("Region %d", position+1)
}
