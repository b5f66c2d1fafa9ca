package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/internal/config"
)

func square(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}}
}

func TestNormalizeRegionKey(t *testing.T) {
	cases := map[string]string{
		"Fryslân":        "fryslan",
		"FRYSLAN":        "fryslan",
		"Noord-Brabant":  "noord brabant",
		" noord brabant": "noord brabant",
		"'s-Gravenhage":  "s gravenhage",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeRegionKey(in), "input %q", in)
	}
}

func TestCanonicalRegionName(t *testing.T) {
	assert.Equal(t, "Fryslân", CanonicalRegionName("fryslan"))
	assert.Equal(t, "Noord-Holland", CanonicalRegionName("NOORD HOLLAND"))
	assert.Equal(t, "", CanonicalRegionName("Atlantis"))
	assert.Equal(t, "", CanonicalRegionName(""))
}

func TestResolver(t *testing.T) {
	polygons := []NamedPolygon{
		{Name: "West", Geometry: square(0, 0, 5, 10)},
		{Name: "Oost", Geometry: square(5, 0, 10, 10)},
		{Name: "Overlap", Geometry: square(0, 0, 10, 10)},
	}
	r := NewResolver(polygons)

	t.Run("resolves to containing polygon", func(t *testing.T) {
		name, ok := r.Resolve(7, 5)
		require.True(t, ok)
		assert.Equal(t, "Oost", name)
	})

	t.Run("earliest polygon wins on overlap", func(t *testing.T) {
		name, ok := r.Resolve(2, 5)
		require.True(t, ok)
		assert.Equal(t, "West", name)
	})

	t.Run("outside every polygon", func(t *testing.T) {
		_, ok := r.Resolve(50, 50)
		assert.False(t, ok)
	})

	t.Run("empty resolver", func(t *testing.T) {
		empty := NewResolver(nil)
		assert.True(t, empty.Empty())
		_, ok := empty.Resolve(1, 1)
		assert.False(t, ok)
	})
}

func writeRegionsFile(t *testing.T, path string) {
	t.Helper()
	regions := `{"type":"FeatureCollection","features":[` +
		`{"type":"Feature","properties":{"provincienaam":"Utrecht"},"geometry":` +
		`{"type":"Polygon","coordinates":[[[4.9,51.9],[5.6,51.9],[5.6,52.3],[4.9,52.3],[4.9,51.9]]]}},` +
		`{"type":"Feature","properties":{"name":"Groningen"},"geometry":` +
		`{"type":"Polygon","coordinates":[[[6.3,53.0],[7.2,53.0],[7.2,53.5],[6.3,53.5],[6.3,53.0]]]}}]}`
	require.NoError(t, os.WriteFile(path, []byte(regions), 0o644))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	regionsFile := filepath.Join(dir, "regions.geojson")
	writeRegionsFile(t, regionsFile)
	return NewStore(config.DataConfig{
		RegionsFile:   regionsFile,
		CustomAreaDir: filepath.Join(dir, "custom"),
	}, nil)
}

func TestStoreNamesAndSelect(t *testing.T) {
	store := newTestStore(t)

	names, err := store.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"Groningen", "Utrecht"}, names)

	selected, err := store.Select([]string{"Groningen", "Atlantis"})
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, "Groningen", selected[0].Name)
}

func TestStoreCustomAreaLifecycle(t *testing.T) {
	store := newTestStore(t)
	payload := []byte(`{"type":"Feature","properties":{},"geometry":` +
		`{"type":"Polygon","coordinates":[[[4.0,52.0],[4.5,52.0],[4.5,52.5],[4.0,52.0]]]}}`)

	name, err := store.SaveCustomArea("Mijn Gebied.geojson", payload)
	require.NoError(t, err)
	assert.Equal(t, "custom:Mijn_Gebied", name)

	names, err := store.Names()
	require.NoError(t, err)
	assert.Contains(t, names, name)

	t.Run("regions cannot be deleted", func(t *testing.T) {
		assert.Error(t, store.DeleteCustomArea("Utrecht"))
	})

	require.NoError(t, store.DeleteCustomArea(name))
	names, err = store.Names()
	require.NoError(t, err)
	assert.NotContains(t, names, name)
}

func TestStoreRejectsBadUploads(t *testing.T) {
	store := newTestStore(t)

	cases := []struct {
		name     string
		filename string
		payload  string
	}{
		{"wrong extension", "area.json", `{"type":"Feature"}`},
		{"not geojson", "area.geojson", "hello"},
		{"no polygons", "area.geojson", `{"type":"FeatureCollection","features":[]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.SaveCustomArea(tc.filename, []byte(tc.payload))
			assert.Error(t, err)
		})
	}
}

func TestStoreMissingRegionsFile(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(config.DataConfig{
		RegionsFile:   filepath.Join(dir, "absent.geojson"),
		CustomAreaDir: filepath.Join(dir, "custom"),
	}, nil)

	names, err := store.Names()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStoreConcurrentFirstLoad(t *testing.T) {
	store := newTestStore(t)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := store.Names()
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
}

func TestStoreRegionNameFallback(t *testing.T) {
	dir := t.TempDir()
	regionsFile := filepath.Join(dir, "regions.geojson")
	payload := `{"type":"FeatureCollection","features":[` +
		`{"type":"Feature","properties":{},"geometry":` +
		`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}]}`
	require.NoError(t, os.WriteFile(regionsFile, []byte(payload), 0o644))

	store := NewStore(config.DataConfig{
		RegionsFile:   regionsFile,
		CustomAreaDir: filepath.Join(dir, "custom"),
	}, nil)
	names, err := store.Names()
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Equal(t, "Region 1", names[0])
}
