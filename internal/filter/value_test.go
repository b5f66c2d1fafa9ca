package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasValue(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want bool
	}{
		{name: "plain value", cell: "info@example.com", want: true},
		{name: "empty", cell: "", want: false},
		{name: "whitespace only", cell: "   ", want: false},
		{name: "empty list literal", cell: "[]", want: false},
		{name: "empty object literal", cell: "{}", want: false},
		{name: "null literal", cell: "null", want: false},
		{name: "None literal", cell: "None", want: false},
		{name: "non-empty list literal", cell: `['a@b.nl']`, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasValue(tt.cell))
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, cell := range []string{"TRUE", "true", "1", "J", "ja", "Y", "yes"} {
		v, ok := ParseBool(cell)
		require.True(t, ok, cell)
		assert.True(t, v, cell)
	}
	for _, cell := range []string{"FALSE", "false", "0", "N", "nee", "no"} {
		v, ok := ParseBool(cell)
		require.True(t, ok, cell)
		assert.False(t, v, cell)
	}
	for _, cell := range []string{"", "maybe", "2", "waar"} {
		_, ok := ParseBool(cell)
		assert.False(t, ok, cell)
	}
}

func TestParseInt(t *testing.T) {
	v, ok := ParseInt("42")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	// integers exported as float text
	v, ok = ParseInt("42.0")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = ParseInt("")
	assert.False(t, ok)
	_, ok = ParseInt("n/a")
	assert.False(t, ok)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want time.Time
		ok   bool
	}{
		{name: "iso", cell: "2019-03-11", want: time.Date(2019, 3, 11, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "compact", cell: "20190311", want: time.Date(2019, 3, 11, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "worded", cell: "11 maart 2019", want: time.Date(2019, 3, 11, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "worded capitalized", cell: "1 Januari 2000", want: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "overflowed day rejected", cell: "2019-02-30", ok: false},
		{name: "month thirteen rejected", cell: "2019-13-01", ok: false},
		{name: "unknown month word", cell: "11 march 2019", ok: false},
		{name: "empty", cell: "", ok: false},
		{name: "garbage", cell: "soon", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.cell)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, got.Equal(tt.want), "got %s", got)
			}
		})
	}
}

func TestParseCodeCell(t *testing.T) {
	assert.Empty(t, ParseCodeCell(""))

	single := ParseCodeCell("6201")
	assert.Len(t, single, 1)
	assert.Contains(t, single, "6201")

	list := ParseCodeCell(`['6201', "6202", 47]`)
	assert.Contains(t, list, "6201")
	assert.Contains(t, list, "6202")
	assert.Contains(t, list, "47")

	joined := ParseCodeCell("6201,6202")
	assert.Len(t, joined, 2)
}

func TestTriState(t *testing.T) {
	assert.Nil(t, triState(false, false))
	assert.Nil(t, triState(true, true))

	v := triState(true, false)
	require.NotNil(t, v)
	assert.True(t, *v)

	v = triState(false, true)
	require.NotNil(t, v)
	assert.False(t, *v)
}
