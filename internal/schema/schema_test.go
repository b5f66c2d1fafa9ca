package schema

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/internal/config"
)

func TestRowCell(t *testing.T) {
	row := Row{" 123 ", "BV", ""}

	assert.Equal(t, "123", row.Cell(0))
	assert.Equal(t, " 123 ", row.RawCell(0))
	assert.Equal(t, "", row.Cell(2))
	assert.Equal(t, "", row.Cell(7), "ragged access is safe")
	assert.Equal(t, "", row.Cell(-1))
}

func TestHeaderIndex(t *testing.T) {
	h := NewHeader([]string{"KvK", "Rechtsvorm ", "email", "kvk"})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		idx, ok := h.Index("rechtsvorm")
		require.True(t, ok)
		assert.Equal(t, 1, idx)
	})

	t.Run("first candidate present wins", func(t *testing.T) {
		idx, ok := h.Index("kvknummer", "email")
		require.True(t, ok)
		assert.Equal(t, 2, idx)
	})

	t.Run("duplicate column resolves to first occurrence", func(t *testing.T) {
		idx, ok := h.Index("kvk")
		require.True(t, ok)
		assert.Equal(t, 0, idx)
	})

	t.Run("absent candidates", func(t *testing.T) {
		_, ok := h.Index("telefoon", "fax")
		assert.False(t, ok)
	})

	assert.Equal(t, 4, h.Len())
	assert.Equal(t, []string{"KvK", "Rechtsvorm ", "email", "kvk"}, h.Columns())
}

func newSource(t *testing.T, content string) *Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return NewSource(config.SourceConfig{Path: path, Delimiter: ","}, nil)
}

func TestSourceStream(t *testing.T) {
	source := newSource(t, "\xEF\xBB\xBFkvk,naam\n111,Bakker\n222,\"Slager, De\"\n")

	header, rows, err := source.Stream(context.Background())
	require.NoError(t, err)

	idx, ok := header.Index("kvk")
	require.True(t, ok, "BOM must not hide the first column")
	assert.Equal(t, 0, idx)

	var got []Row
	for row := range rows {
		got = append(got, row)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "Slager, De", got[1].Cell(1))
}

func TestSourceStreamRaggedRows(t *testing.T) {
	source := newSource(t, "kvk,naam,email\n111,Bakker\n222,Slager,s@x.nl,extra\n")

	_, rows, err := source.Stream(context.Background())
	require.NoError(t, err)

	var got []Row
	for row := range rows {
		got = append(got, row)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "", got[0].Cell(2))
	assert.Equal(t, "s@x.nl", got[1].Cell(2))
}

func TestSourceStreamEarlyBreakAndCancel(t *testing.T) {
	source := newSource(t, "kvk\n1\n2\n3\n")

	t.Run("break stops iteration", func(t *testing.T) {
		_, rows, err := source.Stream(context.Background())
		require.NoError(t, err)
		count := 0
		for range rows {
			count++
			break
		}
		assert.Equal(t, 1, count)
	})

	t.Run("cancelled context yields nothing", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, rows, err := source.Stream(ctx)
		require.NoError(t, err)
		count := 0
		for range rows {
			count++
		}
		assert.Equal(t, 0, count)
	})
}

func TestSourceStreamErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		source := NewSource(config.SourceConfig{Path: "/nonexistent/table.csv", Delimiter: ","}, nil)
		_, _, err := source.Stream(context.Background())
		assert.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		source := newSource(t, "")
		_, _, err := source.Stream(context.Background())
		assert.ErrorContains(t, err, "empty")
	})
}
