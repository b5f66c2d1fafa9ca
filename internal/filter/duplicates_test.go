package filter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/internal/schema"
)

func writeExclusionFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDuplicateIndexLoad(t *testing.T) {
	dir := t.TempDir()
	writeExclusionFile(t, dir, "batch1.csv", "kvk,naam\n111,Jansen\n222,De Boer\n")
	writeExclusionFile(t, dir, "batch2.csv", "kvknummer,naam\n222,De Boer\n333,Visser\n")
	writeExclusionFile(t, dir, "no_ids.csv", "naam,plaats\nJansen,Utrecht\n")
	writeExclusionFile(t, dir, "notes.txt", "not a table\n")

	index := NewDuplicateIndex(',', nil)
	ids, err := index.Load(dir)
	require.NoError(t, err)
	assert.Len(t, ids, 3)
	assert.Contains(t, ids, "111")
	assert.Contains(t, ids, "222")
	assert.Contains(t, ids, "333")
}

func TestDuplicateIndexRebuildsOnFolderChange(t *testing.T) {
	dir := t.TempDir()
	path := writeExclusionFile(t, dir, "batch.csv", "kvk\n111\n")

	index := NewDuplicateIndex(',', nil)
	ids, err := index.Load(dir)
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	// cached while the folder is untouched
	again, err := index.Load(dir)
	require.NoError(t, err)
	assert.Len(t, again, 1)

	require.NoError(t, os.WriteFile(path, []byte("kvk\n111\n444\n"), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	rebuilt, err := index.Load(dir)
	require.NoError(t, err)
	assert.Len(t, rebuilt, 2)
	assert.Contains(t, rebuilt, "444")
}

func TestDuplicateIndexMissingFolder(t *testing.T) {
	index := NewDuplicateIndex(',', nil)
	_, err := index.Load(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestDuplicateFilter(t *testing.T) {
	header := schema.NewHeader([]string{"kvk", "naam"})
	rows := func() Stream {
		return streamOf(
			[]string{"111", "Jansen"},
			[]string{"222", "De Boer"},
			[]string{"222", "De Boer dup"},
			[]string{"", "naamloos"},
			[]string{"", "ook naamloos"},
		)
	}

	t.Run("suppresses external and in-stream duplicates", func(t *testing.T) {
		f := NewDuplicateFilter(map[string]struct{}{"111": {}}, nil)
		got := collect(f.Apply(rows(), header))
		require.Len(t, got, 3)
		assert.Equal(t, "222", got[0][0])
		assert.Equal(t, "De Boer", got[0][1]) // first occurrence wins
		assert.Equal(t, "naamloos", got[1][1])
		assert.Equal(t, "ook naamloos", got[2][1])
	})

	t.Run("nil external set deduplicates in-stream only", func(t *testing.T) {
		f := NewDuplicateFilter(nil, nil)
		got := firstCells(f.Apply(rows(), header))
		assert.Equal(t, []string{"111", "222", "", ""}, got)
	})

	t.Run("no identifier column passes through", func(t *testing.T) {
		f := NewDuplicateFilter(map[string]struct{}{"111": {}}, nil)
		noColumn := schema.NewHeader([]string{"naam"})
		assert.Len(t, collect(f.Apply(rows(), noColumn)), 5)
	})
}
