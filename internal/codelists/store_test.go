package codelists

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"regpulse/internal/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(config.DataConfig{CodeListDir: t.TempDir()}, nil)
}

func TestBucketValid(t *testing.T) {
	assert.True(t, BucketMain.Valid())
	assert.True(t, BucketSub.Valid())
	assert.True(t, BucketAll.Valid())
	assert.False(t, Bucket("bogus").Valid())
}

func TestStoreSaveText(t *testing.T) {
	store := newTestStore(t)

	t.Run("plain lines", func(t *testing.T) {
		stem, err := store.Save(BucketMain, "ICT sector.txt", []byte("6201\n6202\n6201\n"))
		require.NoError(t, err)
		assert.Equal(t, "ICT_sector", stem)

		codes := store.Codes(BucketMain, stem)
		assert.Len(t, codes, 2)
		assert.Contains(t, codes, "6201")
	})

	t.Run("csv keeps the first column and drops the header", func(t *testing.T) {
		content := "sbi_code;omschrijving\n6201;softwareontwikkeling\n6202;advies\n"
		stem, err := store.Save(BucketSub, "codes.csv", []byte(content))
		require.NoError(t, err)

		codes := store.Codes(BucketSub, stem)
		assert.Len(t, codes, 2)
		assert.Contains(t, codes, "6201")
		assert.NotContains(t, codes, "sbi_code")
	})

	t.Run("empty upload is rejected", func(t *testing.T) {
		_, err := store.Save(BucketMain, "empty.txt", []byte("  \n"))
		assert.Error(t, err)
	})

	t.Run("unknown bucket is rejected", func(t *testing.T) {
		_, err := store.Save(Bucket("bogus"), "x.txt", []byte("1\n"))
		assert.Error(t, err)
	})
}

func TestStoreSaveSpreadsheet(t *testing.T) {
	store := newTestStore(t)

	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	require.NoError(t, book.SetCellValue(sheet, "A1", "code"))
	require.NoError(t, book.SetCellValue(sheet, "A2", "0111"))
	require.NoError(t, book.SetCellValue(sheet, "A3", "0112"))
	var buf bytes.Buffer
	require.NoError(t, book.Write(&buf))

	stem, err := store.Save(BucketAll, "landbouw.xlsx", buf.Bytes())
	require.NoError(t, err)

	codes := store.Codes(BucketAll, stem)
	assert.Len(t, codes, 2)
	assert.Contains(t, codes, "0111")
}

func TestStoreList(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Save(BucketMain, "b.txt", []byte("1\n"))
	require.NoError(t, err)
	_, err = store.Save(BucketMain, "a.txt", []byte("2\n"))
	require.NoError(t, err)

	lists := store.List()
	assert.Equal(t, []string{"a", "b"}, lists["main"])
	assert.Empty(t, lists["sub"])
	assert.Empty(t, lists["all"])
}

func TestStoreCodes(t *testing.T) {
	store := newTestStore(t)

	t.Run("missing list resolves to an empty set", func(t *testing.T) {
		assert.Empty(t, store.Codes(BucketMain, "absent"))
	})

	t.Run("re-upload replaces the cached set", func(t *testing.T) {
		stem, err := store.Save(BucketMain, "lijst.txt", []byte("1\n2\n"))
		require.NoError(t, err)
		assert.Len(t, store.Codes(BucketMain, stem), 2)

		_, err = store.Save(BucketMain, "lijst.txt", []byte("3\n"))
		require.NoError(t, err)
		assert.Len(t, store.Codes(BucketMain, stem), 1)
	})
}
