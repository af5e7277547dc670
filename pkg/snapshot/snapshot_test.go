package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/selvage/pkg/doc"
)

func testDoc(t *testing.T, path string) *doc.Document {
	t.Helper()
	d, err := doc.Parse(strings.NewReader(`<pattern><draw name="A"/></pattern>`))
	require.NoError(t, err)
	d.SetPath(path)
	return d
}

func TestBackupName(t *testing.T) {
	assert.Equal(t, ".shirt.val.gb.bak", BackupName("/tmp/x/shirt.val"))
}

func TestFileBackupWritesSidecar(t *testing.T) {
	dir := t.TempDir()
	d := testDoc(t, filepath.Join(dir, "shirt.val"))

	loc, err := File{}.Backup(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".shirt.val.gb.bak"), loc)

	data, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<draw name="A"`)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not survive")
}

func TestFileBackupNeedsPath(t *testing.T) {
	_, err := File{}.Backup(context.Background(), testDoc(t, ""))
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestBadgerBackupKeys(t *testing.T) {
	store, err := OpenBadger("", nil)
	require.NoError(t, err)
	defer store.Close()

	d := testDoc(t, "/p/shirt.val")
	k1, err := store.Backup(context.Background(), d)
	require.NoError(t, err)
	k2, err := store.Backup(context.Background(), d)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
	assert.True(t, strings.HasPrefix(k1, "gc/shirt.val/"))

	keys, err := store.Keys(d)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{k1, k2}, keys)

	data, err := store.Load(k1)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pattern")
}

func TestNopBackup(t *testing.T) {
	loc, err := Nop{}.Backup(context.Background(), testDoc(t, ""))
	assert.NoError(t, err)
	assert.Empty(t, loc)
}
