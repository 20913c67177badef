package baseline

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	domainerrors "ratchet/internal/core/errors"
	"ratchet/internal/engine/ratchet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(Options{
		BaselinePath: filepath.Join(dir, "eslint-ratchet.json"),
		ScratchPath:  filepath.Join(dir, "eslint-ratchet-temp.json"),
	})
	require.NoError(t, err)
	return store, dir
}

func TestOpen_Validation(t *testing.T) {
	_, err := Open(Options{ScratchPath: "b.json"})
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeValidationError))

	_, err = Open(Options{BaselinePath: "a.json", ScratchPath: "./a.json"})
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeValidationError))
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	store, _ := openTestStore(t)

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap)

	scratch, err := store.LoadScratch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, scratch)
}

func TestSaveLoad_RoundTripPrunes(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	snap := ratchet.Snapshot{
		"src/a.js": {
			"no-console": {ratchet.Warning: 2, ratchet.Error: 0},
			"eqeqeq":     {ratchet.Error: 0},
		},
		"src/clean.js": {"semi": {ratchet.Warning: 0}},
	}
	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, ratchet.Snapshot{
		"src/a.js": {"no-console": {ratchet.Warning: 2}},
	}, loaded)

	// the caller's snapshot is not mutated by pruning on save
	assert.Contains(t, snap, "src/clean.js")
}

func TestSave_WritesIndentedSortedJSON(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(Options{
		BaselinePath: filepath.Join(dir, "nested", "baseline.json"),
		ScratchPath:  filepath.Join(dir, "nested", "scratch.json"),
		Indent:       2,
	})
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), ratchet.Snapshot{
		"b.js": {"semi": {ratchet.Error: 1}},
		"a.js": {"semi": {ratchet.Warning: 3}},
	}))

	raw, err := os.ReadFile(store.BaselinePath())
	require.NoError(t, err)
	want := "{\n  \"a.js\": {\n    \"semi\": {\n      \"warning\": 3\n    }\n  },\n  \"b.js\": {\n    \"semi\": {\n      \"error\": 1\n    }\n  }\n}\n"
	assert.Equal(t, want, string(raw))

	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp-"), "temp file left behind: %s", e.Name())
	}
}

func TestLoad_MalformedState(t *testing.T) {
	cases := map[string]string{
		"not json":         "{",
		"empty file":       "",
		"array root":       "[]",
		"string count":     `{"a.js": {"semi": {"error": "2"}}}`,
		"negative count":   `{"a.js": {"semi": {"warning": -1}}}`,
		"unknown category": `{"a.js": {"semi": {"info": 1}}}`,
		"fractional count": `{"a.js": {"semi": {"error": 1.5}}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			store, _ := openTestStore(t)
			require.NoError(t, os.WriteFile(store.BaselinePath(), []byte(body), 0o644))

			_, err := store.Load(context.Background())
			require.Error(t, err)
			assert.True(t, domainerrors.IsCode(err, domainerrors.CodeMalformedState), "got %v", err)
		})
	}
}

func TestScratchLifecycle(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveScratch(ctx, ratchet.Snapshot{"a.js": {"semi": {ratchet.Error: 1}}}))
	scratch, err := store.LoadScratch(ctx)
	require.NoError(t, err)
	assert.Len(t, scratch, 1)

	require.NoError(t, store.ClearScratch(ctx))
	raw, err := os.ReadFile(store.ScratchPath())
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(raw))
}

func TestCanceledContext(t *testing.T) {
	store, _ := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Save(ctx, ratchet.Snapshot{}), context.Canceled)
}

func TestDiskExistence(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "a.js"), nil, 0o644))

	oracle := DiskExistence{Root: root}
	assert.True(t, oracle.Exists("src/a.js"))
	assert.False(t, oracle.Exists("src/gone.js"))
	assert.True(t, oracle.Exists(filepath.Join(root, "src", "a.js")))
}

func TestDiskExistence_StatErrorCountsAsPresent(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.MkdirAll(locked, 0o755))
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	assert.True(t, DiskExistence{Root: root}.Exists("locked/a.js"))
}
