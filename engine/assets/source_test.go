package assets

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r Resolver, key string) string {
	t.Helper()
	rc, err := r.Resolve(key)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDirResolver(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ui"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ui", "layout.hcl"), []byte("title = \"menu\""), 0o644))
	r := NewDirResolver(root)

	t.Run("resolves nested keys to files", func(t *testing.T) {
		require.Equal(t, "title = \"menu\"", readAll(t, r, "ui/layout.hcl"))

		rc, err := r.Resolve("ui/layout.hcl")
		require.NoError(t, err)
		defer rc.Close()
		f, ok := rc.(*os.File)
		require.True(t, ok)
		require.Equal(t, filepath.Join(root, "ui", "layout.hcl"), f.Name())
	})

	t.Run("missing files and directories are not found", func(t *testing.T) {
		_, err := r.Resolve("ui/missing.hcl")
		require.ErrorIs(t, err, ErrSourceNotFound)
		_, err = r.Resolve("ui")
		require.ErrorIs(t, err, ErrSourceNotFound)
	})

	t.Run("keys cannot escape the root", func(t *testing.T) {
		for _, key := range []string{"", ".", "..", "../secret.toml", "ui/../../x"} {
			_, err := r.Resolve(key)
			require.ErrorIs(t, err, ErrSourceNotFound, key)
		}
	})

	t.Run("paths map back to keys", func(t *testing.T) {
		key, err := r.Key(filepath.Join(root, "ui", "layout.hcl"))
		require.NoError(t, err)
		require.Equal(t, "ui/layout.hcl", key)

		_, err = r.Key(filepath.Dir(root))
		require.Error(t, err)
	})
}

func TestFSResolver(t *testing.T) {
	r := NewFSResolver(fstest.MapFS{
		"sprites/hero.bin": {Data: []byte{1, 2, 3}},
	})

	require.Equal(t, "\x01\x02\x03", readAll(t, r, "sprites/hero.bin"))
	require.Equal(t, "\x01\x02\x03", readAll(t, r, "/sprites//hero.bin"))

	_, err := r.Resolve("sprites/villain.bin")
	require.ErrorIs(t, err, ErrSourceNotFound)
}

func TestArchiveResolver(t *testing.T) {
	raw := buildArchive(t, map[string]string{
		"energy_blast.toml": "hp_damage = 1\n",
		"ui/example.hcl":    "title = \"x\"\n",
	})

	t.Run("in memory", func(t *testing.T) {
		a, err := NewArchiveResolver("pack.zip", bytes.NewReader(raw), int64(len(raw)))
		require.NoError(t, err)
		defer a.Close()

		require.Equal(t, 2, a.Len())
		require.Equal(t, "hp_damage = 1\n", readAll(t, a, "energy_blast.toml"))
		require.Equal(t, "title = \"x\"\n", readAll(t, a, "ui/example.hcl"))
		_, err = a.Resolve("nope.toml")
		require.ErrorIs(t, err, ErrSourceNotFound)
	})

	t.Run("from disk", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "pack.zip")
		require.NoError(t, os.WriteFile(p, raw, 0o644))

		a, err := OpenArchive(p)
		require.NoError(t, err)
		require.Equal(t, "title = \"x\"\n", readAll(t, a, "ui/example.hcl"))
		require.NoError(t, a.Close())
	})

	t.Run("not an archive", func(t *testing.T) {
		_, err := NewArchiveResolver("junk", bytes.NewReader([]byte("junk")), 4)
		require.Error(t, err)

		_, err = OpenArchive(filepath.Join(t.TempDir(), "missing.zip"))
		require.Error(t, err)
	})
}

type failingResolver struct{ err error }

func (r failingResolver) Resolve(string) (io.ReadCloser, error) { return nil, r.err }

func TestChainResolver(t *testing.T) {
	raw := buildArchive(t, map[string]string{
		"energy_blast.toml": "from archive",
		"only_packed.toml":  "packed",
	})
	packed, err := NewArchiveResolver("pack.zip", bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)

	loose := NewFSResolver(fstest.MapFS{"energy_blast.toml": {Data: []byte("from disk")}})
	chain := NewChainResolver(loose)
	chain.Append(packed)

	t.Run("first hit wins", func(t *testing.T) {
		require.Equal(t, "from disk", readAll(t, chain, "energy_blast.toml"))
		require.Equal(t, "packed", readAll(t, chain, "only_packed.toml"))
	})

	t.Run("not found anywhere", func(t *testing.T) {
		_, err := chain.Resolve("missing.toml")
		require.ErrorIs(t, err, ErrSourceNotFound)
	})

	t.Run("other errors stop the search", func(t *testing.T) {
		boom := errors.New("disk on fire")
		c := NewChainResolver(failingResolver{err: boom}, loose)

		_, err := c.Resolve("energy_blast.toml")
		require.ErrorIs(t, err, boom)
	})

	require.NoError(t, chain.Close())
}
