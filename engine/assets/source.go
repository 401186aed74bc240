package assets

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"
)

// Resolver turns a source key into a byte stream. Missing keys must be
// reported with an error wrapping ErrSourceNotFound.
type Resolver interface {
	Resolve(key string) (io.ReadCloser, error)
}

// cleanKey normalises a source key to a slash separated relative path.
func cleanKey(key string) (string, error) {
	k := path.Clean(strings.ReplaceAll(key, "\\", "/"))
	k = strings.TrimPrefix(k, "/")
	if k == "." || k == "" || k == ".." || strings.HasPrefix(k, "../") {
		return "", fmt.Errorf("%w: invalid key '%s'", ErrSourceNotFound, key)
	}
	return k, nil
}

// DirResolver resolves keys relative to a directory on disk. The returned
// stream is an *os.File, which lets importers that need a real path use it.
type DirResolver struct {
	Root string
}

func NewDirResolver(root string) *DirResolver {
	return &DirResolver{Root: root}
}

func (r *DirResolver) Resolve(key string) (io.ReadCloser, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(r.Root, filepath.FromSlash(k)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: '%s' in %s", ErrSourceNotFound, key, r.Root)
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: '%s' is a directory", ErrSourceNotFound, key)
	}
	return f, nil
}

// Key converts an absolute or root relative path back into a source key.
func (r *DirResolver) Key(p string) (string, error) {
	root, err := filepath.Abs(r.Root)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	return cleanKey(filepath.ToSlash(rel))
}

// FSResolver resolves keys against an fs.FS such as an embed.FS.
type FSResolver struct {
	FS fs.FS
}

func NewFSResolver(fsys fs.FS) *FSResolver {
	return &FSResolver{FS: fsys}
}

func (r *FSResolver) Resolve(key string) (io.ReadCloser, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	f, err := r.FS.Open(k)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: '%s'", ErrSourceNotFound, key)
		}
		return nil, err
	}
	return f, nil
}

// ArchiveResolver resolves keys to the entries of a zip asset pack.
type ArchiveResolver struct {
	name    string
	closer  io.Closer
	entries map[string]*zip.File
}

// OpenArchive opens the zip file at path and indexes its entries.
func OpenArchive(p string) (*ArchiveResolver, error) {
	rc, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset archive %s: %w", p, err)
	}
	a := newArchiveResolver(p, &rc.Reader)
	a.closer = rc
	return a, nil
}

// NewArchiveResolver indexes an in-memory or otherwise opened zip archive.
func NewArchiveResolver(name string, r io.ReaderAt, size int64) (*ArchiveResolver, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset archive %s: %w", name, err)
	}
	return newArchiveResolver(name, zr), nil
}

func newArchiveResolver(name string, zr *zip.Reader) *ArchiveResolver {
	a := &ArchiveResolver{
		name:    name,
		entries: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if k, err := cleanKey(f.Name); err == nil {
			a.entries[k] = f
		}
	}
	return a
}

func (a *ArchiveResolver) Resolve(key string) (io.ReadCloser, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	f, ok := a.entries[k]
	if !ok {
		return nil, fmt.Errorf("%w: '%s' in archive %s", ErrSourceNotFound, key, a.name)
	}
	return f.Open()
}

// Len returns the number of file entries in the archive.
func (a *ArchiveResolver) Len() int {
	return len(a.entries)
}

func (a *ArchiveResolver) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// ChainResolver tries each resolver in order and returns the first hit.
type ChainResolver struct {
	mu        sync.RWMutex
	resolvers []Resolver
}

func NewChainResolver(resolvers ...Resolver) *ChainResolver {
	return &ChainResolver{resolvers: resolvers}
}

// Append adds a resolver with the lowest priority.
func (c *ChainResolver) Append(r Resolver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolvers = append(c.resolvers, r)
}

func (c *ChainResolver) Resolve(key string) (io.ReadCloser, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, r := range c.resolvers {
		rc, err := r.Resolve(key)
		if err == nil {
			return rc, nil
		}
		if !errors.Is(err, ErrSourceNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: '%s'", ErrSourceNotFound, key)
}

// Close closes every resolver of the chain that holds resources.
func (c *ChainResolver) Close() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs []error
	for _, r := range c.resolvers {
		if cl, ok := r.(io.Closer); ok {
			if err := cl.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
