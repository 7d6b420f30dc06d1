package cache

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// FileCache stores entries on disk, one file per key, so CLI runs reuse
// layouts and artifacts across invocations. Payloads are written raw behind
// a one-line expiry header; artifacts can be large and re-encoding them
// would double the write.
type FileCache struct {
	dir string
}

// NewFileCache creates a file cache rooted at dir, creating it if needed.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &FileCache{dir: dir}, nil
}

// Get returns the entry for key, or a miss when it is absent, expired, or
// unreadable. Corrupt and expired files are removed on the way out.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	expires, payload, ok := splitEntry(raw)
	if !ok {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if expires > 0 && time.Now().UnixNano() > expires {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return payload, true, nil
}

// Set writes the entry atomically: a temp file in the target directory,
// then a rename, so concurrent readers never observe a partial payload.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	// Zero means no expiry; a negative ttl writes an already-expired entry.
	var expires int64
	if ttl != 0 {
		expires = time.Now().Add(ttl).UnixNano()
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	entry := append([]byte(strconv.FormatInt(expires, 10)+"\n"), data...)
	if _, err := tmp.Write(entry); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes the entry for key. Missing entries are not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing for the file cache.
func (c *FileCache) Close() error { return nil }

// path maps a key to a fanned-out file location. Keys are hashed so layout
// option values never leak into filenames, with a two-character subdirectory
// to keep directory listings small.
func (c *FileCache) path(key string) string {
	sum := Hash([]byte(key))
	return filepath.Join(c.dir, sum[:2], sum[2:]+".cache")
}

// splitEntry separates the expiry header from the payload.
func splitEntry(raw []byte) (expires int64, payload []byte, ok bool) {
	i := bytes.IndexByte(raw, '\n')
	if i < 0 {
		return 0, nil, false
	}
	expires, err := strconv.ParseInt(string(raw[:i]), 10, 64)
	if err != nil {
		return 0, nil, false
	}
	return expires, raw[i+1:], true
}

// Ensure FileCache implements Cache.
var _ Cache = (*FileCache)(nil)
