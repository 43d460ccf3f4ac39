// Package imagecache keeps downloaded remote images on disk so repeated
// extractions of the same URL skip the network.
package imagecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	httputil "github.com/jmylchreest/adaptivebg/internal/util/http"
)

// Cache stores fetched image bytes under a directory, keyed by URL.
type Cache struct {
	dir    string
	opts   httputil.FetchOptions
	logger hclog.Logger
}

// DefaultDir returns the default cache directory, ~/.cache/adaptivebg/images
// on Linux.
func DefaultDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine cache directory: %w", err)
		}
		return filepath.Join(home, ".cache", "adaptivebg", "images"), nil
	}
	return filepath.Join(cacheDir, "adaptivebg", "images"), nil
}

// New creates a cache rooted at dir. An empty dir uses DefaultDir.
func New(dir string, opts httputil.FetchOptions, logger hclog.Logger) (*Cache, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Cache{dir: dir, opts: opts, logger: logger}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the file a URL is cached under. The name is a hash of the URL
// followed by the URL's own suffix, so compressed images keep their
// compression extension.
func (c *Cache) Path(url string) string {
	sum := sha256.Sum256([]byte(url))
	name := hex.EncodeToString(sum[:16])

	clean := url
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}
	base := path.Base(clean)
	if i := strings.IndexByte(base, '.'); i > 0 && len(base)-i <= 10 {
		name += strings.ToLower(base[i:])
	}
	return filepath.Join(c.dir, name)
}

// Fetch returns the cached bytes for url, downloading and storing them on a
// miss. A failure to write the cache is logged and does not fail the fetch.
func (c *Cache) Fetch(ctx context.Context, url string) ([]byte, error) {
	p := c.Path(url)
	if data, err := os.ReadFile(p); err == nil { // #nosec G304 - Path derived from URL hash under the cache dir
		c.logger.Debug("image cache hit", "url", url, "path", p)
		return data, nil
	}

	data, err := httputil.Fetch(ctx, url, c.opts)
	if err != nil {
		return nil, err
	}

	if err := c.store(p, data); err != nil {
		c.logger.Warn("failed to cache image", "url", url, "error", err)
	} else {
		c.logger.Debug("cached image", "url", url, "path", p, "bytes", len(data))
	}
	return data, nil
}

// store writes data to p through a temporary file so concurrent readers never
// see a partial image.
func (c *Cache) store(p string, data []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil { // #nosec G301 - Cache directory needs standard permissions
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(c.dir, ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cached image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cached image: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("failed to move cached image into place: %w", err)
	}
	return nil
}
