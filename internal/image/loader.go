// Package image provides utilities for loading and preparing images for sampling.
package image

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"math/big"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/go-hclog"
	_ "golang.org/x/image/webp" // Register WebP format

	"github.com/jmylchreest/adaptivebg/internal/compression"
	httputil "github.com/jmylchreest/adaptivebg/internal/util/http"
	"github.com/jmylchreest/adaptivebg/internal/util/imagecache"
)

// ErrSourceUnavailable wraps every failure to acquire or decode an image.
var ErrSourceUnavailable = errors.New("image source unavailable")

// Loader handles loading images from various sources.
type Loader interface {
	// Load loads an image from the given path.
	Load(ctx context.Context, path string) (image.Image, error)
}

// FileLoader loads images from the local filesystem.
type FileLoader struct {
	logger hclog.Logger
}

// NewFileLoader creates a new FileLoader instance.
func NewFileLoader(logger hclog.Logger) *FileLoader {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &FileLoader{logger: logger}
}

// Load loads an image from a file path.
// Supported formats: JPEG, PNG, GIF, WebP, optionally gz/xz/bz2 compressed.
func (l *FileLoader) Load(_ context.Context, path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: image path cannot be empty", ErrSourceUnavailable)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: image file not found: %s", ErrSourceUnavailable, path)
		}
		return nil, fmt.Errorf("%w: failed to stat image file: %w", ErrSourceUnavailable, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: path is a directory, not a file: %s", ErrSourceUnavailable, path)
	}

	data, err := os.ReadFile(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read image file: %w", ErrSourceUnavailable, err)
	}

	l.logger.Debug("read image file", "path", path, "bytes", len(data))
	return decode(data, path)
}

// decode decompresses data when its name carries a compression suffix and
// decodes the image.
func decode(data []byte, name string) (image.Image, error) {
	data, err := compression.Decompress(data, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image (format: %s): %w", ErrSourceUnavailable, format, err)
	}
	return img, nil
}

// SmartLoader loads images from both local files and HTTP(S) URLs.
type SmartLoader struct {
	fileLoader *FileLoader
	logger     hclog.Logger
	fetch      httputil.FetchOptions
	cache      *imagecache.Cache
}

// NewSmartLoader creates a new SmartLoader instance.
func NewSmartLoader(logger hclog.Logger) *SmartLoader {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &SmartLoader{
		fileLoader: NewFileLoader(logger),
		logger:     logger,
	}
}

// WithCache makes URL loads go through c.
func (l *SmartLoader) WithCache(c *imagecache.Cache) *SmartLoader {
	l.cache = c
	return l
}

// Load loads an image from either a local file path or HTTP(S) URL.
func (l *SmartLoader) Load(ctx context.Context, path string) (image.Image, error) {
	if IsURL(path) {
		return l.loadFromURL(ctx, path)
	}
	return l.fileLoader.Load(ctx, path)
}

// loadFromURL fetches and decodes an image from an HTTP(S) URL.
func (l *SmartLoader) loadFromURL(ctx context.Context, url string) (image.Image, error) {
	var (
		data []byte
		err  error
	)
	if l.cache != nil {
		data, err = l.cache.Fetch(ctx, url)
	} else {
		data, err = httputil.Fetch(ctx, url, l.fetch)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch image from URL: %w", ErrSourceUnavailable, err)
	}
	l.logger.Debug("fetched image", "url", url, "bytes", len(data))

	name := url
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return decode(data, name)
}

// IsURL checks if a path is an HTTP/HTTPS URL.
func IsURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// ValidateImagePath checks if the given path is a readable local file or
// directory, or an HTTP(S) URL. URLs are not fetched here.
func ValidateImagePath(path string) error {
	if path == "" {
		return fmt.Errorf("image path cannot be empty")
	}
	if IsURL(path) {
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("image file or directory not found: %s", path)
		}
		return fmt.Errorf("failed to access image path: %w", err)
	}
	return nil
}

// SupportedImageExtensions returns a list of supported image file extensions.
func SupportedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
}

// isImageFile checks if a file has a supported image extension, looking
// through a compression suffix.
func isImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(compression.StripExtension(path)))
	return slices.Contains(SupportedImageExtensions(), ext)
}

// ScanDirectoryForImages scans a directory and returns all valid image files.
// It does not recurse into subdirectories, but follows symlinks.
func ScanDirectoryForImages(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var imageFiles []string
	for _, entry := range entries {
		fullPath := filepath.Join(dirPath, entry.Name())

		// For symlinks, stat the target to determine if it's a file.
		info, err := os.Stat(fullPath)
		if err != nil {
			continue
		}
		if info.IsDir() {
			continue
		}
		if isImageFile(entry.Name()) {
			imageFiles = append(imageFiles, fullPath)
		}
	}

	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("no supported image files found in directory: %s", dirPath)
	}
	return imageFiles, nil
}

// SelectRandomImage selects a random image from a list of image paths.
func SelectRandomImage(imagePaths []string) (string, error) {
	if len(imagePaths) == 0 {
		return "", fmt.Errorf("image path list is empty")
	}
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(imagePaths))))
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}
	return imagePaths[idx.Int64()], nil
}

// ExpandPaths turns each argument into image sources: URLs and files pass
// through, directories expand to every supported image they contain.
func ExpandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		if IsURL(p) {
			out = append(out, p)
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to access path: %w", err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		files, err := ScanDirectoryForImages(p)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}

// ResolveImagePath resolves a path that could be a file or directory.
// Directories resolve to a randomly chosen image inside them; files and
// URLs are returned as-is.
func ResolveImagePath(path string) (string, error) {
	if IsURL(path) {
		return path, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to access path: %w", err)
	}
	if !info.IsDir() {
		return path, nil
	}

	imageFiles, err := ScanDirectoryForImages(path)
	if err != nil {
		return "", err
	}
	return SelectRandomImage(imageFiles)
}
