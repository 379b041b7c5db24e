// Package partedfs provides an overlay filesystem that transparently splits
// large logical files into a sequence of bounded-size part files stored on an
// underlying filesystem, and reassembles them on read.
package partedfs

import (
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// PartSuffix is the delimiter token between a logical name and its part index.
const PartSuffix = ".part"

var (
	// ErrInvalidPartSize is returned by New when the configured maximum part
	// size is not a positive number of bytes.
	ErrInvalidPartSize = errors.New("max part size must be a positive number of bytes")
	// ErrIsDirectory is returned when a file operation targets a path that
	// resolves to a directory on the underlying filesystem.
	ErrIsDirectory = errors.New("is a directory")
	// ErrNotSupported is returned for operations a part-splitting overlay
	// cannot express, such as random-access writes.
	ErrNotSupported = errors.New("operation not supported")
)

// Copier is the optional upgrade interface a delegate filesystem can
// implement to provide a native copy primitive. When the delegate does not
// implement it, PartedFS falls back to a buffered byte copy.
type Copier interface {
	Copy(src, dst string) error
}

// PartedFS splits every logical file it stores into physical parts of at most
// maxPartSize bytes, named <logical>.part0, <logical>.part1 and so on, directly
// beside where the logical file would live on the delegate filesystem. There is
// no persisted manifest: the part set is rediscovered on every operation by
// listing the parent directory, so whatever the delegate reports is the ground
// truth.
//
// A logical file exists iff its part0 is discoverable. Directories are never
// split; directory operations pass straight through to the delegate.
type PartedFS struct {
	base           afero.Fs
	maxPartSize    int64
	copyBufferSize int
	cache          *partCache
	log            logrus.FieldLogger
}

// Option is a functional option for configuring PartedFS.
type Option func(*PartedFS)

// WithCopyBufferSize sets the buffer size used by Copy when the delegate has
// no native copy primitive.
func WithCopyBufferSize(size int) Option {
	return func(pfs *PartedFS) {
		pfs.copyBufferSize = size
	}
}

// WithLogger sets the logger used for debug output on multi-part operations.
// By default all output is discarded.
func WithLogger(log logrus.FieldLogger) Option {
	return func(pfs *PartedFS) {
		pfs.log = log
	}
}

// WithPartCache enables caching of discovered part sets with the specified TTL.
// Discovery by listing remains the ground truth: the cache is invalidated on
// every mutating operation and entries expire after the TTL.
func WithPartCache(enabled bool, ttl time.Duration) Option {
	return func(pfs *PartedFS) {
		negativeTTL := ttl / 2 // Negative cache expires faster
		maxEntries := 1000
		pfs.cache = newPartCache(enabled, ttl, negativeTTL, maxEntries)
	}
}

// WithCacheConfig enables part-set caching with custom configuration.
func WithCacheConfig(enabled bool, partTTL, negativeTTL time.Duration, maxEntries int) Option {
	return func(pfs *PartedFS) {
		pfs.cache = newPartCache(enabled, partTTL, negativeTTL, maxEntries)
	}
}

// New creates a PartedFS on top of the delegate filesystem. maxPartSize is the
// maximum size in bytes any single part file may reach and must be positive;
// it is fixed at construction and applied to every subsequent write session.
func New(base afero.Fs, maxPartSize int64, opts ...Option) (*PartedFS, error) {
	if maxPartSize <= 0 {
		return nil, ErrInvalidPartSize
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	pfs := &PartedFS{
		base:           base,
		maxPartSize:    maxPartSize,
		copyBufferSize: 32 * 1024,                    // default 32KB
		cache:          newPartCache(false, 0, 0, 0), // disabled by default
		log:            discard,
	}
	for _, opt := range opts {
		opt(pfs)
	}
	return pfs, nil
}

// Name returns the name of the filesystem
func (pfs *PartedFS) Name() string {
	return "PartedFS"
}

// MaxPartSize returns the configured maximum part size in bytes.
func (pfs *PartedFS) MaxPartSize() int64 {
	return pfs.maxPartSize
}

// cleanPath normalizes a path
func cleanPath(p string) string {
	cleaned := path.Clean(p)
	if !strings.HasPrefix(cleaned, "/") {
		cleaned = "/" + cleaned
	}
	return cleaned
}

// InvalidateCache removes a logical path from the part-set cache.
func (pfs *PartedFS) InvalidateCache(path string) {
	pfs.cache.invalidate(cleanPath(path))
}

// InvalidateCacheTree removes all cache entries under a path prefix.
func (pfs *PartedFS) InvalidateCacheTree(pathPrefix string) {
	pfs.cache.invalidateTree(cleanPath(pathPrefix))
}

// ClearCache removes all cache entries.
func (pfs *PartedFS) ClearCache() {
	pfs.cache.clear()
}

// CacheStats returns cache statistics.
func (pfs *PartedFS) CacheStats() CacheStats {
	return pfs.cache.Stats()
}
