package dupfind

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	// DefaultProgressInterval is the default interval for progress updates.
	DefaultProgressInterval = 500 * time.Millisecond
	// DefaultChunkSize is the read buffer size used per hashing worker.
	DefaultChunkSize = 64 * 1024
)

// Options configures a duplicate scan.
type Options struct {
	// Path is the directory to scan.
	Path string
	// MinSize is the inclusive minimum file size in bytes.
	MinSize int64
	// MaxSize is the inclusive maximum file size in bytes (0=unbounded).
	MaxSize int64
	// IncludeHidden includes hidden files and descends into hidden directories.
	IncludeHidden bool
	// ExcludeEmpty skips zero-byte files even when MinSize is 0.
	ExcludeEmpty bool
	// FollowSymlinks follows symbolic links to files and directories.
	FollowSymlinks bool
	// MaxDepth is the maximum traversal depth (0=unlimited).
	MaxDepth int
	// Workers is the number of hashing workers (0=number of CPUs).
	Workers int
	// Extensions to include (empty = all). A '!' prefix excludes the suffix.
	Extensions []string
	// Excludes contains regex patterns to exclude.
	Excludes []string
	// ChunkSize is the read buffer size per hashing worker (0=DefaultChunkSize).
	ChunkSize int
	// ProgressInterval controls progress callback cadence.
	ProgressInterval time.Duration
	// Logger receives structured diagnostics. Nil discards them.
	Logger *logrus.Logger
	// Fs is the filesystem files are opened through for hashing. Nil means the OS filesystem.
	Fs afero.Fs
}

// ConfigError reports a configuration problem that prevents a scan from starting.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IsConfigError reports whether err carries a ConfigError.
func IsConfigError(err error) bool {
	var e *ConfigError

	return errors.As(err, &e)
}

// Validate checks the options that can be verified without touching the filesystem.
// All problems are returned together.
func (o Options) Validate() error {
	var result *multierror.Error

	if o.MinSize < 0 {
		result = multierror.Append(result, &ConfigError{Field: "min size", Err: fmt.Errorf("%d is negative", o.MinSize)})
	}

	if o.MaxSize < 0 {
		result = multierror.Append(result, &ConfigError{Field: "max size", Err: fmt.Errorf("%d is negative", o.MaxSize)})
	}

	if o.MaxSize > 0 && o.MinSize > o.MaxSize {
		result = multierror.Append(result, &ConfigError{
			Field: "size filter",
			Err:   fmt.Errorf("min size (%d) > max size (%d)", o.MinSize, o.MaxSize),
		})
	}

	if o.MaxDepth < 0 {
		result = multierror.Append(result, &ConfigError{Field: "max depth", Err: errors.New("cannot be negative")})
	}

	if o.Workers < 0 {
		result = multierror.Append(result, &ConfigError{Field: "workers", Err: errors.New("cannot be negative")})
	}

	if o.ChunkSize < 0 {
		result = multierror.Append(result, &ConfigError{Field: "chunk size", Err: errors.New("cannot be negative")})
	}

	for _, p := range o.Excludes {
		if _, err := regexp.Compile(p); err != nil {
			result = multierror.Append(result, &ConfigError{Field: fmt.Sprintf("exclusion pattern %q", p), Err: err})
		}
	}

	return result.ErrorOrNil()
}

// validateRoot checks that path exists and is a directory.
func validateRoot(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &ConfigError{Field: "path", Err: fmt.Errorf("accessing %q: %w", path, err)}
	}

	if !info.IsDir() {
		return &ConfigError{Field: "path", Err: fmt.Errorf("%q is not a directory", path)}
	}

	return nil
}

// resolveWorkers returns the worker count to use. It is queried once per scan.
func resolveWorkers(n int) int {
	if n > 0 {
		return n
	}

	return runtime.NumCPU()
}

// extensionFilter splits extension options into include and exclude sets.
type extensionFilter struct {
	include map[string]struct{}
	exclude map[string]struct{}
}

func newExtensionFilter(exts []string) extensionFilter {
	f := extensionFilter{
		include: make(map[string]struct{}, len(exts)),
		exclude: make(map[string]struct{}, len(exts)),
	}

	for _, e := range exts {
		e = strings.Trim(e, "'\"")
		if e == "" {
			continue
		}

		if strings.HasPrefix(e, "!") {
			f.exclude[strings.TrimPrefix(e, "!")] = struct{}{}
		} else {
			f.include[e] = struct{}{}
		}
	}

	return f
}

// allows checks if file should be included based on extension filters.
func (f extensionFilter) allows(path string) bool {
	for ext := range f.exclude {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}

	if len(f.include) == 0 {
		return true
	}

	for ext := range f.include {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	return false
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)

	return l
}
