package dupfind

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/sirupsen/logrus"
)

// ErrSymlinkCycle is recorded when a followed symlink leads back to a directory
// already on the current traversal path.
var ErrSymlinkCycle = errors.New("symlink cycle detected")

// walkOutcome is what a traversal produces.
type walkOutcome struct {
	records   []FileRecord
	errors    []ScanError
	scanned   int64
	filtered  int64
	cancelled bool
}

// walker applies the traversal predicates and collects candidate files.
// fastwalk invokes the callback from multiple goroutines, so all collected
// state is guarded by mu.
type walker struct {
	opt      Options
	log      *logrus.Entry
	excludes []*regexp.Regexp
	exts     extensionFilter
	counters *counters

	mu       sync.Mutex
	records  []FileRecord
	errors   []ScanError
	scanned  int64
	filtered int64
}

func newWalker(opt Options, log *logrus.Entry, c *counters) (*walker, error) {
	excludes := make([]*regexp.Regexp, 0, len(opt.Excludes))

	for _, p := range opt.Excludes {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, &ConfigError{Field: fmt.Sprintf("exclusion pattern %q", p), Err: err}
		}

		excludes = append(excludes, re)
	}

	return &walker{
		opt:      opt,
		log:      log,
		excludes: excludes,
		exts:     newExtensionFilter(opt.Extensions),
		counters: c,
	}, nil
}

// walk traverses root and returns every regular file that passes the
// predicates, sorted by path so that repeated scans see the same order.
func (w *walker) walk(ctx context.Context, root string) walkOutcome {
	err := w.walkRoot(ctx, root, root, 0, nil)

	out := walkOutcome{}

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		out.cancelled = true
	default:
		w.addError(root, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	slices.SortFunc(w.records, func(a, b FileRecord) int { return strings.Compare(a.Path, b.Path) })

	out.records = w.records
	out.errors = w.errors
	out.scanned = w.scanned
	out.filtered = w.filtered

	return out
}

// walkRoot walks the physical directory physRoot, reporting entries under
// logicalRoot. baseDepth is the depth of logicalRoot relative to the scan root
// and ancestors holds the identities of the directories above physRoot on the
// current path.
//
//nolint:gocognit // Predicates are evaluated in a fixed order.
func (w *walker) walkRoot(ctx context.Context, physRoot, logicalRoot string, baseDepth int, ancestors []dirID) error {
	conf := &fastwalk.Config{
		Follow: false, // Symlinks are resolved by followLink
	}

	//nolint:varnamelen // d is standard for DirEntry
	return fastwalk.Walk(conf, physRoot, func(path string, d fs.DirEntry, err error) error {
		logicalPath := toLogical(physRoot, logicalRoot, path)

		if err != nil {
			w.addError(logicalPath, err)

			return nil
		}

		// Check cancellation between entries
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if path == physRoot {
			return nil
		}

		depth := baseDepth + calculateDepth(path, physRoot)

		if !w.opt.IncludeHidden {
			hidden, err := isHidden(path, d.Name())
			if err != nil {
				w.addError(logicalPath, fmt.Errorf("checking hidden attribute: %w", err))

				return skip(d)
			}

			if hidden {
				w.log.WithField("path", logicalPath).Debug("skipping hidden entry")

				if d.Type().IsRegular() {
					w.addFiltered()
				}

				return skip(d)
			}
		}

		if re := shouldExcludeByPattern(logicalPath, w.excludes); re != nil {
			w.log.WithFields(logrus.Fields{"path": logicalPath, "pattern": re.String()}).Debug("excluding entry")

			if d.Type().IsRegular() {
				w.addFiltered()
			}

			return skip(d)
		}

		if d.IsDir() {
			if w.beyondDepth(depth) {
				w.log.WithField("path", logicalPath).Debugf("skipping directory (beyond depth %d)", w.opt.MaxDepth)

				return filepath.SkipDir
			}

			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			if !w.opt.FollowSymlinks {
				w.log.WithField("path", logicalPath).Debug("skipping symlink")

				return nil
			}

			return w.followLink(ctx, path, logicalPath, physRoot, depth, ancestors)
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			w.addError(logicalPath, err)

			return nil
		}

		w.consider(logicalPath, info)

		return nil
	})
}

// followLink resolves the symlink at path. Links to regular files are
// considered like files; links to directories are walked unless the target
// is already on the current path.
func (w *walker) followLink(ctx context.Context, path, logicalPath, physRoot string, depth int, ancestors []dirID) error {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		w.addError(logicalPath, fmt.Errorf("resolving symlink: %w", err))

		return nil
	}

	info, err := os.Stat(target)
	if err != nil {
		w.addError(logicalPath, fmt.Errorf("resolving symlink: %w", err))

		return nil
	}

	if info.Mode().IsRegular() {
		w.consider(logicalPath, info)

		return nil
	}

	if !info.IsDir() || w.beyondDepth(depth) {
		return nil
	}

	id, err := identify(target)
	if err != nil {
		w.addError(logicalPath, fmt.Errorf("resolving symlink: %w", err))

		return nil
	}

	chain, err := pathChain(physRoot, filepath.Dir(path))
	if err != nil {
		w.addError(logicalPath, fmt.Errorf("resolving symlink: %w", err))

		return nil
	}

	onPath := append(slices.Clone(ancestors), chain...)
	if slices.Contains(onPath, id) {
		w.addError(logicalPath, fmt.Errorf("%w: %s -> %s", ErrSymlinkCycle, logicalPath, target))

		return nil
	}

	w.log.WithFields(logrus.Fields{"path": logicalPath, "target": target}).Debug("following symlink")

	err = w.walkRoot(ctx, target, logicalPath, depth, onPath)
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return err
	}

	if err != nil {
		w.addError(logicalPath, err)
	}

	return nil
}

// consider applies the size and extension predicates to a regular file.
func (w *walker) consider(path string, info fs.FileInfo) {
	size := info.Size()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.scanned++

	if !w.passesSize(size) {
		w.filtered++
		w.log.WithFields(logrus.Fields{"path": path, "size": size}).Debug("excluding file (size filter)")

		return
	}

	if !w.exts.allows(path) {
		w.filtered++
		w.log.WithField("path", path).Debug("excluding file (extension filter)")

		return
	}

	w.records = append(w.records, FileRecord{
		Path:    path,
		Size:    size,
		ModTime: info.ModTime(),
	})
	w.counters.discovered.Add(1)
}

func (w *walker) passesSize(size int64) bool {
	if w.opt.ExcludeEmpty && size == 0 {
		return false
	}

	if size < w.opt.MinSize {
		return false
	}

	if w.opt.MaxSize > 0 && size > w.opt.MaxSize {
		return false
	}

	return true
}

// beyondDepth reports whether a directory at depth may not be descended into.
func (w *walker) beyondDepth(depth int) bool {
	return w.opt.MaxDepth > 0 && depth >= w.opt.MaxDepth
}

func (w *walker) addFiltered() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.scanned++
	w.filtered++
}

func (w *walker) addError(path string, err error) {
	w.log.WithField("path", path).WithError(err).Warn("traversal error")

	w.mu.Lock()
	defer w.mu.Unlock()

	w.errors = append(w.errors, ScanError{Path: path, Kind: KindTraversal, Reason: err.Error()})
}

// skip prunes directories and ignores everything else.
func skip(d fs.DirEntry) error {
	if d.IsDir() {
		return filepath.SkipDir
	}

	return nil
}

// calculateDepth returns the depth of a path relative to the root.
func calculateDepth(path, root string) int {
	relPath := strings.TrimPrefix(path, root)

	relPath = strings.TrimPrefix(relPath, string(filepath.Separator))
	if relPath == "" {
		return 0
	}

	return strings.Count(relPath, string(filepath.Separator)) + 1
}

// toLogical maps a path under physRoot to the same position under logicalRoot.
func toLogical(physRoot, logicalRoot, path string) string {
	if physRoot == logicalRoot {
		return path
	}

	rel, err := filepath.Rel(physRoot, path)
	if err != nil {
		return path
	}

	return filepath.Join(logicalRoot, rel)
}

// pathChain returns the identities of root and every directory between root and dir.
func pathChain(root, dir string) ([]dirID, error) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return nil, err
	}

	id, err := identify(root)
	if err != nil {
		return nil, err
	}

	chain := []dirID{id}

	if rel == "." {
		return chain, nil
	}

	current := root

	for _, segment := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, segment)

		id, err := identify(current)
		if err != nil {
			return nil, err
		}

		chain = append(chain, id)
	}

	return chain, nil
}

// shouldExcludeByPattern checks if path matches any exclusion regex.
func shouldExcludeByPattern(path string, patterns []*regexp.Regexp) *regexp.Regexp {
	if len(patterns) == 0 {
		return nil
	}

	fPath := filepath.ToSlash(path)

	for _, re := range patterns {
		if re.MatchString(fPath) {
			return re
		}
	}

	return nil
}
