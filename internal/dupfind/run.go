package dupfind

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Run scans opt.Path for files with identical content.
//
// The pipeline walks the tree, buckets the surviving files by size, hashes
// the members of every bucket with at least two files using opt.Workers
// workers, and groups the digests. Only configuration problems are returned
// as errors; per-file failures are listed in ScanResult.Errors.
//
// The scan can be cancelled via ctx. A cancelled scan still returns the
// partial result, with Incomplete set. Progress updates are sent to
// progressHook if provided.
func Run(ctx context.Context, opt Options, progressHook ProgressFunc) (*ScanResult, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}

	if opt.Path == "" {
		opt.Path = "."
	}

	root, err := filepath.Abs(filepath.Clean(opt.Path))
	if err != nil {
		return nil, &ConfigError{Field: "path", Err: fmt.Errorf("resolving absolute path: %w", err)}
	}

	if err := validateRoot(root); err != nil {
		return nil, err
	}

	logger := opt.Logger
	if logger == nil {
		logger = discardLogger()
	}

	log := logger.WithField("root", root)
	workers := resolveWorkers(opt.Workers)

	log.WithFields(logrus.Fields{
		"workers":         workers,
		"min_size":        opt.MinSize,
		"max_size":        opt.MaxSize,
		"include_hidden":  opt.IncludeHidden,
		"exclude_empty":   opt.ExcludeEmpty,
		"follow_symlinks": opt.FollowSymlinks,
		"max_depth":       opt.MaxDepth,
	}).Debug("starting scan")

	start := time.Now()
	c := newCounters()

	w, err := newWalker(opt, log, c)
	if err != nil {
		return nil, err
	}

	reporter := startProgressReporter(ctx, c, progressHook, opt.ProgressInterval)

	walked := w.walk(ctx, root)
	log.WithFields(logrus.Fields{
		"files":    walked.scanned,
		"filtered": walked.filtered,
		"errors":   len(walked.errors),
	}).Info("traversal complete")

	buckets := BucketBySize(walked.records)
	work := candidates(buckets)

	log.WithFields(logrus.Fields{
		"buckets":    len(buckets),
		"candidates": len(work),
	}).Info("size bucketing complete")

	c.setStage(StageHash)

	hasher := NewHasher(opt.Fs, workers, opt.ChunkSize, log)
	hasher.counters = c
	hashed := hasher.Hash(ctx, work)

	log.WithFields(logrus.Fields{
		"hashed": len(hashed.Hashed),
		"failed": len(hashed.Failures),
	}).Info("hashing complete")

	c.setStage(StageGroup)

	groups := GroupDuplicates(hashed.Hashed)
	duplicates, wasted := totals(groups)

	var bytesScanned int64
	for _, f := range work {
		bytesScanned += f.Size
	}

	errs := make([]ScanError, 0, len(walked.errors)+len(hashed.Failures))
	errs = append(errs, walked.errors...)
	errs = append(errs, hashed.Failures...)

	reporter.stop()

	result := &ScanResult{
		Root:           root,
		FilesScanned:   walked.scanned,
		FilesFiltered:  walked.filtered,
		Candidates:     int64(len(work)),
		FilesHashed:    int64(len(hashed.Hashed)),
		FilesFailed:    int64(len(hashed.Failures)),
		BytesScanned:   bytesScanned,
		Groups:         groups,
		DuplicateFiles: duplicates,
		WastedBytes:    wasted,
		Errors:         errs,
		Workers:        workers,
		Elapsed:        time.Since(start),
		Incomplete:     walked.cancelled || hashed.Cancelled,
	}

	log.WithFields(logrus.Fields{
		"groups":     len(groups),
		"duplicates": duplicates,
		"wasted":     wasted,
		"elapsed":    result.Elapsed,
		"incomplete": result.Incomplete,
	}).Info("scan complete")

	return result, nil
}
