package dupfind

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// ErrSizeChanged is recorded when the bytes read differ from the size seen during traversal.
var ErrSizeChanged = errors.New("size changed during scan")

// HashOutcome holds the digests computed by a Hasher and the files it could not read.
type HashOutcome struct {
	Hashed    []HashedFile
	Failures  []ScanError
	Cancelled bool
}

// Hasher computes SHA-256 digests with a fixed number of workers pulling from
// one shared queue. Each worker streams files through its own chunk buffer,
// so memory use does not depend on file size.
type Hasher struct {
	fs        afero.Fs
	workers   int
	chunkSize int
	log       *logrus.Entry
	counters  *counters
}

// NewHasher creates a Hasher. A non-positive workers count means one worker
// and a non-positive chunkSize means DefaultChunkSize.
func NewHasher(fs afero.Fs, workers, chunkSize int, log *logrus.Entry) *Hasher {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	if workers <= 0 {
		workers = 1
	}

	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	if log == nil {
		log = logrus.NewEntry(discardLogger())
	}

	return &Hasher{
		fs:        fs,
		workers:   workers,
		chunkSize: chunkSize,
		log:       log,
		counters:  newCounters(),
	}
}

// workQueue hands out files to workers. The lock is held only to advance the cursor.
type workQueue struct {
	mu    sync.Mutex
	items []FileRecord
	next  int
}

func (q *workQueue) pop() (FileRecord, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.next >= len(q.items) {
		return FileRecord{}, false
	}

	item := q.items[q.next]
	q.next++

	return item, true
}

// hashResults collects worker output. The lock is held only to append.
type hashResults struct {
	mu       sync.Mutex
	hashed   []HashedFile
	failures []ScanError
}

func (r *hashResults) add(f HashedFile) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hashed = append(r.hashed, f)
}

func (r *hashResults) fail(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures = append(r.failures, ScanError{Path: path, Kind: KindHashing, Reason: err.Error()})
}

// Hash digests every file. Cancellation is checked before each file is taken
// from the queue; a file already being read is finished first.
func (h *Hasher) Hash(ctx context.Context, files []FileRecord) HashOutcome {
	queue := &workQueue{items: files}
	results := &hashResults{
		hashed: make([]HashedFile, 0, len(files)),
	}

	h.counters.hashTotal.Store(int64(len(files)))

	var (
		group     errgroup.Group
		cancelled atomic.Bool
	)

	for range h.workers {
		group.Go(func() error {
			if !h.drain(ctx, queue, results) {
				cancelled.Store(true)
			}

			return nil
		})
	}

	_ = group.Wait()

	return HashOutcome{
		Hashed:    results.hashed,
		Failures:  results.failures,
		Cancelled: cancelled.Load(),
	}
}

// drain hashes files from queue until it is empty or ctx is done. It reports
// false if it stopped because of ctx; files left in the queue are untouched.
func (h *Hasher) drain(ctx context.Context, queue *workQueue, results *hashResults) bool {
	buf := make([]byte, h.chunkSize)

	for {
		if ctx.Err() != nil {
			return false
		}

		file, ok := queue.pop()
		if !ok {
			return true
		}

		digest, err := h.hashFile(file, buf)

		h.counters.hashed.Add(1)

		if err != nil {
			h.log.WithField("path", file.Path).WithError(err).Warn("hashing error")
			results.fail(file.Path, err)

			continue
		}

		results.add(HashedFile{FileRecord: file, Digest: digest})
	}
}

// hashFile streams one file through SHA-256 using buf as the read buffer.
func (h *Hasher) hashFile(file FileRecord, buf []byte) (Digest, error) {
	f, err := h.fs.Open(file.Path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	sum := sha256.New()

	// Hide WriterTo so CopyBuffer reads through buf.
	n, err := io.CopyBuffer(sum, struct{ io.Reader }{f}, buf)
	h.counters.bytesHashed.Add(n)

	if err != nil {
		return Digest{}, fmt.Errorf("reading file: %w", err)
	}

	if n != file.Size {
		return Digest{}, fmt.Errorf("%w: expected %d bytes, read %d", ErrSizeChanged, file.Size, n)
	}

	var d Digest

	sum.Sum(d[:0])

	return d, nil
}
