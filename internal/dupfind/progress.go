package dupfind

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Stage names the pipeline stage a progress update was taken in.
type Stage string

const (
	StageWalk  Stage = "walk"
	StageHash  Stage = "hash"
	StageGroup Stage = "group"
)

// Progress reports scanning progress.
type Progress struct {
	// Stage is the stage currently running.
	Stage Stage
	// FilesDiscovered is the number of files that passed traversal filtering.
	FilesDiscovered int64
	// HashTotal is the number of files queued for hashing.
	HashTotal int64
	// FilesHashed is the number of files hashed so far, failures included.
	FilesHashed int64
	// BytesHashed is the number of bytes read by the hasher so far.
	BytesHashed int64
	// Elapsed is the time since the scan started.
	Elapsed time.Duration
	// Done indicates scanning is complete.
	Done bool
}

// ProgressFunc receives progress updates. It is never called concurrently.
type ProgressFunc func(Progress)

// counters are updated by the pipeline stages and sampled by the reporter.
type counters struct {
	stage       atomic.Value
	discovered  atomic.Int64
	hashTotal   atomic.Int64
	hashed      atomic.Int64
	bytesHashed atomic.Int64
	start       time.Time
}

func newCounters() *counters {
	c := &counters{start: time.Now()}
	c.stage.Store(StageWalk)

	return c
}

func (c *counters) setStage(s Stage) {
	c.stage.Store(s)
}

func (c *counters) snapshot(done bool) Progress {
	stage, _ := c.stage.Load().(Stage)

	return Progress{
		Stage:           stage,
		FilesDiscovered: c.discovered.Load(),
		HashTotal:       c.hashTotal.Load(),
		FilesHashed:     c.hashed.Load(),
		BytesHashed:     c.bytesHashed.Load(),
		Elapsed:         time.Since(c.start),
		Done:            done,
	}
}

// progressReporter invokes hook on each tick until stopped, then once more
// with Done set.
type progressReporter struct {
	hook   ProgressFunc
	c      *counters
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// startProgressReporter starts ticking hook. A nil hook yields a reporter whose stop is a no-op.
func startProgressReporter(ctx context.Context, c *counters, hook ProgressFunc, interval time.Duration) *progressReporter {
	r := &progressReporter{hook: hook, c: c}

	if hook == nil {
		return r
	}

	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	ctx, r.cancel = context.WithCancel(ctx)
	ticker := time.NewTicker(interval)

	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hook(c.snapshot(false))
			case <-ctx.Done():
				return
			}
		}
	}()

	return r
}

// stop halts the ticker and delivers the final update.
func (r *progressReporter) stop() {
	if r.hook == nil {
		return
	}

	r.cancel()
	r.wg.Wait()
	r.hook(r.c.snapshot(true))
}
