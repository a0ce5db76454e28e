package loader

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const mib = 1 << 20

// ProgressTracker reports bytes transferred. It is an io.Writer so it can sit
// behind an io.TeeReader on a download body.
type ProgressTracker struct {
	writer         io.Writer
	total          int64
	current        int64
	reportInterval int64
	lastReported   int64
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a tracker. total may be unknown (<= 0), in which
// case no percentage is shown. A report is written every reportInterval bytes.
func NewProgressTracker(writer io.Writer, total, reportInterval int64) *ProgressTracker {
	if writer == nil {
		writer = io.Discard
	}
	if reportInterval <= 0 {
		reportInterval = mib
	}
	return &ProgressTracker{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.current = 0
	p.lastReported = 0
}

// Write counts len(b) transferred bytes.
func (p *ProgressTracker) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return len(b), nil
	}

	p.current += int64(len(b))
	if p.current-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.current
	}
	return len(b), nil
}

// Current returns the number of bytes counted so far.
func (p *ProgressTracker) Current() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Finish prints the final progress line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.report()
	fmt.Fprintln(p.writer)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	elapsed := time.Since(p.startTime).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(p.current) / mib / elapsed
	}

	if p.total > 0 {
		fmt.Fprintf(p.writer, "\rDownloading: %.1f/%.1f MB (%.1f%%) - %.1f MB/s",
			float64(p.current)/mib, float64(p.total)/mib, float64(p.current)/float64(p.total)*100, rate)
		return
	}
	fmt.Fprintf(p.writer, "\rDownloading: %.1f MB - %.1f MB/s", float64(p.current)/mib, rate)
}
