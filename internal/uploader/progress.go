package uploader

import (
	"io"
	"math"
	"sync/atomic"
)

// inFlightCap is the highest percentage reported while transfers are still
// running. The final slice is reserved for catalog reconciliation, so the
// bar only reaches 100 once the batch result exists.
const inFlightCap = 95

// ProgressUpdate is a snapshot of batch-wide transfer progress.
type ProgressUpdate struct {
	UploadedBytes int64 `json:"uploaded_bytes"`
	TotalBytes    int64 `json:"total_bytes"`
	Percentage    int   `json:"percentage"`
}

// Tracker aggregates byte progress across all concurrently uploading tasks
// of one batch. Counters are atomic: workers call Add/Sub from their own
// goroutines with no other coordination.
type Tracker struct {
	total    int64
	uploaded atomic.Int64
	done     atomic.Bool
	notify   func(ProgressUpdate)
}

// NewTracker creates a tracker for a batch whose payloads sum to total
// bytes. notify may be nil; when set it is invoked on every byte delta and
// may be called from multiple goroutines.
func NewTracker(total int64, notify func(ProgressUpdate)) *Tracker {
	return &Tracker{total: total, notify: notify}
}

// Add records bytes confirmed written to the transport.
func (t *Tracker) Add(n int64) {
	if n == 0 {
		return
	}
	t.uploaded.Add(n)
	t.emit()
}

// Sub rolls back bytes transmitted by an attempt that ultimately failed, so
// the retry does not double-count them.
func (t *Tracker) Sub(n int64) {
	if n == 0 {
		return
	}
	t.uploaded.Add(-n)
	t.emit()
}

// Finish marks reconciliation as complete; from here on the percentage is a
// flat 100.
func (t *Tracker) Finish() {
	t.done.Store(true)
	t.emit()
}

// Snapshot returns the current progress.
func (t *Tracker) Snapshot() ProgressUpdate {
	return ProgressUpdate{
		UploadedBytes: t.uploaded.Load(),
		TotalBytes:    t.total,
		Percentage:    t.Percentage(),
	}
}

// Percentage reports batch progress in [0, 100]. While transfers are in
// flight it is capped at inFlightCap; an empty batch sits at the cap until
// reconciliation finishes.
func (t *Tracker) Percentage() int {
	if t.done.Load() {
		return 100
	}
	if t.total <= 0 {
		return inFlightCap
	}
	pct := int(math.Round(float64(t.uploaded.Load()) / float64(t.total) * 100))
	if pct > inFlightCap {
		pct = inFlightCap
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

func (t *Tracker) emit() {
	if t.notify != nil {
		t.notify(t.Snapshot())
	}
}

// countingReader reports bytes to the tracker as the HTTP transport consumes
// them, so one large file moves the bar before its task completes. sent is
// only read by the owning worker after the attempt resolves.
type countingReader struct {
	r       io.Reader
	tracker *Tracker
	sent    int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.sent += int64(n)
		c.tracker.Add(int64(n))
	}
	return n, err
}
