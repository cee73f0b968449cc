package uploader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	defaultConcurrency = 3
	defaultBackoffBase = 200 * time.Millisecond
)

// Pool uploads a batch's tasks over a fixed number of workers. A failed
// retryable attempt backs off and retries inside the same worker slot; it is
// never re-queued behind other pending tasks.
type Pool struct {
	client      *http.Client
	concurrency int
	backoffBase time.Duration
	tracker     *Tracker
}

// NewPool creates a pool. client may be nil (http.DefaultClient); a
// concurrency below 1 falls back to the default of 3.
func NewPool(client *http.Client, concurrency int, tracker *Tracker) *Pool {
	if client == nil {
		client = http.DefaultClient
	}
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	return &Pool{
		client:      client,
		concurrency: concurrency,
		backoffBase: defaultBackoffBase,
		tracker:     tracker,
	}
}

// Run transfers every pending task to its terminal status, mutating tasks in
// place. Dispatch follows slice order; completion order is unspecified. When
// ctx is cancelled, undispatched and in-flight tasks settle as failed,
// non-retryable.
func (p *Pool) Run(ctx context.Context, tasks []*Task) {
	ch := make(chan *Task)
	var wg sync.WaitGroup

	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range ch {
				p.runTask(ctx, t)
			}
		}()
	}

	for _, t := range tasks {
		if t.Status != StatusPending {
			continue
		}
		select {
		case ch <- t:
		case <-ctx.Done():
			t.failImmediately(reasonCancelled)
		}
	}
	close(ch)
	wg.Wait()
}

// runTask drives one task's state machine: pending → uploading → success,
// or → failed with retries in place while the error is transient and the
// attempt budget allows.
func (p *Pool) runTask(ctx context.Context, t *Task) {
	for {
		if ctx.Err() != nil {
			t.failImmediately(reasonCancelled)
			return
		}

		t.Status = StatusUploading
		t.Attempts++

		att := p.attempt(ctx, t)
		if att == nil {
			t.Status = StatusSuccess
			t.LastError = nil
			t.Retryable = false
			return
		}

		if errors.Is(att.Err, context.Canceled) || errors.Is(att.Err, context.DeadlineExceeded) {
			t.failImmediately(reasonCancelled)
			return
		}

		retryable, reason := classify(att)
		t.Status = StatusFailed
		t.Retryable = retryable
		t.LastError = &TaskError{Reason: reason, StatusCode: att.StatusCode}

		if !retryable || t.Attempts >= t.MaxAttempts {
			slog.Warn("upload task failed",
				slog.String("file", t.Filename),
				slog.String("kind", string(t.Kind)),
				slog.Int("attempts", t.Attempts),
				slog.String("reason", reason))
			return
		}

		// Exponential backoff: 200ms, 400ms, 800ms, ...
		delay := p.backoffBase << (t.Attempts - 1)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			t.failImmediately(reasonCancelled)
			return
		}
	}
}

// attempt performs a single PUT of the task payload. It returns nil on any
// 2xx response. Bytes are streamed into the tracker as the transport reads
// them and rolled back in full if the attempt fails.
func (p *Pool) attempt(ctx context.Context, t *Task) *attemptError {
	cr := &countingReader{r: bytes.NewReader(t.SourceBytes), tracker: p.tracker}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, t.UploadTarget, cr)
	if err != nil {
		return &attemptError{Err: err}
	}
	req.ContentLength = int64(len(t.SourceBytes))
	req.Header.Set("Content-Type", t.ContentType)

	resp, err := p.client.Do(req)
	if err != nil {
		p.tracker.Sub(cr.sent)
		return &attemptError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// The transport may buffer; make sure the full payload is counted.
		if remaining := int64(len(t.SourceBytes)) - cr.sent; remaining > 0 {
			p.tracker.Add(remaining)
			cr.sent = int64(len(t.SourceBytes))
		}
		return nil
	}

	p.tracker.Sub(cr.sent)
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &attemptError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
}
