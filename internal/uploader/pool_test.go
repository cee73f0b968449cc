package uploader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestPool(client *http.Client, concurrency int, tracker *Tracker) *Pool {
	p := NewPool(client, concurrency, tracker)
	p.backoffBase = time.Millisecond
	return p
}

func testTask(name string, payload string, target string) *Task {
	t := newTask(KindOriginal, name, "image/jpeg", []byte(payload))
	t.ObjectName = "photos/" + name
	t.UploadTarget = target
	return t
}

func TestPoolSuccessfulUpload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tracker := NewTracker(5, nil)
	task := testTask("a.jpg", "hello", server.URL)

	pool := newTestPool(server.Client(), 1, tracker)
	pool.Run(context.Background(), []*Task{task})

	if task.Status != StatusSuccess {
		t.Fatalf("status = %s, want success", task.Status)
	}
	if task.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", task.Attempts)
	}
	if task.LastError != nil {
		t.Errorf("LastError = %+v, want nil", task.LastError)
	}
	if got := tracker.Snapshot().UploadedBytes; got != 5 {
		t.Errorf("UploadedBytes = %d, want 5", got)
	}
}

func TestPoolFatalErrorNoRetry(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	tracker := NewTracker(5, nil)
	task := testTask("a.jpg", "hello", server.URL)

	pool := newTestPool(server.Client(), 1, tracker)
	pool.Run(context.Background(), []*Task{task})

	if task.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", task.Status)
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want exactly 1 for a fatal error", hits.Load())
	}
	if task.Retryable {
		t.Error("task marked retryable after 403")
	}
	if task.LastError == nil || task.LastError.Reason != "URL expirada o sin permisos" {
		t.Errorf("LastError = %+v, want expired URL reason", task.LastError)
	}
	if got := tracker.Snapshot().UploadedBytes; got != 0 {
		t.Errorf("UploadedBytes after failed attempt = %d, want 0 (rolled back)", got)
	}
}

func TestPoolRetriesThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tracker := NewTracker(5, nil)
	task := testTask("a.jpg", "hello", server.URL)

	pool := newTestPool(server.Client(), 1, tracker)
	pool.Run(context.Background(), []*Task{task})

	if task.Status != StatusSuccess {
		t.Fatalf("status = %s, want success after retries", task.Status)
	}
	if task.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", task.Attempts)
	}
	if got := tracker.Snapshot().UploadedBytes; got != 5 {
		t.Errorf("UploadedBytes = %d, want 5 after rollback and resend", got)
	}
}

func TestPoolExhaustsAttemptBudget(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	tracker := NewTracker(5, nil)
	task := testTask("a.jpg", "hello", server.URL)

	pool := newTestPool(server.Client(), 1, tracker)
	pool.Run(context.Background(), []*Task{task})

	if task.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", task.Status)
	}
	if hits.Load() != 3 {
		t.Errorf("server hits = %d, want 3 (attempt budget)", hits.Load())
	}
	if task.LastError == nil || task.LastError.Reason != "Error temporal del servidor" {
		t.Errorf("LastError = %+v, want transient server reason", task.LastError)
	}
}

func TestPoolConcurrencyBound(t *testing.T) {
	var current, peak atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		current.Add(-1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tasks := make([]*Task, 10)
	var total int64
	for i := range tasks {
		tasks[i] = testTask(string(rune('a'+i))+".jpg", "payload", server.URL)
		total += int64(len(tasks[i].SourceBytes))
	}

	pool := newTestPool(server.Client(), 3, NewTracker(total, nil))
	pool.Run(context.Background(), tasks)

	if got := peak.Load(); got > 3 {
		t.Fatalf("peak concurrent uploads = %d, want at most 3", got)
	}
	for _, task := range tasks {
		if task.Status != StatusSuccess {
			t.Errorf("task %s status = %s, want success", task.Filename, task.Status)
		}
	}
}

func TestPoolDispatchOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		order = append(order, r.Header.Get("Content-Type"))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tasks := []*Task{
		testTask("a.jpg", "x", server.URL),
		testTask("b.jpg", "x", server.URL),
		testTask("c.jpg", "x", server.URL),
	}
	for i, task := range tasks {
		task.ContentType = "image/test-" + string(rune('a'+i))
	}

	// With a single worker, requests must hit the server in slice order.
	pool := newTestPool(server.Client(), 1, NewTracker(3, nil))
	pool.Run(context.Background(), tasks)

	want := []string{"image/test-a", "image/test-b", "image/test-c"}
	mu.Lock()
	defer mu.Unlock()
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("dispatch order = %v, want %v", order, want)
		}
	}
}

func TestPoolCancellation(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	defer once.Do(func() { close(release) })

	tasks := make([]*Task, 5)
	for i := range tasks {
		tasks[i] = testTask(string(rune('a'+i))+".jpg", "payload", server.URL)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
		once.Do(func() { close(release) })
	}()

	pool := newTestPool(server.Client(), 2, NewTracker(35, nil))
	pool.Run(ctx, tasks)

	for _, task := range tasks {
		if task.Status == StatusPending || task.Status == StatusUploading {
			t.Errorf("task %s left in non-terminal status %s", task.Filename, task.Status)
		}
		if task.Status == StatusFailed {
			if task.Retryable {
				t.Errorf("cancelled task %s marked retryable", task.Filename)
			}
			if task.LastError == nil || task.LastError.Reason != "Operación cancelada" {
				t.Errorf("cancelled task %s LastError = %+v", task.Filename, task.LastError)
			}
		}
	}
}

func TestPoolSkipsSettledTasks(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	settled := testTask("bad.jpg", "", server.URL)
	settled.failImmediately("No se pudo generar la miniatura")
	live := testTask("good.jpg", "payload", server.URL)

	pool := newTestPool(server.Client(), 1, NewTracker(7, nil))
	pool.Run(context.Background(), []*Task{settled, live})

	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1 (settled task must not be dispatched)", hits.Load())
	}
	if settled.Attempts != 0 {
		t.Errorf("settled task attempts = %d, want 0", settled.Attempts)
	}
}
