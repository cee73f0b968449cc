package uploader

// TaskKind distinguishes the two artifacts uploaded per source file.
type TaskKind string

const (
	KindOriginal  TaskKind = "original"
	KindThumbnail TaskKind = "thumbnail"
)

// TaskStatus is the lifecycle state of a single transfer.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusUploading TaskStatus = "uploading"
	StatusSuccess   TaskStatus = "success"
	StatusFailed    TaskStatus = "failed"
)

const defaultMaxAttempts = 3

// TaskError records why the last attempt of a task failed. StatusCode is 0
// when the failure happened below the HTTP layer (no response at all).
type TaskError struct {
	Reason     string `json:"reason"`
	StatusCode int    `json:"status_code,omitempty"`
}

func (e *TaskError) Error() string {
	return e.Reason
}

// Task is the unit of work for one physical transfer: one original or one
// thumbnail. ObjectName and UploadTarget are assigned by the credential
// broker exactly once, before the task first enters StatusUploading, and are
// never mutated afterward.
type Task struct {
	Kind         TaskKind   `json:"kind"`
	Filename     string     `json:"filename"`
	ContentType  string     `json:"content_type"`
	SourceBytes  []byte     `json:"-"`
	ObjectName   string     `json:"object_name,omitempty"`
	UploadTarget string     `json:"-"`
	Status       TaskStatus `json:"status"`
	Attempts     int        `json:"attempts"`
	MaxAttempts  int        `json:"max_attempts"`
	Retryable    bool       `json:"retryable"`
	LastError    *TaskError `json:"last_error,omitempty"`
}

// newTask builds a pending task for one artifact.
func newTask(kind TaskKind, filename, contentType string, data []byte) *Task {
	return &Task{
		Kind:        kind,
		Filename:    filename,
		ContentType: contentType,
		SourceBytes: data,
		Status:      StatusPending,
		MaxAttempts: defaultMaxAttempts,
	}
}

// failImmediately marks a task as terminally failed without any network
// attempt. Used for thumbnails whose derivation failed locally.
func (t *Task) failImmediately(reason string) {
	t.Status = StatusFailed
	t.Retryable = false
	t.LastError = &TaskError{Reason: reason}
}
