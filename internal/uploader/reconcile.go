package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/omegonstudio/fotos-patagonia-sub000/internal/types"
)

// BatchStatus is the terminal outcome of a whole batch.
type BatchStatus string

const (
	BatchSuccess BatchStatus = "success"
	BatchPartial BatchStatus = "partial"
	BatchError   BatchStatus = "error"
)

// ErrNoOriginalsUploaded aborts reconciliation when not a single original
// made it to storage. The batch never silently succeeds with zero photos.
var ErrNoOriginalsUploaded = errors.New("ninguna foto original pudo subirse")

// FailedFile is one entry of the user-facing failure report.
type FailedFile struct {
	Filename  string   `json:"filename"`
	Kind      TaskKind `json:"kind"`
	Reason    string   `json:"reason"`
	Attempts  int      `json:"attempts"`
	Retryable bool     `json:"retryable"`
}

// BatchResult is the immutable terminal snapshot of a batch: overall status,
// the catalog entries actually created, the raw per-task ledger for
// diagnostics, and the deduplicated failure report.
type BatchResult struct {
	Status        BatchStatus   `json:"status"`
	CreatedPhotos []types.Photo `json:"created_photos"`
	Tasks         []*Task       `json:"tasks"`
	FailedFiles   []FailedFile  `json:"failed_files"`
}

// BatchMetadata is the shared catalog metadata for every photo in a batch,
// validated by the calling form, not by the pipeline.
type BatchMetadata struct {
	PhotographerID int
	Price          float64
	Description    string
	AlbumID        *int
}

// CompletedPhoto describes one successfully uploaded original submitted for
// catalog creation.
type CompletedPhoto struct {
	ObjectName       string  `json:"object_name"`
	OriginalFilename string  `json:"original_filename"`
	Description      string  `json:"description,omitempty"`
	Price            float64 `json:"price,omitempty"`
	PhotographerID   int     `json:"photographer_id"`
}

// CompleteUploadRequest is the body of POST /photos/complete-upload.
type CompleteUploadRequest struct {
	Photos  []CompletedPhoto `json:"photos"`
	AlbumID *int             `json:"album_id,omitempty"`
}

// CatalogCompleter registers uploaded originals as catalog photos.
type CatalogCompleter interface {
	CompleteUpload(ctx context.Context, req CompleteUploadRequest) ([]types.Photo, error)
}

// Reconcile converts a settled task ledger into a BatchResult. Successful
// originals are submitted to the catalog in one call; every non-successful
// task of either kind ends up in FailedFiles. It returns an error only for
// outcomes that fail the batch as a whole.
func Reconcile(ctx context.Context, tasks []*Task, meta BatchMetadata, completer CatalogCompleter) (*BatchResult, error) {
	failed := collectFailures(tasks)

	var photos []CompletedPhoto
	for _, t := range tasks {
		if t.Kind == KindOriginal && t.Status == StatusSuccess {
			photos = append(photos, CompletedPhoto{
				ObjectName:       t.ObjectName,
				OriginalFilename: t.Filename,
				Description:      meta.Description,
				Price:            meta.Price,
				PhotographerID:   meta.PhotographerID,
			})
		}
	}

	if len(photos) == 0 {
		return &BatchResult{Status: BatchError, Tasks: tasks, FailedFiles: failed}, ErrNoOriginalsUploaded
	}

	created, err := completer.CompleteUpload(ctx, CompleteUploadRequest{Photos: photos, AlbumID: meta.AlbumID})
	if err != nil {
		return &BatchResult{Status: BatchError, Tasks: tasks, FailedFiles: failed},
			fmt.Errorf("complete upload: %w", err)
	}

	status := BatchSuccess
	if len(failed) > 0 {
		status = BatchPartial
	}

	return &BatchResult{
		Status:        status,
		CreatedPhotos: created,
		Tasks:         tasks,
		FailedFiles:   failed,
	}, nil
}

// collectFailures builds the deduplicated per-file failure report, in ledger
// order. Pure function of task states.
func collectFailures(tasks []*Task) []FailedFile {
	seen := make(map[string]struct{}, len(tasks))
	var failed []FailedFile
	for _, t := range tasks {
		if t.Status == StatusSuccess {
			continue
		}
		key := t.Filename + "|" + string(t.Kind)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		reason := reasonGenericFail
		if t.LastError != nil {
			reason = t.LastError.Reason
		}
		failed = append(failed, FailedFile{
			Filename:  t.Filename,
			Kind:      t.Kind,
			Reason:    reason,
			Attempts:  t.Attempts,
			Retryable: t.Retryable,
		})
	}
	return failed
}

// Summary renders a short human-readable outcome line, e.g.
// "3 de 5 fotos subidas; 2 fallaron".
func (r *BatchResult) Summary() string {
	totalOriginals := 0
	for _, t := range r.Tasks {
		if t.Kind == KindOriginal {
			totalOriginals++
		}
	}
	return fmt.Sprintf("%d de %d fotos subidas; %d fallaron",
		len(r.CreatedPhotos), totalOriginals, len(r.FailedFiles))
}

// HTTPCatalog is the HTTP client for the catalog-completion endpoint.
type HTTPCatalog struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPCatalog creates a catalog client. client may be nil, in which case
// http.DefaultClient is used.
func NewHTTPCatalog(baseURL, token string, client *http.Client) *HTTPCatalog {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPCatalog{baseURL: strings.TrimSuffix(baseURL, "/"), token: token, client: client}
}

// CompleteUpload submits the uploaded originals and decodes the created
// photo entries.
func (c *HTTPCatalog) CompleteUpload(ctx context.Context, req CompleteUploadRequest) ([]types.Photo, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode complete upload request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/photos/complete-upload", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build complete upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("complete upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("complete upload: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var created []types.Photo
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode complete upload response: %w", err)
	}
	return created, nil
}
