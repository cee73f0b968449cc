package uploader

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

// BatchRequest is one upload invocation: the source files plus the shared
// catalog metadata and optional notification hooks. OnProgress may fire many
// times; OnComplete and OnError fire at most once each.
type BatchRequest struct {
	Files          []SourceFile `validate:"required,min=1"`
	PhotographerID int          `validate:"required,min=1"`
	Price          float64      `validate:"min=0"`
	Description    string
	AlbumID        *int

	OnProgress func(ProgressUpdate)
	OnComplete func(*BatchResult)
	OnError    func(error)
}

// Pipeline wires the whole client-side flow: preprocess, credential
// acquisition, bounded concurrent transfer, progress aggregation and
// catalog reconciliation. A Pipeline is stateless across Run calls; two
// concurrent batches share nothing but the HTTP client.
type Pipeline struct {
	broker      CredentialBroker
	catalog     CatalogCompleter
	pre         Preprocessor
	client      *http.Client
	concurrency int
	validate    *validator.Validate
}

// Option tweaks pipeline construction.
type Option func(*Pipeline)

// WithConcurrency overrides the worker pool width (default 3).
func WithConcurrency(n int) Option {
	return func(p *Pipeline) { p.concurrency = n }
}

// WithHTTPClient overrides the transfer client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Pipeline) { p.client = c }
}

// WithPreprocessor overrides the media preprocessor.
func WithPreprocessor(pre Preprocessor) Option {
	return func(p *Pipeline) { p.pre = pre }
}

// NewPipeline builds a pipeline around the two backend collaborators.
func NewPipeline(broker CredentialBroker, catalog CatalogCompleter, opts ...Option) *Pipeline {
	p := &Pipeline{
		broker:      broker,
		catalog:     catalog,
		pre:         NewImagePreprocessor(),
		client:      &http.Client{Timeout: 2 * time.Minute},
		concurrency: defaultConcurrency,
		validate:    validator.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one batch to its terminal result. Credential failure for
// originals and a zero-successful-originals outcome are returned as errors;
// every other failure is absorbed into the result's FailedFiles ledger.
// Cancelling ctx settles remaining tasks as failed and still reconciles
// whatever already uploaded.
func (p *Pipeline) Run(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	if err := p.validate.Struct(req); err != nil {
		return nil, p.reject(req, fmt.Errorf("invalid batch request: %w", err))
	}

	originals, thumbnails, owners, birthFailures, err := p.buildTasks(ctx, req)
	if err != nil {
		return nil, p.reject(req, err)
	}

	dispatch := interleave(originals, thumbnails, owners)

	var total int64
	for _, t := range dispatch {
		total += int64(len(t.SourceBytes))
	}
	tracker := NewTracker(total, req.OnProgress)

	slog.Info("upload batch started",
		slog.Int("originals", len(originals)),
		slog.Int("thumbnails", len(thumbnails)),
		slog.Int64("total_bytes", total))

	pool := NewPool(p.client, p.concurrency, tracker)
	pool.Run(ctx, dispatch)

	ledger := append(dispatch, birthFailures...)
	meta := BatchMetadata{
		PhotographerID: req.PhotographerID,
		Price:          req.Price,
		Description:    req.Description,
		AlbumID:        req.AlbumID,
	}

	// Reconciliation must survive a mid-batch cancel: whatever uploaded
	// before the cancel still gets registered in the catalog.
	result, err := Reconcile(context.WithoutCancel(ctx), ledger, meta, p.catalog)
	if err != nil {
		if req.OnError != nil {
			req.OnError(err)
		}
		return result, err
	}
	tracker.Finish()

	slog.Info("upload batch finished",
		slog.String("status", string(result.Status)),
		slog.Int("created", len(result.CreatedPhotos)),
		slog.Int("failed", len(result.FailedFiles)))

	if req.OnComplete != nil {
		req.OnComplete(result)
	}
	return result, nil
}

// buildTasks preprocesses every file and acquires credentials: one hard
// broker call for originals, one best-effort call for thumbnails. It returns
// dispatchable original and thumbnail tasks, the index of each thumbnail's
// owning original, and thumbnail tasks that failed at derivation and never
// touch the network.
func (p *Pipeline) buildTasks(ctx context.Context, req BatchRequest) (originals, thumbnails []*Task, owners []int, birthFailures []*Task, err error) {
	type prepared struct {
		file  SourceFile
		data  []byte
		thumb []byte
	}

	prepped := make([]prepared, 0, len(req.Files))
	items := make([]CredentialItem, 0, len(req.Files))
	for _, f := range req.Files {
		data, thumb := p.pre.Preprocess(f)
		prepped = append(prepped, prepared{file: f, data: data, thumb: thumb})
		items = append(items, CredentialItem{Filename: f.Name, ContentType: f.ContentType})
	}

	// Originals are a hard dependency: no partial credential state.
	creds, err := p.broker.RequestUploadURLs(ctx, items)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("credenciales de subida no disponibles: %w", err)
	}

	var thumbItems []CredentialItem
	var thumbOwners []int
	for i, pp := range prepped {
		t := newTask(KindOriginal, creds[i].OriginalFilename, pp.file.ContentType, pp.data)
		t.ObjectName = creds[i].ObjectName
		t.UploadTarget = creds[i].UploadURL
		originals = append(originals, t)

		if pp.thumb == nil {
			ft := newTask(KindThumbnail, creds[i].OriginalFilename, "image/jpeg", nil)
			ft.failImmediately("No se pudo generar la miniatura")
			birthFailures = append(birthFailures, ft)
			continue
		}
		thumbItems = append(thumbItems, CredentialItem{
			Filename:    creds[i].OriginalFilename,
			ContentType: "image/jpeg",
			ObjectName:  ThumbObjectName(creds[i].ObjectName),
		})
		thumbOwners = append(thumbOwners, i)
	}

	if len(thumbItems) > 0 {
		thumbCreds, terr := p.broker.RequestUploadURLs(ctx, thumbItems)
		if terr != nil {
			// Degraded but valid: the batch simply carries no thumbnails.
			slog.Warn("thumbnail credentials unavailable, continuing without thumbnails",
				slog.String("error", terr.Error()))
			return originals, nil, nil, birthFailures, nil
		}
		for j, tc := range thumbCreds {
			pp := prepped[thumbOwners[j]]
			t := newTask(KindThumbnail, tc.OriginalFilename, "image/jpeg", pp.thumb)
			t.ObjectName = tc.ObjectName
			t.UploadTarget = tc.UploadURL
			thumbnails = append(thumbnails, t)
		}
		owners = thumbOwners
	}

	return originals, thumbnails, owners, birthFailures, nil
}

// reject funnels a pre-transfer failure through the error hook.
func (p *Pipeline) reject(req BatchRequest, err error) error {
	if req.OnError != nil {
		req.OnError(err)
	}
	return err
}

// interleave alternates originals and thumbnails per source file so a batch
// makes visible progress on both artifact kinds from the start. Dispatch
// order still follows input file order. Thumbnails are paired to originals
// by owner index, not filename, so duplicate filenames in one batch keep
// their own thumbnail tasks.
func interleave(originals, thumbnails []*Task, owners []int) []*Task {
	byOwner := make(map[int]*Task, len(thumbnails))
	for j, t := range thumbnails {
		byOwner[owners[j]] = t
	}
	out := make([]*Task, 0, len(originals)+len(thumbnails))
	for i, o := range originals {
		out = append(out, o)
		if t, ok := byOwner[i]; ok {
			out = append(out, t)
		}
	}
	return out
}
