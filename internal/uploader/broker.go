package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
)

// thumbPrefix marks thumbnail objects. Applied to the base name of the
// original's object key so both artifacts live side by side in storage.
const thumbPrefix = "thumb_"

// CredentialItem is one file the broker should issue a write URL for.
// ObjectName is set only for thumbnails, where the key is derived from the
// original rather than generated server-side.
type CredentialItem struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	ObjectName  string `json:"objectName,omitempty"`
}

// UploadCredential is the broker's answer for one file, in input order.
type UploadCredential struct {
	UploadURL        string `json:"upload_url"`
	ObjectName       string `json:"object_name"`
	OriginalFilename string `json:"original_filename"`
}

// CredentialBroker obtains single-use, time-limited write URLs plus
// canonical object names for a set of files, preserving input order.
type CredentialBroker interface {
	RequestUploadURLs(ctx context.Context, items []CredentialItem) ([]UploadCredential, error)
}

// HTTPBroker talks to the fotos-service credential endpoint.
type HTTPBroker struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPBroker creates a broker client. client may be nil, in which case
// http.DefaultClient is used.
func NewHTTPBroker(baseURL, token string, client *http.Client) *HTTPBroker {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPBroker{baseURL: strings.TrimSuffix(baseURL, "/"), token: token, client: client}
}

type uploadURLsRequest struct {
	Files []CredentialItem `json:"files"`
}

type uploadURLsResponse struct {
	URLs []UploadCredential `json:"urls"`
}

// RequestUploadURLs asks the backend for one credential per item.
func (b *HTTPBroker) RequestUploadURLs(ctx context.Context, items []CredentialItem) ([]UploadCredential, error) {
	body, err := json.Marshal(uploadURLsRequest{Files: items})
	if err != nil {
		return nil, fmt.Errorf("encode upload urls request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/request-upload-urls", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build upload urls request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request upload urls: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("request upload urls: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed uploadURLsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode upload urls response: %w", err)
	}
	if len(parsed.URLs) != len(items) {
		return nil, fmt.Errorf("upload urls response has %d entries, expected %d", len(parsed.URLs), len(items))
	}

	return parsed.URLs, nil
}

// ThumbObjectName derives the storage key of a thumbnail from its original's
// object name. The prefix ends up applied exactly once even if an upstream
// caller already prefixed the base name, one or more times.
func ThumbObjectName(objectName string) string {
	dir, base := path.Split(objectName)
	for strings.HasPrefix(base, thumbPrefix) {
		base = strings.TrimPrefix(base, thumbPrefix)
	}
	return dir + thumbPrefix + base
}
