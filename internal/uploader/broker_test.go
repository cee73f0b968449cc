package uploader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestThumbObjectName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photos/abc.jpg", "photos/thumb_abc.jpg"},
		{"abc.jpg", "thumb_abc.jpg"},
		{"photos/thumb_abc.jpg", "photos/thumb_abc.jpg"},
		{"photos/thumb_thumb_abc.jpg", "photos/thumb_abc.jpg"},
		{"events/2026/xyz.png", "events/2026/thumb_xyz.png"},
	}

	for _, tt := range tests {
		if got := ThumbObjectName(tt.in); got != tt.want {
			t.Errorf("ThumbObjectName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHTTPBrokerRequestUploadURLs(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/request-upload-urls" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")

		var req uploadURLsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		urls := make([]UploadCredential, 0, len(req.Files))
		for i, f := range req.Files {
			urls = append(urls, UploadCredential{
				UploadURL:        "http://storage/put/" + f.Filename,
				ObjectName:       "photos/obj-" + f.Filename,
				OriginalFilename: req.Files[i].Filename,
			})
		}
		json.NewEncoder(w).Encode(uploadURLsResponse{URLs: urls})
	}))
	defer server.Close()

	broker := NewHTTPBroker(server.URL, "tok123", nil)
	creds, err := broker.RequestUploadURLs(context.Background(), []CredentialItem{
		{Filename: "a.jpg", ContentType: "image/jpeg"},
		{Filename: "b.jpg", ContentType: "image/jpeg"},
	})
	if err != nil {
		t.Fatalf("RequestUploadURLs failed: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization header = %q, want bearer token", gotAuth)
	}
	if len(creds) != 2 {
		t.Fatalf("got %d credentials, want 2", len(creds))
	}
	if creds[0].OriginalFilename != "a.jpg" || creds[1].OriginalFilename != "b.jpg" {
		t.Errorf("credentials out of order: %+v", creds)
	}
}

func TestHTTPBrokerCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(uploadURLsResponse{URLs: []UploadCredential{{UploadURL: "x"}}})
	}))
	defer server.Close()

	broker := NewHTTPBroker(server.URL, "", nil)
	_, err := broker.RequestUploadURLs(context.Background(), []CredentialItem{
		{Filename: "a.jpg", ContentType: "image/jpeg"},
		{Filename: "b.jpg", ContentType: "image/jpeg"},
	})
	if err == nil {
		t.Fatal("expected error on credential count mismatch")
	}
}

func TestHTTPBrokerServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	broker := NewHTTPBroker(server.URL, "", nil)
	_, err := broker.RequestUploadURLs(context.Background(), []CredentialItem{
		{Filename: "a.jpg", ContentType: "image/jpeg"},
	})
	if err == nil {
		t.Fatal("expected error on 500 response")
	}
}
