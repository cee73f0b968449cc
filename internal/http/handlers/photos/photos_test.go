package photos

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/omegonstudio/fotos-patagonia-sub000/internal/types"
)

type stubMedia struct{}

func (stubMedia) ValidateContentType(contentType string) bool {
	return contentType == "image/jpeg" || contentType == "image/png"
}
func (stubMedia) GenerateObjectKey(contentType string) string {
	return "photos/generated.jpg"
}
func (stubMedia) PresignedUploadURL(ctx context.Context, objectKey string) (string, error) {
	return "http://storage/put/" + objectKey, nil
}
func (stubMedia) GetMediaURL(objectKey string) string {
	return "http://storage/" + objectKey
}

type stubStorage struct {
	created []types.PhotoCreate
}

func (s *stubStorage) CreatePhotos(photos []types.PhotoCreate) ([]types.Photo, error) {
	s.created = append(s.created, photos...)
	out := make([]types.Photo, len(photos))
	for i, p := range photos {
		out[i] = types.Photo{ID: i + 1, ObjectKey: p.ObjectKey, Filename: p.Filename, PhotographerID: p.PhotographerID}
	}
	return out, nil
}
func (s *stubStorage) GetPhotos(albumID *int) ([]types.Photo, error) { return nil, nil }
func (s *stubStorage) GetAlbums() ([]types.Album, error)            { return nil, nil }
func (s *stubStorage) GetAlbumByID(albumID int) (types.Album, error) {
	return types.Album{}, nil
}
func (s *stubStorage) CreateAlbum(title, description, eventDate string, photographerID int) (int, error) {
	return 0, nil
}
func (s *stubStorage) CreateUser(email, password, displayName string) (string, error) {
	return "", nil
}
func (s *stubStorage) GetUserByEmail(email string) (string, string, error) { return "", "", nil }

func TestRequestUploadURLs(t *testing.T) {
	body := `{"files":[
		{"filename":"a.jpg","contentType":"image/jpeg"},
		{"filename":"b.jpg","contentType":"image/jpeg","objectName":"photos/thumb_custom.jpg"}
	]}`

	req := httptest.NewRequest(http.MethodPost, "/request-upload-urls", strings.NewReader(body))
	w := httptest.NewRecorder()
	RequestUploadURLs(stubMedia{})(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp types.UploadURLsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.URLs) != 2 {
		t.Fatalf("got %d urls, want 2", len(resp.URLs))
	}
	if resp.URLs[0].OriginalFilename != "a.jpg" || resp.URLs[1].OriginalFilename != "b.jpg" {
		t.Errorf("urls out of input order: %+v", resp.URLs)
	}
	if resp.URLs[0].ObjectName != "photos/generated.jpg" {
		t.Errorf("first object name = %q, want a generated key", resp.URLs[0].ObjectName)
	}
	if resp.URLs[1].ObjectName != "photos/thumb_custom.jpg" {
		t.Errorf("caller-supplied object name not honored: %q", resp.URLs[1].ObjectName)
	}
}

func TestRequestUploadURLsRejectsBadContentType(t *testing.T) {
	body := `{"files":[{"filename":"a.exe","contentType":"application/octet-stream"}]}`

	req := httptest.NewRequest(http.MethodPost, "/request-upload-urls", strings.NewReader(body))
	w := httptest.NewRecorder()
	RequestUploadURLs(stubMedia{})(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestRequestUploadURLsEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/request-upload-urls", bytes.NewReader(nil))
	w := httptest.NewRecorder()
	RequestUploadURLs(stubMedia{})(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestCompleteUploadReturnsBareArray(t *testing.T) {
	storage := &stubStorage{}
	body := `{"photos":[
		{"object_name":"photos/a.jpg","original_filename":"a.jpg","price":12.5,"photographer_id":7},
		{"object_name":"photos/b.jpg","original_filename":"b.jpg","price":12.5,"photographer_id":7}
	],"album_id":3}`

	req := httptest.NewRequest(http.MethodPost, "/photos/complete-upload", strings.NewReader(body))
	w := httptest.NewRecorder()
	CompleteUpload(storage, nil, nil)(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	// The client decodes a bare JSON array, not the response envelope.
	var created []types.Photo
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("response is not a bare array: %v: %s", err, w.Body.String())
	}
	if len(created) != 2 {
		t.Fatalf("created = %d, want 2", len(created))
	}

	if len(storage.created) != 2 {
		t.Fatalf("storage rows = %d, want 2", len(storage.created))
	}
	if storage.created[0].AlbumID == nil || *storage.created[0].AlbumID != 3 {
		t.Errorf("album id not propagated: %+v", storage.created[0])
	}
}

func TestCompleteUploadValidation(t *testing.T) {
	storage := &stubStorage{}

	req := httptest.NewRequest(http.MethodPost, "/photos/complete-upload", strings.NewReader(`{"photos":[]}`))
	w := httptest.NewRecorder()
	CompleteUpload(storage, nil, nil)(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(storage.created) != 0 {
		t.Error("storage written for an invalid request")
	}
}
