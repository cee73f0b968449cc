package photos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/events"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/storage"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/types"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/utils/response"
)

// MediaService is the slice of the media service the photo handlers need.
type MediaService interface {
	ValidateContentType(contentType string) bool
	GenerateObjectKey(contentType string) string
	PresignedUploadURL(ctx context.Context, objectKey string) (string, error)
	GetMediaURL(objectKey string) string
}

// PhotoLister serves the listing endpoints, usually the cache service.
type PhotoLister interface {
	GetPhotos(ctx context.Context, albumID *int) ([]types.Photo, error)
}

// CacheInvalidator drops listing caches after catalog writes.
type CacheInvalidator interface {
	InvalidatePhotos(ctx context.Context, albumID *int)
}

// RequestUploadURLs issues presigned upload credentials
// @Summary Request presigned upload URLs
// @Description Issue one write-capable URL plus canonical object name per file, preserving input order
// @Tags photos
// @Accept json
// @Produce json
// @Param request body types.UploadURLsRequest true "Files to upload"
// @Success 200 {object} types.UploadURLsResponse "Upload URLs issued"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /request-upload-urls [post]
func RequestUploadURLs(media MediaService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.UploadURLsRequest

		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("request body cannot be empty")))
			return
		} else if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		validate := validator.New()
		err = validate.Struct(req)
		if err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		urls := make([]types.UploadURL, 0, len(req.Files))
		for _, f := range req.Files {
			if !media.ValidateContentType(f.ContentType) {
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(
					fmt.Errorf("content type %s is not allowed", f.ContentType)))
				return
			}

			objectKey := f.ObjectName
			if objectKey == "" {
				objectKey = media.GenerateObjectKey(f.ContentType)
			}

			uploadURL, err := media.PresignedUploadURL(r.Context(), objectKey)
			if err != nil {
				slog.Error("Failed to presign upload URL", slog.String("error", err.Error()))
				response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(
					errors.New("failed to generate upload URL")))
				return
			}

			urls = append(urls, types.UploadURL{
				UploadURL:        uploadURL,
				ObjectName:       objectKey,
				OriginalFilename: f.Filename,
			})
		}

		response.WriteJSON(w, http.StatusOK, types.UploadURLsResponse{URLs: urls})
	}
}

// CompleteUpload registers uploaded originals in the catalog
// @Summary Complete an upload batch
// @Description Insert the successfully uploaded originals as catalog photos and return the created entries
// @Tags photos
// @Accept json
// @Produce json
// @Param request body types.CompleteUploadRequest true "Uploaded photos"
// @Success 201 {array} types.Photo "Created photos"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /photos/complete-upload [post]
func CompleteUpload(storage storage.Storage, publisher events.Publisher, invalidator CacheInvalidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CompleteUploadRequest

		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("request body cannot be empty")))
			return
		} else if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		validate := validator.New()
		err = validate.Struct(req)
		if err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		rows := make([]types.PhotoCreate, 0, len(req.Photos))
		for _, ph := range req.Photos {
			rows = append(rows, types.PhotoCreate{
				ObjectKey:      ph.ObjectName,
				Filename:       ph.OriginalFilename,
				Description:    ph.Description,
				Price:          ph.Price,
				PhotographerID: ph.PhotographerID,
				AlbumID:        req.AlbumID,
			})
		}

		created, err := storage.CreatePhotos(rows)
		if err != nil {
			slog.Error("Failed to create photos", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}
		slog.Info("Upload batch completed", slog.Int("photos", len(created)))

		if invalidator != nil {
			invalidator.InvalidatePhotos(r.Context(), req.AlbumID)
		}
		if publisher != nil {
			for _, ph := range created {
				publisher.PublishPhotoCreated(ph)
			}
			publisher.PublishBatchCompleted(rows[0].PhotographerID, req.AlbumID, len(created))
		}

		// The client pipeline consumes this as a bare array of created
		// entries, not the usual response envelope.
		response.WriteJSON(w, http.StatusCreated, created)
	}
}

// ListPhotos lists catalog photos, optionally filtered by album
// @Summary List photos
// @Tags photos
// @Produce json
// @Param album_id query int false "Album ID"
// @Success 200 {object} response.Response "Photos fetched successfully"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /photos [get]
func ListPhotos(lister PhotoLister, media MediaService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var albumID *int
		if raw := r.URL.Query().Get("album_id"); raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil {
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid album_id")))
				return
			}
			albumID = &id
		}

		photos, err := lister.GetPhotos(r.Context(), albumID)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		for i := range photos {
			photos[i].URL = media.GetMediaURL(photos[i].ObjectKey)
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Photos fetched successfully", photos))
	}
}
