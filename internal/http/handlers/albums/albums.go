package albums

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/storage"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/types"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/utils/response"
)

// AlbumLister serves the listing endpoint, usually the cache service.
type AlbumLister interface {
	GetAlbums(ctx context.Context) ([]types.Album, error)
}

// PhotoLister serves the per-album photo listing, usually the cache service.
type PhotoLister interface {
	GetPhotos(ctx context.Context, albumID *int) ([]types.Photo, error)
}

// MediaURLer resolves object keys to public URLs.
type MediaURLer interface {
	GetMediaURL(objectKey string) string
}

// ListAlbums lists all albums
// @Summary List albums
// @Tags albums
// @Produce json
// @Success 200 {object} response.Response "Albums fetched successfully"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /albums [get]
func ListAlbums(lister AlbumLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		albums, err := lister.GetAlbums(r.Context())
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Albums fetched successfully", albums))
	}
}

// CreateAlbum creates a new album
// @Summary Create a new album
// @Tags albums
// @Accept json
// @Produce json
// @Param album body types.AlbumCreateRequest true "Album details"
// @Success 201 {object} map[string]int "Album created successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /albums [post]
func CreateAlbum(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.AlbumCreateRequest

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

		albumID, err := storage.CreateAlbum(req.Title, req.Description, req.EventDate, req.PhotographerID)
		if err != nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}
		slog.Info("Album created", slog.Int("album_id", albumID))

		response.WriteJSON(w, http.StatusCreated, map[string]int{"id": albumID})
	}
}

// AlbumPhotos lists the photos of one album
// @Summary List photos of an album
// @Tags albums
// @Produce json
// @Param id path int true "Album ID"
// @Success 200 {object} response.Response "Photos fetched successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 404 {object} response.Response "Album not found"
// @Failure 500 {object} response.Response "Internal server error"
// @Router /albums/{id}/photos [get]
func AlbumPhotos(storage storage.Storage, lister PhotoLister, media MediaURLer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		albumID, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid album id")))
			return
		}

		if _, err := storage.GetAlbumByID(albumID); err != nil {
			response.WriteJSON(w, http.StatusNotFound, response.GeneralError(errors.New("album not found")))
			return
		}

		photos, err := lister.GetPhotos(r.Context(), &albumID)
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
