package storage

import "github.com/omegonstudio/fotos-patagonia-sub000/internal/types"

type Storage interface {
	CreatePhotos(photos []types.PhotoCreate) ([]types.Photo, error)
	GetPhotos(albumID *int) ([]types.Photo, error)
	GetAlbums() ([]types.Album, error)
	GetAlbumByID(albumID int) (types.Album, error)
	CreateAlbum(title, description, eventDate string, photographerID int) (int, error)
	CreateUser(email, password, displayName string) (string, error)
	GetUserByEmail(email string) (string, string, error)
}
