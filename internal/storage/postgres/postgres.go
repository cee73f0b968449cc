package postgres

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/config"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/types"
)

type Postgres struct {
	Db *sql.DB
}

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.PGSQL.Host, cfg.PGSQL.Port, cfg.PGSQL.User, cfg.PGSQL.Password, cfg.PGSQL.DBName, cfg.PGSQL.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		return nil, err
	}

	log.Println("Connected to Postgres database")

	pg := &Postgres{Db: db}
	err = pg.CreateTables()
	if err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pg, nil
}

func (p *Postgres) CreateTables() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password TEXT NOT NULL,
			display_name VARCHAR(255) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS albums (
			id SERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			event_date DATE,
			photographer_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS photos (
			id SERIAL PRIMARY KEY,
			object_key VARCHAR(255) UNIQUE NOT NULL,
			filename VARCHAR(255) NOT NULL,
			description TEXT,
			price NUMERIC(10,2) NOT NULL DEFAULT 0,
			photographer_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			album_id INTEGER REFERENCES albums(id) ON DELETE SET NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
	}

	for _, q := range queries {
		if _, err := p.Db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

// CreatePhotos inserts one batch of photos in a single transaction so a
// partially applied complete-upload call never leaks rows.
func (p *Postgres) CreatePhotos(photos []types.PhotoCreate) ([]types.Photo, error) {
	tx, err := p.Db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `
	INSERT INTO photos (object_key, filename, description, price, photographer_id, album_id)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, created_at
	`

	created := make([]types.Photo, 0, len(photos))
	for _, ph := range photos {
		var id int
		var createdAt string
		err := tx.QueryRow(query, ph.ObjectKey, ph.Filename, ph.Description, ph.Price, ph.PhotographerID, ph.AlbumID).
			Scan(&id, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("insert photo %s: %w", ph.Filename, err)
		}
		created = append(created, types.Photo{
			ID:             id,
			ObjectKey:      ph.ObjectKey,
			Filename:       ph.Filename,
			Description:    ph.Description,
			Price:          ph.Price,
			PhotographerID: ph.PhotographerID,
			AlbumID:        ph.AlbumID,
			CreatedAt:      createdAt,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return created, nil
}

func (p *Postgres) GetPhotos(albumID *int) ([]types.Photo, error) {
	query := `
	SELECT id, object_key, filename, COALESCE(description, ''), price, photographer_id, album_id, created_at
	FROM photos
	`
	args := []interface{}{}
	if albumID != nil {
		query += ` WHERE album_id = $1`
		args = append(args, *albumID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := p.Db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []types.Photo
	for rows.Next() {
		var ph types.Photo
		err := rows.Scan(&ph.ID, &ph.ObjectKey, &ph.Filename, &ph.Description, &ph.Price, &ph.PhotographerID, &ph.AlbumID, &ph.CreatedAt)
		if err != nil {
			return nil, err
		}
		photos = append(photos, ph)
	}

	return photos, rows.Err()
}

func (p *Postgres) GetAlbums() ([]types.Album, error) {
	query := `
	SELECT id, title, COALESCE(description, ''), COALESCE(event_date::text, ''), photographer_id, created_at
	FROM albums
	ORDER BY created_at DESC
	`

	rows, err := p.Db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var albums []types.Album
	for rows.Next() {
		var a types.Album
		err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.EventDate, &a.PhotographerID, &a.CreatedAt)
		if err != nil {
			return nil, err
		}
		albums = append(albums, a)
	}

	return albums, rows.Err()
}

func (p *Postgres) GetAlbumByID(albumID int) (types.Album, error) {
	query := `
	SELECT id, title, COALESCE(description, ''), COALESCE(event_date::text, ''), photographer_id, created_at
	FROM albums
	WHERE id = $1
	`

	var a types.Album
	err := p.Db.QueryRow(query, albumID).
		Scan(&a.ID, &a.Title, &a.Description, &a.EventDate, &a.PhotographerID, &a.CreatedAt)
	if err != nil {
		return types.Album{}, err
	}

	return a, nil
}

func (p *Postgres) CreateAlbum(title, description, eventDate string, photographerID int) (int, error) {
	var albumID int
	query := `
	INSERT INTO albums (title, description, event_date, photographer_id)
	VALUES ($1, $2, NULLIF($3, '')::date, $4)
	RETURNING id
	`

	err := p.Db.QueryRow(query, title, description, eventDate, photographerID).Scan(&albumID)
	if err != nil {
		return 0, err
	}

	return albumID, nil
}

func (p *Postgres) CreateUser(email, password, displayName string) (string, error) {
	var userID int
	query := `
	INSERT INTO users (email, password, display_name)
	VALUES ($1, $2, $3)
	RETURNING id
	`

	err := p.Db.QueryRow(query, email, password, displayName).Scan(&userID)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d", userID), nil
}

func (p *Postgres) GetUserByEmail(email string) (string, string, error) {
	var userID int
	var hashed string
	query := `SELECT id, password FROM users WHERE email = $1`

	err := p.Db.QueryRow(query, email).Scan(&userID, &hashed)
	if err != nil {
		return "", "", err
	}

	return fmt.Sprintf("%d", userID), hashed, nil
}
