package types

// Photo is one catalog entry for a sellable event photograph.
type Photo struct {
	ID             int     `json:"id"`
	ObjectKey      string  `json:"object_key"`
	Filename       string  `json:"filename"`
	Description    string  `json:"description,omitempty"`
	Price          float64 `json:"price"`
	PhotographerID int     `json:"photographer_id"`
	AlbumID        *int    `json:"album_id,omitempty"`
	URL            string  `json:"url,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// Album groups the photos of one event or tour session.
type Album struct {
	ID             int    `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	EventDate      string `json:"event_date,omitempty"`
	PhotographerID int    `json:"photographer_id"`
	CreatedAt      string `json:"created_at"`
}

// PhotoCreate is one photo row to be inserted by the catalog-completion
// endpoint.
type PhotoCreate struct {
	ObjectKey      string
	Filename       string
	Description    string
	Price          float64
	PhotographerID int
	AlbumID        *int
}

// UploadURLFile is one file in a credential request. ObjectName is only set
// by callers that derive storage keys themselves (thumbnails).
type UploadURLFile struct {
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"contentType" validate:"required"`
	ObjectName  string `json:"objectName,omitempty"`
}

// UploadURLsRequest is the body of POST /request-upload-urls.
type UploadURLsRequest struct {
	Files []UploadURLFile `json:"files" validate:"required,min=1,dive"`
}

// UploadURL is one issued credential, order-aligned with the request.
type UploadURL struct {
	UploadURL        string `json:"upload_url"`
	ObjectName       string `json:"object_name"`
	OriginalFilename string `json:"original_filename"`
}

// UploadURLsResponse is answered by POST /request-upload-urls.
type UploadURLsResponse struct {
	URLs []UploadURL `json:"urls"`
}

// CompleteUploadPhoto is one uploaded original to register in the catalog.
type CompleteUploadPhoto struct {
	ObjectName       string  `json:"object_name" validate:"required"`
	OriginalFilename string  `json:"original_filename" validate:"required"`
	Description      string  `json:"description,omitempty"`
	Price            float64 `json:"price,omitempty"`
	PhotographerID   int     `json:"photographer_id" validate:"required,min=1"`
}

// CompleteUploadRequest is the body of POST /photos/complete-upload.
type CompleteUploadRequest struct {
	Photos  []CompleteUploadPhoto `json:"photos" validate:"required,min=1,dive"`
	AlbumID *int                  `json:"album_id,omitempty"`
}

// AlbumCreateRequest creates a new album.
type AlbumCreateRequest struct {
	Title          string `json:"title" validate:"required"`
	Description    string `json:"description,omitempty"`
	EventDate      string `json:"event_date,omitempty"`
	PhotographerID int    `json:"photographer_id" validate:"required,min=1"`
}

// SignUpRequest registers a photographer account.
type SignUpRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required"`
}

// SignInRequest authenticates a photographer.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
