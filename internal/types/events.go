package types

import "time"

// EventType represents the type of real-time catalog event
type EventType string

const (
	EventPhotoCreated   EventType = "photo.created"
	EventBatchCompleted EventType = "batch.completed"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// PhotoCreatedEvent fires once per photo registered by complete-upload
type PhotoCreatedEvent struct {
	PhotoID        int    `json:"photo_id"`
	ObjectKey      string `json:"object_key"`
	AlbumID        *int   `json:"album_id,omitempty"`
	PhotographerID int    `json:"photographer_id"`
}

// BatchCompletedEvent fires once per completed upload batch
type BatchCompletedEvent struct {
	PhotographerID int  `json:"photographer_id"`
	AlbumID        *int `json:"album_id,omitempty"`
	PhotosCreated  int  `json:"photos_created"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
