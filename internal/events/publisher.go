package events

import (
	"log/slog"

	"github.com/omegonstudio/fotos-patagonia-sub000/internal/types"
)

// Publisher interface for publishing catalog events
type Publisher interface {
	PublishPhotoCreated(photo types.Photo) error
	PublishBatchCompleted(photographerID int, albumID *int, created int) error
}

// WebSocketHub interface for the WebSocket hub
type WebSocketHub interface {
	BroadcastAll(event *types.Event)
}

// Bus is an optional secondary sink mirroring events to downstream
// consumers (search indexing, notifications).
type Bus interface {
	PublishJSON(subject string, v any) error
}

// EventPublisher implements the Publisher interface
type EventPublisher struct {
	hub     WebSocketHub
	bus     Bus
	subject string
}

// NewEventPublisher creates a publisher over the websocket hub. bus may be
// nil when NATS mirroring is disabled.
func NewEventPublisher(hub WebSocketHub, bus Bus, subject string) *EventPublisher {
	return &EventPublisher{
		hub:     hub,
		bus:     bus,
		subject: subject,
	}
}

// PublishPhotoCreated broadcasts one newly cataloged photo.
func (p *EventPublisher) PublishPhotoCreated(photo types.Photo) error {
	event := types.NewEvent(types.EventPhotoCreated, &types.PhotoCreatedEvent{
		PhotoID:        photo.ID,
		ObjectKey:      photo.ObjectKey,
		AlbumID:        photo.AlbumID,
		PhotographerID: photo.PhotographerID,
	})

	p.hub.BroadcastAll(event)
	p.mirror(event)
	return nil
}

// PublishBatchCompleted broadcasts the terminal outcome of an upload batch.
func (p *EventPublisher) PublishBatchCompleted(photographerID int, albumID *int, created int) error {
	event := types.NewEvent(types.EventBatchCompleted, &types.BatchCompletedEvent{
		PhotographerID: photographerID,
		AlbumID:        albumID,
		PhotosCreated:  created,
	})

	p.hub.BroadcastAll(event)
	p.mirror(event)
	return nil
}

func (p *EventPublisher) mirror(event *types.Event) {
	if p.bus == nil {
		return
	}
	if err := p.bus.PublishJSON(p.subject+"."+string(event.Type), event); err != nil {
		// Mirroring is best-effort; the websocket broadcast already went out.
		slog.Warn("Failed to mirror event to bus",
			slog.String("type", string(event.Type)), slog.String("error", err.Error()))
	}
}
