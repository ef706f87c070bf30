package events

import (
	"encoding/json"
	"sync"
	"time"

	"trainerbook/internal/models"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
	EventBookingRejected  = "booking_rejected"
	EventBookingCompleted = "booking_completed"
)

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID   int64   `json:"booking_id"`
	TrainerID   int64   `json:"trainer_id"`
	ClientID    int64   `json:"client_id"`
	ClientName  string  `json:"client_name"`
	Date        string  `json:"date"`
	StartMinute int     `json:"start_minute"`
	EndMinute   int     `json:"end_minute"`
	Status      string  `json:"status"`
	Note        string  `json:"note,omitempty"`
	// CancelledIDs lists pending bookings cancelled by a confirmation cascade.
	CancelledIDs []int64 `json:"cancelled_ids,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}

// PayloadFromBooking builds an event payload from a booking snapshot.
func PayloadFromBooking(b *models.Booking, cancelledIDs []int64) BookingEventPayload {
	return BookingEventPayload{
		BookingID:    b.ID,
		TrainerID:    b.TrainerID,
		ClientID:     b.ClientID,
		ClientName:   b.ClientName,
		Date:         b.Date.Format("2006-01-02"),
		StartMinute:  int(b.StartMinute),
		EndMinute:    int(b.EndMinute),
		Status:       b.Status,
		Note:         b.Note,
		CancelledIDs: cancelledIDs,
	}
}
