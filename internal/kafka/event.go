package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	EventAccountRegistered    = "account_registered"
	EventAccountStatusChanged = "account_status_changed"
	EventTripCreated          = "trip_created"
	EventTripStatusChanged    = "trip_status_changed"
	EventTripDeleted          = "trip_deleted"
	EventSeatStatusChanged    = "seat_status_changed"
)

type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	AggregateID string    `json:"aggregateId"`
	CompanyID   string    `json:"companyId,omitempty"`
	Email       string    `json:"email,omitempty"`
	Name        string    `json:"name,omitempty"`
	Status      string    `json:"status,omitempty"`
	Seat        int       `json:"seat,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

func NewEvent(eventType, aggregateID string) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
	}
}

// IsAccountEvent reports whether the event also goes to the notifications topic.
func (e Event) IsAccountEvent() bool {
	return e.Type == EventAccountRegistered || e.Type == EventAccountStatusChanged
}

func DecodeEvent(msg kafka.Message) (Event, error) {
	var event Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return Event{}, fmt.Errorf("decode event at offset %d: %w", msg.Offset, err)
	}
	return event, nil
}
