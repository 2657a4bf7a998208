// Package events publishes notifications about settlement changes so other
// services (notifications, exports) can react without polling.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event types, also used as routing keys.
const (
	TypeRecomputed = "settlements.recomputed"
	TypeSettled    = "settlements.settled"
)

// Event describes a committed change to a group's settlements.
type Event struct {
	Type      string    `json:"type"`
	GroupID   string    `json:"group_id"`
	Timestamp time.Time `json:"timestamp"`

	// SettlementIDs are the rows written (recomputed) or flipped (settled).
	SettlementIDs []string `json:"settlement_ids,omitempty"`

	// PreservedCount is the number of settled rows a recompute kept.
	PreservedCount int `json:"preserved_count,omitempty"`
}

// NewEvent builds an event stamped with the current time.
func NewEvent(eventType, groupID string, settlementIDs []string) *Event {
	return &Event{
		Type:          eventType,
		GroupID:       groupID,
		Timestamp:     time.Now().UTC(),
		SettlementIDs: settlementIDs,
	}
}

// ToJSON converts the event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes an event published by ToJSON.
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Publisher delivers events. Publish is called after the change is
// committed; a failure must not undo the change.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *Event) error { return nil }
func (NopPublisher) Close() error                          { return nil }
