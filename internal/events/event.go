package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

type Type string

const (
	MatchCreated      Type = "match.created"
	MatchUpdated      Type = "match.updated"
	MatchDeleted      Type = "match.deleted"
	MatchJoined       Type = "match.joined"
	MatchLeft         Type = "match.left"
	RatingCreated     Type = "rating.created"
	TiersRecalculated Type = "tiers.recalculated"
)

// Event is a domain notification emitted after a state change has committed.
// Key orders events of one aggregate (a match id, or a sport for tier runs).
type Event struct {
	Type       Type            `json:"type"`
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// New builds an event, marshalling payload to JSON.
func New(t Type, key string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: t, Key: key, Payload: raw, OccurredAt: time.Now().UTC()}, nil
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Fanout delivers each event to every sink and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
