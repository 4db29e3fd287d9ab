package firestore

import (
	"context"
	"encoding/json"
	"fmt"

	"commerce-service/internal/domain"

	"cloud.google.com/go/firestore"
)

// Sink appends events as documents keyed by event id, so a retried write overwrites itself.
type Sink struct {
	client     *firestore.Client
	collection string
}

func NewSink(ctx context.Context, projectID, collection string) (*Sink, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore: new client: %w", err)
	}
	if collection == "" {
		collection = "events"
	}
	return &Sink{client: client, collection: collection}, nil
}

func (s *Sink) Write(ctx context.Context, evt domain.Event) error {
	doc, err := toDocument(evt)
	if err != nil {
		return err
	}
	if _, err := s.client.Collection(s.collection).Doc(evt.ID).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore: write event %s: %w", evt.ID, err)
	}
	return nil
}

func (s *Sink) Close() error {
	return s.client.Close()
}

// toDocument flattens the payload through JSON; decimal amounts become strings.
func toDocument(evt domain.Event) (map[string]any, error) {
	var payload map[string]any
	if evt.Payload != nil {
		raw, err := json.Marshal(evt.Payload)
		if err != nil {
			return nil, fmt.Errorf("firestore: encode payload: %w", err)
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("firestore: payload must be an object: %w", err)
		}
	}
	return map[string]any{
		"id":        evt.ID,
		"event":     evt.Name,
		"version":   evt.Version,
		"timestamp": evt.Timestamp,
		"origin":    evt.Origin,
		"payload":   payload,
	}, nil
}
