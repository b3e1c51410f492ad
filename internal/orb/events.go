package orb

import (
	"context"
	"fmt"
	"net/http"
)

// EventService submits usage events to the ingestion endpoint.
type EventService struct {
	client *Client
}

type ingestRequest struct {
	Events []Event `json:"events"`
}

// Ingest submits a batch of usage events. The loader always sends batches
// of one; the endpoint accepts more.
func (s *EventService) Ingest(ctx context.Context, events []Event) (*IngestResponse, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("orb: at least one event is required")
	}

	var resp IngestResponse
	if err := s.client.do(ctx, http.MethodPost, "/ingest", "", ingestRequest{Events: events}, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}
