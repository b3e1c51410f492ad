package orb

import (
	"time"
)

// Customer is a billing-platform customer. The platform assigns ID; the
// external customer id is ours (the input file's account_id).
type Customer struct {
	ID                 string `json:"id"`
	ExternalCustomerID string `json:"external_customer_id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
}

// CustomerCreateParams carries the fields submitted when creating a customer.
// IdempotencyKey is sent as a request header, not in the body.
type CustomerCreateParams struct {
	ExternalCustomerID string `json:"external_customer_id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	IdempotencyKey     string `json:"-"`
}

// Event is one usage event submitted to the ingestion endpoint. Timestamp
// must be UTC; it marshals to ISO-8601. The idempotency key lets the
// platform deduplicate a retried delivery.
type Event struct {
	CustomerID     string         `json:"customer_id"`
	Timestamp      time.Time      `json:"timestamp"`
	IdempotencyKey string         `json:"idempotency_key"`
	EventName      string         `json:"event_name"`
	Properties     map[string]any `json:"properties"`
}

// IngestResponse echoes the platform's per-batch validation result.
type IngestResponse struct {
	ValidationFailed []ValidationFailure `json:"validation_failed"`
	Debug            *IngestDebug        `json:"debug,omitempty"`
}

// ValidationFailure identifies an event the platform rejected.
type ValidationFailure struct {
	IdempotencyKey   string   `json:"idempotency_key"`
	ValidationErrors []string `json:"validation_errors"`
}

// IngestDebug is returned when debug mode is enabled on the ingest call.
type IngestDebug struct {
	Duplicate []string `json:"duplicate"`
	Ingested  []string `json:"ingested"`
}
