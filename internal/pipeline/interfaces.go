package pipeline

import (
	"context"

	"github.com/dvloznov/orb-loader/internal/csvsource"
	"github.com/dvloznov/orb-loader/internal/orb"
)

// CustomerService is the subset of the billing API used to resolve or
// create customers. *orb.CustomerService satisfies it; tests use mocks.
type CustomerService interface {
	FetchByExternalID(ctx context.Context, externalID string) (*orb.Customer, error)
	Create(ctx context.Context, params orb.CustomerCreateParams) (*orb.Customer, error)
}

// EventService is the subset of the billing API used to ingest usage
// events. *orb.EventService satisfies it.
type EventService interface {
	Ingest(ctx context.Context, events []orb.Event) (*orb.IngestResponse, error)
}

// RowSource yields transaction rows in file order. Next returns io.EOF
// when the source is exhausted.
type RowSource interface {
	Next() (*csvsource.TransactionRow, error)
}
