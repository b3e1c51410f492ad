package orb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// CustomerService covers the customer operations used by the loader. The
// platform is authoritative for customer records; this service never
// updates an existing customer.
type CustomerService struct {
	client *Client
}

// FetchByExternalID looks up a customer by its external customer id.
// A NotFoundError means the customer does not exist yet.
func (s *CustomerService) FetchByExternalID(ctx context.Context, externalID string) (*Customer, error) {
	if externalID == "" {
		return nil, fmt.Errorf("orb: external customer id is required")
	}

	var cust Customer
	path := "/customers/external_customer_id/" + url.PathEscape(externalID)
	if err := s.client.do(ctx, http.MethodGet, path, "", nil, &cust); err != nil {
		return nil, err
	}

	return &cust, nil
}

// Create submits a new customer record. params.IdempotencyKey is sent as
// the Idempotency-Key header so a retried request cannot create twice.
func (s *CustomerService) Create(ctx context.Context, params CustomerCreateParams) (*Customer, error) {
	if params.ExternalCustomerID == "" {
		return nil, fmt.Errorf("orb: external customer id is required")
	}

	var cust Customer
	if err := s.client.do(ctx, http.MethodPost, "/customers", params.IdempotencyKey, params, &cust); err != nil {
		return nil, err
	}

	return &cust, nil
}
