package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/orb-loader/internal/csvsource"
	"github.com/dvloznov/orb-loader/internal/orb"
)

// sliceSource feeds rows from a slice, mimicking the CSV reader.
type sliceSource struct {
	rows []*csvsource.TransactionRow
	i    int
}

func (s *sliceSource) Next() (*csvsource.TransactionRow, error) {
	if s.i >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.i]
	s.i++
	return row, nil
}

// fakeCustomers is an in-memory CustomerService. Unknown external ids
// report not-found; created customers are NOT remembered, matching the
// platform-is-authoritative model where each row re-resolves.
type fakeCustomers struct {
	existing   map[string]*orb.Customer
	fetchErr   error
	createErr  error
	fetchCalls int
	created    []orb.CustomerCreateParams
}

func (f *fakeCustomers) FetchByExternalID(ctx context.Context, externalID string) (*orb.Customer, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if c, ok := f.existing[externalID]; ok {
		return c, nil
	}
	return nil, &orb.NotFoundError{Body: `{"status":404}`}
}

func (f *fakeCustomers) Create(ctx context.Context, params orb.CustomerCreateParams) (*orb.Customer, error) {
	f.created = append(f.created, params)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &orb.Customer{
		ID:                 "cus_" + params.ExternalCustomerID,
		ExternalCustomerID: params.ExternalCustomerID,
		Name:               params.Name,
		Email:              params.Email,
	}, nil
}

type fakeEvents struct {
	ingestErr error
	batches   [][]orb.Event
}

func (f *fakeEvents) Ingest(ctx context.Context, events []orb.Event) (*orb.IngestResponse, error) {
	f.batches = append(f.batches, events)
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	return &orb.IngestResponse{}, nil
}

func sampleRow() *csvsource.TransactionRow {
	return &csvsource.TransactionRow{
		AccountID:     "acme_corp",
		TransactionID: "T1",
		AccountType:   "checking",
		BankID:        "B9",
		Standard:      "1,000",
		Sameday:       "",
		Month:         "2024-01",
	}
}

func newTestLoader(customers CustomerService, events EventService, opts ...Option) *Loader {
	base := []Option{
		WithThrottleInterval(0),
		WithClock(func() time.Time { return time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC) }),
	}
	return NewLoader(customers, events, append(base, opts...)...)
}

func TestRun_CreatesCustomerAndIngests(t *testing.T) {
	customers := &fakeCustomers{}
	events := &fakeEvents{}
	loader := newTestLoader(customers, events)

	report, err := loader.Run(context.Background(), &sliceSource{rows: []*csvsource.TransactionRow{sampleRow()}})
	require.NoError(t, err)

	// One creation call, one ingestion call.
	require.Len(t, customers.created, 1)
	assert.Equal(t, "acme_corp", customers.created[0].ExternalCustomerID)
	assert.Equal(t, "Acme Corp", customers.created[0].Name)
	assert.Equal(t, "admin@acme-corp.com", customers.created[0].Email)
	assert.NotEmpty(t, customers.created[0].IdempotencyKey)

	require.Len(t, events.batches, 1)
	require.Len(t, events.batches[0], 1)
	ev := events.batches[0][0]
	assert.Equal(t, "cus_acme_corp", ev.CustomerID)
	assert.Equal(t, "payment_transaction", ev.EventName)
	assert.Equal(t, int64(1000), ev.Properties["standard"])
	assert.Equal(t, int64(0), ev.Properties["sameday"])
	assert.Equal(t, "T1", ev.Properties["transaction_id"])
	assert.Equal(t, "checking", ev.Properties["account_type"])
	assert.Equal(t, "B9", ev.Properties["bank_id"])
	assert.Equal(t, "2024-01", ev.Properties["month"])
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), ev.Timestamp)

	assert.Equal(t, 1, report.Rows)
	assert.Equal(t, 1, report.Ingested)
	assert.Equal(t, 0, report.Failed)
	assert.True(t, report.AllSucceeded())
}

func TestRun_ExistingCustomerNotRecreated(t *testing.T) {
	customers := &fakeCustomers{
		existing: map[string]*orb.Customer{
			"acme_corp": {ID: "cus_123", ExternalCustomerID: "acme_corp"},
		},
	}
	events := &fakeEvents{}
	loader := newTestLoader(customers, events)

	_, err := loader.Run(context.Background(), &sliceSource{rows: []*csvsource.TransactionRow{sampleRow()}})
	require.NoError(t, err)

	assert.Empty(t, customers.created, "existing customer must not be recreated")
	require.Len(t, events.batches, 1)
	assert.Equal(t, "cus_123", events.batches[0][0].CustomerID)
}

func TestRun_NoInRunCustomerCache(t *testing.T) {
	row2 := sampleRow()
	row2.TransactionID = "T2"

	customers := &fakeCustomers{
		existing: map[string]*orb.Customer{
			"acme_corp": {ID: "cus_123", ExternalCustomerID: "acme_corp"},
		},
	}
	events := &fakeEvents{}
	loader := newTestLoader(customers, events)

	_, err := loader.Run(context.Background(), &sliceSource{rows: []*csvsource.TransactionRow{sampleRow(), row2}})
	require.NoError(t, err)

	// Each row independently resolves.
	assert.Equal(t, 2, customers.fetchCalls)
}

func TestRun_IdempotencyKeysUnique(t *testing.T) {
	rows := make([]*csvsource.TransactionRow, 5)
	for i := range rows {
		r := sampleRow()
		r.TransactionID = fmt.Sprintf("T%d", i+1)
		rows[i] = r
	}

	customers := &fakeCustomers{}
	events := &fakeEvents{}
	loader := newTestLoader(customers, events)

	_, err := loader.Run(context.Background(), &sliceSource{rows: rows})
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, p := range customers.created {
		assert.False(t, seen[p.IdempotencyKey], "duplicate idempotency key %s", p.IdempotencyKey)
		seen[p.IdempotencyKey] = true
	}
	for _, batch := range events.batches {
		for _, ev := range batch {
			assert.False(t, seen[ev.IdempotencyKey], "duplicate idempotency key %s", ev.IdempotencyKey)
			seen[ev.IdempotencyKey] = true
		}
	}
}

func TestRun_FatalResolutionErrors(t *testing.T) {
	tests := []struct {
		name     string
		fetchErr error
	}{
		{name: "connectivity", fetchErr: &orb.ConnectionError{Err: errors.New("dial tcp: connection refused")}},
		{name: "rate limited", fetchErr: &orb.RateLimitError{Body: `{"status":429}`}},
		{name: "other status", fetchErr: &orb.StatusError{StatusCode: 500, Body: `{"status":500}`}},
		{name: "unexpected", fetchErr: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row2 := sampleRow()
			row2.TransactionID = "T2"

			customers := &fakeCustomers{fetchErr: tt.fetchErr}
			events := &fakeEvents{}
			loader := newTestLoader(customers, events)

			report, err := loader.Run(context.Background(), &sliceSource{rows: []*csvsource.TransactionRow{sampleRow(), row2}})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.fetchErr)

			// No event for the failing row or any subsequent row.
			assert.Empty(t, events.batches)
			assert.Equal(t, 1, customers.fetchCalls)
			assert.Equal(t, 0, report.Ingested)
		})
	}
}

func TestRun_FatalCreationErrors(t *testing.T) {
	customers := &fakeCustomers{createErr: &orb.StatusError{StatusCode: 400, Body: `{"status":400}`}}
	events := &fakeEvents{}
	loader := newTestLoader(customers, events)

	_, err := loader.Run(context.Background(), &sliceSource{rows: []*csvsource.TransactionRow{sampleRow()}})
	require.Error(t, err)
	assert.Empty(t, events.batches)
}

func TestRun_IngestionErrorsAreSoft(t *testing.T) {
	tests := []struct {
		name      string
		ingestErr error
	}{
		{name: "connectivity", ingestErr: &orb.ConnectionError{Err: errors.New("dial tcp: connection refused")}},
		{name: "rate limited", ingestErr: &orb.RateLimitError{Body: `{"status":429}`}},
		{name: "other status", ingestErr: &orb.StatusError{StatusCode: 500, Body: `{"status":500}`}},
		{name: "unexpected", ingestErr: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row2 := sampleRow()
			row2.TransactionID = "T2"

			customers := &fakeCustomers{}
			events := &fakeEvents{ingestErr: tt.ingestErr}
			loader := newTestLoader(customers, events)

			report, err := loader.Run(context.Background(), &sliceSource{rows: []*csvsource.TransactionRow{sampleRow(), row2}})
			require.NoError(t, err, "ingestion failures must not abort the run")

			// Both rows were attempted.
			assert.Len(t, events.batches, 2)
			assert.Equal(t, 2, report.Rows)
			assert.Equal(t, 0, report.Ingested)
			assert.Equal(t, 2, report.Failed)
			assert.Equal(t, []string{"T1", "T2"}, report.FailedTransactions)
			assert.False(t, report.AllSucceeded())
		})
	}
}

func TestRun_MalformedAmountIsFatal(t *testing.T) {
	row := sampleRow()
	row.Standard = "not-a-number"

	customers := &fakeCustomers{}
	events := &fakeEvents{}
	loader := newTestLoader(customers, events)

	_, err := loader.Run(context.Background(), &sliceSource{rows: []*csvsource.TransactionRow{row}})
	require.Error(t, err)
	assert.Empty(t, events.batches)
}

func TestRun_CustomEventName(t *testing.T) {
	customers := &fakeCustomers{}
	events := &fakeEvents{}
	loader := newTestLoader(customers, events, WithEventName("wire_transfer"))

	_, err := loader.Run(context.Background(), &sliceSource{rows: []*csvsource.TransactionRow{sampleRow()}})
	require.NoError(t, err)
	require.Len(t, events.batches, 1)
	assert.Equal(t, "wire_transfer", events.batches[0][0].EventName)
}

func TestRun_EmptySource(t *testing.T) {
	loader := newTestLoader(&fakeCustomers{}, &fakeEvents{})

	report, err := loader.Run(context.Background(), &sliceSource{})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Rows)
	assert.True(t, report.AllSucceeded())
}

func TestRun_ThrottlePacesRows(t *testing.T) {
	rows := []*csvsource.TransactionRow{sampleRow(), sampleRow(), sampleRow()}

	customers := &fakeCustomers{
		existing: map[string]*orb.Customer{
			"acme_corp": {ID: "cus_123", ExternalCustomerID: "acme_corp"},
		},
	}
	loader := NewLoader(customers, &fakeEvents{}, WithThrottleInterval(20*time.Millisecond))

	start := time.Now()
	_, err := loader.Run(context.Background(), &sliceSource{rows: rows})
	require.NoError(t, err)

	// Three waits against a 20ms limiter with burst 1: the first token is
	// available immediately, the rest are spaced out.
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestOrbClientSatisfiesInterfaces(t *testing.T) {
	client := orb.NewClient("test-key")
	defer client.Close()

	var _ CustomerService = client.Customers
	var _ EventService = client.Events
}
