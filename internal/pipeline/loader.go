// Package pipeline drives the per-row reconciliation workflow: resolve or
// create the customer for each transaction row, submit one idempotent
// usage event, then throttle before the next row. Rows are processed
// strictly sequentially.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/dvloznov/orb-loader/internal/csvsource"
	"github.com/dvloznov/orb-loader/internal/logger"
	"github.com/dvloznov/orb-loader/internal/orb"
)

// DefaultEventName tags every usage event submitted by the loader.
const DefaultEventName = "payment_transaction"

// DefaultThrottleInterval is the pause after each row, keeping the run
// under the vendor's request-rate ceiling.
const DefaultThrottleInterval = 1500 * time.Millisecond

// Loader runs the ingestion workflow against a row source.
type Loader struct {
	customers CustomerService
	events    EventService
	limiter   *rate.Limiter
	eventName string
	now       func() time.Time
	newKey    func() string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEventName overrides the event name tag.
func WithEventName(name string) Option {
	return func(l *Loader) {
		l.eventName = name
	}
}

// WithThrottleInterval overrides the post-row pause. Zero disables
// throttling (used in tests).
func WithThrottleInterval(d time.Duration) Option {
	return func(l *Loader) {
		l.limiter = newLimiter(d)
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) {
		l.now = now
	}
}

// WithKeyGenerator overrides the idempotency key source.
func WithKeyGenerator(gen func() string) Option {
	return func(l *Loader) {
		l.newKey = gen
	}
}

// NewLoader creates a Loader over the given billing API services.
func NewLoader(customers CustomerService, events EventService, opts ...Option) *Loader {
	l := &Loader{
		customers: customers,
		events:    events,
		limiter:   newLimiter(DefaultThrottleInterval),
		eventName: DefaultEventName,
		now:       time.Now,
		newKey:    uuid.NewString,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Run processes every row from the source. Customer resolution failures
// abort the run and are returned to the caller; event ingestion failures
// are logged, counted in the report and the run continues. The returned
// report covers the rows processed up to the point of return.
func (l *Loader) Run(ctx context.Context, rows RowSource) (*Report, error) {
	log := logger.FromContext(ctx)
	report := &Report{}

	for {
		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return report, fmt.Errorf("read row: %w", err)
		}
		report.Rows++

		log.Debug().
			Str("account_id", row.AccountID).
			Str("transaction_id", row.TransactionID).
			Msg("Processing row")

		customer, err := l.resolveCustomer(ctx, row.AccountID)
		if err != nil {
			return report, err
		}

		event, err := l.buildEvent(customer, row)
		if err != nil {
			return report, err
		}

		log.Debug().
			Str("transaction_id", row.TransactionID).
			Str("idempotency_key", event.IdempotencyKey).
			Msg("Attempting to ingest event")

		resp, err := l.events.Ingest(ctx, []orb.Event{event})
		if err != nil {
			// Ingestion failures are per-row: log and move on.
			logAPIFailure(log, err, "Error ingesting event")
			log.Error().
				Str("transaction_id", row.TransactionID).
				Msg("Failed to ingest event for transaction")
			report.Failed++
			report.FailedTransactions = append(report.FailedTransactions, row.TransactionID)
		} else {
			report.Ingested++
			log.Debug().
				Str("transaction_id", row.TransactionID).
				Interface("response", resp).
				Msg("Successfully ingested event for transaction")
		}

		if err := l.limiter.Wait(ctx); err != nil {
			return report, fmt.Errorf("throttle wait: %w", err)
		}
	}

	return report, nil
}

// resolveCustomer looks the customer up by external id and creates it when
// absent. Any failure other than not-found is fatal for the run.
func (l *Loader) resolveCustomer(ctx context.Context, accountID string) (*orb.Customer, error) {
	log := logger.FromContext(ctx)

	log.Debug().Str("account_id", accountID).Msg("Checking for customer")

	customer, err := l.customers.FetchByExternalID(ctx, accountID)
	if err == nil {
		log.Debug().
			Str("account_id", accountID).
			Str("customer_id", customer.ID).
			Msg("Customer found")
		return customer, nil
	}

	if !orb.IsNotFound(err) {
		logAPIFailure(log, err, "Error fetching customer")
		return nil, fmt.Errorf("fetch customer %q: %w", accountID, err)
	}

	log.Debug().Str("account_id", accountID).Msg("Customer not found, creating new customer")

	created, err := l.customers.Create(ctx, orb.CustomerCreateParams{
		ExternalCustomerID: accountID,
		Name:               DisplayName(accountID),
		Email:              PlaceholderEmail(accountID),
		IdempotencyKey:     l.newKey(),
	})
	if err != nil {
		logAPIFailure(log, err, "Error creating customer")
		return nil, fmt.Errorf("create customer %q: %w", accountID, err)
	}

	log.Debug().
		Str("account_id", accountID).
		Str("customer_id", created.ID).
		Msg("Created customer")

	return created, nil
}

// buildEvent constructs the usage event for one row. Each event gets a
// fresh idempotency key and a UTC timestamp.
func (l *Loader) buildEvent(customer *orb.Customer, row *csvsource.TransactionRow) (orb.Event, error) {
	standard, err := csvsource.ParseAmount(row.Standard)
	if err != nil {
		return orb.Event{}, fmt.Errorf("transaction %q: standard: %w", row.TransactionID, err)
	}
	sameday, err := csvsource.ParseAmount(row.Sameday)
	if err != nil {
		return orb.Event{}, fmt.Errorf("transaction %q: sameday: %w", row.TransactionID, err)
	}

	return orb.Event{
		CustomerID:     customer.ID,
		Timestamp:      l.now().UTC(),
		IdempotencyKey: l.newKey(),
		EventName:      l.eventName,
		Properties: map[string]any{
			"transaction_id": row.TransactionID,
			"account_type":   row.AccountType,
			"bank_id":        row.BankID,
			"standard":       standard,
			"sameday":        sameday,
			"month":          row.Month,
		},
	}, nil
}

// logAPIFailure logs one error-level line per failure class with the
// diagnostics that class carries.
func logAPIFailure(log zerolog.Logger, err error, msg string) {
	var connErr *orb.ConnectionError
	var rateErr *orb.RateLimitError
	var statusErr *orb.StatusError

	switch {
	case errors.As(err, &connErr):
		log.Error().AnErr("cause", connErr.Err).Msg("The server could not be reached")
	case errors.As(err, &rateErr):
		log.Error().Msg("A 429 status code was received; back off and rerun later")
	case errors.As(err, &statusErr):
		log.Error().
			Int("status_code", statusErr.StatusCode).
			Str("response", statusErr.Body).
			Msg("A non-200-range status code was received")
	default:
		log.Error().Err(err).Msg(msg)
	}
}
