package store

import (
	"context"
	"errors"

	"github.com/logistia/einvoice/internal/model"
)

// Sentinel errors translated from the backing store
var (
	// ErrNotFound is returned when no row matches the lookup
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicate is returned when an insert violates a uniqueness
	// constraint. The constraints on (owner, series, sequence) and
	// (owner, external_reference) are the authoritative guards for
	// numbering and idempotency.
	ErrDuplicate = errors.New("store: duplicate key")
)

// Repository defines the data access contract for invoices. The
// interface decouples the lifecycle logic from the database so the
// engine runs against Postgres in production and in-memory in tests.
type Repository interface {
	// CreateInvoice persists a new invoice. Returns ErrDuplicate when
	// the number or the external reference is already taken.
	CreateInvoice(ctx context.Context, inv *model.Invoice) error

	// UpdateInvoice persists the current state of an existing invoice
	UpdateInvoice(ctx context.Context, inv *model.Invoice) error

	// GetInvoice fetches one invoice by owner and id
	GetInvoice(ctx context.Context, owner, id string) (*model.Invoice, error)

	// ListInvoices returns the owner's invoices, newest first
	ListInvoices(ctx context.Context, owner string) ([]model.Invoice, error)

	// FindByExternalReference looks up an invoice by its originating
	// system reference. Returns ErrNotFound when absent.
	FindByExternalReference(ctx context.Context, owner, ref string) (*model.Invoice, error)

	// NextSequence atomically increments and returns the sequence
	// counter for (owner, series). The first call for a pair yields 1.
	NextSequence(ctx context.Context, owner, series string) (int64, error)

	// Close releases the underlying resources
	Close()
}
