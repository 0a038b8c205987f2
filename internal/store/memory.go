package store

import (
	"context"
	"sort"
	"sync"

	"github.com/logistia/einvoice/internal/model"
)

// MemoryRepository is an in-memory Repository with the same uniqueness
// semantics as the Postgres implementation. Used by tests and by the
// CLI's offline validation mode.
type MemoryRepository struct {
	mu       sync.Mutex
	invoices map[string]*model.Invoice // keyed by owner + "/" + id
	counters map[string]int64          // keyed by owner + "/" + series
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		invoices: make(map[string]*model.Invoice),
		counters: make(map[string]int64),
	}
}

func invoiceKey(owner, id string) string {
	return owner + "/" + id
}

// CreateInvoice persists a new invoice, enforcing the same unique
// constraints as the database: (owner, series, sequence) and
// (owner, external_reference).
func (r *MemoryRepository) CreateInvoice(ctx context.Context, inv *model.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := invoiceKey(inv.Owner, inv.ID)
	if _, exists := r.invoices[key]; exists {
		return ErrDuplicate
	}
	for _, existing := range r.invoices {
		if existing.Owner != inv.Owner {
			continue
		}
		if existing.Series == inv.Series && existing.Sequence == inv.Sequence {
			return ErrDuplicate
		}
		if inv.ExternalReference != "" && existing.ExternalReference == inv.ExternalReference {
			return ErrDuplicate
		}
	}

	clone := *inv
	r.invoices[key] = &clone
	return nil
}

// UpdateInvoice persists the current state of an existing invoice
func (r *MemoryRepository) UpdateInvoice(ctx context.Context, inv *model.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := invoiceKey(inv.Owner, inv.ID)
	if _, exists := r.invoices[key]; !exists {
		return ErrNotFound
	}
	clone := *inv
	r.invoices[key] = &clone
	return nil
}

// GetInvoice fetches one invoice by owner and id
func (r *MemoryRepository) GetInvoice(ctx context.Context, owner, id string) (*model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invoices[invoiceKey(owner, id)]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *inv
	return &clone, nil
}

// ListInvoices returns the owner's invoices, newest first
func (r *MemoryRepository) ListInvoices(ctx context.Context, owner string) ([]model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.Invoice
	for _, inv := range r.invoices {
		if inv.Owner == owner {
			out = append(out, *inv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// FindByExternalReference looks up an invoice by originating system
// reference
func (r *MemoryRepository) FindByExternalReference(ctx context.Context, owner, ref string) (*model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, inv := range r.invoices {
		if inv.Owner == owner && inv.ExternalReference == ref {
			clone := *inv
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

// NextSequence atomically increments the per-series counter
func (r *MemoryRepository) NextSequence(ctx context.Context, owner, series string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := owner + "/" + series
	r.counters[key]++
	return r.counters[key], nil
}

// Close is a no-op for the in-memory repository
func (r *MemoryRepository) Close() {}
