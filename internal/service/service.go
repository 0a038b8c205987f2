// Package service orchestrates the invoice lifecycle: creation with
// sequential numbering, transmission to the tax authority, protocol
// cancellation, and the idempotency guard for externally-sourced
// invoices.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/logistia/einvoice/internal/config"
	"github.com/logistia/einvoice/internal/model"
	"github.com/logistia/einvoice/internal/money"
	"github.com/logistia/einvoice/internal/mydata"
	"github.com/logistia/einvoice/internal/numbering"
	"github.com/logistia/einvoice/internal/store"
	"github.com/logistia/einvoice/internal/verify"
)

// InvoiceService coordinates the invoice lifecycle across the
// repository, the number allocator and the transmission client.
type InvoiceService struct {
	repo   store.Repository
	alloc  *numbering.Allocator
	client *mydata.Client
	env    config.Environment
	shared mydata.Credentials
	log    zerolog.Logger
}

// NewInvoiceService wires the service
func NewInvoiceService(repo store.Repository, alloc *numbering.Allocator, client *mydata.Client, env config.Environment, shared mydata.Credentials, log zerolog.Logger) *InvoiceService {
	return &InvoiceService{
		repo:   repo,
		alloc:  alloc,
		client: client,
		env:    env,
		shared: shared,
		log:    log.With().Str("component", "invoice-service").Logger(),
	}
}

// Create allocates the next number for the draft's series and persists
// it. The draft's lines may still be mutated until transmission.
// Allocation failing closed means no number was issued and no invoice
// is created.
func (s *InvoiceService) Create(ctx context.Context, inv *model.Invoice, actor string) (*model.Invoice, error) {
	if inv.Owner == "" {
		return nil, model.NewValidationError("owner", "", "required", "owner is required")
	}
	if inv.Series == "" {
		return nil, model.NewValidationError("series", "", "required", "series is required")
	}
	if !inv.Type.Valid() {
		return nil, model.NewValidationError("type", string(inv.Type), "known", "unknown invoice type")
	}

	number, seq, err := s.alloc.Next(ctx, inv.Owner, inv.Series)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	inv.ID = uuid.NewString()
	inv.Number = number
	inv.Sequence = seq
	inv.Status = model.StatusDraft
	inv.TransmissionStatus = model.TransmissionPending
	if inv.Currency == "" {
		inv.Currency = "EUR"
	}
	if inv.IssueDate.IsZero() {
		inv.IssueDate = now
	}
	inv.CreatedAt = now
	inv.UpdatedAt = now
	inv.CalculateTotals()
	inv.Modifications = append(inv.Modifications, model.ModificationEntry{
		Event:     model.EventCreated,
		Actor:     actor,
		Timestamp: now,
	})

	if err := s.repo.CreateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	s.log.Info().Str("owner", inv.Owner).Str("number", inv.Number).Msg("invoice created")
	return inv, nil
}

// Get fetches an invoice. The commercial status is returned with the
// read-time overdue evaluation applied.
func (s *InvoiceService) Get(ctx context.Context, owner, id string) (*model.Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	inv.Status = inv.EffectiveStatus(time.Now().UTC())
	return inv, nil
}

// List returns the owner's invoices with read-time overdue applied
func (s *InvoiceService) List(ctx context.Context, owner string) ([]model.Invoice, error) {
	invs, err := s.repo.ListInvoices(ctx, owner)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for i := range invs {
		invs[i].Status = invs[i].EffectiveStatus(now)
	}
	return invs, nil
}

// RecordPayment applies a payment and persists the resulting state
func (s *InvoiceService) RecordPayment(ctx context.Context, owner, id string, amount string, actor string) (*model.Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	d, err := money.FromString(amount)
	if err != nil {
		return nil, model.NewValidationError("amount", amount, "decimal", "payment amount is not a valid number")
	}
	if err := inv.RecordPayment(d, actor); err != nil {
		return nil, err
	}
	inv.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Send transmits the invoice to the authority and reconciles the
// acknowledgment into the invoice state. The pending state is
// persisted before the network call: a crash mid-exchange leaves the
// invoice pending and safe to retry. Transmission failure never alters
// commercial status.
func (s *InvoiceService) Send(ctx context.Context, owner, id string, override mydata.Credentials, actor string) (*model.Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if inv.Status == model.StatusCancelled {
		return nil, model.NewTransitionError(string(inv.Status), string(model.TransmissionPending),
			"cancelled invoices cannot be transmitted")
	}

	if res := inv.Validate(); !res.OK {
		return nil, model.NewValidationError("invoice", "", "complete",
			"invoice is not valid for transmission: "+res.Errors[0].Field+" "+res.Errors[0].Message)
	}

	if inv.Status == model.StatusDraft {
		if err := inv.MarkSent(actor); err != nil {
			return nil, err
		}
	}
	if err := inv.BeginTransmission(actor); err != nil {
		return nil, err
	}
	inv.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateInvoice(ctx, inv); err != nil {
		return nil, err
	}

	creds, err := config.ResolveCredentials(s.env, override, s.shared)
	if err != nil {
		return nil, model.NewCredentialsError(err.Error())
	}

	xmlDoc, err := mydata.Serialize(inv)
	if err != nil {
		return nil, err
	}

	result, err := s.client.SendInvoice(ctx, xmlDoc, creds)
	if err != nil {
		// Transport and credential failures leave the invoice pending
		// for a later retry, never silently failed.
		s.log.Warn().Err(err).Str("number", inv.Number).Msg("transmission exchange failed, invoice stays pending")
		return nil, err
	}

	if !result.Success() {
		if err := inv.MarkTransmissionFailed(result.Errors, actor); err != nil {
			return nil, err
		}
		inv.UpdatedAt = time.Now().UTC()
		if err := s.repo.UpdateInvoice(ctx, inv); err != nil {
			return nil, err
		}
		return inv, model.NewRejectionError(result.Errors)
	}

	ack := model.Acknowledgment{
		Mark:          result.Mark,
		UID:           result.UID,
		AuthCode:      result.AuthCode,
		TransmittedAt: time.Now().UTC(),
	}
	if png := verify.GenerateQR(result.Mark, result.UID, result.AuthCode, s.log); png != nil {
		ack.QRCodeRef = verify.BuildURL(result.Mark, result.UID, result.AuthCode)
	}
	if err := inv.MarkTransmitted(ack, actor); err != nil {
		return nil, err
	}
	inv.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	s.log.Info().Str("number", inv.Number).Str("mark", ack.Mark).Msg("invoice transmitted")
	return inv, nil
}

// CancelTransmitted performs protocol-level cancellation of a
// transmitted invoice. The authority issues a new cancellation mark;
// the original acknowledgment is never mutated.
func (s *InvoiceService) CancelTransmitted(ctx context.Context, owner, id string, override mydata.Credentials, actor string) (*model.Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if !inv.IsTransmitted() || inv.Acknowledgment == nil {
		return nil, model.NewTransitionError(string(inv.TransmissionStatus), string(model.TransmissionCancelled),
			"only transmitted invoices can be cancelled at the authority")
	}

	creds, err := config.ResolveCredentials(s.env, override, s.shared)
	if err != nil {
		return nil, model.NewCredentialsError(err.Error())
	}

	result, err := s.client.CancelInvoice(ctx, inv.Acknowledgment.Mark, creds)
	if err != nil {
		return nil, err
	}
	if !result.Success() {
		return inv, model.NewRejectionError(result.Errors)
	}

	if err := inv.MarkTransmissionCancelled(result.CancellationMark, actor); err != nil {
		return nil, err
	}
	inv.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	s.log.Info().Str("number", inv.Number).Str("cancellation_mark", result.CancellationMark).Msg("invoice cancelled at authority")
	return inv, nil
}

// CancelLocal cancels an invoice that was never transmitted
func (s *InvoiceService) CancelLocal(ctx context.Context, owner, id, actor string) (*model.Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := inv.Cancel(actor); err != nil {
		return nil, err
	}
	inv.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// CreateFromExternal creates an invoice sourced from an external
// system (e.g. a payment webhook), guarded against duplicate
// deliveries by the external reference. The lookup is advisory; the
// unique index on (owner, external_reference) is the authoritative
// guard, and a duplicate-key race resolves by returning the winner.
func (s *InvoiceService) CreateFromExternal(ctx context.Context, inv *model.Invoice, actor string) (*model.Invoice, bool, error) {
	if inv.ExternalReference == "" {
		return nil, false, model.NewValidationError("external_reference", "", "required",
			"externally-sourced invoices require an external reference")
	}

	existing, err := s.repo.FindByExternalReference(ctx, inv.Owner, inv.ExternalReference)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	created, err := s.Create(ctx, inv, actor)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// lost the race against a concurrent delivery
			winner, lookupErr := s.repo.FindByExternalReference(ctx, inv.Owner, inv.ExternalReference)
			if lookupErr != nil {
				return nil, false, lookupErr
			}
			return winner, false, nil
		}
		return nil, false, err
	}
	return created, true, nil
}

// Query probes the authority for documents transmitted in the date
// range. An empty result is success with zero documents.
func (s *InvoiceService) Query(ctx context.Context, from, to time.Time, override mydata.Credentials) ([]mydata.RequestedInv, error) {
	creds, err := config.ResolveCredentials(s.env, override, s.shared)
	if err != nil {
		return nil, model.NewCredentialsError(err.Error())
	}
	return s.client.QueryByDateRange(ctx, from, to, creds)
}
