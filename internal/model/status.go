package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/logistia/einvoice/internal/money"
)

// Status is the commercial lifecycle state of an invoice
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// TransmissionStatus is the authority-facing lifecycle state,
// independent of the commercial status.
type TransmissionStatus string

const (
	TransmissionPending     TransmissionStatus = "pending"
	TransmissionTransmitted TransmissionStatus = "transmitted"
	TransmissionFailed      TransmissionStatus = "failed"
	TransmissionCancelled   TransmissionStatus = "cancelled"
)

// Audit event names
const (
	EventCreated               = "created"
	EventSent                  = "sent"
	EventPaymentRecorded       = "payment-recorded"
	EventPaid                  = "paid"
	EventCancelled             = "cancelled"
	EventTransmitted           = "transmitted"
	EventTransmissionFailed    = "transmission-failed"
	EventTransmissionRetried   = "transmission-retried"
	EventTransmissionCancelled = "transmission-cancelled"
)

// IsTransmitted reports whether the invoice has been accepted by the
// authority. A transmitted invoice is immutable except for protocol
// cancellation.
func (inv *Invoice) IsTransmitted() bool {
	return inv.TransmissionStatus == TransmissionTransmitted
}

// CanEdit reports whether lines and counterpart may still be mutated
func (inv *Invoice) CanEdit() bool {
	return !inv.IsTransmitted() && inv.Status != StatusCancelled
}

// SetLines replaces the line items, guarding against edits to a
// transmitted or cancelled document.
func (inv *Invoice) SetLines(lines []LineItem) error {
	if !inv.CanEdit() {
		return NewTransitionError(string(inv.Status), "edit lines",
			"transmitted or cancelled invoices are immutable")
	}
	inv.Lines = lines
	inv.CalculateTotals()
	return nil
}

// SetCounterpart replaces the counterpart, with the same guard as
// SetLines.
func (inv *Invoice) SetCounterpart(p Party) error {
	if !inv.CanEdit() {
		return NewTransitionError(string(inv.Status), "edit counterpart",
			"transmitted or cancelled invoices are immutable")
	}
	inv.Counterpart = p
	return nil
}

// MarkSent transitions draft → sent. The guard requires a named
// counterpart and at least one line.
func (inv *Invoice) MarkSent(actor string) error {
	if inv.Status != StatusDraft {
		return NewTransitionError(string(inv.Status), string(StatusSent), "only draft invoices can be sent")
	}
	if inv.Counterpart.Name == "" {
		return NewTransitionError(string(inv.Status), string(StatusSent), "counterpart name is required")
	}
	if len(inv.Lines) == 0 {
		return NewTransitionError(string(inv.Status), string(StatusSent), "at least one line is required")
	}
	inv.Status = StatusSent
	inv.appendAudit(EventSent, actor, "")
	return nil
}

// RecordPayment adds a payment against the invoice. The invoice
// transitions to paid automatically once recorded payments cover the
// document total.
func (inv *Invoice) RecordPayment(amount decimal.Decimal, actor string) error {
	switch inv.Status {
	case StatusSent, StatusOverdue:
	default:
		return NewTransitionError(string(inv.Status), string(StatusPaid), "payments apply to sent invoices only")
	}
	if !money.IsPositive(amount) {
		return NewValidationError("amount", amount.String(), "positive", "payment amount must be positive")
	}
	inv.PaidAmount = inv.PaidAmount.Add(amount)
	inv.appendAudit(EventPaymentRecorded, actor, amount.StringFixed(2))
	if inv.PaidAmount.GreaterThanOrEqual(inv.Totals.TotalAmount) {
		inv.Status = StatusPaid
		inv.appendAudit(EventPaid, actor, "")
	}
	return nil
}

// MarkPaid transitions sent/overdue → paid through an explicit payment
// event regardless of the recorded amount.
func (inv *Invoice) MarkPaid(actor string) error {
	switch inv.Status {
	case StatusSent, StatusOverdue:
	default:
		return NewTransitionError(string(inv.Status), string(StatusPaid), "only sent invoices can be marked paid")
	}
	inv.Status = StatusPaid
	inv.appendAudit(EventPaid, actor, "")
	return nil
}

// Cancel transitions the commercial status to cancelled. A transmitted
// invoice must be cancelled through the protocol first; local
// cancellation of a transmitted document is rejected.
func (inv *Invoice) Cancel(actor string) error {
	if inv.Status == StatusCancelled {
		return NewTransitionError(string(inv.Status), string(StatusCancelled), "already cancelled")
	}
	if inv.IsTransmitted() {
		return NewTransitionError(string(inv.Status), string(StatusCancelled),
			"transmitted invoices require protocol cancellation")
	}
	inv.Status = StatusCancelled
	inv.appendAudit(EventCancelled, actor, "")
	return nil
}

// BeginTransmission checks the invoice may be submitted. Failed
// submissions re-enter pending here before a retry. A cancelled
// invoice is terminal on both axes and never reaches the authority.
func (inv *Invoice) BeginTransmission(actor string) error {
	if inv.Status == StatusCancelled {
		return NewTransitionError(string(inv.Status), string(TransmissionPending),
			"cancelled invoices cannot be transmitted")
	}
	switch inv.TransmissionStatus {
	case TransmissionPending:
		return nil
	case TransmissionFailed:
		inv.TransmissionStatus = TransmissionPending
		inv.TransmissionErrors = nil
		inv.appendAudit(EventTransmissionRetried, actor, "")
		return nil
	default:
		return NewTransitionError(string(inv.TransmissionStatus), string(TransmissionPending),
			"invoice already transmitted or cancelled")
	}
}

// MarkTransmitted records the authority acknowledgment. The triple
// (mark, uid, auth code) must be complete.
func (inv *Invoice) MarkTransmitted(ack Acknowledgment, actor string) error {
	if inv.TransmissionStatus != TransmissionPending {
		return NewTransitionError(string(inv.TransmissionStatus), string(TransmissionTransmitted),
			"only pending invoices can be marked transmitted")
	}
	if ack.Mark == "" || ack.UID == "" || ack.AuthCode == "" {
		return NewValidationError("acknowledgment", "", "complete",
			"mark, uid and auth code are all required")
	}
	if ack.TransmittedAt.IsZero() {
		ack.TransmittedAt = time.Now().UTC()
	}
	inv.TransmissionStatus = TransmissionTransmitted
	inv.Acknowledgment = &ack
	inv.TransmissionErrors = nil
	inv.appendAudit(EventTransmitted, actor, ack.Mark)
	return nil
}

// MarkTransmissionFailed records a protocol rejection with the
// authority's ordered error list, preserved verbatim.
func (inv *Invoice) MarkTransmissionFailed(errs []ProtocolError, actor string) error {
	if inv.TransmissionStatus != TransmissionPending {
		return NewTransitionError(string(inv.TransmissionStatus), string(TransmissionFailed),
			"only pending invoices can fail transmission")
	}
	inv.TransmissionStatus = TransmissionFailed
	inv.TransmissionErrors = errs
	detail := ""
	if len(errs) > 0 {
		detail = errs[0].Code
	}
	inv.appendAudit(EventTransmissionFailed, actor, detail)
	return nil
}

// MarkTransmissionCancelled records the protocol-level cancellation of
// a transmitted invoice. The cancellation produces a new mark and
// never mutates the original acknowledgment triple.
func (inv *Invoice) MarkTransmissionCancelled(cancellationMark string, actor string) error {
	if inv.TransmissionStatus != TransmissionTransmitted {
		return NewTransitionError(string(inv.TransmissionStatus), string(TransmissionCancelled),
			"only transmitted invoices can be cancelled at the authority")
	}
	if inv.Acknowledgment == nil {
		return NewTransitionError(string(inv.TransmissionStatus), string(TransmissionCancelled),
			"transmitted invoice carries no acknowledgment")
	}
	if cancellationMark == "" {
		return NewValidationError("cancellation_mark", "", "required", "cancellation mark is required")
	}
	now := time.Now().UTC()
	inv.TransmissionStatus = TransmissionCancelled
	inv.Acknowledgment.CancellationMark = cancellationMark
	inv.Acknowledgment.CancelledAt = &now
	inv.Status = StatusCancelled
	inv.appendAudit(EventTransmissionCancelled, actor, cancellationMark)
	return nil
}
