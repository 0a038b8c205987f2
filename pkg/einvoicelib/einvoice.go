// Package einvoicelib provides a public API for issuing and
// transmitting Greek e-invoices.
//
// This package exposes the core types for building invoices, the
// totals and validation engine, and the transmission protocol client.
//
// Example usage:
//
//	inv := &einvoicelib.Invoice{ /* ... */ }
//	if res := inv.Validate(); !res.OK {
//	    log.Fatal(res.Errors)
//	}
//	doc, err := einvoicelib.Serialize(inv)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := client.SendInvoice(ctx, doc, creds)
package einvoicelib

import (
	"github.com/logistia/einvoice/internal/model"
	"github.com/logistia/einvoice/internal/mydata"
)

// Re-export core types for public API
type (
	Invoice             = model.Invoice
	LineItem            = model.LineItem
	Party               = model.Party
	Address             = model.Address
	Totals              = model.Totals
	Acknowledgment      = model.Acknowledgment
	ClassificationEntry = model.ClassificationEntry
	InvoiceType         = model.InvoiceType
	VATCategory         = model.VATCategory
	MeasurementUnit     = model.MeasurementUnit
	Status              = model.Status
	TransmissionStatus  = model.TransmissionStatus
	ValidationResult    = model.ValidationResult
	FieldError          = model.FieldError
)

// Re-export invoice type codes
const (
	TypeSalesInvoice     = model.TypeSalesInvoice
	TypeServiceInvoice   = model.TypeServiceInvoice
	TypeEUServiceInvoice = model.TypeEUServiceInvoice
	TypeCreditNote       = model.TypeCreditNote
	TypeRetailReceipt    = model.TypeRetailReceipt
	TypeServiceReceipt   = model.TypeServiceReceipt
)

// Re-export VAT categories
const (
	VAT24     = model.VAT24
	VAT13     = model.VAT13
	VAT6      = model.VAT6
	VATZero   = model.VATZero
	VATExempt = model.VATExempt
)

// Re-export status constants
const (
	StatusDraft     = model.StatusDraft
	StatusSent      = model.StatusSent
	StatusPaid      = model.StatusPaid
	StatusOverdue   = model.StatusOverdue
	StatusCancelled = model.StatusCancelled

	TransmissionPending     = model.TransmissionPending
	TransmissionTransmitted = model.TransmissionTransmitted
	TransmissionFailed      = model.TransmissionFailed
	TransmissionCancelled   = model.TransmissionCancelled
)

// Re-export error types
type (
	ValidationError   = model.ValidationError
	TransitionError   = model.TransitionError
	ProtocolError     = model.ProtocolError
	RejectionError    = model.RejectionError
	TransmissionError = model.TransmissionError
	CredentialsError  = model.CredentialsError
	AllocationError   = model.AllocationError
)

// Re-export protocol client types
type (
	Client       = mydata.Client
	ClientOption = mydata.ClientOption
	Credentials  = mydata.Credentials
	Result       = mydata.Result
)

// Re-export protocol functions
var (
	NewClient      = mydata.NewClient
	WithBaseURL    = mydata.WithBaseURL
	WithTimeout    = mydata.WithTimeout
	Serialize      = mydata.Serialize
	ParseResponse  = mydata.ParseResponse
	UnwrapEnvelope = mydata.UnwrapEnvelope
)

// FormatNumber renders the display form of a document number
func FormatNumber(series string, sequence int64) string {
	return model.FormatNumber(series, sequence)
}
