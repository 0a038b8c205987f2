package server

import "github.com/logistia/einvoice/internal/model"

// CreateInvoiceRequest is the payload for creating a draft invoice
type CreateInvoiceRequest struct {
	Series        string              `json:"series" binding:"required"`
	Type          model.InvoiceType   `json:"type" binding:"required"`
	IssueDate     string              `json:"issue_date,omitempty"` // YYYY-MM-DD
	DueDate       string              `json:"due_date,omitempty"`
	Currency      string              `json:"currency,omitempty"`
	Issuer        model.Party         `json:"issuer"`
	Counterpart   model.Party         `json:"counterpart"`
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	Lines         []model.LineItem    `json:"lines"`
	Notes         string              `json:"notes,omitempty"`
}

// PaymentRequest records a payment against an invoice
type PaymentRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// WebhookInvoiceRequest is the payload for externally-sourced invoice
// creation, deduplicated by the external reference.
type WebhookInvoiceRequest struct {
	ExternalReference string `json:"external_reference" binding:"required"`
	CreateInvoiceRequest
}

// ErrorResponse is the generic error envelope
type ErrorResponse struct {
	Error  string                `json:"error"`
	Errors []model.ProtocolError `json:"errors,omitempty"`
	Fields []model.FieldError    `json:"fields,omitempty"`
}
