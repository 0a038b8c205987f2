package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/logistia/einvoice/internal/money"
)

// InvoiceType is the legal document category code used by the tax
// authority. The code gates which wire-format fields are mandatory.
type InvoiceType string

const (
	TypeSalesInvoice     InvoiceType = "1.1"  // domestic sale of goods
	TypeServiceInvoice   InvoiceType = "2.1"  // domestic provision of services
	TypeEUServiceInvoice InvoiceType = "2.2"  // intra-community provision of services
	TypeCreditNote       InvoiceType = "5.2"  // credit invoice, non-associated
	TypeRetailReceipt    InvoiceType = "11.1" // retail sales receipt
	TypeServiceReceipt   InvoiceType = "11.2" // retail service receipt
)

// IsService reports whether the type is a pure-service document.
// Service documents carry no quantity, unit or item description on
// the wire.
func (t InvoiceType) IsService() bool {
	return t == TypeServiceInvoice || t == TypeEUServiceInvoice || t == TypeServiceReceipt
}

// IsRetail reports whether the type is a consumer-facing receipt.
// Retail documents may omit the counterpart tax id and address.
func (t InvoiceType) IsRetail() bool {
	return t == TypeRetailReceipt || t == TypeServiceReceipt
}

// Valid reports whether the type is one of the supported codes.
func (t InvoiceType) Valid() bool {
	switch t {
	case TypeSalesInvoice, TypeServiceInvoice, TypeEUServiceInvoice,
		TypeCreditNote, TypeRetailReceipt, TypeServiceReceipt:
		return true
	}
	return false
}

// VATCategory selects a fixed VAT rate or exemption status
type VATCategory int

const (
	VAT24     VATCategory = 1 // standard 24%
	VAT13     VATCategory = 2 // reduced 13%
	VAT6      VATCategory = 3 // reduced 6%
	VAT17     VATCategory = 4 // island standard 17%
	VAT9      VATCategory = 5 // island reduced 9%
	VAT4      VATCategory = 6 // island reduced 4%
	VATZero   VATCategory = 7 // zero-rated
	VATExempt VATCategory = 8 // exempt (article 39a et al.)
)

var vatRates = map[VATCategory]int{
	VAT24:     24,
	VAT13:     13,
	VAT6:      6,
	VAT17:     17,
	VAT9:      9,
	VAT4:      4,
	VATZero:   0,
	VATExempt: 0,
}

// Rate returns the percentage rate for the category.
// Categories 7 and 8 both carry a 0% rate but keep distinct codes on
// the wire: 7 is zero-rated, 8 is exempt.
func (c VATCategory) Rate() int {
	return vatRates[c]
}

// Valid reports whether the category is a known code
func (c VATCategory) Valid() bool {
	_, ok := vatRates[c]
	return ok
}

// MeasurementUnit is the fixed numeric unit code table
type MeasurementUnit int

const (
	UnitPieces      MeasurementUnit = 1
	UnitHours       MeasurementUnit = 2
	UnitDays        MeasurementUnit = 3
	UnitKilograms   MeasurementUnit = 4
	UnitMeters      MeasurementUnit = 5
	UnitSquareMeter MeasurementUnit = 6
	UnitLiters      MeasurementUnit = 7
	UnitMonths      MeasurementUnit = 8
)

// PaymentMethod is the authority's payment method code
type PaymentMethod int

const (
	PaymentBankTransfer PaymentMethod = 1
	PaymentCash         PaymentMethod = 3
	PaymentCheque       PaymentMethod = 4
	PaymentOnCredit     PaymentMethod = 5
	PaymentWebBanking   PaymentMethod = 6
	PaymentCard         PaymentMethod = 7
)

// Party represents the issuer or the counterpart of an invoice
type Party struct {
	Name          string   `json:"name"`
	TaxID         string   `json:"tax_id"` // AFM, 9 digits
	LegalForm     string   `json:"legal_form,omitempty"`
	ActivityCodes []string `json:"activity_codes,omitempty"` // KAD
	Address       Address  `json:"address"`
	Email         string   `json:"email,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	IBAN          string   `json:"iban,omitempty"`
	BankName      string   `json:"bank_name,omitempty"`
}

// Address is a registered postal address
type Address struct {
	Street     string `json:"street,omitempty"`
	Number     string `json:"number,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	City       string `json:"city,omitempty"`
	Country    string `json:"country"` // ISO 3166-1 alpha-2
}

// ClassificationEntry is an income classification attached to a line.
// Type is the authority tag (e.g. E3_561_001), Category the reporting
// bucket (e.g. category1_1).
type ClassificationEntry struct {
	Type     string          `json:"type"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// LineItem is a single invoice line
type LineItem struct {
	Number          int                   `json:"number"`
	Description     string                `json:"description"`
	Quantity        decimal.Decimal       `json:"quantity"`
	Unit            MeasurementUnit       `json:"unit"`
	UnitPrice       decimal.Decimal       `json:"unit_price"`
	VATCategory     VATCategory           `json:"vat_category"`
	Classifications []ClassificationEntry `json:"classifications,omitempty"`

	// Calculated
	NetValue  decimal.Decimal `json:"net_value"`  // Quantity * UnitPrice
	VATAmount decimal.Decimal `json:"vat_amount"` // NetValue * rate
}

// Totals holds the document-level monetary aggregates. All fields are
// derived from the lines and the tax adjustment fields, never hand-set.
type Totals struct {
	TotalNetValue         decimal.Decimal `json:"total_net_value"`
	TotalVATAmount        decimal.Decimal `json:"total_vat_amount"`
	TotalWithheldAmount   decimal.Decimal `json:"total_withheld_amount"`
	TotalFeesAmount       decimal.Decimal `json:"total_fees_amount"`
	TotalOtherTaxesAmount decimal.Decimal `json:"total_other_taxes_amount"`
	TotalDeductionsAmount decimal.Decimal `json:"total_deductions_amount"`
	TotalGrossValue       decimal.Decimal `json:"total_gross_value"`
	TotalAmount           decimal.Decimal `json:"total_amount"`
}

// Acknowledgment is the authority's receipt for a transmitted invoice
type Acknowledgment struct {
	Mark             string     `json:"mark"`
	UID              string     `json:"uid"`
	AuthCode         string     `json:"auth_code"`
	QRCodeRef        string     `json:"qr_code_ref,omitempty"`
	TransmittedAt    time.Time  `json:"transmitted_at"`
	CancellationMark string     `json:"cancellation_mark,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
}

// ModificationEntry is one record in the append-only audit log
type ModificationEntry struct {
	Event     string    `json:"event"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Detail    string    `json:"detail,omitempty"`
}

// Invoice is the aggregate root for a legal sales document
type Invoice struct {
	ID    string `json:"id"`
	Owner string `json:"owner"` // issuing business account

	Number   string `json:"number"` // display form, e.g. A000042
	Series   string `json:"series"`
	Sequence int64  `json:"sequence"`

	Type      InvoiceType `json:"type"`
	IssueDate time.Time   `json:"issue_date"`
	DueDate   *time.Time  `json:"due_date,omitempty"`
	Currency  string      `json:"currency"` // "EUR"

	Issuer      Party `json:"issuer"`
	Counterpart Party `json:"counterpart"`

	PaymentMethod PaymentMethod `json:"payment_method"`
	Lines         []LineItem    `json:"lines"`
	Totals        Totals        `json:"totals"`

	Status             Status             `json:"status"`
	TransmissionStatus TransmissionStatus `json:"transmission_status"`
	TransmissionErrors []ProtocolError    `json:"transmission_errors,omitempty"`

	Acknowledgment *Acknowledgment `json:"acknowledgment,omitempty"`

	PaidAmount decimal.Decimal `json:"paid_amount"`

	// ExternalReference is an opaque id from an originating system
	// (e.g. a payment webhook), used for deduplication.
	ExternalReference string `json:"external_reference,omitempty"`

	Notes         string              `json:"notes,omitempty"`
	Modifications []ModificationEntry `json:"modifications,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FormatNumber renders the persisted display form: series followed by
// the zero-padded six digit sequence, e.g. A000042.
func FormatNumber(series string, sequence int64) string {
	return fmt.Sprintf("%s%06d", series, sequence)
}

// SplitNumber splits a display-form number back into series and bare
// sequence. The wire format carries the two separately, with leading
// zeros stripped from the sequence.
func SplitNumber(number string) (series string, sequence int64, err error) {
	i := len(number)
	for i > 0 && number[i-1] >= '0' && number[i-1] <= '9' {
		i--
	}
	if i == len(number) {
		return "", 0, fmt.Errorf("invoice number %q has no sequence part", number)
	}
	series = number[:i]
	sequence, err = strconv.ParseInt(strings.TrimLeft(number[i:], "0"), 10, 64)
	if err != nil {
		// all-zero sequence trims to the empty string
		if strings.Trim(number[i:], "0") == "" {
			return "", 0, fmt.Errorf("invoice number %q has zero sequence", number)
		}
		return "", 0, err
	}
	return series, sequence, nil
}

// Calculate recomputes the derived monetary fields of the line from
// quantity, unit price and VAT category. Callers never set NetValue or
// VATAmount directly.
func (li *LineItem) Calculate() {
	li.NetValue = money.Mul(li.Quantity, li.UnitPrice)
	li.VATAmount = money.ApplyRate(li.NetValue, li.VATCategory.Rate())
}

// GrossValue returns NetValue + VATAmount for the line
func (li *LineItem) GrossValue() decimal.Decimal {
	return li.NetValue.Add(li.VATAmount)
}

// CalculateTotals recomputes every line and the document aggregates.
// The withheld/fees/other-taxes/deductions fields are preserved and
// netted into TotalAmount.
func (inv *Invoice) CalculateTotals() {
	nets := make([]decimal.Decimal, len(inv.Lines))
	vats := make([]decimal.Decimal, len(inv.Lines))
	for i := range inv.Lines {
		inv.Lines[i].Number = i + 1
		inv.Lines[i].Calculate()
		nets[i] = inv.Lines[i].NetValue
		vats[i] = inv.Lines[i].VATAmount
	}

	net := money.Sum(nets)
	vat := money.Sum(vats)
	inv.Totals.TotalNetValue = net.Round(2)
	inv.Totals.TotalVATAmount = vat.Round(2)
	inv.Totals.TotalGrossValue = net.Add(vat).Round(2)
	inv.Totals.TotalAmount = inv.Totals.TotalGrossValue.
		Sub(inv.Totals.TotalWithheldAmount).
		Add(inv.Totals.TotalFeesAmount).
		Add(inv.Totals.TotalOtherTaxesAmount).
		Sub(inv.Totals.TotalDeductionsAmount).
		Round(2)
}

// Outstanding returns the unpaid remainder of the document total
func (inv *Invoice) Outstanding() decimal.Decimal {
	return inv.Totals.TotalAmount.Sub(inv.PaidAmount)
}

// IsOverdue reports whether the invoice is past its due date while
// still awaiting payment. Overdue is evaluated at read time against
// the supplied clock, not persisted by a sweep.
func (inv *Invoice) IsOverdue(now time.Time) bool {
	if inv.Status != StatusSent || inv.DueDate == nil {
		return false
	}
	return now.After(*inv.DueDate)
}

// EffectiveStatus returns the commercial status with the read-time
// overdue evaluation applied.
func (inv *Invoice) EffectiveStatus(now time.Time) Status {
	if inv.IsOverdue(now) {
		return StatusOverdue
	}
	return inv.Status
}

// appendAudit records a lifecycle event in the append-only log
func (inv *Invoice) appendAudit(event, actor, detail string) {
	inv.Modifications = append(inv.Modifications, ModificationEntry{
		Event:     event,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Detail:    detail,
	})
}
