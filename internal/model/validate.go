package model

import (
	"strconv"

	"github.com/logistia/einvoice/internal/money"
)

// FieldError is one field-level finding from the validation pass
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of the pre-persistence validation
// and derivation pass. Derivation (totals recomputation) happens here
// explicitly, never inside a storage hook.
type ValidationResult struct {
	OK     bool         `json:"ok"`
	Errors []FieldError `json:"errors,omitempty"`
}

func (r *ValidationResult) add(field, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

// Validate recomputes the derived fields and checks the invoice
// against the rules required before persistence or transmission.
func (inv *Invoice) Validate() ValidationResult {
	inv.CalculateTotals()

	var res ValidationResult

	if inv.Owner == "" {
		res.add("owner", "owner is required")
	}
	if inv.Series == "" {
		res.add("series", "series is required")
	}
	if !inv.Type.Valid() {
		res.add("type", "unknown invoice type")
	}
	if inv.Currency == "" {
		res.add("currency", "currency is required")
	}
	if inv.IssueDate.IsZero() {
		res.add("issue_date", "issue date is required")
	}

	if inv.Issuer.TaxID == "" {
		res.add("issuer.tax_id", "issuer tax id is required")
	}
	if inv.Issuer.Name == "" {
		res.add("issuer.name", "issuer name is required")
	}

	// Retail receipts may be anonymous; every other type needs an
	// identified counterpart.
	if !inv.Type.IsRetail() {
		if inv.Counterpart.Name == "" {
			res.add("counterpart.name", "counterpart name is required")
		}
		if inv.Counterpart.TaxID == "" {
			res.add("counterpart.tax_id", "counterpart tax id is required for non-retail documents")
		}
	}

	if len(inv.Lines) == 0 {
		res.add("lines", "at least one line is required")
	}
	for i, line := range inv.Lines {
		validateLine(&res, i, line, inv.Type)
	}

	res.OK = len(res.Errors) == 0
	return res
}

func validateLine(res *ValidationResult, i int, line LineItem, typ InvoiceType) {
	prefix := fieldPrefix("lines", i)

	if !money.IsNonNegative(line.Quantity) {
		res.add(prefix+".quantity", "quantity cannot be negative")
	}
	if !money.IsNonNegative(line.UnitPrice) {
		res.add(prefix+".unit_price", "unit price cannot be negative")
	}
	if !line.VATCategory.Valid() {
		res.add(prefix+".vat_category", "unknown VAT category")
	}
	if !typ.IsService() {
		if line.Quantity.IsZero() {
			res.add(prefix+".quantity", "quantity is required for goods lines")
		}
		if line.Description == "" {
			res.add(prefix+".description", "item description is required for goods lines")
		}
	}
	if len(line.Classifications) == 0 {
		res.add(prefix+".classifications", "at least one income classification is required")
	}
}

func fieldPrefix(name string, i int) string {
	return name + "[" + strconv.Itoa(i) + "]"
}
