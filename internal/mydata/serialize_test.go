package mydata_test

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logistia/einvoice/internal/model"
	"github.com/logistia/einvoice/internal/mydata"
)

func wireInvoice(typ model.InvoiceType) *model.Invoice {
	inv := &model.Invoice{
		Owner:     "acct-1",
		Series:    "A",
		Sequence:  42,
		Number:    model.FormatNumber("A", 42),
		Type:      typ,
		IssueDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Currency:  "EUR",
		Issuer: model.Party{
			Name:  "Logistia IKE",
			TaxID: "999999999",
			Address: model.Address{
				Street: "Stadiou", Number: "10", PostalCode: "10564", City: "Athens", Country: "GR",
			},
		},
		Counterpart: model.Party{
			Name:  "Acme EPE",
			TaxID: "123456789",
			Address: model.Address{
				Street: "Ermou", Number: "1", PostalCode: "10563", City: "Athens", Country: "GR",
			},
		},
		PaymentMethod: model.PaymentBankTransfer,
		Lines: []model.LineItem{
			{
				Description: "Consulting",
				Quantity:    decimal.NewFromInt(1),
				Unit:        model.UnitPieces,
				UnitPrice:   decimal.NewFromFloat(100.00),
				VATCategory: model.VAT24,
				Classifications: []model.ClassificationEntry{
					{Type: "E3_561_001", Category: "category1_1", Amount: decimal.NewFromFloat(100.00)},
				},
			},
		},
	}
	inv.CalculateTotals()
	return inv
}

func TestSerialize_WireRoundTrip(t *testing.T) {
	inv := wireInvoice(model.TypeSalesInvoice)

	out, err := mydata.Serialize(inv)
	require.NoError(t, err)

	var doc mydata.InvoicesDoc
	require.NoError(t, xml.Unmarshal(out, &doc))
	require.Len(t, doc.Invoices, 1)

	w := doc.Invoices[0]
	// the wire sequence is the bare integer, no leading zeros
	assert.Equal(t, "A", w.Header.Series)
	assert.Equal(t, "42", w.Header.AA)
	assert.Equal(t, "2026-02-01", w.Header.IssueDate)
	assert.Equal(t, "1.1", w.Header.InvoiceType)
	assert.Equal(t, "EUR", w.Header.Currency)

	require.Len(t, w.Details, 1)
	assert.Equal(t, "100.00", w.Details[0].NetValue)
	assert.Equal(t, 1, w.Details[0].VATCategory)
	assert.Equal(t, "24.00", w.Details[0].VATAmount)

	assert.Equal(t, "100.00", w.Summary.TotalNetValue)
	assert.Equal(t, "24.00", w.Summary.TotalVATAmount)
	assert.Equal(t, "124.00", w.Summary.TotalGrossValue)
	assert.Equal(t, "124.00", w.Summary.TotalAmount)

	require.Len(t, w.Summary.Classifications, 1)
	assert.Equal(t, "E3_561_001", w.Summary.Classifications[0].Type)
	assert.Equal(t, "100.00", w.Summary.Classifications[0].Amount)
}

func TestSerialize_CarriesNamespace(t *testing.T) {
	out, err := mydata.Serialize(wireInvoice(model.TypeSalesInvoice))
	require.NoError(t, err)
	assert.Contains(t, string(out), mydata.Namespace)
}

func TestSerialize_ServiceTypeOmitsGoodsFields(t *testing.T) {
	inv := wireInvoice(model.TypeServiceInvoice)

	out, err := mydata.Serialize(inv)
	require.NoError(t, err)

	s := string(out)
	assert.NotContains(t, s, "<quantity>")
	assert.NotContains(t, s, "<measurementUnit>")
	assert.NotContains(t, s, "<itemDescr>")

	// monetary fields stay
	assert.Contains(t, s, "<netValue>100.00</netValue>")
	assert.Contains(t, s, "<vatAmount>24.00</vatAmount>")
}

func TestSerialize_GoodsTypeKeepsGoodsFields(t *testing.T) {
	out, err := mydata.Serialize(wireInvoice(model.TypeSalesInvoice))
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "<quantity>1</quantity>")
	assert.Contains(t, s, "<measurementUnit>1</measurementUnit>")
	assert.Contains(t, s, "<itemDescr>Consulting</itemDescr>")
}

func TestSerialize_RetailCounterpartIsCountryOnly(t *testing.T) {
	inv := wireInvoice(model.TypeRetailReceipt)
	inv.Counterpart = model.Party{Address: model.Address{Country: "GR"}}

	out, err := mydata.Serialize(inv)
	require.NoError(t, err)

	var doc mydata.InvoicesDoc
	require.NoError(t, xml.Unmarshal(out, &doc))

	cp := doc.Invoices[0].Counterpart
	require.NotNil(t, cp)
	assert.Equal(t, "GR", cp.Country)
	assert.Empty(t, cp.VATNumber)
	assert.Empty(t, cp.Name)
	assert.Nil(t, cp.Address)
}

func TestSerialize_ForeignCounterpartKeepsFullBlock(t *testing.T) {
	inv := wireInvoice(model.TypeEUServiceInvoice)
	inv.Counterpart.Address.Country = "DE"
	inv.Counterpart.Address.City = "Berlin"

	out, err := mydata.Serialize(inv)
	require.NoError(t, err)

	var doc mydata.InvoicesDoc
	require.NoError(t, xml.Unmarshal(out, &doc))

	cp := doc.Invoices[0].Counterpart
	require.NotNil(t, cp)
	assert.Equal(t, "DE", cp.Country)
	assert.Equal(t, "123456789", cp.VATNumber)
	require.NotNil(t, cp.Address)
	assert.Equal(t, "Berlin", cp.Address.City)
}

func TestSerialize_EscapesFreeText(t *testing.T) {
	inv := wireInvoice(model.TypeSalesInvoice)
	inv.Lines[0].Description = `Parts <& "special">`

	out, err := mydata.Serialize(inv)
	require.NoError(t, err)

	s := string(out)
	assert.NotContains(t, s, `<& "special">`)
	assert.True(t, strings.Contains(s, "&lt;&amp;") || strings.Contains(s, "&lt;&"),
		"expected escaped markup, got %s", s)
}
