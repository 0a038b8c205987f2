package mydata

import (
	"encoding/xml"
	"strconv"

	"github.com/logistia/einvoice/internal/model"
	"github.com/logistia/einvoice/internal/money"
)

// Serialize transforms a validated invoice into the authority's XML
// submission document. The invoice must have passed Validate();
// Serialize does not re-derive totals.
func Serialize(inv *model.Invoice) ([]byte, error) {
	doc := InvoicesDoc{
		Xmlns:    Namespace,
		Invoices: []InvoiceXML{buildInvoice(inv)},
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, model.NewParseError("invoice", "failed to serialize invoice", err)
	}
	return append([]byte(xml.Header), out...), nil
}

func buildInvoice(inv *model.Invoice) InvoiceXML {
	x := InvoiceXML{
		Issuer:      buildIssuer(inv.Issuer),
		Counterpart: buildCounterpart(inv),
		Header: HeaderXML{
			Series:      inv.Series,
			AA:          strconv.FormatInt(inv.Sequence, 10),
			IssueDate:   inv.IssueDate.Format("2006-01-02"),
			InvoiceType: string(inv.Type),
			Currency:    inv.Currency,
		},
		PaymentMethods: &PaymentMethodsXML{
			Details: []PaymentMethodDetailXML{{
				Type:   int(inv.PaymentMethod),
				Amount: money.Format(inv.Totals.TotalAmount),
			}},
		},
		Summary: buildSummary(inv),
	}

	for _, line := range inv.Lines {
		x.Details = append(x.Details, buildDetail(line, inv.Type))
	}

	return x
}

func buildIssuer(p model.Party) IssuerXML {
	return IssuerXML{
		VATNumber: p.TaxID,
		Country:   p.Address.Country,
		Branch:    0,
		Name:      p.Name,
		Address: &AddressXML{
			Street:     p.Address.Street,
			Number:     p.Address.Number,
			PostalCode: p.Address.PostalCode,
			City:       p.Address.City,
		},
	}
}

// buildCounterpart shapes the recipient block by document category:
// anonymous domestic retail gets a country-only block, everything else
// carries the identified party with its full address.
func buildCounterpart(inv *model.Invoice) *CounterpartXML {
	cp := inv.Counterpart

	country := cp.Address.Country
	if country == "" {
		country = "GR"
	}

	if inv.Type.IsRetail() && cp.TaxID == "" && country == "GR" {
		return &CounterpartXML{Country: country}
	}

	return &CounterpartXML{
		VATNumber: cp.TaxID,
		Country:   country,
		Branch:    0,
		Name:      cp.Name,
		Address: &AddressXML{
			Street:     cp.Address.Street,
			Number:     cp.Address.Number,
			PostalCode: cp.Address.PostalCode,
			City:       cp.Address.City,
		},
	}
}

func buildDetail(line model.LineItem, typ model.InvoiceType) DetailXML {
	d := DetailXML{
		LineNumber:  line.Number,
		NetValue:    money.Format(line.NetValue),
		VATCategory: int(line.VATCategory),
		VATAmount:   money.Format(line.VATAmount),
	}

	// Service documents carry no quantity, unit or description
	if !typ.IsService() {
		d.ItemDescr = line.Description
		d.Quantity = line.Quantity.String()
		d.MeasurementUnit = int(line.Unit)
	}

	for _, c := range line.Classifications {
		d.Classifications = append(d.Classifications, ClassificationXML{
			Type:     c.Type,
			Category: c.Category,
			Amount:   money.Format(c.Amount),
		})
	}

	return d
}

func buildSummary(inv *model.Invoice) SummaryXML {
	s := SummaryXML{
		TotalNetValue:         money.Format(inv.Totals.TotalNetValue),
		TotalVATAmount:        money.Format(inv.Totals.TotalVATAmount),
		TotalWithheldAmount:   money.Format(inv.Totals.TotalWithheldAmount),
		TotalFeesAmount:       money.Format(inv.Totals.TotalFeesAmount),
		TotalOtherTaxesAmount: money.Format(inv.Totals.TotalOtherTaxesAmount),
		TotalDeductionsAmount: money.Format(inv.Totals.TotalDeductionsAmount),
		TotalGrossValue:       money.Format(inv.Totals.TotalGrossValue),
		TotalAmount:           money.Format(inv.Totals.TotalAmount),
	}

	for _, c := range model.AggregateClassifications(inv.Lines) {
		s.Classifications = append(s.Classifications, ClassificationXML{
			Type:     c.Type,
			Category: c.Category,
			Amount:   money.Format(c.Amount),
		})
	}

	return s
}
