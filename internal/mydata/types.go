// Package mydata implements the tax authority's XML transmission
// protocol: serializing invoices into the wire schema, parsing
// acknowledgments and error payloads, and the HTTP client that
// performs the exchange.
package mydata

import "encoding/xml"

// Namespace is the fixed namespace of the invoice document schema
const Namespace = "http://www.aade.gr/myDATA/invoice/v1.0"

// InvoicesDoc is the root element of a submission
type InvoicesDoc struct {
	XMLName  xml.Name     `xml:"InvoicesDoc"`
	Xmlns    string       `xml:"xmlns,attr"`
	Invoices []InvoiceXML `xml:"invoice"`
}

// InvoiceXML is one invoice inside a submission document
type InvoiceXML struct {
	Issuer         IssuerXML          `xml:"issuer"`
	Counterpart    *CounterpartXML    `xml:"counterpart,omitempty"`
	Header         HeaderXML          `xml:"invoiceHeader"`
	PaymentMethods *PaymentMethodsXML `xml:"paymentMethods,omitempty"`
	Details        []DetailXML        `xml:"invoiceDetails"`
	Summary        SummaryXML         `xml:"invoiceSummary"`
}

// IssuerXML carries the issuing business block
type IssuerXML struct {
	VATNumber string      `xml:"vatNumber"`
	Country   string      `xml:"country"`
	Branch    int         `xml:"branch"`
	Name      string      `xml:"name,omitempty"`
	Address   *AddressXML `xml:"address,omitempty"`
}

// CounterpartXML carries the recipient block. The shape depends on the
// invoice type: business documents and non-domestic counterparts carry
// the full address; anonymous domestic retail carries country only.
type CounterpartXML struct {
	VATNumber string      `xml:"vatNumber,omitempty"`
	Country   string      `xml:"country"`
	Branch    int         `xml:"branch"`
	Name      string      `xml:"name,omitempty"`
	Address   *AddressXML `xml:"address,omitempty"`
}

// AddressXML is a postal address block
type AddressXML struct {
	Street     string `xml:"street,omitempty"`
	Number     string `xml:"number,omitempty"`
	PostalCode string `xml:"postalCode"`
	City       string `xml:"city"`
}

// HeaderXML is the invoiceHeader block. AA is the bare integer
// sequence with leading zeros stripped, independent of the zero-padded
// display form.
type HeaderXML struct {
	Series      string `xml:"series"`
	AA          string `xml:"aa"`
	IssueDate   string `xml:"issueDate"` // YYYY-MM-DD
	InvoiceType string `xml:"invoiceType"`
	Currency    string `xml:"currency"`
}

// PaymentMethodsXML wraps the payment method details
type PaymentMethodsXML struct {
	Details []PaymentMethodDetailXML `xml:"paymentMethodDetails"`
}

// PaymentMethodDetailXML is one payment method entry
type PaymentMethodDetailXML struct {
	Type   int    `xml:"type"`
	Amount string `xml:"amount"`
}

// DetailXML is one invoiceDetails block. Quantity, measurement unit
// and item description are omitted entirely for pure-service invoice
// types, per protocol rules.
type DetailXML struct {
	LineNumber      int                 `xml:"lineNumber"`
	ItemDescr       string              `xml:"itemDescr,omitempty"`
	Quantity        string              `xml:"quantity,omitempty"`
	MeasurementUnit int                 `xml:"measurementUnit,omitempty"`
	NetValue        string              `xml:"netValue"`
	VATCategory     int                 `xml:"vatCategory"`
	VATAmount       string              `xml:"vatAmount"`
	Classifications []ClassificationXML `xml:"incomeClassification"`
}

// ClassificationXML is one income classification entry
type ClassificationXML struct {
	Type     string `xml:"classificationType"`
	Category string `xml:"classificationCategory"`
	Amount   string `xml:"amount"`
}

// SummaryXML is the invoiceSummary block carrying the document totals
// and the aggregated classifications, all amounts to two decimals.
type SummaryXML struct {
	TotalNetValue         string              `xml:"totalNetValue"`
	TotalVATAmount        string              `xml:"totalVatAmount"`
	TotalWithheldAmount   string              `xml:"totalWithheldAmount"`
	TotalFeesAmount       string              `xml:"totalFeesAmount"`
	TotalOtherTaxesAmount string              `xml:"totalOtherTaxesAmount"`
	TotalDeductionsAmount string              `xml:"totalDeductionsAmount"`
	TotalGrossValue       string              `xml:"totalGrossValue"`
	TotalAmount           string              `xml:"totalAmount"`
	Classifications       []ClassificationXML `xml:"incomeClassification"`
}

// ResponseDoc is the root element of the authority's acknowledgment
type ResponseDoc struct {
	XMLName   xml.Name      `xml:"ResponseDoc"`
	Responses []ResponseXML `xml:"response"`
}

// ResponseXML is one per-invoice response entry
type ResponseXML struct {
	Index              int        `xml:"index"`
	StatusCode         string     `xml:"statusCode"`
	InvoiceUID         string     `xml:"invoiceUid"`
	InvoiceMark        string     `xml:"invoiceMark"`
	AuthenticationCode string     `xml:"authenticationCode"`
	CancellationMark   string     `xml:"cancellationMark"`
	Errors             *ErrorsXML `xml:"errors"`
}

// ErrorsXML wraps the ordered authority error list
type ErrorsXML struct {
	Errors []ErrorXML `xml:"error"`
}

// ErrorXML is one (code, message) pair
type ErrorXML struct {
	Code    string `xml:"code"`
	Message string `xml:"message"`
}

// envelopeXML models the extra string-typed wrapper some authority
// responses arrive in: the real payload is the element's character
// data, XML-escaped one level deep.
type envelopeXML struct {
	XMLName xml.Name `xml:"string"`
	Body    string   `xml:",chardata"`
}

// RequestedDocs is the root element of a date-range query response
type RequestedDocs struct {
	XMLName  xml.Name       `xml:"RequestedDoc"`
	Invoices []RequestedInv `xml:"invoicesDoc>invoice"`
}

// RequestedInv is a previously transmitted invoice as returned by the
// query endpoint
type RequestedInv struct {
	UID    string    `xml:"uid"`
	Mark   string    `xml:"mark"`
	Header HeaderXML `xml:"invoiceHeader"`
}
