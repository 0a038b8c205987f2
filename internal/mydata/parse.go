package mydata

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/logistia/einvoice/internal/model"
)

// StatusSuccess is the status code signaling an accepted submission
const StatusSuccess = "Success"

// Result is the parsed outcome of a submission or cancellation
type Result struct {
	Index            int
	StatusCode       string
	Mark             string
	UID              string
	AuthCode         string
	CancellationMark string
	Errors           []model.ProtocolError
}

// Success reports whether the authority accepted the document. The
// acknowledgment triple must be complete for a successful submission.
func (r *Result) Success() bool {
	return r.StatusCode == StatusSuccess
}

// UnwrapEnvelope removes the one level of string-typed wrapping some
// responses arrive in. The wrapped form is a <string> element whose
// character data is the XML-escaped real payload. Unwrapped input is
// returned unchanged, so callers always run this stage first.
func UnwrapEnvelope(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if !looksLikeEnvelope(trimmed) {
		return raw
	}

	var env envelopeXML
	if err := xml.Unmarshal(trimmed, &env); err != nil {
		return raw
	}
	inner := strings.TrimSpace(env.Body)
	if inner == "" {
		return raw
	}
	return []byte(inner)
}

func looksLikeEnvelope(trimmed []byte) bool {
	// skip an XML declaration if present
	if bytes.HasPrefix(trimmed, []byte("<?xml")) {
		if end := bytes.Index(trimmed, []byte("?>")); end != -1 {
			trimmed = bytes.TrimSpace(trimmed[end+2:])
		}
	}
	return bytes.HasPrefix(trimmed, []byte("<string"))
}

// ParseResponse parses an acknowledgment or error document. Callers
// unwrap the envelope first; ParseResponse does it defensively anyway
// so the two stages stay independently testable.
func ParseResponse(raw []byte) (*Result, error) {
	payload := UnwrapEnvelope(raw)

	var doc ResponseDoc
	if err := xml.Unmarshal(payload, &doc); err != nil {
		return nil, model.NewParseError("response", "failed to parse authority response", err)
	}
	if len(doc.Responses) == 0 {
		return nil, model.NewParseError("response", "authority response carries no entries", nil)
	}

	r := doc.Responses[0]
	result := &Result{
		Index:            r.Index,
		StatusCode:       r.StatusCode,
		Mark:             r.InvoiceMark,
		UID:              r.InvoiceUID,
		AuthCode:         r.AuthenticationCode,
		CancellationMark: r.CancellationMark,
	}

	// Errors are preserved in the order received, verbatim
	if r.Errors != nil {
		for _, e := range r.Errors.Errors {
			result.Errors = append(result.Errors, model.ProtocolError{
				Code:    e.Code,
				Message: e.Message,
			})
		}
	}

	return result, nil
}

// ParseQueryResponse parses the invoice list returned by a date-range
// query. An empty document yields an empty slice.
func ParseQueryResponse(raw []byte) ([]RequestedInv, error) {
	payload := UnwrapEnvelope(raw)

	var doc RequestedDocs
	if err := xml.Unmarshal(payload, &doc); err != nil {
		return nil, model.NewParseError("query response", "failed to parse query response", err)
	}
	return doc.Invoices, nil
}
