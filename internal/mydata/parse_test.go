package mydata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logistia/einvoice/internal/mydata"
)

const successResponse = `<?xml version="1.0" encoding="utf-8"?>
<ResponseDoc>
  <response>
    <index>1</index>
    <statusCode>Success</statusCode>
    <invoiceUid>UID-001</invoiceUid>
    <invoiceMark>400001234567890</invoiceMark>
    <authenticationCode>AUTH-001</authenticationCode>
  </response>
</ResponseDoc>`

const rejectionResponse = `<?xml version="1.0" encoding="utf-8"?>
<ResponseDoc>
  <response>
    <index>1</index>
    <statusCode>ValidationError</statusCode>
    <errors>
      <error>
        <code>201</code>
        <message>VAT number is invalid</message>
      </error>
      <error>
        <code>233</code>
        <message>Issue date is in the future</message>
      </error>
    </errors>
  </response>
</ResponseDoc>`

// wrap produces the string-typed envelope some gateway deployments add:
// the payload is carried as XML-escaped character data.
func wrap(inner string) string {
	var b []byte
	b = append(b, `<?xml version="1.0" encoding="utf-8"?><string xmlns="http://tempuri.org/">`...)
	for _, r := range inner {
		switch r {
		case '<':
			b = append(b, "&lt;"...)
		case '>':
			b = append(b, "&gt;"...)
		case '&':
			b = append(b, "&amp;"...)
		default:
			b = append(b, string(r)...)
		}
	}
	return string(append(b, "</string>"...))
}

func TestParseResponse_Success(t *testing.T) {
	res, err := mydata.ParseResponse([]byte(successResponse))
	require.NoError(t, err)

	assert.True(t, res.Success())
	assert.Equal(t, "400001234567890", res.Mark)
	assert.Equal(t, "UID-001", res.UID)
	assert.Equal(t, "AUTH-001", res.AuthCode)
	assert.Empty(t, res.Errors)
}

func TestParseResponse_RejectionKeepsErrorOrder(t *testing.T) {
	res, err := mydata.ParseResponse([]byte(rejectionResponse))
	require.NoError(t, err)

	assert.False(t, res.Success())
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "201", res.Errors[0].Code)
	assert.Equal(t, "VAT number is invalid", res.Errors[0].Message)
	assert.Equal(t, "233", res.Errors[1].Code)
}

func TestParseResponse_WrappedAndBareAgree(t *testing.T) {
	bare, err := mydata.ParseResponse([]byte(successResponse))
	require.NoError(t, err)

	wrapped, err := mydata.ParseResponse([]byte(wrap(successResponse)))
	require.NoError(t, err)

	assert.Equal(t, bare, wrapped)
}

func TestParseResponse_CancellationMark(t *testing.T) {
	payload := `<?xml version="1.0" encoding="utf-8"?>
<ResponseDoc>
  <response>
    <index>1</index>
    <statusCode>Success</statusCode>
    <cancellationMark>400009876543210</cancellationMark>
  </response>
</ResponseDoc>`

	res, err := mydata.ParseResponse([]byte(payload))
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.Equal(t, "400009876543210", res.CancellationMark)
}

func TestParseResponse_Malformed(t *testing.T) {
	_, err := mydata.ParseResponse([]byte("<not-xml"))
	assert.Error(t, err)
}

func TestParseResponse_EmptyDocument(t *testing.T) {
	_, err := mydata.ParseResponse([]byte(`<?xml version="1.0"?><ResponseDoc></ResponseDoc>`))
	assert.Error(t, err)
}

func TestUnwrapEnvelope(t *testing.T) {
	inner := mydata.UnwrapEnvelope([]byte(wrap(successResponse)))
	assert.Equal(t, successResponse, string(inner))
}

func TestUnwrapEnvelope_PassesBareThrough(t *testing.T) {
	inner := mydata.UnwrapEnvelope([]byte(successResponse))
	assert.Equal(t, successResponse, string(inner))
}

func TestParseQueryResponse(t *testing.T) {
	payload := `<?xml version="1.0" encoding="utf-8"?>
<RequestedDoc>
  <invoicesDoc>
    <invoice>
      <uid>UID-001</uid>
      <mark>400001234567890</mark>
      <invoiceHeader>
        <series>A</series>
        <aa>42</aa>
        <issueDate>2026-02-01</issueDate>
        <invoiceType>1.1</invoiceType>
        <currency>EUR</currency>
      </invoiceHeader>
    </invoice>
  </invoicesDoc>
</RequestedDoc>`

	docs, err := mydata.ParseQueryResponse([]byte(payload))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "400001234567890", docs[0].Mark)
	assert.Equal(t, "A", docs[0].Header.Series)
	assert.Equal(t, "42", docs[0].Header.AA)
}
