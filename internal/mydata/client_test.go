package mydata_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logistia/einvoice/internal/model"
	"github.com/logistia/einvoice/internal/mydata"
)

var testCreds = mydata.Credentials{UserID: "user-1", SubscriptionKey: "key-1"}

func TestClient_SendInvoice_Success(t *testing.T) {
	var gotUser, gotKey, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/SendInvoices", r.URL.Path)
		gotUser = r.Header.Get("aade-user-id")
		gotKey = r.Header.Get("ocp-apim-subscription-key")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(successResponse))
	}))
	defer srv.Close()

	client := mydata.NewClient(mydata.WithBaseURL(srv.URL))
	res, err := client.SendInvoice(context.Background(), []byte("<InvoicesDoc/>"), testCreds)
	require.NoError(t, err)

	assert.True(t, res.Success())
	assert.Equal(t, "400001234567890", res.Mark)
	assert.Equal(t, "UID-001", res.UID)
	assert.Equal(t, "AUTH-001", res.AuthCode)

	assert.Equal(t, "user-1", gotUser)
	assert.Equal(t, "key-1", gotKey)
	assert.Equal(t, "application/xml", gotContentType)
}

func TestClient_SendInvoice_RejectionPreservesErrorOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rejectionResponse))
	}))
	defer srv.Close()

	client := mydata.NewClient(mydata.WithBaseURL(srv.URL))
	res, err := client.SendInvoice(context.Background(), []byte("<InvoicesDoc/>"), testCreds)
	require.NoError(t, err)

	assert.False(t, res.Success())
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "201", res.Errors[0].Code)
	assert.Equal(t, "233", res.Errors[1].Code)
}

func TestClient_SendInvoice_WrappedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(wrap(successResponse)))
	}))
	defer srv.Close()

	client := mydata.NewClient(mydata.WithBaseURL(srv.URL))
	res, err := client.SendInvoice(context.Background(), []byte("<InvoicesDoc/>"), testCreds)
	require.NoError(t, err)
	assert.Equal(t, "400001234567890", res.Mark)
}

func TestClient_SendInvoice_IncompleteCredentials(t *testing.T) {
	client := mydata.NewClient(mydata.WithBaseURL("http://127.0.0.1:0"))
	_, err := client.SendInvoice(context.Background(), []byte("<InvoicesDoc/>"), mydata.Credentials{UserID: "only-user"})

	var credErr *model.CredentialsError
	assert.True(t, errors.As(err, &credErr))
}

func TestClient_SendInvoice_UnauthorizedIsCredentialsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := mydata.NewClient(mydata.WithBaseURL(srv.URL))
	_, err := client.SendInvoice(context.Background(), []byte("<InvoicesDoc/>"), testCreds)

	var credErr *model.CredentialsError
	assert.True(t, errors.As(err, &credErr))
}

func TestClient_SendInvoice_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := mydata.NewClient(mydata.WithBaseURL(srv.URL))
	_, err := client.SendInvoice(context.Background(), []byte("<InvoicesDoc/>"), testCreds)

	var txErr *model.TransmissionError
	require.True(t, errors.As(err, &txErr))
	assert.True(t, txErr.Transient)
}

func TestClient_SendInvoice_ClientErrorIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := mydata.NewClient(mydata.WithBaseURL(srv.URL))
	_, err := client.SendInvoice(context.Background(), []byte("<InvoicesDoc/>"), testCreds)

	var txErr *model.TransmissionError
	require.True(t, errors.As(err, &txErr))
	assert.False(t, txErr.Transient)
}

func TestClient_SendInvoice_UnreachableHostIsTransient(t *testing.T) {
	// closed port: connection refused
	client := mydata.NewClient(
		mydata.WithBaseURL("http://127.0.0.1:1"),
		mydata.WithTimeout(500*time.Millisecond),
	)
	_, err := client.SendInvoice(context.Background(), []byte("<InvoicesDoc/>"), testCreds)

	var txErr *model.TransmissionError
	require.True(t, errors.As(err, &txErr))
	assert.True(t, txErr.Transient)
}

func TestClient_CancelInvoice(t *testing.T) {
	var gotMark string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/CancelInvoice", r.URL.Path)
		gotMark = r.URL.Query().Get("mark")
		w.Write([]byte(`<?xml version="1.0"?><ResponseDoc><response><index>1</index><statusCode>Success</statusCode><cancellationMark>400009876543210</cancellationMark></response></ResponseDoc>`))
	}))
	defer srv.Close()

	client := mydata.NewClient(mydata.WithBaseURL(srv.URL))
	res, err := client.CancelInvoice(context.Background(), "400001234567890", testCreds)
	require.NoError(t, err)

	assert.Equal(t, "400001234567890", gotMark)
	assert.Equal(t, "400009876543210", res.CancellationMark)
}

func TestClient_QueryByDateRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/RequestTransmittedDocs", r.URL.Path)
		assert.Equal(t, "01/02/2026", r.URL.Query().Get("dateFrom"))
		assert.Equal(t, "28/02/2026", r.URL.Query().Get("dateTo"))
		w.Write([]byte(`<?xml version="1.0"?><RequestedDoc><invoicesDoc><invoice><uid>UID-001</uid><mark>400001234567890</mark><invoiceHeader><series>A</series><aa>42</aa></invoiceHeader></invoice></invoicesDoc></RequestedDoc>`))
	}))
	defer srv.Close()

	client := mydata.NewClient(mydata.WithBaseURL(srv.URL))
	docs, err := client.QueryByDateRange(context.Background(),
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		testCreds)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "400001234567890", docs[0].Mark)
}

func TestClient_QueryByDateRange_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := mydata.NewClient(mydata.WithBaseURL(srv.URL))
	docs, err := client.QueryByDateRange(context.Background(),
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		testCreds)

	assert.NoError(t, err)
	assert.Empty(t, docs)
}
