package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appborrowing "github.com/rowanvale/librarysvc/internal/application/borrowing"
	appcatalog "github.com/rowanvale/librarysvc/internal/application/catalog"
	apppatron "github.com/rowanvale/librarysvc/internal/application/patron"
	apppayment "github.com/rowanvale/librarysvc/internal/application/payment"
	dompayment "github.com/rowanvale/librarysvc/internal/domain/payment"
	"github.com/rowanvale/librarysvc/internal/infrastructure/id"
	"github.com/rowanvale/librarysvc/internal/infrastructure/memory"
	"github.com/rowanvale/librarysvc/internal/infrastructure/paygate"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() http.Handler {
	return newTestRouterWithGateway(paygate.New("test_key_12345"))
}

func newTestRouterWithGateway(gateway dompayment.Gateway) http.Handler {
	books := memory.NewBookRepository()
	records := memory.NewBorrowRepository()

	catalogSvc := appcatalog.NewService(books, id.NewUUIDGenerator())
	borrowingSvc := appborrowing.NewService(books, records, nil)
	patronSvc := apppatron.NewService(books, records)
	paymentSvc := apppayment.NewService(books, borrowingSvc, gateway, nil)

	return NewHandler(catalogSvc, borrowingSvc, patronSvc, paymentSvc).Router()
}

// scriptedGateway returns canned refund outcomes so handler tests can
// exercise declines and transport faults directly.
type scriptedGateway struct {
	refundResult dompayment.RefundResult
	refundErr    error
}

func (g *scriptedGateway) Charge(context.Context, string, decimal.Decimal, string) (dompayment.ChargeResult, error) {
	return dompayment.ChargeResult{}, nil
}

func (g *scriptedGateway) Refund(context.Context, string, decimal.Decimal) (dompayment.RefundResult, error) {
	return g.refundResult, g.refundErr
}

func (g *scriptedGateway) Verify(context.Context, string) (dompayment.VerifyResult, error) {
	return dompayment.VerifyResult{}, nil
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestAddBookEndpoint(t *testing.T) {
	router := newTestRouter()

	rec, body := doJSON(t, router, http.MethodPost, "/books",
		`{"title":"The Go Programming Language","author":"Donovan","isbn":"9780134190440","total_copies":2}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["book_id"])
	assert.Equal(t, `Book "The Go Programming Language" has been successfully added to the catalog.`, body["message"])

	// Same ISBN again conflicts.
	rec, body = doJSON(t, router, http.MethodPost, "/books",
		`{"title":"Second Edition","author":"Donovan","isbn":"9780134190440","total_copies":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestAddBookValidationMapsToBadRequest(t *testing.T) {
	router := newTestRouter()

	rec, body := doJSON(t, router, http.MethodPost, "/books",
		`{"title":"","author":"Donovan","isbn":"9780134190440","total_copies":2}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestBorrowAndReturnEndpoints(t *testing.T) {
	router := newTestRouter()

	_, added := doJSON(t, router, http.MethodPost, "/books",
		`{"title":"Some Book","author":"Author","isbn":"9780134190440","total_copies":1}`)
	bookID := added["book_id"].(string)

	rec, body := doJSON(t, router, http.MethodPost, "/borrow",
		`{"patron_id":"123456","book_id":"`+bookID+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["due_date"])

	// Out of copies now.
	rec, _ = doJSON(t, router, http.MethodPost, "/borrow",
		`{"patron_id":"654321","book_id":"`+bookID+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, body = doJSON(t, router, http.MethodPost, "/return",
		`{"patron_id":"123456","book_id":"`+bookID+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "0.00", body["late_fee"])

	// No active borrow anymore.
	rec, _ = doJSON(t, router, http.MethodPost, "/return",
		`{"patron_id":"123456","book_id":"`+bookID+`"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBorrowRejectsMalformedPatron(t *testing.T) {
	router := newTestRouter()

	rec, body := doJSON(t, router, http.MethodPost, "/borrow",
		`{"patron_id":"12x","book_id":"whatever"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestPatronStatusEndpoint(t *testing.T) {
	router := newTestRouter()

	rec, body := doJSON(t, router, http.MethodGet, "/patron/status?patron_id=123456", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "0.00", body["total_late_fees"])

	_, body = doJSON(t, router, http.MethodGet, "/patron/status?patron_id=nope", "")
	assert.Equal(t, "Invalid patron ID", body["status"])
}

func TestRefundEndpointBounds(t *testing.T) {
	router := newTestRouter()

	rec, _ := doJSON(t, router, http.MethodPost, "/payments/refund",
		`{"transaction_id":"txn_123456_1","amount":"20.00"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := doJSON(t, router, http.MethodPost, "/payments/refund",
		`{"transaction_id":"txn_123456_1","amount":"6.50"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
}

func TestRefundStatusSeparatesDeclineFromFault(t *testing.T) {
	t.Run("decline", func(t *testing.T) {
		router := newTestRouterWithGateway(&scriptedGateway{
			refundResult: dompayment.RefundResult{Success: false, Message: "Transaction not found"},
		})

		rec, body := doJSON(t, router, http.MethodPost, "/payments/refund",
			`{"transaction_id":"txn_123456_1","amount":"6.50"}`)
		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Refund failed: Transaction not found", body["message"])
	})

	t.Run("gateway fault", func(t *testing.T) {
		router := newTestRouterWithGateway(&scriptedGateway{
			refundErr: errors.New("connection reset by peer"),
		})

		rec, body := doJSON(t, router, http.MethodPost, "/payments/refund",
			`{"transaction_id":"txn_123456_1","amount":"6.50"}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, false, body["success"])
	})
}

func TestChargeWithoutFeesConflicts(t *testing.T) {
	router := newTestRouter()

	_, added := doJSON(t, router, http.MethodPost, "/books",
		`{"title":"Some Book","author":"Author","isbn":"9780134190440","total_copies":1}`)
	bookID := added["book_id"].(string)

	_, _ = doJSON(t, router, http.MethodPost, "/borrow",
		`{"patron_id":"123456","book_id":"`+bookID+`"}`)

	// Borrowed just now, nothing is overdue.
	rec, body := doJSON(t, router, http.MethodPost, "/payments/charge",
		`{"patron_id":"123456","book_id":"`+bookID+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestVerifyEndpoint(t *testing.T) {
	router := newTestRouter()

	rec, body := doJSON(t, router, http.MethodGet, "/payments/verify?transaction_id=txn_123456_1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", body["state"])
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestRouter()

	rec, _ := doJSON(t, router, http.MethodDelete, "/borrow", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
