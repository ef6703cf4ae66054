package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	appborrowing "github.com/rowanvale/librarysvc/internal/application/borrowing"
	appcatalog "github.com/rowanvale/librarysvc/internal/application/catalog"
	apppatron "github.com/rowanvale/librarysvc/internal/application/patron"
	apppayment "github.com/rowanvale/librarysvc/internal/application/payment"
	domborrow "github.com/rowanvale/librarysvc/internal/domain/borrowing"
	domcatalog "github.com/rowanvale/librarysvc/internal/domain/catalog"
	dompayment "github.com/rowanvale/librarysvc/internal/domain/payment"

	"github.com/shopspring/decimal"
)

type Handler struct {
	catalogService   *appcatalog.Service
	borrowingService *appborrowing.Service
	patronService    *apppatron.Service
	paymentService   *apppayment.Service
}

func NewHandler(
	catalogSvc *appcatalog.Service,
	borrowingSvc *appborrowing.Service,
	patronSvc *apppatron.Service,
	paymentSvc *apppayment.Service,
) *Handler {
	return &Handler{
		catalogService:   catalogSvc,
		borrowingService: borrowingSvc,
		patronService:    patronSvc,
		paymentService:   paymentSvc,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/books", h.handleBooks)
	mux.HandleFunc("/books/search", h.method(http.MethodGet, h.handleSearchBooks))
	mux.HandleFunc("/borrow", h.method(http.MethodPost, h.handleBorrow))
	mux.HandleFunc("/return", h.method(http.MethodPost, h.handleReturn))
	mux.HandleFunc("/fees/quote", h.method(http.MethodGet, h.handleFeeQuote))
	mux.HandleFunc("/patron/status", h.method(http.MethodGet, h.handlePatronStatus))
	mux.HandleFunc("/payments/charge", h.method(http.MethodPost, h.handleCharge))
	mux.HandleFunc("/payments/refund", h.method(http.MethodPost, h.handleRefund))
	mux.HandleFunc("/payments/verify", h.method(http.MethodGet, h.handleVerify))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

func (h *Handler) handleBooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleAddBook(w, r)
	case http.MethodGet:
		h.handleListBooks(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

type addBookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	ISBN        string `json:"isbn"`
	TotalCopies int    `json:"total_copies"`
}

type addBookResponse struct {
	Success bool   `json:"success"`
	BookID  string `json:"book_id"`
	Message string `json:"message"`
}

func (h *Handler) handleAddBook(w http.ResponseWriter, r *http.Request) {
	var req addBookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.catalogService.AddBook(r.Context(), appcatalog.AddBookInput{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		TotalCopies: req.TotalCopies,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, addBookResponse{
		Success: true,
		BookID:  result.BookID,
		Message: result.Message,
	})
}

type bookResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"isbn"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
}

func (h *Handler) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.catalogService.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponses(books))
}

func (h *Handler) handleSearchBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.catalogService.Search(r.Context(), r.URL.Query().Get("q"), r.URL.Query().Get("type"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponses(books))
}

type borrowRequest struct {
	PatronID string `json:"patron_id"`
	BookID   string `json:"book_id"`
}

type borrowResponse struct {
	Success bool   `json:"success"`
	DueDate string `json:"due_date"`
	Message string `json:"message"`
}

func (h *Handler) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.borrowingService.Borrow(r.Context(), appborrowing.BorrowInput{
		PatronID: req.PatronID,
		BookID:   req.BookID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, borrowResponse{
		Success: true,
		DueDate: result.DueDate.Format("2006-01-02"),
		Message: result.Message,
	})
}

type returnResponse struct {
	Success     bool   `json:"success"`
	DaysOverdue int    `json:"days_overdue"`
	LateFee     string `json:"late_fee"`
	Message     string `json:"message"`
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.borrowingService.Return(r.Context(), appborrowing.ReturnInput{
		PatronID: req.PatronID,
		BookID:   req.BookID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, returnResponse{
		Success:     true,
		DaysOverdue: result.Quote.DaysOverdue,
		LateFee:     result.Quote.Amount.StringFixed(2),
		Message:     result.Message,
	})
}

type feeQuoteResponse struct {
	FeeAmount   string `json:"fee_amount"`
	DaysOverdue int    `json:"days_overdue"`
	Status      string `json:"status"`
}

func (h *Handler) handleFeeQuote(w http.ResponseWriter, r *http.Request) {
	quote := h.borrowingService.LateFeeQuote(r.Context(),
		r.URL.Query().Get("patron_id"),
		r.URL.Query().Get("book_id"),
	)
	writeJSON(w, http.StatusOK, feeQuoteResponse{
		FeeAmount:   quote.Amount.StringFixed(2),
		DaysOverdue: quote.DaysOverdue,
		Status:      quote.Status,
	})
}

type activeBorrowResponse struct {
	BookID      string `json:"book_id"`
	Title       string `json:"title"`
	DueDate     string `json:"due_date"`
	OverdueDays int    `json:"overdue_days"`
	AccruedFee  string `json:"accrued_fee"`
}

type historyEntryResponse struct {
	BookID     string  `json:"book_id"`
	Title      string  `json:"title"`
	BorrowDate *string `json:"borrow_date"`
	DueDate    *string `json:"due_date"`
	ReturnDate *string `json:"return_date"`
}

type patronStatusResponse struct {
	PatronID          string                 `json:"patron_id"`
	CurrentlyBorrowed []activeBorrowResponse `json:"currently_borrowed"`
	TotalLateFees     string                 `json:"total_late_fees"`
	BorrowedCount     int                    `json:"borrowed_count"`
	History           []historyEntryResponse `json:"history"`
	Status            string                 `json:"status"`
}

func (h *Handler) handlePatronStatus(w http.ResponseWriter, r *http.Request) {
	report := h.patronService.StatusReport(r.Context(), r.URL.Query().Get("patron_id"))

	current := make([]activeBorrowResponse, 0, len(report.CurrentlyBorrowed))
	for _, row := range report.CurrentlyBorrowed {
		current = append(current, activeBorrowResponse{
			BookID:      row.BookID,
			Title:       row.Title,
			DueDate:     row.DueDate,
			OverdueDays: row.OverdueDays,
			AccruedFee:  row.AccruedFee.StringFixed(2),
		})
	}
	history := make([]historyEntryResponse, 0, len(report.History))
	for _, row := range report.History {
		history = append(history, historyEntryResponse{
			BookID:     row.BookID,
			Title:      row.Title,
			BorrowDate: row.BorrowDate,
			DueDate:    row.DueDate,
			ReturnDate: row.ReturnDate,
		})
	}

	writeJSON(w, http.StatusOK, patronStatusResponse{
		PatronID:          report.PatronID,
		CurrentlyBorrowed: current,
		TotalLateFees:     report.TotalLateFees.StringFixed(2),
		BorrowedCount:     report.BorrowedCount,
		History:           history,
		Status:            report.Status,
	})
}

type chargeResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id,omitempty"`
	Amount        string `json:"amount"`
	Message       string `json:"message"`
}

func (h *Handler) handleCharge(w http.ResponseWriter, r *http.Request) {
	var req borrowRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.paymentService.PayLateFees(r.Context(), apppayment.PayLateFeesInput{
		PatronID: req.PatronID,
		BookID:   req.BookID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, paymentStatus(result.Success, result.Fault), chargeResponse{
		Success:       result.Success,
		TransactionID: result.TransactionID,
		Amount:        result.Amount.StringFixed(2),
		Message:       result.Message,
	})
}

type refundRequest struct {
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
}

type refundResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) handleRefund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.paymentService.Refund(r.Context(), apppayment.RefundInput{
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, paymentStatus(result.Success, result.Fault), refundResponse{
		Success: result.Success,
		Message: result.Message,
	})
}

type verifyResponse struct {
	TransactionID string `json:"transaction_id"`
	State         string `json:"state"`
	Message       string `json:"message"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	result := h.paymentService.Verify(r.Context(), r.URL.Query().Get("transaction_id"))
	writeJSON(w, http.StatusOK, verifyResponse{
		TransactionID: result.TransactionID,
		State:         result.State,
		Message:       result.Message,
	})
}

func toBookResponses(books []*domcatalog.Book) []bookResponse {
	out := make([]bookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, bookResponse{
			ID:              b.ID,
			Title:           b.Title,
			Author:          b.Author,
			ISBN:            b.ISBN,
			TotalCopies:     b.TotalCopies,
			AvailableCopies: b.AvailableCopies,
		})
	}
	return out
}

// paymentStatus maps a gateway outcome to an HTTP status. A decline is a
// business outcome (402), not a transport failure; 502 is reserved for
// gateway faults.
func paymentStatus(success, fault bool) int {
	switch {
	case success:
		return http.StatusOK
	case fault:
		return http.StatusBadGateway
	default:
		return http.StatusPaymentRequired
	}
}

func (h *Handler) method(method string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}
		handler(w, r)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"success": false, "message": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domcatalog.ErrNotFound),
		errors.Is(err, domborrow.ErrNoActiveBorrow):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domcatalog.ErrTitleRequired),
		errors.Is(err, domcatalog.ErrTitleTooLong),
		errors.Is(err, domcatalog.ErrAuthorRequired),
		errors.Is(err, domcatalog.ErrAuthorTooLong),
		errors.Is(err, domcatalog.ErrInvalidISBN),
		errors.Is(err, domcatalog.ErrInvalidCopies),
		errors.Is(err, domborrow.ErrInvalidPatronID),
		errors.Is(err, dompayment.ErrInvalidTransactionID),
		errors.Is(err, dompayment.ErrInvalidAmount),
		errors.Is(err, dompayment.ErrRefundTooLarge):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domcatalog.ErrDuplicateISBN),
		errors.Is(err, domcatalog.ErrNoCopiesAvailable),
		errors.Is(err, domborrow.ErrLimitExceeded),
		errors.Is(err, dompayment.ErrNoFee):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domborrow.ErrCorruptRecord):
		writeError(w, http.StatusUnprocessableEntity, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
