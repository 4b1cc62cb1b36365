package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"factorline/internal/ledger/handler/mocks"
	"factorline/internal/ledger/models"
	"factorline/internal/platform/middleware"
	id "factorline/pkg/domain"
	dErrors "factorline/pkg/domain-errors"
	"factorline/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/ledger-mocks.go -package=mocks Service

const validToken = "valid-token"

var testParty = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// stubValidator accepts exactly one token and maps it to testParty.
type stubValidator struct{}

func (stubValidator) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	if tokenString != validToken {
		return nil, errors.New("unknown token")
	}
	return &middleware.JWTClaims{PartyID: testParty.String()}, nil
}

type LedgerHandlerSuite struct {
	suite.Suite
}

func TestLedgerHandlerSuite(t *testing.T) {
	suite.Run(t, new(LedgerHandlerSuite))
}

func newTestRouter(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(mockService, logger, nil, stubValidator{})
	r := chi.NewRouter()
	h.Register(r)
	return r, mockService
}

func authorize(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+validToken)
	return req
}

func pendingInvoice() *models.Invoice {
	due := time.Now().Add(30 * 24 * time.Hour).UTC().Truncate(time.Second)
	return &models.Invoice{
		ID:               42,
		BusinessOwner:    id.PartyID(testParty),
		Amount:           1_000_000,
		DueDate:          due,
		DebtorInfo:       "Acme Industrial Supplies",
		Status:           models.StatusPendingFunding,
		RiskScore:        15,
		InsurancePremium: 15_000,
		PaymentTermsDays: 30,
		CreatedAt:        time.Now().UTC().Truncate(time.Second),
	}
}

func (s *LedgerHandlerSuite) TestCreateInvoiceRequiresAuth() {
	router, _ := newTestRouter(s.T())

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/invoices", map[string]any{
		"invoice_id":  "42",
		"amount":      1_000_000,
		"due_date":    time.Now().Add(30 * 24 * time.Hour).Format(time.RFC3339),
		"debtor_info": "Acme Industrial Supplies",
	})
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
}

func (s *LedgerHandlerSuite) TestCreateInvoice() {
	router, mockService := newTestRouter(s.T())
	inv := pendingInvoice()

	mockService.EXPECT().CreateInvoice(
		gomock.Any(),
		id.InvoiceID(42),
		id.PartyID(testParty),
		uint64(1_000_000),
		gomock.Any(),
		"Acme Industrial Supplies",
	).Return(inv, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/invoices", map[string]any{
		"invoice_id":  "42",
		"amount":      1_000_000,
		"due_date":    inv.DueDate.Format(time.RFC3339),
		"debtor_info": "Acme Industrial Supplies",
	})
	rr := testutil.DoRequest(router, authorize(req))

	testutil.AssertStatus(s.T(), rr, http.StatusCreated)

	resp := testutil.UnmarshalResponse[InvoiceResponse](s.T(), rr)
	s.Equal("42", resp.InvoiceID)
	s.Equal(testParty.String(), resp.BusinessOwner)
	s.Equal(string(models.StatusPendingFunding), resp.Status)
	s.Nil(resp.Investor)
}

func (s *LedgerHandlerSuite) TestCreateInvoiceRejectsMissingFields() {
	router, _ := newTestRouter(s.T())

	// No amount, no due date; the service must not be called.
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/invoices", map[string]any{"invoice_id": "42"})
	rr := testutil.DoRequest(router, authorize(req))

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *LedgerHandlerSuite) TestGetInvoiceNotFound() {
	router, mockService := newTestRouter(s.T())
	mockService.EXPECT().GetInvoice(gomock.Any(), id.InvoiceID(999)).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "invoice not found"))

	rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/invoices/999"))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *LedgerHandlerSuite) TestGetInvoiceRejectsNonNumericID() {
	router, _ := newTestRouter(s.T())

	rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/invoices/not-a-number"))

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *LedgerHandlerSuite) TestListInvoicesDefaultsToPendingFunding() {
	router, mockService := newTestRouter(s.T())
	mockService.EXPECT().ListInvoices(gomock.Any(), models.StatusPendingFunding).
		Return([]*models.Invoice{pendingInvoice()}, nil)

	rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/invoices"))

	testutil.AssertStatusOK(s.T(), rr)

	resp := testutil.UnmarshalResponse[InvoiceListResponse](s.T(), rr)
	s.Require().Len(resp.Invoices, 1)
	s.Equal("42", resp.Invoices[0].InvoiceID)
}

func (s *LedgerHandlerSuite) TestListInvoicesRejectsUnknownStatus() {
	router, _ := newTestRouter(s.T())

	rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/invoices?status=sideways"))

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *LedgerHandlerSuite) TestFundInvoice() {
	router, mockService := newTestRouter(s.T())
	inv := pendingInvoice()
	inv.Status = models.StatusFunded
	inv.Investor = id.PartyID(testParty)
	inv.FundedAmount = inv.Amount

	mockService.EXPECT().FundInvoice(gomock.Any(), id.InvoiceID(42), id.PartyID(testParty), uint64(1_000_000)).
		Return(inv, nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/invoices/42/fund", map[string]any{"amount": 1_000_000})
	rr := testutil.DoRequest(router, authorize(req))

	testutil.AssertStatusOK(s.T(), rr)

	resp := testutil.UnmarshalResponse[InvoiceResponse](s.T(), rr)
	s.Equal(string(models.StatusFunded), resp.Status)
	s.Require().NotNil(resp.Investor)
	s.Equal(testParty.String(), *resp.Investor)
}

func (s *LedgerHandlerSuite) TestFundInvoiceInsufficientFunds() {
	router, mockService := newTestRouter(s.T())
	mockService.EXPECT().FundInvoice(gomock.Any(), id.InvoiceID(42), id.PartyID(testParty), uint64(1_000_000)).
		Return(nil, dErrors.New(dErrors.CodeInsufficientFunds, "investor balance cannot cover funding cost"))

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/invoices/42/fund", map[string]any{"amount": 1_000_000})
	rr := testutil.DoRequest(router, authorize(req))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, "insufficient_funds")
}

func (s *LedgerHandlerSuite) TestClaimOutsideWindow() {
	router, mockService := newTestRouter(s.T())
	mockService.EXPECT().ClaimInsurance(gomock.Any(), id.InvoiceID(42), id.PartyID(testParty)).
		Return(nil, dErrors.New(dErrors.CodeWindowClosed, "grace period has not elapsed"))

	req := testutil.NewRequest(s.T(), http.MethodPost, "/invoices/42/claim")
	rr := testutil.DoRequest(router, authorize(req))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, "window_closed")
}

func (s *LedgerHandlerSuite) TestRepayInvoiceConflict() {
	router, mockService := newTestRouter(s.T())
	mockService.EXPECT().RepayInvoice(gomock.Any(), id.InvoiceID(42), id.PartyID(testParty), uint64(500)).
		Return(nil, dErrors.New(dErrors.CodeConflict, "invoice is not funded"))

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/invoices/42/repay", map[string]any{"amount": 500})
	rr := testutil.DoRequest(router, authorize(req))

	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
}
