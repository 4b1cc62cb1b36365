// Package handler wires the invoice marketplace endpoints to the ledger
// service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"factorline/internal/audit"
	"factorline/internal/ledger/models"
	"factorline/internal/platform/metrics"
	"factorline/internal/platform/middleware"
	"factorline/internal/registry"
	id "factorline/pkg/domain"
	dErrors "factorline/pkg/domain-errors"
	"factorline/pkg/platform/httputil"
	"factorline/pkg/requestcontext"
)

// Service defines the interface for ledger operations.
type Service interface {
	CreateInvoice(ctx context.Context, invoiceID id.InvoiceID, owner id.PartyID, amount uint64, dueDate time.Time, debtorInfo string) (*models.Invoice, error)
	FundInvoice(ctx context.Context, invoiceID id.InvoiceID, investor id.PartyID, amount uint64) (*models.Invoice, error)
	RepayInvoice(ctx context.Context, invoiceID id.InvoiceID, owner id.PartyID, repaymentAmount uint64) (*models.Invoice, error)
	ClaimInsurance(ctx context.Context, invoiceID id.InvoiceID, claimant id.PartyID) (*models.Invoice, error)
	GetInvoice(ctx context.Context, invoiceID id.InvoiceID) (*models.Invoice, error)
	ListInvoices(ctx context.Context, status models.Status) ([]*models.Invoice, error)
	ListEvents(ctx context.Context, invoiceID id.InvoiceID) ([]audit.Event, error)
	Registry(ctx context.Context) (*registry.State, error)
}

// Handler handles invoice marketplace endpoints.
type Handler struct {
	logger       *slog.Logger
	service      Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new ledger Handler.
func New(
	service Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		service:      service,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the marketplace routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	invoiceRouter := chi.NewRouter()
	invoiceRouter.Use(middleware.Recovery(h.logger))
	invoiceRouter.Use(middleware.RequestID)
	invoiceRouter.Use(middleware.RequestTime)
	invoiceRouter.Use(middleware.ClientMetadata)
	invoiceRouter.Use(middleware.Logger(h.logger))
	invoiceRouter.Use(middleware.Timeout(30 * time.Second))
	invoiceRouter.Use(middleware.ContentTypeJSON)
	if h.metrics != nil {
		invoiceRouter.Use(middleware.Latency(h.metrics))
	}

	invoiceRouter.Get("/invoices", h.handleListInvoices)
	invoiceRouter.Get("/invoices/{invoiceID}", h.handleGetInvoice)
	invoiceRouter.Get("/invoices/{invoiceID}/events", h.handleListEvents)
	invoiceRouter.Get("/registry", h.handleGetRegistry)

	invoiceRouter.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Post("/invoices", h.handleCreateInvoice)
		r.Post("/invoices/{invoiceID}/fund", h.handleFundInvoice)
		r.Post("/invoices/{invoiceID}/repay", h.handleRepayInvoice)
		r.Post("/invoices/{invoiceID}/claim", h.handleClaimInsurance)
	})

	r.Mount("/", invoiceRouter)
}

// authenticatedParty pulls the party set by RequireAuth. A zero value means
// the middleware chain is misconfigured.
func (h *Handler) authenticatedParty(w http.ResponseWriter, r *http.Request) (id.PartyID, bool) {
	party := requestcontext.PartyID(r.Context())
	if party.IsNil() {
		h.logger.ErrorContext(r.Context(), "party missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return id.PartyID{}, false
	}
	return party, true
}

func (h *Handler) pathInvoiceID(w http.ResponseWriter, r *http.Request) (id.InvoiceID, bool) {
	invoiceID, err := id.ParseInvoiceID(chi.URLParam(r, "invoiceID"))
	if err != nil {
		httputil.WriteError(w, err)
		return 0, false
	}
	return invoiceID, true
}

// handleCreateInvoice handles POST /invoices.
func (h *Handler) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	owner, ok := h.authenticatedParty(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateInvoiceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	inv, err := h.service.CreateInvoice(ctx, req.ParsedInvoiceID(), owner, req.Amount, req.ParsedDueDate(), req.DebtorInfo)
	if err != nil {
		h.logger.WarnContext(ctx, "create invoice failed",
			"request_id", requestID,
			"invoice_id", req.InvoiceID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromInvoice(inv))
}

// handleListInvoices handles GET /invoices. The status filter defaults to
// pending_funding, the open-marketplace browsing case.
func (h *Handler) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := models.StatusPendingFunding
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := models.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		status = parsed
	}

	invoices, err := h.service.ListInvoices(ctx, status)
	if err != nil {
		h.logger.ErrorContext(ctx, "list invoices failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromInvoiceList(invoices))
}

// handleGetInvoice handles GET /invoices/{invoiceID}.
func (h *Handler) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID, ok := h.pathInvoiceID(w, r)
	if !ok {
		return
	}

	inv, err := h.service.GetInvoice(r.Context(), invoiceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromInvoice(inv))
}

// handleListEvents handles GET /invoices/{invoiceID}/events.
func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	invoiceID, ok := h.pathInvoiceID(w, r)
	if !ok {
		return
	}

	events, err := h.service.ListEvents(r.Context(), invoiceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, EventListResponse{Events: events})
}

// handleFundInvoice handles POST /invoices/{invoiceID}/fund.
func (h *Handler) handleFundInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	investor, ok := h.authenticatedParty(w, r)
	if !ok {
		return
	}
	invoiceID, ok := h.pathInvoiceID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[FundInvoiceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	inv, err := h.service.FundInvoice(ctx, invoiceID, investor, req.Amount)
	if err != nil {
		h.logger.WarnContext(ctx, "fund invoice failed",
			"request_id", requestID,
			"invoice_id", invoiceID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromInvoice(inv))
}

// handleRepayInvoice handles POST /invoices/{invoiceID}/repay.
func (h *Handler) handleRepayInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	owner, ok := h.authenticatedParty(w, r)
	if !ok {
		return
	}
	invoiceID, ok := h.pathInvoiceID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RepayInvoiceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	inv, err := h.service.RepayInvoice(ctx, invoiceID, owner, req.Amount)
	if err != nil {
		h.logger.WarnContext(ctx, "repay invoice failed",
			"request_id", requestID,
			"invoice_id", invoiceID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromInvoice(inv))
}

// handleClaimInsurance handles POST /invoices/{invoiceID}/claim. No body; the
// payout is computed server-side from risk coverage.
func (h *Handler) handleClaimInsurance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	claimant, ok := h.authenticatedParty(w, r)
	if !ok {
		return
	}
	invoiceID, ok := h.pathInvoiceID(w, r)
	if !ok {
		return
	}

	inv, err := h.service.ClaimInsurance(ctx, invoiceID, claimant)
	if err != nil {
		h.logger.WarnContext(ctx, "insurance claim failed",
			"request_id", requestID,
			"invoice_id", invoiceID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromInvoice(inv))
}

// handleGetRegistry handles GET /registry.
func (h *Handler) handleGetRegistry(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.Registry(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRegistry(state))
}
