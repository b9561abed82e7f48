package tickets

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joao-fontenele/cayocagi/internal/auth"
	"github.com/joao-fontenele/cayocagi/internal/domain"
	"github.com/joao-fontenele/cayocagi/internal/httpx"
)

type ledger interface {
	Balance(ctx context.Context, userID int64) (int, error)
	SetBalance(ctx context.Context, userID int64, balance int) error
}

type Handler struct {
	ledger ledger
	logger *slog.Logger
}

func NewHandler(l ledger, logger *slog.Logger) *Handler {
	return &Handler{ledger: l, logger: logger}
}

func (h *Handler) Register(r chi.Router, authn *auth.Authenticator) {
	r.With(authn.Require(domain.RoleAdmin)).Put("/users/ticket-count", h.HandleSetBalance)
	r.With(authn.Require()).Get("/users/{id}/ticket-count", h.HandleGetBalance)
}

type setBalanceRequest struct {
	UserID         int64 `json:"userId"`
	NewTicketCount *int  `json:"newTicketCount"`
}

type balanceResponse struct {
	UserID      int64 `json:"userId"`
	TicketCount int   `json:"ticketCount"`
}

func (h *Handler) HandleSetBalance(w http.ResponseWriter, r *http.Request) {
	var req setBalanceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	if req.UserID <= 0 || req.NewTicketCount == nil {
		httpx.WriteMessage(w, r, h.logger, http.StatusBadRequest, "userId and newTicketCount are required")
		return
	}

	if err := h.ledger.SetBalance(r.Context(), req.UserID, *req.NewTicketCount); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	h.logger.Info("ticket balance set", "user_id", req.UserID, "ticket_count", *req.NewTicketCount)
	httpx.WriteJSON(w, h.logger, http.StatusOK, balanceResponse{UserID: req.UserID, TicketCount: *req.NewTicketCount})
}

func (h *Handler) HandleGetBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	balance, err := h.ledger.Balance(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, balanceResponse{UserID: userID, TicketCount: balance})
}
