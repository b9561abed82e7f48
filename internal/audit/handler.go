package audit

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joao-fontenele/cayocagi/internal/auth"
	"github.com/joao-fontenele/cayocagi/internal/domain"
	"github.com/joao-fontenele/cayocagi/internal/httpx"
)

type historyReader interface {
	ListByOrder(ctx context.Context, orderID int64) ([]Entry, error)
}

type Handler struct {
	history historyReader
	logger  *slog.Logger
}

func NewHandler(history historyReader, logger *slog.Logger) *Handler {
	return &Handler{history: history, logger: logger}
}

func (h *Handler) Register(r chi.Router, authn *auth.Authenticator) {
	r.With(authn.Require(domain.RoleAdmin)).Get("/orders/{id}/history", h.HandleHistory)
}

// HandleHistory returns the recorded events of an order, oldest first. Orders
// deleted since keep their history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	orderID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	entries, err := h.history.ListByOrder(r.Context(), orderID)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, entries)
}
