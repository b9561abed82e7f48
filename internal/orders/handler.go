package orders

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joao-fontenele/cayocagi/internal/auth"
	"github.com/joao-fontenele/cayocagi/internal/domain"
	"github.com/joao-fontenele/cayocagi/internal/httpx"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts /orders and /orderdrinks. Every route requires a bearer
// token; admin-only listings are enforced by the service.
func (h *Handler) Register(r chi.Router, authn *auth.Authenticator) {
	r.Group(func(r chi.Router) {
		r.Use(authn.Require())

		r.Post("/orders", h.HandleCreate)
		r.Get("/orders", h.HandleListAll)
		r.Get("/orders/all", h.HandleListAll)
		r.Delete("/orders/all", h.HandleDeleteAll)
		r.Get("/orders/pending", h.HandleListPending)
		r.Get("/orders/completed", h.HandleListCompleted)
		r.Get("/orders/my-orders", h.HandleListMine)
		r.Get("/orders/{id}", h.HandleGet)
		r.Put("/orders/{id}", h.HandleUpdate)
		r.Patch("/orders/{id}", h.HandlePatch)
		r.Delete("/orders/{id}", h.HandleDelete)

		r.Post("/orderdrinks", h.HandleAddLine)
		r.Get("/orderdrinks", h.HandleListLines)
		r.Get("/orderdrinks/by-order/{orderId}", h.HandleLinesByOrder)
		r.Get("/orderdrinks/{id}", h.HandleGetLine)
		r.Put("/orderdrinks/{id}", h.HandleUpdateLine)
		r.Patch("/orderdrinks/{id}", h.HandlePatchLine)
		r.Delete("/orderdrinks/{id}", h.HandleDeleteLine)
	})
}

type createOrderRequest struct {
	Note   *string     `json:"note"`
	RoomID int64       `json:"roomId"`
	Lines  []LineInput `json:"lines"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.Caller(r)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	var req createOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	order, err := h.service.Create(r.Context(), caller, CreateInput{
		Note:   req.Note,
		RoomID: req.RoomID,
		Lines:  req.Lines,
	})
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusCreated, order)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.service.Get(r.Context(), caller, id)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, order)
}

type updateOrderRequest struct {
	ID     *int64              `json:"id"`
	Note   *string             `json:"note"`
	RoomID int64               `json:"roomId"`
	Status *domain.OrderStatus `json:"status"`
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r, "id")
	if !ok {
		return
	}

	var req updateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	if req.ID != nil && *req.ID != id {
		httpx.WriteMessage(w, r, h.logger, http.StatusBadRequest, "id in body does not match path")
		return
	}

	order, err := h.service.Update(r.Context(), caller, id, UpdateInput{
		Note:   req.Note,
		RoomID: req.RoomID,
		Status: req.Status,
	})
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, order)
}

type patchOrderRequest struct {
	Note   domain.Optional[string]             `json:"note"`
	RoomID domain.Optional[int64]              `json:"roomId"`
	Status domain.Optional[domain.OrderStatus] `json:"status"`
}

func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r, "id")
	if !ok {
		return
	}

	var req patchOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	order, err := h.service.Patch(r.Context(), caller, id, PatchInput(req))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, order)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListPending)
}

func (h *Handler) HandleListCompleted(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListCompleted)
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListMine)
}

func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListAll)
}

func (h *Handler) HandleDeleteAll(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.Caller(r)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	n, err := h.service.DeleteAll(r.Context(), caller)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, map[string]int64{"deleted": n})
}

type listFunc func(context.Context, *auth.Identity) ([]domain.Order, error)

func (h *Handler) list(w http.ResponseWriter, r *http.Request, fetch listFunc) {
	caller, err := auth.Caller(r)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	orders, err := fetch(r.Context(), caller)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	h.logger.Info("orders listed", "count", len(orders), "path", r.URL.Path)
	httpx.WriteJSON(w, h.logger, http.StatusOK, orders)
}

// callerAndID resolves the identity and a positive path id, answering the
// request itself on failure.
func (h *Handler) callerAndID(w http.ResponseWriter, r *http.Request, param string) (*auth.Identity, int64, bool) {
	caller, err := auth.Caller(r)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return nil, 0, false
	}
	id, err := httpx.IDParam(r, param)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return nil, 0, false
	}
	return caller, id, true
}
