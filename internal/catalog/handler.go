package catalog

import (
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
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router, authn *auth.Authenticator) {
	r.Group(func(r chi.Router) {
		r.Use(authn.Require())
		r.Get("/rooms", h.HandleListRooms)
		r.Get("/rooms/{id}", h.HandleGetRoom)
		r.Get("/beverages", h.HandleListBeverages)
		r.Get("/beverages/{id}", h.HandleGetBeverage)
	})

	r.Group(func(r chi.Router) {
		r.Use(authn.Require(domain.RoleAdmin))
		r.Post("/rooms", h.HandleCreateRoom)
		r.Put("/rooms/{id}", h.HandleRenameRoom)
		r.Patch("/rooms/{id}", h.HandleRenameRoom)
		r.Delete("/rooms/{id}", h.HandleDeleteRoom)

		r.Get("/beverages/all", h.HandleListAllBeverages)
		r.Post("/beverages", h.HandleCreateBeverage)
		r.Put("/beverages/{id}", h.HandleReplaceBeverage)
		r.Patch("/beverages/{id}/toggle-active", h.HandleToggleBeverage)
		r.Delete("/beverages/{id}", h.HandleDeleteBeverage)
	})
}

type roomRequest struct {
	Name string `json:"name"`
}

func (h *Handler) HandleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.service.ListRooms(r.Context())
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, rooms)
}

func (h *Handler) HandleGetRoom(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	room, err := h.service.GetRoom(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, room)
}

func (h *Handler) HandleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	room, err := h.service.CreateRoom(r.Context(), req.Name)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusCreated, room)
}

// HandleRenameRoom serves PUT and PATCH; name is the only mutable field.
func (h *Handler) HandleRenameRoom(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	var req roomRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	room, err := h.service.RenameRoom(r.Context(), id, req.Name)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, room)
}

func (h *Handler) HandleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.service.DeleteRoom(r.Context(), id); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListBeverages(w http.ResponseWriter, r *http.Request) {
	beverages, err := h.service.ListBeverages(r.Context())
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, beverages)
}

func (h *Handler) HandleListAllBeverages(w http.ResponseWriter, r *http.Request) {
	beverages, err := h.service.ListAllBeverages(r.Context())
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, beverages)
}

func (h *Handler) HandleGetBeverage(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.Caller(r)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	b, err := h.service.GetBeverage(r.Context(), caller, id)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, b)
}

func (h *Handler) HandleCreateBeverage(w http.ResponseWriter, r *http.Request) {
	var req BeverageInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	b, err := h.service.CreateBeverage(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusCreated, b)
}

func (h *Handler) HandleReplaceBeverage(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	var req BeverageInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	b, err := h.service.ReplaceBeverage(r.Context(), id, req)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, b)
}

func (h *Handler) HandleToggleBeverage(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	b, err := h.service.ToggleBeverage(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, b)
}

func (h *Handler) HandleDeleteBeverage(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.service.DeleteBeverage(r.Context(), id); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
