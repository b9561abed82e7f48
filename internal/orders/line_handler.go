package orders

import (
	"net/http"

	"github.com/joao-fontenele/cayocagi/internal/auth"
	"github.com/joao-fontenele/cayocagi/internal/domain"
	"github.com/joao-fontenele/cayocagi/internal/httpx"
)

type addLineRequest struct {
	OrderID    int64 `json:"orderId"`
	BeverageID int64 `json:"beverageId"`
	Quantity   int   `json:"quantity"`
}

func (h *Handler) HandleAddLine(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.Caller(r)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	var req addLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	if req.OrderID <= 0 {
		httpx.WriteMessage(w, r, h.logger, http.StatusBadRequest, "orderId is required")
		return
	}

	line, err := h.service.AddLine(r.Context(), caller, req.OrderID, LineInput{
		BeverageID: req.BeverageID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusCreated, line)
}

func (h *Handler) HandleListLines(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.Caller(r)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	lines, err := h.service.ListLines(r.Context(), caller)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, lines)
}

func (h *Handler) HandleGetLine(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r, "id")
	if !ok {
		return
	}

	line, err := h.service.GetLine(r.Context(), caller, id)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, line)
}

func (h *Handler) HandleLinesByOrder(w http.ResponseWriter, r *http.Request) {
	caller, orderID, ok := h.callerAndID(w, r, "orderId")
	if !ok {
		return
	}

	lines, err := h.service.LinesByOrder(r.Context(), caller, orderID)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, lines)
}

type updateLineRequest struct {
	ID         *int64 `json:"id"`
	BeverageID int64  `json:"beverageId"`
	Quantity   int    `json:"quantity"`
}

func (h *Handler) HandleUpdateLine(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r, "id")
	if !ok {
		return
	}

	var req updateLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	if req.ID != nil && *req.ID != id {
		httpx.WriteMessage(w, r, h.logger, http.StatusBadRequest, "id in body does not match path")
		return
	}

	line, err := h.service.UpdateLine(r.Context(), caller, id, LineInput{
		BeverageID: req.BeverageID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, line)
}

type patchLineRequest struct {
	BeverageID domain.Optional[int64] `json:"beverageId"`
	Quantity   domain.Optional[int]   `json:"quantity"`
}

func (h *Handler) HandlePatchLine(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r, "id")
	if !ok {
		return
	}

	var req patchLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	line, err := h.service.PatchLine(r.Context(), caller, id, LinePatch(req))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, line)
}

func (h *Handler) HandleDeleteLine(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.callerAndID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteLine(r.Context(), caller, id); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
