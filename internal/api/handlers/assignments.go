package handlers

import (
	"delivery-sequencing-service/internal/api/dto"
	"delivery-sequencing-service/internal/domain"
	"delivery-sequencing-service/internal/services"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// AssignmentHandler exposes the sequencing mutations of one group.
// Every endpoint answers with the group's resulting stop order.
type AssignmentHandler struct {
	Sequencing *services.SequencingService
}

func (h *AssignmentHandler) respond(w http.ResponseWriter, r *http.Request, status int, res *domain.Result, err error) {
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, status, toResultResponse(res))
}

func (h *AssignmentHandler) Assign(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}

	var req dto.AssignRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	res, err := h.Sequencing.AssignSingle(r.Context(), groupID, req.ReservationID)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *AssignmentHandler) AssignBatch(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}

	var req dto.AssignBatchRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	res, err := h.Sequencing.AssignBatch(r.Context(), groupID, req.ReservationIDs)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *AssignmentHandler) Move(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}
	resID, ok := pathReservationID(w, r)
	if !ok {
		return
	}

	var req dto.MoveRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	toGroupID, err := uuid.Parse(req.ToGroupID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "to_group_id must be a uuid")
		return
	}

	res, err := h.Sequencing.MoveToGroup(r.Context(), resID, groupID, toGroupID)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *AssignmentHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}
	resID, ok := pathReservationID(w, r)
	if !ok {
		return
	}

	var req dto.ReorderRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	res, err := h.Sequencing.ReorderByPosition(r.Context(), groupID, resID, req.Position)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *AssignmentHandler) Up(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}
	resID, ok := pathReservationID(w, r)
	if !ok {
		return
	}

	res, err := h.Sequencing.MoveUp(r.Context(), groupID, resID)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *AssignmentHandler) Down(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}
	resID, ok := pathReservationID(w, r)
	if !ok {
		return
	}

	res, err := h.Sequencing.MoveDown(r.Context(), groupID, resID)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *AssignmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}
	resID, ok := pathReservationID(w, r)
	if !ok {
		return
	}

	var req dto.CompleteRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	var at time.Time
	if req.CompletedAt != nil {
		at = *req.CompletedAt
	}

	res, err := h.Sequencing.CompleteAssignment(r.Context(), groupID, resID, at)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *AssignmentHandler) Sort(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}

	res, err := h.Sequencing.SortByDeliveryTime(r.Context(), groupID)
	h.respond(w, r, http.StatusOK, res, err)
}
