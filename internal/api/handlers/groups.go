package handlers

import (
	"delivery-sequencing-service/internal/api/dto"
	"delivery-sequencing-service/internal/domain"
	"delivery-sequencing-service/internal/services"
	"net/http"
	"strings"
	"time"
)

// GroupHandler exposes group creation and the per-date schedule.
type GroupHandler struct {
	Registry *services.GroupRegistry
}

func parseServiceDate(w http.ResponseWriter, r *http.Request, raw string) (time.Time, bool) {
	if strings.TrimSpace(raw) == "" {
		writeError(w, r, http.StatusBadRequest, "service_date is required")
		return time.Time{}, false
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "service_date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateGroupRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	date, ok := parseServiceDate(w, r, req.ServiceDate)
	if !ok {
		return
	}

	g, err := h.Registry.CreateGroup(r.Context(), req.Name, date, req.Owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toGroupResponse(g))
}

func (h *GroupHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateGroupsRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	date, ok := parseServiceDate(w, r, req.ServiceDate)
	if !ok {
		return
	}

	groups, err := h.Registry.CreateGroups(r.Context(), services.CreateGroupsRequest{
		Count:       req.Count,
		ServiceDate: date,
		Owner:       req.Owner,
		Names:       req.Names,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListGroupsResponse{Groups: make([]dto.GroupResponse, 0, len(groups))}
	for _, g := range groups {
		res.Groups = append(res.Groups, toGroupResponse(g))
	}

	writeJSON(w, r, http.StatusCreated, res)
}

// ListByDate returns every group of ?date= with its stops in order.
func (h *GroupHandler) ListByDate(w http.ResponseWriter, r *http.Request) {
	date, ok := parseServiceDate(w, r, r.URL.Query().Get("date"))
	if !ok {
		return
	}

	schedules, err := h.Registry.ListGroupsByDate(r.Context(), date)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListSchedulesResponse{
		ServiceDate: domain.DateKey(date),
		Groups:      make([]dto.GroupScheduleResponse, 0, len(schedules)),
	}
	for _, s := range schedules {
		res.Groups = append(res.Groups, dto.GroupScheduleResponse{
			Group: toGroupResponse(s.Group),
			Stops: toAssignmentResponses(s.Stops),
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
