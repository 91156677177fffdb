package handlers

import (
	"delivery-sequencing-service/internal/api/dto"
	"delivery-sequencing-service/internal/domain"
	"delivery-sequencing-service/internal/platform/obs"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode failed", "req_id", obs.RequestID(r.Context()), "method", r.Method, "path", r.URL.Path, "err", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeServiceError maps a service error onto its HTTP status. Internal
// failures are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrOutOfRange):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrEstimatorUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "travel estimator unavailable")
	default:
		slog.Error("request failed", "req_id", obs.RequestID(r.Context()), "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads exactly one JSON object into v. With optional set an
// empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

func pathGroupID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("groupID"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "group id must be a uuid")
		return uuid.Nil, false
	}
	return id, true
}

func pathReservationID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("reservationID"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "reservation id is required")
		return "", false
	}
	return id, true
}

func toGroupResponse(g *domain.DeliveryGroup) dto.GroupResponse {
	return dto.GroupResponse{
		ID:                g.ID.String(),
		Name:              g.Name,
		ServiceDate:       domain.DateKey(g.ServiceDate),
		Owner:             g.Owner,
		TotalAssigned:     g.TotalAssigned,
		CompletedAssigned: g.CompletedAssigned,
		RouteURL:          g.RouteURL,
		Version:           g.Version,
		CreatedAt:         g.CreatedAt,
	}
}

func toAssignmentResponses(as []domain.Assignment) []dto.AssignmentResponse {
	out := make([]dto.AssignmentResponse, 0, len(as))
	for _, a := range as {
		out = append(out, dto.AssignmentResponse{
			ID:            a.ID.String(),
			ReservationID: a.ReservationID,
			Position:      a.Position,
			Completed:     a.IsCompleted(),
			CompletedAt:   a.CompletedAt,
		})
	}
	return out
}

func toResultResponse(res *domain.Result) dto.ResultResponse {
	return dto.ResultResponse{
		GroupID:  res.GroupID.String(),
		Changed:  res.Changed(),
		Note:     string(res.Note),
		Inserted: res.Inserted,
		Moved:    res.Moved,
		Skipped:  res.Skipped,
		Stops:    toAssignmentResponses(res.Stops),
	}
}
