package handlers

import (
	"delivery-sequencing-service/internal/api/dto"
	"delivery-sequencing-service/internal/domain"
	"delivery-sequencing-service/internal/services"
	"net/http"
)

// RouteHandler serves the read-side route views of a group: the travel
// feasibility report and the shareable map link.
type RouteHandler struct {
	Reporter    *services.FeasibilityReporter
	Links       *services.RouteLinkBuilder
}

func (h *RouteHandler) Feasibility(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}

	pairs, err := h.Reporter.ComputeFeasibility(r.Context(), groupID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.FeasibilityResponse{
		GroupID: groupID.String(),
		Pairs:   make([]dto.PairResponse, 0, len(pairs)),
		Summary: map[string]int{},
	}
	for _, p := range pairs {
		pr := dto.PairResponse{
			Index:               p.Index,
			FromReservationID:   p.FromReservationID,
			ToReservationID:     p.ToReservationID,
			FromAddress:         p.FromAddress,
			ToAddress:           p.ToAddress,
			ScheduledGapSeconds: p.ScheduledGapSeconds,
			Verdict:             string(p.Verdict),
			Reason:              p.Reason,
		}
		if p.Verdict != domain.VerdictUnknown {
			travel := p.TravelSeconds
			pr.TravelSeconds = &travel
		}
		res.Pairs = append(res.Pairs, pr)
		res.Summary[string(p.Verdict)]++
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *RouteHandler) Link(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathGroupID(w, r)
	if !ok {
		return
	}

	var req dto.RouteLinkRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	link, err := h.Links.BuildRouteLink(r.Context(), groupID, req.Optimize)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.RouteLinkResponse{GroupID: groupID.String(), URL: link})
}
