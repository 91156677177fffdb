package api

import (
	"delivery-sequencing-service/internal/api/handlers"
	"delivery-sequencing-service/internal/services"
	"net/http"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Registry    *services.GroupRegistry
	Sequencing  *services.SequencingService
	Feasibility *services.FeasibilityReporter
	RouteLinks  *services.RouteLinkBuilder
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(svc Services) http.Handler {
	mux := http.NewServeMux()

	groups := &handlers.GroupHandler{Registry: svc.Registry}
	assignments := &handlers.AssignmentHandler{Sequencing: svc.Sequencing}
	routes := &handlers.RouteHandler{Reporter: svc.Feasibility, Links: svc.RouteLinks}

	mux.HandleFunc("GET /health", handlers.Health)

	mux.HandleFunc("POST /groups", groups.Create)
	mux.HandleFunc("POST /groups/batch", groups.CreateBatch)
	mux.HandleFunc("GET /groups", groups.ListByDate)

	mux.HandleFunc("POST /groups/{groupID}/assignments", assignments.Assign)
	mux.HandleFunc("POST /groups/{groupID}/assignments/batch", assignments.AssignBatch)
	mux.HandleFunc("POST /groups/{groupID}/assignments/{reservationID}/move", assignments.Move)
	mux.HandleFunc("POST /groups/{groupID}/assignments/{reservationID}/reorder", assignments.Reorder)
	mux.HandleFunc("POST /groups/{groupID}/assignments/{reservationID}/up", assignments.Up)
	mux.HandleFunc("POST /groups/{groupID}/assignments/{reservationID}/down", assignments.Down)
	mux.HandleFunc("POST /groups/{groupID}/assignments/{reservationID}/complete", assignments.Complete)
	mux.HandleFunc("POST /groups/{groupID}/sort", assignments.Sort)

	mux.HandleFunc("GET /groups/{groupID}/feasibility", routes.Feasibility)
	mux.HandleFunc("POST /groups/{groupID}/route-link", routes.Link)

	return requestIDMiddleware(loggingMiddleware(mux))
}
