package api

import (
	"bytes"
	"context"
	"delivery-sequencing-service/internal/adapters/repositories"
	"delivery-sequencing-service/internal/adapters/travel"
	"delivery-sequencing-service/internal/api/dto"
	"delivery-sequencing-service/internal/domain"
	"delivery-sequencing-service/internal/platform/db/dbtest"
	"delivery-sequencing-service/internal/services"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	conn := dbtest.Open(t)

	reservations := repositories.NewSQLReservationRepository(conn)
	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, reservations.Upsert(context.Background(), []domain.Reservation{
		{ID: "A", ScheduledAt: day, Address: "addr A"},
		{ID: "B", ScheduledAt: day.Add(30 * time.Minute), Address: "addr B"},
		{ID: "C", ScheduledAt: day.Add(time.Hour), Address: "addr C"},
	}))

	estimator := travel.NewMockEstimator([]travel.MockPair{
		{From: "addr A", To: "addr B", Seconds: 600},
		{From: "addr B", To: "addr C", Seconds: 3000},
	})

	store := repositories.NewSQLAssignmentStore(conn, 5*time.Second)
	srv := httptest.NewServer(NewRouter(Services{
		Registry:    services.NewGroupRegistry(store, 4),
		Sequencing:  services.NewSequencingService(store, reservations),
		Feasibility: services.NewFeasibilityReporter(store, reservations, estimator, 2, time.Second),
		RouteLinks:  services.NewRouteLinkBuilder(store, reservations, "Depot"),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any, out any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func createGroup(t *testing.T, srv *httptest.Server, name string) string {
	t.Helper()

	var g dto.GroupResponse
	resp := do(t, srv, http.MethodPost, "/groups", dto.CreateGroupRequest{Name: name, ServiceDate: "2026-03-02"}, &g)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return g.ID
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t)

	var body map[string]string
	resp := do(t, srv, http.MethodGet, "/health", nil, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRouter_SequencingFlow(t *testing.T) {
	srv := newTestServer(t)
	g1 := createGroup(t, srv, "Team 1")
	g2 := createGroup(t, srv, "Team 2")

	var res dto.ResultResponse
	resp := do(t, srv, http.MethodPost, "/groups/"+g1+"/assignments/batch",
		dto.AssignBatchRequest{ReservationIDs: []string{"C", "A", "B"}}, &res)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, res.Inserted)

	resp = do(t, srv, http.MethodPost, "/groups/"+g1+"/sort", nil, &res)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, res.Stops, 3)
	assert.Equal(t, "A", res.Stops[0].ReservationID)

	resp = do(t, srv, http.MethodPost, "/groups/"+g1+"/assignments/A/up", nil, &res)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, res.Changed)
	assert.Equal(t, "at_boundary", res.Note)

	resp = do(t, srv, http.MethodPost, "/groups/"+g1+"/assignments/C/move",
		dto.MoveRequest{ToGroupID: g2}, &res)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, g2, res.GroupID)

	resp = do(t, srv, http.MethodPost, "/groups/"+g1+"/assignments/B/complete", nil, &res)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, res.Stops[1].Completed)

	var list dto.ListSchedulesResponse
	resp = do(t, srv, http.MethodGet, "/groups?date=2026-03-02", nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list.Groups, 2)
	assert.Equal(t, 2, list.Groups[0].Group.TotalAssigned)
	assert.Equal(t, 1, list.Groups[0].Group.CompletedAssigned)
	assert.Equal(t, 1, list.Groups[1].Group.TotalAssigned)
}

func TestRouter_Feasibility(t *testing.T) {
	srv := newTestServer(t)
	g := createGroup(t, srv, "Team 1")

	resp := do(t, srv, http.MethodPost, "/groups/"+g+"/assignments/batch",
		dto.AssignBatchRequest{ReservationIDs: []string{"A", "B", "C"}}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report dto.FeasibilityResponse
	resp = do(t, srv, http.MethodGet, "/groups/"+g+"/feasibility", nil, &report)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, report.Pairs, 2)
	assert.Equal(t, "OK", report.Pairs[0].Verdict)
	require.NotNil(t, report.Pairs[0].TravelSeconds)
	assert.EqualValues(t, 600, *report.Pairs[0].TravelSeconds)
	assert.Equal(t, "ERROR", report.Pairs[1].Verdict)
	assert.Equal(t, map[string]int{"OK": 1, "ERROR": 1}, report.Summary)

	var link dto.RouteLinkResponse
	resp = do(t, srv, http.MethodPost, "/groups/"+g+"/route-link", dto.RouteLinkRequest{Optimize: true}, &link)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, link.URL, "optimize%3Atrue")
}

func TestRouter_ErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	g := createGroup(t, srv, "Team 1")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"unknown group", http.MethodPost, "/groups/" + uuid.NewString() + "/assignments", dto.AssignRequest{ReservationID: "A"}, http.StatusNotFound},
		{"unknown reservation", http.MethodPost, "/groups/" + g + "/assignments", dto.AssignRequest{ReservationID: "Z"}, http.StatusNotFound},
		{"bad group id", http.MethodPost, "/groups/nope/sort", nil, http.StatusBadRequest},
		{"empty batch", http.MethodPost, "/groups/" + g + "/assignments/batch", dto.AssignBatchRequest{}, http.StatusBadRequest},
		{"empty sort", http.MethodPost, "/groups/" + g + "/sort", nil, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/groups", map[string]any{"name": "x", "bogus": 1}, http.StatusBadRequest},
		{"bad date", http.MethodGet, "/groups?date=03/02/2026", nil, http.StatusBadRequest},
		{"too many groups", http.MethodPost, "/groups/batch", dto.CreateGroupsRequest{Count: 9, ServiceDate: "2026-03-02"}, http.StatusBadRequest},
		{"wrong method", http.MethodDelete, "/groups", nil, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, srv, tt.method, tt.path, tt.body, nil)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRouter_ReorderOutOfRange(t *testing.T) {
	srv := newTestServer(t)
	g := createGroup(t, srv, "Team 1")

	resp := do(t, srv, http.MethodPost, "/groups/"+g+"/assignments", dto.AssignRequest{ReservationID: "A"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	resp = do(t, srv, http.MethodPost, "/groups/"+g+"/assignments/A/reorder", dto.ReorderRequest{Position: 2}, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "out of range")
}

func TestRouter_KeepsCallerRequestID(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}
