package dto

import "time"

type CreateGroupRequest struct {
	Name        string `json:"name"`
	ServiceDate string `json:"service_date"`
	Owner       string `json:"owner"`
}

type CreateGroupsRequest struct {
	Count       int      `json:"count"`
	ServiceDate string   `json:"service_date"`
	Owner       string   `json:"owner"`
	Names       []string `json:"names,omitempty"`
}

type GroupResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	ServiceDate       string    `json:"service_date"`
	Owner             string    `json:"owner,omitempty"`
	TotalAssigned     int       `json:"total_assigned"`
	CompletedAssigned int       `json:"completed_assigned"`
	RouteURL          string    `json:"route_url,omitempty"`
	Version           int64     `json:"version"`
	CreatedAt         time.Time `json:"created_at"`
}

type ListGroupsResponse struct {
	Groups []GroupResponse `json:"groups"`
}

type GroupScheduleResponse struct {
	Group GroupResponse        `json:"group"`
	Stops []AssignmentResponse `json:"stops"`
}

type ListSchedulesResponse struct {
	ServiceDate string                  `json:"service_date"`
	Groups      []GroupScheduleResponse `json:"groups"`
}
