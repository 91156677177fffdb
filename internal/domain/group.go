package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DeliveryGroup is a delivery team working one service date.
//
// TotalAssigned and CompletedAssigned are materialized counters. They are
// only ever written together with the assignment rows they summarize, in
// the same transaction, and Version guards that write against concurrent
// mutation of the same group.
type DeliveryGroup struct {
	ID                uuid.UUID
	Name              string
	ServiceDate       time.Time
	Owner             string
	TotalAssigned     int
	CompletedAssigned int
	RouteURL          string
	Version           int64
	CreatedAt         time.Time
}

func NewDeliveryGroup(name string, serviceDate time.Time, owner string, now time.Time) (*DeliveryGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name must not be empty", ErrInvalidArgument)
	}
	if serviceDate.IsZero() {
		return nil, fmt.Errorf("%w: service date is required", ErrInvalidArgument)
	}

	y, m, d := serviceDate.Date()
	return &DeliveryGroup{
		ID:          uuid.New(),
		Name:        name,
		ServiceDate: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Owner:       strings.TrimSpace(owner),
		CreatedAt:   now.UTC(),
	}, nil
}

// DefaultGroupName is the label used when groups are created in bulk without names.
func DefaultGroupName(i int) string {
	return fmt.Sprintf("Team %d", i)
}

// Recount sets the counters from the group's current stop sequence.
func (g *DeliveryGroup) Recount(seq *Sequence) {
	g.TotalAssigned, g.CompletedAssigned = seq.Counts()
}

// GroupSchedule is a group together with its stops in delivery order.
type GroupSchedule struct {
	Group *DeliveryGroup
	Stops []Assignment
}
