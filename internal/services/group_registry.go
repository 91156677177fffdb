package services

import (
	"context"
	"delivery-sequencing-service/internal/domain"
	"delivery-sequencing-service/internal/platform/obs"
	"delivery-sequencing-service/internal/ports"
	"fmt"
	"log/slog"
	"time"
)

// DefaultMaxGroupsPerRequest is the operational cap on CreateGroups.
const DefaultMaxGroupsPerRequest = 4

// GroupRegistry creates and lists delivery groups per service date.
type GroupRegistry struct {
	store     ports.AssignmentStore
	maxGroups int
	now       func() time.Time
}

func NewGroupRegistry(store ports.AssignmentStore, maxGroups int) *GroupRegistry {
	if maxGroups <= 0 {
		maxGroups = DefaultMaxGroupsPerRequest
	}
	return &GroupRegistry{store: store, maxGroups: maxGroups, now: time.Now}
}

// CreateGroup creates one empty group.
func (r *GroupRegistry) CreateGroup(
	ctx context.Context,
	name string,
	serviceDate time.Time,
	owner string,
) (_ *domain.DeliveryGroup, err error) {
	defer obs.Time(ctx, "groups.CreateGroup")(&err)

	g, err := domain.NewDeliveryGroup(name, serviceDate, owner, r.now())
	if err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	err = r.store.WithinTx(ctx, func(ctx context.Context, tx ports.AssignmentTx) error {
		return tx.InsertGroup(ctx, g)
	})
	if err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	slog.Info("group created", "req_id", obs.RequestID(ctx), "group_id", g.ID, "name", g.Name, "date", domain.DateKey(g.ServiceDate))
	return g, nil
}

type CreateGroupsRequest struct {
	Count       int
	ServiceDate time.Time
	Owner       string
	// Names is optional; when set it must hold exactly Count names.
	// Otherwise groups are named "Team 1".."Team N".
	Names []string
}

// CreateGroups creates req.Count groups in one transaction: either all of
// them exist afterwards or none do.
func (r *GroupRegistry) CreateGroups(ctx context.Context, req CreateGroupsRequest) (_ []*domain.DeliveryGroup, err error) {
	defer obs.Time(ctx, "groups.CreateGroups")(&err)

	if req.Count < 1 || req.Count > r.maxGroups {
		return nil, fmt.Errorf("create groups: %w: count %d not in [1, %d]", domain.ErrGroupCount, req.Count, r.maxGroups)
	}
	if len(req.Names) > 0 && len(req.Names) != req.Count {
		return nil, fmt.Errorf(
			"create groups: %w: %d names given for %d groups",
			domain.ErrInvalidArgument, len(req.Names), req.Count,
		)
	}

	now := r.now()
	groups := make([]*domain.DeliveryGroup, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		name := domain.DefaultGroupName(i + 1)
		if len(req.Names) > 0 {
			name = req.Names[i]
		}

		g, err := domain.NewDeliveryGroup(name, req.ServiceDate, req.Owner, now)
		if err != nil {
			return nil, fmt.Errorf("create groups: group %d: %w", i+1, err)
		}
		groups = append(groups, g)
	}

	err = r.store.WithinTx(ctx, func(ctx context.Context, tx ports.AssignmentTx) error {
		for _, g := range groups {
			if err := tx.InsertGroup(ctx, g); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create groups: %w", err)
	}

	slog.Info("groups created", "req_id", obs.RequestID(ctx), "count", len(groups), "date", domain.DateKey(req.ServiceDate))
	return groups, nil
}

// ListGroupsByDate returns the date's groups sorted by name, each with its
// stops in delivery order.
func (r *GroupRegistry) ListGroupsByDate(ctx context.Context, date time.Time) (_ []domain.GroupSchedule, err error) {
	defer obs.Time(ctx, "groups.ListGroupsByDate")(&err)

	groups, err := r.store.ListGroupsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list groups by date: %w", err)
	}

	out := make([]domain.GroupSchedule, 0, len(groups))
	for _, g := range groups {
		stops, err := r.store.ListAssignments(ctx, g.ID)
		if err != nil {
			return nil, fmt.Errorf("list groups by date: group %s: %w", g.ID, err)
		}
		out = append(out, domain.GroupSchedule{Group: g, Stops: stops})
	}

	return out, nil
}
