package services

import (
	"context"
	"delivery-sequencing-service/internal/domain"
	"delivery-sequencing-service/internal/platform/obs"
	"delivery-sequencing-service/internal/ports"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const mapsDirectionsURL = "https://www.google.com/maps/dir/"

// RouteLinkBuilder produces a shareable map route for a group and caches it
// on the group. The link is derived data; the assignment order stays the
// source of truth.
type RouteLinkBuilder struct {
	store        ports.AssignmentStore
	reservations ports.ReservationRepository
	depot        string
}

func NewRouteLinkBuilder(store ports.AssignmentStore, reservations ports.ReservationRepository, depot string) *RouteLinkBuilder {
	return &RouteLinkBuilder{store: store, reservations: reservations, depot: domain.NormalizeAddress(depot)}
}

// BuildRouteLink composes a directions URL visiting the group's stops in
// order, starting at the depot when one is configured. optimize is passed
// to the map provider as a hint; this service never reorders stops for it.
func (b *RouteLinkBuilder) BuildRouteLink(ctx context.Context, groupID uuid.UUID, optimize bool) (_ string, err error) {
	defer obs.Time(ctx, "routes.BuildRouteLink")(&err)

	if _, err := b.store.GetGroup(ctx, groupID); err != nil {
		return "", fmt.Errorf("build route link: %w", err)
	}

	stops, err := b.store.ListAssignments(ctx, groupID)
	if err != nil {
		return "", fmt.Errorf("build route link: %w", err)
	}
	if len(stops) == 0 {
		return "", fmt.Errorf("build route link: %w", domain.ErrEmptyGroup)
	}

	addresses := make([]string, 0, len(stops)+1)
	if b.depot != "" {
		addresses = append(addresses, b.depot)
	}
	for _, a := range stops {
		r, err := b.reservations.GetReservation(ctx, a.ReservationID)
		if err != nil {
			return "", fmt.Errorf("build route link: %w", err)
		}
		addresses = append(addresses, r.Address)
	}

	link := directionsURL(addresses, optimize)
	if err := b.store.SetRouteURL(ctx, groupID, link); err != nil {
		return "", fmt.Errorf("build route link: %w", err)
	}

	return link, nil
}

func directionsURL(addresses []string, optimize bool) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("travelmode", "driving")
	q.Set("origin", addresses[0])
	q.Set("destination", addresses[len(addresses)-1])

	if len(addresses) > 2 {
		waypoints := addresses[1 : len(addresses)-1]
		if optimize {
			waypoints = append([]string{"optimize:true"}, waypoints...)
		}
		q.Set("waypoints", strings.Join(waypoints, "|"))
	}

	return mapsDirectionsURL + "?" + q.Encode()
}
