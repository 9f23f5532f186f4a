package etascraper

import (
	"context"
	"errors"
	"fmt"

	"github.com/kr/pretty"
	"github.com/rs/zerolog"
	"github.com/travigo/etascraper/pkg/nwst"
	"golang.org/x/exp/slices"
)

var ErrNotFound = errors.New("not found")

// Target is the route variant and stop being scraped
type Target struct {
	Route nwst.Route
	Rdv   nwst.Rdv
	Stop  nwst.RouteStop
}

type Resolver struct {
	API    nwst.API
	Logger zerolog.Logger
}

// Resolve finds the route for routeNumber/bound and the stop at sequence along
// the variant. A zero rdv selects the first variant the upstream lists.
func (r *Resolver) Resolve(ctx context.Context, routeNumber string, bound nwst.Bound, rdv nwst.Rdv, sequence int) (Target, error) {
	routes, err := r.API.GetRouteList(ctx)
	if err != nil {
		return Target{}, err
	}

	routeIndex := slices.IndexFunc(routes, func(route nwst.Route) bool {
		return route.RouteNumber == routeNumber && route.Bound == bound
	})
	if routeIndex < 0 {
		return Target{}, fmt.Errorf("route %s bound %s: %w", routeNumber, bound, ErrNotFound)
	}
	route := routes[routeIndex]

	if rdv.IsZero() {
		variants, err := r.API.GetVariantList(ctx, route.ID)
		if err != nil {
			return Target{}, err
		}
		if len(variants) == 0 {
			return Target{}, fmt.Errorf("variants of route %s: %w", route.ID, ErrNotFound)
		}

		rdv = variants[0].Rdv
	}

	stops, err := r.API.GetStopList(ctx, route.Company, rdv, bound)
	if err != nil {
		return Target{}, err
	}

	stopIndex := slices.IndexFunc(stops, func(stop nwst.RouteStop) bool {
		return stop.Sequence == sequence
	})
	if stopIndex < 0 {
		return Target{}, fmt.Errorf("stop %d on %s: %w", sequence, rdv, ErrNotFound)
	}

	target := Target{
		Route: route,
		Rdv:   rdv,
		Stop:  stops[stopIndex],
	}

	if r.Logger.GetLevel() <= zerolog.DebugLevel {
		r.Logger.Debug().Str("target", pretty.Sprint(target)).Msg("Resolved scrape target")
	}

	return target, nil
}
