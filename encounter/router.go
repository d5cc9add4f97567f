package encounter

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"curator-lite/auction"
	"curator-lite/auction/rival"
	"curator-lite/catalog"
	"curator-lite/config"
)

// Kind discriminates routed encounters. Auctions are the only kind today.
type Kind string

const KindAuction Kind = "auction"

// RoutedEncounter is the package handed to the presentation layer.
type RoutedEncounter struct {
	Kind       Kind                      `json:"kind"`
	Car        catalog.Car               `json:"car"`
	Rivals     []rival.AuctionRivalEntry `json:"rivals"`
	LocationID string                    `json:"locationId"`
}

// RivalIDs lists the roster in order.
func (e RoutedEncounter) RivalIDs() []string {
	out := make([]string, 0, len(e.Rivals))
	for _, r := range e.Rivals {
		out = append(out, r.Rival.ID)
	}
	return out
}

// Open builds and starts the auction session for an auction encounter.
func (e RoutedEncounter) Open(cfg auction.Config, player auction.Player) (*auction.Auction, error) {
	a, err := auction.New(cfg, e.Car, e.Rivals, player)
	if err != nil {
		return nil, err
	}
	if err := a.Start(); err != nil {
		return nil, err
	}
	return a, nil
}

// Router composes car draws and roster picks into encounters.
type Router struct {
	cars     *catalog.Registry
	selector *rival.Selector
	econ     config.Economy

	mu  sync.Mutex
	rng *rand.Rand

	// Logf receives non-fatal content diagnostics. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

// NewRouter creates a router. seed 0 seeds from the clock.
func NewRouter(cars *catalog.Registry, selector *rival.Selector, econ config.Economy, seed int64) *Router {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Router{
		cars:     cars,
		selector: selector,
		econ:     econ,
		rng:      rand.New(rand.NewSource(seed)),
		Logf:     log.Printf,
	}
}

// RouteRegularEncounter seats a roster for car at locationID.
func (r *Router) RouteRegularEncounter(locationID string, car catalog.Car, prestige int, day int) RoutedEncounter {
	car = car.Clone()
	car.Tags = catalog.NormalizeTags(car.Tags)
	roster := r.selector.PickAttendingRivals(prestige, day, car.Tags, rival.DefaultAttendanceOptions(r.econ.Attendance))
	return RoutedEncounter{
		Kind:       KindAuction,
		Car:        car,
		Rivals:     roster,
		LocationID: locationID,
	}
}

// RouteLocationEncounter draws a car with the venue's bias and routes it.
// An unknown venue draws without bias. ok is false when there are no cars.
func (r *Router) RouteLocationEncounter(locationID string, prestige int, day int) (RoutedEncounter, bool) {
	opts := catalog.DrawOptions{Prestige: prestige}
	if loc, found := r.cars.Location(locationID); found {
		bias := loc.Bias(r.econ.CarDraw)
		opts.Bias = &bias
	} else {
		r.warnf("[Encounter] unknown location %q, drawing without venue bias", locationID)
	}

	r.mu.Lock()
	car, ok := r.cars.Draw(r.rng, r.econ, opts)
	r.mu.Unlock()
	if !ok {
		return RoutedEncounter{}, false
	}
	return r.RouteRegularEncounter(locationID, car, prestige, day), true
}

func (r *Router) warnf(format string, args ...any) {
	if r.Logf != nil {
		r.Logf(format, args...)
	}
}
