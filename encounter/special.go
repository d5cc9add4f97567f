package encounter

import (
	"math"

	"curator-lite/catalog"
)

// SpecialEvent is a themed auction whose car is biased toward some tags.
type SpecialEvent struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	GuaranteedTags []catalog.Tag `json:"guaranteedTags,omitempty"`
	// ValueMultiplier scales the car's base value; 0 leaves it alone.
	ValueMultiplier float64 `json:"valueMultiplier,omitempty"`
}

// BuildSpecialEventCar draws the car for a special event. The result always
// carries every guaranteed tag.
func (r *Router) BuildSpecialEventCar(ev SpecialEvent, prestige int) (catalog.Car, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	car, ok := r.cars.Draw(r.rng, r.econ, catalog.DrawOptions{Prestige: prestige})
	if !ok {
		return catalog.Car{}, false
	}

	guaranteed := catalog.NormalizeTags(ev.GuaranteedTags)
	if len(guaranteed) > 0 {
		bias := catalog.FlavorForTags(guaranteed).Multipliers(r.econ.CarDraw)
		car, _ = r.cars.Draw(r.rng, r.econ, catalog.DrawOptions{
			Prestige:     prestige,
			Bias:         &bias,
			RequiredTags: guaranteed,
		})
		car.Tags = catalog.UnionTags(car.Tags, guaranteed)
	}

	if ev.ValueMultiplier > 0 {
		car.BaseValue = int64(math.Floor(float64(car.BaseValue) * ev.ValueMultiplier))
	}
	return car, true
}

// RouteSpecialEncounter builds the event car and seats a roster for it.
func (r *Router) RouteSpecialEncounter(ev SpecialEvent, locationID string, prestige int, day int) (RoutedEncounter, bool) {
	car, ok := r.BuildSpecialEventCar(ev, prestige)
	if !ok {
		return RoutedEncounter{}, false
	}
	return r.RouteRegularEncounter(locationID, car, prestige, day), true
}
