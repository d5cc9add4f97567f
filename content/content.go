// Package content ships a default set of content tables so the CLI and the
// host server run without external files.
package content

import (
	"embed"
	"encoding/json"
	"fmt"

	"curator-lite/auction/rival"
	"curator-lite/catalog"
	"curator-lite/config"
	"curator-lite/encounter"
)

//go:embed data/*.json data/economy.yaml
var files embed.FS

// Bundle is one loaded set of content tables.
type Bundle struct {
	Economy config.Economy
	Cars    *catalog.Registry
	Rivals  *rival.Registry
	Events  []encounter.SpecialEvent
}

// Event looks up a special event by id.
func (b *Bundle) Event(id string) (encounter.SpecialEvent, bool) {
	for _, ev := range b.Events {
		if ev.ID == id {
			return ev, true
		}
	}
	return encounter.SpecialEvent{}, false
}

// Raw returns one embedded file, e.g. "economy.yaml".
func Raw(name string) ([]byte, error) {
	return files.ReadFile("data/" + name)
}

// Load reads every embedded table. economyPath, when set, replaces the
// embedded economy.yaml.
func Load(economyPath string) (*Bundle, error) {
	var (
		econ config.Economy
		err  error
	)
	if economyPath != "" {
		econ, err = config.Load(economyPath)
	} else {
		var raw []byte
		if raw, err = Raw("economy.yaml"); err == nil {
			econ, err = config.Parse(raw)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load economy: %w", err)
	}

	b := &Bundle{
		Economy: econ,
		Cars:    catalog.NewRegistry(),
		Rivals:  rival.NewRegistry(),
	}
	if err := loadInto("cars.json", b.Cars.LoadCarsFromJSON); err != nil {
		return nil, err
	}
	if err := loadInto("locations.json", b.Cars.LoadLocationsFromJSON); err != nil {
		return nil, err
	}
	if err := loadInto("rivals.json", b.Rivals.LoadFromJSON); err != nil {
		return nil, err
	}
	if err := loadInto("events.json", func(raw []byte) error {
		return json.Unmarshal(raw, &b.Events)
	}); err != nil {
		return nil, err
	}
	return b, nil
}

// NewRouter wires a selector and a router over the bundle's tables.
func (b *Bundle) NewRouter(seed int64) *encounter.Router {
	sel := rival.NewSelector(b.Rivals, b.Economy, seed)
	return encounter.NewRouter(b.Cars, sel, b.Economy, seed)
}

func loadInto(name string, load func([]byte) error) error {
	raw, err := Raw(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := load(raw); err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	return nil
}
