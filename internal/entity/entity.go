package entity

import (
	"fmt"

	"github.com/D00Movenok/GeoMap/internal/geo"
)

const (
	TypeUser     = "user"
	TypeBusiness = "business"
	// TypeAll matches entities of any type in filters.
	TypeAll = "all"
)

// Entity is a user or a business plotted on the map. Businesses usually
// come with a postal code and get their Location once it is geocoded.
type Entity struct {
	ID         int             `json:"id" mapstructure:"id"`
	Name       string          `json:"name" mapstructure:"name"`
	Type       string          `json:"type" mapstructure:"type"`
	Photo      string          `json:"photo,omitempty" mapstructure:"photo"`
	Category   string          `json:"category,omitempty" mapstructure:"category"`
	LastActive string          `json:"last_active,omitempty" mapstructure:"last_active"`
	PostalCode string          `json:"postal_code,omitempty" mapstructure:"postal_code"`
	Address    string          `json:"address,omitempty" mapstructure:"address"`
	Location   *geo.Coordinate `json:"location,omitempty" mapstructure:"location"`
}

// Coordinate returns the entity position if it is known.
func (e Entity) Coordinate() (geo.Coordinate, bool) {
	if e.Location == nil || !e.Location.Valid() {
		return geo.Coordinate{}, false
	}
	return *e.Location, true
}

func (e Entity) String() string {
	return fmt.Sprintf("%s #%d \"%s\"", e.Type, e.ID, e.Name)
}

// Annotated is an entity with its resolved place, as served to the map.
type Annotated struct {
	Entity
	Place *geo.Place `json:"place,omitempty"`
}

// Locator answers the place of an exact coordinate.
type Locator interface {
	GetLocation(c geo.Coordinate) (geo.Location, bool)
}

// Annotate attaches the known place of every entity.
func Annotate(entities []Entity, l Locator) []Annotated {
	res := make([]Annotated, 0, len(entities))
	for _, e := range entities {
		a := Annotated{Entity: e}
		if c, ok := e.Coordinate(); ok {
			if loc, ok := l.GetLocation(c); ok {
				p := loc.Place
				a.Place = &p
			}
		}
		res = append(res, a)
	}
	return res
}
