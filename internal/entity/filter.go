package entity

import (
	"fmt"
	"strings"
)

type Filter interface {
	Apply(e Entity) bool
	fmt.Stringer
}

// Query is the set of map filters chosen by the viewer. Empty fields match
// everything.
type Query struct {
	Type    string `json:"type" mapstructure:"type"`
	Search  string `json:"q" mapstructure:"q"`
	Country string `json:"country" mapstructure:"country"`
	State   string `json:"state" mapstructure:"state"`
	City    string `json:"city" mapstructure:"city"`
}

// Filter combines the query into a single filter. Entities without an
// indexed location never pass it.
func (q Query) Filter(l Locator) Filter {
	f := CompositeAndFilter{
		filters: []Filter{
			TypeFilter{t: q.Type},
			SearchFilter{term: strings.ToLower(strings.TrimSpace(q.Search))},
			PlaceFilter{
				locator: l,
				country: q.Country,
				state:   q.State,
				city:    q.City,
			},
		},
	}
	return f
}

// Apply returns the entities passing q, in their original order.
func (q Query) Apply(entities []Entity, l Locator) []Entity {
	f := q.Filter(l)
	res := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if f.Apply(e) {
			res = append(res, e)
		}
	}
	return res
}

type TypeFilter struct {
	t string
}

func (f TypeFilter) Apply(e Entity) bool {
	return f.t == "" || f.t == TypeAll || f.t == e.Type
}

func (f TypeFilter) String() string {
	return fmt.Sprintf("Type(%s)", f.t)
}

// SearchFilter matches a lower-cased substring of the entity name.
type SearchFilter struct {
	term string
}

func (f SearchFilter) Apply(e Entity) bool {
	return f.term == "" || strings.Contains(strings.ToLower(e.Name), f.term)
}

func (f SearchFilter) String() string {
	return fmt.Sprintf("Search(%s)", f.term)
}

type PlaceFilter struct {
	locator Locator
	country string
	state   string
	city    string
}

func (f PlaceFilter) Apply(e Entity) bool {
	c, ok := e.Coordinate()
	if !ok {
		return false
	}
	loc, ok := f.locator.GetLocation(c)
	if !ok {
		return false
	}
	return (f.country == "" || loc.Country == f.country) &&
		(f.state == "" || loc.State == f.state) &&
		(f.city == "" || loc.City == f.city)
}

func (f PlaceFilter) String() string {
	return fmt.Sprintf(
		"Place(country=%s, state=%s, city=%s)",
		f.country,
		f.state,
		f.city,
	)
}

type CompositeAndFilter struct {
	filters []Filter
}

func (f CompositeAndFilter) Apply(e Entity) bool {
	for _, filter := range f.filters {
		if !filter.Apply(e) {
			return false
		}
	}
	return true
}

func (f CompositeAndFilter) String() string {
	filterNames := make([]string, 0, len(f.filters))
	for _, f := range f.filters {
		filterNames = append(filterNames, f.String())
	}
	return strings.Join(filterNames, " and ")
}
