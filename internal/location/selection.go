package location

// Selection is the state of the country, state and city selectors.
// Narrowing a parent resets its descendants.
type Selection struct {
	Country string `json:"country"`
	State   string `json:"state"`
	City    string `json:"city"`
}

type Options struct {
	Countries     []string `json:"countries"`
	States        []string `json:"states"`
	StatesEnabled bool     `json:"states_enabled"`
	Cities        []string `json:"cities"`
	CitiesEnabled bool     `json:"cities_enabled"`
}

func (s *Selection) SelectCountry(country string) {
	s.Country = country
	s.State = ""
	s.City = ""
}

func (s *Selection) SelectState(state string) {
	if s.Country == "" {
		state = ""
	}
	s.State = state
	s.City = ""
}

func (s *Selection) SelectCity(city string) {
	if s.Country == "" || s.State == "" {
		city = ""
	}
	s.City = city
}

// Options lists the choices of every selector for the current selection.
// A selector is disabled and empty while its parent is not chosen.
func (s Selection) Options(i *Index) Options {
	o := Options{
		Countries: i.Countries(),
		States:    []string{},
		Cities:    []string{},
	}
	if s.Country != "" {
		o.States = i.States(s.Country)
		o.StatesEnabled = true
	}
	if s.Country != "" && s.State != "" {
		o.Cities = i.Cities(s.Country, s.State)
		o.CitiesEnabled = true
	}
	return o
}
