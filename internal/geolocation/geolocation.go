package geolocation

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/D00Movenok/GeoMap/internal/geo"
)

// ErrorCode mirrors the failure codes of browser geolocation providers.
type ErrorCode int

const (
	PermissionDenied    ErrorCode = 1
	PositionUnavailable ErrorCode = 2
	Timeout             ErrorCode = 3
)

const (
	DefaultZoom = 4
	LocatedZoom = 15

	UnknownFailureMessage = "Could not determine your location"
)

// DefaultCenter is shown whenever the viewer can't be located.
var DefaultCenter = geo.Coordinate{Lat: -15.7889, Lng: -47.8799}

var messages = map[ErrorCode]string{
	PermissionDenied:    "Location permission denied by the user",
	PositionUnavailable: "Location unavailable",
	Timeout:             "Location request timed out",
}

type PositionError struct {
	Code ErrorCode
}

func (e PositionError) Error() string {
	return fmt.Sprintf("geolocation failed with code %d", e.Code)
}

// Message returns the fixed user-facing text of a provider failure.
func Message(err error) string {
	var pe PositionError
	if errors.As(err, &pe) {
		if m, ok := messages[pe.Code]; ok {
			return m
		}
	}
	return UnknownFailureMessage
}

// Provider reports the current position of the viewer.
type Provider interface {
	CurrentPosition(ctx context.Context) (geo.Coordinate, error)
}

type Resolver interface {
	ReverseGeocode(ctx context.Context, c geo.Coordinate) geo.Location
}

type View struct {
	Center geo.Coordinate `json:"center"`
	Zoom   int            `json:"zoom"`
}

type Result struct {
	Located  bool            `json:"located"`
	Coords   *geo.Coordinate `json:"coords,omitempty"`
	Location *geo.Location   `json:"location,omitempty"`
	Status   string          `json:"status"`
	View     View            `json:"view"`
}

// Locate positions the viewer and names the place they are in. It never
// fails: provider errors fall back to the default view with a readable
// status.
func Locate(ctx context.Context, p Provider, r Resolver) Result {
	c, err := p.CurrentPosition(ctx)
	if err == nil && !c.Valid() {
		err = PositionError{Code: PositionUnavailable}
	}
	if err != nil {
		log.Warn().Err(err).Msg("Can't locate viewer")
		return Result{
			Status: Message(err),
			View:   View{Center: DefaultCenter, Zoom: DefaultZoom},
		}
	}

	res := Result{
		Located: true,
		Coords:  &c,
		Status:  fmt.Sprintf("You are here: %.6f, %.6f", c.Lat, c.Lng),
		View:    View{Center: c, Zoom: LocatedZoom},
	}

	l := r.ReverseGeocode(ctx, c)
	res.Location = &l
	if l.City != geo.NA {
		res.Status = fmt.Sprintf("You are in %s, %s", l.City, l.State)
	}
	return res
}

// Static is a Provider answering a position reported by the client.
type Static struct {
	Coords geo.Coordinate
	Err    error
}

func (s Static) CurrentPosition(_ context.Context) (geo.Coordinate, error) {
	return s.Coords, s.Err
}
