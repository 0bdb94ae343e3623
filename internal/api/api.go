package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/D00Movenok/GeoMap/internal/app"
	"github.com/D00Movenok/GeoMap/internal/entity"
	"github.com/D00Movenok/GeoMap/internal/geo"
	"github.com/D00Movenok/GeoMap/internal/geolocation"
	"github.com/D00Movenok/GeoMap/internal/location"
	"github.com/D00Movenok/GeoMap/internal/metrics"
)

var (
	ErrMissingParam = errors.New("missing parameter")
)

// Server exposes the session data to the map front-end.
type Server struct {
	app    *app.App
	server *http.Server
	logger zerolog.Logger

	wg sync.WaitGroup
}

func NewServer(a *app.App, listen string) *Server {
	s := &Server{
		app:    a,
		logger: log.With().Str("listen", listen).Logger(),
	}
	s.server = &http.Server{
		Addr:              listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second, //nolint:gomnd
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/entities", s.handleEntities)
	mux.HandleFunc("/api/options", s.handleOptions)
	mux.HandleFunc("/api/location", s.handleLocation)
	mux.HandleFunc("/api/reverse", s.handleReverse)
	mux.HandleFunc("/api/postal", s.handlePostal)
	mux.HandleFunc("/api/locate", s.handleLocate)
	mux.Handle("/metrics", metrics.Handler())
	return s.logRequests(mux)
}

func (s *Server) Start() error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info().Msg("Starting api server")
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Api server stopped")
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	s.wg.Wait()
	if err != nil {
		return fmt.Errorf("can't shutdown api server: %w", err)
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("took", time.Since(start)).
			Msg("Request served")
	})
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := entity.Query{
		Type:    q.Get("type"),
		Search:  q.Get("q"),
		Country: q.Get("country"),
		State:   q.Get("state"),
		City:    q.Get("city"),
	}
	filtered := query.Apply(s.app.Entities(), s.app.Index)
	s.writeJSON(w, http.StatusOK, entity.Annotate(filtered, s.app.Index))
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var sel location.Selection
	sel.SelectCountry(q.Get("country"))
	sel.SelectState(q.Get("state"))
	s.writeJSON(w, http.StatusOK, sel.Options(s.app.Index))
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	c, err := parseCoordinate(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	l, ok := s.app.Index.GetLocation(c)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("no location for %s", c))
		return
	}
	s.writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleReverse(w http.ResponseWriter, r *http.Request) {
	c, err := parseCoordinate(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.app.Resolver.ReverseGeocode(r.Context(), c))
}

func (s *Server) handlePostal(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: code", ErrMissingParam))
		return
	}
	res, ok := s.app.Resolver.GeocodePostalCode(r.Context(), code)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("postal code %s not found", code))
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// handleLocate names the position reported by the browser, or the
// failure code its geolocation provider returned.
func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	var p geolocation.Static
	if code := r.URL.Query().Get("error"); code != "" {
		n, err := strconv.Atoi(code)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid error code: %w", err))
			return
		}
		p.Err = geolocation.PositionError{Code: geolocation.ErrorCode(n)}
	} else {
		c, err := parseCoordinate(r)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		p.Coords = c
	}
	s.writeJSON(w, http.StatusOK, geolocation.Locate(r.Context(), p, s.app.Resolver))
}

func parseCoordinate(r *http.Request) (geo.Coordinate, error) {
	q := r.URL.Query()
	lat, err := parseFloat(q.Get("lat"), "lat")
	if err != nil {
		return geo.Coordinate{}, err
	}
	lng, err := parseFloat(q.Get("lng"), "lng")
	if err != nil {
		return geo.Coordinate{}, err
	}
	c := geo.Coordinate{Lat: lat, Lng: lng}
	if !c.Valid() {
		return geo.Coordinate{}, fmt.Errorf("invalid coordinate %s", c)
	}
	return c, nil
}

func parseFloat(v string, name string) (float64, error) {
	if v == "" {
		return 0, fmt.Errorf("%w: %s", ErrMissingParam, name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("can't parse %s: %w", name, err)
	}
	return f, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("Can't write response")
	}
}
