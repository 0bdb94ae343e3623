package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

var (
	ErrUnableToGeocode = errors.New("unable to geocode")
)

type Client interface {
	Reverse(ctx context.Context, lat float64, lng float64) (*ReverseResult, error)
	Search(ctx context.Context, postalCode string) ([]SearchResult, error)
}

// StandardURL is the public OpenStreetMap instance.
const StandardURL = "https://nominatim.openstreetmap.org"

const (
	DefaultUserAgent = "GeoMap/1.0 (+https://github.com/D00Movenok/GeoMap)"
	DefaultLanguage  = "pt-BR"
	DefaultCountry   = "Brasil"
	DefaultTimeout   = 10 * time.Second
)

type Config struct {
	URL       string
	UserAgent string
	Language  string
	Country   string
	Timeout   time.Duration
}

func NewClient() Client {
	return NewClientWithConfig(Config{})
}

func NewClientWithConfig(cfg Config) Client {
	if cfg.URL == "" {
		cfg.URL = StandardURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Country == "" {
		cfg.Country = DefaultCountry
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &client{
		cfg:        cfg,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Address holds the address parts used for place names. Nominatim fills
// only the ones relevant to the location.
type Address struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	State   string `json:"state"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

type ReverseResult struct {
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`
	Error       string  `json:"error"`
}

type SearchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Coordinates parses the textual coordinates of a search hit.
func (r SearchResult) Coordinates() (float64, float64, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("can't parse latitude \"%s\": %w", r.Lat, err)
	}
	lng, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("can't parse longitude \"%s\": %w", r.Lon, err)
	}
	return lat, lng, nil
}

type client struct {
	cfg        Config
	HTTPClient *http.Client
}

// Reverse retrieves the address of the supplied coordinates.
func (c *client) Reverse(
	ctx context.Context,
	lat float64,
	lng float64,
) (*ReverseResult, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("format", "json")
	q.Set("accept-language", c.cfg.Language)

	var r ReverseResult
	if err := c.get(ctx, "/reverse", q, &r); err != nil {
		return nil, err
	}
	if r.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrUnableToGeocode, r.Error)
	}
	return &r, nil
}

// Search retrieves places matching the supplied postal code. An empty
// slice means nothing was found.
func (c *client) Search(
	ctx context.Context,
	postalCode string,
) ([]SearchResult, error) {
	q := url.Values{}
	q.Set("postalcode", postalCode)
	q.Set("format", "json")
	q.Set("country", c.cfg.Country)

	var r []SearchResult
	if err := c.get(ctx, "/search", q, &r); err != nil {
		return nil, err
	}
	return r, nil
}

func (c *client) get(
	ctx context.Context,
	path string,
	query url.Values,
	v any,
) error {
	u := c.cfg.URL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("can't create http request: %w", err)
	}

	// usage policy forbids anonymous clients
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("can't make http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("can't read http response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	err = json.Unmarshal(body, v)
	if err != nil {
		return fmt.Errorf("can't parse json answer \"%s\": %w", body, err)
	}
	return nil
}

type StatusError struct {
	Code int
	Body string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("unexpected http status %d: %s", e.Code, e.Body)
}
