package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/partyhub/partyhub/internal/errdef"
	"golang.org/x/time/rate"
)

const (
	cacheKeyPrefix = "geocode:"
	notFoundValue  = "none"
	notFoundTTL    = time.Hour
)

// Coordinates of a city
// swagger:model
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type Options struct {
	URL               string
	UserAgent         string
	RequestsPerSecond int
	CacheTTL          time.Duration
	RetryMax          int
}

// NewClient returns a client for a Nominatim compatible search API. Lookups are cached and calls to
// the API are rate limited.
func NewClient(logger *slog.Logger, options Options, cache cache) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.Logger = logger
	httpClient.RetryMax = options.RetryMax
	httpClient.RetryWaitMin = 500 * time.Millisecond
	httpClient.RetryWaitMax = 5 * time.Second

	// every attempt, retries included, waits for the limiter
	limiter := rate.NewLimiter(rate.Limit(max(options.RequestsPerSecond, 1)), 1)
	httpClient.HTTPClient.Transport = &rateLimitedTransport{
		limiter: limiter,
		next:    httpClient.HTTPClient.Transport,
	}

	return &Client{
		logger:     logger,
		baseURL:    strings.TrimSuffix(options.URL, "/"),
		userAgent:  options.UserAgent,
		cacheTTL:   options.CacheTTL,
		httpClient: httpClient,
		cache:      cache,
	}
}

type rateLimitedTransport struct {
	limiter *rate.Limiter
	next    http.RoundTripper
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}

type Client struct {
	logger     *slog.Logger
	baseURL    string
	userAgent  string
	cacheTTL   time.Duration
	httpClient *retryablehttp.Client
	cache      cache
}

// Normalize trims, lower-cases and collapses whitespace so equal cities share a cache entry.
func Normalize(city string) string {
	return strings.ToLower(strings.Join(strings.Fields(city), " "))
}

// Lookup returns the coordinates of the city. A city the API doesn't know results in a not found
// error which is cached for an hour.
func (c *Client) Lookup(ctx context.Context, city string) (*Coordinates, error) {
	city = Normalize(city)
	if city == "" {
		return nil, errdef.NewBadRequest("city must not be empty")
	}

	key := cacheKeyPrefix + city
	if coordinates, found, err := c.cached(ctx, key); err != nil {
		return nil, err
	} else if found {
		return coordinates, nil
	}

	coordinates, err := c.search(ctx, city)
	if err != nil {
		if errdef.IsNotFound(err) {
			c.store(ctx, key, notFoundValue, notFoundTTL)
		}
		return nil, err
	}

	value, err := json.Marshal(coordinates)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, string(value), c.cacheTTL)

	return coordinates, nil
}

func (c *Client) cached(ctx context.Context, key string) (*Coordinates, bool, error) {
	value, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to read geocode cache", "key", key, "error", err)
		return nil, false, nil
	}
	if !ok {
		return nil, false, nil
	}

	if value == notFoundValue {
		return nil, false, errdef.NewNotFound("no coordinates found for %q", strings.TrimPrefix(key, cacheKeyPrefix))
	}

	var coordinates Coordinates
	if err := json.Unmarshal([]byte(value), &coordinates); err != nil {
		c.logger.WarnContext(ctx, "Ignoring malformed geocode cache entry", "key", key, "error", err)
		return nil, false, nil
	}
	return &coordinates, true, nil
}

func (c *Client) store(ctx context.Context, key, value string, ttl time.Duration) {
	if err := c.cache.Set(ctx, key, value, ttl); err != nil {
		c.logger.WarnContext(ctx, "Failed to write geocode cache", "key", key, "error", err)
	}
}

type place struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (c *Client) search(ctx context.Context, city string) (*Coordinates, error) {
	query := url.Values{}
	query.Set("format", "json")
	query.Set("limit", "1")
	query.Set("q", city)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding %q: %v", city, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding %q: unexpected status %d", city, res.StatusCode)
	}

	var places []place
	if err := json.NewDecoder(res.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("geocoding %q: failed to decode response: %v", city, err)
	}

	if len(places) == 0 {
		return nil, errdef.NewNotFound("no coordinates found for %q", city)
	}

	latitude, latErr := strconv.ParseFloat(places[0].Lat, 64)
	longitude, lonErr := strconv.ParseFloat(places[0].Lon, 64)
	if err := errors.Join(latErr, lonErr); err != nil {
		return nil, fmt.Errorf("geocoding %q: malformed coordinates: %v", city, err)
	}

	return &Coordinates{Latitude: latitude, Longitude: longitude}, nil
}
