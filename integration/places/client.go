package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL    = "https://places.googleapis.com/v1"
	defaultTimeout    = 10 * time.Second
	defaultMaxResults = 10

	// apiKeyHeader carries the credential; keeping it out of the URL keeps
	// it out of upstream access logs and error strings.
	apiKeyHeader = "X-Goog-Api-Key"
)

var (
	// ErrEmptyQuery is returned when the search query is blank.
	ErrEmptyQuery = errors.New("search query cannot be empty")

	// ErrMissingCredential is returned when no API credential is supplied.
	ErrMissingCredential = errors.New("api credential is required")

	// ErrUpstreamStatus is returned when the directory responds with a
	// non-success status code.
	ErrUpstreamStatus = errors.New("place directory returned an error status")
)

// Place is a single search result.
type Place struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	Rating   float64 `json:"rating,omitempty"`
	Types    []string `json:"types,omitempty"`
	OpenNow  *bool   `json:"open_now,omitempty"`
	Location *LatLng `json:"location,omitempty"`
}

// LatLng is a geographic coordinate pair.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Client performs text searches against the place directory.
// Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxResults int
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithBaseURL points the client at an alternative endpoint.
// Primarily useful for testing against a local server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMaxResults caps the number of results per search.
func WithMaxResults(n int) Option {
	return func(c *Client) {
		if n > 0 && n <= 20 {
			c.maxResults = n
		}
	}
}

// NewClient creates a place-search client. No credential is taken here; each
// Search call authenticates with the credential it is given.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxResults: defaultMaxResults,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type searchRequest struct {
	TextQuery  string `json:"textQuery"`
	MaxResults int    `json:"maxResultCount"`
}

type searchResponse struct {
	Places []struct {
		ID          string `json:"id"`
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		FormattedAddress string   `json:"formattedAddress"`
		Rating           float64  `json:"rating"`
		Types            []string `json:"types"`
		CurrentOpeningHours *struct {
			OpenNow bool `json:"openNow"`
		} `json:"currentOpeningHours"`
		Location *struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
	} `json:"places"`
}

// Search runs a free-text search and returns matching places in relevance
// order. An empty result set is not an error.
func (c *Client) Search(ctx context.Context, credential, query string) ([]Place, error) {
	if credential == "" {
		return nil, ErrMissingCredential
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	body, err := json.Marshal(searchRequest{
		TextQuery:  query,
		MaxResults: c.maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	endpoint, err := url.JoinPath(c.baseURL, "places:searchText")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, credential)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("place search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Body is discarded: upstream error payloads can echo request
		// details and have no stable format worth parsing.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]Place, 0, len(decoded.Places))
	for _, p := range decoded.Places {
		place := Place{
			ID:      p.ID,
			Name:    p.DisplayName.Text,
			Address: p.FormattedAddress,
			Rating:  p.Rating,
			Types:   p.Types,
		}
		if p.CurrentOpeningHours != nil {
			open := p.CurrentOpeningHours.OpenNow
			place.OpenNow = &open
		}
		if p.Location != nil {
			place.Location = &LatLng{
				Latitude:  p.Location.Latitude,
				Longitude: p.Location.Longitude,
			}
		}
		results = append(results, place)
	}

	return results, nil
}
