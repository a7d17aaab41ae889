package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/marcoalonso/nytpopular/pkg/models"
)

// DefaultBaseURL is the most-popular endpoint root.
const DefaultBaseURL = "https://api.nytimes.com/svc/mostpopular/v2"

// Client fetches most-popular article rankings. It is stateless and
// safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a client authenticated with the given API key.
// The key is sent as a query parameter and is never logged.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchArticles requests the ranking for a category and period and
// returns the articles in source order.
func (c *Client) FetchArticles(ctx context.Context, category models.Category, period models.Period) ([]models.Article, error) {
	endpoint, err := c.endpoint(category, period)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: redactKey(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServerError{Code: resp.StatusCode}
	}

	var body models.Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &DecodingError{Err: err}
	}

	return body.Results, nil
}

func (c *Client) endpoint(category models.Category, period models.Period) (string, error) {
	if !category.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidRequest, string(category))
	}
	if !period.Valid() {
		return "", fmt.Errorf("%w: unsupported period %d", ErrInvalidRequest, int(period))
	}

	u, err := url.Parse(fmt.Sprintf("%s/%s/%d.json", c.baseURL, category, period))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	q := u.Query()
	q.Set("api-key", c.apiKey)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// redactKey strips the api-key query parameter from transport errors so
// the key cannot reach logs or user-facing messages.
func redactKey(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	if u, parseErr := url.Parse(urlErr.URL); parseErr == nil {
		q := u.Query()
		if q.Has("api-key") {
			q.Set("api-key", "REDACTED")
			u.RawQuery = q.Encode()
			urlErr.URL = u.String()
		}
	}
	return err
}
