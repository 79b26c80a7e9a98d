// Package storelink resolves storefront links for a game title through
// an IGDB-style API.
//
// The API needs an OAuth client-credentials token; the client caches it
// and refreshes shortly before expiry. Lookups are best effort: the
// service maps failures to an empty link list rather than failing a
// feed request over a missing store button.
package storelink

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/okian/gamefeed/internal/domain/model"
	"github.com/okian/gamefeed/pkg/logger"
	"github.com/okian/gamefeed/pkg/metrics"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultTokenURL   = "https://id.twitch.tv/oauth2/token"
	tokenExpirySlack  = time.Minute
	searchResultLimit = 1
)

// Website categories that map to named storefronts. Anything else is a
// generic "Website" link.
const (
	categoryOfficial = 1
	categorySteam    = 13
	categoryEpic     = 16
	categoryGOG      = 17
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type gameResponse struct {
	Name     string `json:"name"`
	Websites []struct {
		URL      string `json:"url"`
		Category int    `json:"category"`
	} `json:"websites"`
}

// Resolver looks up storefront links by game name.
type Resolver interface {
	// Lookup returns the ordered store links for name, possibly empty.
	Lookup(ctx context.Context, name string) ([]model.StoreLink, error)
}

// Client implements Resolver against an IGDB-style API.
type Client struct {
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	http         *http.Client
	logger       logger.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// New creates a store-link client with configuration options.
func New(baseURL, clientID, clientSecret string, opts ...Option) *Client {
	c := &Client{
		baseURL:      baseURL,
		tokenURL:     defaultTokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         &http.Client{Timeout: defaultTimeout},
		logger:       logger.Get().Named("storelink"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Lookup searches the API for name and maps its website entries to
// store links.
func (c *Client) Lookup(ctx context.Context, name string) ([]model.StoreLink, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		metrics.RecordStoreLookup("failure")
		return nil, err
	}

	query := fmt.Sprintf("fields name, websites.url, websites.category;\nsearch %q;\nlimit %d;",
		name, searchResultLimit)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/games", strings.NewReader(query))
	if err != nil {
		metrics.RecordStoreLookup("failure")
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordStoreLookup("failure")
		return nil, fmt.Errorf("store lookup: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn(ctx, "failed to close response body", logger.Error(cerr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordStoreLookup("failure")
		return nil, fmt.Errorf("%w: status %d", ErrLookupFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordStoreLookup("failure")
		return nil, fmt.Errorf("read response: %w", err)
	}

	var games []gameResponse
	if err := json.Unmarshal(body, &games); err != nil {
		metrics.RecordStoreLookup("failure")
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	metrics.RecordStoreLookup("success")
	if len(games) == 0 {
		return []model.StoreLink{}, nil
	}

	links := make([]model.StoreLink, 0, len(games[0].Websites))
	for _, site := range games[0].Websites {
		if site.URL == "" {
			continue
		}
		links = append(links, model.StoreLink{Name: storeName(site.Category), URL: site.URL})
	}
	return links, nil
}

func storeName(category int) string {
	switch category {
	case categorySteam:
		return "Steam"
	case categoryEpic:
		return "Epic Games"
	case categoryGOG:
		return "GOG"
	case categoryOfficial:
		return "Official"
	default:
		return "Website"
	}
}

// accessToken returns a cached token, refreshing it when close to
// expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-tokenExpirySlack)) {
		return c.token, nil
	}

	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("client_secret", c.clientSecret)
	q.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenFetch, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn(ctx, "failed to close response body", logger.Error(cerr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrTokenFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenFetch, err)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenFetch, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrTokenFetch)
	}

	c.token = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.token, nil
}
