package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pbaille/portfolio/internal/catalog"
	"github.com/pbaille/portfolio/internal/domain"
)

// Body size cap for a remote catalog (5MB)
const maxBodySize = 5 * 1024 * 1024

// Source loads the catalog from another instance's GET /projects and
// GET /services endpoints
type Source struct {
	url         string
	servicesURL string
	client      *http.Client
}

// projectsResponse mirrors the body of GET /projects
type projectsResponse struct {
	Items []domain.Project `json:"items"`
	Tags  []string         `json:"tags"`
}

// servicesResponse mirrors the body of GET /services
type servicesResponse struct {
	Items []domain.Service `json:"items"`
}

// New validates rawURL, the projects endpoint, and returns a Source for it.
// Services are read from the sibling "services" path.
func New(rawURL string, timeout time.Duration) (*Source, error) {
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Source{
		url:         u.String(),
		servicesURL: u.ResolveReference(&url.URL{Path: "services"}).String(),
		client:      &http.Client{Timeout: timeout},
	}, nil
}

// URL returns the projects endpoint the source reads from
func (s *Source) URL() string {
	return s.url
}

// ServicesURL returns the services endpoint the source reads from
func (s *Source) ServicesURL() string {
	return s.servicesURL
}

// Load fetches and decodes the remote projects and services. Every
// failure of either request, including a non-200 status or a malformed
// body, wraps catalog.ErrSourceUnavailable.
func (s *Source) Load(ctx context.Context) (*catalog.Catalog, error) {
	var projects projectsResponse
	if err := s.getJSON(ctx, s.url, &projects); err != nil {
		return nil, err
	}

	var services servicesResponse
	if err := s.getJSON(ctx, s.servicesURL, &services); err != nil {
		return nil, err
	}

	return catalog.New(projects.Items, services.Items)
}

func (s *Source) getJSON(ctx context.Context, target string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "portfolio/1.0 (catalog-fetcher)")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w: %w", target, catalog.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: %w: HTTP %d", target, catalog.ErrSourceUnavailable, resp.StatusCode)
	}

	// Read one byte past the cap so oversize bodies are detected
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return fmt.Errorf("read %s: %w: %w", target, catalog.ErrSourceUnavailable, err)
	}
	if len(body) > maxBodySize {
		return fmt.Errorf("fetch %s: %w: body exceeds %d bytes", target, catalog.ErrSourceUnavailable, maxBodySize)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w: %w", target, catalog.ErrSourceUnavailable, err)
	}
	return nil
}
