// Package catalog loads the food catalog from a local file or an HTTP(S) URL.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/carbon-food-print/internal/domain"
)

const maxCatalogBytes = 8 << 20

// Loader fetches and parses the catalog named by source.
type Loader struct {
	source     string
	httpClient *http.Client
}

// NewLoader creates a catalog loader. Sources starting with http:// or
// https:// are fetched; anything else is read from disk.
func NewLoader(source string, timeout time.Duration) *Loader {
	return &Loader{
		source:     source,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Source returns the configured catalog location.
func (l *Loader) Source() string { return l.source }

// Load reads the catalog. Every failure is a *domain.CatalogLoadError.
func (l *Loader) Load(ctx context.Context) (domain.Catalog, error) {
	data, err := l.read(ctx)
	if err != nil {
		return nil, &domain.CatalogLoadError{Source: l.source, Err: err}
	}
	catalog, err := domain.ParseCatalog(data)
	if err != nil {
		return nil, &domain.CatalogLoadError{Source: l.source, Err: err}
	}
	return catalog, nil
}

func (l *Loader) read(ctx context.Context) ([]byte, error) {
	if l.source == "" {
		return nil, fmt.Errorf("no catalog source configured")
	}
	if isRemote(l.source) {
		return l.fetch(ctx)
	}
	data, err := os.ReadFile(l.source)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return data, nil
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch catalog: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes))
	if err != nil {
		return nil, fmt.Errorf("read catalog body: %w", err)
	}
	return data, nil
}

func isRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
