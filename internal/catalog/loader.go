// Package catalog fetches the product list from the remote API and holds the current snapshot.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"pos-catalog-browser/internal/domain"
)

// ErrUnexpectedStatus is wrapped when GET /api/products answers with a non-success status.
var ErrUnexpectedStatus = errors.New("catalog: unexpected response status")

// LoadError is the catalog-level failure (network, status or parse) of one load.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return "catalog: load failed: " + e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Loader fetches a complete catalog snapshot.
type Loader interface {
	Load(ctx context.Context) ([]domain.Product, error)
}

// HTTPLoader loads products from {baseURL}/api/products.
type HTTPLoader struct {
	baseURL string
	client  *http.Client
}

// NewHTTPLoader creates an HTTPLoader. A nil client uses http.DefaultClient.
func NewHTTPLoader(baseURL string, client *http.Client) *HTTPLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPLoader{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Load issues one GET request and decodes the product array.
func (l *HTTPLoader) Load(ctx context.Context) ([]domain.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/api/products", nil)
	if err != nil {
		return nil, &LoadError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	res, err := l.client.Do(req)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &LoadError{Err: fmt.Errorf("%w: %d", ErrUnexpectedStatus, res.StatusCode)}
	}

	var products []domain.Product
	if err := json.NewDecoder(res.Body).Decode(&products); err != nil {
		return nil, &LoadError{Err: fmt.Errorf("decode products: %w", err)}
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}
