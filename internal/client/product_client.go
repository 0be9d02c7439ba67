package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mwaf/smartstock/internal/models"
)

var (
	// ErrServiceUnavailable marks infrastructure failures (connection refused,
	// timeout, 5xx). Callers may retry; it is never a business rejection.
	ErrServiceUnavailable = errors.New("service unavailable")

	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type ProductClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewProductClient(baseURL string) *ProductClient {
	return &ProductClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// GetProduct fetches a stock quote (price + availability) from the product
// service.
func (c *ProductClient) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	url := fmt.Sprintf("%s/products/%d", c.baseURL, productID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: product service: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: id %d", ErrProductNotFound, productID)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: product service returned status %d", ErrServiceUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("product service returned status %d", resp.StatusCode)
	}

	var product models.Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &product, nil
}

// ReduceStock asks the product service to decrement stock for one order item.
// The orderID keys the reduction so the async consumer's replay no-ops.
func (c *ProductClient) ReduceStock(ctx context.Context, productID int64, quantity int, orderID int64) error {
	url := fmt.Sprintf("%s/products/%d/reduceStock?quantity=%d&orderId=%d",
		c.baseURL, productID, quantity, orderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: product service: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: product %d", ErrInsufficientStock, productID)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: id %d", ErrProductNotFound, productID)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: product service returned status %d", ErrServiceUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("product service returned status %d", resp.StatusCode)
	}
}
