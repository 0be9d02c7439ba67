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

var ErrCustomerNotFound = errors.New("customer not found")

// CustomerClient talks to the customer service, an external collaborator.
// The notification consumer only needs it to resolve email addresses and
// falls back to a placeholder when the lookup fails.
type CustomerClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCustomerClient(baseURL string) *CustomerClient {
	return &CustomerClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (c *CustomerClient) GetCustomerByUserID(ctx context.Context, userID int64) (*models.Customer, error) {
	url := fmt.Sprintf("%s/customers/byUserId/%d", c.baseURL, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: customer service: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: user %d", ErrCustomerNotFound, userID)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: customer service returned status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var customer models.Customer
	if err := json.NewDecoder(resp.Body).Decode(&customer); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &customer, nil
}
