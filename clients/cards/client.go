package cards

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	// Local Packages
	errors "cardflow/errors"
	models "cardflow/models"
)

// APIKeyHeader carries the shared key of internal calls between services.
const APIKeyHeader = "X-Internal-API-Key"

// Client looks cards up in the card management service.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// GetCard returns nil when the card does not exist.
func (c *Client) GetCard(ctx context.Context, cardNumber string) (*models.CardView, error) {
	endpoint := fmt.Sprintf("%s/internal/cards/%s", c.BaseURL, url.PathEscape(cardNumber))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(APIKeyHeader, c.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.E(errors.Internal, "card service unreachable", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, errors.E(errors.Unauthorized, "card service rejected the internal api key", nil)
	default:
		return nil, errors.E(errors.Internal, fmt.Sprintf("card service answered %d", resp.StatusCode), nil)
	}

	var view models.CardView
	if err = json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return nil, errors.E(errors.Internal, "cannot decode card", err)
	}
	return &view, nil
}
