package catalogclient

import (
	"context"
	"encoding/json"
	"fmt"
	"intel_service/internal/domain/model"
	"net/http"
	"strings"
	"time"
)

// HTTPCatalogClient fetches city records from a remote catalog service.
type HTTPCatalogClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPCatalogClient(baseURL string, timeout time.Duration) *HTTPCatalogClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPCatalogClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type citiesResponse struct {
	Cities []model.CityRecord `json:"cities"`
}

// LoadCities implements core.CitySource: GET {base}/cities.
func (c *HTTPCatalogClient) LoadCities(ctx context.Context) ([]model.CityRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cities", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog service returned status: %d", resp.StatusCode)
	}

	var body citiesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	if len(body.Cities) == 0 {
		return nil, fmt.Errorf("catalog service returned no cities")
	}
	return body.Cities, nil
}
