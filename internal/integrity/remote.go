package integrity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RemoteSource fetches the integrity index from an MII service exposing
// GET {base}/mii returning {"mii": x} or {"value": x}.
type RemoteSource struct {
	baseURL    string
	httpClient *http.Client
}

// NewRemoteSource returns a RemoteSource for baseURL.
func NewRemoteSource(baseURL string) *RemoteSource {
	return &RemoteSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch performs one request and returns the reported index.
func (s *RemoteSource) Fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/mii", nil)
	if err != nil {
		return 0, fmt.Errorf("build mii request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("network error calling mii endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("mii endpoint returned status %d", resp.StatusCode)
	}

	var body struct {
		MII   *float64 `json:"mii"`
		Value *float64 `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("mii endpoint returned invalid JSON: %w", err)
	}
	var v float64
	switch {
	case body.MII != nil:
		v = *body.MII
	case body.Value != nil:
		v = *body.Value
	default:
		return 0, fmt.Errorf("mii endpoint response has neither mii nor value")
	}
	if err := Validate(v); err != nil {
		return 0, err
	}
	return v, nil
}
