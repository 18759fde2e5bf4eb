package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"ecapdash/internal/coverage"
)

// The secondary household API returns plain JSON arrays, not the Directus
// data envelope, and is optional: when household_api_url is unset the
// Directus collections are the only source.

// FetchHouseholdAPIRecords pulls one resource from the secondary REST API,
// e.g. "households" or "hts".
func FetchHouseholdAPIRecords(cfg Config, resource string) ([]coverage.Record, error) {
	apiURL := fmt.Sprintf("%s/%s", cfg.HouseholdAPIURL, resource)

	req, err := http.NewRequest("GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if cfg.HouseholdAPIToken != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.HouseholdAPIToken)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := upstreamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("household API returned %d: %s", resp.StatusCode, string(body))
	}

	var records []coverage.Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	log.Printf("household-api fetch done resource=%s total=%d", resource, len(records))
	return records, nil
}
