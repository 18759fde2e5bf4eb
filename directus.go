package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"ecapdash/internal/coverage"
)

// upstreamClient is shared by the Directus and household-API fetchers so a
// stalled upstream cannot hang a refresh pass.
var upstreamClient = &http.Client{Timeout: 30 * time.Second}

type directusItemsResponse struct {
	Data []coverage.Record `json:"data"`
}

// FetchDirectusCollection pulls every record of one Directus collection,
// paging through /items/{collection} until a short page arrives.
func FetchDirectusCollection(cfg Config, collection string) ([]coverage.Record, error) {
	var all []coverage.Record
	offset := 0

	for {
		apiURL := fmt.Sprintf("%s/items/%s?limit=%d&offset=%d",
			cfg.DirectusURL, url.PathEscape(collection), cfg.DirectusPageSize, offset)

		page, err := fetchDirectusPage(cfg.DirectusToken, apiURL)
		if err != nil {
			return nil, fmt.Errorf("fetching %s at offset %d: %w", collection, offset, err)
		}
		all = append(all, page...)

		if len(page) < cfg.DirectusPageSize {
			break
		}
		offset += cfg.DirectusPageSize
	}

	log.Printf("directus fetch done collection=%s total=%d", collection, len(all))
	return all, nil
}

func fetchDirectusPage(token, apiURL string) ([]coverage.Record, error) {
	req, err := http.NewRequest("GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
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
		return nil, fmt.Errorf("directus returned %d: %s", resp.StatusCode, string(body))
	}

	var result directusItemsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return result.Data, nil
}
