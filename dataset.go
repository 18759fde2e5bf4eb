package main

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"ecapdash/internal/coverage"
)

// Dataset is one immutable view of everything the engine aggregates over.
// Refreshes build a new Dataset and swap it in whole; handlers only ever read.
type Dataset struct {
	Households []coverage.Record
	VCAs       []coverage.Record
	Services   []coverage.Record
	HTS        []coverage.Record

	Districts *coverage.Districts
	LoadedAt  time.Time
}

func buildDataset(households, vcas, services, hts []coverage.Record, at time.Time) *Dataset {
	combined := make([]coverage.Record, 0, len(households)+len(vcas))
	combined = append(combined, households...)
	combined = append(combined, vcas...)

	return &Dataset{
		Households: households,
		VCAs:       vcas,
		Services:   services,
		HTS:        hts,
		Districts:  coverage.BuildDistricts(combined),
		LoadedAt:   at,
	}
}

// DatasetHolder hands the current Dataset to handlers while a refresh
// prepares the next one.
type DatasetHolder struct {
	mu sync.RWMutex
	ds *Dataset
}

func (h *DatasetHolder) Get() *Dataset {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ds
}

func (h *DatasetHolder) Set(ds *Dataset) {
	h.mu.Lock()
	h.ds = ds
	h.mu.Unlock()
}

// LoadDatasetFromSnapshots restores the last stored payloads so the service
// serves data before the first refresh completes. Missing snapshots load as
// empty collections.
func LoadDatasetFromSnapshots(cfg Config, db *sql.DB) (*Dataset, error) {
	households, at, err := LatestSnapshot(db, cfg.HouseholdCollection)
	if err != nil {
		return nil, fmt.Errorf("load %s snapshot: %w", cfg.HouseholdCollection, err)
	}
	vcas, _, err := LatestSnapshot(db, cfg.VCACollection)
	if err != nil {
		return nil, fmt.Errorf("load %s snapshot: %w", cfg.VCACollection, err)
	}
	var services []coverage.Record
	for _, collection := range cfg.ServiceCollections {
		recs, _, err := LatestSnapshot(db, collection)
		if err != nil {
			return nil, fmt.Errorf("load %s snapshot: %w", collection, err)
		}
		services = append(services, recs...)
	}
	hts, _, err := LatestSnapshot(db, cfg.HTSCollection)
	if err != nil {
		return nil, fmt.Errorf("load %s snapshot: %w", cfg.HTSCollection, err)
	}

	if at.IsZero() {
		at = time.Now()
	}
	return buildDataset(households, vcas, services, hts, at), nil
}
