package main

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"ecapdash/internal/coverage"
)

// RefreshResult tracks per-collection counters for one refresh pass.
type RefreshResult struct {
	Collections  int
	TotalRecords int
	Errors       []string
}

// RefreshAll fetches every configured collection from Directus and, when
// configured, the secondary household API, snapshots the payloads, and swaps
// the in-memory dataset. Collections that fetch replace their predecessors;
// a collection that fails keeps its previous records. Only a pass where
// every fetch fails returns an error and leaves the dataset untouched.
func RefreshAll(cfg Config, db *sql.DB, holder *DatasetHolder) (RefreshResult, error) {
	started := time.Now().In(cfg.Location)
	log.Printf("refresh start collections=%d", 3+len(cfg.ServiceCollections))

	var result RefreshResult
	prev := holder.Get()

	fetch := func(collection string, fallback []coverage.Record) []coverage.Record {
		records, err := FetchDirectusCollection(cfg, collection)
		if err != nil {
			log.Printf("refresh error collection=%s: %v", collection, err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", collection, err))
			return fallback
		}
		result.Collections++
		result.TotalRecords += len(records)
		if err := InsertSnapshot(db, collection, started, records); err != nil {
			log.Printf("refresh snapshot error collection=%s: %v", collection, err)
			result.Errors = append(result.Errors, fmt.Sprintf("snapshot %s: %v", collection, err))
		}
		return records
	}

	var prevHouseholds, prevVCAs, prevServices, prevHTS []coverage.Record
	if prev != nil {
		prevHouseholds, prevVCAs, prevServices, prevHTS = prev.Households, prev.VCAs, prev.Services, prev.HTS
	}

	households := fetch(cfg.HouseholdCollection, prevHouseholds)
	vcas := fetch(cfg.VCACollection, prevVCAs)

	var services []coverage.Record
	servicesFetched := false
	for _, collection := range cfg.ServiceCollections {
		before := result.Collections
		services = append(services, fetch(collection, nil)...)
		if result.Collections > before {
			servicesFetched = true
		}
	}
	if !servicesFetched {
		services = prevServices
	}

	hts := fetch(cfg.HTSCollection, prevHTS)

	// Merge in the secondary household API where configured.
	if cfg.HouseholdAPIConfigured() {
		extra, err := FetchHouseholdAPIRecords(cfg, "households")
		if err != nil {
			log.Printf("refresh error source=household-api resource=households: %v", err)
			result.Errors = append(result.Errors, fmt.Sprintf("household-api households: %v", err))
		} else {
			households = append(households, extra...)
			result.TotalRecords += len(extra)
		}
		extraHTS, err := FetchHouseholdAPIRecords(cfg, "hts")
		if err != nil {
			log.Printf("refresh error source=household-api resource=hts: %v", err)
			result.Errors = append(result.Errors, fmt.Sprintf("household-api hts: %v", err))
		} else {
			hts = append(hts, extraHTS...)
			result.TotalRecords += len(extraHTS)
		}
	}

	finished := time.Now().In(cfg.Location)
	if result.Collections == 0 && len(result.Errors) > 0 {
		_ = InsertRefreshLog(db, RefreshLogEntry{
			StartedAt: started, FinishedAt: finished,
			TotalRecords: 0, Errors: strings.Join(result.Errors, "; "),
		})
		return result, fmt.Errorf("all fetches failed: %s", strings.Join(result.Errors, "; "))
	}

	holder.Set(buildDataset(households, vcas, services, hts, finished))
	flushReportCache()

	if err := InsertRefreshLog(db, RefreshLogEntry{
		StartedAt: started, FinishedAt: finished,
		TotalRecords: result.TotalRecords, Errors: strings.Join(result.Errors, "; "),
	}); err != nil {
		log.Printf("refresh log error: %v", err)
	}

	log.Printf("refresh done collections=%d records=%d errors=%d in %s",
		result.Collections, result.TotalRecords, len(result.Errors), finished.Sub(started).Round(time.Millisecond))
	return result, nil
}

// FormatRefreshSummary returns a human-readable summary of a RefreshResult.
func FormatRefreshSummary(result RefreshResult) string {
	msg := fmt.Sprintf("Fetched %d records across %d collections", result.TotalRecords, result.Collections)
	if len(result.Errors) > 0 {
		msg += fmt.Sprintf("\nWarnings:\n%s", strings.Join(result.Errors, "\n"))
	}
	return msg
}

// StartRefreshScheduler starts a cron-based scheduler that periodically
// refreshes all collections. The schedule is a standard 5-field cron
// expression (minute hour day-of-month month day-of-week).
// Examples: "0 6 * * *" (daily 6am), "0 */4 * * *" (every 4 hours).
func StartRefreshScheduler(cfg Config, db *sql.DB, holder *DatasetHolder) {
	schedule := strings.TrimSpace(cfg.RefreshSchedule)
	if schedule == "" {
		log.Println("Scheduled refresh disabled (refresh_schedule not set)")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid refresh_schedule '%s': %v; scheduled refresh disabled", schedule, err)
		return
	}

	log.Printf("Refresh scheduled (cron: %s)", schedule)

	go func() {
		for {
			now := time.Now().In(cfg.Location)
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next refresh at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			result, refreshErr := RefreshAll(cfg, db, holder)
			if refreshErr != nil {
				log.Printf("Scheduled refresh error: %v", refreshErr)
			}
			log.Printf("Scheduled refresh complete: %s", FormatRefreshSummary(result))
		}
	}()
}
