package main

import (
	"log"
	"net/http"
	"os"
	"time"
)

func main() {
	cfg := LoadConfig()

	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	os.MkdirAll(cfg.ExportOutputDir, 0755)

	if cfg.AliasesPath != "" {
		overrides, err := LoadAliasOverrides(cfg.AliasesPath)
		if err != nil {
			log.Fatalf("Failed to load alias overrides: %v", err)
		}
		ApplyAliasOverrides(overrides)
	}

	InitReportCache(time.Duration(cfg.CacheTTLMinutes) * time.Minute)

	holder := &DatasetHolder{}
	ds, err := LoadDatasetFromSnapshots(cfg, db)
	if err != nil {
		log.Fatalf("Failed to load snapshots: %v", err)
	}
	holder.Set(ds)
	log.Printf("dataset restored households=%d vcas=%d services=%d hts=%d",
		len(ds.Households), len(ds.VCAs), len(ds.Services), len(ds.HTS))

	go func() {
		if result, err := RefreshAll(cfg, db, holder); err != nil {
			log.Printf("Initial refresh error: %v", err)
		} else {
			log.Printf("Initial refresh complete: %s", FormatRefreshSummary(result))
		}
	}()

	StartRefreshScheduler(cfg, db, holder)

	srv := NewServer(cfg, db, holder)
	log.Printf("Starting ECAP+ dashboard API on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, srv.Router()); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
}
