package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"ecapdash/internal/coverage"
)

type registerSpec struct {
	name   string
	idKeys []string
	fkKeys []string
}

func (s *Server) registerSpecFor(name string) (registerSpec, bool) {
	switch name {
	case "households":
		return registerSpec{name, coverage.HouseholdIDKeys, coverage.ServiceHouseholdKeys}, true
	case "vcas":
		return registerSpec{name, coverage.VCAIDKeys, coverage.ServiceVCAKeys}, true
	}
	return registerSpec{}, false
}

func (s *Server) beneficiariesFor(ds *Dataset, register string) []coverage.Record {
	if register == "vcas" {
		return ds.VCAs
	}
	return ds.Households
}

// parseFilter builds the engine filter from query parameters. Sub-population
// attribute filters arrive as attr.<field>=yes|no.
func parseFilter(r *http.Request) (coverage.Filter, error) {
	var f coverage.Filter
	q := r.URL.Query()

	if raw := q.Get("gap"); raw != "" {
		gap, ok := coverage.ParseGapCategory(raw)
		if !ok {
			return f, fmt.Errorf("unknown gap category %q", raw)
		}
		f.Gap = gap
	}
	f.District = strings.TrimSpace(q.Get("district"))
	f.Search = q.Get("search")

	for key, values := range q {
		if !strings.HasPrefix(key, "attr.") || len(values) == 0 {
			continue
		}
		field := strings.TrimPrefix(key, "attr.")
		if field == "" {
			continue
		}
		switch strings.ToLower(values[0]) {
		case "yes", "true", "1", "y":
			if f.Attrs == nil {
				f.Attrs = make(map[string]bool)
			}
			f.Attrs[field] = true
		case "no", "false", "0", "n":
			if f.Attrs == nil {
				f.Attrs = make(map[string]bool)
			}
			f.Attrs[field] = false
		default:
			return f, fmt.Errorf("attribute filter %q must be yes or no", key)
		}
	}
	return f, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ds := s.holder.Get()
	snapshots, err := ListSnapshots(s.db)
	if err != nil {
		log.Printf("health snapshot list error: %v", err)
	}

	resp := map[string]any{
		"status":     "ok",
		"loaded_at":  ds.LoadedAt,
		"households": len(ds.Households),
		"vcas":       len(ds.VCAs),
		"services":   len(ds.Services),
		"hts":        len(ds.HTS),
		"snapshots":  snapshots,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDistricts(w http.ResponseWriter, r *http.Request) {
	if served := s.serveCached(w, r); served {
		return
	}
	ds := s.holder.Get()

	counts := make(map[string]int)
	for _, rec := range append(append([]coverage.Record{}, ds.Households...), ds.VCAs...) {
		if canonical, ok := coverage.Canonicalize(coverage.Resolve(rec, coverage.DistrictKeys, "")); ok {
			counts[canonical]++
		}
	}

	type districtInfo struct {
		Name     string   `json:"name"`
		Variants []string `json:"variants"`
		Records  int      `json:"records"`
	}
	var out []districtInfo
	for _, name := range ds.Districts.Names() {
		out = append(out, districtInfo{
			Name:     name,
			Variants: ds.Districts.Variants(name),
			Records:  counts[name],
		})
	}
	s.writeCachedJSON(w, r, map[string]any{"districts": out})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	spec, ok := s.registerSpecFor(mux.Vars(r)["register"])
	if !ok {
		httpError(w, http.StatusNotFound, "unknown register")
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if served := s.serveCached(w, r); served {
		return
	}

	ds := s.holder.Get()
	results := coverage.Compute(s.beneficiariesFor(ds, spec.name), ds.Services, spec.idKeys, spec.fkKeys)
	results = coverage.Apply(results, filter, ds.Districts)

	s.writeCachedJSON(w, r, map[string]any{
		"register": spec.name,
		"total":    len(results),
		"results":  results,
	})
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	if served := s.serveCached(w, r); served {
		return
	}
	ds := s.holder.Get()

	events := ds.Services
	if district := strings.TrimSpace(r.URL.Query().Get("district")); district != "" {
		filtered := make([]coverage.Record, 0, len(events))
		for _, ev := range events {
			raw := coverage.Resolve(ev, coverage.DistrictKeys, "")
			if ds.Districts.Matches(district, raw) {
				filtered = append(filtered, ev)
			}
		}
		events = filtered
	}

	series := coverage.MonthlyCounts(events, coverage.DateKeys)
	s.writeCachedJSON(w, r, series)
}

func (s *Server) handleCaseworkers(w http.ResponseWriter, r *http.Request) {
	if served := s.serveCached(w, r); served {
		return
	}
	ds := s.holder.Get()

	fkKeys := append(append([]string{}, coverage.ServiceHouseholdKeys...), coverage.ServiceVCAKeys...)
	stats := coverage.CaseworkerStats(ds.Services, fkKeys)
	s.writeCachedJSON(w, r, map[string]any{"caseworkers": stats})
}

func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request) {
	if served := s.serveCached(w, r); served {
		return
	}
	ds := s.holder.Get()

	households := coverage.QualityScan(ds.Households, ds.Services, coverage.HouseholdIDKeys, coverage.ServiceHouseholdKeys)
	vcas := coverage.QualityScan(ds.VCAs, ds.Services, coverage.VCAIDKeys, coverage.ServiceVCAKeys)
	s.writeCachedJSON(w, r, map[string]any{
		"households": households,
		"vcas":       vcas,
	})
}

func (s *Server) handleHTS(w http.ResponseWriter, r *http.Request) {
	if served := s.serveCached(w, r); served {
		return
	}
	ds := s.holder.Get()
	s.writeCachedJSON(w, r, coverage.HTSRollup(ds.HTS, coverage.HTSResultKeys))
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	spec, ok := s.registerSpecFor(mux.Vars(r)["register"])
	if !ok {
		httpError(w, http.StatusNotFound, "unknown register")
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	ds := s.holder.Get()
	results := coverage.Compute(s.beneficiariesFor(ds, spec.name), ds.Services, spec.idKeys, spec.fkKeys)
	results = coverage.Apply(results, filter, ds.Districts)

	headers, rows := coverage.RenderTable(results, registerColumns)
	csvText := coverage.ToCSV(headers, rows)

	if path, err := WriteExportFile(csvText, s.cfg.ExportOutputDir, spec.name, time.Now().In(s.cfg.Location)); err != nil {
		log.Printf("export write error: %v", err)
	} else {
		log.Printf("export written register=%s rows=%d path=%s", spec.name, len(rows), path)
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", spec.name+".csv"))
	w.Write([]byte(csvText))
}

func (s *Server) handleRefreshes(w http.ResponseWriter, r *http.Request) {
	entries, err := GetRecentRefreshes(s.db, 20)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"refreshes": entries})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	result, err := RefreshAll(s.cfg, s.db, s.holder)
	if err != nil {
		httpError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary":     FormatRefreshSummary(result),
		"collections": result.Collections,
		"records":     result.TotalRecords,
		"errors":      result.Errors,
	})
}

// registerColumns is the export column spec shared by households and vcas.
var registerColumns = []coverage.Column{
	{Header: "ID", Value: func(e coverage.EntityCoverage) string { return e.ID }},
	{Header: "Name", Value: func(e coverage.EntityCoverage) string { return e.Name }},
	{Header: "District", Value: func(e coverage.EntityCoverage) string { return e.District }},
	{Header: "Services", Value: func(e coverage.EntityCoverage) string { return fmt.Sprintf("%d", e.EventCount) }},
	{Header: "Health", Value: func(e coverage.EntityCoverage) string { return coverage.YesNo(e.HasHealth) }},
	{Header: "Schooled", Value: func(e coverage.EntityCoverage) string { return coverage.YesNo(e.HasSchooled) }},
	{Header: "Safe", Value: func(e coverage.EntityCoverage) string { return coverage.YesNo(e.HasSafe) }},
	{Header: "Stable", Value: func(e coverage.EntityCoverage) string { return coverage.YesNo(e.HasStable) }},
	{Header: "Domains", Value: func(e coverage.EntityCoverage) string { return fmt.Sprintf("%d", e.DomainCount) }},
	{Header: "Graduation Ready", Value: func(e coverage.EntityCoverage) string { return coverage.YesNo(e.GraduationReady) }},
}

func (s *Server) serveCached(w http.ResponseWriter, r *http.Request) bool {
	payload, ok := cachedReport(r.URL.RequestURI())
	if !ok {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
	return true
}

func (s *Server) writeCachedJSON(w http.ResponseWriter, r *http.Request, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	storeReport(r.URL.RequestURI(), payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
