package main

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ecapdash/internal/coverage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	households := recordsFromMaps([]map[string]any{
		{"household_id": "HH1", "name": "Banda Family", "district": "Lusaka"},
		{"household_id": "HH2", "name": "Phiri Family", "district": " lusaka "},
		{"household_id": "HH3", "name": "Mwale Family", "district": "Chipata"},
	})
	vcas := recordsFromMaps([]map[string]any{
		{"uid": "V1", "name": "Chanda", "district": "Lusaka"},
	})
	services := recordsFromMaps([]map[string]any{
		{"household_id": "HH1", "service_date": "2024-01-10", "caseworker_name": "Grace Tembo",
			"health_services": "Deworming", "safe_services": "Home visit"},
		{"household_id": "HH2", "service_date": "2024-02-05", "caseworker_name": "Grace Tembo",
			"health_services": "HTS", "schooled_services": "Fees", "safe_services": "Visit", "stable_services": "Cash"},
		{"vca_id": "V1", "service_date": "03-2024", "caseworker_name": "John Banda",
			"schooled_services": "Uniform"},
	})
	hts := recordsFromMaps([]map[string]any{
		{"hiv_result": "Positive"},
		{"hiv_result": "Unknown"},
		{"hiv_result": ""},
	})

	holder := &DatasetHolder{}
	holder.Set(buildDataset(households, vcas, services, hts, time.Now()))

	cfg := Config{ExportOutputDir: t.TempDir(), Location: time.UTC}
	return NewServer(cfg, newTestDB(t), holder)
}

func doRequest(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v\n%s", err, rec.Body.String())
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)
	var resp map[string]any
	decodeJSON(t, doRequest(t, s, "GET", "/health"), &resp)

	if resp["status"] != "ok" {
		t.Fatalf("unexpected status: %v", resp["status"])
	}
	if resp["households"] != float64(3) || resp["services"] != float64(3) {
		t.Fatalf("unexpected counts: %v", resp)
	}
}

func TestHandleDistricts(t *testing.T) {
	s := newTestServer(t)
	var resp struct {
		Districts []struct {
			Name     string   `json:"name"`
			Variants []string `json:"variants"`
			Records  int      `json:"records"`
		} `json:"districts"`
	}
	decodeJSON(t, doRequest(t, s, "GET", "/api/districts"), &resp)

	if len(resp.Districts) != 2 {
		t.Fatalf("expected 2 canonical districts, got %+v", resp.Districts)
	}
	if resp.Districts[0].Name != "Chipata" || resp.Districts[1].Name != "Lusaka" {
		t.Fatalf("districts should be sorted: %+v", resp.Districts)
	}
	if len(resp.Districts[1].Variants) != 2 {
		t.Fatalf("Lusaka should carry both raw variants: %+v", resp.Districts[1])
	}
	// 2 Lusaka households + 1 Lusaka vca; 1 Chipata household.
	if resp.Districts[1].Records != 3 || resp.Districts[0].Records != 1 {
		t.Fatalf("unexpected beneficiary counts: %+v", resp.Districts)
	}
}

type registerResponse struct {
	Register string                    `json:"register"`
	Total    int                       `json:"total"`
	Results  []coverage.EntityCoverage `json:"results"`
}

func TestHandleRegisterGapFilter(t *testing.T) {
	s := newTestServer(t)

	var all registerResponse
	decodeJSON(t, doRequest(t, s, "GET", "/api/registers/households"), &all)
	if all.Total != 3 {
		t.Fatalf("expected all 3 households, got %+v", all)
	}

	// HH1 covers health+safe only: in schooled gap, not in health gap.
	var gap registerResponse
	decodeJSON(t, doRequest(t, s, "GET", "/api/registers/households?gap=schooled_domain"), &gap)
	found := false
	for _, r := range gap.Results {
		if r.ID == "HH1" {
			found = true
		}
		if r.ID == "HH2" {
			t.Fatalf("graduation-ready HH2 must not appear in a gap register")
		}
	}
	if !found {
		t.Fatalf("HH1 should appear in schooled gap: %+v", gap.Results)
	}

	var grad registerResponse
	decodeJSON(t, doRequest(t, s, "GET", "/api/registers/households?gap=graduation_path"), &grad)
	if grad.Total != 1 || grad.Results[0].ID != "HH2" {
		t.Fatalf("graduation_path should select HH2 only: %+v", grad.Results)
	}
}

func TestHandleRegisterDistrictAndSearch(t *testing.T) {
	s := newTestServer(t)

	var lusaka registerResponse
	decodeJSON(t, doRequest(t, s, "GET", "/api/registers/households?district=Lusaka"), &lusaka)
	if lusaka.Total != 2 {
		t.Fatalf("canonical district filter should match both raw variants: %+v", lusaka)
	}

	var search registerResponse
	decodeJSON(t, doRequest(t, s, "GET", "/api/registers/households?search=mwale"), &search)
	if search.Total != 1 || search.Results[0].ID != "HH3" {
		t.Fatalf("search should match name case-insensitively: %+v", search)
	}
}

func TestHandleRegisterVCAs(t *testing.T) {
	s := newTestServer(t)
	var resp registerResponse
	decodeJSON(t, doRequest(t, s, "GET", "/api/registers/vcas"), &resp)
	if resp.Total != 1 {
		t.Fatalf("expected 1 vca, got %+v", resp)
	}
	v := resp.Results[0]
	if v.ID != "V1" || !v.HasSchooled || v.DomainCount != 1 {
		t.Fatalf("vca coverage should join through vca FK aliases: %+v", v)
	}
}

func TestHandleRegisterErrors(t *testing.T) {
	s := newTestServer(t)
	if rec := doRequest(t, s, "GET", "/api/registers/unknown"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown register status = %d", rec.Code)
	}
	if rec := doRequest(t, s, "GET", "/api/registers/households?gap=bogus"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad gap status = %d", rec.Code)
	}
	if rec := doRequest(t, s, "GET", "/api/registers/households?attr.is_hiv_positive=maybe"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad attr status = %d", rec.Code)
	}
}

func TestHandleMonthly(t *testing.T) {
	s := newTestServer(t)
	var series coverage.MonthlySeries
	decodeJSON(t, doRequest(t, s, "GET", "/api/charts/services/monthly"), &series)

	if len(series.Buckets) != 3 {
		t.Fatalf("expected 3 month buckets, got %+v", series.Buckets)
	}
	labels := []string{series.Buckets[0].Label, series.Buckets[1].Label, series.Buckets[2].Label}
	want := []string{"2024-01", "2024-02", "2024-03"}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("labels = %v, want %v", labels, want)
		}
	}

	var lusaka coverage.MonthlySeries
	decodeJSON(t, doRequest(t, s, "GET", "/api/charts/services/monthly?district=Lusaka"), &lusaka)
	if len(lusaka.Buckets) != 0 {
		// Service events in the fixture carry no district field, so a
		// district filter excludes them all.
		t.Fatalf("district-filtered series should be empty: %+v", lusaka.Buckets)
	}
}

func TestHandleCaseworkers(t *testing.T) {
	s := newTestServer(t)
	var resp struct {
		Caseworkers []coverage.CaseworkerSummary `json:"caseworkers"`
	}
	decodeJSON(t, doRequest(t, s, "GET", "/api/caseworkers"), &resp)

	if len(resp.Caseworkers) != 2 {
		t.Fatalf("expected 2 caseworkers, got %+v", resp.Caseworkers)
	}
	if resp.Caseworkers[0].Name != "Grace Tembo" || resp.Caseworkers[0].Events != 2 {
		t.Fatalf("unexpected leading caseworker: %+v", resp.Caseworkers[0])
	}
}

func TestHandleQuality(t *testing.T) {
	s := newTestServer(t)
	var resp struct {
		Households coverage.QualityReport `json:"households"`
		VCAs       coverage.QualityReport `json:"vcas"`
	}
	decodeJSON(t, doRequest(t, s, "GET", "/api/quality"), &resp)

	// The service slice mixes household- and vca-keyed events; each register's
	// scan skips the other's events, so neither reports orphans here.
	if got := resp.Households.Total[coverage.IssueOrphanEvent]; got != 0 {
		t.Fatalf("vca-keyed events must not orphan the household scan: %d", got)
	}
	if got := resp.VCAs.Total[coverage.IssueOrphanEvent]; got != 0 {
		t.Fatalf("household-keyed events must not orphan the vca scan: %d", got)
	}
	if resp.Households.Total[coverage.IssueMissingID] != 0 || resp.VCAs.Total[coverage.IssueMissingID] != 0 {
		t.Fatalf("fixture beneficiaries all carry ids: %+v %+v", resp.Households.Total, resp.VCAs.Total)
	}
}

func TestHandleHTS(t *testing.T) {
	s := newTestServer(t)
	var summary coverage.HTSSummary
	decodeJSON(t, doRequest(t, s, "GET", "/api/hts"), &summary)

	if summary.Total != 3 || summary.Positive != 1 || summary.Unknown != 1 || summary.NotReported != 1 {
		t.Fatalf("unexpected hts rollup: %+v", summary)
	}
}

func TestHandleExportCSV(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(t, s, "GET", "/api/export/households.csv?district=Lusaka")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}

	r := csv.NewReader(strings.NewReader(rec.Body.String()))
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("export is not parseable csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "ID" || rows[1][0] != "HH1" || rows[2][0] != "HH2" {
		t.Fatalf("unexpected export rows: %v", rows)
	}

	// The export also lands in the output directory.
	files, err := filepath.Glob(filepath.Join(s.cfg.ExportOutputDir, "households_*.csv"))
	if err != nil || len(files) != 1 {
		t.Fatalf("expected one export file, got %v (%v)", files, err)
	}
	content, err := os.ReadFile(files[0])
	if err != nil || string(content) != rec.Body.String() {
		t.Fatalf("export file should match the response body")
	}
}

func TestReportCacheServesSecondRequest(t *testing.T) {
	InitReportCache(time.Minute)
	t.Cleanup(func() { reportCache = nil })

	s := newTestServer(t)
	first := doRequest(t, s, "GET", "/api/registers/households")

	// Swap in an empty dataset; a cached response must still serve.
	s.holder.Set(buildDataset(nil, nil, nil, nil, time.Now()))
	second := doRequest(t, s, "GET", "/api/registers/households")
	if second.Body.String() != first.Body.String() {
		t.Fatal("second request should come from cache")
	}

	flushReportCache()
	var after registerResponse
	decodeJSON(t, doRequest(t, s, "GET", "/api/registers/households"), &after)
	if after.Total != 0 {
		t.Fatalf("after flush the new dataset should serve: %+v", after)
	}
}
