package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ecapdash/internal/coverage"
)

// AliasOverrides lets operators extend the built-in field-alias tables and
// the empty-value sentinel set without recompiling, since partner programs
// keep inventing new column names for the same logical attributes.
type AliasOverrides struct {
	HouseholdIDKeys      []string `yaml:"household_id_keys"`
	VCAIDKeys            []string `yaml:"vca_id_keys"`
	ServiceHouseholdKeys []string `yaml:"service_household_keys"`
	ServiceVCAKeys       []string `yaml:"service_vca_keys"`
	DistrictKeys         []string `yaml:"district_keys"`
	NameKeys             []string `yaml:"name_keys"`
	CaseworkerKeys       []string `yaml:"caseworker_keys"`
	DateKeys             []string `yaml:"date_keys"`
	HTSResultKeys        []string `yaml:"hts_result_keys"`
	EmptySentinels       []string `yaml:"empty_sentinels"`
}

func LoadAliasOverrides(path string) (*AliasOverrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read aliases: %w", err)
	}
	var o AliasOverrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parse aliases yaml: %w", err)
	}
	return &o, nil
}

// ApplyAliasOverrides appends override aliases to the engine's tables,
// skipping entries already present. Built-in aliases keep priority since
// appends land after them. Startup-time only.
func ApplyAliasOverrides(o *AliasOverrides) {
	if o == nil {
		return
	}
	coverage.HouseholdIDKeys = appendNewKeys(coverage.HouseholdIDKeys, o.HouseholdIDKeys)
	coverage.VCAIDKeys = appendNewKeys(coverage.VCAIDKeys, o.VCAIDKeys)
	coverage.ServiceHouseholdKeys = appendNewKeys(coverage.ServiceHouseholdKeys, o.ServiceHouseholdKeys)
	coverage.ServiceVCAKeys = appendNewKeys(coverage.ServiceVCAKeys, o.ServiceVCAKeys)
	coverage.DistrictKeys = appendNewKeys(coverage.DistrictKeys, o.DistrictKeys)
	coverage.NameKeys = appendNewKeys(coverage.NameKeys, o.NameKeys)
	coverage.CaseworkerKeys = appendNewKeys(coverage.CaseworkerKeys, o.CaseworkerKeys)
	coverage.DateKeys = appendNewKeys(coverage.DateKeys, o.DateKeys)
	coverage.HTSResultKeys = appendNewKeys(coverage.HTSResultKeys, o.HTSResultKeys)
	coverage.AddEmptySentinels(o.EmptySentinels...)
}

func appendNewKeys(existing, extra []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, k := range existing {
		seen[k] = struct{}{}
	}
	for _, k := range extra {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		existing = append(existing, k)
		seen[k] = struct{}{}
	}
	return existing
}
