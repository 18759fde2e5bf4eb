package main

import (
	"os"
	"path/filepath"
	"testing"

	"ecapdash/internal/coverage"
)

func TestLoadAliasOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.yaml")
	yaml := `
household_id_keys:
  - case_hh_ref
district_keys:
  - ward_district
empty_sentinels:
  - nothing provided
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write aliases: %v", err)
	}

	o, err := LoadAliasOverrides(path)
	if err != nil {
		t.Fatalf("LoadAliasOverrides failed: %v", err)
	}
	if len(o.HouseholdIDKeys) != 1 || o.HouseholdIDKeys[0] != "case_hh_ref" {
		t.Fatalf("unexpected overrides: %+v", o)
	}
}

func TestLoadAliasOverridesMissingFile(t *testing.T) {
	if _, err := LoadAliasOverrides(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestApplyAliasOverrides(t *testing.T) {
	origHH := coverage.HouseholdIDKeys
	t.Cleanup(func() { coverage.HouseholdIDKeys = origHH })

	ApplyAliasOverrides(&AliasOverrides{
		HouseholdIDKeys: []string{"case_hh_ref", "household_id", ""},
	})

	// Built-ins keep priority; new key appended once; duplicates and blanks
	// skipped.
	keys := coverage.HouseholdIDKeys
	if keys[0] != "household_id" {
		t.Fatalf("built-in priority lost: %v", keys)
	}
	if keys[len(keys)-1] != "case_hh_ref" {
		t.Fatalf("override not appended: %v", keys)
	}
	if len(keys) != len(origHH)+1 {
		t.Fatalf("duplicate or blank keys should be skipped: %v", keys)
	}

	rec := coverage.Record{"case_hh_ref": "HH42"}
	if got := coverage.Resolve(rec, coverage.HouseholdIDKeys, ""); got != "HH42" {
		t.Fatalf("override alias should resolve, got %q", got)
	}

	ApplyAliasOverrides(nil) // no-op
}
