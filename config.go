package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DirectusURL         string   `yaml:"directus_url"`
	DirectusToken       string   `yaml:"directus_token"`
	DirectusPageSize    int      `yaml:"directus_page_size"`
	HouseholdAPIURL     string   `yaml:"household_api_url"`
	HouseholdAPIToken   string   `yaml:"household_api_token"`
	HouseholdCollection string   `yaml:"household_collection"`
	VCACollection       string   `yaml:"vca_collection"`
	ServiceCollections  []string `yaml:"service_collections"`
	HTSCollection       string   `yaml:"hts_collection"`

	DBPath          string `yaml:"db_path"`
	ListenAddr      string `yaml:"listen_addr"`
	RefreshSchedule string `yaml:"refresh_schedule"`
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes"`
	ExportOutputDir string `yaml:"export_output_dir"`
	AliasesPath     string `yaml:"aliases_path"`
	Timezone        string `yaml:"timezone"`

	Location *time.Location `yaml:"-"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.DirectusURL, "DIRECTUS_URL")
	envOverride(&cfg.DirectusToken, "DIRECTUS_TOKEN")
	envOverrideInt(&cfg.DirectusPageSize, "DIRECTUS_PAGE_SIZE")
	envOverride(&cfg.HouseholdAPIURL, "HOUSEHOLD_API_URL")
	envOverride(&cfg.HouseholdAPIToken, "HOUSEHOLD_API_TOKEN")
	envOverride(&cfg.HouseholdCollection, "HOUSEHOLD_COLLECTION")
	envOverride(&cfg.VCACollection, "VCA_COLLECTION")
	envOverride(&cfg.HTSCollection, "HTS_COLLECTION")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.ListenAddr, "LISTEN_ADDR")
	envOverride(&cfg.RefreshSchedule, "REFRESH_SCHEDULE")
	envOverrideInt(&cfg.CacheTTLMinutes, "CACHE_TTL_MINUTES")
	envOverride(&cfg.ExportOutputDir, "EXPORT_OUTPUT_DIR")
	envOverride(&cfg.AliasesPath, "ALIASES_PATH")
	envOverride(&cfg.Timezone, "TIMEZONE")

	if names := os.Getenv("SERVICE_COLLECTIONS"); names != "" {
		cfg.ServiceCollections = nil
		for _, name := range strings.Split(names, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				cfg.ServiceCollections = append(cfg.ServiceCollections, name)
			}
		}
	}

	// Defaults
	if cfg.DirectusPageSize == 0 {
		cfg.DirectusPageSize = 500
	}
	if cfg.HouseholdCollection == "" {
		cfg.HouseholdCollection = "households"
	}
	if cfg.VCACollection == "" {
		cfg.VCACollection = "vcas"
	}
	if len(cfg.ServiceCollections) == 0 {
		cfg.ServiceCollections = []string{"household_services", "vca_services"}
	}
	if cfg.HTSCollection == "" {
		cfg.HTSCollection = "hts_records"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./ecapdash.db"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.CacheTTLMinutes == 0 {
		cfg.CacheTTLMinutes = 10
	}
	if cfg.ExportOutputDir == "" {
		cfg.ExportOutputDir = "./exports"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	// Validate required fields
	if cfg.DirectusURL == "" {
		log.Fatalf("Required config 'directus_url' is not set (via config.yaml or env var)")
	}
	cfg.DirectusURL = strings.TrimRight(cfg.DirectusURL, "/")
	cfg.HouseholdAPIURL = strings.TrimRight(cfg.HouseholdAPIURL, "/")

	if cfg.DirectusPageSize < 1 {
		log.Fatalf("invalid directus_page_size '%d': must be >= 1", cfg.DirectusPageSize)
	}
	if cfg.CacheTTLMinutes < 1 {
		log.Fatalf("invalid cache_ttl_minutes '%d': must be >= 1", cfg.CacheTTLMinutes)
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	if cfg.AliasesPath != "" {
		if _, err := LoadAliasOverrides(cfg.AliasesPath); err != nil {
			log.Fatalf("invalid aliases_path '%s': %v", cfg.AliasesPath, err)
		}
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func (c Config) HouseholdAPIConfigured() bool {
	return c.HouseholdAPIURL != ""
}
