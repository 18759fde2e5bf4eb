package main

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Computed report payloads are cached per path+query; a dataset swap flushes
// everything since every cached entry derives from the dataset.
var reportCache *cache.Cache

func InitReportCache(ttl time.Duration) {
	reportCache = cache.New(ttl, 2*ttl)
}

func flushReportCache() {
	if reportCache != nil {
		reportCache.Flush()
	}
}

func cachedReport(key string) ([]byte, bool) {
	if reportCache == nil {
		return nil, false
	}
	if v, ok := reportCache.Get(key); ok {
		return v.([]byte), true
	}
	return nil, false
}

func storeReport(key string, payload []byte) {
	if reportCache != nil {
		reportCache.Set(key, payload, cache.DefaultExpiration)
	}
}
