// Package kv defines the key-value capability the timeline is persisted
// through, plus the hosts that implement it.
package kv

import (
	"regexp"
	"sort"
)

// host-provided string key-value storage
type Store interface {
	Set(key, value string) error
	// Get reports ok=false for an absent key.
	Get(key string) (value string, ok bool, err error)
	// Remove is a no-op for an absent key.
	Remove(key string) error
	// KeysMatching and ValuesMatching make no ordering promise.
	KeysMatching(pattern *regexp.Regexp) ([]string, error)
	ValuesMatching(pattern *regexp.Regexp) ([]string, error)
}

func matchingKeys(data map[string]string, pattern *regexp.Regexp) []string {
	var keys []string
	for k := range data {
		if pattern.MatchString(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
