package app

import (
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

const testModeEnv = "POREKAP_TEST_MODE"

var (
	testMode     atomic.Bool
	testModeOnce sync.Once
)

// InTestMode reports whether mains should return before touching PostgreSQL,
// Redis or Gotenberg. The flag is read from POREKAP_TEST_MODE on first use.
func InTestMode() bool {
	testModeOnce.Do(RefreshTestMode)
	return testMode.Load()
}

// RefreshTestMode re-reads POREKAP_TEST_MODE.
func RefreshTestMode() {
	testMode.Store(truthy(os.Getenv(testModeEnv)))
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
