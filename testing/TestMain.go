// Package testing switches the process into test mode when imported by test
// binaries so mains and wiring skip network side effects.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("POREKAP_TEST_MODE", "1")
		if os.Getenv("GOTENBERG_URL") == "" {
			_ = os.Setenv("GOTENBERG_URL", "http://127.0.0.1:0")
		}
		if os.Getenv("EXPORT_STORAGE_DIR") == "" {
			_ = os.Setenv("EXPORT_STORAGE_DIR", os.TempDir())
		}
	})
}

func init() {
	ensureTestMode()
}

// TestMain can be assigned by packages that want test mode set before m.Run.
func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
