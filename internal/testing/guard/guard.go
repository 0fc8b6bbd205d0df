// Package guard flips POREKAP_TEST_MODE on when blank-imported by tests that
// must not reach real infrastructure.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("POREKAP_TEST_MODE") == "" {
			_ = os.Setenv("POREKAP_TEST_MODE", "1")
		}
	})
}
