// Package guard flips the runtime into test mode as soon as it is imported,
// so binaries under test refuse to start real servers or workers.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("CAMPUSCORE_TEST_MODE") == "" {
			_ = os.Setenv("CAMPUSCORE_TEST_MODE", "1")
		}
	})
}
