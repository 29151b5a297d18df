package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("STAFFDIR_TEST_MODE") == "" {
			_ = os.Setenv("STAFFDIR_TEST_MODE", "1")
		}
	})
}
