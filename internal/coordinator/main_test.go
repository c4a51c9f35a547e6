package coordinator

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies no goroutines leak across the package's tests. The
// process pool spawns one long-lived goroutine per worker slot
// (pool.go); a bug in its shutdown path would otherwise only show up as
// slow test processes, not a failure.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}
