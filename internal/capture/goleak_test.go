package capture

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures a full Run — cache open/close, the Phase-1 worker
// pool, and every Phase-2 analyzer — leaves no goroutine behind.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}
