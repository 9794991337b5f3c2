package classifier

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies that classification never leaks goroutines; every
// Classify call must be fully synchronous.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
