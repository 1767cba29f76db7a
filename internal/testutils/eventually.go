package test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const (
	WaitDuration = 2 * time.Second
	WaitTick     = 10 * time.Millisecond
)

// TryTilCountIs - checks condition after each tick until condition returns true or count is equal to cnt in which case
// the test fails.
// Prefer this helper to require.Eventually when test timeout is small or close to tick timeout.
func TryTilCountIs(t *testing.T, condition func() bool, cnt uint64, tick time.Duration, msgAndArgs ...interface{}) {
	t.Helper()
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for count := uint64(0); count < cnt; count++ {
		if condition() {
			return
		}
		<-ticker.C
	}
	assert.Fail(t, "Condition never satisfied", msgAndArgs...)
	t.FailNow()
}
