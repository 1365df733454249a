package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/studygraph-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	require.NoError(t, err)
	return log
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	b := NewCircuitBreaker(3, time.Minute, testLogger(t))

	assert.Equal(t, BreakerClosed, b.State())
	for i := 0; i < 2; i++ {
		assert.True(t, b.Allow())
		b.RecordFailure()
	}
	assert.Equal(t, BreakerClosed, b.State())

	b.RecordFailure()
	assert.Equal(t, BreakerOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := NewCircuitBreaker(2, time.Minute, testLogger(t))

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreaker_HalfOpenSingleProbe(t *testing.T) {
	b := NewCircuitBreaker(1, 10*time.Millisecond, testLogger(t))

	b.RecordFailure()
	require.Equal(t, BreakerOpen, b.State())
	assert.False(t, b.Allow())

	time.Sleep(20 * time.Millisecond)

	assert.True(t, b.Allow())
	assert.Equal(t, BreakerHalfOpen, b.State())
	// Only one probe at a time while half-open.
	assert.False(t, b.Allow())
}

func TestBreaker_ProbeSuccessCloses(t *testing.T) {
	b := NewCircuitBreaker(1, 10*time.Millisecond, testLogger(t))

	b.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	require.True(t, b.Allow())

	b.RecordSuccess()
	assert.Equal(t, BreakerClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreaker_ProbeFailureReopens(t *testing.T) {
	b := NewCircuitBreaker(1, 10*time.Millisecond, testLogger(t))

	b.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	require.True(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, BreakerOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_Snapshot(t *testing.T) {
	b := NewCircuitBreaker(5, 30*time.Second, testLogger(t))
	b.RecordFailure()

	snap := b.Snapshot()
	assert.Equal(t, "closed", snap["state"])
	assert.Equal(t, 1, snap["failures"])
	assert.Equal(t, 5, snap["failure_threshold"])
	assert.Equal(t, 30, snap["cooldown_seconds"])
	assert.Contains(t, snap, "last_failure")
}

func TestBreaker_DefaultsApplied(t *testing.T) {
	b := NewCircuitBreaker(0, 0, testLogger(t))
	assert.Equal(t, 5, b.failureThreshold)
	assert.Equal(t, 30*time.Second, b.cooldown)
}
