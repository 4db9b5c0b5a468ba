package testutil

import (
	"sync"
	"testing"

	"github.com/matrix-org/gomatrixserverlib/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_StartsAtBase(t *testing.T) {
	clock := NewDeterministicClock(0)
	assert.Equal(t, DefaultBaseTS, clock.Current())

	custom := NewDeterministicClock(42)
	assert.Equal(t, spec.Timestamp(42), custom.Current())
}

func TestDeterministicClock_NextAdvancesBySecond(t *testing.T) {
	clock := NewDeterministicClock(1000)

	assert.Equal(t, spec.Timestamp(1000), clock.Next())
	assert.Equal(t, spec.Timestamp(2000), clock.Next())
	assert.Equal(t, spec.Timestamp(3000), clock.Current())
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock(1000)
	clock.Next()
	clock.Next()

	clock.Reset()
	assert.Equal(t, spec.Timestamp(1000), clock.Next())
}

func TestDeterministicClock_ConcurrentAccess(t *testing.T) {
	clock := NewDeterministicClock(0)

	const goroutines = 10
	const perGoroutine = 100

	var wg sync.WaitGroup
	seen := make(chan spec.Timestamp, goroutines*perGoroutine)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				seen <- clock.Next()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[spec.Timestamp]bool{}
	for ts := range seen {
		require.False(t, unique[ts], "duplicate timestamp %d", ts)
		unique[ts] = true
	}
	assert.Len(t, unique, goroutines*perGoroutine)
}
