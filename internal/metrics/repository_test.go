package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCounter(t *testing.T) {
	var c Counter
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
		}()
	}
	wg.Wait()
	c.Add(5)

	assert.Equal(t, uint64(55), c.Load())
}

func TestTimer(t *testing.T) {
	timer := StartTimer()
	time.Sleep(time.Millisecond)
	assert.Greater(t, timer.Duration(), time.Duration(0))
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	r.CheckoutsSucceeded.Inc()
	r.PaymentsPassed.Add(2)
	r.RateFallbacks.Inc()

	snap := r.Snapshot()

	assert.Equal(t, uint64(1), snap.CheckoutsSucceeded)
	assert.Equal(t, uint64(2), snap.PaymentsPassed)
	assert.Equal(t, uint64(1), snap.RateFallbacks)
	assert.Zero(t, snap.PaymentsFailed)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, int64(0))
}
