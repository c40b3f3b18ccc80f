package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Registry holds the process-wide checkout and payment counters.
type Registry struct {
	CheckoutsSucceeded Counter
	CheckoutsRejected  Counter
	PaymentsPassed     Counter
	PaymentsFailed     Counter
	PaymentsRejected   Counter
	RateFallbacks      Counter

	started time.Time
}

func NewRegistry() *Registry {
	return &Registry{started: time.Now()}
}

type Snapshot struct {
	CheckoutsSucceeded uint64 `json:"checkouts_succeeded"`
	CheckoutsRejected  uint64 `json:"checkouts_rejected"`
	PaymentsPassed     uint64 `json:"payments_passed"`
	PaymentsFailed     uint64 `json:"payments_failed"`
	PaymentsRejected   uint64 `json:"payments_rejected"`
	RateFallbacks      uint64 `json:"rate_fallbacks"`
	UptimeSeconds      int64  `json:"uptime_seconds"`
}

func (r *Registry) Snapshot() Snapshot {
	return Snapshot{
		CheckoutsSucceeded: r.CheckoutsSucceeded.Load(),
		CheckoutsRejected:  r.CheckoutsRejected.Load(),
		PaymentsPassed:     r.PaymentsPassed.Load(),
		PaymentsFailed:     r.PaymentsFailed.Load(),
		PaymentsRejected:   r.PaymentsRejected.Load(),
		RateFallbacks:      r.RateFallbacks.Load(),
		UptimeSeconds:      int64(time.Since(r.started).Seconds()),
	}
}
