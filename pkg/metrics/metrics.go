package metrics

import (
	"sync/atomic"
)

// Metrics counts HTTP traffic. The API client records the calls it makes and
// the devserver records the calls it serves.
type Metrics struct {
	requestsTotal     int64
	failuresTotal     int64
	unauthorizedTotal int64
	inFlight          int64
}

type Snapshot struct {
	RequestsTotal     int64 `json:"requests_total"`
	FailuresTotal     int64 `json:"failures_total"`
	UnauthorizedTotal int64 `json:"unauthorized_total"`
	InFlight          int64 `json:"in_flight"`
}

func New() *Metrics {
	return &Metrics{}
}

// Begin marks a request as started; the returned func records its outcome.
func (m *Metrics) Begin() func(status int, err error) {
	atomic.AddInt64(&m.requestsTotal, 1)
	atomic.AddInt64(&m.inFlight, 1)
	return func(status int, err error) {
		atomic.AddInt64(&m.inFlight, -1)
		if err != nil || status >= 400 {
			atomic.AddInt64(&m.failuresTotal, 1)
		}
		if status == 401 {
			atomic.AddInt64(&m.unauthorizedTotal, 1)
		}
	}
}

func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		RequestsTotal:     atomic.LoadInt64(&m.requestsTotal),
		FailuresTotal:     atomic.LoadInt64(&m.failuresTotal),
		UnauthorizedTotal: atomic.LoadInt64(&m.unauthorizedTotal),
		InFlight:          atomic.LoadInt64(&m.inFlight),
	}
}

func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.requestsTotal, 0)
	atomic.StoreInt64(&m.failuresTotal, 0)
	atomic.StoreInt64(&m.unauthorizedTotal, 0)
	atomic.StoreInt64(&m.inFlight, 0)
}
