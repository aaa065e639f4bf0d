package cache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Snapshot is the observable state of one key.
type Snapshot struct {
	Key       string
	Status    Status
	Data      interface{}
	HasData   bool
	Err       error
	Fetching  bool
	Stale     bool
	UpdatedAt time.Time
}

// IsLoading reports a first fetch that has not produced data yet.
func (s Snapshot) IsLoading() bool {
	return s.Status == StatusLoading
}

func (s Snapshot) IsError() bool {
	return s.Status == StatusError
}

var (
	lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schoolbook_cache_lookups_total",
		Help: "Cache lookups by key and result",
	}, []string{"key", "result"})

	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schoolbook_cache_fetches_total",
		Help: "Settled cache fetches by key and outcome",
	}, []string{"key", "outcome"})

	invalidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schoolbook_cache_invalidations_total",
		Help: "Cache invalidations by key",
	}, []string{"key"})
)
