package blockclock

import (
	"time"
)

// Clock derives a block height from wall time for callers that do not submit
// one explicitly. Heights advance by one every interval starting at genesis.
// This is a stand-in schedule, not a consensus view; a request-supplied
// height always takes precedence.
type Clock struct {
	genesis  time.Time
	interval time.Duration
	now      func() time.Time
}

func New(genesisUnix int64, intervalSec int) *Clock {
	if intervalSec <= 0 {
		intervalSec = 5
	}
	return &Clock{
		genesis:  time.Unix(genesisUnix, 0),
		interval: time.Duration(intervalSec) * time.Second,
		now:      time.Now,
	}
}

// Height returns the current derived block height. Before genesis the height
// is zero.
func (c *Clock) Height() uint64 {
	return c.HeightAt(c.now())
}

// HeightAt returns the height the schedule assigns to t.
func (c *Clock) HeightAt(t time.Time) uint64 {
	if !t.After(c.genesis) {
		return 0
	}
	return uint64(t.Sub(c.genesis) / c.interval)
}
