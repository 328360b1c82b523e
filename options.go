package perf

import "go.uber.org/zap"

// Default option values.
const (
	DefaultDailyLimit = 3660 // about ten years of daily chart points
	DefaultWorkers    = 8
	DefaultRetries    = 3
)

// Options tunes the calculation and the rate resolution.
//
// The zero value is ready to use.
type Options struct {
	FeePolicy FeePolicy

	// DailyLimit is the longest range, in days, charted with a daily cadence.
	// Longer ranges are sampled at transaction points plus their boundaries.
	DailyLimit int

	// Revalue makes charts re-express native investments at each day's exchange rate
	// instead of the rate of each transaction date.
	Revalue bool

	// Workers bounds the concurrent lookups of Resolve.
	Workers int

	// Retries bounds the attempts of a single lookup in Resolve.
	Retries uint

	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) dailyLimit() int {
	if o.DailyLimit <= 0 {
		return DefaultDailyLimit
	}
	return o.DailyLimit
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return DefaultWorkers
	}
	return o.Workers
}

func (o Options) retries() uint {
	if o.Retries == 0 {
		return DefaultRetries
	}
	return o.Retries
}
