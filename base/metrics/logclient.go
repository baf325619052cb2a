package metrics

import (
	"github.com/x-xyz/auctionproxy/base/log"
)

// LogClient stands in for the statsd agent in local runs and tests: every
// bump becomes a debug line, so bid and upgrade outcomes stay visible with
// log.level debug.
type LogClient struct{}

func (lc *LogClient) emit(kind, name string, value interface{}, tags []string) error {
	log.Log().WithFields(log.Fields{
		"metric": name,
		"kind":   kind,
		"val":    value,
		"tags":   tags,
	}).Debug("metric")
	return nil
}

func (lc *LogClient) Gauge(name string, value float64, tags []string, rate float64) error {
	return lc.emit("gauge", name, value, tags)
}

func (lc *LogClient) Count(name string, value int64, tags []string, rate float64) error {
	return lc.emit("count", name, value, tags)
}

func (lc *LogClient) Histogram(name string, value float64, tags []string, rate float64) error {
	return lc.emit("histogram", name, value, tags)
}

// TimeInMilliseconds values are milliseconds, as with dogstatsd.
func (lc *LogClient) TimeInMilliseconds(name string, value float64, tags []string, rate float64) error {
	return lc.emit("timeMs", name, value, tags)
}
