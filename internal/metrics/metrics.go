// Package metrics records ledger and HTTP activity.
package metrics

import "time"

// Collector receives measurements from the ledger and the API.
type Collector interface {
	// RecordMutation records one balance-mutating operation. result is a
	// model.Classify label.
	RecordMutation(kind string, result string, duration time.Duration)

	// RecordRateMiss records a conversion that fell back to the identity.
	RecordRateMiss(from, to string)

	// RecordRequest records one HTTP request.
	RecordRequest(method, route string, status int, duration time.Duration)
}

// NoOpCollector discards everything.
type NoOpCollector struct{}

// RecordMutation does nothing.
func (NoOpCollector) RecordMutation(kind string, result string, duration time.Duration) {}

// RecordRateMiss does nothing.
func (NoOpCollector) RecordRateMiss(from, to string) {}

// RecordRequest does nothing.
func (NoOpCollector) RecordRequest(method, route string, status int, duration time.Duration) {}
