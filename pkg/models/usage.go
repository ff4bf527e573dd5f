package models

import "time"

// Granularity identifies the reporting interval of a series
type Granularity string

const (
	Hourly Granularity = "hourly"
	Daily  Granularity = "daily"
)

// Measure is a transfer amount in MB that may be missing
type Measure struct {
	Value float64
	Valid bool
}

// Present returns a valid Measure holding v
func Present(v float64) Measure {
	return Measure{Value: v, Valid: true}
}

// Missing returns a Measure with no value
func Missing() Measure {
	return Measure{}
}

// Float returns the value and whether it is present
func (m Measure) Float() (float64, bool) {
	return m.Value, m.Valid
}

// Sample represents a single usage reading from the portal
type Sample struct {
	Time time.Time
	Out  Measure // Download ("o")
	In   Measure // Upload ("i")

	// Hourly series only
	Hour      int
	HourLabel string // "HH:00"
}

// Series is an ordered set of samples in portal order
type Series struct {
	Granularity Granularity
	Samples     []Sample
	Goal        *float64 // Daily series only
}

// Len returns the number of samples
func (s Series) Len() int {
	return len(s.Samples)
}

// Last returns the final sample, if any
func (s Series) Last() (Sample, bool) {
	if len(s.Samples) == 0 {
		return Sample{}, false
	}
	return s.Samples[len(s.Samples)-1], true
}
