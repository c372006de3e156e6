package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// DateLayout is the calendar date format used by upstream series APIs.
const DateLayout = "2006-01-02"

// Observation is a single dated scalar from an upstream series.
type Observation struct {
	Date       time.Time `json:"-"`
	Value      float64   `json:"value"`
	DateString string    `json:"date"`
}

// NewObservation parses a YYYY-MM-DD date string into an Observation.
func NewObservation(date string, value float64) (Observation, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return Observation{}, fmt.Errorf("parse observation date %q: %w", date, err)
	}
	return Observation{Date: t, Value: value, DateString: date}, nil
}

// ObservationAt builds an Observation from a time, normalized to a UTC calendar day.
func ObservationAt(t time.Time, value float64) Observation {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Observation{Date: d, Value: value, DateString: d.Format(DateLayout)}
}

// UnmarshalJSON restores Date from the serialized date string.
func (o *Observation) UnmarshalJSON(b []byte) error {
	var raw struct {
		Date  string  `json:"date"`
		Value float64 `json:"value"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := NewObservation(raw.Date, raw.Value)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Series is a sequence of observations ordered ascending by date.
// Gaps are allowed; lookups resolve by date, not by index.
type Series []Observation

// Len returns the number of observations.
func (s Series) Len() int { return len(s) }

// Empty reports whether the series carries no data.
func (s Series) Empty() bool { return len(s) == 0 }

// Latest returns the last observation.
func (s Series) Latest() (Observation, bool) {
	if len(s) == 0 {
		return Observation{}, false
	}
	return s[len(s)-1], true
}

// Values returns the raw values in order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, o := range s {
		out[i] = o.Value
	}
	return out
}

// Since returns the suffix of observations dated on or after t.
func (s Series) Since(t time.Time) Series {
	i := sort.Search(len(s), func(i int) bool { return !s[i].Date.Before(t) })
	return s[i:]
}

// Sorted returns a copy ordered ascending by date.
func (s Series) Sorted() Series {
	out := make(Series, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
