package vectors

import (
	"math"
	"time"
)

// TemporalGenerator encodes a timestamp as paired sine/cosine features.
//
// Periods are emitted in this order, two features each:
//
//	hour of day, day of week (Monday = 0), day of month, month of year,
//	minute of hour, second of minute, fraction of day, ISO week of year,
//	quarter of year, day of year
//
// The output is zero-padded or truncated to the configured dimension.
// Calendar fields are read in a fixed location (UTC unless configured),
// so the same instant always produces the same vector.
type TemporalGenerator struct {
	dimension int
	location  *time.Location
	now       func() time.Time
}

// NewTemporalGenerator creates a temporal generator. A nil location means UTC.
func NewTemporalGenerator(dimension int, location *time.Location) *TemporalGenerator {
	if location == nil {
		location = time.UTC
	}
	return &TemporalGenerator{
		dimension: dimension,
		location:  location,
		now:       time.Now,
	}
}

// Dimension returns the output length.
func (g *TemporalGenerator) Dimension() int {
	return g.dimension
}

// Generate encodes t. A zero t encodes the current time.
func (g *TemporalGenerator) Generate(t time.Time) []float64 {
	if t.IsZero() {
		t = g.now()
	}
	t = t.In(g.location)

	_, isoWeek := t.ISOWeek()
	fractions := []float64{
		float64(t.Hour()) / 24,
		float64(weekdayFromMonday(t.Weekday())) / 7,
		float64(t.Day()-1) / 31,
		float64(t.Month()-1) / 12,
		float64(t.Minute()) / 60,
		float64(t.Second()) / 60,
		float64(t.Hour()*3600+t.Minute()*60+t.Second()) / 86400,
		float64(isoWeek-1) / 52,
		float64((int(t.Month())-1)/3) / 4,
		float64(t.YearDay()-1) / 365,
	}

	features := make([]float64, 0, 2*len(fractions))
	for _, f := range fractions {
		rad := 2 * math.Pi * f
		features = append(features, math.Sin(rad), math.Cos(rad))
	}

	out := make([]float64, g.dimension)
	copy(out, features)
	return out
}

func weekdayFromMonday(d time.Weekday) int {
	return (int(d) + 6) % 7
}
