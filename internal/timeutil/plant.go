package timeutil

import "time"

// Plant is the factory-floor timezone (UTC+5). All timestamps shown to
// operators and written to audit records use plant time.
var Plant *time.Location

func init() {
	var err error
	Plant, err = time.LoadLocation("Asia/Tashkent")
	if err != nil {
		Plant = time.FixedZone("UZT", 5*60*60) // UTC+5
	}
}

// Now returns the current time in plant time
func Now() time.Time {
	return time.Now().In(Plant)
}

// ToPlant converts any time to plant time
func ToPlant(t time.Time) time.Time {
	return t.In(Plant)
}

// StartOfDay returns the start of day (00:00:00) in plant time
func StartOfDay(t time.Time) time.Time {
	p := t.In(Plant)
	return time.Date(p.Year(), p.Month(), p.Day(), 0, 0, 0, 0, Plant)
}

// Common layouts
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)
