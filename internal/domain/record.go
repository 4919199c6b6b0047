package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the day-granularity format used for persisted records.
const DateLayout = "2006-01-02"

// DailyRecord is one appended history entry.
type DailyRecord struct {
	Date       time.Time
	TotalCfpKg float64
}

// NewDailyRecord truncates t to its calendar day.
func NewDailyRecord(t time.Time, totalCfpKg float64) DailyRecord {
	y, m, d := t.Date()
	return DailyRecord{
		Date:       time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		TotalCfpKg: totalCfpKg,
	}
}

// Valid reports whether the record can be kept in the history. A non-finite
// total cannot be encoded as JSON.
func (r DailyRecord) Valid() bool {
	return isFinite(r.TotalCfpKg)
}

type dailyRecordJSON struct {
	Date       string  `json:"date"`
	TotalCfpKg float64 `json:"total_cfp"`
}

// MarshalJSON writes {"date":"YYYY-MM-DD","total_cfp":...}.
func (r DailyRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(dailyRecordJSON{
		Date:       r.Date.Format(DateLayout),
		TotalCfpKg: r.TotalCfpKg,
	})
}

// UnmarshalJSON reads the persisted record format.
func (r *DailyRecord) UnmarshalJSON(data []byte) error {
	var raw dailyRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	date, err := time.Parse(DateLayout, raw.Date)
	if err != nil {
		return fmt.Errorf("parse record date %q: %w", raw.Date, err)
	}
	r.Date = date
	r.TotalCfpKg = raw.TotalCfpKg
	return nil
}

// TreesEquivalent converts a CFP into the number of trees needed to absorb it
// in one year.
func TreesEquivalent(cfpKg float64) float64 {
	return cfpKg / TreeAbsorptionPerYear
}
