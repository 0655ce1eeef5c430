package touringplans

import (
	"encoding/json"
	"fmt"
)

// DayRecord is one calendar day of the crowd forecast. Levels maps a
// park code (MK, EP, ...) to a signed crowd level: magnitude 1..10 is
// the forecast intensity, a negative sign means the configured pass
// type is blocked out at that park on that day.
type DayRecord struct {
	Date   string
	Levels map[string]int
}

func (r DayRecord) Clone() DayRecord {
	levels := make(map[string]int, len(r.Levels))
	for park, level := range r.Levels {
		levels[park] = level
	}
	return DayRecord{Date: r.Date, Levels: levels}
}

// The display layer expects park levels as top-level fields next to the
// date, e.g. {"date":"2024/03/01","MK":5,"EP":-4}, so records marshal
// flat instead of nesting the Levels map.
func (r DayRecord) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Levels)+1)
	flat["date"] = r.Date
	for park, level := range r.Levels {
		flat[park] = level
	}
	return json.Marshal(flat)
}

func (r *DayRecord) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	err := json.Unmarshal(data, &flat)
	if err != nil {
		return err
	}

	r.Levels = make(map[string]int, len(flat))
	for key, value := range flat {
		if key == "date" {
			err = json.Unmarshal(value, &r.Date)
			if err != nil {
				return fmt.Errorf("date field: %w", err)
			}
			continue
		}
		var level int
		err = json.Unmarshal(value, &level)
		if err != nil {
			return fmt.Errorf("park field %q: %w", key, err)
		}
		r.Levels[key] = level
	}
	return nil
}

// Resort describes one crowd-calendar source page: its URL slug, the
// exact number of cells a data row must have, and which cell holds each
// park's crowd level.
type Resort struct {
	Slug      string
	Columns   int
	DateCell  int
	ParkCells map[string]int
}

const PrimaryResort = "walt-disney-world"

// Resorts is the fixed set of calendar sources. The column counts and
// cell indices mirror the upstream table layout; rows with any other
// cell count are discarded as non-data rows.
var Resorts = map[string]Resort{
	"walt-disney-world": {
		Slug:     "walt-disney-world",
		Columns:  8,
		DateCell: 0,
		ParkCells: map[string]int{
			"MK": 2,
			"EP": 3,
			"HS": 4,
			"AK": 5,
		},
	},
	"universal-orlando": {
		Slug:     "universal-orlando",
		Columns:  6,
		DateCell: 0,
		ParkCells: map[string]int{
			"UO":  2,
			"IOA": 3,
		},
	},
}

// BlockoutIndex maps "date::passType::parkCode" to true for every
// blocked-out combination. A nil index is valid and blocks nothing.
type BlockoutIndex map[string]bool

func BlockoutKey(date, passType, park string) string {
	return date + "::" + passType + "::" + park
}

// Apply recomputes the sign of every park level in rec from the index:
// negative when (date, passType, park) is blocked out, positive
// otherwise. The sign is derived from scratch each time, never toggled,
// so applying the same index twice is a no-op.
func (idx BlockoutIndex) Apply(rec *DayRecord, passType string) {
	for park, level := range rec.Levels {
		if level < 0 {
			level = -level
		}
		if idx[BlockoutKey(rec.Date, passType, park)] {
			level = -level
		}
		rec.Levels[park] = level
	}
}
