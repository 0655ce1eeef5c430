package forecast

import (
	"errors"
	"fmt"

	"crowdcal-backend/lib/scrapers/touringplans"
)

// ConsistencyError means two resorts' cached forecasts disagree on the
// date at the same position: their caches have drifted to different
// calendar alignments.
type ConsistencyError struct {
	Index int
	Want  string
	Got   string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("forecast misalignment at index %d: %s vs %s", e.Index, e.Want, e.Got)
}

// Merge combines per-resort forecast sequences positionally into one
// sequence with one record per calendar day, unioning park fields when
// dates agree. Positions whose dates disagree are reported through the
// returned error and left out of the union rather than silently mixed;
// the merged sequence is still returned. Positional alignment holds
// because every resort purges to the same day boundary.
func Merge(sequences [][]touringplans.DayRecord) ([]touringplans.DayRecord, error) {
	var merged []touringplans.DayRecord
	var errs []error

	for _, sequence := range sequences {
		for i, rec := range sequence {
			if i >= len(merged) {
				merged = append(merged, rec.Clone())
				continue
			}
			if merged[i].Date != rec.Date {
				errs = append(errs, &ConsistencyError{
					Index: i,
					Want:  merged[i].Date,
					Got:   rec.Date,
				})
				continue
			}
			for park, level := range rec.Levels {
				merged[i].Levels[park] = level
			}
		}
	}

	return merged, errors.Join(errs...)
}
