package touringplans

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDayRecordJSONFlat(t *testing.T) {
	rec := DayRecord{
		Date:   "2024/03/01",
		Levels: map[string]int{"MK": 5, "UO": -3},
	}

	serialized, err := json.Marshal(rec)
	require.NoError(t, err)
	require.JSONEq(t, `{"date":"2024/03/01","MK":5,"UO":-3}`, string(serialized))

	var decoded DayRecord
	require.NoError(t, json.Unmarshal(serialized, &decoded))
	require.Equal(t, rec, decoded)
}

func TestDayRecordClone(t *testing.T) {
	rec := DayRecord{Date: "2024/03/01", Levels: map[string]int{"MK": 5}}
	clone := rec.Clone()
	clone.Levels["MK"] = 9
	require.Equal(t, 5, rec.Levels["MK"])
}

func TestBlockoutApply(t *testing.T) {
	index := BlockoutIndex{
		"2024/03/01::platinum::MK": true,
	}
	rec := DayRecord{Date: "2024/03/01", Levels: map[string]int{"MK": 5, "EP": 4}}

	index.Apply(&rec, "platinum")
	require.Equal(t, map[string]int{"MK": -5, "EP": 4}, rec.Levels)

	// idempotent: the sign is recomputed, not toggled
	index.Apply(&rec, "platinum")
	require.Equal(t, map[string]int{"MK": -5, "EP": 4}, rec.Levels)

	// a different pass type is not blocked, the sign flips back
	index.Apply(&rec, "gold")
	require.Equal(t, map[string]int{"MK": 5, "EP": 4}, rec.Levels)
}

func TestBlockoutApplyNilIndex(t *testing.T) {
	var index BlockoutIndex
	rec := DayRecord{Date: "2024/03/01", Levels: map[string]int{"MK": -5}}

	index.Apply(&rec, "platinum")
	require.Equal(t, map[string]int{"MK": 5}, rec.Levels)
}
