package forecast

import (
	"encoding/json"
	"fmt"

	"crowdcal-backend/lib/scrapers/touringplans"
)

// Message types emitted to the display layer.
const (
	MsgForecastReady = "FORECAST_READY"
	MsgFetchError    = "FETCH_ERROR"
	MsgLoginError    = "LOGIN_ERROR"
)

// ResortList accepts either a single resort identifier or a list of
// them, so `"resort": "walt-disney-world"` and `"resort": ["a", "b"]`
// are both valid requests.
type ResortList []string

func (r *ResortList) UnmarshalJSON(data []byte) error {
	var single string
	if json.Unmarshal(data, &single) == nil {
		*r = ResortList{single}
		return nil
	}
	var many []string
	err := json.Unmarshal(data, &many)
	if err != nil {
		return fmt.Errorf("resort must be a string or a list of strings")
	}
	*r = many
	return nil
}

// FetchForecastRequest is the inbound FETCH_FORECAST payload.
type FetchForecastRequest struct {
	Resorts        ResortList `json:"resort"`
	MaximumEntries int        `json:"maximumEntries"`
	PassType       string     `json:"passType"`
	// UpdateInterval is the display layer's polling cadence in
	// milliseconds. The cache cutover is the daily epoch, not this
	// value; it is carried for request-shape compatibility.
	UpdateInterval int64 `json:"updateInterval"`
}

// ForecastResponse is the outbound message: FORECAST_READY with the
// merged forecast, or FETCH_ERROR / LOGIN_ERROR with an error string.
type ForecastResponse struct {
	Type string `json:"type"`
	// nil when the message is an error; an empty forecast is emitted
	// as an empty list
	Forecast []touringplans.DayRecord `json:"forecast"`
	Error    string                   `json:"error,omitempty"`
}
