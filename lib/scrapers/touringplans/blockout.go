package touringplans

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
)

// DefaultBlockoutUrl is the unauthenticated JSON source of pass
// blockout calendars.
const DefaultBlockoutUrl = "https://touringplans.com/blockout-dates.json"

// park identifiers the blockout source uses; anything not listed here
// is ignored
var blockoutParks = map[string]string{
	"80007944": "MK",
	"80007838": "EP",
	"80007998": "HS",
	"80007823": "AK",
}

type blockoutCalendar struct {
	BlockoutDates []string `json:"blockout_dates"`
}

// FetchBlockouts retrieves the blockout calendar and builds a fresh
// index from it. The result is a complete snapshot: callers replace
// their previous index wholesale so a date dropped upstream is dropped
// locally too.
func (c *Client) FetchBlockouts(ctx context.Context) (BlockoutIndex, error) {
	ctx, span := tracer.Start(ctx, "client:FetchBlockouts")
	defer span.End()

	slog.InfoContext(ctx, "fetching blockout calendar")
	res, err := c.Http.R().
		SetContext(ctx).
		Get(c.blockoutUrl)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch blockout calendar")
		return nil, &TransportError{Op: "fetch blockout calendar", Err: err}
	}
	if res.StatusCode() != 200 {
		span.SetStatus(codes.Error, "blockout calendar returned non-200")
		return nil, &TransportError{
			Op:  "fetch blockout calendar",
			Err: fmt.Errorf("unexpected status %d", res.StatusCode()),
		}
	}

	var payload map[string]map[string]blockoutCalendar
	err = json.Unmarshal(res.Body(), &payload)
	if err != nil {
		span.SetStatus(codes.Error, "failed to decode blockout calendar")
		return nil, fmt.Errorf("decode blockout calendar: %w", err)
	}

	index := BlockoutIndex{}
	for passType, parks := range payload {
		for parkId, calendar := range parks {
			park, known := blockoutParks[parkId]
			if !known {
				continue
			}
			for _, date := range calendar.BlockoutDates {
				index[BlockoutKey(normalizeDate(date), passType, park)] = true
			}
		}
	}

	slog.InfoContext(ctx, "built blockout index", "entries", len(index))
	return index, nil
}
