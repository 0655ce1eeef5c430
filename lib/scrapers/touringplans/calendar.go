package touringplans

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"crowdcal-backend/lib/htmlutil"
	"crowdcal-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// hard upper bound on the forecast horizon; rows past it are dropped
// in encounter order
const maxForecastRows = 60

// FetchCrowdCalendar fetches the resort's crowd-calendar page for the
// month containing now and parses it into day records. Levels are raw
// (all positive); the blockout overlay is the caller's responsibility.
// It authenticates first when the session jar is empty.
func (c *Client) FetchCrowdCalendar(ctx context.Context, resort Resort, now time.Time) ([]DayRecord, error) {
	ctx, span := tracer.Start(ctx, "client:FetchCrowdCalendar")
	defer span.End()

	err := c.EnsureAuthenticated(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "authentication failed")
		return nil, err
	}

	now = now.In(timezone.Location)
	slog.InfoContext(ctx, "fetching crowd calendar", "resort", resort.Slug)
	res, err := c.Http.R().
		SetContext(ctx).
		SetQueryParam("month", strconv.Itoa(int(now.Month()))).
		SetQueryParam("year", strconv.Itoa(now.Year())).
		Get(fmt.Sprintf("/%s/crowd-calendar", resort.Slug))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch crowd calendar")
		return nil, &TransportError{Op: "fetch crowd calendar", Err: err}
	}
	if res.StatusCode() != 200 {
		span.SetStatus(codes.Error, "crowd calendar returned non-200")
		return nil, &TransportError{
			Op:  "fetch crowd calendar",
			Err: fmt.Errorf("unexpected status %d", res.StatusCode()),
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, fmt.Errorf("parse crowd calendar: %w", err)
	}

	forecast := parseCrowdCalendar(ctx, doc, resort, now)
	if len(forecast) == 0 {
		// either the source genuinely has no data or the page layout
		// changed underneath us; leave a diagnosable trail rather than
		// caching silence
		slog.WarnContext(ctx, "crowd calendar yielded zero rows", "resort", resort.Slug)
	}
	return forecast, nil
}

func parseCrowdCalendar(ctx context.Context, doc *goquery.Document, resort Resort, now time.Time) []DayRecord {
	var forecast []DayRecord

	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if len(forecast) >= maxForecastRows {
			return false
		}

		cells := row.Find("td")
		if cells.Length() != resort.Columns {
			return true
		}

		dateCell := cells.Eq(resort.DateCell)
		dateText := selectionText(dateCell)
		if strings.ToLower(dateText) == "date" {
			// header row, can appear anywhere the table repeats it
			return true
		}

		date := dateCell.AttrOr("data-date", "")
		if date != "" {
			date = normalizeDate(date)
		} else {
			var err error
			date, err = parseLocalizedDate(dateText, now)
			if err != nil {
				slog.WarnContext(ctx, "skipping row with unparseable date",
					"resort", resort.Slug, "text", dateText, "err", err)
				return true
			}
		}

		rec := DayRecord{Date: date, Levels: make(map[string]int, len(resort.ParkCells))}
		for park, idx := range resort.ParkCells {
			level, ok := leadingInt(selectionText(cells.Eq(idx)))
			if !ok {
				slog.WarnContext(ctx, "skipping park cell without a numeric level",
					"resort", resort.Slug, "date", date, "park", park)
				continue
			}
			rec.Levels[park] = level
		}
		forecast = append(forecast, rec)
		return true
	})

	return forecast
}

func selectionText(sel *goquery.Selection) string {
	if len(sel.Nodes) == 0 {
		return ""
	}
	return htmlutil.InnerText(sel.Nodes[0])
}

// leadingInt parses the first whitespace-separated token of s, e.g.
// "7 out of 10" yields 7.
func leadingInt(s string) (int, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false
	}
	return n, true
}

// normalizeDate turns upstream date spellings (2024-03-01) into the
// canonical 2024/03/01 join key.
func normalizeDate(date string) string {
	return strings.ReplaceAll(date, "-", "/")
}

var localizedDateLayouts = []string{
	"January 2 2006",
	"Jan 2 2006",
	"Monday January 2",
	"January 2",
	"Jan 2",
}

// parseLocalizedDate handles the fallback where the date cell carries
// prose like "Saturday March 1, 2024" instead of a data attribute. Only
// the first three tokens matter, the rest of the cell is decoration.
// Layouts without a year resolve against now, rolling into the next
// year when the month has already wrapped around.
func parseLocalizedDate(text string, now time.Time) (string, error) {
	text = strings.ReplaceAll(text, ",", "")
	fields := strings.Fields(text)
	if len(fields) > 3 {
		fields = fields[:3]
	}
	candidate := strings.Join(fields, " ")

	for _, layout := range localizedDateLayouts {
		parsed, err := time.Parse(layout, candidate)
		if err != nil {
			continue
		}
		if parsed.Year() == 0 {
			year := now.Year()
			if parsed.Month() < now.Month() {
				year++
			}
			parsed = time.Date(year, parsed.Month(), parsed.Day(), 0, 0, 0, 0, timezone.Location)
		}
		return timezone.Date(parsed), nil
	}
	return "", fmt.Errorf("unrecognized date %q", candidate)
}
