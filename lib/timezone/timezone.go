package timezone

import "time"

// The upstream calendar keys every row by a calendar date and the cache
// cuts over once per day. Both are computed in UTC no matter where the
// server lands, otherwise a host in another zone would purge and expire
// on a different day than the data source.
var Location = time.UTC

// DateFormat is the canonical form of a forecast date and doubles as the
// cross-resort join key. Lexicographic order equals chronological order.
const DateFormat = "2006/01/02"

func Now() time.Time {
	return time.Now().In(Location)
}

// Date renders t as a canonical YYYY/MM/DD string.
func Date(t time.Time) string {
	return t.In(Location).Format(DateFormat)
}

func Today() string {
	return Date(Now())
}

// CacheEpoch returns the daily cache cutover for now: the next UTC
// midnight plus a small buffer. It is an absolute timestamp independent
// of when during the day now falls, so a cache entry written at any
// point of a day expires at the same instant.
func CacheEpoch(now time.Time) time.Time {
	now = now.In(Location)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, Location)
	return midnight.AddDate(0, 0, 1).Add(time.Minute)
}
