package forecast

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"crowdcal-backend/lib/scrapers/touringplans"
	"crowdcal-backend/lib/timezone"
)

// ResortCache is one resort's cached forecast. Forecast is ordered
// ascending by date with no duplicate dates; Expires is the daily cache
// epoch after which the entry must be refreshed.
type ResortCache struct {
	Resort   string                   `json:"resort"`
	Forecast []touringplans.DayRecord `json:"forecast"`
	Expires  time.Time                `json:"expires"`
}

// Store holds every resort's cache and mirrors itself to a JSON file
// after each update so a restart resumes from the last good state.
type Store struct {
	mu      sync.Mutex
	path    string
	resorts map[string]ResortCache
}

// OpenStore loads the cache file when it exists; a missing or corrupt
// file starts the store empty rather than failing startup.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path, resorts: map[string]ResortCache{}}

	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	err = json.Unmarshal(contents, &s.resorts)
	if err != nil {
		slog.Warn("discarding unreadable forecast cache", "path", path, "err", err)
		s.resorts = map[string]ResortCache{}
	}
	return s, nil
}

// Get purges stale leading entries for the resort, then reports a cache
// hit when the retained forecast is still valid for the request.
func (s *Store) Get(resort string, now time.Time, minimumEntries int) ([]touringplans.DayRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.resorts[resort]
	if !ok {
		return nil, false
	}

	today := timezone.Date(now)
	retained := purgeStale(entry.Forecast, today)
	if len(retained) != len(entry.Forecast) {
		slog.Info("purged stale forecast entries",
			"resort", resort, "removed", len(entry.Forecast)-len(retained))
		entry.Forecast = retained
		s.resorts[resort] = entry
	}

	if !cacheHit(now, entry, resort, minimumEntries) {
		return nil, false
	}
	return entry.Forecast, true
}

// Update replaces the resort's entry wholesale and persists the whole
// store synchronously. The forecast becomes the durable ground truth
// the merger reads, so it must already carry the blockout overlay.
func (s *Store) Update(resort string, forecast []touringplans.DayRecord, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resorts[resort] = ResortCache{
		Resort:   resort,
		Forecast: forecast,
		Expires:  expires,
	}
	return s.saveLocked()
}

// Forecasts returns the cached sequences for the given resorts, in
// order, skipping resorts with no cache entry.
func (s *Store) Forecasts(resorts []string) [][]touringplans.DayRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sequences [][]touringplans.DayRecord
	for _, resort := range resorts {
		entry, ok := s.resorts[resort]
		if !ok {
			continue
		}
		sequences = append(sequences, entry.Forecast)
	}
	return sequences
}

func (s *Store) saveLocked() error {
	serialized, err := json.MarshalIndent(s.resorts, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, serialized, 0644)
}

// purgeStale drops leading entries older than today. It never drops an
// entry dated today or later: the forecast is ordered ascending, so the
// scan stops at the first retained date.
func purgeStale(forecast []touringplans.DayRecord, today string) []touringplans.DayRecord {
	i := 0
	for i < len(forecast) && forecast[i].Date < today {
		i++
	}
	return forecast[i:]
}

// cacheHit is the whole freshness policy: unexpired, enough retained
// entries for the request, and cached under the requested resort.
func cacheHit(now time.Time, entry ResortCache, resort string, minimumEntries int) bool {
	return now.Before(entry.Expires) &&
		len(entry.Forecast) >= minimumEntries &&
		entry.Resort == resort
}
