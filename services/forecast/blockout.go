package forecast

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"

	"crowdcal-backend/lib/scrapers/touringplans"
)

// BlockoutStore holds the current blockout index and mirrors it to a
// JSON file, so the overlay works from the last known calendar even
// before the first refresh of a session.
type BlockoutStore struct {
	mu    sync.RWMutex
	path  string
	index touringplans.BlockoutIndex
}

func OpenBlockoutStore(path string) (*BlockoutStore, error) {
	b := &BlockoutStore{path: path}

	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return b, nil
	}
	if err != nil {
		return nil, err
	}
	err = json.Unmarshal(contents, &b.index)
	if err != nil {
		slog.Warn("discarding unreadable blockout index", "path", path, "err", err)
		b.index = nil
	}
	return b, nil
}

// Index returns the current index. The index is replaced wholesale and
// never mutated in place, so holding a returned reference across a
// refresh is safe.
func (b *BlockoutStore) Index() touringplans.BlockoutIndex {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index
}

// Replace swaps in a freshly built index and persists it. Total
// replacement means a date dropped by the upstream source disappears
// locally too.
func (b *BlockoutStore) Replace(index touringplans.BlockoutIndex) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.index = index
	serialized, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(b.path, serialized, 0644)
}
