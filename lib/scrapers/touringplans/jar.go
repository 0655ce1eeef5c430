package touringplans

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"sync"
	"time"
)

type storedCookie struct {
	Host    string    `json:"host"`
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path"`
	Expires time.Time `json:"expires,omitempty"`
}

// fileJar is a cookie jar that mirrors every cookie the server sets to
// a JSON file. The file is truncated when the jar is constructed: a
// fresh process always starts unauthenticated and logs in lazily on the
// first fetch, the file only ever reflects the current session.
type fileJar struct {
	mu    sync.Mutex
	inner *cookiejar.Jar
	path  string
	seen  []storedCookie
}

func newFileJar(path string) (*fileJar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if path != "" {
		err = os.WriteFile(path, []byte("[]\n"), 0600)
		if err != nil {
			return nil, err
		}
	}
	return &fileJar{inner: inner, path: path}, nil
}

func (j *fileJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.inner.SetCookies(u, cookies)

	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range cookies {
		j.record(storedCookie{
			Host:    u.Host,
			Name:    c.Name,
			Value:   c.Value,
			Path:    c.Path,
			Expires: c.Expires,
		})
	}
	j.flushLocked()
}

// record keeps one entry per (host, name), so a re-set cookie replaces
// its previous value instead of piling up in the file.
func (j *fileJar) record(c storedCookie) {
	for i := range j.seen {
		if j.seen[i].Host == c.Host && j.seen[i].Name == c.Name {
			j.seen[i] = c
			return
		}
	}
	j.seen = append(j.seen, c)
}

func (j *fileJar) Cookies(u *url.URL) []*http.Cookie {
	return j.inner.Cookies(u)
}

func (j *fileJar) flushLocked() {
	if j.path == "" {
		return
	}
	serialized, err := json.MarshalIndent(j.seen, "", "  ")
	if err != nil {
		slog.Warn("failed to serialize cookie jar", "err", err)
		return
	}
	err = os.WriteFile(j.path, serialized, 0600)
	if err != nil {
		slog.Warn("failed to persist cookie jar", "path", j.path, "err", err)
	}
}
