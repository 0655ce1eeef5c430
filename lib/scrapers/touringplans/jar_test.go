package touringplans

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileJarTruncatesOnConstruction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	err := os.WriteFile(path, []byte(`[{"host":"stale"}]`), 0600)
	if err != nil {
		t.Fatal(err)
	}

	_, err = newFileJar(path)
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, "[]", string(contents))
}

func TestFileJarPersistsCookies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	jar, err := newFileJar(path)
	require.NoError(t, err)

	origin, err := url.Parse("http://example.com")
	if err != nil {
		t.Fatal(err)
	}
	jar.SetCookies(origin, []*http.Cookie{
		{Name: "user_credentials", Value: "session-abc", Path: "/"},
	})

	require.Len(t, jar.Cookies(origin), 1)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	var stored []storedCookie
	require.NoError(t, json.Unmarshal(contents, &stored))
	require.Len(t, stored, 1)
	require.Equal(t, "example.com", stored[0].Host)
	require.Equal(t, "user_credentials", stored[0].Name)
	require.Equal(t, "session-abc", stored[0].Value)
}

func TestFileJarReplacesReissuedCookie(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	jar, err := newFileJar(path)
	require.NoError(t, err)

	origin, err := url.Parse("http://example.com")
	if err != nil {
		t.Fatal(err)
	}
	jar.SetCookies(origin, []*http.Cookie{
		{Name: "user_credentials", Value: "session-old", Path: "/"},
		{Name: "_tp_session", Value: "rack-1", Path: "/"},
	})
	jar.SetCookies(origin, []*http.Cookie{
		{Name: "user_credentials", Value: "session-new", Path: "/"},
	})

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	var stored []storedCookie
	require.NoError(t, json.Unmarshal(contents, &stored))
	require.Len(t, stored, 2)

	byName := map[string]string{}
	for _, c := range stored {
		byName[c.Name] = c.Value
	}
	require.Equal(t, "session-new", byName["user_credentials"])
	require.Equal(t, "rack-1", byName["_tp_session"])
}
