package touringplans

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

const loginPageHtml = `<html><body>
<form class="new_user_session" action="/user_sessions" method="post">
	<input type="hidden" name="utf8" value="1"/>
	<input type="hidden" name="authenticity_token" value="tok-123"/>
	<input type="text" name="user_session[login]"/>
	<input type="password" name="user_session[password]"/>
	<input type="submit" value="Log in"/>
</form>
</body></html>`

type loginUpstream struct {
	mux          *http.ServeMux
	loginPages   atomic.Int64
	loginSubmits atomic.Int64
}

func newLoginUpstream(t *testing.T) (*loginUpstream, *httptest.Server) {
	t.Helper()

	u := &loginUpstream{mux: http.NewServeMux()}
	u.mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		u.loginPages.Add(1)
		w.Write([]byte(loginPageHtml))
	})
	u.mux.HandleFunc("/user_sessions", func(w http.ResponseWriter, r *http.Request) {
		u.loginSubmits.Add(1)
		err := r.ParseForm()
		if err != nil {
			t.Error(err)
		}
		if r.PostForm.Get("authenticity_token") != "tok-123" ||
			r.PostForm.Get("user_session[login]") != "mickey" ||
			r.PostForm.Get("user_session[password]") != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:  "user_credentials",
			Value: "session-abc",
			Path:  "/",
		})
		http.Redirect(w, r, "/", http.StatusFound)
	})
	u.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("home"))
	})

	server := httptest.NewServer(u.mux)
	t.Cleanup(server.Close)
	return u, server
}

func newTestClient(t *testing.T, baseUrl string) *Client {
	t.Helper()

	client, err := NewClient(ClientOptions{
		BaseUrl:     baseUrl,
		Credentials: Credentials{Login: "mickey", Password: "hunter2"},
		CookieFile:  filepath.Join(t.TempDir(), "cookies.json"),
	})
	require.NoError(t, err)
	return client
}

func TestEnsureAuthenticated(t *testing.T) {
	upstream, server := newLoginUpstream(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	require.False(t, client.HasSession())
	require.NoError(t, client.EnsureAuthenticated(ctx))
	require.True(t, client.HasSession())
	require.EqualValues(t, 1, upstream.loginPages.Load())
	require.EqualValues(t, 1, upstream.loginSubmits.Load())

	// already holds a session: no further traffic
	require.NoError(t, client.EnsureAuthenticated(ctx))
	require.EqualValues(t, 1, upstream.loginPages.Load())
	require.EqualValues(t, 1, upstream.loginSubmits.Load())
}

func TestEnsureAuthenticatedBadCredentials(t *testing.T) {
	upstream, server := newLoginUpstream(t)
	client := newTestClient(t, server.URL)
	client.credentials.Password = "wrong"

	err := client.EnsureAuthenticated(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "submit", authErr.Stage)
	require.False(t, client.HasSession())

	// a failed attempt leaves nothing in flight, the next call retries
	// the whole flow
	_ = client.EnsureAuthenticated(context.Background())
	require.EqualValues(t, 2, upstream.loginPages.Load())
}

func TestEnsureAuthenticatedPageFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.EnsureAuthenticated(context.Background())

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "page", authErr.Stage)
}

func TestEnsureAuthenticatedMissingForm(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><form class=\"search\"></form></body></html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.EnsureAuthenticated(context.Background())
	require.ErrorIs(t, err, errLoginFormMissing)
}

func TestFetchCrowdCalendarLogsInFirst(t *testing.T) {
	upstream, server := newLoginUpstream(t)
	upstream.mux.HandleFunc("/walt-disney-world/crowd-calendar", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("user_credentials")
		if err != nil || cookie.Value != "session-abc" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		page := "<html><body><table>" +
			headerRow("Date") +
			wdwRow("2024-03-01", "", 5, 4, 6, 3) +
			"</table></body></html>"
		w.Write([]byte(page))
	})

	client := newTestClient(t, server.URL)
	forecast, err := client.FetchCrowdCalendar(context.Background(), wdw, parseNow)
	require.NoError(t, err)
	require.EqualValues(t, 1, upstream.loginSubmits.Load())
	require.Equal(t, []DayRecord{
		{Date: "2024/03/01", Levels: map[string]int{"MK": 5, "EP": 4, "HS": 6, "AK": 3}},
	}, forecast)
}
