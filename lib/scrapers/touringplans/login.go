package touringplans

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

const (
	loginPath  = "/login"
	submitPath = "/user_sessions"
	// the login form is identified by this class on the upstream page
	loginFormSelector = "form.new_user_session"
)

// EnsureAuthenticated is a no-op when the jar already holds a session
// cookie. Otherwise it runs the login flow exactly once no matter how
// many fetches need it concurrently: later callers block on the single
// in-flight attempt and share its outcome.
func (c *Client) EnsureAuthenticated(ctx context.Context) error {
	if c.HasSession() {
		return nil
	}
	_, err, _ := c.login.Do("login", func() (any, error) {
		return nil, c.loginOnce(ctx)
	})
	return err
}

func (c *Client) loginOnce(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:loginOnce")
	defer span.End()

	slog.InfoContext(ctx, "fetching login page")
	res, err := c.Http.R().
		SetContext(ctx).
		Get(loginPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch login page")
		return &AuthError{Stage: "page", Err: err}
	}
	if res.StatusCode() != 200 {
		span.SetStatus(codes.Error, "login page returned non-200")
		return &AuthError{Stage: "page", Err: fmt.Errorf("unexpected status %d", res.StatusCode())}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse login page")
		return &AuthError{Stage: "page", Err: err}
	}

	form := doc.Find(loginFormSelector).First()
	if form.Length() == 0 {
		span.SetStatus(codes.Error, errLoginFormMissing.Error())
		return &AuthError{Stage: "page", Err: errLoginFormMissing}
	}

	// the form carries hidden anti-forgery fields that must be echoed
	// back verbatim alongside the credentials
	values := url.Values{}
	form.Find("input[type=hidden]").Each(func(_ int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		if name == "" {
			return
		}
		values.Set(name, input.AttrOr("value", ""))
	})
	values.Set("user_session[login]", c.credentials.Login)
	values.Set("user_session[password]", c.credentials.Password)

	slog.InfoContext(ctx, "logging in", "login", c.credentials.Login)
	res, err = c.Http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetBody(values.Encode()).
		Post(submitPath)
	if err != nil {
		span.SetStatus(codes.Error, "failed to submit login form")
		return &AuthError{Stage: "submit", Err: err}
	}
	if res.StatusCode() >= 400 {
		span.SetStatus(codes.Error, "login submission returned an error status")
		return &AuthError{Stage: "submit", Err: fmt.Errorf("unexpected status %d", res.StatusCode())}
	}

	if !c.HasSession() {
		span.SetStatus(codes.Error, errNoSessionCookie.Error())
		return &AuthError{Stage: "submit", Err: errNoSessionCookie}
	}
	return nil
}
