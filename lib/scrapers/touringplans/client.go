package touringplans

import (
	"net/url"
	"time"

	"crowdcal-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("scrapers/touringplans")

const DefaultBaseUrl = "https://touringplans.com"

// A stuck upstream must not hold a fetch in flight forever, so every
// request carries a hard deadline.
const defaultTimeout = 30 * time.Second

type Credentials struct {
	Login    string
	Password string
}

// Client talks to the crowd-calendar site. It owns the session jar
// exclusively: no other component reads or writes cookies.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	blockoutUrl string
	credentials Credentials
	jar         *fileJar
	login       singleflight.Group
}

type ClientOptions struct {
	BaseUrl     string
	BlockoutUrl string
	Credentials Credentials
	// CookieFile is where the session jar is mirrored. Empty disables
	// persistence. The file is truncated on construction.
	CookieFile string
	Timeout    time.Duration
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.BlockoutUrl == "" {
		opts.BlockoutUrl = DefaultBlockoutUrl
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	jar, err := newFileJar(opts.CookieFile)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetCookieJar(jar)
	client.SetTimeout(opts.Timeout)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetHeader("cache-control", "no-cache")

	telemetry.InstrumentResty(client, "scrapers/touringplans/http")

	c := &Client{
		BaseUrl:     baseUrl,
		Http:        client,
		blockoutUrl: opts.BlockoutUrl,
		credentials: opts.Credentials,
		jar:         jar,
	}
	return c, nil
}

// HasSession reports whether the jar currently holds a cookie for the
// calendar origin.
func (c *Client) HasSession() bool {
	return len(c.jar.Cookies(c.BaseUrl)) > 0
}
