package karesis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"karesis-backend/lib/restyutil"
	"karesis-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/karesis")

var (
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrCsrfTokenNotFound  = fmt.Errorf("could not find csrf token on login page")
	ErrNotAuthenticated   = fmt.Errorf("client is not authenticated")
	ErrBadStatus          = fmt.Errorf("bad status from portal")
	ErrLoginFailed        = fmt.Errorf("login failed")
)

// candidate base urls for the portal, tried in order during login
var DefaultMirrors = []string{
	"https://student.kalasalingam.ac.in",
	"https://sis.kalasalingam.ac.in",
}

// the portal renders a Logout link on every page of an authenticated
// session, there is no better success signal exposed
const loggedInMarker = "Logout"

// Client holds one scraped portal session. It starts out unauthenticated,
// Login binds it to the first mirror that accepts the credentials and it
// stays bound to that mirror for the rest of its life.
//
// A Client is not safe for concurrent use, the cookie jar backing the
// session is driven by a single token holder issuing calls serially.
type Client struct {
	Http    *resty.Client
	mirrors []string
	base    string
}

type ClientOptions struct {
	// overrides DefaultMirrors when non-empty
	Mirrors []string
	// optional sink for full request/response dumps, see lib/restyutil
	Debug restyutil.InstrumentOutput
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	mirrors := opts.Mirrors
	if len(mirrors) == 0 {
		mirrors = DefaultMirrors
	}

	hosts := make([]string, len(mirrors))
	for i, m := range mirrors {
		link, err := url.Parse(m)
		if err != nil {
			return nil, fmt.Errorf("invalid mirror url %q: %w", m, err)
		}
		hosts[i] = link.Hostname()
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome Safari")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(hosts...))
	client.SetTimeout(time.Second * 30)

	// each instrumentation opens its own span per request, a client
	// carries exactly one of them
	if opts.Debug != nil {
		restyutil.InstrumentClient(client, otel.Tracer("scrapers/karesis/http"), opts.Debug)
	} else {
		telemetry.InstrumentResty(client, "scrapers/karesis/http")
	}

	c := &Client{
		Http:    client,
		mirrors: mirrors,
	}
	return c, nil
}

// BaseUrl returns the mirror the session is bound to, or "" before a
// successful Login.
func (c *Client) BaseUrl() string {
	return c.base
}

func (c *Client) requireBase() (string, error) {
	if c.base == "" {
		return "", ErrNotAuthenticated
	}
	return c.base, nil
}

// Login walks the mirror list in order and binds the client to the first
// mirror that accepts the credentials. Mirrors that fail are skipped; if
// every mirror fails the most specific captured error is returned,
// preferring ErrInvalidCredentials over transport noise.
func (c *Client) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	var credentialErr error
	var upstreamErr error
	for _, base := range c.mirrors {
		err := c.loginMirror(ctx, base, username, password)
		if err == nil {
			c.base = base
			span.SetAttributes(attribute.String("mirror", base))
			return nil
		}

		slog.WarnContext(ctx, "login attempt failed", "mirror", base, "err", err)
		if errors.Is(err, ErrInvalidCredentials) {
			credentialErr = err
		} else {
			upstreamErr = err
		}
	}

	if credentialErr != nil {
		span.SetStatus(codes.Error, credentialErr.Error())
		return credentialErr
	}
	if upstreamErr != nil {
		span.SetStatus(codes.Error, upstreamErr.Error())
		return upstreamErr
	}
	span.SetStatus(codes.Error, ErrLoginFailed.Error())
	return ErrLoginFailed
}

func (c *Client) loginMirror(ctx context.Context, base, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:loginMirror")
	defer span.End()
	span.SetAttributes(attribute.String("mirror", base))

	res, err := c.Http.R().
		SetContext(ctx).
		Get(base + "/login")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch login page")
		return err
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "bad status on login page")
		return fmt.Errorf("%w: login page returned %d", ErrBadStatus, res.StatusCode())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse login page html")
		return err
	}

	csrf := doc.Find(`input[name="_token"]`).AttrOr("value", "")
	if csrf == "" {
		span.SetStatus(codes.Error, ErrCsrfTokenNotFound.Error())
		return ErrCsrfTokenNotFound
	}

	res, err = c.Http.R().
		SetContext(ctx).
		SetHeader("Referer", base+"/login").
		SetFormData(map[string]string{
			"_token":      csrf,
			"register_no": username,
			"password":    password,
			"remember":    "1",
		}).
		Post(base + "/login")
	if err != nil {
		span.SetStatus(codes.Error, "failed to make login request")
		return err
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, "bad status on login post")
		return fmt.Errorf("%w: login post returned %d", ErrBadStatus, res.StatusCode())
	}

	// some mirrors render the landing page straight from the login
	// redirect, others need an explicit fetch of the portal home
	body := res.String()
	if !strings.Contains(body, loggedInMarker) {
		res, err = c.Http.R().
			SetContext(ctx).
			Get(base + "/")
		if err != nil {
			span.SetStatus(codes.Error, "failed to fetch home after login")
			return err
		}
		body = res.String()
	}

	if !strings.Contains(body, loggedInMarker) {
		span.SetStatus(codes.Error, ErrInvalidCredentials.Error())
		return ErrInvalidCredentials
	}
	return nil
}

func (c *Client) getJsonList(ctx context.Context, link string) ([]map[string]any, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrBadStatus, link, res.StatusCode())
	}
	var listing jsonListing
	err = json.Unmarshal(res.Body(), &listing)
	if err != nil {
		return nil, fmt.Errorf("unexpected response shape from %s: %w", link, err)
	}
	if listing.Data == nil {
		// mirror the portal's "data or empty" semantics
		return []map[string]any{}, nil
	}
	return listing.Data, nil
}

// the portal's json endpoints all wrap their payload in a `data` list
type jsonListing struct {
	Data []map[string]any `json:"data"`
}
