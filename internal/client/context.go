package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
)

var (
	ErrNoToken    = errors.New("no anti-forgery token")
	ErrBadBaseURL = errors.New("base url must be absolute http(s)")
)

const (
	// DefaultCookieName is the cookie the server issues the anti-forgery token in.
	DefaultCookieName = "csrftoken"
	SessionCookieName = "sessionid"
)

// Context carries what every request needs: where the server lives and the
// anti-forgery token. It is built once at startup and never mutated.
type Context struct {
	BaseURL *url.URL
	Token   string
}

func NewContext(baseURL, token string) (Context, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return Context{}, fmt.Errorf("parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Context{}, fmt.Errorf("%w: %q", ErrBadBaseURL, baseURL)
	}
	return Context{BaseURL: u, Token: strings.TrimSpace(token)}, nil
}

// Resolve turns a server path (and optional query) into an absolute URL.
func (c Context) Resolve(path string, query url.Values) *url.URL {
	ref := &url.URL{Path: path}
	if len(query) > 0 {
		ref.RawQuery = query.Encode()
	}
	return c.BaseURL.ResolveReference(ref)
}

// SameOrigin reports whether u shares scheme and host with the base URL.
func (c Context) SameOrigin(u *url.URL) bool {
	if c.BaseURL == nil || u == nil {
		return false
	}
	if !u.IsAbs() {
		return true
	}
	return strings.EqualFold(u.Scheme, c.BaseURL.Scheme) && strings.EqualFold(u.Host, c.BaseURL.Host)
}

var safeMethod = regexp.MustCompile(`^(GET|HEAD|OPTIONS|TRACE)$`)

// CSRFSafeMethod reports whether method is exempt from the anti-forgery header.
func CSRFSafeMethod(method string) bool {
	return safeMethod.MatchString(method)
}

// CookieValue reads one cookie out of a "k=v; k2=v2" string. Values are
// percent-decoded; a missing cookie yields "".
func CookieValue(header, name string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	prefix := name + "="
	for _, c := range strings.Split(header, ";") {
		c = strings.TrimSpace(c)
		if !strings.HasPrefix(c, prefix) {
			continue
		}
		raw := c[len(prefix):]
		if v, err := url.PathUnescape(raw); err == nil {
			return v
		}
		return raw
	}
	return ""
}

// NewJar returns a cookie jar that already holds cookies (name to value) for
// base, as a browser that visited the site would. Empty values are skipped.
func NewJar(base *url.URL, cookies map[string]string) (http.CookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	var cs []*http.Cookie
	for name, value := range cookies {
		if value == "" {
			continue
		}
		cs = append(cs, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	if len(cs) > 0 {
		jar.SetCookies(base, cs)
	}
	return jar, nil
}

// Bootstrap loads the base page once so the server issues its anti-forgery
// cookie. It returns a Context holding that token and the jar the cookie
// landed in; requests built on the Context must carry that jar, since the
// server checks the header against the cookie. hc may be nil.
func Bootstrap(ctx context.Context, hc *http.Client, baseURL, cookieName string) (Context, http.CookieJar, error) {
	cctx, err := NewContext(baseURL, "")
	if err != nil {
		return Context{}, nil, err
	}
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	c := http.Client{}
	if hc != nil {
		c = *hc
	}
	if c.Jar == nil {
		jar, err := NewJar(cctx.BaseURL, nil)
		if err != nil {
			return Context{}, nil, err
		}
		c.Jar = jar
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cctx.BaseURL.String(), nil)
	if err != nil {
		return Context{}, nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.Do(req)
	if err != nil {
		return Context{}, nil, fmt.Errorf("load %s: %w", cctx.BaseURL, err)
	}
	resp.Body.Close()

	for _, ck := range c.Jar.Cookies(cctx.BaseURL) {
		if ck.Name == cookieName && ck.Value != "" {
			cctx.Token = ck.Value
			return cctx, c.Jar, nil
		}
	}
	return Context{}, nil, fmt.Errorf("%w: cookie %q not set by %s", ErrNoToken, cookieName, cctx.BaseURL)
}
