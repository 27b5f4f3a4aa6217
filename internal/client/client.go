package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

const DefaultTimeout = 10 * time.Second

// Client issues requests against the meal-planning server on behalf of the UI.
type Client struct {
	cctx     Context
	hc       *http.Client
	log      *slog.Logger
	inflight sync.WaitGroup
}

// New wraps hc (nil for a default client) with the anti-forgery transport.
// When hc has no cookie jar, one holding the token under DefaultCookieName
// is added so the cookie travels with the header. logger may be nil.
func New(cctx Context, hc *http.Client, logger *slog.Logger) *Client {
	c := http.Client{Timeout: DefaultTimeout}
	if hc != nil {
		c = *hc
	}
	if c.Jar == nil && cctx.BaseURL != nil {
		if jar, err := NewJar(cctx.BaseURL, map[string]string{DefaultCookieName: cctx.Token}); err == nil {
			c.Jar = jar
		}
	}
	c.Transport = newCSRFTransport(c.Transport, cctx)
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{cctx: cctx, hc: &c, log: logger}
}

func (c *Client) Context() Context { return c.cctx }

// PostJSON sends body to path in the background and returns at once. A
// non-2xx answer or transport error completes the future with ErrDelivery.
func (c *Client) PostJSON(path string, body any) *Future {
	b, err := json.Marshal(body)
	if err != nil {
		return failedFuture(fmt.Errorf("encode body: %w", err))
	}
	u := c.cctx.Resolve(path, nil)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, u.String(), bytes.NewReader(b))
	if err != nil {
		return failedFuture(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	rid := uuid.NewString()
	req.Header.Set(HeaderRequestID, rid)

	f := newFuture()
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		res, err := c.do(req)
		res.RequestID = rid
		f.complete(res, err)
	}()
	return f
}

func (c *Client) do(req *http.Request) (Result, error) {
	resp, err := c.hc.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s %s: %w", ErrDelivery, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	res := Result{StatusCode: resp.StatusCode}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return res, fmt.Errorf("%w: %s %s: status %d", ErrDelivery, req.Method, req.URL.Path, resp.StatusCode)
	}
	return res, nil
}

// Drain waits for every request started by PostJSON to finish. A CLI calls
// it before exiting so fire-and-forget requests are not cut off.
func (c *Client) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Page performs a full-page GET and parses the returned HTML.
func (c *Client) Page(ctx context.Context, path string, query url.Values) (*goquery.Document, error) {
	u := c.cctx.Resolve(path, query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", u.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get %s: status %d", u.Path, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", u.Path, err)
	}
	c.log.Debug("page loaded", "path", u.Path, "query", u.RawQuery)
	return doc, nil
}
