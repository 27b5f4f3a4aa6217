package client

import (
	"net/http"

	"github.com/google/uuid"
)

const (
	HeaderCSRF      = "X-CSRFToken"
	HeaderRequestID = "X-Request-ID"
)

// csrfTransport stamps every outgoing request with a request id and adds the
// anti-forgery header to same-origin, state-changing requests.
type csrfTransport struct {
	base http.RoundTripper
	cctx Context
}

func newCSRFTransport(base http.RoundTripper, cctx Context) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &csrfTransport{base: base, cctx: cctx}
}

func (t *csrfTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	if r.Header.Get(HeaderRequestID) == "" {
		r.Header.Set(HeaderRequestID, uuid.NewString())
	}
	if !CSRFSafeMethod(r.Method) && t.cctx.SameOrigin(r.URL) && t.cctx.Token != "" {
		r.Header.Set(HeaderCSRF, t.cctx.Token)
	}
	return t.base.RoundTrip(r)
}
