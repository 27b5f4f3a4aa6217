package client

import (
	"context"
	"errors"
)

var ErrDelivery = errors.New("delivery failed")

// Result is what a finished request left behind.
type Result struct {
	StatusCode int
	RequestID  string
}

// Future is the handle of an asynchronous request. It cannot cancel the
// request; waiting with a context only bounds how long the caller waits.
type Future struct {
	done chan struct{}
	res  Result
	err  error
}

func newFuture() *Future { return &Future{done: make(chan struct{})} }

func failedFuture(err error) *Future {
	f := newFuture()
	f.complete(Result{}, err)
	return f
}

func (f *Future) complete(res Result, err error) {
	f.res, f.err = res, err
	close(f.done)
}

// Done is closed once the request finished, successfully or not.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the request finishes or ctx ends.
func (f *Future) Wait(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.res, f.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Failed returns a future that already completed with err.
func Failed(err error) *Future { return failedFuture(err) }

// Resolved returns a future that already completed with res and err.
func Resolved(res Result, err error) *Future {
	f := newFuture()
	f.complete(res, err)
	return f
}
