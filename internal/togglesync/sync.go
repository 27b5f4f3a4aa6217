// Package togglesync turns checkbox changes into fire-and-forget state
// updates on the server.
//
// Delivery is at most once: a failed request is not retried and the control
// keeps its new state. Callers that care can inspect the returned future,
// but nothing in the UI does.
package togglesync

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/idilsaglam/themenu/internal/client"
	"github.com/idilsaglam/themenu/internal/model"
)

// Poster sends a JSON body in the background.
type Poster interface {
	PostJSON(path string, body any) *client.Future
}

type Syncer struct {
	post Poster
	reg  *Registry
	log  *slog.Logger

	// completions tracks the goroutines that log each request's outcome.
	completions sync.WaitGroup
}

// New builds a Syncer. A nil registry means DefaultRegistry, a nil logger
// discards.
func New(p Poster, reg *Registry, logger *slog.Logger) *Syncer {
	if reg == nil {
		reg = DefaultRegistry()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Syncer{post: p, reg: reg, log: logger}
}

func (s *Syncer) Registry() *Registry { return s.reg }

// Sync posts one state update for t and returns without waiting.
func (s *Syncer) Sync(t model.ToggleTarget, state model.ToggleState) *client.Future {
	spec, err := s.reg.Lookup(t.Kind)
	if err != nil {
		return client.Failed(err)
	}
	log := s.log.With("kind", t.Kind, "id", t.EntityID.String())
	if t.Kind == model.KindDishAttribute {
		log = log.With("meal", t.MealID.String(), "attribute", t.Attribute)
	}
	log.Debug("toggled", "checked", bool(state))

	f := s.post.PostJSON(spec.Endpoint, spec.Body(t, state))
	s.completions.Add(1)
	go func() {
		defer s.completions.Done()
		res, err := f.Wait(context.Background())
		if err != nil {
			log.Debug("toggle not persisted", "err", err)
			return
		}
		log.Info("toggle persisted", "endpoint", spec.Endpoint, "request_id", res.RequestID)
	}()
	return f
}

// Drain waits until the outcome of every request sent through Sync has been
// logged, or ctx ends.
func (s *Syncer) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.completions.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
