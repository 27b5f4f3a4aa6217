package togglesync

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/idilsaglam/themenu/internal/client"
	"github.com/idilsaglam/themenu/internal/model"
)

// Binding is the set of controls on a page that one Bind call attached to.
type Binding struct {
	s        *Syncer
	spec     KindSpec
	controls []*goquery.Selection
}

// Bind attaches every element under root matching selector as a control of
// the given kind. The kind and each element's metadata are checked here, so
// a later Change only fails on an out-of-range index.
func (s *Syncer) Bind(root *goquery.Selection, selector string, kind model.Kind) (*Binding, error) {
	spec, err := s.reg.Lookup(kind)
	if err != nil {
		return nil, err
	}
	b := &Binding{s: s, spec: spec}
	seen := map[string]int{}
	var bindErr error
	root.Find(selector).EachWithBreak(func(i int, el *goquery.Selection) bool {
		t, err := spec.Extract(el)
		if err != nil {
			bindErr = err
			return false
		}
		if prev, dup := seen[t.Key()]; dup {
			bindErr = fmt.Errorf("%w: elements %d and %d (%s)", ErrDuplicateTarget, prev, i, t.Key())
			return false
		}
		seen[t.Key()] = i
		b.controls = append(b.controls, el)
		return true
	})
	if bindErr != nil {
		return nil, fmt.Errorf("bind %q: %w", selector, bindErr)
	}
	s.log.Debug("bound controls", "selector", selector, "kind", kind, "count", len(b.controls))
	return b, nil
}

func (b *Binding) Kind() model.Kind { return b.spec.Kind }

func (b *Binding) Len() int { return len(b.controls) }

// Target extracts the target of control i from its current metadata.
func (b *Binding) Target(i int) (model.ToggleTarget, error) {
	el, err := b.control(i)
	if err != nil {
		return model.ToggleTarget{}, err
	}
	return b.spec.Extract(el)
}

func (b *Binding) Checked(i int) bool {
	el, err := b.control(i)
	if err != nil {
		return false
	}
	_, ok := el.Attr("checked")
	return ok
}

// Change is the change handler of control i: it records the new state on the
// element and sends exactly one update.
func (b *Binding) Change(i int, checked bool) (*client.Future, error) {
	el, err := b.control(i)
	if err != nil {
		return nil, err
	}
	if checked {
		el.SetAttr("checked", "checked")
	} else {
		el.RemoveAttr("checked")
	}
	t, err := b.spec.Extract(el)
	if err != nil {
		return nil, err
	}
	return b.s.Sync(t, model.ToggleState(checked)), nil
}

// Toggle flips control i, as a click on the checkbox would.
func (b *Binding) Toggle(i int) (*client.Future, error) {
	return b.Change(i, !b.Checked(i))
}

func (b *Binding) control(i int) (*goquery.Selection, error) {
	if i < 0 || i >= len(b.controls) {
		return nil, fmt.Errorf("control index out of range: have %d, got %d", len(b.controls), i)
	}
	return b.controls[i], nil
}
