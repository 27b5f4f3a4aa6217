package togglesync

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/idilsaglam/themenu/internal/model"
)

var (
	ErrUnknownKind      = errors.New("unknown toggle kind")
	ErrMissingAttribute = errors.New("missing data attribute")
	ErrDuplicateTarget  = errors.New("two controls share one target")
	ErrInvalidSpec      = errors.New("invalid kind spec")
)

// KindSpec tells ToggleSync how one kind of control maps to the server:
// which data attributes it must carry, how they become a target, and where
// and how the toggle is posted.
type KindSpec struct {
	Kind     model.Kind
	Endpoint string
	Required []string
	Target   func(attrs map[string]string) model.ToggleTarget
	Body     func(t model.ToggleTarget, state model.ToggleState) any
}

// Extract reads the spec's data attributes off el and builds the target.
func (s KindSpec) Extract(el *goquery.Selection) (model.ToggleTarget, error) {
	attrs := make(map[string]string, len(s.Required))
	for _, name := range s.Required {
		v, ok := el.Attr(name)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			return model.ToggleTarget{}, fmt.Errorf("%w: %s on %s", ErrMissingAttribute, name, describe(el))
		}
		attrs[name] = v
	}
	t := s.Target(attrs)
	t.Kind = s.Kind
	return t, nil
}

func (s KindSpec) validate() error {
	switch {
	case !s.Kind.Valid():
		return fmt.Errorf("%w: kind %q", ErrInvalidSpec, s.Kind)
	case !strings.HasPrefix(s.Endpoint, "/"):
		return fmt.Errorf("%w: %s endpoint %q", ErrInvalidSpec, s.Kind, s.Endpoint)
	case len(s.Required) == 0:
		return fmt.Errorf("%w: %s has no required attributes", ErrInvalidSpec, s.Kind)
	case s.Target == nil || s.Body == nil:
		return fmt.Errorf("%w: %s is missing a mapping", ErrInvalidSpec, s.Kind)
	}
	return nil
}

// Registry is the validated set of kinds a page may bind.
type Registry struct {
	specs map[model.Kind]KindSpec
}

func NewRegistry(specs ...KindSpec) (*Registry, error) {
	r := &Registry{specs: make(map[model.Kind]KindSpec, len(specs))}
	for _, s := range specs {
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.specs[s.Kind]; dup {
			return nil, fmt.Errorf("%w: %s registered twice", ErrInvalidSpec, s.Kind)
		}
		r.specs[s.Kind] = s
	}
	return r, nil
}

func (r *Registry) Lookup(k model.Kind) (KindSpec, error) {
	s, ok := r.specs[k]
	if !ok {
		return KindSpec{}, fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
	return s, nil
}

// DishAttributeSpec covers the per-course checkboxes ("made", "ordered", ...).
func DishAttributeSpec() KindSpec {
	return KindSpec{
		Kind:     model.KindDishAttribute,
		Endpoint: "/courseupdate/",
		Required: []string{"data-dish-id", "data-meal-id", "data-attribute"},
		Target: func(a map[string]string) model.ToggleTarget {
			return model.ToggleTarget{
				EntityID:  model.ID(a["data-dish-id"]),
				MealID:    model.ID(a["data-meal-id"]),
				Attribute: a["data-attribute"],
			}
		},
		Body: func(t model.ToggleTarget, state model.ToggleState) any {
			return model.CourseUpdate{
				DishID:    t.EntityID,
				MealID:    t.MealID,
				Attribute: t.Attribute,
				Checked:   bool(state),
			}
		},
	}
}

// GroceryItemSpec covers grocery list entries.
func GroceryItemSpec() KindSpec {
	return KindSpec{
		Kind:     model.KindGroceryItem,
		Endpoint: "/groceryupdate/",
		Required: []string{"data-grocery-id", "data-grocery-type"},
		Target: func(a map[string]string) model.ToggleTarget {
			return model.ToggleTarget{
				EntityID:    model.ID(a["data-grocery-id"]),
				GroceryType: a["data-grocery-type"],
			}
		},
		Body: func(t model.ToggleTarget, state model.ToggleState) any {
			return model.GroceryUpdate{
				GroceryID:   t.EntityID,
				GroceryType: t.GroceryType,
				Checked:     bool(state),
			}
		},
	}
}

// DefaultRegistry holds the two kinds the server understands.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DishAttributeSpec(), GroceryItemSpec())
	if err != nil {
		panic(err)
	}
	return r
}

func describe(el *goquery.Selection) string {
	name := goquery.NodeName(el)
	if id, ok := el.Attr("id"); ok {
		return name + "#" + id
	}
	if cls, ok := el.Attr("class"); ok {
		return name + "." + strings.Join(strings.Fields(cls), ".")
	}
	return name
}
