package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind names a family of persistable toggles.
type Kind string

const (
	KindDishAttribute Kind = "dish-attribute"
	KindGroceryItem   Kind = "grocery-item"
)

func (k Kind) Valid() bool {
	return k == KindDishAttribute || k == KindGroceryItem
}

// ID is an opaque identifier rendered by the server. Numeric ids go out on
// the wire as JSON numbers, anything else as a string.
type ID string

func (id ID) String() string { return string(id) }

func (id ID) MarshalJSON() ([]byte, error) {
	s := strings.TrimSpace(string(id))
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// ToggleState is the checked state of a control at interaction time.
type ToggleState bool

// ToggleTarget identifies one persistable boolean fact on the server.
// MealID and Attribute are only used by dish attributes, GroceryType only by
// grocery items.
type ToggleTarget struct {
	Kind        Kind
	EntityID    ID
	MealID      ID
	Attribute   string
	GroceryType string
}

// Key returns the tuple that maps the target to its remote resource.
func (t ToggleTarget) Key() string {
	parts := []string{string(t.Kind), string(t.EntityID)}
	if t.Kind == KindDishAttribute {
		parts = append(parts, string(t.MealID), t.Attribute)
	}
	return strings.Join(parts, "|")
}

// CourseUpdate is the body of POST /courseupdate/.
type CourseUpdate struct {
	DishID    ID     `json:"dishId"`
	MealID    ID     `json:"mealId"`
	Attribute string `json:"attribute"`
	Checked   bool   `json:"checked"`
}

// GroceryUpdate is the body of POST /groceryupdate/.
type GroceryUpdate struct {
	GroceryID   ID     `json:"groceryId"`
	GroceryType string `json:"groceryType"`
	Checked     bool   `json:"checked"`
}
