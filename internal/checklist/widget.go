// Package checklist is the clickable grocery list: every entry carries a
// hidden checkbox proxy, shows its state through CSS classes, and reports
// each state change for syncing.
package checklist

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/idilsaglam/themenu/internal/client"
	"github.com/idilsaglam/themenu/internal/model"
	"github.com/idilsaglam/themenu/internal/togglesync"
)

const (
	DefaultSelector = ".list-group.checked-list-box .list-group-item"

	classActive    = "list-group-item-primary"
	classIcon      = "state-icon"
	iconChecked    = "glyphicon glyphicon-check"
	iconUnchecked  = "glyphicon glyphicon-unchecked"
	classDropdown  = "dropdown"
	classOpen      = "open"
	checkedDataKey = "data-checked"
)

// Origin is where inside an entry a click landed.
type Origin int

const (
	OriginItem Origin = iota
	OriginButton
)

// Syncer persists a state change.
type Syncer interface {
	Sync(t model.ToggleTarget, state model.ToggleState) *client.Future
}

type Item struct {
	el     *goquery.Selection
	proxy  *goquery.Selection
	icon   *goquery.Selection
	Text   string
	Target model.ToggleTarget
}

func (it *Item) Checked() bool {
	_, ok := it.proxy.Attr("checked")
	return ok
}

func (it *Item) DropdownOpen() bool {
	return it.el.Find("." + classDropdown + "." + classOpen).Length() > 0
}

type Widget struct {
	items []*Item
	sync  Syncer
}

// New builds the widget over every entry matching selector. spec decides
// which data attributes identify an entry; entries missing them are rejected.
func New(root *goquery.Selection, selector string, spec togglesync.KindSpec, s Syncer) (*Widget, error) {
	if selector == "" {
		selector = DefaultSelector
	}
	w := &Widget{sync: s}
	var err error
	root.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		var t model.ToggleTarget
		t, err = spec.Extract(el)
		if err != nil {
			return false
		}
		w.items = append(w.items, newItem(el, t))
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("checked list: %w", err)
	}
	return w, nil
}

func newItem(el *goquery.Selection, t model.ToggleTarget) *Item {
	it := &Item{el: el, Target: t, Text: ownText(el)}

	el.AppendHtml(`<input type="checkbox" class="hidden">`)
	it.proxy = el.ChildrenFiltered(`input[type="checkbox"].hidden`).Last()
	el.PrependHtml(`<span class="` + classIcon + `"></span>`)
	it.icon = el.ChildrenFiltered("span." + classIcon).First()

	if v, _ := el.Attr(checkedDataKey); strings.EqualFold(strings.TrimSpace(v), "true") {
		it.proxy.SetAttr("checked", "checked")
	}
	it.render()
	return it
}

func (it *Item) render() {
	it.icon.RemoveClass(iconChecked, iconUnchecked)
	if it.Checked() {
		it.el.AddClass(classActive)
		it.icon.AddClass(iconChecked)
	} else {
		it.el.RemoveClass(classActive)
		it.icon.AddClass(iconUnchecked)
	}
}

func (w *Widget) Len() int { return len(w.items) }

func (w *Widget) Item(i int) *Item {
	if i < 0 || i >= len(w.items) {
		return nil
	}
	return w.items[i]
}

// Click handles a click on entry i. It flips the entry once and syncs it,
// unless the click hit a nested button or a dropdown in the entry is open.
// The returned future is nil when nothing changed.
func (w *Widget) Click(i int, origin Origin) *client.Future {
	it := w.Item(i)
	if it == nil || origin == OriginButton || it.DropdownOpen() {
		return nil
	}
	checked := !it.Checked()
	if checked {
		it.proxy.SetAttr("checked", "checked")
	} else {
		it.proxy.RemoveAttr("checked")
	}
	it.render()
	if w.sync == nil {
		return nil
	}
	return w.sync.Sync(it.Target, model.ToggleState(checked))
}

// SetDropdown opens or closes the dropdown nested in entry i. Entries
// without one get a bare dropdown element so the state has somewhere to live.
func (w *Widget) SetDropdown(i int, open bool) {
	it := w.Item(i)
	if it == nil {
		return
	}
	dd := it.el.Find("." + classDropdown).First()
	if dd.Length() == 0 {
		it.el.AppendHtml(`<div class="` + classDropdown + `"></div>`)
		dd = it.el.ChildrenFiltered("." + classDropdown).Last()
	}
	if open {
		dd.AddClass(classOpen)
	} else {
		dd.RemoveClass(classOpen)
	}
}

// Stats counts checked and unchecked entries.
func (w *Widget) Stats() (checked, unchecked int) {
	for _, it := range w.items {
		if it.Checked() {
			checked++
		} else {
			unchecked++
		}
	}
	return
}

func ownText(el *goquery.Selection) string {
	var b strings.Builder
	el.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			b.WriteString(c.Text())
		}
	})
	if s := strings.Join(strings.Fields(b.String()), " "); s != "" {
		return s
	}
	return strings.Join(strings.Fields(el.Text()), " ")
}
