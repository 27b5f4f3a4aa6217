package checklist

import (
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/idilsaglam/themenu/internal/client"
	"github.com/idilsaglam/themenu/internal/model"
	"github.com/idilsaglam/themenu/internal/togglesync"
)

const groceryPage = `<html><body>
<ul class="list-group checked-list-box">
  <li class="list-group-item" data-grocery-id="9" data-grocery-type="produce" data-checked="true">Tomatoes</li>
  <li class="list-group-item" data-grocery-id="10" data-grocery-type="random">Paper towels
    <div class="dropdown"><button type="button" class="btn">...</button></div>
  </li>
</ul>
</body></html>`

type synced struct {
	Target model.ToggleTarget
	State  model.ToggleState
}

type recSyncer struct {
	mu    sync.Mutex
	calls []synced
}

func (r *recSyncer) Sync(t model.ToggleTarget, s model.ToggleState) *client.Future {
	r.mu.Lock()
	r.calls = append(r.calls, synced{t, s})
	r.mu.Unlock()
	return client.Resolved(client.Result{StatusCode: 200}, nil)
}

func newWidget(t *testing.T) (*Widget, *recSyncer, *goquery.Document) {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(groceryPage))
	if err != nil {
		t.Fatal(err)
	}
	rs := &recSyncer{}
	w, err := New(doc.Selection, "", togglesync.GroceryItemSpec(), rs)
	if err != nil {
		t.Fatal(err)
	}
	return w, rs, doc
}

func TestInitialState(t *testing.T) {
	w, _, doc := newWidget(t)
	if w.Len() != 2 {
		t.Fatalf("len = %d", w.Len())
	}
	if !w.Item(0).Checked() || w.Item(1).Checked() {
		t.Fatalf("initial states = %v, %v", w.Item(0).Checked(), w.Item(1).Checked())
	}
	if got := doc.Find(`li input[type="checkbox"].hidden`).Length(); got != 2 {
		t.Fatalf("proxies = %d, want 2", got)
	}
	first := doc.Find("li").First()
	if !first.HasClass(classActive) || first.Find("span.state-icon.glyphicon-check").Length() != 1 {
		t.Fatal("checked entry not rendered as active")
	}
	if w.Item(1).Text != "Paper towels" {
		t.Fatalf("text = %q", w.Item(1).Text)
	}
}

func TestClickTogglesOncePerClick(t *testing.T) {
	w, rs, doc := newWidget(t)
	w.Click(0, OriginItem)
	w.Click(0, OriginItem)
	w.Click(0, OriginItem)
	if w.Item(0).Checked() {
		t.Fatal("three clicks on a checked entry should leave it unchecked")
	}
	if doc.Find("li").First().HasClass(classActive) {
		t.Fatal("active class not removed")
	}
	want := []synced{
		{model.ToggleTarget{Kind: model.KindGroceryItem, EntityID: "9", GroceryType: "produce"}, false},
		{model.ToggleTarget{Kind: model.KindGroceryItem, EntityID: "9", GroceryType: "produce"}, true},
		{model.ToggleTarget{Kind: model.KindGroceryItem, EntityID: "9", GroceryType: "produce"}, false},
	}
	if diff := cmp.Diff(want, rs.calls); diff != "" {
		t.Fatalf("syncs mismatch (-want +got):\n%s", diff)
	}
}

func TestClickIgnoredOnButtonOrOpenDropdown(t *testing.T) {
	w, rs, _ := newWidget(t)
	if f := w.Click(1, OriginButton); f != nil {
		t.Fatal("button click returned a future")
	}
	w.SetDropdown(1, true)
	w.Click(1, OriginItem)
	if w.Item(1).Checked() || len(rs.calls) != 0 {
		t.Fatalf("state changed while ignored: checked=%v syncs=%d", w.Item(1).Checked(), len(rs.calls))
	}
	w.SetDropdown(1, false)
	w.Click(1, OriginItem)
	if !w.Item(1).Checked() || len(rs.calls) != 1 {
		t.Fatalf("click after closing dropdown: checked=%v syncs=%d", w.Item(1).Checked(), len(rs.calls))
	}
}

func TestDropdownOnEntryWithoutOne(t *testing.T) {
	w, _, _ := newWidget(t)
	w.SetDropdown(0, true)
	if !w.Item(0).DropdownOpen() {
		t.Fatal("dropdown not opened")
	}
	w.Click(0, OriginItem)
	if !w.Item(0).Checked() {
		t.Fatal("click should be ignored while the dropdown is open")
	}
}

func TestNewRejectsEntryWithoutMetadata(t *testing.T) {
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(
		`<ul class="list-group checked-list-box"><li class="list-group-item">Milk</li></ul>`))
	if _, err := New(doc.Selection, "", togglesync.GroceryItemSpec(), nil); err == nil {
		t.Fatal("expected error for entry without grocery id")
	}
}

func keyMsg(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelKeys(t *testing.T) {
	w, rs, _ := newWidget(t)
	var m tea.Model = NewModel(w, "Groceries")
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	m, _ = m.Update(keyMsg(" "))
	if w.Item(0).Checked() {
		t.Fatal("space should uncheck the first entry")
	}
	m, _ = m.Update(keyMsg("b"))
	if w.Item(0).Checked() {
		t.Fatal("button click must not toggle")
	}
	m, _ = m.Update(keyMsg("m"))
	m, _ = m.Update(keyMsg(" "))
	if w.Item(0).Checked() {
		t.Fatal("click with menu open must not toggle")
	}
	if len(rs.calls) != 1 {
		t.Fatalf("syncs = %d, want 1", len(rs.calls))
	}
	if v := m.View(); !strings.Contains(v, "Tomatoes") {
		t.Fatalf("view missing entry:\n%s", v)
	}
	if _, cmd := m.Update(keyMsg("q")); cmd == nil {
		t.Fatal("q should quit")
	}
}
