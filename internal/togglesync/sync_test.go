package togglesync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"

	"github.com/idilsaglam/themenu/internal/client"
	"github.com/idilsaglam/themenu/internal/model"
)

type call struct {
	Path string
	Body any
}

type fakePoster struct {
	mu    sync.Mutex
	calls []call
}

func (p *fakePoster) PostJSON(path string, body any) *client.Future {
	p.mu.Lock()
	p.calls = append(p.calls, call{Path: path, Body: body})
	p.mu.Unlock()
	return client.Resolved(client.Result{StatusCode: http.StatusOK}, nil)
}

const coursePage = `<html><body>
<table>
  <tr><td><input type="checkbox" class="course-checkbox" data-dish-id="5" data-meal-id="2" data-attribute="made"></td></tr>
  <tr><td><input type="checkbox" class="course-checkbox" data-dish-id="5" data-meal-id="2" data-attribute="ordered" checked></td></tr>
</table>
<ul>
  <li><input type="checkbox" class="grocery-checkbox" data-grocery-id="9" data-grocery-type="produce" checked></li>
</ul>
</body></html>`

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestSyncDishAttribute(t *testing.T) {
	p := &fakePoster{}
	s := New(p, nil, nil)
	target := model.ToggleTarget{Kind: model.KindDishAttribute, EntityID: "5", MealID: "2", Attribute: "made"}
	if _, err := s.Sync(target, true).Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := []call{{Path: "/courseupdate/", Body: model.CourseUpdate{DishID: "5", MealID: "2", Attribute: "made", Checked: true}}}
	if diff := cmp.Diff(want, p.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSyncUnknownKind(t *testing.T) {
	p := &fakePoster{}
	s := New(p, nil, nil)
	_, err := s.Sync(model.ToggleTarget{Kind: "meal-comment", EntityID: "1"}, true).Wait(context.Background())
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("err = %v, want ErrUnknownKind", err)
	}
	if len(p.calls) != 0 {
		t.Fatalf("unknown kind issued %d requests", len(p.calls))
	}
}

func TestBindAndChange(t *testing.T) {
	p := &fakePoster{}
	s := New(p, nil, nil)
	doc := mustDoc(t, coursePage)

	courses, err := s.Bind(doc.Selection, ".course-checkbox", model.KindDishAttribute)
	if err != nil {
		t.Fatal(err)
	}
	if courses.Len() != 2 {
		t.Fatalf("bound %d course controls, want 2", courses.Len())
	}
	if courses.Checked(0) || !courses.Checked(1) {
		t.Fatalf("initial states = %v, %v", courses.Checked(0), courses.Checked(1))
	}
	if _, err := courses.Change(0, true); err != nil {
		t.Fatal(err)
	}
	if !courses.Checked(0) {
		t.Fatal("change did not record the checked state")
	}

	groceries, err := s.Bind(doc.Selection, ".grocery-checkbox", model.KindGroceryItem)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := groceries.Toggle(0); err != nil {
		t.Fatal(err)
	}

	want := []call{
		{Path: "/courseupdate/", Body: model.CourseUpdate{DishID: "5", MealID: "2", Attribute: "made", Checked: true}},
		{Path: "/groceryupdate/", Body: model.GroceryUpdate{GroceryID: "9", GroceryType: "produce", Checked: false}},
	}
	if diff := cmp.Diff(want, p.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestBindRejectsMissingMetadata(t *testing.T) {
	s := New(&fakePoster{}, nil, nil)
	doc := mustDoc(t, `<input class="course-checkbox" data-dish-id="5" data-attribute="made">`)
	_, err := s.Bind(doc.Selection, ".course-checkbox", model.KindDishAttribute)
	if !errors.Is(err, ErrMissingAttribute) {
		t.Fatalf("err = %v, want ErrMissingAttribute", err)
	}
}

func TestBindRejectsDuplicateTargets(t *testing.T) {
	s := New(&fakePoster{}, nil, nil)
	doc := mustDoc(t, `
<input class="g" data-grocery-id="9" data-grocery-type="produce">
<input class="g" data-grocery-id="9" data-grocery-type="dairy">`)
	_, err := s.Bind(doc.Selection, ".g", model.KindGroceryItem)
	if !errors.Is(err, ErrDuplicateTarget) {
		t.Fatalf("err = %v, want ErrDuplicateTarget", err)
	}
}

func TestBindRejectsUnknownKind(t *testing.T) {
	s := New(&fakePoster{}, nil, nil)
	if _, err := s.Bind(mustDoc(t, coursePage).Selection, "input", "comment"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("err = %v, want ErrUnknownKind", err)
	}
}

func TestChangeOutOfRange(t *testing.T) {
	s := New(&fakePoster{}, nil, nil)
	b, err := s.Bind(mustDoc(t, coursePage).Selection, ".grocery-checkbox", model.KindGroceryItem)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Change(3, true); err == nil {
		t.Fatal("expected out of range error")
	}
}

func TestNewRegistryValidation(t *testing.T) {
	bad := DishAttributeSpec()
	bad.Endpoint = "courseupdate"
	if _, err := NewRegistry(bad); !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("relative endpoint: err = %v", err)
	}
	if _, err := NewRegistry(GroceryItemSpec(), GroceryItemSpec()); !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("duplicate kind: err = %v", err)
	}
}

// Exercises the whole path against a real server: wire bodies, the
// anti-forgery header, and that failures stay on the future.
func TestSyncOverHTTP(t *testing.T) {
	type got struct {
		Path string
		CSRF string
		Body string
	}
	var (
		mu   sync.Mutex
		reqs []got
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, got{Path: r.URL.Path, CSRF: r.Header.Get(client.HeaderCSRF), Body: string(b)})
		mu.Unlock()
		if r.URL.Path == "/groceryupdate/" {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	cctx, err := client.NewContext(srv.URL, "tok")
	if err != nil {
		t.Fatal(err)
	}
	s := New(client.New(cctx, srv.Client(), nil), nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	course := model.ToggleTarget{Kind: model.KindDishAttribute, EntityID: "5", MealID: "2", Attribute: "made"}
	if _, err := s.Sync(course, true).Wait(ctx); err != nil {
		t.Fatalf("course sync: %v", err)
	}
	grocery := model.ToggleTarget{Kind: model.KindGroceryItem, EntityID: "9", GroceryType: "produce"}
	if _, err := s.Sync(grocery, false).Wait(ctx); !errors.Is(err, client.ErrDelivery) {
		t.Fatalf("grocery sync err = %v, want ErrDelivery", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(reqs) != 2 {
		t.Fatalf("got %d requests, want exactly 2", len(reqs))
	}
	wantBodies := []string{
		`{"dishId":5,"mealId":2,"attribute":"made","checked":true}`,
		`{"groceryId":9,"groceryType":"produce","checked":false}`,
	}
	for i, r := range reqs {
		if r.CSRF != "tok" {
			t.Errorf("%s csrf = %q", r.Path, r.CSRF)
		}
		var a, b any
		_ = json.Unmarshal([]byte(r.Body), &a)
		_ = json.Unmarshal([]byte(wantBodies[i]), &b)
		if diff := cmp.Diff(b, a); diff != "" {
			t.Errorf("%s body mismatch (-want +got):\n%s", r.Path, diff)
		}
	}
}

func TestDrainWaitsForCompletionLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	s := New(&fakePoster{}, nil, logger)

	s.Sync(model.ToggleTarget{Kind: model.KindGroceryItem, EntityID: "9", GroceryType: "produce"}, true)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Drain(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "toggle persisted") {
		t.Fatalf("completion not logged after drain: %q", buf.String())
	}
}
