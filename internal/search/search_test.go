package search

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
)

func TestSubmit(t *testing.T) {
	tests := []struct {
		text string
		want Submission
	}{
		{"pasta", Submission{PreventDefault: true, Navigate: true, URL: "/dishes/search?text=pasta"}},
		{"mac & cheese", Submission{PreventDefault: true, Navigate: true, URL: "/dishes/search?text=mac+%26+cheese"}},
		{"", Submission{PreventDefault: true}},
		{"   ", Submission{PreventDefault: true}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, Submit(tt.text)); diff != "" {
			t.Errorf("Submit(%q) mismatch (-want +got):\n%s", tt.text, diff)
		}
	}
}

func TestResults(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
<ul>
  <li data-dish-id="3"><a href="/dishes/3">Pasta  al pomodoro</a> <span>tasty</span></li>
  <a data-dish-id="7" href="/dishes/7">Pasta salad</a>
</ul>`))
	if err != nil {
		t.Fatal(err)
	}
	want := []Dish{
		{ID: "3", Name: "Pasta al pomodoro", Href: "/dishes/3"},
		{ID: "7", Name: "Pasta salad", Href: "/dishes/7"},
	}
	if diff := cmp.Diff(want, Results(doc)); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}
