// Package search handles the dish search box.
package search

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/idilsaglam/themenu/internal/model"
)

const Path = "/dishes/search"

// Submission is the outcome of submitting the search form. The form's own
// submission is always suppressed; Navigate says whether to go to URL.
type Submission struct {
	PreventDefault bool
	Navigate       bool
	URL            string
}

func Submit(text string) Submission {
	s := Submission{PreventDefault: true}
	if strings.TrimSpace(text) == "" {
		return s
	}
	s.Navigate = true
	s.URL = Path + "?" + Query(text).Encode()
	return s
}

// Query is the query string of a search for text.
func Query(text string) url.Values {
	return url.Values{"text": {text}}
}

// Dish is one hit on the search results page.
type Dish struct {
	ID   model.ID
	Name string
	Href string
}

// Results reads the hits off a search results page. Entries are elements
// carrying data-dish-id; the first link inside supplies the href.
func Results(doc *goquery.Document) []Dish {
	var out []Dish
	doc.Find("[data-dish-id]").Each(func(_ int, el *goquery.Selection) {
		id, _ := el.Attr("data-dish-id")
		d := Dish{
			ID:   model.ID(strings.TrimSpace(id)),
			Name: strings.Join(strings.Fields(el.Text()), " "),
		}
		if a := el.Find("a[href]").First(); a.Length() > 0 {
			d.Href, _ = a.Attr("href")
			d.Name = strings.Join(strings.Fields(a.Text()), " ")
		} else if goquery.NodeName(el) == "a" {
			d.Href, _ = el.Attr("href")
		}
		out = append(out, d)
	})
	return out
}
