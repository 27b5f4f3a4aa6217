// Package ingredients implements the repeatable "add ingredient" form rows.
package ingredients

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var ErrNoTemplate = errors.New("no ingredient row to clone")

const (
	DefaultRowPrefix  = "ingredient-row-"
	DefaultSelect     = "select.rich-select"
	containerClass    = "rich-select-container"
	initializedMarker = "data-rich-select"
)

var suffix = regexp.MustCompile(`-\d+$`)

type Options struct {
	// RowPrefix is the id prefix of a row; the rest of the id is its number.
	RowPrefix string
	// Select matches the rich-select controls inside a row.
	Select string
}

// Form tracks the ingredient rows of one form.
type Form struct {
	root *goquery.Selection
	opts Options
	last int
}

// NewForm finds the existing rows under root and initializes their
// rich-select controls.
func NewForm(root *goquery.Selection, opts Options) (*Form, error) {
	if opts.RowPrefix == "" {
		opts.RowPrefix = DefaultRowPrefix
	}
	if opts.Select == "" {
		opts.Select = DefaultSelect
	}
	f := &Form{root: root, opts: opts, last: -1}
	rows := f.Rows()
	if rows.Length() == 0 {
		return nil, ErrNoTemplate
	}
	rows.Each(func(_ int, row *goquery.Selection) {
		if n, ok := f.rowNumber(row); ok && n > f.last {
			f.last = n
		}
		f.initRichSelects(row)
	})
	return f, nil
}

// Rows returns the rows in document order.
func (f *Form) Rows() *goquery.Selection {
	return f.root.Find(`[id^="` + f.opts.RowPrefix + `"]`).FilterFunction(func(_ int, s *goquery.Selection) bool {
		_, ok := f.rowNumber(s)
		return ok
	})
}

// AddRow clones the first row as a template, numbers it one past the highest
// row so far, inserts it after the last row and returns its id.
func (f *Form) AddRow() (string, error) {
	rows := f.Rows()
	if rows.Length() == 0 {
		return "", ErrNoTemplate
	}
	n := f.last + 1
	id := f.opts.RowPrefix + strconv.Itoa(n)

	clone := rows.First().Clone()
	clone.SetAttr("id", id)
	clone.Find("." + containerClass).Remove()
	clone.Find("[id],[name],[for]").Each(func(_ int, el *goquery.Selection) {
		for _, attr := range []string{"id", "name", "for"} {
			if v, ok := el.Attr(attr); ok {
				el.SetAttr(attr, renumber(v, n))
			}
		}
	})
	clearValues(clone)

	rows.Last().AfterSelection(clone)
	row := f.root.Find("#" + id)
	if row.Length() != 1 {
		return "", fmt.Errorf("inserted row %s not found", id)
	}
	f.initRichSelects(row)
	f.last = n
	return id, nil
}

// RichSelectCount counts the active rich-select containers in row.
func (f *Form) RichSelectCount(row *goquery.Selection) int {
	return row.Find("." + containerClass).Length()
}

func (f *Form) HTML() (string, error) {
	return goquery.OuterHtml(f.root)
}

// initRichSelects attaches one container to every control in row, dropping
// any stale container first.
func (f *Form) initRichSelects(row *goquery.Selection) {
	row.Find(f.opts.Select).Each(func(_ int, sel *goquery.Selection) {
		id, _ := sel.Attr("id")
		sel.SiblingsFiltered("." + containerClass).FilterFunction(func(_ int, c *goquery.Selection) bool {
			forID, _ := c.Attr("data-for")
			return forID == id
		}).Remove()
		source, _ := sel.Attr("data-source")
		sel.AfterHtml(fmt.Sprintf(`<span class="%s" data-for="%s" data-source="%s"></span>`,
			containerClass, escapeAttr(id), escapeAttr(source)))
		sel.SetAttr(initializedMarker, "initialized")
	})
}

func (f *Form) rowNumber(row *goquery.Selection) (int, bool) {
	id, _ := row.Attr("id")
	if !strings.HasPrefix(id, f.opts.RowPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, f.opts.RowPrefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func renumber(v string, n int) string {
	if suffix.MatchString(v) {
		return suffix.ReplaceAllString(v, "-"+strconv.Itoa(n))
	}
	return v
}

func clearValues(row *goquery.Selection) {
	row.Find("input").Each(func(_ int, in *goquery.Selection) {
		switch t, _ := in.Attr("type"); t {
		case "hidden", "submit", "button":
		case "checkbox", "radio":
			in.RemoveAttr("checked")
		default:
			in.RemoveAttr("value")
		}
	})
	row.Find("textarea").SetText("")
	row.Find("option[selected]").RemoveAttr("selected")
	row.Find("select").RemoveAttr(initializedMarker)
}

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", `<`, "&lt;", `>`, "&gt;")

func escapeAttr(s string) string { return attrEscaper.Replace(s) }
