package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/billfetch"
)

var (
	_ billfetch.LinkStrategy = (*SelectorStrategy)(nil)
	_ billfetch.LinkStrategy = (*TextStrategy)(nil)
	_ billfetch.LinkStrategy = (*DataAttrStrategy)(nil)
)

// SelectorStrategy returns the elements matching a CSS selector.
type SelectorStrategy struct {
	Selector string
}

// NewSelectorStrategy creates a new SelectorStrategy.
func NewSelectorStrategy(selector string) *SelectorStrategy {
	return &SelectorStrategy{Selector: selector}
}

// Name returns the selector.
func (s *SelectorStrategy) Name() string {
	return "css:" + s.Selector
}

// FindLinks implements billfetch.LinkStrategy.
func (s *SelectorStrategy) FindLinks(html string, baseURL string) ([]billfetch.Link, error) {
	doc, base, err := parse(html, baseURL)
	if err != nil {
		return nil, err
	}
	return extract(base, doc.Find(s.Selector), hrefAttrs), nil
}

// TextStrategy returns anchors whose text, title or href contains one of
// the keywords. Matching is case-insensitive; keywords must be lower case.
type TextStrategy struct {
	Keywords []string
}

// NewTextStrategy creates a new TextStrategy.
func NewTextStrategy(keywords ...string) *TextStrategy {
	return &TextStrategy{Keywords: keywords}
}

// Name returns the strategy's identifier.
func (s *TextStrategy) Name() string {
	return "text:" + strings.Join(s.Keywords, ",")
}

// FindLinks implements billfetch.LinkStrategy.
func (s *TextStrategy) FindLinks(html string, baseURL string) ([]billfetch.Link, error) {
	doc, base, err := parse(html, baseURL)
	if err != nil {
		return nil, err
	}
	matches := doc.Find("a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		title, _ := a.Attr("title")
		haystack := strings.ToLower(a.Text() + " " + title + " " + href)
		for _, k := range s.Keywords {
			if strings.Contains(haystack, k) {
				return true
			}
		}
		return false
	})
	return extract(base, matches, []string{"href"}), nil
}

// DataAttrStrategy returns elements carrying their target in a data
// attribute, as used by script-driven download buttons.
type DataAttrStrategy struct{}

// NewDataAttrStrategy creates a new DataAttrStrategy.
func NewDataAttrStrategy() *DataAttrStrategy {
	return &DataAttrStrategy{}
}

// Name returns the strategy's identifier.
func (s *DataAttrStrategy) Name() string {
	return "data-attr"
}

// FindLinks implements billfetch.LinkStrategy.
func (s *DataAttrStrategy) FindLinks(html string, baseURL string) ([]billfetch.Link, error) {
	doc, base, err := parse(html, baseURL)
	if err != nil {
		return nil, err
	}
	attrs := []string{"data-pdf-url", "data-href", "data-url"}
	return extract(base, doc.Find("[data-pdf-url], [data-href], [data-url]"), attrs), nil
}

// Strategies returns one SelectorStrategy per selector, in order,
// followed by extra strategies.
func Strategies(selectors []string, extra ...billfetch.LinkStrategy) []billfetch.LinkStrategy {
	out := make([]billfetch.LinkStrategy, 0, len(selectors)+len(extra))
	for _, sel := range selectors {
		out = append(out, NewSelectorStrategy(sel))
	}
	return append(out, extra...)
}
