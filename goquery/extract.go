// Package goquery finds candidate document links in rendered HTML.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/billfetch"
)

// hrefAttrs are the attributes a link target is read from, in order.
var hrefAttrs = []string{"href", "data-href", "data-url", "data-pdf-url"}

// extract returns a link for every element of sel with a usable target.
// Links are returned in document order; duplicates are kept for the
// resolver to collapse.
func extract(base *url.URL, sel *goquery.Selection, attrs []string) []billfetch.Link {
	var links []billfetch.Link
	sel.Each(func(_ int, s *goquery.Selection) {
		href := firstAttr(s, attrs)
		if href == "" || isNonHTTPLink(href) {
			return
		}
		resolved := resolveURL(base, href)
		if resolved == "" {
			return
		}
		title, _ := s.Attr("title")
		links = append(links, billfetch.Link{
			URL:     resolved,
			Text:    strings.Join(strings.Fields(s.Text()), " "),
			Title:   strings.TrimSpace(title),
			Visible: isVisible(s),
			Path:    cssPath(s),
		})
	})
	return links
}

func parse(html, baseURL string) (*goquery.Document, *url.URL, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, nil, billfetch.Errorf(billfetch.EINVALID, "invalid base URL: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, billfetch.Errorf(billfetch.EINVALID, "failed to parse HTML: %v", err)
	}
	return doc, base, nil
}

func firstAttr(s *goquery.Selection, attrs []string) string {
	for _, a := range attrs {
		if v, ok := s.Attr(a); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// resolveURL resolves a relative URL against a base URL. The fragment is
// dropped.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	u := base.ResolveReference(ref)
	u.Fragment = ""
	return u.String()
}

// isNonHTTPLink reports whether href is a fragment or script pseudo-link.
func isNonHTTPLink(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "#") ||
		strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:")
}
