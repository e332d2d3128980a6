package billfetch

import "strings"

// Link is a candidate document link found on a page.
type Link struct {
	URL     string // absolute
	Text    string
	Title   string
	Visible bool

	// Path locates the element within the page it was found on.
	Path string
}

// Label returns the title attribute if present, else the link text.
func (l Link) Label() string {
	if l.Title != "" {
		return l.Title
	}
	return l.Text
}

// LinkStrategy is one heuristic for locating document links on a page.
type LinkStrategy interface {
	// FindLinks parses HTML and returns candidate links in document order.
	// The baseURL is used to resolve relative URLs.
	FindLinks(html string, baseURL string) ([]Link, error)

	// Name returns the strategy's identifier.
	Name() string
}

// Resolution is the outcome of ResolveLinks. Strategy is empty when no
// strategy found anything. Failed holds the errors of strategies that
// could not be evaluated, keyed by strategy name.
type Resolution struct {
	Strategy string
	Links    []Link
	Failed   map[string]error
}

// Found reports whether a strategy produced links.
func (r Resolution) Found() bool {
	return len(r.Links) > 0
}

// Denylist excludes links that must never be treated as documents.
type Denylist struct {
	// HrefTerms are matched against the lower-cased URL.
	HrefTerms []string

	// Terms are matched against the lower-cased URL, text and title.
	Terms []string
}

// DefaultDenylist excludes session-termination links and recap documents,
// which portals list next to invoices but which are not downloadable bills.
var DefaultDenylist = Denylist{
	HrefTerms: []string{"logout", "deconnexion", "déconnexion", "signout", "sign-out"},
	Terms:     []string{"récapitulatif", "recapitulatif", "recap"},
}

// Excludes reports whether the link is denied.
func (d Denylist) Excludes(l Link) bool {
	href := strings.ToLower(l.URL)
	for _, t := range d.HrefTerms {
		if strings.Contains(href, t) {
			return true
		}
	}
	combined := strings.ToLower(l.Title + " " + l.Text + " " + l.URL)
	for _, t := range d.Terms {
		if strings.Contains(combined, t) {
			return true
		}
	}
	return false
}

// ResolveLinks evaluates strategies in order and returns the links of the
// first strategy that yields at least one visible, non-excluded link.
// Links are deduplicated by URL. Later strategies are not evaluated once
// one succeeds. A strategy that fails counts as finding nothing.
func ResolveLinks(strategies []LinkStrategy, html, baseURL string, deny Denylist) Resolution {
	var res Resolution
	for _, s := range strategies {
		links, err := s.FindLinks(html, baseURL)
		if err != nil {
			if res.Failed == nil {
				res.Failed = make(map[string]error)
			}
			res.Failed[s.Name()] = err
			continue
		}

		seen := make(map[string]bool)
		var kept []Link
		for _, l := range links {
			if !l.Visible || !isDocumentHref(l.URL) || deny.Excludes(l) {
				continue
			}
			if seen[l.URL] {
				continue
			}
			seen[l.URL] = true
			kept = append(kept, l)
		}
		if len(kept) > 0 {
			res.Strategy = s.Name()
			res.Links = kept
			return res
		}
	}
	return res
}

func isDocumentHref(u string) bool {
	lower := strings.ToLower(strings.TrimSpace(u))
	switch {
	case lower == "", strings.HasPrefix(lower, "#"):
		return false
	case strings.HasPrefix(lower, "javascript:"), strings.HasPrefix(lower, "mailto:"), strings.HasPrefix(lower, "tel:"):
		return false
	}
	return true
}
