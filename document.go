package billfetch

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// YearMonth is a calendar month. Portals rarely expose the exact issue day
// of an invoice, so documents are dated to the first of their month.
type YearMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// Time returns the first day of the month at midnight UTC.
func (ym YearMonth) Time() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// String returns the month formatted as YYYY-MM.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// ISODate returns the first day of the month formatted as YYYY-MM-DD.
func (ym YearMonth) ISODate() string {
	return ym.Time().Format(time.DateOnly)
}

// ParseYearMonth parses YYYY-MM or YYYY-MM-DD. The day, if any, is dropped.
func ParseYearMonth(s string) (*YearMonth, error) {
	layout := "2006-01"
	if len(s) == len(time.DateOnly) {
		layout = time.DateOnly
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return nil, Errorf(EINVALID, "invalid month %q", s)
	}
	return &YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

// Document is an invoice reference discovered on a portal page. Documents
// are ephemeral: they are rebuilt on every discovery and never persisted.
type Document struct {
	// ID is derived from the URL, so rediscovering the same link yields
	// the same ID.
	ID         string     `json:"id"`
	ProviderID string     `json:"providerId"`
	URL        string     `json:"url"`
	Title      string     `json:"title"`
	Date       *YearMonth `json:"date,omitempty"`

	// Source is the page the link was found on and Path locates the link
	// element within that page. Both are only meaningful inside the
	// browser session that discovered the document.
	Source string `json:"-"`
	Path   string `json:"-"`
}

// Validate returns an error if the document contains invalid fields.
func (d *Document) Validate() error {
	if d.ID == "" {
		return Errorf(EINVALID, "document ID required")
	}
	if d.ProviderID == "" {
		return Errorf(EINVALID, "document provider ID required")
	}
	if d.URL == "" {
		return Errorf(EINVALID, "document URL required")
	}
	return nil
}

// HasDate reports whether at least one document carries a resolved date.
func HasDate(docs []*Document) bool {
	for _, d := range docs {
		if d.Date != nil {
			return true
		}
	}
	return false
}

// DefaultMaxFileNameLen bounds generated file names.
const DefaultMaxFileNameLen = 80

var (
	unsafeIDChars   = regexp.MustCompile(`[^\w\-]`)
	unsafeNameChars = regexp.MustCompile(`[^\w\-.]`)
)

// FileName returns the name a downloaded document is stored under:
// <provider>_<YYYY-MM-DD>_<shortId>.pdf for dated documents and
// <provider>_<id>.pdf otherwise. Characters outside [A-Za-z0-9_.-] are
// replaced with underscores and the name is cut to maxLen, keeping the
// extension. A maxLen <= 0 uses DefaultMaxFileNameLen.
func FileName(providerID string, doc *Document, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxFileNameLen
	}
	const ext = ".pdf"

	var name string
	if doc.Date != nil {
		shortID := unsafeIDChars.ReplaceAllString(doc.ID, "_")
		if len(shortID) > 30 {
			shortID = shortID[:30]
		}
		name = providerID + "_" + doc.Date.ISODate() + "_" + shortID
	} else {
		name = providerID + "_" + doc.ID
	}
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, ".")

	if max := maxLen - len(ext); len(name) > max {
		if max < 1 {
			max = 1
		}
		name = name[:max]
	}
	return name + ext
}

// FileStore persists downloaded files. Names are generated by the caller
// and must be plain file names; implementations reject anything that
// could escape the store directory.
type FileStore interface {
	// Write stores data under name and returns the path it was written to.
	Write(ctx context.Context, name string, data []byte) (string, error)
}
