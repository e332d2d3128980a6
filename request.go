package billfetch

import "time"

// RunRequest describes one download run for a single provider.
type RunRequest struct {
	ProviderID string `json:"provider"`

	// Max caps the number of newly downloaded files.
	Max int `json:"maxInvoices"`

	Year   *int       `json:"year,omitempty"`
	Month  *int       `json:"month,omitempty"`
	Months []int      `json:"months,omitempty"`
	Start  *time.Time `json:"dateStart,omitempty"`
	End    *time.Time `json:"dateEnd,omitempty"`

	SecondFactorCode string `json:"-"`

	// ForceRedownload bypasses the registry check. The new download is
	// still recorded.
	ForceRedownload bool `json:"forceRedownload"`
}

// Validate returns an error if the request contains invalid fields.
func (r *RunRequest) Validate() error {
	if r.ProviderID == "" {
		return Errorf(EINVALID, "provider required")
	}
	if r.Max < 1 {
		return Errorf(EINVALID, "max invoices must be at least 1, got %d", r.Max)
	}
	if r.Month != nil && (*r.Month < 1 || *r.Month > 12) {
		return Errorf(EINVALID, "month must be between 1 and 12, got %d", *r.Month)
	}
	for _, m := range r.Months {
		if m < 1 || m > 12 {
			return Errorf(EINVALID, "months must be between 1 and 12, got %d", m)
		}
	}
	if (r.Start == nil) != (r.End == nil) {
		return Errorf(EINVALID, "date range requires both start and end")
	}
	if r.Start != nil && r.Start.After(*r.End) {
		return Errorf(EINVALID, "date range start %s is after end %s",
			r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))
	}
	return nil
}

// Filter returns the date filter described by the request.
func (r *RunRequest) Filter() DateFilter {
	return DateFilter{
		Year:   r.Year,
		Month:  r.Month,
		Months: r.Months,
		Start:  r.Start,
		End:    r.End,
	}
}

// RunResult is the outcome of a successful run.
type RunResult struct {
	Count int      `json:"count"`
	Files []string `json:"files"`
}

// DateFilter selects documents by their resolved month.
//
// An inclusive Start/End range takes precedence over everything else.
// Otherwise Year with a Months set matches (year, month) pairs in the set.
// Otherwise Year and Month are independent equality constraints, applied
// only when present. Documents without a date never match an active filter.
type DateFilter struct {
	Year   *int
	Month  *int
	Months []int
	Start  *time.Time
	End    *time.Time
}

// Active reports whether any date constraint is set.
func (f DateFilter) Active() bool {
	return f.Year != nil || f.Month != nil || len(f.Months) > 0 || f.Start != nil || f.End != nil
}

// Match reports whether the document satisfies the filter.
func (f DateFilter) Match(doc *Document) bool {
	if !f.Active() {
		return true
	}
	if doc.Date == nil {
		return false
	}

	if f.Start != nil || f.End != nil {
		t := doc.Date.Time()
		if f.Start != nil && t.Before(truncateDay(*f.Start)) {
			return false
		}
		if f.End != nil && t.After(truncateDay(*f.End)) {
			return false
		}
		return true
	}

	if f.Year != nil && len(f.Months) > 0 {
		if doc.Date.Year != *f.Year {
			return false
		}
		for _, m := range f.Months {
			if int(doc.Date.Month) == m {
				return true
			}
		}
		return false
	}

	if f.Year != nil && doc.Date.Year != *f.Year {
		return false
	}
	if f.Month != nil && int(doc.Date.Month) != *f.Month {
		return false
	}
	if f.Year == nil && len(f.Months) > 0 {
		for _, m := range f.Months {
			if int(doc.Date.Month) == m {
				return true
			}
		}
		return false
	}
	return true
}

// Apply returns the documents matching the filter in their original order.
func (f DateFilter) Apply(docs []*Document) []*Document {
	if !f.Active() {
		return docs
	}
	out := make([]*Document, 0, len(docs))
	for _, d := range docs {
		if f.Match(d) {
			out = append(out, d)
		}
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
