// Package billfetch downloads billing documents from customer portals that
// expose no public API. It drives a browser session through login and
// two-factor challenges, discovers invoice links on authenticated pages,
// filters them by date, downloads each file once and reports progress as
// an ordered sequence of events.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., rod/, goquery/, sqlite/, resty/).
package billfetch
