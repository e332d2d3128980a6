package billfetch

import "context"

// SessionState is the lifecycle state of a provider session.
type SessionState int

const (
	StateDisconnected SessionState = iota
	StateAuthenticating
	StateAwaitingSecondFactor
	StateAuthenticated
	StateBrowsing
	StateClosed
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateAuthenticating:
		return "authenticating"
	case StateAwaitingSecondFactor:
		return "awaiting_second_factor"
	case StateAuthenticated:
		return "authenticated"
	case StateBrowsing:
		return "browsing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Provider automates one customer portal. Each provider owns exactly one
// browser session; its methods must not be called concurrently.
type Provider interface {
	// ID returns the provider identifier (e.g., "freebox").
	ID() string

	// State returns the current session state.
	State() SessionState

	// Login authenticates the session. It returns false without an error
	// when the credentials are rejected or a second factor is pending. It
	// returns an EUNREACHABLE error when the portal cannot be reached.
	// A non-empty code is submitted if a second factor is requested.
	// Logging in an already authenticated session is a no-op.
	Login(ctx context.Context, secondFactorCode string) (bool, error)

	// SecondFactorRequired reports whether the current page asks for a
	// one-time code. It does not change session state.
	SecondFactorRequired(ctx context.Context) bool

	// SubmitSecondFactor submits a one-time code and reports whether the
	// session is authenticated afterwards.
	SubmitSecondFactor(ctx context.Context, code string) (bool, error)

	// DiscoverDocuments lists the documents reachable from the
	// authenticated session. Zero documents is not an error. Returns
	// ENAVIGATION if the invoice area cannot be reached.
	DiscoverDocuments(ctx context.Context) ([]*Document, error)

	// DownloadDocument downloads and records a document and returns the
	// stored file name. It returns "" without an error when the document
	// was already downloaded (unless force is set) or when the fetched
	// payload fails verification.
	DownloadDocument(ctx context.Context, doc *Document, force bool) (string, error)

	// Close releases the session unless it is configured to stay open.
	Close() error
}

// Diagnoser is implemented by providers that can persist the current page
// for later inspection.
type Diagnoser interface {
	SaveDiagnostics(ctx context.Context, name string) error
}

// DateExtractor resolves the month of a document from its title or URL.
type DateExtractor interface {
	// Extract returns nil when no date can be found.
	Extract(title, url string) *YearMonth
}
