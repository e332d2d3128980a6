package portal

import (
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// Profile describes how to drive one customer portal: where to log in,
// how to recognise the login form and an expired session, and where
// invoices are listed.
type Profile struct {
	ID    string
	Label string

	// LoginURLs are tried in order until one shows a login form.
	LoginURLs []string

	// BaseURL is prefixed to InvoicePaths.
	BaseURL string

	// Hosts the session must be on to count as logged in.
	Hosts []string

	// LoggedOutMarkers are lower-case page fragments shown only when the
	// session is invalid.
	LoggedOutMarkers []string

	// LoginPromptMarkers are lower-case page fragments that, together with
	// a visible password field, mean the login form is displayed.
	LoginPromptMarkers []string

	LoginSelectors    []string
	LoginXPath        string
	PasswordSelectors []string
	SubmitSelectors   []string

	// SubmitText matches a button by its lower-case text when no submit
	// selector is found.
	SubmitText string

	SecondFactorSelectors       []string
	SecondFactorSubmitSelectors []string

	// InvoicePaths are visited in order during discovery.
	InvoicePaths []string

	// DocumentSelectors are the ranked CSS discovery selectors.
	DocumentSelectors []string

	// DocumentKeywords feed the link text fallback strategy.
	DocumentKeywords []string

	InvoiceTab InvoiceTab

	// ClickFallbackTerms select a link to click when a page shows no
	// documents, matched against its lower-case text and href.
	ClickFallbackTerms []string

	// SubAccounts is set for portals that list invoices per line.
	SubAccounts *SubAccounts
}

// InvoiceTab locates a tab that reveals the invoice list in place.
type InvoiceTab struct {
	// OpenerXPaths are clicked first, when present, to reveal the tab.
	OpenerXPaths []string

	// XPaths are tried in order. The first visible element whose text
	// contains Text and none of Exclude is clicked.
	XPaths  []string
	Text    string
	Exclude []string
}

// Enabled reports whether the profile declares an invoice tab.
func (t InvoiceTab) Enabled() bool {
	return len(t.XPaths) > 0
}

// SubAccounts configures the walk over the lines of a multi-line account.
type SubAccounts struct {
	// AccountPath is the page listing the lines.
	AccountPath string

	// ExpandXPaths reveal the line list when it is collapsed.
	ExpandXPaths []string

	// EntryPattern matches the text of a line entry.
	EntryPattern *regexp.Regexp

	// MaxEntryText rejects long blocks of text containing an entry.
	MaxEntryText int

	// EntryHrefTerms restrict absolute entry links by href.
	EntryHrefTerms []string

	// FallbackSelector is used when no link matches EntryPattern.
	FallbackSelector string
}

// InvoiceURLs returns the invoice page URLs in visiting order.
func (p Profile) InvoiceURLs() []string {
	base := strings.TrimRight(p.BaseURL, "/")
	urls := make([]string, 0, len(p.InvoicePaths))
	for _, path := range p.InvoicePaths {
		urls = append(urls, base+path)
	}
	return urls
}

// OnHost reports whether rawURL belongs to the portal.
func (p Profile) OnHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return slices.Contains(p.Hosts, strings.ToLower(u.Hostname()))
}

var (
	commonLoginSelectors = []string{
		"input[name='login']",
		"input[name='identifiant']",
		"input[id='login']",
		"input[id='identifiant']",
		"input[placeholder*='dentifiant']",
		"input[autocomplete='username']",
	}
	commonPasswordSelectors = []string{
		"input[name='pass']",
		"input[name='password']",
		"input[id='pass']",
		"input[id='password']",
		"input[placeholder*='mot de passe']",
		"input[placeholder*='Password']",
		"input[autocomplete='current-password']",
		"input[type='password']",
	}
	commonSubmitSelectors = []string{
		"input[type='submit'][value*='onnecter']",
		"input[type='submit']",
		"button[type='submit']",
		"a.btn[href*='submit']",
	}
	commonSecondFactorSelectors = []string{
		"input[name*='otp']",
		"input[name*='code']",
		"input[type='tel'][maxlength='6']",
		"input[autocomplete='one-time-code']",
	}
)

// Freebox returns the profile of the Freebox ADSL/fibre subscriber portal.
func Freebox() Profile {
	return Profile{
		ID:                 "freebox",
		Label:              "Freebox",
		LoginURLs:          []string{"https://adsl.free.fr/", "https://moncompte.free.fr/"},
		BaseURL:            "https://adsl.free.fr",
		Hosts:              []string{"adsl.free.fr", "moncompte.free.fr"},
		LoggedOutMarkers:   []string{"session invalide"},
		LoginPromptMarkers: []string{"se connecter"},
		LoginSelectors: append(slices.Clone(commonLoginSelectors),
			"input[type='text']:not([type='search'])"),
		LoginXPath:                  "//input[@type='text' or not(@type)]",
		PasswordSelectors:           commonPasswordSelectors,
		SubmitSelectors:             commonSubmitSelectors,
		SubmitText:                  "connecter",
		SecondFactorSelectors:       commonSecondFactorSelectors,
		SecondFactorSubmitSelectors: []string{"button[type='submit']", "input[type='submit']"},
		InvoicePaths:                []string{"/facturation/", "/mes-factures/", "/factures/", "/home.pl", "/"},
		DocumentSelectors: []string{
			"a.btn.download[href*='facture']",
			"a[href*='facture.pdf.pl']",
			"a[href*='.pdf']",
			"a[href*='facture']",
			"a[href*='download']",
			"a[href*='telecharger']",
		},
		DocumentKeywords:   []string{"télécharger", "telecharger", "facture"},
		ClickFallbackTerms: []string{"factur"},
	}
}

// FreeMobile returns the profile of the Free Mobile subscriber portal,
// which lists invoices per phone line.
func FreeMobile() Profile {
	return Profile{
		ID:                 "free_mobile",
		Label:              "Free Mobile",
		LoginURLs:          []string{"https://mobile.free.fr/account/v2/login"},
		BaseURL:            "https://mobile.free.fr",
		Hosts:              []string{"mobile.free.fr"},
		LoginPromptMarkers: []string{"se connecter", "connexion"},
		LoginSelectors: append(slices.Clone(commonLoginSelectors),
			"input[placeholder*='mail']",
			"input[placeholder*='téléphone']",
			"input[type='email']",
			"input[type='text']:not([type='search'])",
		),
		LoginXPath:                  "//input[@type='text' or @type='email' or not(@type)]",
		PasswordSelectors:           commonPasswordSelectors,
		SubmitSelectors:             commonSubmitSelectors,
		SubmitText:                  "connexion",
		SecondFactorSelectors:       commonSecondFactorSelectors,
		SecondFactorSubmitSelectors: []string{"button[type='submit']", "input[type='submit']"},
		InvoicePaths:                []string{"/account/v2/factures", "/account/factures", "/account/v2/", "/account/", "/"},
		DocumentSelectors: []string{
			"a[href*='facture']",
			"a[href*='.pdf']",
			"a[href*='download']",
			"a[href*='invoice']",
			"a[href*='bill']",
			"a[data-testid*='facture']",
			"[role='link'][href*='pdf']",
			"a[href*='document']",
			"a[href*='pdf']",
		},
		DocumentKeywords: []string{"télécharger", "telecharger", "pdf", "facture"},
		InvoiceTab: InvoiceTab{
			OpenerXPaths: []string{"//a[contains(., 'Conso et factures')]"},
			XPaths: []string{
				"//*[normalize-space()='Mes factures']",
				"//button[contains(., 'Mes factures')]",
				"//a[contains(., 'Mes factures')]",
				"//*[@role='tab'][contains(., 'Mes factures')]",
			},
			Text:    "mes factures",
			Exclude: []string{"ma consommation"},
		},
		ClickFallbackTerms: []string{"factur"},
		SubAccounts: &SubAccounts{
			AccountPath: "/account/v2",
			ExpandXPaths: []string{
				"//*[contains(translate(., 'MESLIGNES', 'meslignes'), 'mes lignes') or contains(., 'MES LIGNES')]",
			},
			EntryPattern:     regexp.MustCompile(`0[1-9]\s?\d{2}\s?\d{2}\s?\d{2}\s?\d{2}`),
			MaxEntryText:     80,
			EntryHrefTerms:   []string{"mobile.free.fr", "account", "ligne"},
			FallbackSelector: "a[href*='account'], a[href*='ligne'], [role='button'], .line-item, [data-phone]",
		},
	}
}

// Profiles returns the profiles of every implemented portal.
func Profiles() []Profile {
	return []Profile{Freebox(), FreeMobile()}
}

// Lookup returns the implemented profile with the given id.
func Lookup(id string) (Profile, bool) {
	for _, p := range Profiles() {
		if p.ID == id {
			return p, true
		}
	}
	return Profile{}, false
}

// Labels maps every known provider id, implemented or planned, to its
// display name.
var Labels = map[string]string{
	"amazon":       "Amazon",
	"fnac":         "FNAC",
	"freebox":      "Freebox",
	"free_mobile":  "Free Mobile",
	"bouygues":     "Bouygues Telecom",
	"decathlon":    "Decathlon",
	"leroy_merlin": "Leroy Merlin",
}
