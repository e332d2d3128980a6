package portal_test

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwojciec/billfetch"
	"github.com/fwojciec/billfetch/fs"
	"github.com/fwojciec/billfetch/goquery"
	"github.com/fwojciec/billfetch/mock"
	"github.com/fwojciec/billfetch/portal"
	"github.com/fwojciec/billfetch/sqlite"
	"github.com/fwojciec/billfetch/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	freeboxLoginPage = `<html><body>
<h1>Se connecter</h1>
<form action="/login.pl">
  <input type="text" name="login">
  <input type="password" name="pass">
  <input type="submit" value="Se connecter">
</form>
</body></html>`

	freeboxOTPPage = `<html><body>
<form action="/otp.pl">
  <label>Saisissez le code reçu par SMS</label>
  <input type="text" name="otp">
  <button type="submit">Valider</button>
</form>
</body></html>`

	freeboxHome = `<html><body>
<p>Bienvenue sur votre espace abonné</p>
<a href="/facturation/">Espace facturation</a>
<a href="/logout.pl">Déconnexion</a>
</body></html>`

	freeboxInvoices = `<html><body><ul>
<li><a class="btn download" href="/facture.pdf.pl?no=1">Facture novembre 2025</a></li>
<li><a class="btn download" href="/facture.pdf.pl?no=2">Facture décembre 2025</a></li>
<li><a class="btn download" href="/facture.pdf.pl?no=3">Facture janvier 2026</a></li>
<li><a href="/recapitulatif.pdf">Récapitulatif annuel</a></li>
</ul></body></html>`
)

// freeboxSite simulates the Freebox portal.
type freeboxSite struct {
	twoFactor bool
	authed    bool
	invoices  string
}

func newFreeboxSite() *freeboxSite {
	return &freeboxSite{invoices: freeboxInvoices}
}

func (s *freeboxSite) serve(f *fakeBrowser, rawURL string) (string, string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Host != "adsl.free.fr" && u.Host != "moncompte.free.fr") {
		return "", "", false
	}
	home := "https://adsl.free.fr/home.pl"

	switch u.Path {
	case "/login.pl":
		if f.value("login") != "user" || f.value("pass") != "secret" {
			return rawURL, freeboxLoginPage, true
		}
		if s.twoFactor {
			return rawURL, freeboxOTPPage, true
		}
		s.authed = true
		return home, freeboxHome, true
	case "/otp.pl":
		if f.value("otp") != "123456" {
			return rawURL, freeboxOTPPage, true
		}
		s.authed = true
		return home, freeboxHome, true
	}

	if !s.authed {
		if u.Path == "/" {
			return rawURL, freeboxLoginPage, true
		}
		return rawURL, `<html><body>Session invalide, veuillez vous reconnecter.</body></html>`, true
	}
	switch u.Path {
	case "/", "/home.pl":
		return home, freeboxHome, true
	case "/facturation/":
		return rawURL, s.invoices, true
	}
	return "", "", false
}

func strategies(p portal.Profile) []billfetch.LinkStrategy {
	return goquery.Strategies(p.DocumentSelectors,
		goquery.NewTextStrategy(p.DocumentKeywords...),
		goquery.NewDataAttrStrategy(),
	)
}

func newSession(t *testing.T, p portal.Profile, b *fakeBrowser) *portal.Session {
	t.Helper()

	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	registry, err := sqlite.NewRegistry(context.Background(), db)
	require.NoError(t, err)

	dir := t.TempDir()
	return &portal.Session{
		Profile:     p,
		Account:     portal.Account{Login: "user", Password: "secret"},
		Browsers:    b.opener(),
		Registry:    registry,
		Files:       fs.NewFileStore(dir),
		Bridge:      pdfBridge(),
		Strategies:  strategies(p),
		Dates:       text.MonthExtractor{},
		Diagnostics: fs.NewDiagnostics(dir),
		Settle:      -1,
	}
}

// pdfBridge serves a minimal PDF for every URL.
func pdfBridge() *mock.SessionBridge {
	return &mock.SessionBridge{
		BridgeFn: func(creds *billfetch.Credentials) (billfetch.HTTPSession, error) {
			return &mock.HTTPSession{
				GetFn: func(ctx context.Context, u string) (*billfetch.Payload, error) {
					return &billfetch.Payload{
						URL:         u,
						StatusCode:  200,
						ContentType: "application/pdf",
						Body:        []byte("%PDF-1.4 " + u),
					}, nil
				},
			}, nil
		},
	}
}

func TestSession_Login(t *testing.T) {
	t.Parallel()

	t.Run("authenticates with valid credentials", func(t *testing.T) {
		t.Parallel()

		site := newFreeboxSite()
		b := newFakeBrowser(site.serve)
		s := newSession(t, portal.Freebox(), b)

		ok, err := s.Login(context.Background(), "")

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, billfetch.StateAuthenticated, s.State())
		assert.Equal(t, "user", b.Values["login"])
		assert.Equal(t, "secret", b.Values["pass"])
	})

	t.Run("rejected credentials return false", func(t *testing.T) {
		t.Parallel()

		site := newFreeboxSite()
		b := newFakeBrowser(site.serve)
		s := newSession(t, portal.Freebox(), b)
		s.Account.Password = "wrong"

		ok, err := s.Login(context.Background(), "")

		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, billfetch.StateDisconnected, s.State())
	})

	t.Run("already authenticated session is reused", func(t *testing.T) {
		t.Parallel()

		site := newFreeboxSite()
		b := newFakeBrowser(site.serve)
		s := newSession(t, portal.Freebox(), b)
		ctx := context.Background()

		ok, err := s.Login(ctx, "")
		require.NoError(t, err)
		require.True(t, ok)
		visited := len(b.Visited)

		ok, err = s.Login(ctx, "")

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Len(t, b.Visited, visited)
	})

	t.Run("persisted browser profile skips the form", func(t *testing.T) {
		t.Parallel()

		site := newFreeboxSite()
		site.authed = true
		b := newFakeBrowser(site.serve)
		s := newSession(t, portal.Freebox(), b)

		ok, err := s.Login(context.Background(), "")

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, b.Values)
	})

	t.Run("unreachable portal is reported", func(t *testing.T) {
		t.Parallel()

		b := newFakeBrowser(newFreeboxSite().serve)
		b.Unreachable = true
		s := newSession(t, portal.Freebox(), b)

		ok, err := s.Login(context.Background(), "")

		assert.False(t, ok)
		assert.Equal(t, billfetch.EUNREACHABLE, billfetch.ErrorCode(err))
		assert.Equal(t, billfetch.StateDisconnected, s.State())
	})

	t.Run("missing login form returns false", func(t *testing.T) {
		t.Parallel()

		b := newFakeBrowser(func(f *fakeBrowser, rawURL string) (string, string, bool) {
			return "https://example.com/", "<html><body>Maintenance</body></html>", true
		})
		s := newSession(t, portal.Freebox(), b)

		ok, err := s.Login(context.Background(), "")

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("closed session cannot log in", func(t *testing.T) {
		t.Parallel()

		b := newFakeBrowser(newFreeboxSite().serve)
		s := newSession(t, portal.Freebox(), b)
		ctx := context.Background()
		_, err := s.Login(ctx, "")
		require.NoError(t, err)
		require.NoError(t, s.Close())

		_, err = s.Login(ctx, "")

		assert.Equal(t, billfetch.EINVALID, billfetch.ErrorCode(err))
		assert.Equal(t, billfetch.StateClosed, s.State())
		assert.True(t, b.Closed)
	})
}

func TestSession_SecondFactor(t *testing.T) {
	t.Parallel()

	t.Run("challenge without code awaits the second factor", func(t *testing.T) {
		t.Parallel()

		site := newFreeboxSite()
		site.twoFactor = true
		s := newSession(t, portal.Freebox(), newFakeBrowser(site.serve))
		ctx := context.Background()

		ok, err := s.Login(ctx, "")

		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, billfetch.StateAwaitingSecondFactor, s.State())
		assert.True(t, s.SecondFactorRequired(ctx))
		assert.Equal(t, billfetch.StateAwaitingSecondFactor, s.State())
	})

	t.Run("rejected code keeps waiting then accepted code authenticates", func(t *testing.T) {
		t.Parallel()

		site := newFreeboxSite()
		site.twoFactor = true
		s := newSession(t, portal.Freebox(), newFakeBrowser(site.serve))
		ctx := context.Background()
		_, err := s.Login(ctx, "")
		require.NoError(t, err)

		ok, err := s.SubmitSecondFactor(ctx, "000000")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, billfetch.StateAwaitingSecondFactor, s.State())

		ok, err = s.SubmitSecondFactor(ctx, "123456")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, billfetch.StateAuthenticated, s.State())
		assert.False(t, s.SecondFactorRequired(ctx))
	})

	t.Run("code given to login is submitted", func(t *testing.T) {
		t.Parallel()

		site := newFreeboxSite()
		site.twoFactor = true
		s := newSession(t, portal.Freebox(), newFakeBrowser(site.serve))

		ok, err := s.Login(context.Background(), "123456")

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, billfetch.StateAuthenticated, s.State())
	})

	t.Run("login resumes a pending challenge", func(t *testing.T) {
		t.Parallel()

		site := newFreeboxSite()
		site.twoFactor = true
		b := newFakeBrowser(site.serve)
		s := newSession(t, portal.Freebox(), b)
		ctx := context.Background()
		_, err := s.Login(ctx, "")
		require.NoError(t, err)

		ok, err := s.Login(ctx, "123456")

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "123456", b.Values["otp"])
	})

	t.Run("empty code is invalid", func(t *testing.T) {
		t.Parallel()

		site := newFreeboxSite()
		site.twoFactor = true
		s := newSession(t, portal.Freebox(), newFakeBrowser(site.serve))
		ctx := context.Background()
		_, err := s.Login(ctx, "")
		require.NoError(t, err)

		_, err = s.SubmitSecondFactor(ctx, " ")

		assert.Equal(t, billfetch.EINVALID, billfetch.ErrorCode(err))
	})

	t.Run("no session to submit to", func(t *testing.T) {
		t.Parallel()

		s := newSession(t, portal.Freebox(), newFakeBrowser(newFreeboxSite().serve))

		_, err := s.SubmitSecondFactor(context.Background(), "123456")

		assert.Equal(t, billfetch.EINVALID, billfetch.ErrorCode(err))
		assert.False(t, s.SecondFactorRequired(context.Background()))
	})
}

func TestSession_Close(t *testing.T) {
	t.Parallel()

	t.Run("keep open leaves the browser running", func(t *testing.T) {
		t.Parallel()

		b := newFakeBrowser(newFreeboxSite().serve)
		s := newSession(t, portal.Freebox(), b)
		s.KeepOpen = true
		_, err := s.Login(context.Background(), "")
		require.NoError(t, err)

		require.NoError(t, s.Close())

		assert.False(t, b.Closed)
		assert.Equal(t, billfetch.StateAuthenticated, s.State())
	})

	t.Run("is idempotent", func(t *testing.T) {
		t.Parallel()

		s := newSession(t, portal.Freebox(), newFakeBrowser(newFreeboxSite().serve))

		require.NoError(t, s.Close())
		require.NoError(t, s.Close())
		assert.Equal(t, billfetch.StateClosed, s.State())
	})
}

func TestSession_DiscoverDocuments(t *testing.T) {
	t.Parallel()

	t.Run("lists dated invoices from the invoice page", func(t *testing.T) {
		t.Parallel()

		s := newSession(t, portal.Freebox(), newFakeBrowser(newFreeboxSite().serve))
		ctx := context.Background()
		_, err := s.Login(ctx, "")
		require.NoError(t, err)

		docs, err := s.DiscoverDocuments(ctx)

		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "https://adsl.free.fr/facture.pdf.pl?no=1", docs[0].URL)
		assert.Equal(t, "Facture novembre 2025", docs[0].Title)
		assert.Equal(t, "2025-11", docs[0].Date.String())
		assert.Equal(t, "2025-12", docs[1].Date.String())
		assert.Equal(t, "2026-01", docs[2].Date.String())
		assert.Equal(t, portal.DocumentID("freebox", docs[0].URL), docs[0].ID)
		assert.Equal(t, "freebox", docs[0].ProviderID)
		assert.Equal(t, "https://adsl.free.fr/facturation/", docs[0].Source)
		assert.Equal(t, billfetch.StateAuthenticated, s.State())
	})

	t.Run("rediscovery yields the same ids", func(t *testing.T) {
		t.Parallel()

		s := newSession(t, portal.Freebox(), newFakeBrowser(newFreeboxSite().serve))
		ctx := context.Background()
		_, err := s.Login(ctx, "")
		require.NoError(t, err)

		first, err := s.DiscoverDocuments(ctx)
		require.NoError(t, err)
		second, err := s.DiscoverDocuments(ctx)
		require.NoError(t, err)

		require.Len(t, second, len(first))
		for i := range first {
			assert.Equal(t, first[i].ID, second[i].ID)
		}
	})

	t.Run("empty invoice area is not an error", func(t *testing.T) {
		t.Parallel()

		site := newFreeboxSite()
		site.invoices = "<html><body><p>Aucune facture disponible</p></body></html>"
		s := newSession(t, portal.Freebox(), newFakeBrowser(site.serve))
		ctx := context.Background()
		_, err := s.Login(ctx, "")
		require.NoError(t, err)

		docs, err := s.DiscoverDocuments(ctx)

		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("requires an authenticated session", func(t *testing.T) {
		t.Parallel()

		s := newSession(t, portal.Freebox(), newFakeBrowser(newFreeboxSite().serve))

		_, err := s.DiscoverDocuments(context.Background())

		assert.Equal(t, billfetch.ENAVIGATION, billfetch.ErrorCode(err))
	})

	t.Run("expired session fails navigation", func(t *testing.T) {
		t.Parallel()

		site := newFreeboxSite()
		s := newSession(t, portal.Freebox(), newFakeBrowser(site.serve))
		ctx := context.Background()
		_, err := s.Login(ctx, "")
		require.NoError(t, err)
		site.authed = false
		site.invoices = "<html><body>Session invalide</body></html>"

		_, err = s.DiscoverDocuments(ctx)

		assert.Equal(t, billfetch.ENAVIGATION, billfetch.ErrorCode(err))
	})
}

const (
	freeMobileAccount = `<html><body>
<button class="lines">MES LIGNES</button>
<ul>
  <li><a href="/account/v2/ligne/1">06 12 34 56 78</a></li>
  <li><a href="/account/v2/ligne/2">07 98 76 54 32</a></li>
  <li><a href="/account/v2/profil">Mon profil</a></li>
</ul>
</body></html>`

	freeMobileLine = `<html><body>
<div role="tab">Ma consommation</div>
<div role="tab">Mes factures</div>
%s
</body></html>`
)

func serveFreeMobile(f *fakeBrowser, rawURL string) (string, string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host != "mobile.free.fr" {
		return "", "", false
	}
	shared := `<a href="/account/v2/facture/compte-2025-12.pdf">Facture décembre 2025</a>`
	switch u.Path {
	case "/account/v2/login", "/account/v2":
		return "https://mobile.free.fr/account/v2", freeMobileAccount, true
	case "/account/v2/ligne/1":
		return rawURL, strings.Replace(freeMobileLine, "%s",
			`<a href="/account/v2/facture/l1-2025-11.pdf">Facture novembre 2025</a>`+shared, 1), true
	case "/account/v2/ligne/2":
		return rawURL, strings.Replace(freeMobileLine, "%s",
			`<a href="/account/v2/facture/l2-2025-11.pdf">Facture novembre 2025</a>`+shared, 1), true
	}
	return "", "", false
}

func TestSession_DiscoverDocuments_SubAccounts(t *testing.T) {
	t.Parallel()

	p := portal.FreeMobile()
	b := newFakeBrowser(serveFreeMobile)
	b.XPaths = map[string]string{
		p.SubAccounts.ExpandXPaths[0]: "button.lines",
		p.InvoiceTab.XPaths[0]:        "[role='tab']",
	}
	s := newSession(t, p, b)
	ctx := context.Background()
	ok, err := s.Login(ctx, "")
	require.NoError(t, err)
	require.True(t, ok)

	docs, err := s.DiscoverDocuments(ctx)

	require.NoError(t, err)
	var urls []string
	for _, d := range docs {
		urls = append(urls, d.URL)
	}
	assert.Equal(t, []string{
		"https://mobile.free.fr/account/v2/facture/l1-2025-11.pdf",
		"https://mobile.free.fr/account/v2/facture/compte-2025-12.pdf",
		"https://mobile.free.fr/account/v2/facture/l2-2025-11.pdf",
	}, urls)
	current, err := b.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://mobile.free.fr/account/v2", current)
}

func TestSession_DiscoverDocuments_NoSubAccounts(t *testing.T) {
	t.Parallel()

	p := portal.FreeMobile()
	b := newFakeBrowser(func(f *fakeBrowser, rawURL string) (string, string, bool) {
		u, err := url.Parse(rawURL)
		if err != nil || u.Host != "mobile.free.fr" {
			return "", "", false
		}
		switch {
		case u.Path == "/account/v2/login", u.Path == "/espace":
			return "https://mobile.free.fr/espace",
				`<html><body><a href="/espace/facture-2025-10.pdf">Facture octobre 2025</a></body></html>`, true
		case strings.HasPrefix(u.Path, "/account"):
			return rawURL, `<html><body><p>Aucune ligne</p></body></html>`, true
		}
		return "", "", false
	})
	b.XPaths = map[string]string{p.SubAccounts.ExpandXPaths[0]: "button.lines"}
	s := newSession(t, p, b)
	ctx := context.Background()
	ok, err := s.Login(ctx, "")
	require.NoError(t, err)
	require.True(t, ok)

	docs, err := s.DiscoverDocuments(ctx)

	require.NoError(t, err)
	assert.Contains(t, b.Visited, "https://mobile.free.fr/account/v2")
	require.Len(t, docs, 1, "the starting page is searched once the account page listed no line")
	assert.Equal(t, "https://mobile.free.fr/espace/facture-2025-10.pdf", docs[0].URL)
	current, err := b.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://mobile.free.fr/espace", current)
}

func TestSession_DownloadDocument(t *testing.T) {
	t.Parallel()

	login := func(t *testing.T, s *portal.Session) []*billfetch.Document {
		t.Helper()
		ctx := context.Background()
		_, err := s.Login(ctx, "")
		require.NoError(t, err)
		docs, err := s.DiscoverDocuments(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, docs)
		return docs
	}

	t.Run("stores and records the file once", func(t *testing.T) {
		t.Parallel()

		s := newSession(t, portal.Freebox(), newFakeBrowser(newFreeboxSite().serve))
		dir := t.TempDir()
		s.Files = fs.NewFileStore(dir)
		docs := login(t, s)
		ctx := context.Background()

		name, err := s.DownloadDocument(ctx, docs[0], false)
		require.NoError(t, err)
		assert.Equal(t, billfetch.FileName("freebox", docs[0], 0), name)
		assert.True(t, strings.HasPrefix(name, "freebox_2025-11-01_"))
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "%PDF"))

		again, err := s.DownloadDocument(ctx, docs[0], false)
		require.NoError(t, err)
		assert.Empty(t, again)
		assert.Equal(t, 1, s.Registry.Len())
	})

	t.Run("forced download replaces the entry", func(t *testing.T) {
		t.Parallel()

		s := newSession(t, portal.Freebox(), newFakeBrowser(newFreeboxSite().serve))
		docs := login(t, s)
		ctx := context.Background()
		_, err := s.DownloadDocument(ctx, docs[0], false)
		require.NoError(t, err)

		name, err := s.DownloadDocument(ctx, docs[0], true)

		require.NoError(t, err)
		assert.NotEmpty(t, name)
		assert.Equal(t, 1, s.Registry.Len())
	})

	t.Run("forwards browser credentials", func(t *testing.T) {
		t.Parallel()

		s := newSession(t, portal.Freebox(), newFakeBrowser(newFreeboxSite().serve))
		docs := login(t, s)
		var got *billfetch.Credentials
		bridge := pdfBridge()
		next := bridge.BridgeFn
		bridge.BridgeFn = func(creds *billfetch.Credentials) (billfetch.HTTPSession, error) {
			got = creds
			return next(creds)
		}
		s.Bridge = bridge

		_, err := s.DownloadDocument(context.Background(), docs[0], false)

		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "fake-browser", got.UserAgent)
		require.Len(t, got.Cookies, 1)
		assert.Equal(t, "session", got.Cookies[0].Name)
	})

	t.Run("unverified payload is not recorded", func(t *testing.T) {
		t.Parallel()

		s := newSession(t, portal.Freebox(), newFakeBrowser(newFreeboxSite().serve))
		docs := login(t, s)
		s.Bridge = &mock.SessionBridge{
			BridgeFn: func(creds *billfetch.Credentials) (billfetch.HTTPSession, error) {
				return &mock.HTTPSession{
					GetFn: func(ctx context.Context, u string) (*billfetch.Payload, error) {
						return &billfetch.Payload{URL: u, StatusCode: 200, ContentType: "text/html", Body: []byte("<html>login</html>")}, nil
					},
				}, nil
			},
		}

		name, err := s.DownloadDocument(context.Background(), docs[0], false)

		require.NoError(t, err)
		assert.Empty(t, name)
		assert.Equal(t, 0, s.Registry.Len())
	})

	t.Run("non-OK status is not recorded", func(t *testing.T) {
		t.Parallel()

		s := newSession(t, portal.Freebox(), newFakeBrowser(newFreeboxSite().serve))
		docs := login(t, s)
		s.Bridge = &mock.SessionBridge{
			BridgeFn: func(creds *billfetch.Credentials) (billfetch.HTTPSession, error) {
				return &mock.HTTPSession{
					GetFn: func(ctx context.Context, u string) (*billfetch.Payload, error) {
						return &billfetch.Payload{URL: u, StatusCode: 403, ContentType: "application/pdf"}, nil
					},
				}, nil
			},
		}

		name, err := s.DownloadDocument(context.Background(), docs[0], false)

		require.NoError(t, err)
		assert.Empty(t, name)
		assert.Equal(t, 0, s.Registry.Len())
	})

	t.Run("invalid document", func(t *testing.T) {
		t.Parallel()

		s := newSession(t, portal.Freebox(), newFakeBrowser(newFreeboxSite().serve))

		_, err := s.DownloadDocument(context.Background(), &billfetch.Document{}, false)

		assert.Equal(t, billfetch.EINVALID, billfetch.ErrorCode(err))
	})
}

func TestSession_SaveDiagnostics(t *testing.T) {
	t.Parallel()

	s := newSession(t, portal.Freebox(), newFakeBrowser(newFreeboxSite().serve))
	dir := t.TempDir()
	s.Diagnostics = fs.NewDiagnostics(dir)
	ctx := context.Background()
	_, err := s.Login(ctx, "")
	require.NoError(t, err)

	require.NoError(t, s.SaveDiagnostics(ctx, "no_documents"))

	data, err := os.ReadFile(filepath.Join(dir, fs.DiagnosticsDir, "freebox_no_documents.html"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "https://adsl.free.fr/home.pl")
	assert.Contains(t, string(data), "Espace facturation")
}
