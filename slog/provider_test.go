package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/fwojciec/billfetch"
	"github.com/fwojciec/billfetch/mock"
	bfslog "github.com/fwojciec/billfetch/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingProvider_Login(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	inner := &mock.Provider{
		IDFn:    func() string { return "freebox" },
		StateFn: func() billfetch.SessionState { return billfetch.StateAwaitingSecondFactor },
		LoginFn: func(ctx context.Context, code string) (bool, error) {
			return false, nil
		},
	}

	p := bfslog.NewLoggingProvider(inner, logger)
	ok, err := p.Login(context.Background(), "")

	require.NoError(t, err)
	assert.False(t, ok)
	output := buf.String()
	assert.Contains(t, output, "msg=login")
	assert.Contains(t, output, "provider=freebox")
	assert.Contains(t, output, "authenticated=false")
	assert.Contains(t, output, "state=awaiting_second_factor")
	assert.Contains(t, output, "duration=")
}

func TestLoggingProvider_DiscoverDocuments(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	docs := []*billfetch.Document{{ID: "a"}, {ID: "b"}}
	inner := &mock.Provider{
		IDFn: func() string { return "freebox" },
		DiscoverDocumentsFn: func(ctx context.Context) ([]*billfetch.Document, error) {
			return docs, nil
		},
	}

	p := bfslog.NewLoggingProvider(inner, logger)
	got, err := p.DiscoverDocuments(context.Background())

	require.NoError(t, err)
	assert.Equal(t, docs, got)
	assert.Contains(t, buf.String(), "count=2")
}

func TestLoggingProvider_DownloadDocument(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	inner := &mock.Provider{
		IDFn: func() string { return "freebox" },
		DownloadDocumentFn: func(ctx context.Context, doc *billfetch.Document, force bool) (string, error) {
			return "freebox_a.pdf", nil
		},
	}

	p := bfslog.NewLoggingProvider(inner, logger)
	name, err := p.DownloadDocument(context.Background(), &billfetch.Document{ID: "a", URL: "https://adsl.free.fr/a.pdf"}, true)

	require.NoError(t, err)
	assert.Equal(t, "freebox_a.pdf", name)
	assert.Contains(t, buf.String(), "filename=freebox_a.pdf")
	assert.Contains(t, buf.String(), "force=true")
}

func TestLoggingProvider_SaveDiagnostics(t *testing.T) {
	t.Parallel()

	t.Run("delegates to diagnosing providers", func(t *testing.T) {
		t.Parallel()

		var saved string
		inner := &mock.DiagnosingProvider{
			Provider: mock.Provider{IDFn: func() string { return "freebox" }},
			SaveDiagnosticsFn: func(ctx context.Context, name string) error {
				saved = name
				return nil
			},
		}

		p := bfslog.NewLoggingProvider(inner, slog.New(slog.DiscardHandler))

		require.NoError(t, p.SaveDiagnostics(context.Background(), "no_documents"))
		assert.Equal(t, "no_documents", saved)
	})

	t.Run("ignores providers without diagnostics", func(t *testing.T) {
		t.Parallel()

		inner := &mock.Provider{IDFn: func() string { return "freebox" }}

		p := bfslog.NewLoggingProvider(inner, slog.New(slog.DiscardHandler))

		assert.NoError(t, p.SaveDiagnostics(context.Background(), "no_documents"))
	})
}
