//go:build integration && !windows

package rod_test

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/fwojciec/billfetch/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowser_Close_KillsLauncherProcess(t *testing.T) {
	t.Parallel()

	b, err := rod.Launch(context.Background(), rod.Options{Headless: true})
	require.NoError(t, err)

	pid := b.LauncherPID()
	require.NotZero(t, pid, "launcher PID should be set")

	// Signal 0 checks if process exists without affecting it
	err = syscall.Kill(pid, syscall.Signal(0))
	require.NoError(t, err, "launcher process should be running before Close()")

	require.NoError(t, b.Close())
	require.NoError(t, b.Close(), "second Close is a no-op")

	time.Sleep(100 * time.Millisecond)

	err = syscall.Kill(pid, syscall.Signal(0))
	assert.Error(t, err, "launcher process should be terminated after Close()")
}
