//go:build !windows

package sweep

import (
	"bytes"
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitReturnsWhileOrphanHoldsOutput(t *testing.T) {
	var out bytes.Buffer
	p, err := StartProcess("/bin/sh", []string{"-c", "sleep 30 & echo started; exit 0"}, &out, &out)
	require.NoError(t, err)
	pgid := p.PID()
	t.Cleanup(func() { _ = syscall.Kill(-pgid, syscall.SIGKILL) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	start := time.Now()
	require.NoError(t, p.Wait(ctx))
	assert.Less(t, time.Since(start), waitDelay+time.Second)
	assert.Equal(t, 0, p.ExitCode())
	assert.Contains(t, out.String(), "started")
}

func TestKillStopsProcessGroup(t *testing.T) {
	var out bytes.Buffer
	p, err := StartProcess("/bin/sh", []string{"-c", forkingScript}, &out, &out)
	require.NoError(t, err)

	pgid, err := syscall.Getpgid(p.PID())
	require.NoError(t, err)
	assert.Equal(t, p.PID(), pgid)

	// the grandchild holds the output pipe; Wait returns before waitDelay only if it was
	// killed along with the shell
	time.Sleep(100 * time.Millisecond)
	start := time.Now()
	require.NoError(t, p.Kill())
	select {
	case <-p.Done():
	case <-time.After(waitDelay + time.Second):
		t.Fatal("wait did not return after kill")
	}
	assert.Less(t, time.Since(start), waitDelay/2)
}
