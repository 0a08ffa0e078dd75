package port

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestProbe_FreePort verifies that a port nobody holds probes cleanly.
func TestProbe_FreePort(t *testing.T) {
	assert.NoError(t, NewScanner().Probe(freePort(t)))
}

// TestProbe_UsedPort verifies that Probe fails with EADDRINUSE when a port
// is already bound by another listener.
func TestProbe_UsedPort(t *testing.T) {
	_, port := occupy(t)

	err := NewScanner().Probe(port)
	require.Error(t, err)
	assert.True(t, errors.Is(err, syscall.EADDRINUSE), "got %v", err)
}

// TestScan reports free and used ports in request order, with a reason
// for the used ones.
func TestScan(t *testing.T) {
	_, used := occupy(t)
	free := freePort(t)

	result := NewScanner().Scan([]int{used, free})
	require.Len(t, result, 2)

	assert.Equal(t, used, result[0].Port)
	assert.False(t, result[0].Free)
	assert.Contains(t, result[0].Reason, "address already in use")

	assert.Equal(t, free, result[1].Port)
	assert.True(t, result[1].Free)
	assert.Empty(t, result[1].Reason)
}

// TestDescribeError verifies the syscall part of a listen error is
// extracted, and other errors pass through unchanged.
func TestDescribeError(t *testing.T) {
	opErr := &net.OpError{
		Op:  "listen",
		Net: "tcp",
		Err: os.NewSyscallError("bind", syscall.EADDRINUSE),
	}

	assert.Equal(t, "bind: address already in use", DescribeError(opErr))
	assert.Equal(t, "bind: address already in use", DescribeError(fmt.Errorf("wrapped: %w", opErr)))
	assert.Equal(t, "plain", DescribeError(errors.New("plain")))
	assert.Equal(t, "", DescribeError(nil))
}
