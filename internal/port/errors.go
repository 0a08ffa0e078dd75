package port

import (
	"errors"
	"net"
	"os"
)

// DescribeError returns the short reason for a bind or close failure, the
// way it should appear after "E <port> : ".
//
// net.Listen errors read "listen tcp :5000: bind: address already in use";
// the operator only needs the syscall part ("bind: address already in
// use"), so the *net.OpError wrapper is peeled off when present.
func DescribeError(err error) string {
	if err == nil {
		return ""
	}

	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) {
		return sysErr.Error()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Err != nil {
		return opErr.Err.Error()
	}
	return err.Error()
}
