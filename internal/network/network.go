package network

import (
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// IsOffline reports whether an error looks like the machine has no network,
// as opposed to the remote end misbehaving. Used to pick a friendlier status
// message when a feed source cannot be reached.
func IsOffline(err error) bool {
	if err == nil {
		return false
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return IsOffline(urlErr.Err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.Temporary() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errno, ok := opErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ECONNREFUSED, syscall.ENETUNREACH, syscall.EHOSTUNREACH, syscall.ETIMEDOUT:
				return true
			}
		}
		if opErr.Op == "dial" || opErr.Op == "read" {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"no such host",
		"connection refused",
		"network is unreachable",
		"no route to host",
		"host is down",
		"connection timed out",
		"temporary failure in name resolution",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
