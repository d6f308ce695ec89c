package utils

import (
	"context"
	"errors"
	"net"
	"net/url"
	"syscall"
)

// IsQuietNetError reports failures that are routine for a homelab dashboard
// (host down, DNS name unknown). Callers log these without error details.
func IsQuietNetError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound || dnsErr.IsTemporary
	}
	return false
}

// IsTimeout reports deadline expiry from either the context or the network stack.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Cause strips the *url.Error wrapper net/http adds ("Get \"http://..\": ").
func Cause(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
