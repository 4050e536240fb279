package resilience

import (
	"errors"
	"net"
	"net/textproto"
	"strings"
	"syscall"
)

// Transient reports whether an error looks like a temporary network or
// server condition. FTP replies in the 4xx range are transient by protocol
// definition; 5xx replies (bad path, auth rejected) are permanent.
func Transient(err error) bool {
	if err == nil {
		return false
	}

	var proto *textproto.Error
	if errors.As(err, &proto) {
		return proto.Code >= 400 && proto.Code < 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	// Wrapped errors from the FTP client surface only as text.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"i/o timeout",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
