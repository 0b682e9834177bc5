package capture

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/unkn0wn-root/netscope/internal/transaction"
)

var errTooManyRedirects = errors.New("too many redirects")

// Classify maps a transport error onto a transaction error. It returns nil
// for a nil error.
func Classify(err error) *transaction.Error {
	if err == nil {
		return nil
	}
	out := &transaction.Error{Kind: classifyKind(err), Message: err.Error()}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		out.Op = strings.ToLower(urlErr.Op)
		out.Message = urlErr.Err.Error()
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && out.Op == "" {
		out.Op = opErr.Op
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		out.Code = int(errno)
	}
	return out
}

func classifyKind(err error) transaction.ErrorKind {
	var (
		dnsErr      *net.DNSError
		recordErr   tls.RecordHeaderError
		verifyErr   *tls.CertificateVerificationError
		unknownAuth x509.UnknownAuthorityError
		hostErr     x509.HostnameError
		invalidErr  x509.CertificateInvalidError
		netErr      net.Error
	)
	switch {
	case errors.Is(err, context.Canceled):
		return transaction.ErrorCanceled
	case errors.Is(err, errTooManyRedirects):
		return transaction.ErrorRedirect
	case errors.As(err, &dnsErr):
		if dnsErr.IsTimeout {
			return transaction.ErrorTimeout
		}
		return transaction.ErrorDNS
	case errors.As(err, &verifyErr),
		errors.As(err, &unknownAuth),
		errors.As(err, &hostErr),
		errors.As(err, &invalidErr),
		errors.As(err, &recordErr):
		return transaction.ErrorTLS
	case errors.Is(err, syscall.ECONNREFUSED):
		return transaction.ErrorRefused
	case errors.Is(err, context.DeadlineExceeded):
		return transaction.ErrorTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return transaction.ErrorTimeout
	default:
		return transaction.ErrorOther
	}
}
