package capture

import (
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/unkn0wn-root/netscope/internal/nettrace"
)

func (s *traceSession) withConn(fn func(*nettrace.ConnDetails)) {
	if s == nil || fn == nil {
		return
	}
	s.mu.Lock()
	if s.conn == nil {
		s.conn = &nettrace.ConnDetails{}
	}
	fn(s.conn)
	s.mu.Unlock()
}

func (s *traceSession) details(proto, proxy string, state *tls.ConnectionState) *nettrace.TraceDetails {
	s.mu.Lock()
	defer s.mu.Unlock()

	details := &nettrace.TraceDetails{}
	if s.conn != nil {
		details.Connection = s.conn.Clone()
	}
	if s.tls != nil {
		details.TLS = s.tls.Clone()
	}
	if details.TLS == nil && state != nil {
		details.TLS = tlsDetailsFromState(*state)
	}
	if proto != "" || proxy != "" {
		if details.Connection == nil {
			details.Connection = &nettrace.ConnDetails{}
		}
		details.Connection.Protocol = proto
		details.Connection.Proxy = proxy
	}
	if details.Connection == nil && details.TLS == nil {
		return nil
	}
	return details
}

func proxyForRequest(req *http.Request, client *http.Client) string {
	if req == nil || client == nil {
		return ""
	}
	tr, ok := client.Transport.(*http.Transport)
	if !ok || tr.Proxy == nil {
		return ""
	}
	proxyURL, err := tr.Proxy(req)
	if err != nil || proxyURL == nil {
		return ""
	}
	return sanitizeProxyURL(proxyURL)
}

// sanitizeProxyURL drops credentials and paths.
func sanitizeProxyURL(proxyURL *url.URL) string {
	clean := &url.URL{Scheme: proxyURL.Scheme, Host: proxyURL.Host}
	if clean.Host == "" {
		return proxyURL.Redacted()
	}
	return clean.String()
}

func tlsDetailsFromState(state tls.ConnectionState) *nettrace.TLSDetails {
	if state.Version == 0 && state.CipherSuite == 0 &&
		state.NegotiatedProtocol == "" && len(state.PeerCertificates) == 0 {
		return nil
	}
	details := &nettrace.TLSDetails{
		ALPN:       state.NegotiatedProtocol,
		ServerName: state.ServerName,
		Resumed:    state.DidResume,
	}
	if state.Version != 0 {
		details.Version = tls.VersionName(state.Version)
	}
	if state.CipherSuite != 0 {
		details.Cipher = tls.CipherSuiteName(state.CipherSuite)
	}
	for _, cert := range state.PeerCertificates {
		if cert == nil {
			continue
		}
		details.Certificates = append(details.Certificates, certDetails(cert))
	}
	return details
}

func certDetails(cert *x509.Certificate) nettrace.TLSCert {
	return nettrace.TLSCert{
		Subject:   certName(cert.Subject),
		Issuer:    certName(cert.Issuer),
		SANs:      certSANs(cert),
		NotBefore: cert.NotBefore,
		NotAfter:  cert.NotAfter,
	}
}

func certName(name pkix.Name) string {
	if cn := strings.TrimSpace(name.CommonName); cn != "" {
		return cn
	}
	return strings.TrimSpace(name.String())
}

func certSANs(cert *x509.Certificate) []string {
	var out []string
	for _, dns := range cert.DNSNames {
		out = appendUnique(out, dns)
	}
	for _, ip := range cert.IPAddresses {
		out = appendUnique(out, ip.String())
	}
	for _, uri := range cert.URIs {
		if uri != nil {
			out = appendUnique(out, uri.String())
		}
	}
	sort.Strings(out)
	return out
}

func appendUnique(dst []string, val string) []string {
	if val == "" {
		return dst
	}
	for _, existing := range dst {
		if existing == val {
			return dst
		}
	}
	return append(dst, val)
}
