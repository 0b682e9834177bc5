package nettrace

import "time"

// TraceDetails carries connection facts observed while tracing, beyond timings.
type TraceDetails struct {
	Connection *ConnDetails `json:"connection,omitempty"`
	TLS        *TLSDetails  `json:"tls,omitempty"`
}

func (d *TraceDetails) Clone() *TraceDetails {
	if d == nil {
		return nil
	}
	return &TraceDetails{
		Connection: d.Connection.Clone(),
		TLS:        d.TLS.Clone(),
	}
}

type ConnDetails struct {
	Reused        bool          `json:"reused,omitempty"`
	WasIdle       bool          `json:"wasIdle,omitempty"`
	IdleTime      time.Duration `json:"idleTime,omitempty"`
	Network       string        `json:"network,omitempty"`
	DialAddr      string        `json:"dialAddr,omitempty"`
	LocalAddr     string        `json:"localAddr,omitempty"`
	RemoteAddr    string        `json:"remoteAddr,omitempty"`
	ResolvedAddrs []string      `json:"resolvedAddrs,omitempty"`
	Proxy         string        `json:"proxy,omitempty"`
	Protocol      string        `json:"protocol,omitempty"`
}

func (c *ConnDetails) Clone() *ConnDetails {
	if c == nil {
		return nil
	}
	clone := *c
	clone.ResolvedAddrs = append([]string(nil), c.ResolvedAddrs...)
	return &clone
}

type TLSDetails struct {
	Version      string    `json:"version,omitempty"`
	Cipher       string    `json:"cipher,omitempty"`
	ALPN         string    `json:"alpn,omitempty"`
	ServerName   string    `json:"serverName,omitempty"`
	Resumed      bool      `json:"resumed,omitempty"`
	Certificates []TLSCert `json:"certificates,omitempty"`
}

func (t *TLSDetails) Clone() *TLSDetails {
	if t == nil {
		return nil
	}
	clone := *t
	if len(t.Certificates) > 0 {
		clone.Certificates = make([]TLSCert, len(t.Certificates))
		for i, cert := range t.Certificates {
			clone.Certificates[i] = cert.Clone()
		}
	}
	return &clone
}

type TLSCert struct {
	Subject   string    `json:"subject,omitempty"`
	Issuer    string    `json:"issuer,omitempty"`
	SANs      []string  `json:"sans,omitempty"`
	NotBefore time.Time `json:"notBefore"`
	NotAfter  time.Time `json:"notAfter"`
}

func (c TLSCert) Clone() TLSCert {
	clone := c
	clone.SANs = append([]string(nil), c.SANs...)
	return clone
}
