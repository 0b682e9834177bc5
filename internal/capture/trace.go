package capture

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"

	"github.com/unkn0wn-root/netscope/internal/nettrace"
)

// traceSession feeds httptrace callbacks into a collector. Redirect hops
// reuse the session, so phases may repeat.
type traceSession struct {
	collector *nettrace.Collector
	trace     *httptrace.ClientTrace

	mu             sync.Mutex
	reqBodyActive  bool
	ttfbActive     bool
	transferActive bool
	conn           *nettrace.ConnDetails
	tls            *nettrace.TLSDetails
}

func newTraceSession() *traceSession {
	s := &traceSession{collector: nettrace.NewCollector()}
	s.trace = &httptrace.ClientTrace{
		GetConn:              s.onGetConn,
		DNSStart:             s.onDNSStart,
		DNSDone:              s.onDNSDone,
		ConnectStart:         s.onConnectStart,
		ConnectDone:          s.onConnectDone,
		GotConn:              s.onGotConn,
		TLSHandshakeStart:    s.onTLSHandshakeStart,
		TLSHandshakeDone:     s.onTLSHandshakeDone,
		WroteHeaders:         s.onWroteHeaders,
		WroteRequest:         s.onWroteRequest,
		GotFirstResponseByte: s.onGotFirstResponseByte,
	}
	return s
}

func (s *traceSession) bind(req *http.Request) *http.Request {
	if req == nil {
		return nil
	}
	ctx := httptrace.WithClientTrace(req.Context(), s.trace)
	return req.WithContext(ctx)
}

func (s *traceSession) onGetConn(hostPort string) {
	if hostPort == "" {
		return
	}
	s.withConn(func(conn *nettrace.ConnDetails) {
		conn.DialAddr = hostPort
	})
}

func (s *traceSession) onDNSStart(info httptrace.DNSStartInfo) {
	s.collector.Begin(nettrace.PhaseDNS, time.Now())
	if info.Host != "" {
		s.collector.UpdateMeta(nettrace.PhaseDNS, func(meta *nettrace.PhaseMeta) {
			meta.Addr = info.Host
		})
	}
}

func (s *traceSession) onDNSDone(info httptrace.DNSDoneInfo) {
	now := time.Now()
	s.collector.UpdateMeta(nettrace.PhaseDNS, func(meta *nettrace.PhaseMeta) {
		if len(info.Addrs) > 0 {
			meta.Addr = info.Addrs[0].String()
		}
		meta.Cached = info.Coalesced
	})
	if len(info.Addrs) > 0 {
		s.withConn(func(conn *nettrace.ConnDetails) {
			conn.ResolvedAddrs = mergeIPs(conn.ResolvedAddrs, info.Addrs)
		})
	}
	s.collector.End(nettrace.PhaseDNS, now, info.Err)
	s.collector.Fail(info.Err)
}

func (s *traceSession) onConnectStart(network, addr string) {
	s.collector.Begin(nettrace.PhaseConnect, time.Now())
	if addr != "" {
		s.collector.UpdateMeta(nettrace.PhaseConnect, func(meta *nettrace.PhaseMeta) {
			meta.Addr = addr
		})
	}
	s.withConn(func(conn *nettrace.ConnDetails) {
		if network != "" {
			conn.Network = network
		}
		if addr != "" {
			conn.DialAddr = addr
		}
	})
}

func (s *traceSession) onConnectDone(_, _ string, err error) {
	s.collector.End(nettrace.PhaseConnect, time.Now(), err)
	s.collector.Fail(err)
}

func (s *traceSession) onGotConn(info httptrace.GotConnInfo) {
	s.withConn(func(conn *nettrace.ConnDetails) {
		conn.Reused = info.Reused
		conn.WasIdle = info.WasIdle
		conn.IdleTime = info.IdleTime
		if info.Conn != nil {
			conn.LocalAddr = info.Conn.LocalAddr().String()
			conn.RemoteAddr = info.Conn.RemoteAddr().String()
		}
	})
	if !info.Reused {
		return
	}
	meta := nettrace.PhaseMeta{Reused: true}
	if info.Conn != nil {
		meta.Addr = info.Conn.RemoteAddr().String()
	}
	s.collector.Mark(nettrace.PhaseConnect, time.Now(), meta)
}

func (s *traceSession) onTLSHandshakeStart() {
	s.collector.Begin(nettrace.PhaseTLS, time.Now())
}

func (s *traceSession) onTLSHandshakeDone(state tls.ConnectionState, err error) {
	s.collector.End(nettrace.PhaseTLS, time.Now(), err)
	s.collector.Fail(err)
	if details := tlsDetailsFromState(state); details != nil {
		s.mu.Lock()
		s.tls = details
		s.mu.Unlock()
	}
}

func (s *traceSession) onWroteHeaders() {
	now := time.Now()
	s.collector.Begin(nettrace.PhaseReqHdrs, now)
	s.collector.End(nettrace.PhaseReqHdrs, now, nil)

	s.mu.Lock()
	start := !s.reqBodyActive
	s.reqBodyActive = true
	s.mu.Unlock()
	if start {
		s.collector.Begin(nettrace.PhaseReqBody, now)
	}
}

func (s *traceSession) onWroteRequest(info httptrace.WroteRequestInfo) {
	now := time.Now()
	s.mu.Lock()
	endBody := s.reqBodyActive
	s.reqBodyActive = false
	startTTFB := info.Err == nil && !s.ttfbActive
	if startTTFB {
		s.ttfbActive = true
	}
	s.mu.Unlock()

	if endBody {
		s.collector.End(nettrace.PhaseReqBody, now, info.Err)
	}
	if info.Err != nil {
		s.collector.Fail(info.Err)
		return
	}
	if startTTFB {
		s.collector.Begin(nettrace.PhaseTTFB, now)
	}
}

func (s *traceSession) onGotFirstResponseByte() {
	now := time.Now()
	s.mu.Lock()
	endTTFB := s.ttfbActive
	s.ttfbActive = false
	s.mu.Unlock()
	if endTTFB {
		s.collector.End(nettrace.PhaseTTFB, now, nil)
	}
}

// beginTransfer opens the download phase once the final response is in hand.
// Intermediate redirect responses are not downloaded.
func (s *traceSession) beginTransfer() {
	s.mu.Lock()
	start := !s.transferActive
	s.transferActive = true
	s.mu.Unlock()
	if start {
		s.collector.Begin(nettrace.PhaseTransfer, time.Now())
	}
}

func (s *traceSession) finishTransfer(err error) {
	s.mu.Lock()
	active := s.transferActive
	s.transferActive = false
	s.mu.Unlock()
	if !active {
		return
	}
	s.collector.End(nettrace.PhaseTransfer, time.Now(), err)
	s.collector.Fail(err)
}

func (s *traceSession) fail(err error) {
	s.collector.Fail(err)
}

func (s *traceSession) complete(proto, proxy string, state *tls.ConnectionState) *nettrace.Timeline {
	s.collector.Complete(time.Now())
	tl := s.collector.Timeline()
	if tl == nil {
		return nil
	}
	tl.Details = s.details(proto, proxy, state)
	return tl
}

func mergeIPs(current []string, addrs []net.IPAddr) []string {
	for _, addr := range addrs {
		if addr.IP == nil {
			continue
		}
		current = appendUnique(current, addr.String())
	}
	return current
}
