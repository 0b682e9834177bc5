package capture

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/unkn0wn-root/netscope/internal/nettrace"
	"github.com/unkn0wn-root/netscope/internal/telemetry"
	"github.com/unkn0wn-root/netscope/internal/transaction"
)

const (
	DefaultMaxRedirects = 10
	DefaultMaxBodyBytes = 8 << 20
)

type Options struct {
	Timeout            time.Duration
	FollowRedirects    bool
	MaxRedirects       int
	InsecureSkipVerify bool
	// MaxBodyBytes caps the stored response body. Zero selects
	// DefaultMaxBodyBytes, a negative value stores nothing.
	MaxBodyBytes int64
	TraceBudget  *nettrace.Budget
}

// ProgressFunc receives a snapshot of the transaction while it is in flight.
// The snapshot is owned by the callee.
type ProgressFunc func(*transaction.Transaction)

type Client struct {
	jar         http.CookieJar
	httpFactory func(Options) (*http.Client, error)
	telemetry   telemetry.Instrumenter
}

func NewClient() *Client {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	c := &Client{jar: jar, telemetry: telemetry.Noop()}
	c.httpFactory = c.buildHTTPClient
	return c
}

// SetHTTPFactory overrides how http.Client instances are created. Passing nil
// restores the default factory.
func (c *Client) SetHTTPFactory(factory func(Options) (*http.Client, error)) {
	c.httpFactory = factory
}

func (c *Client) SetTelemetry(instr telemetry.Instrumenter) {
	if instr == nil {
		instr = telemetry.Noop()
	}
	c.telemetry = instr
}

func (c *Client) buildHTTPClient(opts Options) (*http.Client, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	return &http.Client{Transport: transport, Jar: c.jar}, nil
}

// hops records the requests issued while following redirects.
type hops struct {
	last  *http.Request
	count int
}

// Execute performs req and returns the captured transaction. The returned
// transaction is never in flight: on failure it carries the error next to
// whatever was captured, and the error is also returned.
func (c *Client) Execute(
	ctx context.Context,
	req *transaction.Request,
	opts Options,
	progress ProgressFunc,
) (tx *transaction.Transaction, err error) {
	httpReq, err := buildRequest(ctx, req)
	if err != nil {
		return rejected(req, "build", err), err
	}

	factory := c.httpFactory
	if factory == nil {
		factory = c.buildHTTPClient
	}
	client, err := factory(opts)
	if err != nil {
		err = fmt.Errorf("build http client: %w", err)
		return rejected(req, "client", err), err
	}
	if opts.Timeout > 0 {
		client.Timeout = opts.Timeout
	}

	rec := &hops{last: httpReq}
	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}
	client.CheckRedirect = func(next *http.Request, via []*http.Request) error {
		if !opts.FollowRedirects {
			return http.ErrUseLastResponse
		}
		if len(via) > maxRedirects {
			return fmt.Errorf("stopped after %d redirects: %w", maxRedirects, errTooManyRedirects)
		}
		rec.last = next
		rec.count = len(via)
		return nil
	}

	original := req.Clone()
	original.Method = httpReq.Method
	original.Timeout = opts.Timeout
	original.FollowRedirects = opts.FollowRedirects
	tx = transaction.New(original)
	tx.Progress = &transaction.Progress{}

	instr := c.telemetry
	if instr == nil {
		instr = telemetry.Noop()
	}
	var budget *nettrace.Budget
	if opts.TraceBudget != nil {
		b := opts.TraceBudget.Clone()
		budget = &b
	}
	spanCtx, span := instr.Start(httpReq.Context(), telemetry.RequestStart{
		Transaction: tx,
		HTTPRequest: httpReq,
		Budget:      budget,
	})
	httpReq = httpReq.WithContext(spanCtx)

	sess := newTraceSession()
	httpReq = sess.bind(httpReq)

	var (
		proto    string
		tlsState *tls.ConnectionState
	)
	defer func() {
		tx.Timeline = sess.complete(proto, proxyForRequest(rec.last, client), tlsState)
		var b nettrace.Budget
		if budget != nil {
			b = *budget
		}
		tx.Report = nettrace.NewReport(tx.Timeline, b)
		if tx.Timeline != nil && tx.Timeline.Duration > 0 {
			tx.Duration = tx.Timeline.Duration
		}
		span.RecordTrace(tx.Timeline, tx.Report)
		result := telemetry.RequestResult{
			Err:       err,
			Redirects: tx.Redirects,
			Transfer:  tx.Transfer,
			Report:    tx.Report,
		}
		if tx.Response != nil {
			result.StatusCode = tx.Response.StatusCode
		}
		if tx.Error != nil {
			result.ErrorKind = tx.Error.Kind
		}
		span.End(result)
	}()

	notify := func() {
		if progress != nil {
			progress(tx.Clone())
		}
	}
	notify()

	start := time.Now()
	httpResp, err := client.Do(httpReq)
	if err != nil {
		sess.fail(err)
		tx.Duration = time.Since(start)
		tx.Progress = nil
		tx.Redirects = rec.count
		tx.Current = currentRequest(rec.last, tx.Original, "")
		tx.Error = Classify(err)
		tx.Transfer = &transaction.Transfer{
			RequestHeaderBytes: requestHeaderBytes(rec.last),
			RequestBodyBytes:   int64(len(tx.Current.Body)),
		}
		return tx, fmt.Errorf("perform request: %w", err)
	}
	defer httpResp.Body.Close()

	proto = httpResp.Proto
	tlsState = httpResp.TLS
	final := httpResp.Request
	if final == nil {
		final = rec.last
	}
	tx.Redirects = rec.count
	tx.Current = currentRequest(final, tx.Original, httpResp.Proto)
	tx.Response = &transaction.Response{
		Status:        httpResp.Status,
		StatusCode:    httpResp.StatusCode,
		Proto:         httpResp.Proto,
		Headers:       httpResp.Header.Clone(),
		ContentLength: httpResp.ContentLength,
	}
	if httpResp.ContentLength > 0 {
		tx.Progress.Total = httpResp.ContentLength
	}
	notify()

	sess.beginTransfer()
	reader := newProgressReader(httpResp.Body, func(n int64) {
		tx.Progress.Completed = n
		notify()
	})
	body, truncated, readErr := readCapped(reader, opts.MaxBodyBytes)
	sess.finishTransfer(readErr)

	tx.Duration = time.Since(start)
	tx.Progress = nil
	tx.Response.Body = body
	tx.Response.BodyTruncated = truncated
	tx.Transfer = &transaction.Transfer{
		RequestHeaderBytes:  requestHeaderBytes(final),
		RequestBodyBytes:    int64(len(tx.Current.Body)),
		ResponseHeaderBytes: responseHeaderBytes(httpResp),
		ResponseBodyBytes:   reader.n,
	}
	if readErr != nil {
		sess.fail(readErr)
		tx.Error = Classify(readErr)
		if tx.Error.Kind == transaction.ErrorOther {
			tx.Error.Kind = transaction.ErrorBody
		}
		if tx.Error.Op == "" {
			tx.Error.Op = "read"
		}
		err = fmt.Errorf("read response body: %w", readErr)
		return tx, err
	}
	return tx, nil
}

// rejected is the settled transaction for a request that never reached the
// transport.
func rejected(req *transaction.Request, op string, err error) *transaction.Transaction {
	if req == nil {
		req = &transaction.Request{}
	}
	tx := transaction.New(req)
	tx.Error = &transaction.Error{Kind: transaction.ErrorOther, Op: op, Message: err.Error()}
	return tx
}

func buildRequest(ctx context.Context, req *transaction.Request) (*http.Request, error) {
	if req == nil {
		return nil, errors.New("request is nil")
	}
	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		return nil, errors.New("request url is empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for name, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	return httpReq, nil
}

// currentRequest snapshots the request that actually went on the wire.
func currentRequest(r *http.Request, original *transaction.Request, proto string) *transaction.Request {
	if r == nil {
		return original.Clone()
	}
	cur := &transaction.Request{
		Method:          r.Method,
		URL:             r.URL.String(),
		Proto:           proto,
		Headers:         r.Header.Clone(),
		Timeout:         original.Timeout,
		FollowRedirects: original.FollowRedirects,
	}
	if r.Host != "" && r.Host != r.URL.Host {
		cur.Headers.Set("Host", r.Host)
	}
	// The client only resends the body when the method survives the redirect.
	if r.ContentLength != 0 && strings.EqualFold(r.Method, original.Method) {
		cur.Body = append([]byte(nil), original.Body...)
	}
	return cur
}

func readCapped(r io.Reader, limit int64) ([]byte, bool, error) {
	if limit == 0 {
		limit = DefaultMaxBodyBytes
	}
	if limit < 0 {
		_, err := io.Copy(io.Discard, r)
		return nil, false, err
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, limit))
	if err != nil {
		return buf.Bytes(), false, err
	}
	if n < limit {
		return buf.Bytes(), false, nil
	}
	extra, err := io.Copy(io.Discard, r)
	return buf.Bytes(), extra > 0, err
}

func requestHeaderBytes(r *http.Request) int64 {
	if r == nil {
		return 0
	}
	line := len(r.Method) + len(r.URL.RequestURI()) + len(" HTTP/1.1\r\n") + 1
	host := int64(len("Host: \r\n") + len(r.URL.Host))
	return int64(line) + host + transaction.HeaderSize(r.Header) + 2
}

func responseHeaderBytes(resp *http.Response) int64 {
	line := len(resp.Proto) + 1 + len(resp.Status) + 2
	return int64(line) + transaction.HeaderSize(resp.Header) + 2
}
