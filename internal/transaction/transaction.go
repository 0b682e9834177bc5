package transaction

import (
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/netscope/internal/nettrace"
)

type State int

const (
	StatePending State = iota
	StateSuccess
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return "pending"
	}
}

// Request is a snapshot of a request. The original snapshot is what the caller
// built, the current one is what went on the wire after redirects.
type Request struct {
	Method          string        `json:"method"`
	URL             string        `json:"url"`
	Proto           string        `json:"proto,omitempty"`
	Headers         http.Header   `json:"headers,omitempty"`
	Body            []byte        `json:"body,omitempty"`
	Timeout         time.Duration `json:"timeout,omitempty"`
	FollowRedirects bool          `json:"followRedirects,omitempty"`
}

func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Headers = r.Headers.Clone()
	clone.Body = cloneBytes(r.Body)
	return &clone
}

func (r *Request) ContentType() string {
	if r == nil {
		return ""
	}
	return r.Headers.Get("Content-Type")
}

// FormParameters decodes a form-urlencoded body. It returns nil for any
// other content type.
func (r *Request) FormParameters() url.Values {
	if r == nil || len(r.Body) == 0 {
		return nil
	}
	mt, _, err := mime.ParseMediaType(r.ContentType())
	if err != nil || mt != "application/x-www-form-urlencoded" {
		return nil
	}
	values, err := url.ParseQuery(string(r.Body))
	if err != nil || len(values) == 0 {
		return nil
	}
	return values
}

type Response struct {
	Status        string      `json:"status"`
	StatusCode    int         `json:"statusCode"`
	Proto         string      `json:"proto,omitempty"`
	Headers       http.Header `json:"headers,omitempty"`
	Body          []byte      `json:"body,omitempty"`
	BodyTruncated bool        `json:"bodyTruncated,omitempty"`
	ContentLength int64       `json:"contentLength"`
}

func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Headers = r.Headers.Clone()
	clone.Body = cloneBytes(r.Body)
	return &clone
}

func (r *Response) ContentType() string {
	if r == nil {
		return ""
	}
	return r.Headers.Get("Content-Type")
}

type ErrorKind string

const (
	ErrorTimeout  ErrorKind = "timeout"
	ErrorDNS      ErrorKind = "dns"
	ErrorTLS      ErrorKind = "tls"
	ErrorRefused  ErrorKind = "refused"
	ErrorCanceled ErrorKind = "canceled"
	ErrorRedirect ErrorKind = "redirect"
	ErrorBody     ErrorKind = "body"
	ErrorOther    ErrorKind = "other"
)

// Error is a transport failure attached to a transaction. It is data to
// display, not a fault of the inspector.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Code    int       `json:"code,omitempty"`
	Message string    `json:"message"`
	Op      string    `json:"op,omitempty"`
}

// Transfer counts the bytes exchanged once the transfer completed.
type Transfer struct {
	RequestHeaderBytes  int64 `json:"requestHeaderBytes"`
	RequestBodyBytes    int64 `json:"requestBodyBytes"`
	ResponseHeaderBytes int64 `json:"responseHeaderBytes"`
	ResponseBodyBytes   int64 `json:"responseBodyBytes"`
}

func (t Transfer) Sent() int64     { return t.RequestHeaderBytes + t.RequestBodyBytes }
func (t Transfer) Received() int64 { return t.ResponseHeaderBytes + t.ResponseBodyBytes }

// Progress describes an in-flight download. Total is zero when unknown.
type Progress struct {
	Completed int64 `json:"completed"`
	Total     int64 `json:"total"`
}

func (p Progress) Fraction() (float64, bool) {
	if p.Total <= 0 {
		return 0, false
	}
	f := float64(p.Completed) / float64(p.Total)
	if f > 1 {
		f = 1
	}
	return f, true
}

type Transaction struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"createdAt"`
	Duration  time.Duration      `json:"duration"`
	Redirects int                `json:"redirects,omitempty"`
	Original  *Request           `json:"original,omitempty"`
	Current   *Request           `json:"current,omitempty"`
	Response  *Response          `json:"response,omitempty"`
	Error     *Error             `json:"error,omitempty"`
	Transfer  *Transfer          `json:"transfer,omitempty"`
	Progress  *Progress          `json:"progress,omitempty"`
	Timeline  *nettrace.Timeline `json:"-"`
	Report    *nettrace.Report   `json:"-"`
}

func New(req *Request) *Transaction {
	return &Transaction{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Original:  req.Clone(),
	}
}

func (t *Transaction) State() State {
	switch {
	case t == nil:
		return StatePending
	case t.Error != nil:
		return StateFailure
	case t.Response != nil && t.Progress == nil:
		if t.Response.StatusCode >= 400 {
			return StateFailure
		}
		return StateSuccess
	default:
		return StatePending
	}
}

// Host returns the host of the request that went on the wire, falling back to
// the original request.
func (t *Transaction) Host() string {
	if t == nil {
		return ""
	}
	for _, req := range []*Request{t.Current, t.Original} {
		if req == nil {
			continue
		}
		if u, err := url.Parse(req.URL); err == nil && u.Host != "" {
			return u.Host
		}
	}
	return ""
}

func (t *Transaction) Method() string {
	if t == nil {
		return ""
	}
	if t.Original != nil && t.Original.Method != "" {
		return strings.ToUpper(t.Original.Method)
	}
	if t.Current != nil {
		return strings.ToUpper(t.Current.Method)
	}
	return ""
}

func (t *Transaction) URL() string {
	if t == nil {
		return ""
	}
	if t.Original != nil {
		return t.Original.URL
	}
	if t.Current != nil {
		return t.Current.URL
	}
	return ""
}

func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	clone := *t
	clone.Original = t.Original.Clone()
	clone.Current = t.Current.Clone()
	clone.Response = t.Response.Clone()
	if t.Error != nil {
		e := *t.Error
		clone.Error = &e
	}
	if t.Transfer != nil {
		tr := *t.Transfer
		clone.Transfer = &tr
	}
	if t.Progress != nil {
		p := *t.Progress
		clone.Progress = &p
	}
	clone.Timeline = t.Timeline.Clone()
	clone.Report = t.Report.Clone()
	return &clone
}

// HeaderSize approximates the wire size of an HTTP/1.1 header block.
func HeaderSize(h http.Header) int64 {
	var n int64
	for key, values := range h {
		for _, v := range values {
			n += int64(len(key) + len(v) + 4)
		}
	}
	return n
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
