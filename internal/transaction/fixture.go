package transaction

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/netscope/internal/nettrace"
)

type fixtureFile struct {
	Transactions []fixture `yaml:"transactions"`
}

type fixture struct {
	ID        string           `yaml:"id"`
	CreatedAt time.Time        `yaml:"created_at"`
	Duration  time.Duration    `yaml:"duration"`
	Redirects int              `yaml:"redirects"`
	Request   *fixtureRequest  `yaml:"request"`
	Current   *fixtureRequest  `yaml:"current_request"`
	Response  *fixtureResponse `yaml:"response"`
	Error     *Error           `yaml:"error"`
	Timing    []fixturePhase   `yaml:"timing"`
	InFlight  *Progress        `yaml:"in_flight"`
}

type fixtureRequest struct {
	Method  string            `yaml:"method"`
	URL     string            `yaml:"url"`
	Proto   string            `yaml:"proto"`
	Headers map[string]string `yaml:"headers"`
	Body    string            `yaml:"body"`
	Timeout time.Duration     `yaml:"timeout"`
}

type fixtureResponse struct {
	StatusCode int               `yaml:"status_code"`
	Proto      string            `yaml:"proto"`
	Headers    map[string]string `yaml:"headers"`
	Body       string            `yaml:"body"`
}

type fixturePhase struct {
	Phase    string        `yaml:"phase"`
	Duration time.Duration `yaml:"duration"`
	Addr     string        `yaml:"addr"`
	Reused   bool          `yaml:"reused"`
}

// LoadFixtures reads transactions described in a YAML file.
func LoadFixtures(path string) ([]*Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures %q: %w", path, err)
	}
	return ParseFixtures(data)
}

func ParseFixtures(data []byte) ([]*Transaction, error) {
	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	var (
		out  []*Transaction
		errs error
	)
	for i, fx := range file.Transactions {
		tx, err := fx.build()
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("fixture %d: %w", i, err))
			continue
		}
		out = append(out, tx)
	}
	return out, errs
}

func (fx fixture) build() (*Transaction, error) {
	if fx.Request == nil || strings.TrimSpace(fx.Request.URL) == "" {
		return nil, errors.New("request url is required")
	}
	tx := &Transaction{
		ID:        fx.ID,
		CreatedAt: fx.CreatedAt,
		Duration:  fx.Duration,
		Redirects: fx.Redirects,
		Original:  fx.Request.snapshot(),
		Current:   fx.Current.snapshot(),
		Error:     fx.Error,
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	if tx.Current == nil {
		tx.Current = tx.Original.Clone()
	}

	if fx.InFlight != nil {
		p := *fx.InFlight
		tx.Progress = &p
		return tx, nil
	}

	if fx.Response != nil {
		tx.Response = fx.Response.snapshot()
	}
	if len(fx.Timing) > 0 {
		tx.Timeline = fixtureTimeline(tx.CreatedAt, fx.Timing)
		if tx.Duration == 0 {
			tx.Duration = tx.Timeline.Duration
		}
		tx.Report = nettrace.NewReport(tx.Timeline, nettrace.Budget{})
	}
	if tx.Response != nil || tx.Error != nil {
		tr := Transfer{
			RequestHeaderBytes: HeaderSize(tx.Current.Headers),
			RequestBodyBytes:   int64(len(tx.Current.Body)),
		}
		if tx.Response != nil {
			tr.ResponseHeaderBytes = HeaderSize(tx.Response.Headers)
			tr.ResponseBodyBytes = int64(len(tx.Response.Body))
		}
		tx.Transfer = &tr
	}
	return tx, nil
}

func (fr *fixtureRequest) snapshot() *Request {
	if fr == nil {
		return nil
	}
	method := strings.ToUpper(strings.TrimSpace(fr.Method))
	if method == "" {
		method = http.MethodGet
	}
	return &Request{
		Method:  method,
		URL:     strings.TrimSpace(fr.URL),
		Proto:   fr.Proto,
		Headers: fixtureHeaders(fr.Headers),
		Body:    bodyBytes(fr.Body),
		Timeout: fr.Timeout,
	}
}

func (fr *fixtureResponse) snapshot() *Response {
	code := fr.StatusCode
	if code == 0 {
		code = http.StatusOK
	}
	body := bodyBytes(fr.Body)
	return &Response{
		Status:        fmt.Sprintf("%d %s", code, http.StatusText(code)),
		StatusCode:    code,
		Proto:         fr.Proto,
		Headers:       fixtureHeaders(fr.Headers),
		Body:          body,
		ContentLength: int64(len(body)),
	}
}

func fixtureHeaders(in map[string]string) http.Header {
	if len(in) == 0 {
		return http.Header{}
	}
	h := make(http.Header, len(in))
	for k, v := range in {
		for _, part := range strings.Split(v, "\n") {
			h.Add(k, strings.TrimSpace(part))
		}
	}
	return h
}

func fixtureTimeline(start time.Time, phases []fixturePhase) *nettrace.Timeline {
	c := nettrace.NewCollector()
	at := start
	for _, ph := range phases {
		kind := nettrace.PhaseKind(strings.ToLower(strings.TrimSpace(ph.Phase)))
		c.Begin(kind, at)
		c.UpdateMeta(kind, func(m *nettrace.PhaseMeta) {
			m.Addr = ph.Addr
			m.Reused = ph.Reused
		})
		at = at.Add(ph.Duration)
		c.End(kind, at, nil)
	}
	c.Complete(at)
	return c.Timeline()
}

func bodyBytes(s string) []byte {
	if s == "" {
		return nil
	}
	return []byte(s)
}
