package capture

import (
	"io"
	"time"
)

const progressInterval = 50 * time.Millisecond

// progressReader counts bytes read from the response body and reports them
// at most once per interval. The final count is always reported at EOF.
type progressReader struct {
	r        io.Reader
	n        int64
	report   func(n int64)
	last     time.Time
	interval time.Duration
}

func newProgressReader(r io.Reader, report func(int64)) *progressReader {
	return &progressReader{r: r, report: report, interval: progressInterval}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.n += int64(n)
	if p.report == nil {
		return n, err
	}
	now := time.Now()
	if err == io.EOF || now.Sub(p.last) >= p.interval {
		p.last = now
		p.report(p.n)
	}
	return n, err
}
