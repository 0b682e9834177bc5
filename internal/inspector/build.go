package inspector

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/unkn0wn-root/netscope/internal/transaction"
)

func buildSnapshot(tx *transaction.Transaction) Snapshot {
	if tx == nil {
		tx = &transaction.Transaction{}
	}
	s := Snapshot{State: tx.State()}
	s.Summary = summarySection(tx)

	if tx.Original != nil {
		s.OriginalRequestSummary = originalRequestSummary(tx.Original)
		s.OriginalRequestQueryItems = queryItemsSection(tx.Original.URL, DestinationOriginalQueryItems)
		s.OriginalRequestParameters = parametersSection(tx.Original, DestinationOriginalParameters)
	}
	if tx.Current != nil {
		s.CurrentRequestSummary = currentRequestSummary(tx.Current)
		s.CurrentRequestQueryItems = queryItemsSection(tx.Current.URL, DestinationCurrentQueryItems)
		s.CurrentRequestParameters = parametersSection(tx.Current, DestinationCurrentParameters)
	}
	s.OriginalRequestHeaders = headersSection(
		"Request Headers",
		requestHeaders(tx.Original),
		RoleRequest,
		DestinationOriginalRequestHeaders,
	)
	s.CurrentRequestHeaders = headersSection(
		"Request Headers",
		requestHeaders(tx.Current),
		RoleRequest,
		DestinationCurrentRequestHeaders,
	)

	sent := tx.Current
	if sent == nil {
		sent = tx.Original
	}
	s.RequestBodyContent = requestBody(sent)
	s.RequestBody = bodySection("Request Body", s.RequestBodyContent, RoleRequest, DestinationRequestBody)

	if resp := tx.Response; resp != nil && tx.Progress == nil {
		s.ResponseSummary = responseSummary(resp)
		s.ResponseHeaders = headersSection(
			"Response Headers",
			resp.Headers,
			RoleResponse,
			DestinationResponseHeaders,
		)
		s.ResponseBodyContent = &Body{
			ContentType: resp.ContentType(),
			Data:        resp.Body,
			Size:        int64(len(resp.Body)),
			Truncated:   resp.BodyTruncated,
		}
		s.ResponseBody = bodySection("Response Body", s.ResponseBodyContent, RoleResponse, DestinationResponseBody)
	}

	if tx.Error != nil {
		s.Error = errorSection(tx.Error)
	}

	if tx.Timeline != nil {
		s.Timing = &Timing{Timeline: tx.Timeline, Report: tx.Report}
		s.TimingDetails = timingDetails(tx)
	}

	switch {
	case tx.Transfer != nil:
		info := &TransferInfo{Transfer: *tx.Transfer, Duration: tx.Duration}
		if tx.Response != nil {
			info.StatusCode = tx.Response.StatusCode
		}
		s.Transfer = info
	case tx.Progress != nil:
		title := "Pending"
		if tx.Progress.Completed > 0 {
			title = "Receiving"
		}
		s.Progress = &ProgressInfo{Title: title, Progress: *tx.Progress}
	}

	if tx.Original != nil && tx.Current != nil {
		s.Diff = &RequestDiff{
			Original: wireText(tx.Original),
			Current:  wireText(tx.Current),
		}
	}
	return s
}

func summarySection(tx *transaction.Transaction) *Section {
	sec := &Section{Title: statusTitle(tx), Role: RoleSummary}
	if u := tx.URL(); u != "" {
		sec.Items = append(sec.Items, Item{"URL", u})
	}
	if m := tx.Method(); m != "" {
		sec.Items = append(sec.Items, Item{"Method", m})
	}
	if tx.Response != nil && tx.Progress == nil {
		sec.Items = append(sec.Items, Item{"Status Code", strconv.Itoa(tx.Response.StatusCode)})
		if ct := tx.Response.ContentType(); ct != "" {
			sec.Items = append(sec.Items, Item{"Content Type", ct})
		}
	}
	if tx.Duration > 0 {
		sec.Items = append(sec.Items, Item{"Duration", formatDuration(tx.Duration)})
	}
	if tx.Redirects > 0 {
		sec.Items = append(sec.Items, Item{"Redirects", strconv.Itoa(tx.Redirects)})
	}
	sec.Action = &Action{Title: "Details", Destination: DestinationSummary}
	return sec
}

func statusTitle(tx *transaction.Transaction) string {
	switch {
	case tx.Error != nil:
		return "Failure"
	case tx.Response != nil && tx.Progress == nil:
		if text := http.StatusText(tx.Response.StatusCode); text != "" {
			return fmt.Sprintf("%d %s", tx.Response.StatusCode, text)
		}
		return strconv.Itoa(tx.Response.StatusCode)
	default:
		return "Pending"
	}
}

func originalRequestSummary(req *transaction.Request) *Section {
	sec := &Section{Title: "Request Summary", Role: RoleRequest}
	sec.Items = append(sec.Items, Item{"URL", req.URL}, Item{"Method", strings.ToUpper(req.Method)})
	if req.Timeout > 0 {
		sec.Items = append(sec.Items, Item{"Timeout", formatDuration(req.Timeout)})
	}
	sec.Items = append(sec.Items, Item{"Follow Redirects", yesNo(req.FollowRedirects)})
	return sec
}

func currentRequestSummary(req *transaction.Request) *Section {
	sec := &Section{Title: "Request Summary", Role: RoleRequest}
	sec.Items = append(sec.Items, Item{"URL", req.URL}, Item{"Method", strings.ToUpper(req.Method)})
	if u, err := url.Parse(req.URL); err == nil && u.Host != "" {
		sec.Items = append(sec.Items, Item{"Host", u.Host})
	}
	if req.Proto != "" {
		sec.Items = append(sec.Items, Item{"Protocol", req.Proto})
	}
	return sec
}

// queryItemsSection keeps the order in which items appear in the URL.
func queryItemsSection(rawURL string, dest Destination) *Section {
	u, err := url.Parse(rawURL)
	if err != nil || u.RawQuery == "" {
		return nil
	}
	items := orderedPairs(u.RawQuery)
	if len(items) == 0 {
		return nil
	}
	return &Section{
		Title:  "Query Items",
		Items:  items,
		Role:   RoleRequest,
		Action: &Action{Title: "View", Destination: dest},
	}
}

func parametersSection(req *transaction.Request, dest Destination) *Section {
	if req.FormParameters() == nil {
		return nil
	}
	return &Section{
		Title:  "Parameters",
		Items:  orderedPairs(string(req.Body)),
		Role:   RoleRequest,
		Action: &Action{Title: "View", Destination: dest},
	}
}

func orderedPairs(raw string) []Item {
	var items []Item
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		items = append(items, Item{key, value})
	}
	return items
}

func requestHeaders(req *transaction.Request) http.Header {
	if req == nil {
		return nil
	}
	return req.Headers
}

func headersSection(title string, h http.Header, role Role, dest Destination) *Section {
	sec := &Section{Title: title, Role: role}
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range h[k] {
			sec.Items = append(sec.Items, Item{k, v})
		}
	}
	if len(sec.Items) > 0 {
		sec.Action = &Action{Title: "View Raw", Destination: dest}
	}
	return sec
}

func requestBody(req *transaction.Request) *Body {
	if req == nil {
		return &Body{}
	}
	return &Body{
		ContentType: req.ContentType(),
		Data:        req.Body,
		Size:        int64(len(req.Body)),
	}
}

func bodySection(title string, body *Body, role Role, dest Destination) *Section {
	sec := &Section{Title: title, Role: role}
	if body == nil || body.Size == 0 {
		return sec
	}
	if body.ContentType != "" {
		sec.Items = append(sec.Items, Item{"Content Type", body.ContentType})
	}
	size := humanize.Bytes(uint64(body.Size))
	if body.Truncated {
		size += " (truncated)"
	}
	sec.Items = append(sec.Items, Item{"Size", size})
	sec.Action = &Action{Title: "View", Destination: dest}
	return sec
}

func responseSummary(resp *transaction.Response) *Section {
	sec := &Section{Title: "Response Summary", Role: RoleResponse}
	sec.Items = append(sec.Items, Item{"Status Code", strconv.Itoa(resp.StatusCode)})
	if ct := resp.ContentType(); ct != "" {
		sec.Items = append(sec.Items, Item{"Content Type", ct})
	}
	if resp.ContentLength >= 0 {
		sec.Items = append(sec.Items, Item{"Expected Length", humanize.Bytes(uint64(resp.ContentLength))})
	} else {
		sec.Items = append(sec.Items, Item{"Expected Length", "unknown"})
	}
	if resp.Proto != "" {
		sec.Items = append(sec.Items, Item{"Protocol", resp.Proto})
	}
	return sec
}

func errorSection(e *transaction.Error) *Section {
	sec := &Section{Title: "Error", Role: RoleError}
	sec.Items = append(sec.Items, Item{"Kind", string(e.Kind)})
	if e.Code != 0 {
		sec.Items = append(sec.Items, Item{"Code", strconv.Itoa(e.Code)})
	}
	if e.Op != "" {
		sec.Items = append(sec.Items, Item{"Operation", e.Op})
	}
	sec.Items = append(sec.Items, Item{"Description", e.Message})
	sec.Action = &Action{Title: "View", Destination: DestinationError}
	return sec
}

func timingDetails(tx *transaction.Transaction) *Section {
	tl := tx.Timeline
	sec := &Section{Title: "Timing", Role: RoleTiming}
	if !tl.Started.IsZero() {
		sec.Items = append(sec.Items, Item{"Start Date", tl.Started.Local().Format("2006-01-02 15:04:05.000")})
	}
	total := tl.Duration
	if total == 0 {
		total = tx.Duration
	}
	sec.Items = append(sec.Items, Item{"Duration", formatDuration(total)})
	for _, ph := range tl.Combined() {
		sec.Items = append(sec.Items, Item{ph.Kind.Label(), formatDuration(ph.Duration)})
	}
	if tx.Report != nil && !tx.Report.BudgetReport.WithinLimit() {
		sec.Items = append(sec.Items, Item{"Budget", fmt.Sprintf("%d breach(es)", len(tx.Report.BudgetReport.Breaches))})
	}
	sec.Action = &Action{Title: "View", Destination: DestinationTiming}
	return sec
}

// wireText renders a request the way it would look on an HTTP/1.1 wire.
func wireText(req *transaction.Request) string {
	var b strings.Builder
	target := req.URL
	if u, err := url.Parse(req.URL); err == nil {
		target = u.RequestURI()
		fmt.Fprintf(&b, "%s %s\nHost: %s\n", strings.ToUpper(req.Method), target, u.Host)
	} else {
		fmt.Fprintf(&b, "%s %s\n", strings.ToUpper(req.Method), target)
	}
	keys := make([]string, 0, len(req.Headers))
	for k := range req.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range req.Headers[k] {
			fmt.Fprintf(&b, "%s: %s\n", k, v)
		}
	}
	if len(req.Body) > 0 {
		b.WriteString("\n")
		b.Write(req.Body)
		if !strings.HasSuffix(string(req.Body), "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0ms"
	case d < time.Millisecond:
		return d.Round(time.Microsecond).String()
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return d.Round(10 * time.Millisecond).String()
	}
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
