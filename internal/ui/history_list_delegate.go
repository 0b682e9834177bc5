package ui

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/unkn0wn-root/netscope/internal/history"
	"github.com/unkn0wn-root/netscope/internal/theme"
)

const historyLineEllipsis = "..."

type historyItem struct {
	entry history.Entry
}

func (i historyItem) FilterValue() string { return i.entry.Method + " " + i.entry.URL }
func (i historyItem) Title() string       { return i.entry.Method + " " + i.entry.URL }
func (i historyItem) Description() string { return i.entry.Status }

func historyItems(entries []history.Entry) []list.Item {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = historyItem{entry: e}
	}
	return items
}

// historyDelegate draws an entry as a status/method/target row followed by a
// dimmed row with timing, capture time and source.
type historyDelegate struct {
	list.DefaultDelegate
	th  theme.Theme
	now func() time.Time
}

type historyLineFrame struct {
	padL  int
	padR  int
	width int
}

func (d historyDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	hi, ok := item.(historyItem)
	if !ok {
		return
	}
	width := m.Width()
	if width <= 0 {
		return
	}

	titleStyle, descStyle := historyItemStyles(d.Styles, m, index)
	titleSeg := historySegmentStyle(titleStyle)
	descSeg := historySegmentStyle(descStyle)

	titleFrame := newHistoryLineFrame(titleStyle, width)
	title := historyTrimLine(renderHistoryTitleLine(hi.entry, titleSeg, d.th), titleFrame.width)
	_, _ = io.WriteString(w, titleStyle.Render(titleFrame.pad(title)))

	if !d.ShowDescription {
		return
	}
	now := time.Now
	if d.now != nil {
		now = d.now
	}
	descFrame := newHistoryLineFrame(descStyle, width)
	desc := historyTrimLine(descSeg.Render(historyDescription(hi.entry, now())), descFrame.width)
	_, _ = io.WriteString(w, "\n"+descStyle.Render(descFrame.pad(desc)))
}

func historyItemStyles(s list.DefaultItemStyles, m list.Model, index int) (lipgloss.Style, lipgloss.Style) {
	if index == m.Index() {
		return s.SelectedTitle, s.SelectedDesc
	}
	return s.NormalTitle, s.NormalDesc
}

// historySegmentStyle copies only the text attributes of base so segments can
// be rendered inside the padded frame.
func historySegmentStyle(base lipgloss.Style) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(base.GetForeground()).
		Background(base.GetBackground()).
		Bold(base.GetBold()).
		Italic(base.GetItalic()).
		Faint(base.GetFaint())
}

func newHistoryLineFrame(style lipgloss.Style, width int) historyLineFrame {
	f := historyLineFrame{padL: style.GetPaddingLeft(), padR: style.GetPaddingRight()}
	f.width = maxInt(width-f.padL-f.padR-style.GetBorderLeftSize()-style.GetBorderRightSize(), 0)
	return f
}

// pad fills content to the frame width so selected rows are drawn edge to
// edge.
func (f historyLineFrame) pad(content string) string {
	return padRight(content, f.width)
}

func renderHistoryTitleLine(e history.Entry, base lipgloss.Style, th theme.Theme) string {
	status := historyStatusStyle(base, th, e).Render(historyStatusText(e))
	method := base.Foreground(th.MethodColor(e.Method)).Bold(true).Render(padRight(e.Method, 7))
	return status + base.Render(" ") + method + base.Render(historyTarget(e))
}

func historyStatusText(e history.Entry) string {
	switch {
	case e.StatusCode > 0:
		return fmt.Sprintf("%d", e.StatusCode)
	case strings.TrimSpace(e.Status) != "":
		return e.Status
	default:
		return "---"
	}
}

func historyStatusStyle(base lipgloss.Style, th theme.Theme, e history.Entry) lipgloss.Style {
	switch {
	case e.StatusCode >= 400:
		return base.Foreground(th.Tints.Failure)
	case e.StatusCode > 0:
		return base.Foreground(th.Tints.Success)
	case e.Transaction != nil && e.Transaction.Error != nil:
		return base.Foreground(th.Tints.Failure)
	default:
		return base.Foreground(th.Tints.Pending)
	}
}

// historyTarget is host plus path, without the scheme.
func historyTarget(e history.Entry) string {
	u, err := url.Parse(e.URL)
	if err != nil || u.Host == "" {
		return e.URL
	}
	target := u.Host + u.EscapedPath()
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return target
}

func historyDescription(e history.Entry, now time.Time) string {
	var parts []string
	if e.Duration > 0 {
		parts = append(parts, e.Duration.Round(time.Millisecond).String())
	}
	if e.Transaction != nil && e.Transaction.Transfer != nil {
		parts = append(parts, humanize.IBytes(uint64(e.Transaction.Transfer.Received())))
	}
	if !e.CapturedAt.IsZero() {
		parts = append(parts, humanize.RelTime(e.CapturedAt, now, "ago", "from now"))
	}
	if e.Source != "" && e.Source != history.SourceCapture {
		parts = append(parts, e.Source)
	}
	if len(parts) == 0 {
		return "pending"
	}
	return strings.Join(parts, " · ")
}

func historyTrimLine(line string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(line, width, historyLineEllipsis)
}
