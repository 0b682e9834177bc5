package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/unkn0wn-root/netscope/internal/inspector"
	"github.com/unkn0wn-root/netscope/internal/theme"
)

const (
	headerGap        = 1
	progressBarWidth = 24
)

// headerLine lays out left segments and a right-aligned label on one row.
// Trailing left segments are dropped before the right label is.
func headerLine(left []string, sep, right string, rightStyle lipgloss.Style, width int) string {
	if width <= 0 {
		return ""
	}
	rightText := strings.TrimSpace(right)
	if len(left) == 0 {
		if rightText == "" {
			return ""
		}
		return fitWidth(rightStyle.Render(truncateToWidth(rightText, width)), width)
	}

	widths := make([]int, len(left))
	for i, seg := range left {
		widths[i] = lipgloss.Width(seg)
	}
	rendered := ""
	rightWidth := 0
	if room := width - headerGap - widths[0]; room > 0 && rightText != "" {
		inner := maxInt(1, room-rightStyle.GetHorizontalFrameSize())
		rendered = rightStyle.Render(truncateToWidth(rightText, inner))
		rightWidth = lipgloss.Width(rendered)
	}

	budget := width
	if rendered != "" {
		budget = width - headerGap - rightWidth
	}
	sepWidth := lipgloss.Width(sep)
	used, count := widths[0], 1
	for i := 1; i < len(left); i++ {
		if used+sepWidth+widths[i] > budget {
			break
		}
		used += sepWidth + widths[i]
		count = i + 1
	}
	line := strings.Join(left[:count], sep)
	if rendered != "" {
		line += strings.Repeat(" ", maxInt(headerGap, width-used-rightWidth)) + rendered
	}
	return fitWidth(line, width)
}

func fitWidth(line string, width int) string {
	if lipgloss.Width(line) <= width {
		return line
	}
	return ansi.Truncate(line, width, "")
}

func headerSegment(th theme.Theme, idx int, text string) string {
	seg := th.HeaderSegment(idx)
	return lipgloss.NewStyle().
		Background(seg.Background).
		Foreground(seg.Foreground).
		Padding(0, 1).
		Render(text)
}

// renderAppHeader is the top row: brand, device class, theme and entry count
// on the left, the transaction being inspected on the right.
func (m Model) renderAppHeader() string {
	th := m.theme
	segs := []string{
		th.HeaderBrand.Render("netscope"),
		headerSegment(th, 0, string(m.resolvedDevice())),
		headerSegment(th, 1, m.themeName),
		headerSegment(th, 2, fmt.Sprintf("%d captured", len(m.list.Items()))),
	}
	right := ""
	if m.vm != nil {
		tx := m.vm.Transaction()
		right = strings.TrimSpace(tx.Method() + " " + tx.Host())
	}
	return th.Header.Render(headerLine(segs, th.HeaderSeparator.Render(" "), right, th.HeaderValue, m.width-th.Header.GetHorizontalFrameSize()))
}

// renderTreeHeader draws the transfer summary or the in-flight progress
// region of an inspector tree.
func renderTreeHeader(th theme.Theme, h inspector.Header, spin spinner.Model, bar progress.Model) string {
	switch {
	case h.Transfer != nil:
		return renderTransfer(th, *h.Transfer)
	case h.Progress != nil:
		return renderProgress(th, *h.Progress, spin, bar)
	default:
		return ""
	}
}

func renderTransfer(th theme.Theme, t inspector.TransferInfo) string {
	pill := func(idx int, text string) string { return headerSegment(th, idx, text) }
	parts := []string{
		pill(0, "↑ "+humanize.IBytes(uint64(t.Sent()))),
		pill(1, "↓ "+humanize.IBytes(uint64(t.Received()))),
	}
	if t.StatusCode > 0 {
		parts = append(parts, pill(2, fmt.Sprintf("%d", t.StatusCode)))
	}
	if t.Duration > 0 {
		parts = append(parts, pill(3, t.Duration.Round(time.Millisecond).String()))
	}
	return strings.Join(parts, " ")
}

func renderProgress(th theme.Theme, p inspector.ProgressInfo, spin spinner.Model, bar progress.Model) string {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = "Receiving"
	}
	line := spin.View() + " " + th.InspectorTitle.Render(title)
	if frac, ok := p.Fraction(); ok {
		return line + "  " + bar.ViewAs(frac) + " " +
			th.ItemMore.Render(fmt.Sprintf("%s / %s", humanize.IBytes(uint64(p.Completed)), humanize.IBytes(uint64(p.Total))))
	}
	if p.Completed > 0 {
		return line + "  " + th.ItemMore.Render(humanize.IBytes(uint64(p.Completed))+" received")
	}
	return line
}

func newProgressBar(th theme.Theme) progress.Model {
	bar := progress.New(progress.WithSolidFill(string(th.ProgressFilled)), progress.WithoutPercentage())
	bar.EmptyColor = string(th.ProgressEmpty)
	bar.Width = progressBarWidth
	return bar
}

func newSpinner(th theme.Theme) spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(th.Tints.Pending)
	return s
}
