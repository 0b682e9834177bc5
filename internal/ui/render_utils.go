package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/unkn0wn-root/netscope/internal/inspector"
	"github.com/unkn0wn-root/netscope/internal/theme"
)

const ellipsis = "…"

func visibleWidth(s string) int {
	if s == "" {
		return 0
	}
	return runewidth.StringWidth(ansi.Strip(s))
}

func truncateToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if visibleWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, ellipsis)
}

// padRight pads s with spaces to width display cells.
func padRight(s string, width int) string {
	gap := width - visibleWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

func roleColor(th theme.Theme, role inspector.Role) lipgloss.Color {
	switch role {
	case inspector.RoleSummary:
		return th.Roles.Summary
	case inspector.RoleRequest:
		return th.Roles.Request
	case inspector.RoleResponse:
		return th.Roles.Response
	case inspector.RoleError:
		return th.Roles.Error
	case inspector.RoleTiming:
		return th.Roles.Timing
	default:
		return th.Roles.Neutral
	}
}

func tintColor(th theme.Theme, tint inspector.Tint) lipgloss.Color {
	switch tint {
	case inspector.TintSuccess:
		return th.Tints.Success
	case inspector.TintFailure:
		return th.Tints.Failure
	default:
		return th.Tints.Pending
	}
}

func blankLines(n int) []string {
	if n <= 0 {
		return nil
	}
	return make([]string, n)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
