package ui

import (
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/charmbracelet/x/ansi"

	"github.com/unkn0wn-root/netscope/internal/inspector"
	"github.com/unkn0wn-root/netscope/internal/theme"
)

const (
	diffOriginalLabel = "original"
	diffCurrentLabel  = "current"
)

func renderRequestDiff(th theme.Theme, diff *inspector.RequestDiff, width int) string {
	if diff == nil {
		return th.BodyPlaceholder.Render("Nothing to compare.")
	}
	if diff.Original == diff.Current {
		return th.BodyPlaceholder.Render("The request was sent exactly as built.")
	}
	unified := udiff.Unified(diffOriginalLabel, diffCurrentLabel, ensureTrailingNewline(diff.Original), ensureTrailingNewline(diff.Current))
	return colorizeDiff(th, strings.TrimRight(unified, "\n"), width)
}

func ensureTrailingNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

func colorizeDiff(th theme.Theme, diff string, width int) string {
	lines := strings.Split(diff, "\n")
	for i, line := range lines {
		line = truncateGraphemes(ansi.Strip(line), width)
		switch {
		case strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---"):
			lines[i] = th.ItemMore.Render(line)
		case strings.HasPrefix(line, "@@"):
			lines[i] = th.DiffHunk.Render(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = th.DiffAdded.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = th.DiffRemoved.Render(line)
		default:
			lines[i] = th.DiffContext.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
