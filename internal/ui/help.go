package ui

import (
	"strings"

	"github.com/unkn0wn-root/netscope/internal/bindings"
)

const helpKeyColumn = 18

func (m Model) renderHelp() string {
	th := m.theme
	lines := []string{th.DetailTitle.Render("Keys"), ""}
	for _, action := range bindings.HelpOrder() {
		labels := m.keys.Labels(action)
		if len(labels) == 0 {
			continue
		}
		keys := padRight(truncateToWidth(strings.Join(labels, ", "), helpKeyColumn), helpKeyColumn)
		lines = append(lines, "  "+th.StatusBarKey.Render(keys)+" "+th.ItemValue.Render(bindings.Describe(action)))
	}
	lines = append(lines, "", th.ItemMore.Render("Device "+string(m.resolvedDevice())+" · theme "+m.themeName))
	return strings.Join(lines, "\n")
}
