package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rivo/uniseg"

	"github.com/unkn0wn-root/netscope/internal/inspector"
	"github.com/unkn0wn-root/netscope/internal/theme"
)

const (
	treeIndent     = 2
	maxLabelColumn = 28
	linkMarker     = "› "
	linkArrow      = " ›"
)

// treeView is a rendered inspector tree. links holds the line index of every
// selectable row in the order of Tree.Links.
type treeView struct {
	lines []string
	links []int
}

type treeRenderer struct {
	th       theme.Theme
	layout   inspector.Layout
	width    int
	selected int
	out      treeView
}

func renderTree(th theme.Theme, tree inspector.Tree, width, selected int) treeView {
	if width <= 0 {
		width = defaultContentWidth
	}
	r := &treeRenderer{th: th, layout: tree.Layout, width: width, selected: selected}
	for i, n := range tree.Nodes {
		r.node(n, 0)
		if i == len(tree.Nodes)-1 {
			break
		}
		gap := r.layout.SectionGap
		if n.Kind == inspector.NodeTitle {
			gap = r.layout.TitleGap
		}
		r.out.lines = append(r.out.lines, blankLines(gap)...)
	}
	return r.out
}

func (r *treeRenderer) emit(depth int, line string) {
	pad := strings.Repeat(" ", depth*treeIndent)
	r.out.lines = append(r.out.lines, truncateToWidth(pad+line, r.width))
}

// emitLink appends a selectable row. The selected row is drawn with the
// LinkSelected style over its plain text.
func (r *treeRenderer) emitLink(depth int, text string, style lipgloss.Style, hint string) {
	idx := len(r.out.links)
	r.out.links = append(r.out.links, len(r.out.lines))

	avail := r.width - depth*treeIndent - visibleWidth(linkMarker)
	tail := ""
	if hint != "" {
		tail = " " + hint + linkArrow
		avail = maxInt(1, avail-visibleWidth(tail))
		text = padRight(truncateToWidth(text, avail), avail)
	} else {
		text = truncateToWidth(text, avail)
	}
	if idx == r.selected {
		r.emit(depth, r.th.LinkSelected.Render(linkMarker+text+tail))
		return
	}
	r.emit(depth, strings.Repeat(" ", visibleWidth(linkMarker))+style.Render(text)+r.th.ActionHint.Render(tail))
}

func (r *treeRenderer) node(n inspector.Node, depth int) {
	switch n.Kind {
	case inspector.NodeTitle:
		glyph := lipgloss.NewStyle().Foreground(tintColor(r.th, n.Tint)).Render(n.Glyph)
		r.emit(depth, glyph+" "+r.th.InspectorTitle.Render(n.Title))
	case inspector.NodeSection:
		r.section(n, depth)
	case inspector.NodeGroup:
		r.group(n, depth)
	case inspector.NodeLink:
		r.link(n, depth)
	}
}

func (r *treeRenderer) titleStyle(n inspector.Node) lipgloss.Style {
	return r.th.SectionTitle.Foreground(roleColor(r.th, n.Role))
}

func (r *treeRenderer) section(n inspector.Node, depth int) {
	selectable := n.Destination != inspector.DestinationNone
	switch {
	case n.Title != "" && selectable:
		r.emitLink(depth, n.Title, r.titleStyle(n), n.ActionTitle)
	case n.Title != "":
		r.emit(depth, r.titleStyle(n).Render(n.Title))
	}
	r.items(n.Shown, depth+1)
	if n.Hidden > 0 {
		r.emit(depth+1, r.th.ItemMore.Render(fmt.Sprintf("… %d more", n.Hidden)))
	}
	if n.Title == "" && selectable {
		r.emitLink(depth+1, n.ActionTitle+linkArrow, r.th.ActionHint, "")
	}
}

func (r *treeRenderer) group(n inspector.Node, depth int) {
	title := r.titleStyle(n).Bold(true).Render(strings.ToUpper(n.Title))
	if n.Picker != nil {
		title += "  " + r.picker(*n.Picker)
	}
	r.emit(depth, title)
	for i, child := range n.Children {
		if i > 0 {
			r.out.lines = append(r.out.lines, blankLines(r.layout.SectionGap)...)
		}
		r.node(child, depth+1)
	}
}

func (r *treeRenderer) picker(p inspector.Picker) string {
	parts := make([]string, len(p.Options))
	for i, opt := range p.Options {
		if i == p.Selected {
			parts[i] = r.th.PickerActive.Render(opt)
		} else {
			parts[i] = r.th.PickerInactive.Render(opt)
		}
	}
	return strings.Join(parts, " ")
}

// link rows are a single navigable line with a dimmed preview below.
func (r *treeRenderer) link(n inspector.Node, depth int) {
	hint := n.ActionTitle
	if hint == "" {
		hint = "Open"
	}
	r.emitLink(depth, n.Title, r.titleStyle(n), hint)
	for _, it := range n.Shown {
		r.emit(depth+2, r.th.ItemMore.Render(previewLine(it)))
	}
	if n.Hidden > 0 {
		r.emit(depth+2, r.th.ItemMore.Render(fmt.Sprintf("… %d more", n.Hidden)))
	}
}

func previewLine(it inspector.Item) string {
	value := singleLine(it.Value)
	if it.Label == "" {
		return value
	}
	return it.Label + ": " + value
}

func (r *treeRenderer) items(items []inspector.Item, depth int) {
	if len(items) == 0 {
		return
	}
	col := labelColumn(items, (r.width-depth*treeIndent)/3)
	for _, it := range items {
		if it.Label == "" {
			r.emit(depth, r.th.ItemValue.Render(singleLine(it.Value)))
			continue
		}
		label := padRight(truncateToWidth(it.Label, col), col)
		r.emit(depth, r.th.ItemLabel.Render(label)+" "+r.th.ItemValue.Render(singleLine(it.Value)))
	}
}

// labelColumn is the width of the widest label, capped at limit.
func labelColumn(items []inspector.Item, limit int) int {
	limit = clamp(limit, 1, maxLabelColumn)
	col := 0
	for _, it := range items {
		col = maxInt(col, visibleWidth(it.Label))
	}
	return minInt(col, limit)
}

func singleLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", " ⏎ ")
}

// renderSectionScreen shows a section in full as a drill-down.
func renderSectionScreen(th theme.Theme, sec *inspector.Section, width int) string {
	if sec == nil || sec.Len() == 0 {
		return th.BodyPlaceholder.Render("Nothing to show.")
	}
	col := labelColumn(sec.Items, width/3)
	valueWidth := maxInt(8, width-col-1)
	lines := make([]string, 0, len(sec.Items))
	for _, it := range sec.Items {
		label := padRight(truncateToWidth(it.Label, col), col)
		wrapped := wrapValue(it.Value, valueWidth)
		for i, part := range wrapped {
			if i == 0 {
				lines = append(lines, th.ItemLabel.Render(label)+" "+th.ItemValue.Render(part))
				continue
			}
			lines = append(lines, strings.Repeat(" ", col+1)+th.ItemValue.Render(part))
		}
	}
	return strings.Join(lines, "\n")
}

// wrapValue hard wraps v at width cells, keeping explicit line breaks.
func wrapValue(v string, width int) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(v, "\r\n", "\n"), "\n") {
		var b strings.Builder
		used, state := 0, -1
		for line != "" {
			var cluster string
			var w int
			cluster, line, w, state = uniseg.FirstGraphemeClusterInString(line, state)
			if used+w > width && used > 0 {
				out = append(out, b.String())
				b.Reset()
				used = 0
			}
			b.WriteString(cluster)
			used += w
		}
		out = append(out, b.String())
	}
	return out
}
