package inspector

type NodeKind int

const (
	NodeTitle NodeKind = iota
	NodeSection
	NodeGroup
	NodeLink
)

func (k NodeKind) String() string {
	switch k {
	case NodeTitle:
		return "title"
	case NodeSection:
		return "section"
	case NodeGroup:
		return "group"
	case NodeLink:
		return "link"
	default:
		return "unknown"
	}
}

// Picker is a two-way selector bound to ViewState.
type Picker struct {
	Options  []string
	Selected int
}

// Node is one element of a rendered tree.
//
// A section node carries the items it shows in Shown and the number it left
// out in Hidden. A link node is a navigable row; its Shown items are a
// preview only. Destination is set whenever the node can be drilled into.
type Node struct {
	Kind        NodeKind
	Title       string
	Glyph       string
	Tint        Tint
	Role        Role
	Section     *Section
	Limit       int
	Shown       []Item
	Hidden      int
	Destination Destination
	ActionTitle string
	Picker      *Picker
	Children    []Node
}

// Header is the region above the sections. At most one field is set.
type Header struct {
	Transfer *TransferInfo
	Progress *ProgressInfo
}

func (h Header) Empty() bool { return h.Transfer == nil && h.Progress == nil }

type Tree struct {
	Class  DeviceClass
	Layout Layout
	Header Header
	Nodes  []Node
}

// Walk visits nodes depth first. Returning false from fn skips the children
// of that node.
func (t Tree) Walk(fn func(n Node, depth int) bool) {
	var walk func(nodes []Node, depth int)
	walk = func(nodes []Node, depth int) {
		for _, n := range nodes {
			if fn(n, depth) {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(t.Nodes, 0)
}

// Links returns every node that has a destination, in display order.
func (t Tree) Links() []Node {
	var out []Node
	t.Walk(func(n Node, _ int) bool {
		if n.Destination != DestinationNone {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Find returns the first node showing sec.
func (t Tree) Find(sec *Section) (Node, bool) {
	var (
		found Node
		ok    bool
	)
	if sec == nil {
		return found, false
	}
	t.Walk(func(n Node, _ int) bool {
		if ok {
			return false
		}
		if n.Section == sec {
			found, ok = n, true
			return false
		}
		return true
	})
	return found, ok
}

func headerFor(s Snapshot) Header {
	if s.Transfer != nil {
		return Header{Transfer: s.Transfer}
	}
	if s.Progress != nil {
		return Header{Progress: s.Progress}
	}
	return Header{}
}

func sectionNode(sec *Section, limit int) (Node, bool) {
	if sec == nil {
		return Node{}, false
	}
	shown, hidden := sec.Preview(limit)
	n := Node{
		Kind:    NodeSection,
		Title:   sec.Title,
		Role:    sec.Role,
		Section: sec,
		Limit:   limit,
		Shown:   shown,
		Hidden:  hidden,
	}
	if sec.Action != nil {
		n.Destination = sec.Action.Destination
		n.ActionTitle = sec.Action.Title
	}
	if hidden > 0 && n.ActionTitle == "" {
		n.ActionTitle = "Show All"
	}
	return n, true
}

// linkNode turns sec into a navigable row. fallback is used when the section
// carries no action of its own.
func linkNode(sec *Section, limit int, fallback Destination) (Node, bool) {
	n, ok := sectionNode(sec, limit)
	if !ok {
		return Node{}, false
	}
	if n.Destination == DestinationNone {
		n.Destination = fallback
	}
	if n.Destination == DestinationNone {
		return Node{}, false
	}
	n.Kind = NodeLink
	return n, true
}

func appendSection(nodes []Node, sec *Section, limit int) []Node {
	if n, ok := sectionNode(sec, limit); ok {
		nodes = append(nodes, n)
	}
	return nodes
}

func appendLink(nodes []Node, sec *Section, limit int, fallback Destination) []Node {
	if n, ok := linkNode(sec, limit, fallback); ok {
		nodes = append(nodes, n)
	}
	return nodes
}

func titleNode(s Snapshot) Node {
	title := "Pending"
	if s.Summary != nil {
		title = s.Summary.Title
	}
	return Node{
		Kind:  NodeTitle,
		Title: title,
		Glyph: s.StatusGlyph(),
		Tint:  s.Tint(),
		Role:  RoleSummary,
	}
}
