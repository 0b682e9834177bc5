package inspector

const largeHeaderLimit = 10

var requestPickerOptions = []string{"Original", "Current"}

type largeRenderer struct {
	layout Layout
}

func (largeRenderer) Class() DeviceClass { return DeviceLarge }

func (r largeRenderer) Layout() Layout { return r.layout }

func (r largeRenderer) Render(s Snapshot, vs ViewState) Tree {
	t := Tree{Class: DeviceLarge, Layout: r.layout, Header: headerFor(s)}

	t.Nodes = append(t.Nodes, titleNode(s))
	if n, ok := sectionNode(s.Summary, 0); ok {
		n.Title = ""
		t.Nodes = append(t.Nodes, n)
	}
	t.Nodes = appendSection(t.Nodes, s.Error, 0)
	if s.OriginalRequestSummary != nil {
		t.Nodes = append(t.Nodes, r.requestGroup(s, vs))
	}
	if s.ResponseSummary != nil {
		t.Nodes = append(t.Nodes, r.responseGroup(s))
	}
	t.Nodes = appendSection(t.Nodes, s.TimingDetails, 0)
	return t
}

func (largeRenderer) requestGroup(s Snapshot, vs ViewState) Node {
	summary := s.OriginalRequestSummary
	query := s.OriginalRequestQueryItems
	headers := s.OriginalRequestHeaders
	params := s.OriginalRequestParameters
	selected := 0
	if vs.ShowingCurrentRequest {
		summary = s.CurrentRequestSummary
		query = s.CurrentRequestQueryItems
		headers = s.CurrentRequestHeaders
		params = s.CurrentRequestParameters
		selected = 1
	}

	g := Node{
		Kind:   NodeGroup,
		Title:  "Request",
		Role:   RoleRequest,
		Picker: &Picker{Options: requestPickerOptions, Selected: selected},
	}
	g.Children = appendSection(g.Children, summary, 0)
	g.Children = appendSection(g.Children, query, largeHeaderLimit)
	g.Children = appendSection(g.Children, headers, largeHeaderLimit)
	g.Children = appendSection(g.Children, s.RequestBody, 0)
	g.Children = appendSection(g.Children, params, 0)
	if s.Diff != nil && s.Diff.Original != s.Diff.Current {
		g.Children = append(g.Children, Node{
			Kind:        NodeLink,
			Title:       "Changes",
			Role:        RoleRequest,
			Destination: DestinationRequestDiff,
			ActionTitle: "Compare",
		})
	}
	return g
}

func (largeRenderer) responseGroup(s Snapshot) Node {
	g := Node{Kind: NodeGroup, Title: "Response", Role: RoleResponse}
	g.Children = appendSection(g.Children, s.ResponseSummary, 0)
	g.Children = appendSection(g.Children, s.ResponseHeaders, largeHeaderLimit)
	g.Children = appendSection(g.Children, s.ResponseBody, 0)
	return g
}
