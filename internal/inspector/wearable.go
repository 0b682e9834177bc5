package inspector

const wearableHeaderLimit = 10

// wearableRenderer lays everything out in one flat column with a fixed order
// and no request picker.
type wearableRenderer struct {
	layout Layout
}

func (wearableRenderer) Class() DeviceClass { return DeviceWearable }

func (r wearableRenderer) Layout() Layout { return r.layout }

func (r wearableRenderer) Render(s Snapshot, _ ViewState) Tree {
	t := Tree{Class: DeviceWearable, Layout: r.layout, Header: headerFor(s)}
	t.Nodes = append(t.Nodes, titleNode(s))
	if n, ok := sectionNode(s.Summary, 0); ok {
		n.Title = ""
		t.Nodes = append(t.Nodes, n)
	}
	t.Nodes = appendSection(t.Nodes, s.Error, 0)
	t.Nodes = appendSection(t.Nodes, s.RequestBody, 0)
	t.Nodes = appendSection(t.Nodes, s.ResponseBody, 0)
	t.Nodes = appendSection(t.Nodes, s.OriginalRequestHeaders, wearableHeaderLimit)
	t.Nodes = appendSection(t.Nodes, s.ResponseHeaders, wearableHeaderLimit)
	t.Nodes = appendSection(t.Nodes, s.TimingDetails, 0)
	return t
}
