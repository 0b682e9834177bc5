package inspector

const livingRoomPreviewLimit = 5

// livingRoomRenderer turns every section into a focusable row. Nothing is
// shown inline beyond a short preview; full data lives behind the row.
type livingRoomRenderer struct {
	layout Layout
}

func (livingRoomRenderer) Class() DeviceClass { return DeviceLivingRoom }

func (r livingRoomRenderer) Layout() Layout { return r.layout }

func (r livingRoomRenderer) Render(s Snapshot, _ ViewState) Tree {
	t := Tree{Class: DeviceLivingRoom, Layout: r.layout, Header: headerFor(s)}
	t.Nodes = append(t.Nodes, titleNode(s))
	t.Nodes = appendLink(t.Nodes, s.Summary, livingRoomPreviewLimit, DestinationSummary)
	t.Nodes = appendLink(t.Nodes, s.Error, livingRoomPreviewLimit, DestinationError)
	t.Nodes = appendLink(t.Nodes, s.RequestBody, livingRoomPreviewLimit, DestinationRequestBody)
	if s.ResponseSummary != nil {
		t.Nodes = appendLink(t.Nodes, s.ResponseBody, livingRoomPreviewLimit, DestinationResponseBody)
	}
	t.Nodes = appendLink(t.Nodes, s.OriginalRequestHeaders, livingRoomPreviewLimit, DestinationOriginalRequestHeaders)
	if s.ResponseSummary != nil {
		t.Nodes = appendLink(t.Nodes, s.ResponseHeaders, livingRoomPreviewLimit, DestinationResponseHeaders)
	}
	if s.TimingDetails != nil && s.Timing != nil {
		t.Nodes = appendLink(t.Nodes, s.TimingDetails, livingRoomPreviewLimit, DestinationTiming)
	}
	return t
}
