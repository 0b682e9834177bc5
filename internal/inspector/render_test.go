package inspector

import (
	"fmt"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/unkn0wn-root/netscope/internal/nettrace"
	"github.com/unkn0wn-root/netscope/internal/transaction"
)

func completedTx(t *testing.T) *transaction.Transaction {
	t.Helper()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := nettrace.NewCollector()
	c.Begin(nettrace.PhaseDNS, start)
	c.End(nettrace.PhaseDNS, start.Add(10*time.Millisecond), nil)
	c.Begin(nettrace.PhaseTTFB, start.Add(10*time.Millisecond))
	c.End(nettrace.PhaseTTFB, start.Add(60*time.Millisecond), nil)
	c.Complete(start.Add(60 * time.Millisecond))
	tl := c.Timeline()

	tx := &transaction.Transaction{
		ID:        "tx-1",
		CreatedAt: start,
		Duration:  60 * time.Millisecond,
		Redirects: 1,
		Original: &transaction.Request{
			Method:          "POST",
			URL:             "http://example.com/login?b=2&a=1",
			Headers:         http.Header{"Content-Type": {"application/x-www-form-urlencoded"}},
			Body:            []byte("user=alice&pass=secret"),
			FollowRedirects: true,
		},
		Current: &transaction.Request{
			Method:  "GET",
			URL:     "http://example.com/home?x=9",
			Proto:   "HTTP/1.1",
			Headers: http.Header{"Accept": {"*/*"}},
		},
		Response: &transaction.Response{
			Status:        "200 OK",
			StatusCode:    200,
			Proto:         "HTTP/1.1",
			Headers:       http.Header{"Content-Type": {"application/json"}},
			Body:          []byte(`{"ok":true}`),
			ContentLength: 11,
		},
		Transfer: &transaction.Transfer{RequestHeaderBytes: 40, ResponseBodyBytes: 11},
		Timeline: tl,
		Report:   nettrace.NewReport(tl, nettrace.Budget{}),
	}
	return tx
}

func pendingTx() *transaction.Transaction {
	return &transaction.Transaction{
		ID: "tx-2",
		Original: &transaction.Request{
			Method: "GET",
			URL:    "https://example.com/big",
		},
		Progress: &transaction.Progress{Completed: 10, Total: 100},
	}
}

func renderers() []Renderer {
	var out []Renderer
	for _, class := range DeviceClasses {
		out = append(out, ForClass(class, DefaultLayout(class)))
	}
	return out
}

func TestResponseOmittedWhenAbsent(t *testing.T) {
	snap := NewViewModel(pendingTx()).Snapshot()
	if snap.ResponseSummary != nil || snap.ResponseHeaders != nil || snap.ResponseBody != nil {
		t.Fatalf("expected no response sections for pending transaction")
	}
	for _, r := range renderers() {
		for _, vs := range []ViewState{{}, {ShowingCurrentRequest: true}} {
			tree := r.Render(snap, vs)
			tree.Walk(func(n Node, _ int) bool {
				if n.Role == RoleResponse {
					t.Fatalf("%s: unexpected response node %q", r.Class(), n.Title)
				}
				switch n.Destination {
				case DestinationResponseBody, DestinationResponseHeaders:
					t.Fatalf("%s: unexpected response link %s", r.Class(), n.Destination)
				}
				return true
			})
		}
	}
}

func TestResponsePresentForCompletedTransaction(t *testing.T) {
	snap := NewViewModel(completedTx(t)).Snapshot()
	for _, r := range renderers() {
		tree := r.Render(snap, ViewState{})
		if _, ok := tree.Find(snap.ResponseHeaders); !ok {
			t.Fatalf("%s: expected response headers in tree", r.Class())
		}
	}
}

func TestHeaderTransferAndProgressAreExclusive(t *testing.T) {
	done := NewViewModel(completedTx(t)).Snapshot()
	inFlight := NewViewModel(pendingTx()).Snapshot()

	for _, r := range renderers() {
		h := r.Render(done, ViewState{}).Header
		if h.Transfer == nil || h.Progress != nil {
			t.Fatalf("%s: expected transfer header only, got %+v", r.Class(), h)
		}
		h = r.Render(inFlight, ViewState{}).Header
		if h.Progress == nil || h.Transfer != nil {
			t.Fatalf("%s: expected progress header only, got %+v", r.Class(), h)
		}
		if h.Progress.Title != "Receiving" {
			t.Fatalf("unexpected progress title %q", h.Progress.Title)
		}
	}

	both := completedTx(t)
	both.Progress = &transaction.Progress{Completed: 1}
	h := ForClass(DeviceLarge, Layout{}).Render(NewViewModel(both).Snapshot(), ViewState{}).Header
	if h.Progress != nil {
		t.Fatalf("expected transfer to win over progress, got %+v", h)
	}
}

func TestLargeToggleSwapsOnlyRequestGroup(t *testing.T) {
	snap := NewViewModel(completedTx(t)).Snapshot()
	r := ForClass(DeviceLarge, DefaultLayout(DeviceLarge))
	original := r.Render(snap, ViewState{})
	current := r.Render(snap, ViewState{ShowingCurrentRequest: true})

	if len(original.Nodes) != len(current.Nodes) {
		t.Fatalf("toggle changed node count: %d vs %d", len(original.Nodes), len(current.Nodes))
	}
	var sawGroup bool
	for i := range original.Nodes {
		a, b := original.Nodes[i], current.Nodes[i]
		if a.Kind == NodeGroup && a.Title == "Request" {
			sawGroup = true
			if a.Picker.Selected != 0 || b.Picker.Selected != 1 {
				t.Fatalf("unexpected picker selection %d/%d", a.Picker.Selected, b.Picker.Selected)
			}
			if a.Children[0].Section != snap.OriginalRequestSummary {
				t.Fatalf("expected original summary first")
			}
			if b.Children[0].Section != snap.CurrentRequestSummary {
				t.Fatalf("expected current summary after toggle")
			}
			continue
		}
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("node %d (%s) changed across toggle", i, a.Title)
		}
	}
	if !sawGroup {
		t.Fatalf("request group missing")
	}

	if _, ok := original.Find(snap.OriginalRequestParameters); !ok {
		t.Fatalf("expected original parameters in original view")
	}
	if _, ok := current.Find(snap.OriginalRequestParameters); ok {
		t.Fatalf("original parameters leaked into current view")
	}
}

func TestLargeRequestGroupNeedsOriginalRequest(t *testing.T) {
	large := ForClass(DeviceLarge, DefaultLayout(DeviceLarge))
	tx := &transaction.Transaction{ID: "tx-3", Error: &transaction.Error{Kind: transaction.ErrorOther, Message: "no request"}}
	snap := NewViewModel(tx).Snapshot()
	if snap.OriginalRequestSummary != nil {
		t.Fatalf("expected no request summary without an original request")
	}
	for _, vs := range []ViewState{{}, {ShowingCurrentRequest: true}} {
		large.Render(snap, vs).Walk(func(n Node, _ int) bool {
			if n.Kind == NodeGroup && n.Title == "Request" {
				t.Fatalf("unexpected request group %+v", n)
			}
			return true
		})
	}

	var groups int
	large.Render(NewViewModel(completedTx(t)).Snapshot(), ViewState{}).Walk(func(n Node, _ int) bool {
		if n.Kind == NodeGroup && n.Title == "Request" {
			groups++
		}
		return true
	})
	if groups != 1 {
		t.Fatalf("expected one request group, got %d", groups)
	}
}

func TestLargeLimitsHeadersToTen(t *testing.T) {
	for _, count := range []int{4, 10, 14} {
		t.Run(fmt.Sprintf("%d headers", count), func(t *testing.T) {
			tx := completedTx(t)
			tx.Response.Headers = http.Header{}
			for i := 0; i < count; i++ {
				tx.Response.Headers.Set(fmt.Sprintf("X-H-%02d", i), "v")
			}
			snap := NewViewModel(tx).Snapshot()
			tree := ForClass(DeviceLarge, Layout{}).Render(snap, ViewState{})
			n, ok := tree.Find(snap.ResponseHeaders)
			if !ok {
				t.Fatalf("response headers missing")
			}
			wantShown, wantHidden := count, 0
			if count > 10 {
				wantShown, wantHidden = 10, count-10
			}
			if len(n.Shown) != wantShown || n.Hidden != wantHidden {
				t.Fatalf("expected %d shown/%d hidden, got %d/%d", wantShown, wantHidden, len(n.Shown), n.Hidden)
			}
			if n.Destination != DestinationResponseHeaders {
				t.Fatalf("expected drill-down to response headers, got %s", n.Destination)
			}
			screen, ok := snap.Screen(n.Destination)
			if !ok || screen.Section.Len() != count {
				t.Fatalf("expected full screen with %d items", count)
			}
		})
	}
}

func TestLivingRoomUsesLinksOnly(t *testing.T) {
	for _, tx := range []*transaction.Transaction{completedTx(t), pendingTx()} {
		snap := NewViewModel(tx).Snapshot()
		tree := ForClass(DeviceLivingRoom, DefaultLayout(DeviceLivingRoom)).Render(snap, ViewState{})
		var links int
		for _, n := range tree.Nodes {
			switch n.Kind {
			case NodeTitle:
				continue
			case NodeLink:
				links++
			default:
				t.Fatalf("unexpected inline %s node %q", n.Kind, n.Title)
			}
			if n.Destination == DestinationNone {
				t.Fatalf("link %q has no destination", n.Title)
			}
			if len(n.Shown) > 5 || n.Limit != 5 {
				t.Fatalf("link %q preview not limited: %d items", n.Title, len(n.Shown))
			}
			if _, ok := snap.Screen(n.Destination); !ok {
				t.Fatalf("link %q points at unresolvable %s", n.Title, n.Destination)
			}
		}
		if links == 0 {
			t.Fatalf("expected link rows")
		}
	}
}

func TestLivingRoomTimingNeedsTimeline(t *testing.T) {
	tx := completedTx(t)
	tx.Timeline = nil
	tx.Report = nil
	tree := ForClass(DeviceLivingRoom, Layout{}).Render(NewViewModel(tx).Snapshot(), ViewState{})
	for _, n := range tree.Links() {
		if n.Destination == DestinationTiming {
			t.Fatalf("timing link without timeline")
		}
	}
}

func TestWearableOrder(t *testing.T) {
	tx := completedTx(t)
	tx.Error = &transaction.Error{Kind: transaction.ErrorBody, Message: "short read"}
	snap := NewViewModel(tx).Snapshot()
	tree := ForClass(DeviceWearable, DefaultLayout(DeviceWearable)).Render(snap, ViewState{})

	want := []*Section{
		snap.Summary,
		snap.Error,
		snap.RequestBody,
		snap.ResponseBody,
		snap.OriginalRequestHeaders,
		snap.ResponseHeaders,
		snap.TimingDetails,
	}
	var got []*Section
	for _, n := range tree.Nodes {
		if n.Kind == NodeSection {
			got = append(got, n.Section)
		}
		if n.Picker != nil {
			t.Fatalf("wearable must not render a picker")
		}
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected wearable order")
	}
	if tree.Layout != (Layout{TitleGap: 1, SectionGap: 2}) {
		t.Fatalf("unexpected layout %+v", tree.Layout)
	}
}

func TestDetect(t *testing.T) {
	cases := []struct {
		w, h int
		want DeviceClass
	}{
		{40, 20, DeviceWearable},
		{120, 40, DeviceLarge},
		{220, 60, DeviceLivingRoom},
		{220, 30, DeviceLarge},
		{0, 0, DeviceLarge},
	}
	for _, tc := range cases {
		if got := Detect(tc.w, tc.h); got != tc.want {
			t.Fatalf("Detect(%d,%d)=%s want %s", tc.w, tc.h, got, tc.want)
		}
	}
	if DeviceAuto.Resolve(40, 10) != DeviceWearable || DeviceLivingRoom.Resolve(40, 10) != DeviceLivingRoom {
		t.Fatalf("unexpected resolve")
	}
}

func TestParseDeviceClass(t *testing.T) {
	for in, want := range map[string]DeviceClass{
		"TV":          DeviceLivingRoom,
		"living_room": DeviceLivingRoom,
		"watch":       DeviceWearable,
		"":            DeviceAuto,
		"desktop":     DeviceLarge,
	} {
		got, err := ParseDeviceClass(in)
		if err != nil || got != want {
			t.Fatalf("ParseDeviceClass(%q)=%q,%v want %q", in, got, err, want)
		}
	}
	if _, err := ParseDeviceClass("fridge"); err == nil {
		t.Fatalf("expected error for unknown class")
	}
	if DeviceLivingRoom.Next() != DeviceLarge {
		t.Fatalf("expected cycling to wrap")
	}
}
