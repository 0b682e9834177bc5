package inspector

import (
	"strings"
	"testing"

	"github.com/unkn0wn-root/netscope/internal/transaction"
)

func TestActivateReplacesPreviousDestination(t *testing.T) {
	vm := NewViewModel(completedTx(t))
	var changes []Change
	unsubscribe := vm.Subscribe(func(c Change) { changes = append(changes, c) })
	defer unsubscribe()

	if !vm.Activate(DestinationResponseHeaders) {
		t.Fatalf("expected response headers to resolve")
	}
	if !vm.Activate(DestinationTiming) {
		t.Fatalf("expected timing to resolve")
	}
	if vm.Destination() != DestinationTiming {
		t.Fatalf("expected timing to replace headers, got %s", vm.Destination())
	}
	vm.Activate(DestinationTiming)
	vm.Dismiss()

	if len(changes) != 3 {
		t.Fatalf("expected 3 changes, got %d", len(changes))
	}
	want := []struct{ prev, next Destination }{
		{DestinationNone, DestinationResponseHeaders},
		{DestinationResponseHeaders, DestinationTiming},
		{DestinationTiming, DestinationNone},
	}
	for i, w := range want {
		c := changes[i]
		if c.Kind != ChangeDestination || c.Previous != w.prev || c.Destination != w.next {
			t.Fatalf("change %d: got %+v", i, c)
		}
		if c.Snapshot.Destination != w.next {
			t.Fatalf("change %d carries stale snapshot destination %s", i, c.Snapshot.Destination)
		}
	}
}

func TestActivateRejectsMissingData(t *testing.T) {
	vm := NewViewModel(pendingTx())
	if vm.Activate(DestinationResponseBody) {
		t.Fatalf("expected response body to be unavailable")
	}
	if vm.Activate(DestinationError) {
		t.Fatalf("expected error to be unavailable")
	}
	if vm.Destination() != DestinationNone {
		t.Fatalf("destination changed after rejected activation")
	}
	if !vm.Activate(DestinationRequestBody) {
		t.Fatalf("request body should always resolve")
	}
}

func TestUpdateNotifiesAndDismissesStaleDestination(t *testing.T) {
	vm := NewViewModel(completedTx(t))
	vm.Activate(DestinationResponseBody)

	var got []Change
	vm.Subscribe(func(c Change) { got = append(got, c) })
	vm.Update(pendingTx())

	if len(got) != 1 || got[0].Kind != ChangeTransaction {
		t.Fatalf("expected a single transaction change, got %+v", got)
	}
	if got[0].Previous != DestinationResponseBody || got[0].Destination != DestinationNone {
		t.Fatalf("expected stale destination dismissed, got %+v", got[0])
	}
	if got[0].Snapshot.Progress == nil {
		t.Fatalf("expected the latest snapshot in the change")
	}
}

func TestSubscribersRunInRegistrationOrder(t *testing.T) {
	vm := NewViewModel(completedTx(t))
	var order []string
	vm.Subscribe(func(Change) { order = append(order, "a") })
	stop := vm.Subscribe(func(Change) { order = append(order, "b") })
	vm.Subscribe(func(Change) { order = append(order, "c") })

	vm.Activate(DestinationSummary)
	stop()
	stop()
	vm.Dismiss()

	if got := strings.Join(order, ""); got != "abcac" {
		t.Fatalf("unexpected notification order %q", got)
	}
}

func TestViewModelOwnsItsCopy(t *testing.T) {
	tx := completedTx(t)
	vm := NewViewModel(tx)
	tx.Response.StatusCode = 500
	if vm.Transaction().Response.StatusCode != 200 {
		t.Fatalf("view-model shares the caller's transaction")
	}
}

func TestSnapshotSections(t *testing.T) {
	snap := NewViewModel(completedTx(t)).Snapshot()

	if snap.Summary.Title != "200 OK" {
		t.Fatalf("unexpected summary title %q", snap.Summary.Title)
	}
	if v, _ := snap.Summary.Value("Redirects"); v != "1" {
		t.Fatalf("expected redirect count, got %q", v)
	}
	q := snap.OriginalRequestQueryItems
	if q.Len() != 2 || q.Items[0].Label != "b" || q.Items[1].Label != "a" {
		t.Fatalf("query items lost URL order: %+v", q)
	}
	if p := snap.OriginalRequestParameters; p.Len() != 2 || p.Items[0] != (Item{"user", "alice"}) {
		t.Fatalf("unexpected parameters %+v", p)
	}
	if snap.CurrentRequestParameters != nil {
		t.Fatalf("current request has no form body")
	}
	if v, _ := snap.ResponseBody.Value("Size"); v != "11 B" {
		t.Fatalf("unexpected body size %q", v)
	}
	if v, _ := snap.TimingDetails.Value("Waiting (TTFB)"); v != "50ms" {
		t.Fatalf("unexpected ttfb %q", v)
	}
	if snap.Diff == nil || !strings.HasPrefix(snap.Diff.Original, "POST /login?b=2&a=1\n") {
		t.Fatalf("unexpected diff %+v", snap.Diff)
	}
	if snap.Tint() != TintSuccess || snap.StatusGlyph() != "✔" {
		t.Fatalf("unexpected tint for success")
	}

	failed := completedTx(t)
	failed.Error = &transaction.Error{Kind: transaction.ErrorTimeout, Message: "deadline exceeded", Op: "read"}
	fs := NewViewModel(failed).Snapshot()
	if fs.Summary.Title != "Failure" || fs.Tint() != TintFailure {
		t.Fatalf("unexpected failure summary %q", fs.Summary.Title)
	}
	if v, _ := fs.Error.Value("Kind"); v != "timeout" {
		t.Fatalf("unexpected error kind %q", v)
	}
}
