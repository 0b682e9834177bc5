package inspector

import (
	"sync"
	"time"

	"github.com/unkn0wn-root/netscope/internal/nettrace"
	"github.com/unkn0wn-root/netscope/internal/transaction"
)

// Body is the content model handed to body drill-down screens.
type Body struct {
	ContentType string
	Data        []byte
	Size        int64
	Truncated   bool
}

type Timing struct {
	Timeline *nettrace.Timeline
	Report   *nettrace.Report
}

// RequestDiff holds the wire form of both request snapshots.
type RequestDiff struct {
	Original string
	Current  string
}

// TransferInfo summarises a completed exchange for the header region.
type TransferInfo struct {
	transaction.Transfer
	Duration   time.Duration
	StatusCode int
}

// ProgressInfo is the header region while a transaction is in flight.
type ProgressInfo struct {
	Title string
	transaction.Progress
}

type Tint int

const (
	TintPending Tint = iota
	TintSuccess
	TintFailure
)

// Snapshot is an immutable projection of a transaction. Optional sections are
// nil when the data behind them does not exist.
type Snapshot struct {
	State transaction.State

	Summary                   *Section
	OriginalRequestSummary    *Section
	CurrentRequestSummary     *Section
	OriginalRequestQueryItems *Section
	CurrentRequestQueryItems  *Section
	OriginalRequestHeaders    *Section
	CurrentRequestHeaders     *Section
	RequestBody               *Section
	OriginalRequestParameters *Section
	CurrentRequestParameters  *Section
	ResponseSummary           *Section
	ResponseHeaders           *Section
	ResponseBody              *Section
	Error                     *Section
	TimingDetails             *Section

	Timing              *Timing
	Transfer            *TransferInfo
	Progress            *ProgressInfo
	RequestBodyContent  *Body
	ResponseBodyContent *Body
	Diff                *RequestDiff

	Destination Destination
}

func (s Snapshot) Tint() Tint {
	switch s.State {
	case transaction.StateSuccess:
		return TintSuccess
	case transaction.StateFailure:
		return TintFailure
	default:
		return TintPending
	}
}

func (s Snapshot) StatusGlyph() string {
	switch s.State {
	case transaction.StateSuccess:
		return "✔"
	case transaction.StateFailure:
		return "✖"
	default:
		return "●"
	}
}

type ChangeKind int

const (
	ChangeTransaction ChangeKind = iota
	ChangeDestination
)

// Change is delivered to subscribers after every committed mutation.
type Change struct {
	Kind        ChangeKind
	Destination Destination
	Previous    Destination
	Snapshot    Snapshot
}

// ViewModel owns the presentation state for one inspected transaction and
// publishes a Change to its subscribers whenever that state moves.
type ViewModel struct {
	mu     sync.Mutex
	tx     *transaction.Transaction
	snap   Snapshot
	dest   Destination
	subs   map[int]func(Change)
	nextID int
}

func NewViewModel(tx *transaction.Transaction) *ViewModel {
	vm := &ViewModel{subs: make(map[int]func(Change))}
	vm.tx = tx.Clone()
	vm.snap = buildSnapshot(vm.tx)
	return vm
}

func (vm *ViewModel) Snapshot() Snapshot {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	s := vm.snap
	s.Destination = vm.dest
	return s
}

func (vm *ViewModel) Transaction() *transaction.Transaction {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.tx.Clone()
}

func (vm *ViewModel) Destination() Destination {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.dest
}

// Update replaces the transaction, e.g. when progress or a response arrives.
// An active destination whose data disappeared is dismissed.
func (vm *ViewModel) Update(tx *transaction.Transaction) {
	vm.mu.Lock()
	vm.tx = tx.Clone()
	vm.snap = buildSnapshot(vm.tx)
	prev := vm.dest
	if _, ok := vm.snap.Screen(vm.dest); !ok {
		vm.dest = DestinationNone
	}
	change := Change{Kind: ChangeTransaction, Destination: vm.dest, Previous: prev}
	subs := vm.subscribersLocked()
	change.Snapshot = vm.snapshotLocked()
	vm.mu.Unlock()

	publish(subs, change)
}

// Activate makes dest the active drill-down. It returns false and leaves the
// state untouched when dest has nothing to show.
func (vm *ViewModel) Activate(dest Destination) bool {
	vm.mu.Lock()
	if dest == DestinationNone {
		vm.mu.Unlock()
		vm.Dismiss()
		return true
	}
	if _, ok := vm.snap.Screen(dest); !ok {
		vm.mu.Unlock()
		return false
	}
	if vm.dest == dest {
		vm.mu.Unlock()
		return true
	}
	prev := vm.dest
	vm.dest = dest
	subs := vm.subscribersLocked()
	change := Change{
		Kind:        ChangeDestination,
		Destination: dest,
		Previous:    prev,
		Snapshot:    vm.snapshotLocked(),
	}
	vm.mu.Unlock()

	publish(subs, change)
	return true
}

func (vm *ViewModel) Dismiss() {
	vm.mu.Lock()
	if vm.dest == DestinationNone {
		vm.mu.Unlock()
		return
	}
	prev := vm.dest
	vm.dest = DestinationNone
	subs := vm.subscribersLocked()
	change := Change{
		Kind:        ChangeDestination,
		Destination: DestinationNone,
		Previous:    prev,
		Snapshot:    vm.snapshotLocked(),
	}
	vm.mu.Unlock()

	publish(subs, change)
}

// ActiveScreen resolves the active destination.
func (vm *ViewModel) ActiveScreen() (Screen, bool) {
	snap := vm.Snapshot()
	return snap.Screen(snap.Destination)
}

// Subscribe registers fn for every subsequent Change. The returned function
// removes the subscription and is safe to call more than once.
func (vm *ViewModel) Subscribe(fn func(Change)) func() {
	if fn == nil {
		return func() {}
	}
	vm.mu.Lock()
	id := vm.nextID
	vm.nextID++
	vm.subs[id] = fn
	vm.mu.Unlock()

	return func() {
		vm.mu.Lock()
		delete(vm.subs, id)
		vm.mu.Unlock()
	}
}

func (vm *ViewModel) snapshotLocked() Snapshot {
	s := vm.snap
	s.Destination = vm.dest
	return s
}

// subscribers are called in registration order.
func (vm *ViewModel) subscribersLocked() []func(Change) {
	if len(vm.subs) == 0 {
		return nil
	}
	out := make([]func(Change), 0, len(vm.subs))
	for id := 0; id < vm.nextID; id++ {
		if fn, ok := vm.subs[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func publish(subs []func(Change), change Change) {
	for _, fn := range subs {
		fn(change)
	}
}
