package inspector

// Role selects the accent a section is drawn with.
type Role int

const (
	RoleNeutral Role = iota
	RoleSummary
	RoleRequest
	RoleResponse
	RoleError
	RoleTiming
)

type Item struct {
	Label string
	Value string
}

// Action is the drill-down affordance attached to a section.
type Action struct {
	Title       string
	Destination Destination
}

// Section is a titled, ordered list of label/value pairs. Sections are built
// once per snapshot and never mutated afterwards.
type Section struct {
	Title  string
	Items  []Item
	Role   Role
	Action *Action
}

func (s *Section) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Items)
}

// Preview returns at most limit items and the number left out. A limit of
// zero or less shows everything.
func (s *Section) Preview(limit int) ([]Item, int) {
	if s == nil {
		return nil, 0
	}
	if limit <= 0 || len(s.Items) <= limit {
		return s.Items, 0
	}
	return s.Items[:limit], len(s.Items) - limit
}

// Value returns the first value stored under label.
func (s *Section) Value(label string) (string, bool) {
	if s == nil {
		return "", false
	}
	for _, it := range s.Items {
		if it.Label == label {
			return it.Value, true
		}
	}
	return "", false
}

func (s *Section) destination() Destination {
	if s == nil || s.Action == nil {
		return DestinationNone
	}
	return s.Action.Destination
}
