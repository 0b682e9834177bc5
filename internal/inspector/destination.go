package inspector

// Destination names the single drill-down screen that is active. The zero
// value means no screen is shown; activating a destination replaces the
// previous one, so two screens can never be requested at once.
type Destination int

const (
	DestinationNone Destination = iota
	DestinationSummary
	DestinationError
	DestinationRequestBody
	DestinationResponseBody
	DestinationOriginalQueryItems
	DestinationCurrentQueryItems
	DestinationOriginalRequestHeaders
	DestinationCurrentRequestHeaders
	DestinationResponseHeaders
	DestinationOriginalParameters
	DestinationCurrentParameters
	DestinationTiming
	DestinationRequestDiff
)

var destinationNames = map[Destination]string{
	DestinationNone:                   "none",
	DestinationSummary:                "summary",
	DestinationError:                  "error",
	DestinationRequestBody:            "request-body",
	DestinationResponseBody:           "response-body",
	DestinationOriginalQueryItems:     "original-query-items",
	DestinationCurrentQueryItems:      "current-query-items",
	DestinationOriginalRequestHeaders: "original-request-headers",
	DestinationCurrentRequestHeaders:  "current-request-headers",
	DestinationResponseHeaders:        "response-headers",
	DestinationOriginalParameters:     "original-parameters",
	DestinationCurrentParameters:      "current-parameters",
	DestinationTiming:                 "timing",
	DestinationRequestDiff:            "request-diff",
}

func (d Destination) String() string {
	if name, ok := destinationNames[d]; ok {
		return name
	}
	return "unknown"
}

type ScreenKind int

const (
	ScreenSection ScreenKind = iota
	ScreenBody
	ScreenTiming
	ScreenDiff
)

// Screen is what a drill-down destination presents: exactly one of Section,
// Body, Timing or Diff is set, matching Kind.
type Screen struct {
	Destination Destination
	Kind        ScreenKind
	Title       string
	Section     *Section
	Body        *Body
	Timing      *Timing
	Diff        *RequestDiff
}

// Screen resolves a destination against a snapshot. It reports false when
// the data behind the destination does not exist.
func (s Snapshot) Screen(dest Destination) (Screen, bool) {
	section := func(sec *Section) (Screen, bool) {
		if sec == nil {
			return Screen{}, false
		}
		return Screen{Destination: dest, Kind: ScreenSection, Title: sec.Title, Section: sec}, true
	}

	switch dest {
	case DestinationSummary:
		return section(s.Summary)
	case DestinationError:
		return section(s.Error)
	case DestinationOriginalQueryItems:
		return section(s.OriginalRequestQueryItems)
	case DestinationCurrentQueryItems:
		return section(s.CurrentRequestQueryItems)
	case DestinationOriginalRequestHeaders:
		return section(s.OriginalRequestHeaders)
	case DestinationCurrentRequestHeaders:
		return section(s.CurrentRequestHeaders)
	case DestinationResponseHeaders:
		return section(s.ResponseHeaders)
	case DestinationOriginalParameters:
		return section(s.OriginalRequestParameters)
	case DestinationCurrentParameters:
		return section(s.CurrentRequestParameters)
	case DestinationRequestBody:
		if s.RequestBodyContent == nil {
			return Screen{}, false
		}
		return Screen{Destination: dest, Kind: ScreenBody, Title: "Request", Body: s.RequestBodyContent}, true
	case DestinationResponseBody:
		if s.ResponseBodyContent == nil {
			return Screen{}, false
		}
		return Screen{Destination: dest, Kind: ScreenBody, Title: "Response", Body: s.ResponseBodyContent}, true
	case DestinationTiming:
		if s.Timing == nil {
			return Screen{}, false
		}
		return Screen{Destination: dest, Kind: ScreenTiming, Title: "Timing", Timing: s.Timing}, true
	case DestinationRequestDiff:
		if s.Diff == nil {
			return Screen{}, false
		}
		return Screen{Destination: dest, Kind: ScreenDiff, Title: "Original → Current", Diff: s.Diff}, true
	default:
		return Screen{}, false
	}
}
