package theme

import "github.com/charmbracelet/lipgloss"

type HeaderSegmentStyle struct {
	Background lipgloss.Color
	Border     lipgloss.Color
	Foreground lipgloss.Color
	Accent     lipgloss.Color
}

type CommandSegmentStyle struct {
	Background lipgloss.Color
	Border     lipgloss.Color
	Key        lipgloss.Color
	Text       lipgloss.Color
}

// RoleColors are the accents for the inspector section roles.
type RoleColors struct {
	Neutral  lipgloss.Color
	Summary  lipgloss.Color
	Request  lipgloss.Color
	Response lipgloss.Color
	Error    lipgloss.Color
	Timing   lipgloss.Color
}

// TintColors colour the status glyph and title of a transaction.
type TintColors struct {
	Pending lipgloss.Color
	Success lipgloss.Color
	Failure lipgloss.Color
}

type MethodColors struct {
	GET     lipgloss.Color
	POST    lipgloss.Color
	PUT     lipgloss.Color
	PATCH   lipgloss.Color
	DELETE  lipgloss.Color
	HEAD    lipgloss.Color
	OPTIONS lipgloss.Color
	Default lipgloss.Color
}

type Theme struct {
	AppFrame        lipgloss.Style
	Header          lipgloss.Style
	HeaderBrand     lipgloss.Style
	HeaderTitle     lipgloss.Style
	HeaderValue     lipgloss.Style
	HeaderSeparator lipgloss.Style
	HeaderSegments  []HeaderSegmentStyle
	StatusBar       lipgloss.Style
	StatusBarKey    lipgloss.Style
	StatusBarValue  lipgloss.Style
	CommandBar      lipgloss.Style
	CommandBarHint  lipgloss.Style
	CommandSegments []CommandSegmentStyle
	CommandDivider  lipgloss.Style
	Notification    lipgloss.Style
	Error           lipgloss.Style
	Success         lipgloss.Style

	InspectorTitle  lipgloss.Style
	SectionTitle    lipgloss.Style
	SectionBorder   lipgloss.Style
	ItemLabel       lipgloss.Style
	ItemValue       lipgloss.Style
	ItemMore        lipgloss.Style
	Link            lipgloss.Style
	LinkSelected    lipgloss.Style
	ActionHint      lipgloss.Style
	PickerActive    lipgloss.Style
	PickerInactive  lipgloss.Style
	ProgressFilled  lipgloss.Color
	ProgressEmpty   lipgloss.Color
	DetailTitle     lipgloss.Style
	BodyContent     lipgloss.Style
	BodyPlaceholder lipgloss.Style
	DiffAdded       lipgloss.Style
	DiffRemoved     lipgloss.Style
	DiffHunk        lipgloss.Style
	DiffContext     lipgloss.Style
	TimingBar       lipgloss.Style
	TimingBarOver   lipgloss.Style
	TimingLabel     lipgloss.Style

	ListItemTitle               lipgloss.Style
	ListItemDescription         lipgloss.Style
	ListItemSelectedTitle       lipgloss.Style
	ListItemSelectedDescription lipgloss.Style
	ListItemDimmedTitle         lipgloss.Style
	ListItemDimmedDescription   lipgloss.Style
	ListItemFilterMatch         lipgloss.Style

	Roles        RoleColors
	Tints        TintColors
	MethodColors MethodColors

	// SyntaxStyle names the chroma style used for body highlighting.
	SyntaxStyle string
}

func DefaultTheme() Theme {
	accent := lipgloss.Color("#7D56F4")
	gold := lipgloss.Color("#FFD46A")
	ink := lipgloss.Color("#0F111A")
	muted := lipgloss.Color("#6E6A86")

	return Theme{
		AppFrame: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#403B59")),
		Header: lipgloss.NewStyle().Foreground(lipgloss.Color("#E5E1FF")).Padding(0, 1),
		HeaderBrand: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1A1020")).
			Background(lipgloss.Color("#FBC859")).
			Bold(true).
			Padding(0, 1),
		HeaderTitle:     lipgloss.NewStyle().Foreground(accent).Bold(true),
		HeaderValue:     lipgloss.NewStyle().Foreground(lipgloss.Color("#D1CFF6")),
		HeaderSeparator: lipgloss.NewStyle().Foreground(lipgloss.Color("#867CC1")).Bold(true),
		HeaderSegments: []HeaderSegmentStyle{
			{
				Background: lipgloss.Color("#9CD6FF"),
				Border:     lipgloss.Color("#B9E1FF"),
				Foreground: lipgloss.Color("#0D2C3D"),
				Accent:     lipgloss.Color("#134158"),
			},
			{
				Background: lipgloss.Color("#B8F5C9"),
				Border:     lipgloss.Color("#D3FBE0"),
				Foreground: lipgloss.Color("#0F2E1A"),
				Accent:     lipgloss.Color("#18472A"),
			},
			{
				Background: lipgloss.Color("#FFB61E"),
				Border:     gold,
				Foreground: lipgloss.Color("#1F1500"),
				Accent:     lipgloss.Color("#332300"),
			},
		},
		StatusBar:      lipgloss.NewStyle().Foreground(lipgloss.Color("#A6A1BB")).Padding(0, 1),
		StatusBarKey:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8B39")).Bold(true),
		StatusBarValue: lipgloss.NewStyle().Foreground(lipgloss.Color("#EAEAEA")),
		CommandBar:     lipgloss.NewStyle().Foreground(lipgloss.Color("#C2C0D9")).Padding(0, 1),
		CommandBarHint: lipgloss.NewStyle().Foreground(accent).Bold(true),
		CommandSegments: []CommandSegmentStyle{
			{
				Background: lipgloss.Color("#2C1E3A"),
				Border:     accent,
				Key:        lipgloss.Color("#F6E3FF"),
				Text:       lipgloss.Color("#E5E1FF"),
			},
			{
				Background: lipgloss.Color("#102B33"),
				Border:     lipgloss.Color("#15AABF"),
				Key:        lipgloss.Color("#A7F2FF"),
				Text:       lipgloss.Color("#D6F7FF"),
			},
		},
		CommandDivider: lipgloss.NewStyle().Foreground(lipgloss.Color("#403B59")).Bold(true),
		Notification: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E0DEF4")).
			Background(lipgloss.Color("#433C59")).
			Padding(0, 1),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6E6E")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#6EF17E")),

		InspectorTitle: lipgloss.NewStyle().Bold(true),
		SectionTitle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#A6A1BB")).Bold(true),
		SectionBorder: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderTop(false).
			BorderRight(false).
			BorderBottom(false).
			PaddingLeft(1),
		ItemLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("#A6A1BB")),
		ItemValue: lipgloss.NewStyle().Foreground(lipgloss.Color("#E6E1FF")),
		ItemMore:  lipgloss.NewStyle().Foreground(muted).Italic(true),
		Link:      lipgloss.NewStyle().Foreground(lipgloss.Color("#E6E1FF")),
		LinkSelected: lipgloss.NewStyle().
			Foreground(ink).
			Background(gold).
			Bold(true),
		ActionHint: lipgloss.NewStyle().Foreground(lipgloss.Color("#B9A5FF")),
		PickerActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FDFBFF")).
			Background(accent).
			Bold(true).
			Padding(0, 1),
		PickerInactive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5E5A72")).
			Padding(0, 1),
		ProgressFilled:  accent,
		ProgressEmpty:   lipgloss.Color("#3A3547"),
		DetailTitle:     lipgloss.NewStyle().Foreground(accent).Bold(true),
		BodyContent:     lipgloss.NewStyle(),
		BodyPlaceholder: lipgloss.NewStyle().Foreground(muted).Italic(true),
		DiffAdded:       lipgloss.NewStyle().Foreground(lipgloss.Color("#6EF17E")),
		DiffRemoved:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6E6E")),
		DiffHunk:        lipgloss.NewStyle().Foreground(lipgloss.Color("#15AABF")).Bold(true),
		DiffContext:     lipgloss.NewStyle().Foreground(lipgloss.Color("#C7C4E0")),
		TimingBar:       lipgloss.NewStyle().Foreground(lipgloss.Color("#5FB3B3")),
		TimingBarOver:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6E6E")).Bold(true),
		TimingLabel:     lipgloss.NewStyle().Foreground(lipgloss.Color("#D8D4F1")),

		ListItemTitle:       lipgloss.NewStyle().Foreground(lipgloss.Color("#E6E1FF")),
		ListItemDescription: lipgloss.NewStyle().Foreground(lipgloss.Color("#7d7b87")),
		ListItemSelectedTitle: lipgloss.NewStyle().
			Foreground(ink).
			Background(gold).
			Bold(true),
		ListItemSelectedDescription: lipgloss.NewStyle().Foreground(gold),
		ListItemDimmedTitle:         lipgloss.NewStyle().Foreground(lipgloss.Color("#5E5A72")),
		ListItemDimmedDescription:   lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4760")),
		ListItemFilterMatch: lipgloss.NewStyle().
			Underline(true).
			Foreground(lipgloss.Color("#B9A5FF")),

		Roles: RoleColors{
			Neutral:  lipgloss.Color("#A6A1BB"),
			Summary:  accent,
			Request:  lipgloss.Color("#60a5fa"),
			Response: lipgloss.Color("#34d399"),
			Error:    lipgloss.Color("#FF6E6E"),
			Timing:   lipgloss.Color("#FFB61E"),
		},
		Tints: TintColors{
			Pending: gold,
			Success: lipgloss.Color("#6EF17E"),
			Failure: lipgloss.Color("#FF6E6E"),
		},
		MethodColors: MethodColors{
			GET:     lipgloss.Color("#34d399"),
			POST:    lipgloss.Color("#60a5fa"),
			PUT:     lipgloss.Color("#f59e0b"),
			PATCH:   lipgloss.Color("#14b8a6"),
			DELETE:  lipgloss.Color("#f87171"),
			HEAD:    lipgloss.Color("#a1a1aa"),
			OPTIONS: lipgloss.Color("#c084fc"),
			Default: lipgloss.Color("#9ca3af"),
		},
		SyntaxStyle: "dracula",
	}
}

func (t Theme) HeaderSegment(idx int) HeaderSegmentStyle {
	if len(t.HeaderSegments) == 0 {
		return HeaderSegmentStyle{
			Background: lipgloss.Color("#3B355D"),
			Border:     lipgloss.Color("#5F5689"),
			Foreground: lipgloss.Color("#F5F2FF"),
			Accent:     lipgloss.Color("#FFFFFF"),
		}
	}
	return t.HeaderSegments[idx%len(t.HeaderSegments)]
}

func (t Theme) CommandSegment(idx int) CommandSegmentStyle {
	if len(t.CommandSegments) == 0 {
		return CommandSegmentStyle{
			Background: lipgloss.Color("#2C1E3A"),
			Border:     lipgloss.Color("#7D56F4"),
			Key:        lipgloss.Color("#F6E3FF"),
			Text:       lipgloss.Color("#E5E1FF"),
		}
	}
	return t.CommandSegments[idx%len(t.CommandSegments)]
}

// MethodColor returns the accent for an HTTP method.
func (t Theme) MethodColor(method string) lipgloss.Color {
	m := t.MethodColors
	switch method {
	case "GET":
		return m.GET
	case "POST":
		return m.POST
	case "PUT":
		return m.PUT
	case "PATCH":
		return m.PATCH
	case "DELETE":
		return m.DELETE
	case "HEAD":
		return m.HEAD
	case "OPTIONS":
		return m.OPTIONS
	default:
		return m.Default
	}
}
