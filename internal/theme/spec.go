package theme

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Metadata struct {
	Name        string   `json:"name"        toml:"name"`
	Description string   `json:"description" toml:"description"`
	Author      string   `json:"author"      toml:"author"`
	Version     string   `json:"version"     toml:"version"`
	Tags        []string `json:"tags"        toml:"tags"`
}

// ThemeSpec is the on-disk form of a theme. Every field is optional and
// overrides the matching value of the base theme.
type ThemeSpec struct {
	Metadata        *Metadata             `json:"metadata"         toml:"metadata"`
	Styles          map[string]*StyleSpec `json:"styles"           toml:"styles"`
	Colors          map[string]string     `json:"colors"           toml:"colors"`
	HeaderSegments  []HeaderSegmentSpec   `json:"header_segments"  toml:"header_segments"`
	CommandSegments []CommandSegmentSpec  `json:"command_segments" toml:"command_segments"`
	SyntaxStyle     *string               `json:"syntax_style"     toml:"syntax_style"`
}

type HeaderSegmentSpec struct {
	Background *string `json:"background" toml:"background"`
	Border     *string `json:"border"     toml:"border"`
	Foreground *string `json:"foreground" toml:"foreground"`
	Accent     *string `json:"accent"     toml:"accent"`
}

type CommandSegmentSpec struct {
	Background *string `json:"background" toml:"background"`
	Border     *string `json:"border"     toml:"border"`
	Key        *string `json:"key"        toml:"key"`
	Text       *string `json:"text"       toml:"text"`
}

type StyleSpec struct {
	Foreground       *string `json:"foreground"        toml:"foreground"`
	Background       *string `json:"background"        toml:"background"`
	BorderColor      *string `json:"border_color"      toml:"border_color"`
	BorderBackground *string `json:"border_background" toml:"border_background"`
	BorderStyle      *string `json:"border_style"      toml:"border_style"`
	Bold             *bool   `json:"bold"              toml:"bold"`
	Italic           *bool   `json:"italic"            toml:"italic"`
	Underline        *bool   `json:"underline"         toml:"underline"`
	Faint            *bool   `json:"faint"             toml:"faint"`
	Strikethrough    *bool   `json:"strikethrough"     toml:"strikethrough"`
	Align            *string `json:"align"             toml:"align"`
}

func styleTargets(t *Theme) map[string]*lipgloss.Style {
	return map[string]*lipgloss.Style{
		"app_frame":                      &t.AppFrame,
		"header":                         &t.Header,
		"header_brand":                   &t.HeaderBrand,
		"header_title":                   &t.HeaderTitle,
		"header_value":                   &t.HeaderValue,
		"header_separator":               &t.HeaderSeparator,
		"status_bar":                     &t.StatusBar,
		"status_bar_key":                 &t.StatusBarKey,
		"status_bar_value":               &t.StatusBarValue,
		"command_bar":                    &t.CommandBar,
		"command_bar_hint":               &t.CommandBarHint,
		"command_divider":                &t.CommandDivider,
		"notification":                   &t.Notification,
		"error":                          &t.Error,
		"success":                        &t.Success,
		"inspector_title":                &t.InspectorTitle,
		"section_title":                  &t.SectionTitle,
		"section_border":                 &t.SectionBorder,
		"item_label":                     &t.ItemLabel,
		"item_value":                     &t.ItemValue,
		"item_more":                      &t.ItemMore,
		"link":                           &t.Link,
		"link_selected":                  &t.LinkSelected,
		"action_hint":                    &t.ActionHint,
		"picker_active":                  &t.PickerActive,
		"picker_inactive":                &t.PickerInactive,
		"detail_title":                   &t.DetailTitle,
		"body_content":                   &t.BodyContent,
		"body_placeholder":               &t.BodyPlaceholder,
		"diff_added":                     &t.DiffAdded,
		"diff_removed":                   &t.DiffRemoved,
		"diff_hunk":                      &t.DiffHunk,
		"diff_context":                   &t.DiffContext,
		"timing_bar":                     &t.TimingBar,
		"timing_bar_over":                &t.TimingBarOver,
		"timing_label":                   &t.TimingLabel,
		"list_item_title":                &t.ListItemTitle,
		"list_item_description":          &t.ListItemDescription,
		"list_item_selected_title":       &t.ListItemSelectedTitle,
		"list_item_selected_description": &t.ListItemSelectedDescription,
		"list_item_dimmed_title":         &t.ListItemDimmedTitle,
		"list_item_dimmed_description":   &t.ListItemDimmedDescription,
		"list_item_filter_match":         &t.ListItemFilterMatch,
	}
}

func colorTargets(t *Theme) map[string]*lipgloss.Color {
	return map[string]*lipgloss.Color{
		"progress_filled": &t.ProgressFilled,
		"progress_empty":  &t.ProgressEmpty,
		"role_neutral":    &t.Roles.Neutral,
		"role_summary":    &t.Roles.Summary,
		"role_request":    &t.Roles.Request,
		"role_response":   &t.Roles.Response,
		"role_error":      &t.Roles.Error,
		"role_timing":     &t.Roles.Timing,
		"tint_pending":    &t.Tints.Pending,
		"tint_success":    &t.Tints.Success,
		"tint_failure":    &t.Tints.Failure,
		"method_get":      &t.MethodColors.GET,
		"method_post":     &t.MethodColors.POST,
		"method_put":      &t.MethodColors.PUT,
		"method_patch":    &t.MethodColors.PATCH,
		"method_delete":   &t.MethodColors.DELETE,
		"method_head":     &t.MethodColors.HEAD,
		"method_options":  &t.MethodColors.OPTIONS,
		"method_default":  &t.MethodColors.Default,
	}
}

// ApplySpec overlays spec on base. Unknown style or colour keys are errors so
// typos in user themes surface instead of being ignored.
func ApplySpec(base Theme, spec ThemeSpec) (Theme, error) {
	cloned := cloneTheme(base)

	styles := styleTargets(&cloned)
	for _, name := range sortedKeys(spec.Styles) {
		key := normaliseKey(name)
		target, ok := styles[key]
		if !ok {
			return Theme{}, fmt.Errorf("styles: unknown style %q", name)
		}
		next, err := spec.Styles[name].apply(*target)
		if err != nil {
			return Theme{}, fmt.Errorf("%s: %w", key, err)
		}
		*target = next
	}

	colors := colorTargets(&cloned)
	for _, name := range sortedKeys(spec.Colors) {
		key := normaliseKey(name)
		target, ok := colors[key]
		if !ok {
			return Theme{}, fmt.Errorf("colors: unknown colour %q", name)
		}
		color, err := toColor("colors."+key, spec.Colors[name])
		if err != nil {
			return Theme{}, err
		}
		*target = color
	}

	var err error
	if cloned.HeaderSegments, err = applyHeaderSegments(cloned.HeaderSegments, spec.HeaderSegments); err != nil {
		return Theme{}, err
	}
	if cloned.CommandSegments, err = applyCommandSegments(cloned.CommandSegments, spec.CommandSegments); err != nil {
		return Theme{}, err
	}
	if spec.SyntaxStyle != nil {
		style := strings.TrimSpace(*spec.SyntaxStyle)
		if style == "" {
			return Theme{}, fmt.Errorf("syntax_style: value may not be empty")
		}
		cloned.SyntaxStyle = style
	}
	return cloned, nil
}

func normaliseKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *StyleSpec) apply(base lipgloss.Style) (lipgloss.Style, error) {
	if s == nil {
		return base, nil
	}
	current := base
	if s.Foreground != nil {
		color, err := toColor("foreground", *s.Foreground)
		if err != nil {
			return lipgloss.Style{}, err
		}
		current = current.Foreground(color)
	}
	if s.Background != nil {
		color, err := toColor("background", *s.Background)
		if err != nil {
			return lipgloss.Style{}, err
		}
		current = current.Background(color)
	}
	if s.BorderColor != nil {
		color, err := toColor("border_color", *s.BorderColor)
		if err != nil {
			return lipgloss.Style{}, err
		}
		current = current.BorderForeground(color)
	}
	if s.BorderBackground != nil {
		color, err := toColor("border_background", *s.BorderBackground)
		if err != nil {
			return lipgloss.Style{}, err
		}
		current = current.BorderBackground(color)
	}
	if s.BorderStyle != nil {
		normalized := strings.ToLower(strings.TrimSpace(*s.BorderStyle))
		if normalized != "inherit" {
			border, err := parseBorderStyle(normalized)
			if err != nil {
				return lipgloss.Style{}, err
			}
			current = current.BorderStyle(border)
		}
	}
	if s.Bold != nil {
		current = current.Bold(*s.Bold)
	}
	if s.Italic != nil {
		current = current.Italic(*s.Italic)
	}
	if s.Underline != nil {
		current = current.Underline(*s.Underline)
	}
	if s.Faint != nil {
		current = current.Faint(*s.Faint)
	}
	if s.Strikethrough != nil {
		current = current.Strikethrough(*s.Strikethrough)
	}
	if s.Align != nil {
		align, err := parseAlign(*s.Align)
		if err != nil {
			return lipgloss.Style{}, err
		}
		current = current.Align(align)
	}
	return current, nil
}

func applyHeaderSegments(
	base []HeaderSegmentStyle,
	overrides []HeaderSegmentSpec,
) ([]HeaderSegmentStyle, error) {
	if len(overrides) == 0 {
		return base, nil
	}
	if len(base) == 0 {
		base = []HeaderSegmentStyle{{}}
	}
	result := make([]HeaderSegmentStyle, len(overrides))
	for i, spec := range overrides {
		template := base[i%len(base)]
		if spec.Background != nil {
			color, err := toColor("header_segments.background", *spec.Background)
			if err != nil {
				return nil, err
			}
			template.Background = color
		}
		if spec.Border != nil {
			color, err := toColor("header_segments.border", *spec.Border)
			if err != nil {
				return nil, err
			}
			template.Border = color
		}
		if spec.Foreground != nil {
			color, err := toColor("header_segments.foreground", *spec.Foreground)
			if err != nil {
				return nil, err
			}
			template.Foreground = color
		}
		if spec.Accent != nil {
			color, err := toColor("header_segments.accent", *spec.Accent)
			if err != nil {
				return nil, err
			}
			template.Accent = color
		}
		result[i] = template
	}
	return result, nil
}

func applyCommandSegments(
	base []CommandSegmentStyle,
	overrides []CommandSegmentSpec,
) ([]CommandSegmentStyle, error) {
	if len(overrides) == 0 {
		return base, nil
	}
	if len(base) == 0 {
		base = []CommandSegmentStyle{{}}
	}
	result := make([]CommandSegmentStyle, len(overrides))
	for i, spec := range overrides {
		template := base[i%len(base)]
		if spec.Background != nil {
			color, err := toColor("command_segments.background", *spec.Background)
			if err != nil {
				return nil, err
			}
			template.Background = color
		}
		if spec.Border != nil {
			color, err := toColor("command_segments.border", *spec.Border)
			if err != nil {
				return nil, err
			}
			template.Border = color
		}
		if spec.Key != nil {
			color, err := toColor("command_segments.key", *spec.Key)
			if err != nil {
				return nil, err
			}
			template.Key = color
		}
		if spec.Text != nil {
			color, err := toColor("command_segments.text", *spec.Text)
			if err != nil {
				return nil, err
			}
			template.Text = color
		}
		result[i] = template
	}
	return result, nil
}

func cloneTheme(src Theme) Theme {
	clone := src
	if len(src.HeaderSegments) > 0 {
		clone.HeaderSegments = append([]HeaderSegmentStyle(nil), src.HeaderSegments...)
	}
	if len(src.CommandSegments) > 0 {
		clone.CommandSegments = append([]CommandSegmentStyle(nil), src.CommandSegments...)
	}
	return clone
}

func toColor(field string, value string) (lipgloss.Color, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("%s: colour value may not be empty", field)
	}
	return lipgloss.Color(trimmed), nil
}

func parseAlign(value string) (lipgloss.Position, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "left", "start", "default", "":
		return lipgloss.Left, nil
	case "center", "centre", "middle":
		return lipgloss.Center, nil
	case "right", "end":
		return lipgloss.Right, nil
	default:
		return lipgloss.Left, fmt.Errorf("align: unknown alignment %q", value)
	}
}

func parseBorderStyle(value string) (lipgloss.Border, error) {
	switch value {
	case "":
		return lipgloss.Border{}, fmt.Errorf("border_style: value may not be empty")
	case "none", "hidden", "off":
		return lipgloss.Border{}, nil
	case "normal", "single":
		return lipgloss.NormalBorder(), nil
	case "rounded":
		return lipgloss.RoundedBorder(), nil
	case "thick", "heavy":
		return lipgloss.ThickBorder(), nil
	case "double":
		return lipgloss.DoubleBorder(), nil
	case "ascii":
		return lipgloss.Border{
			Top:         "-",
			Bottom:      "-",
			Left:        "|",
			Right:       "|",
			TopLeft:     "+",
			TopRight:    "+",
			BottomLeft:  "+",
			BottomRight: "+",
		}, nil
	case "block":
		return lipgloss.BlockBorder(), nil
	default:
		return lipgloss.Border{}, fmt.Errorf("border_style: unknown border style %q", value)
	}
}
