package bindings

const (
	ActionMoveUp        ActionID = "move_up"
	ActionMoveDown      ActionID = "move_down"
	ActionPageUp        ActionID = "page_up"
	ActionPageDown      ActionID = "page_down"
	ActionTop           ActionID = "top"
	ActionBottom        ActionID = "bottom"
	ActionActivate      ActionID = "activate"
	ActionBack          ActionID = "back"
	ActionToggleRequest ActionID = "toggle_request"
	ActionShowDiff      ActionID = "show_diff"
	ActionShowTiming    ActionID = "show_timing"
	ActionCopy          ActionID = "copy"
	ActionCopyCurl      ActionID = "copy_curl"
	ActionReplay        ActionID = "replay"
	ActionDeleteEntry   ActionID = "delete_entry"
	ActionFilterHost    ActionID = "filter_host"
	ActionCycleDevice   ActionID = "cycle_device"
	ActionCycleTheme    ActionID = "cycle_theme"
	ActionToggleHelp    ActionID = "toggle_help"
	ActionQuit          ActionID = "quit"
)

type definition struct {
	id          ActionID
	description string
	defaults    [][]string
	// singleStep actions must stay reachable while a chord is pending.
	singleStep bool
}

var definitions = []definition{
	{id: ActionMoveUp, description: "Move up", defaults: [][]string{{"up"}, {"k"}}},
	{id: ActionMoveDown, description: "Move down", defaults: [][]string{{"down"}, {"j"}}},
	{id: ActionPageUp, description: "Page up", defaults: [][]string{{"pgup"}, {"ctrl+u"}}},
	{id: ActionPageDown, description: "Page down", defaults: [][]string{{"pgdown"}, {"ctrl+d"}}},
	{id: ActionTop, description: "Jump to top", defaults: [][]string{{"g", "g"}, {"home"}}},
	{id: ActionBottom, description: "Jump to bottom", defaults: [][]string{{"shift+g"}, {"end"}}},
	{id: ActionActivate, description: "Open", defaults: [][]string{{"enter"}, {"l"}, {"right"}}},
	{id: ActionBack, description: "Back", defaults: [][]string{{"esc"}, {"h"}, {"left"}, {"backspace"}}, singleStep: true},
	{id: ActionToggleRequest, description: "Original / current request", defaults: [][]string{{"tab"}, {"t"}}},
	{id: ActionShowDiff, description: "Request changes", defaults: [][]string{{"g", "d"}}},
	{id: ActionShowTiming, description: "Timing", defaults: [][]string{{"g", "t"}}},
	{id: ActionCopy, description: "Copy", defaults: [][]string{{"y"}}},
	{id: ActionCopyCurl, description: "Copy request as curl", defaults: [][]string{{"c"}}},
	{id: ActionReplay, description: "Send again", defaults: [][]string{{"r"}, {"ctrl+r"}}},
	{id: ActionDeleteEntry, description: "Delete from history", defaults: [][]string{{"x"}, {"delete"}}},
	{id: ActionFilterHost, description: "Only this host", defaults: [][]string{{"f"}}},
	{id: ActionCycleDevice, description: "Cycle device class", defaults: [][]string{{"v"}}},
	{id: ActionCycleTheme, description: "Cycle theme", defaults: [][]string{{"shift+t"}}},
	{id: ActionToggleHelp, description: "Help", defaults: [][]string{{"shift+/"}}},
	{id: ActionQuit, description: "Quit", defaults: [][]string{{"q"}, {"ctrl+c"}}, singleStep: true},
}

var definitionLookup = func() map[ActionID]definition {
	out := make(map[ActionID]definition, len(definitions))
	for _, def := range definitions {
		out[def.id] = def
	}
	return out
}()

// Describe returns the help text for action.
func Describe(action ActionID) string {
	if def, ok := definitionLookup[action]; ok {
		return def.description
	}
	return string(action)
}

// HelpOrder lists actions in the order the help overlay presents them.
func HelpOrder() []ActionID {
	ids := make([]ActionID, len(definitions))
	for i, def := range definitions {
		ids[i] = def.id
	}
	return ids
}
