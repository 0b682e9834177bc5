package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/unkn0wn-root/netscope/internal/theme"
)

const historyItemHeight = 2

func listItemStylesForTheme(th theme.Theme) list.DefaultItemStyles {
	styles := list.NewDefaultItemStyles()
	styles.NormalTitle = mergeListStyle(styles.NormalTitle, th.ListItemTitle)
	styles.NormalDesc = mergeListStyle(styles.NormalDesc, th.ListItemDescription)
	styles.SelectedTitle = mergeListStyle(styles.SelectedTitle, th.ListItemSelectedTitle)
	styles.SelectedDesc = mergeListStyle(styles.SelectedDesc, th.ListItemSelectedDescription)
	styles.DimmedTitle = mergeListStyle(styles.DimmedTitle, th.ListItemDimmedTitle)
	styles.DimmedDesc = mergeListStyle(styles.DimmedDesc, th.ListItemDimmedDescription)
	styles.FilterMatch = mergeListStyle(styles.FilterMatch, th.ListItemFilterMatch)
	return styles
}

// mergeListStyle layers override on base but keeps the base box model so
// rows stay aligned with the list's own layout maths.
func mergeListStyle(base, override lipgloss.Style) lipgloss.Style {
	merged := override.Inherit(base)
	pt, pr, pb, pl := base.GetPadding()
	merged = merged.Padding(pt, pr, pb, pl)
	mt, mr, mb, ml := base.GetMargin()
	return merged.Margin(mt, mr, mb, ml)
}

func historyDelegateForTheme(th theme.Theme) historyDelegate {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(historyItemHeight)
	delegate.Styles = listItemStylesForTheme(th)
	return historyDelegate{DefaultDelegate: delegate, th: th}
}

func newHistoryList(th theme.Theme) list.Model {
	l := list.New(nil, historyDelegateForTheme(th), 0, 0)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.SetStatusBarItemName("transaction", "transactions")
	applyListChrome(th, &l)
	return l
}

func applyListChrome(th theme.Theme, l *list.Model) {
	l.Styles.PaginationStyle = mergeListStyle(list.DefaultStyles().PaginationStyle, th.ListItemDescription)
	l.Styles.NoItems = mergeListStyle(list.DefaultStyles().NoItems, th.BodyPlaceholder)
}

func applyHistoryListTheme(th theme.Theme, l *list.Model) {
	l.SetDelegate(historyDelegateForTheme(th))
	applyListChrome(th, l)
}
