package views

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/coreterra/internal/models"
	"github.com/tgienger/coreterra/internal/nav"
	"github.com/tgienger/coreterra/internal/state"
	"github.com/tgienger/coreterra/internal/ui/keys"
	"github.com/tgienger/coreterra/internal/ui/styles"
)

type shopLoadedMsg struct {
	items []models.ShopItem
}

// ShopView sells items for gold
type ShopView struct {
	deps   Deps
	styles *styles.Styles
	keys   keys.KeyMap
	width  int
	height int

	snap   state.Snapshot
	items  []models.ShopItem
	cursor int
	loaded bool

	confirming bool
}

func NewShopView(deps Deps) *ShopView {
	return &ShopView{
		deps:   deps,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
		snap:   deps.Store.Snapshot(),
	}
}

func (v *ShopView) Init() tea.Cmd {
	ctx, client := v.deps.Ctx, v.deps.Client
	return func() tea.Msg {
		items, err := client.Gamification().Shop(ctx)
		if err != nil {
			return Flash{Text: describe(err), Err: true}
		}
		return shopLoadedMsg{items: items}
	}
}

func (v *ShopView) gold() int {
	if v.snap.User == nil {
		return 0
	}
	return v.snap.User.Gold
}

func (v *ShopView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height

	case Snapshot:
		v.snap = msg.Snapshot

	case shopLoadedMsg:
		v.items = msg.items
		v.loaded = true
		v.cursor = clamp(v.cursor, 0, max(len(v.items)-1, 0))

	case tea.KeyMsg:
		if v.confirming {
			v.confirming = false
			if msg.String() == "y" || msg.String() == "Y" {
				return v, v.buy(v.items[v.cursor])
			}
			return v, nil
		}
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			return v, navigate(nav.RouteProfile)
		case key.Matches(msg, v.keys.Up):
			v.cursor = max(v.cursor-1, 0)
		case key.Matches(msg, v.keys.Down):
			v.cursor = clamp(v.cursor+1, 0, max(len(v.items)-1, 0))
		case key.Matches(msg, v.keys.Enter):
			if v.cursor >= len(v.items) {
				return v, nil
			}
			if v.gold() < v.items[v.cursor].Cost {
				return v, flash("Not enough gold")
			}
			v.confirming = true
		}
	}
	return v, nil
}

func (v *ShopView) buy(item models.ShopItem) tea.Cmd {
	ctx, store := v.deps.Ctx, v.deps.Store
	return func() tea.Msg {
		if _, err := store.BuyItem(ctx, item); err != nil {
			return Flash{Text: describe(err), Err: true}
		}
		return Flash{Text: fmt.Sprintf("%s Bought %s", styles.IconShop, item.Name)}
	}
}

func (v *ShopView) View() string {
	s := v.styles
	if v.confirming && v.cursor < len(v.items) {
		item := v.items[v.cursor]
		return renderConfirm(s, v.width, v.height, "Buy "+item.Name+"?",
			fmt.Sprintf("Costs %d of your %d gold", item.Cost, v.gold()))
	}

	lines := []string{s.Gold.Render(fmt.Sprintf("%s %d gold", styles.IconGold, v.gold())), ""}
	if !v.loaded {
		lines = append(lines, s.TitleMuted.Render("Loading..."))
	}
	width := max(styles.ContentWidth(v.width)-4, 20)
	owned := func(id string) bool { return v.snap.User != nil && v.snap.User.Owns(id) }
	for i, item := range v.items {
		price := s.Gold.Render(fmt.Sprintf("%4d G", item.Cost))
		if v.gold() < item.Cost {
			price = s.TitleMuted.Render(fmt.Sprintf("%4d G", item.Cost))
		}
		label := fmt.Sprintf("%s  %-24s %s", price, item.Name, s.TitleMuted.Render(item.Type))
		if owned(item.ID) {
			label += "  " + s.Flash.Render("owned")
		}
		style := s.ListItem.Width(width)
		if i == v.cursor {
			style = s.ListSelected.Width(width)
		}
		lines = append(lines, style.Render(label))
	}

	help := renderHelp(s, v.width, []helpEntry{
		{"↵", "buy"},
		{"esc", "profile"},
		{"q", "quit"},
	})
	return page(s, v.width, v.height, styles.IconShop, "Shop", lipgloss.JoinVertical(lipgloss.Left, lines...), help)
}
