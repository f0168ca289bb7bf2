package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/tcgtrack/internal/collection"
	"github.com/desertthunder/tcgtrack/internal/models"
)

var (
	_ list.Item = groupItem{}
	_ list.Item = instanceItem{}
	_ list.Item = expansionItem{}
)

// groupItem wraps [models.CardGroup] to implement [list.Item].
type groupItem struct {
	group models.CardGroup
}

func (i groupItem) FilterValue() string { return i.group.CardName }
func (i groupItem) Title() string {
	title := fmt.Sprintf("%s x%d", i.group.CardName, i.group.TotalQuantity)
	if i.group.IsAnyFavorite {
		title = fmt.Sprintf("%s %s", title, styles.favorite.Render("★"))
	}
	return title
}
func (i groupItem) Description() string {
	desc := i.group.ExpansionName
	if i.group.InstancesCount > 1 {
		desc = fmt.Sprintf("%s • %d versions", desc, i.group.InstancesCount)
	}
	return desc
}

// instanceItem wraps [models.Instance] to implement [list.Item].
type instanceItem struct {
	instance models.Instance
}

func (i instanceItem) FilterValue() string { return i.instance.Notes }
func (i instanceItem) Title() string {
	title := fmt.Sprintf("x%d %s", i.instance.Quantity, models.LanguageLabel(i.instance.Language))
	if i.instance.IsFavorite {
		title = fmt.Sprintf("%s %s", title, styles.favorite.Render("★"))
	}
	return title
}
func (i instanceItem) Description() string {
	parts := append([]string{models.ConditionLabel(i.instance.Condition)}, i.instance.Attributes()...)
	if i.instance.Notes != "" {
		parts = append(parts, i.instance.Notes)
	}
	return strings.Join(parts, " • ")
}

// expansionItem is one choice in the expansion filter.
type expansionItem struct {
	selector collection.Selector
	name     string
	count    int
}

func (i expansionItem) FilterValue() string { return i.name }
func (i expansionItem) Title() string       { return i.name }
func (i expansionItem) Description() string {
	if i.selector.IsAll() {
		return "every expansion"
	}
	return fmt.Sprintf("%d cards owned", i.count)
}

func groupItems(groups []models.CardGroup) []list.Item {
	items := make([]list.Item, len(groups))
	for i, g := range groups {
		items[i] = groupItem{group: g}
	}
	return items
}

func instanceItems(g models.CardGroup) []list.Item {
	items := make([]list.Item, len(g.Instances))
	for i, inst := range g.Instances {
		items[i] = instanceItem{instance: inst}
	}
	return items
}

func expansionItems(expansions []models.ExpansionSummary) []list.Item {
	items := []list.Item{expansionItem{selector: collection.All, name: collection.AllExpansionsLabel}}
	for _, e := range expansions {
		items = append(items, expansionItem{selector: collection.ExpansionSelector(e.ID), name: e.Name, count: e.UserCardsCount})
	}
	return items
}
