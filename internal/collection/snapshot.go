package collection

import (
	"fmt"

	"github.com/desertthunder/tcgtrack/internal/models"
)

// Snapshot is a point-in-time copy of a [ViewModel]. It shares nothing with the view model.
type Snapshot struct {
	State      State
	Err        error
	Groups     []models.CardGroup
	Visible    []models.CardGroup
	Filter     Selector
	FilterName string
	Expansions []models.ExpansionSummary
}

// TotalCards sums the quantity of the visible groups.
func (s Snapshot) TotalCards() int {
	total := 0
	for _, g := range s.Visible {
		total += g.TotalQuantity
	}
	return total
}

// Summary describes the visible groups, e.g. "Showing: Jungle (3 cards in 2 kinds)".
func (s Snapshot) Summary() string {
	cards := s.TotalCards()
	kinds := len(s.Visible)
	return fmt.Sprintf("Showing: %s (%d %s in %d %s)",
		s.FilterName, cards, plural(cards, "card", "cards"), kinds, plural(kinds, "kind", "kinds"))
}

// EmptyMessage is shown when nothing is visible. It is "" when there is something to show.
func (s Snapshot) EmptyMessage() string {
	if len(s.Visible) > 0 {
		return ""
	}
	if s.Filter.IsAll() {
		return "You have no cards in your collection."
	}
	return fmt.Sprintf("You have no cards from the expansion \"%s\".", s.FilterName)
}

// Group finds a group by key among all loaded groups, visible or not.
func (s Snapshot) Group(key models.GroupKey) (models.CardGroup, bool) {
	return FindGroup(s.Groups, key)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
