package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Grade is a professional grading value. The backend may send it as a string, a number or null.
type Grade string

// UnmarshalJSON accepts strings, numbers and null.
func (g *Grade) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*g = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*g = Grade(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("grade: %w", err)
		}
		*g = Grade(n.String())
	}
	return nil
}

// Instance is one owned card entry: a quantity of a single card with a fixed set of physical attributes.
type Instance struct {
	ID             int       `json:"id"`
	CardID         int       `json:"card"`
	CardName       string    `json:"card_name,omitempty"`
	ExpansionID    int       `json:"expansion_id"`
	ExpansionName  string    `json:"expansion_name,omitempty"`
	CardImage      string    `json:"card_image,omitempty"`
	Quantity       int       `json:"quantity"`
	Language       string    `json:"language"`
	Condition      string    `json:"condition"`
	IsHolographic  bool      `json:"is_holographic"`
	IsFirstEdition bool      `json:"is_first_edition"`
	IsSigned       bool      `json:"is_signed"`
	Grade          Grade     `json:"grade"`
	Notes          string    `json:"notes"`
	IsFavorite     bool      `json:"is_favorite"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
	UpdatedAt      time.Time `json:"updated_at,omitzero"`
}

// Key returns the grouping key for the instance.
func (i Instance) Key() GroupKey {
	return GroupKey{CardID: i.CardID, ExpansionID: i.ExpansionID}
}

// Attributes renders the non-default physical attributes as short labels, e.g. "Holo, 1st Ed".
func (i Instance) Attributes() []string {
	var attrs []string
	if i.IsHolographic {
		attrs = append(attrs, "Holo")
	}
	if i.IsFirstEdition {
		attrs = append(attrs, "1st Ed")
	}
	if i.IsSigned {
		attrs = append(attrs, "Signed")
	}
	if i.Grade != "" {
		attrs = append(attrs, "Grade "+string(i.Grade))
	}
	return attrs
}

// GroupKey identifies a [CardGroup]. Groups are keyed by the exact (card, expansion) pair.
type GroupKey struct {
	CardID      int
	ExpansionID int
}

// String formats the key as "card:expansion", the form accepted by [ParseGroupKey].
func (k GroupKey) String() string {
	return fmt.Sprintf("%d:%d", k.CardID, k.ExpansionID)
}

// ParseGroupKey parses a "card:expansion" pair.
func ParseGroupKey(s string) (GroupKey, error) {
	card, expansion, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return GroupKey{}, fmt.Errorf("group key %q: expected card:expansion", s)
	}

	cardID, err := strconv.Atoi(card)
	if err != nil {
		return GroupKey{}, fmt.Errorf("group key %q: invalid card id: %w", s, err)
	}
	expansionID, err := strconv.Atoi(expansion)
	if err != nil {
		return GroupKey{}, fmt.Errorf("group key %q: invalid expansion id: %w", s, err)
	}
	return GroupKey{CardID: cardID, ExpansionID: expansionID}, nil
}

// CardGroup aggregates every [Instance] of one card in one expansion.
//
// TotalQuantity, InstancesCount and IsAnyFavorite are derived from Instances and are
// recomputed whenever the instance list changes.
type CardGroup struct {
	CardID         int        `json:"card_id"`
	CardName       string     `json:"card_name"`
	ExpansionID    int        `json:"expansion_id"`
	ExpansionName  string     `json:"expansion_name"`
	CardImage      string     `json:"card_image"`
	TotalQuantity  int        `json:"total_quantity"`
	InstancesCount int        `json:"instances_count"`
	IsAnyFavorite  bool       `json:"is_any_favorite"`
	Instances      []Instance `json:"instances"`
}

// Key returns the group's (card, expansion) key.
func (g CardGroup) Key() GroupKey {
	return GroupKey{CardID: g.CardID, ExpansionID: g.ExpansionID}
}

// Clone returns a copy that shares no backing array with g.
func (g CardGroup) Clone() CardGroup {
	c := g
	c.Instances = append([]Instance(nil), g.Instances...)
	return c
}

// ExpansionSummary is an expansion the user owns at least one instance in.
//
// UserCardsCount counts instances, not summed quantity.
type ExpansionSummary struct {
	ID             int    `json:"id"`
	APIID          string `json:"api_id"`
	Name           string `json:"name"`
	Series         string `json:"series"`
	SymbolURL      string `json:"symbol_url"`
	UserCardsCount int    `json:"user_cards_count"`
}

// Expansion is a catalog expansion (set).
type Expansion struct {
	ID          int    `json:"id"`
	APIID       string `json:"api_id"`
	Name        string `json:"name"`
	Series      string `json:"series"`
	ReleaseDate string `json:"release_date"`
	TotalCards  int    `json:"total_cards"`
	SymbolURL   string `json:"symbol_url"`
	LogoURL     string `json:"logo_url"`
}

// Card is a catalog card.
type Card struct {
	ID            int    `json:"id"`
	APIID         string `json:"api_id"`
	Name          string `json:"name"`
	Rarity        string `json:"rarity"`
	ImageURLSmall string `json:"image_url_small"`
	ImageURLLarge string `json:"image_url_large"`
	HP            string `json:"hp"`
	Number        string `json:"number"`
	Artist        string `json:"artist"`
	ExpansionID   int    `json:"expansion"`
	ExpansionName string `json:"expansion_name"`
}
