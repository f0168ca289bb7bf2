package models

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/desertthunder/tcgtrack/internal/shared"
)

// NewInstance is the payload for adding a card to the collection.
//
// Condition, Grade and Notes are left out of the request body when blank.
type NewInstance struct {
	CardID         int    `json:"card"`
	Quantity       int    `json:"quantity"`
	Language       string `json:"language"`
	Condition      string `json:"condition,omitempty"`
	IsHolographic  bool   `json:"is_holographic"`
	IsFirstEdition bool   `json:"is_first_edition"`
	IsSigned       bool   `json:"is_signed"`
	Grade          string `json:"grade,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// Normalize returns a copy with trimmed codes and the default language filled in.
func (n NewInstance) Normalize() NewInstance {
	n.Language = shared.NormalizeCode(n.Language)
	if n.Language == "" {
		n.Language = DefaultLanguage
	}
	n.Condition = shared.NormalizeCode(n.Condition)
	n.Grade = strings.TrimSpace(n.Grade)
	n.Notes = strings.TrimSpace(n.Notes)
	return n
}

// Validate checks the payload before it is sent. Errors wrap [shared.ErrValidation].
func (n NewInstance) Validate() error {
	if n.CardID <= 0 {
		return fmt.Errorf("%w: you must select a card", shared.ErrValidation)
	}
	if n.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1, got %d", shared.ErrValidation, n.Quantity)
	}
	if !IsLanguage(n.Language) {
		return fmt.Errorf("%w: unknown language %q", shared.ErrValidation, n.Language)
	}
	if !IsCondition(n.Condition) {
		return fmt.Errorf("%w: unknown condition %q", shared.ErrValidation, n.Condition)
	}
	return nil
}

// InstancePatch is a partial update. Only non-nil fields are sent.
type InstancePatch struct {
	Quantity       *int    `json:"quantity,omitempty"`
	Language       *string `json:"language,omitempty"`
	Condition      *string `json:"condition,omitempty"`
	IsHolographic  *bool   `json:"is_holographic,omitempty"`
	IsFirstEdition *bool   `json:"is_first_edition,omitempty"`
	IsSigned       *bool   `json:"is_signed,omitempty"`
	Grade          *string `json:"grade,omitempty"`
	Notes          *string `json:"notes,omitempty"`
	IsFavorite     *bool   `json:"is_favorite,omitempty"`
}

// FavoritePatch builds a patch that only sets is_favorite.
func FavoritePatch(favorite bool) InstancePatch {
	return InstancePatch{IsFavorite: &favorite}
}

// IsEmpty reports whether the patch changes nothing.
func (p InstancePatch) IsEmpty() bool {
	return p.Quantity == nil && p.Language == nil && p.Condition == nil &&
		p.IsHolographic == nil && p.IsFirstEdition == nil && p.IsSigned == nil &&
		p.Grade == nil && p.Notes == nil && p.IsFavorite == nil
}

// Validate checks the fields that are set. Errors wrap [shared.ErrValidation].
func (p InstancePatch) Validate() error {
	if p.IsEmpty() {
		return fmt.Errorf("%w: nothing to update", shared.ErrValidation)
	}
	if p.Quantity != nil && *p.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1, got %d", shared.ErrValidation, *p.Quantity)
	}
	if p.Language != nil && !IsLanguage(*p.Language) {
		return fmt.Errorf("%w: unknown language %q", shared.ErrValidation, *p.Language)
	}
	if p.Condition != nil && !IsCondition(*p.Condition) {
		return fmt.Errorf("%w: unknown condition %q", shared.ErrValidation, *p.Condition)
	}
	return nil
}

// Apply returns a copy of i with the patch's fields written over it.
func (p InstancePatch) Apply(i Instance) Instance {
	if p.Quantity != nil {
		i.Quantity = *p.Quantity
	}
	if p.Language != nil {
		i.Language = shared.NormalizeCode(*p.Language)
	}
	if p.Condition != nil {
		i.Condition = shared.NormalizeCode(*p.Condition)
	}
	if p.IsHolographic != nil {
		i.IsHolographic = *p.IsHolographic
	}
	if p.IsFirstEdition != nil {
		i.IsFirstEdition = *p.IsFirstEdition
	}
	if p.IsSigned != nil {
		i.IsSigned = *p.IsSigned
	}
	if p.Grade != nil {
		i.Grade = Grade(*p.Grade)
	}
	if p.Notes != nil {
		i.Notes = *p.Notes
	}
	if p.IsFavorite != nil {
		i.IsFavorite = *p.IsFavorite
	}
	return i
}

// Credentials are exchanged for a token pair at login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks that both fields are present.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" || c.Password == "" {
		return fmt.Errorf("%w: username and password are required", shared.ErrMissingCredentials)
	}
	return nil
}

// Registration creates a new backend account.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks required fields and the email address format.
func (r Registration) Validate() error {
	if strings.TrimSpace(r.Username) == "" || r.Password == "" {
		return fmt.Errorf("%w: username and password are required", shared.ErrValidation)
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("%w: invalid email %q", shared.ErrValidation, r.Email)
	}
	return nil
}

// TokenPair is the backend's response to a login or refresh.
//
// Refresh is empty on a refresh response unless the server rotates refresh tokens.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}
