// package models defines the data model for the card collection client
package models

import (
	"time"
)

// Model is a record kept in the local store. Collection data itself lives on the backend.
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error
}

// ListOptions narrows a [Repository] List call. The zero value lists everything.
type ListOptions struct {
	Status string // exact stored status; empty matches any
	Limit  int    // maximum rows when positive
}

// Repository is the local CRUD surface for one model type.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(opts ListOptions) ([]T, error) // newest first
}
