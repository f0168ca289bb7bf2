package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/tcgtrack/internal/models"
	"github.com/desertthunder/tcgtrack/internal/shared"
)

// CollectionService wraps the user collection and catalog endpoints.
type CollectionService struct {
	api *APIService
}

// NewCollectionService creates a CollectionService over api.
func NewCollectionService(api *APIService) *CollectionService {
	return &CollectionService{api: api}
}

// GroupedCards fetches GET /user-cards/grouped/.
func (s *CollectionService) GroupedCards(ctx context.Context) ([]models.CardGroup, error) {
	groups, err := getJSON[[]models.CardGroup](ctx, s.api, "/user-cards/grouped/")
	if groups == nil && err == nil {
		groups = []models.CardGroup{}
	}
	return groups, err
}

// UserCards fetches the flat instance list from GET /user-cards/.
func (s *CollectionService) UserCards(ctx context.Context) ([]models.Instance, error) {
	instances, err := getJSON[[]models.Instance](ctx, s.api, "/user-cards/")
	if instances == nil && err == nil {
		instances = []models.Instance{}
	}
	return instances, err
}

// UserExpansions fetches GET /user-expansions/: expansions with at least one owned instance.
func (s *CollectionService) UserExpansions(ctx context.Context) ([]models.ExpansionSummary, error) {
	return getJSON[[]models.ExpansionSummary](ctx, s.api, "/user-expansions/")
}

// AddCard posts a new instance to /user-cards/add/.
func (s *CollectionService) AddCard(ctx context.Context, n models.NewInstance) (models.Instance, error) {
	return sendJSON[models.Instance](ctx, s.api, http.MethodPost, "/user-cards/add/", n)
}

// UpdateCard patches /user-cards/{id}/ and returns the server's copy.
func (s *CollectionService) UpdateCard(ctx context.Context, id int, patch models.InstancePatch) (models.Instance, error) {
	return sendJSON[models.Instance](ctx, s.api, http.MethodPatch, fmt.Sprintf("/user-cards/%d/", id), patch)
}

// DeleteCard deletes /user-cards/{id}/.
func (s *CollectionService) DeleteCard(ctx context.Context, id int) error {
	path := fmt.Sprintf("/user-cards/%d/", id)
	resp, err := s.api.Delete(ctx, path)
	if err != nil {
		return err
	}
	return checkResponse(resp, http.MethodDelete, path)
}

// Expansions lists the catalog's expansions.
func (s *CollectionService) Expansions(ctx context.Context) ([]models.Expansion, error) {
	return getJSON[[]models.Expansion](ctx, s.api, "/expansions/")
}

// ExpansionCards lists the cards of the expansion with the given catalog api id (e.g. "base1").
func (s *CollectionService) ExpansionCards(ctx context.Context, apiID string) ([]models.Card, error) {
	if apiID == "" {
		return nil, fmt.Errorf("%w: expansion api id", shared.ErrMissingArgument)
	}
	cards, err := getJSON[[]models.Card](ctx, s.api, "/expansions/"+url.PathEscape(apiID)+"/cards/")
	if errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("%w: expansion %q", shared.ErrNotFound, apiID)
	}
	return cards, err
}
