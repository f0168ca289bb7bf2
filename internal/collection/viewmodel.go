package collection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tcgtrack/internal/models"
	"github.com/desertthunder/tcgtrack/internal/shared"
)

// CollectionAPI is the backend surface the view model needs.
// services.CollectionService implements it.
type CollectionAPI interface {
	GroupedCards(ctx context.Context) ([]models.CardGroup, error)
	UserCards(ctx context.Context) ([]models.Instance, error)
	UserExpansions(ctx context.Context) ([]models.ExpansionSummary, error)
	AddCard(ctx context.Context, n models.NewInstance) (models.Instance, error)
	UpdateCard(ctx context.Context, id int, patch models.InstancePatch) (models.Instance, error)
	DeleteCard(ctx context.Context, id int) error
}

// State is the load state of a [ViewModel].
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ViewModelOpts configures a [ViewModel].
type ViewModelOpts struct {
	// Grouped loads from the pre-grouped endpoint instead of the flat instance list.
	Grouped bool
	Logger  *log.Logger
}

// ViewModel holds a user's collection, grouped and filtered for display.
//
// It is safe for concurrent use. Backend calls are made without holding the lock.
type ViewModel struct {
	api    CollectionAPI
	opts   ViewModelOpts
	logger *log.Logger

	mu         sync.Mutex
	state      State
	err        error
	groups     []models.CardGroup
	expansions []models.ExpansionSummary
	filter     Selector
	generation uint64
}

// NewViewModel creates an idle view model with the [All] filter.
func NewViewModel(api CollectionAPI, opts ViewModelOpts) *ViewModel {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ViewModel{api: api, opts: opts, logger: logger, groups: []models.CardGroup{}}
}

// Load fetches the collection and the user's expansions, replacing everything held.
//
// Only the most recently started Load is applied; an earlier one still in flight
// returns [shared.ErrStaleResponse] and changes nothing. A failed fetch puts the
// view model in [StateError] and discards the previous groups. A failed expansion
// fetch is logged and the summaries are derived from the loaded groups instead.
func (vm *ViewModel) Load(ctx context.Context) error {
	vm.mu.Lock()
	vm.generation++
	gen := vm.generation
	vm.state = StateLoading
	vm.err = nil
	vm.mu.Unlock()

	groups, err := vm.fetch(ctx)

	var expansions []models.ExpansionSummary
	var expErr error
	if err == nil {
		expansions, expErr = vm.api.UserExpansions(ctx)
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()

	if gen != vm.generation {
		vm.logger.Debug("dropping stale load", "generation", gen, "latest", vm.generation)
		return fmt.Errorf("%w: load %d superseded by %d", shared.ErrStaleResponse, gen, vm.generation)
	}

	if err != nil {
		vm.state = StateError
		vm.err = err
		vm.groups = []models.CardGroup{}
		vm.expansions = nil
		vm.logger.Error("failed to load collection", "error", err)
		return err
	}

	if expErr != nil {
		vm.logger.Warn("failed to load expansions", "error", expErr)
	}
	vm.groups = groups
	vm.expansions = Summarize(Flatten(groups), expansions)
	vm.state = StateReady
	vm.logger.Info("loaded collection", "groups", len(groups), "expansions", len(vm.expansions))
	return nil
}

func (vm *ViewModel) fetch(ctx context.Context) ([]models.CardGroup, error) {
	if vm.opts.Grouped {
		groups, err := vm.api.GroupedCards(ctx)
		if err != nil {
			return nil, err
		}
		return Normalize(groups), nil
	}

	instances, err := vm.api.UserCards(ctx)
	if err != nil {
		return nil, err
	}
	return Group(instances), nil
}

// SetFilter changes the visible expansion without refetching.
func (vm *ViewModel) SetFilter(sel Selector) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.filter = sel
}

// ToggleFavorite flips the favorite flag of one instance.
func (vm *ViewModel) ToggleFavorite(ctx context.Context, instanceID int) error {
	vm.mu.Lock()
	inst, _, ok := FindInstance(vm.groups, instanceID)
	vm.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", shared.ErrInstanceNotFound, instanceID)
	}

	updated, err := vm.api.UpdateCard(ctx, instanceID, models.FavoritePatch(!inst.IsFavorite))
	if err != nil {
		return err
	}
	vm.replace(updated)
	return nil
}

// ToggleGroupFavorite flips the favorite state of a group by patching its first instance.
//
// The first instance is set to the opposite of the group's current IsAnyFavorite.
func (vm *ViewModel) ToggleGroupFavorite(ctx context.Context, key models.GroupKey) error {
	vm.mu.Lock()
	g, ok := FindGroup(vm.groups, key)
	vm.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrGroupNotFound, key)
	}

	first := g.Instances[0]
	updated, err := vm.api.UpdateCard(ctx, first.ID, models.FavoritePatch(!g.IsAnyFavorite))
	if err != nil {
		return err
	}
	vm.replace(updated)
	return nil
}

// UpdateInstance applies an attribute edit.
func (vm *ViewModel) UpdateInstance(ctx context.Context, instanceID int, patch models.InstancePatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	vm.mu.Lock()
	_, _, ok := FindInstance(vm.groups, instanceID)
	vm.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", shared.ErrInstanceNotFound, instanceID)
	}

	updated, err := vm.api.UpdateCard(ctx, instanceID, patch)
	if err != nil {
		return err
	}
	vm.replace(updated)
	return nil
}

// DeleteInstance removes one instance. A group left empty disappears.
//
// A 404 means the instance is already gone on the server; it counts as success and
// the instance is dropped locally if it is still held.
func (vm *ViewModel) DeleteInstance(ctx context.Context, instanceID int) error {
	vm.mu.Lock()
	_, _, ok := FindInstance(vm.groups, instanceID)
	vm.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", shared.ErrInstanceNotFound, instanceID)
	}

	err := vm.api.DeleteCard(ctx, instanceID)

	vm.mu.Lock()
	defer vm.mu.Unlock()

	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if err != nil {
		vm.logger.Debug("instance already deleted on the server", "id", instanceID)
	}

	groups, removed := RemoveInstance(vm.groups, instanceID)
	if !removed {
		vm.logger.Debug("instance already removed", "id", instanceID)
		return nil
	}
	vm.groups = groups
	vm.expansions = Summarize(Flatten(groups), vm.expansions)
	vm.logger.Info("deleted instance", "id", instanceID)
	return nil
}

// AddInstance validates n, creates it on the backend and adds the created instance to its group.
//
// Validation failures wrap [shared.ErrValidation] and send nothing.
func (vm *ViewModel) AddInstance(ctx context.Context, n models.NewInstance) (models.Instance, error) {
	n = n.Normalize()
	if err := n.Validate(); err != nil {
		return models.Instance{}, err
	}

	created, err := vm.api.AddCard(ctx, n)
	if err != nil {
		return models.Instance{}, err
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()

	if groups, ok := ReplaceInstance(vm.groups, created); ok {
		vm.groups = groups
	} else {
		vm.groups = InsertInstance(vm.groups, created)
	}
	vm.expansions = Summarize(Flatten(vm.groups), vm.expansions)
	vm.logger.Info("added instance", "id", created.ID, "card", created.CardID)
	return created, nil
}

// replace applies a server copy of an instance if it is still held.
func (vm *ViewModel) replace(updated models.Instance) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	groups, ok := ReplaceInstance(vm.groups, updated)
	if !ok {
		vm.logger.Debug("ignoring update for removed instance", "id", updated.ID)
		return
	}
	vm.groups = groups
	vm.logger.Info("updated instance", "id", updated.ID, "favorite", updated.IsFavorite)
}

// Group returns the current copy of the group with key.
//
// ok is false once the group has no instances left, which closes any detail view showing it.
func (vm *ViewModel) Group(key models.GroupKey) (models.CardGroup, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	g, ok := FindGroup(vm.groups, key)
	if !ok {
		return models.CardGroup{}, false
	}
	return g.Clone(), true
}

// Snapshot returns a copy of the current state.
func (vm *ViewModel) Snapshot() Snapshot {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	all := cloneGroups(vm.groups)
	return Snapshot{
		State:      vm.state,
		Err:        vm.err,
		Groups:     all,
		Visible:    Filter(all, vm.filter),
		Filter:     vm.filter,
		FilterName: FilterName(all, vm.expansions, vm.filter),
		Expansions: append([]models.ExpansionSummary{}, vm.expansions...),
	}
}
