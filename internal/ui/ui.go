package ui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/tcgtrack/internal/collection"
	"github.com/desertthunder/tcgtrack/internal/models"
	"github.com/desertthunder/tcgtrack/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CollectionView ViewState = iota
	DetailView
	FilterView
	ConfirmDeleteView
)

// ModelOpts configures a [Model].
type ModelOpts struct {
	OpenURL func(string) error // Opens card images; defaults to [shared.OpenURL]
	Logger  *log.Logger        // Must not write to the terminal the TUI runs in
}

// Model represents the TUI application state.
type Model struct {
	ctx           context.Context
	view          ViewState
	vm            *collection.ViewModel
	openURL       func(string) error
	logger        *log.Logger
	width         int
	height        int
	groupList     list.Model
	instanceList  list.Model
	filterList    list.Model
	snapshot      collection.Snapshot
	detail        models.GroupKey
	pendingDelete *models.Instance
	loading       bool
	status        string
	err           error
	spinner       spinner.Model
	help          help.Model
	keys          keyMap
}

// NewModel creates a new TUI model over vm.
func NewModel(ctx context.Context, vm *collection.ViewModel, opts ModelOpts) *Model {
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenURL
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &Model{
		ctx:          ctx,
		view:         CollectionView,
		vm:           vm,
		openURL:      opts.OpenURL,
		logger:       opts.Logger,
		groupList:    newList("Collection"),
		instanceList: newList(""),
		filterList:   newList("Filter by expansion"),
		snapshot:     vm.Snapshot(),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	return l
}

// Init loads the collection.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return tea.Batch(m.spinner.Tick, m.load())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.groupList, &m.instanceList, &m.filterList} {
			l.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.help) {
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}

		switch m.view {
		case CollectionView:
			return m.handleCollectionKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case FilterView:
			return m.handleFilterKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmKeys(msg)
		}
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	err := msg.errOf()

	switch msg.kind {
	case MsgLoaded:
		if errors.Is(err, shared.ErrStaleResponse) {
			return m, nil
		}
		m.loading = false
		m.err = err
		m.status = ""
	case MsgMutated:
		mu := msg.data.(mutation)
		if err != nil {
			m.logger.Error("collection update failed", "action", mu.action, "error", err)
			m.err = fmt.Errorf("could not %s: %w", mu.action, err)
		} else {
			m.err = nil
			m.status = fmt.Sprintf("Done: %s", mu.action)
		}
	case MsgImageOpened:
		m.err = err
	}

	m.refresh()
	return m, nil
}

// refresh re-reads the view model and closes views whose group is gone.
func (m *Model) refresh() {
	m.snapshot = m.vm.Snapshot()
	m.groupList.SetItems(groupItems(m.snapshot.Visible))
	m.groupList.Title = m.snapshot.Summary()
	m.filterList.SetItems(expansionItems(m.snapshot.Expansions))

	if m.view != DetailView && m.view != ConfirmDeleteView {
		return
	}

	g, ok := m.snapshot.Group(m.detail)
	if !ok {
		m.view = CollectionView
		m.pendingDelete = nil
		m.status = "That card is no longer in your collection."
		return
	}
	m.instanceList.SetItems(instanceItems(g))
	m.instanceList.Title = fmt.Sprintf("%s (%s) x%d", g.CardName, g.ExpansionName, g.TotalQuantity)
}

func (m *Model) handleCollectionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.reload):
		return m, m.reload()
	case key.Matches(msg, m.keys.filter):
		m.view = FilterView
		return m, nil
	}

	selected, ok := m.groupList.SelectedItem().(groupItem)
	if !ok {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.enter):
		m.detail = selected.group.Key()
		m.view = DetailView
		m.refresh()
		m.instanceList.Select(0)
		return m, nil
	case key.Matches(msg, m.keys.favorite):
		return m, m.toggleGroupFavorite(selected.group.Key())
	case key.Matches(msg, m.keys.image):
		return m, m.openImage(selected.group.CardImage)
	}
	return m.updateLists(msg)
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = CollectionView
		return m, nil
	case key.Matches(msg, m.keys.reload):
		return m, m.reload()
	case key.Matches(msg, m.keys.image):
		g, _ := m.snapshot.Group(m.detail)
		return m, m.openImage(g.CardImage)
	}

	selected, ok := m.instanceList.SelectedItem().(instanceItem)
	if !ok {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.favorite):
		return m, m.toggleFavorite(selected.instance.ID)
	case key.Matches(msg, m.keys.remove):
		inst := selected.instance
		m.pendingDelete = &inst
		m.view = ConfirmDeleteView
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = CollectionView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if selected, ok := m.filterList.SelectedItem().(expansionItem); ok {
			m.vm.SetFilter(selected.selector)
			m.logger.Debug("filter changed", "expansion", selected.selector)
		}
		m.view = CollectionView
		m.refresh()
		m.groupList.Select(0)
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		inst := m.pendingDelete
		m.pendingDelete = nil
		m.view = DetailView
		if inst == nil {
			return m, nil
		}
		return m, m.deleteInstance(inst.ID)
	case key.Matches(msg, m.keys.no):
		m.pendingDelete = nil
		m.view = DetailView
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case CollectionView:
		m.groupList, cmd = m.groupList.Update(msg)
	case DetailView:
		m.instanceList, cmd = m.instanceList.Update(msg)
	case FilterView:
		m.filterList, cmd = m.filterList.Update(msg)
	}
	return m, cmd
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg(m.vm.Load(m.ctx))
	}
}

func (m *Model) reload() tea.Cmd {
	m.loading = true
	m.err = nil
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m *Model) toggleGroupFavorite(k models.GroupKey) tea.Cmd {
	return func() tea.Msg {
		return mutatedMsg("update favorite", m.vm.ToggleGroupFavorite(m.ctx, k))
	}
}

func (m *Model) toggleFavorite(id int) tea.Cmd {
	return func() tea.Msg {
		return mutatedMsg("update favorite", m.vm.ToggleFavorite(m.ctx, id))
	}
}

func (m *Model) deleteInstance(id int) tea.Cmd {
	return func() tea.Msg {
		return mutatedMsg("delete card", m.vm.DeleteInstance(m.ctx, id))
	}
}

func (m *Model) openImage(url string) tea.Cmd {
	return func() tea.Msg {
		if url == "" {
			return imageOpenedMsg(fmt.Errorf("%w: this card has no image", shared.ErrNotFound))
		}
		return imageOpenedMsg(m.openURL(url))
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	var helpKeys []key.Binding

	switch m.view {
	case CollectionView:
		body = m.renderCollection()
		helpKeys = []key.Binding{m.keys.enter, m.keys.favorite, m.keys.filter, m.keys.reload, m.keys.quit}
	case DetailView:
		body = m.instanceList.View()
		helpKeys = []key.Binding{m.keys.favorite, m.keys.remove, m.keys.image, m.keys.back, m.keys.quit}
	case FilterView:
		body = m.filterList.View()
		helpKeys = []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	case ConfirmDeleteView:
		body = m.renderConfirm()
		helpKeys = []key.Binding{m.keys.yes, m.keys.no}
	}

	helpView := m.help.ShortHelpView(helpKeys)
	if m.help.ShowAll {
		helpView = m.help.FullHelpView(m.keys.FullHelp())
	}
	return fmt.Sprintf("%s\n%s\n\n%s", body, m.renderStatus(), helpView)
}

func (m *Model) renderCollection() string {
	switch {
	case m.loading && m.snapshot.State != collection.StateReady:
		return styles.title.Render("tcgtrack")
	case m.snapshot.State == collection.StateError:
		return styles.title.Render("tcgtrack") + "\n" + styles.warn.Render("Press r to retry")
	case len(m.snapshot.Visible) == 0 && m.snapshot.State == collection.StateReady:
		return styles.title.Render(m.snapshot.Summary()) + "\n" + styles.warn.Render(m.snapshot.EmptyMessage())
	default:
		return m.groupList.View()
	}
}

func (m *Model) renderConfirm() string {
	inst := m.pendingDelete
	if inst == nil {
		return ""
	}
	title := styles.title.Render(fmt.Sprintf("Delete %s from your collection?", inst.CardName))
	info := fmt.Sprintf("\n%s\n", instanceItem{instance: *inst}.Description())
	return fmt.Sprintf("%s\nx%d %s%s", title, inst.Quantity, models.LanguageLabel(inst.Language), info)
}

func (m *Model) renderStatus() string {
	switch {
	case m.loading:
		return fmt.Sprintf("%s Loading collection...", m.spinner.View())
	case m.err != nil:
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	case m.status != "":
		return styles.ok.Render(m.status)
	default:
		return styles.help.Render(m.snapshot.State.String())
	}
}
