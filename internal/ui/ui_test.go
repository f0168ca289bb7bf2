package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/tcgtrack/internal/auth"
	"github.com/desertthunder/tcgtrack/internal/collection"
	"github.com/desertthunder/tcgtrack/internal/repositories"
	"github.com/desertthunder/tcgtrack/internal/services"
	tu "github.com/desertthunder/tcgtrack/internal/testing"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T) (*Model, *tu.FakeBackend, *[]string) {
	t.Helper()

	backend := tu.NewFakeBackend(t)
	backend.SetTokens(tu.MakeJWT(t, 1, time.Hour), "refresh-1")
	store := tu.NewMemoryStore(map[string]string{repositories.KeyAccessToken: backend.AccessToken})
	session, err := auth.NewSession(store, nil)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	svc := services.NewCollectionService(services.NewAPIService(backend.URL(), auth.NewClient(session, nil, nil)))
	vm := collection.NewViewModel(svc, collection.ViewModelOpts{Grouped: true})

	var opened []string
	m := NewModel(context.Background(), vm, ModelOpts{OpenURL: func(u string) error {
		opened = append(opened, u)
		return nil
	}})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, backend, &opened
}

// press sends a key and runs the returned command, feeding its message back.
func press(m *Model, msg tea.KeyMsg) {
	_, cmd := m.Update(msg)
	if cmd == nil {
		return
	}
	if out, ok := cmd().(Msg); ok {
		m.Update(out)
	}
}

func load(t *testing.T, m *Model) {
	t.Helper()
	m.loading = true
	m.Update(m.load()())
	if m.err != nil {
		t.Fatalf("load failed: %v", m.err)
	}
}

func TestModel(t *testing.T) {
	t.Run("loads collection", func(t *testing.T) {
		m, backend, _ := newTestModel(t)
		backend.Seed(10, 1, "EN", true)
		backend.Seed(20, 2, "EN", false)

		load(t, m)
		if m.loading {
			t.Error("expected loading to finish")
		}
		if got := len(m.groupList.Items()); got != 2 {
			t.Fatalf("expected 2 groups, got %d", got)
		}
		if m.groupList.Title != "Showing: All (3 cards in 2 kinds)" {
			t.Errorf("unexpected title %q", m.groupList.Title)
		}
		if !strings.Contains(m.View(), "Pikachu") {
			t.Error("expected view to list cards")
		}
	})

	t.Run("shows empty message", func(t *testing.T) {
		m, _, _ := newTestModel(t)
		load(t, m)
		if !strings.Contains(m.View(), "You have no cards in your collection.") {
			t.Errorf("expected empty message, got:\n%s", m.View())
		}
	})

	t.Run("load error", func(t *testing.T) {
		m, backend, _ := newTestModel(t)
		backend.FailNext("GET /user-cards/grouped/", 500)
		m.Update(m.load()())
		if m.err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(m.View(), "Press r to retry") {
			t.Errorf("expected retry hint, got:\n%s", m.View())
		}
	})

	t.Run("detail view and favorite", func(t *testing.T) {
		m, backend, _ := newTestModel(t)
		id := backend.Seed(10, 1, "EN", false)
		load(t, m)

		press(m, tea.KeyMsg{Type: tea.KeyEnter})
		if m.view != DetailView {
			t.Fatalf("expected detail view, got %v", m.view)
		}
		if got := len(m.instanceList.Items()); got != 1 {
			t.Fatalf("expected 1 instance, got %d", got)
		}

		press(m, runes("f"))
		if m.err != nil {
			t.Fatalf("favorite failed: %v", m.err)
		}
		if inst, _ := backend.Instance(id); !inst.IsFavorite {
			t.Error("expected server copy favorited")
		}
		if item := m.instanceList.Items()[0].(instanceItem); !item.instance.IsFavorite {
			t.Error("expected list refreshed")
		}

		press(m, tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != CollectionView {
			t.Errorf("expected collection view, got %v", m.view)
		}
	})

	t.Run("deleting the last instance closes the detail view", func(t *testing.T) {
		m, backend, _ := newTestModel(t)
		id := backend.Seed(10, 1, "EN", false)
		load(t, m)

		press(m, tea.KeyMsg{Type: tea.KeyEnter})
		press(m, runes("d"))
		if m.view != ConfirmDeleteView {
			t.Fatalf("expected confirm view, got %v", m.view)
		}
		press(m, runes("y"))

		if _, ok := backend.Instance(id); ok {
			t.Error("expected instance deleted")
		}
		if m.view != CollectionView {
			t.Errorf("expected collection view, got %v", m.view)
		}
		if m.status != "That card is no longer in your collection." {
			t.Errorf("unexpected status %q", m.status)
		}
	})

	t.Run("declining delete keeps instance", func(t *testing.T) {
		m, backend, _ := newTestModel(t)
		id := backend.Seed(10, 1, "EN", false)
		load(t, m)

		press(m, tea.KeyMsg{Type: tea.KeyEnter})
		press(m, runes("d"))
		press(m, runes("n"))
		if m.view != DetailView {
			t.Errorf("expected detail view, got %v", m.view)
		}
		if _, ok := backend.Instance(id); !ok {
			t.Error("expected instance kept")
		}
	})

	t.Run("filter by expansion", func(t *testing.T) {
		m, backend, _ := newTestModel(t)
		backend.Seed(10, 1, "EN", false)
		backend.Seed(20, 1, "EN", false)
		load(t, m)

		press(m, runes("e"))
		if m.view != FilterView {
			t.Fatalf("expected filter view, got %v", m.view)
		}
		if got := len(m.filterList.Items()); got != 3 {
			t.Fatalf("expected All plus 2 expansions, got %d", got)
		}
		m.filterList.Select(2)
		press(m, tea.KeyMsg{Type: tea.KeyEnter})

		if m.view != CollectionView {
			t.Errorf("expected collection view, got %v", m.view)
		}
		if got := len(m.groupList.Items()); got != 1 {
			t.Errorf("expected 1 visible group, got %d", got)
		}
		if m.groupList.Title != "Showing: Jungle (1 card in 1 kind)" {
			t.Errorf("unexpected title %q", m.groupList.Title)
		}
	})

	t.Run("open image", func(t *testing.T) {
		m, backend, opened := newTestModel(t)
		backend.Seed(10, 1, "EN", false)
		load(t, m)

		press(m, runes("o"))
		if len(*opened) != 1 || (*opened)[0] != "https://images.example.com/base1-58.png" {
			t.Errorf("unexpected opened urls %v", *opened)
		}
	})

	t.Run("quit", func(t *testing.T) {
		m, _, _ := newTestModel(t)
		_, cmd := m.Update(runes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}
