package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/tcgtrack/internal/auth"
	"github.com/desertthunder/tcgtrack/internal/formatter"
	"github.com/desertthunder/tcgtrack/internal/models"
	"github.com/desertthunder/tcgtrack/internal/repositories"
	"github.com/desertthunder/tcgtrack/internal/services"
	"github.com/desertthunder/tcgtrack/internal/shared"
	tu "github.com/desertthunder/tcgtrack/internal/testing"
)

type mockAdder struct {
	mu      sync.Mutex
	calls   int
	failFor map[int]error
	nextID  int
}

func (m *mockAdder) AddCard(ctx context.Context, n models.NewInstance) (models.Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err, ok := m.failFor[n.CardID]; ok {
		return models.Instance{}, err
	}
	m.nextID++
	return models.Instance{ID: m.nextID, CardID: n.CardID, CardName: "Card", Quantity: n.Quantity}, nil
}

type mockRunStore struct {
	mu      sync.Mutex
	created int
	updates []models.ImportStatus
}

func (m *mockRunStore) Create(run *models.ImportRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
	run.SetID("run-1")
	return nil
}

func (m *mockRunStore) Update(run *models.ImportRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, run.Status())
	return nil
}

func importRows(t *testing.T, input string) []formatter.ImportRow {
	t.Helper()
	rows, err := formatter.ParseImportCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseImportCSV() error = %v", err)
	}
	return rows
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	opts := ImportOpts{Source: "cards.csv", NumWorkers: 3, RateLimit: 1000}

	t.Run("adds every row", func(t *testing.T) {
		adder := &mockAdder{}
		store := &mockRunStore{}
		engine := NewImportEngine(adder, store, nil)
		prog := make(chan ProgressUpdate, 100)

		result, err := engine.Import(ctx, prog, importRows(t, "card,quantity\n10,1\n11,2\n20,3\n"), opts)
		if err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if result.Total != 3 || result.Added != 3 || result.Failed != 0 {
			t.Errorf("unexpected counts %+v", result)
		}
		if adder.calls != 3 {
			t.Errorf("expected 3 requests, got %d", adder.calls)
		}
		for i, line := range []int{2, 3, 4} {
			if result.Results[i].Line != line || result.Results[i].Created == nil {
				t.Errorf("result %d: unexpected %+v", i, result.Results[i])
			}
		}

		run := result.Run
		if run.Status() != models.ImportCompleted || run.Added() != 3 || run.Total() != 3 || run.ID() != "run-1" {
			t.Errorf("unexpected run %s %d/%d", run.Status(), run.Added(), run.Total())
		}
		if store.created != 1 || store.updates[len(store.updates)-1] != models.ImportCompleted {
			t.Errorf("unexpected run bookkeeping: created %d, updates %v", store.created, store.updates)
		}

		close(prog)
		phases := map[Phase]int{}
		for update := range prog {
			phases[update.Phase]++
		}
		if phases[ValidateRows] != 1 || phases[ImportRows] != 4 || phases[RecordRun] != 1 {
			t.Errorf("unexpected progress phases %v", phases)
		}
	})

	t.Run("invalid rows are not sent", func(t *testing.T) {
		adder := &mockAdder{}
		engine := NewImportEngine(adder, nil, nil)

		result, err := engine.Import(ctx, nil, importRows(t, "card,quantity\n10,1\nabc,1\n11,0\n"), opts)
		if err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if adder.calls != 1 {
			t.Errorf("expected 1 request, got %d", adder.calls)
		}
		if result.Added != 1 || result.Failed != 2 {
			t.Errorf("expected 1 added and 2 failed, got %d/%d", result.Added, result.Failed)
		}
		if !errors.Is(result.Results[1].Error, shared.ErrInvalidInput) {
			t.Errorf("expected parse error kept, got %v", result.Results[1].Error)
		}
	})

	t.Run("failed requests are reported", func(t *testing.T) {
		adder := &mockAdder{failFor: map[int]error{11: shared.ErrValidation}}
		engine := NewImportEngine(adder, nil, nil)

		result, err := engine.Import(ctx, nil, importRows(t, "card\n10\n11\n"), opts)
		if err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if !errors.Is(result.Results[1].Error, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", result.Results[1].Error)
		}
		if adder.calls != 2 {
			t.Errorf("expected no retry, got %d requests", adder.calls)
		}
	})

	t.Run("nothing added fails the run", func(t *testing.T) {
		adder := &mockAdder{failFor: map[int]error{10: shared.ErrServer}}
		store := &mockRunStore{}
		engine := NewImportEngine(adder, store, nil)

		result, err := engine.Import(ctx, nil, importRows(t, "card\n10\n"), opts)
		if err == nil {
			t.Fatal("expected error")
		}
		if result.Run.Status() != models.ImportFailed || result.Run.ErrorMessage() == "" {
			t.Errorf("expected failed run, got %s", result.Run.Status())
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		adder := &mockAdder{}
		engine := NewImportEngine(adder, nil, nil)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		result, err := engine.Import(cancelled, nil, importRows(t, "card\n10\n11\n"), opts)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if result.Added != 0 || result.Failed != 2 {
			t.Errorf("expected every row failed, got %d/%d", result.Added, result.Failed)
		}
		if adder.calls != 0 {
			t.Errorf("expected no requests, got %d", adder.calls)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		engine := NewImportEngine(&mockAdder{}, nil, nil)
		if _, err := engine.Import(ctx, nil, nil, opts); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("missing client", func(t *testing.T) {
		engine := NewImportEngine(nil, nil, nil)
		if _, err := engine.Import(ctx, nil, importRows(t, "card\n10\n"), opts); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestImportWithBackend(t *testing.T) {
	backend := tu.NewFakeBackend(t)
	backend.SetTokens(tu.MakeJWT(t, 1, time.Hour), "refresh-1")
	store := tu.NewMemoryStore(map[string]string{repositories.KeyAccessToken: backend.AccessToken})
	session, err := auth.NewSession(store, nil)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	svc := services.NewCollectionService(services.NewAPIService(backend.URL(), auth.NewClient(session, nil, nil)))

	db, err := shared.OpenStore(shared.StorageConfig{Path: filepath.Join(t.TempDir(), "tcgtrack.db")})
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	defer db.Close()
	runs := repositories.NewImportRunRepository(db)

	engine := NewImportEngine(svc, runs, nil)
	rows := importRows(t, "card,quantity,language\n10,1,EN\n10,1,EN\n999,1,EN\n20,2,ES\n")

	result, err := engine.Import(context.Background(), nil, rows, ImportOpts{Source: "cards.csv", NumWorkers: 1, RateLimit: 1000})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.Added != 2 || result.Failed != 2 {
		t.Errorf("expected 2 added and 2 failed, got %d/%d", result.Added, result.Failed)
	}
	if (result.Results[0].Error == nil) == (result.Results[1].Error == nil) {
		t.Errorf("expected exactly one of the duplicate rows to fail, got %v and %v", result.Results[0].Error, result.Results[1].Error)
	}
	if !errors.Is(result.Results[2].Error, shared.ErrValidation) {
		t.Errorf("expected ErrValidation for unknown card, got %v", result.Results[2].Error)
	}
	if got := backend.RequestCount("POST", "/user-cards/add/"); got != 4 {
		t.Errorf("expected 4 add requests, got %d", got)
	}

	stored, err := runs.Get(result.Run.ID())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Status() != models.ImportCompleted || stored.Added() != 2 || stored.Failed() != 2 {
		t.Errorf("unexpected stored run %s %d/%d", stored.Status(), stored.Added(), stored.Failed())
	}
}
