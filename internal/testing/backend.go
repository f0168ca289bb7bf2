package testing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/tcgtrack/internal/models"
)

// RecordedRequest is a request seen by [FakeBackend].
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	Body          []byte
}

// FakeBackend is an in-memory collection backend served over httptest.
//
// Set AccessToken to require "Authorization: Bearer <AccessToken>" on collection endpoints.
type FakeBackend struct {
	mu sync.Mutex

	Server       *httptest.Server
	AccessToken  string
	RefreshToken string
	Users        map[string]string
	Expansions   []models.Expansion
	Cards        []models.Card
	Instances    []models.Instance
	Requests     []RecordedRequest

	nextID   int
	failures map[string][]int
}

// NewFakeBackend starts a backend seeded with two expansions and a few cards. The server is closed on test cleanup.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	b := &FakeBackend{
		Users: map[string]string{"ash": "pikachu"},
		Expansions: []models.Expansion{
			{ID: 1, APIID: "base1", Name: "Base Set", Series: "Base", TotalCards: 102},
			{ID: 2, APIID: "jungle", Name: "Jungle", Series: "Base", TotalCards: 64},
		},
		Cards: []models.Card{
			{ID: 10, APIID: "base1-58", Name: "Pikachu", Rarity: "Common", ImageURLSmall: "https://images.example.com/base1-58.png", Number: "58", ExpansionID: 1, ExpansionName: "Base Set"},
			{ID: 11, APIID: "base1-4", Name: "Charizard", Rarity: "Rare Holo", ImageURLSmall: "https://images.example.com/base1-4.png", Number: "4", ExpansionID: 1, ExpansionName: "Base Set"},
			{ID: 20, APIID: "jungle-60", Name: "Pikachu", Rarity: "Common", ImageURLSmall: "https://images.example.com/jungle-60.png", Number: "60", ExpansionID: 2, ExpansionName: "Jungle"},
		},
		nextID:   100,
		failures: map[string][]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token/{$}", b.handleLogin)
	mux.HandleFunc("POST /token/refresh/{$}", b.handleRefresh)
	mux.HandleFunc("POST /register/{$}", b.handleRegister)
	mux.HandleFunc("GET /expansions/{$}", b.handleExpansions)
	mux.HandleFunc("GET /expansions/{api_id}/cards/{$}", b.handleExpansionCards)
	mux.HandleFunc("GET /user-cards/{$}", b.handleUserCards)
	mux.HandleFunc("GET /user-cards/grouped/{$}", b.handleGrouped)
	mux.HandleFunc("GET /user-expansions/{$}", b.handleUserExpansions)
	mux.HandleFunc("POST /user-cards/add/{$}", b.handleAdd)
	mux.HandleFunc("PATCH /user-cards/{id}/{$}", b.handleUpdate)
	mux.HandleFunc("DELETE /user-cards/{id}/{$}", b.handleDelete)

	b.Server = httptest.NewServer(b.middleware(mux))
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the server's base URL.
func (b *FakeBackend) URL() string {
	return b.Server.URL
}

// Seed adds an owned instance of cardID, filling display fields from the catalog, and returns its id.
func (b *FakeBackend) Seed(cardID, quantity int, language string, favorite bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	inst := b.instanceFor(cardID)
	inst.Quantity = quantity
	inst.Language = language
	inst.IsFavorite = favorite
	b.Instances = append(b.Instances, inst)
	return inst.ID
}

// SetTokens sets the token pair the backend issues and accepts.
func (b *FakeBackend) SetTokens(access, refresh string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.AccessToken = access
	b.RefreshToken = refresh
}

// FailNext makes the next request matching "METHOD /path" answer with status instead of being handled.
func (b *FakeBackend) FailNext(route string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = append(b.failures[route], status)
}

// Instance returns a copy of the stored instance with id.
func (b *FakeBackend) Instance(id int) (models.Instance, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, inst := range b.Instances {
		if inst.ID == id {
			return inst, true
		}
	}
	return models.Instance{}, false
}

// RequestCount counts recorded requests matching method and path.
func (b *FakeBackend) RequestCount(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.Requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// LastRequest returns the most recent recorded request.
func (b *FakeBackend) LastRequest() RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.Requests) == 0 {
		return RecordedRequest{}
	}
	return b.Requests[len(b.Requests)-1]
}

func (b *FakeBackend) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		b.mu.Lock()
		b.Requests = append(b.Requests, RecordedRequest{
			Method: r.Method, Path: r.URL.Path, Authorization: r.Header.Get("Authorization"), Body: body,
		})
		route := r.Method + " " + r.URL.Path
		status := 0
		if queued := b.failures[route]; len(queued) > 0 {
			status = queued[0]
			b.failures[route] = queued[1:]
		}
		token := b.AccessToken
		b.mu.Unlock()

		if status != 0 {
			writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
			return
		}

		public := strings.HasPrefix(r.URL.Path, "/token/") || r.URL.Path == "/register/"
		if token != "" && !public && r.Header.Get("Authorization") != "Bearer "+token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid for any token type"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if pw, ok := b.Users[creds.Username]; !ok || pw != creds.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
		return
	}
	writeJSON(w, http.StatusOK, models.TokenPair{Access: b.AccessToken, Refresh: b.RefreshToken})
}

func (b *FakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Refresh string `json:"refresh"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	defer b.mu.Unlock()
	if body.Refresh == "" || body.Refresh != b.RefreshToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": b.AccessToken})
}

func (b *FakeBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil || reg.Username == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"This field is required."}})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.Users[reg.Username]; exists {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"A user with that username already exists."}})
		return
	}
	b.Users[reg.Username] = reg.Password
	writeJSON(w, http.StatusCreated, map[string]string{"username": reg.Username, "email": reg.Email})
}

func (b *FakeBackend) handleExpansions(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.Expansions)
}

func (b *FakeBackend) handleExpansionCards(w http.ResponseWriter, r *http.Request) {
	apiID := r.PathValue("api_id")

	b.mu.Lock()
	defer b.mu.Unlock()

	var exp *models.Expansion
	for i := range b.Expansions {
		if b.Expansions[i].APIID == apiID {
			exp = &b.Expansions[i]
		}
	}
	if exp == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}

	cards := []models.Card{}
	for _, c := range b.Cards {
		if c.ExpansionID == exp.ID {
			cards = append(cards, c)
		}
	}
	writeJSON(w, http.StatusOK, cards)
}

func (b *FakeBackend) handleUserCards(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := append([]models.Instance{}, b.Instances...)
	writeJSON(w, http.StatusOK, out)
}

func (b *FakeBackend) handleGrouped(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	groups := []models.CardGroup{}
	index := map[models.GroupKey]int{}
	for _, inst := range b.Instances {
		i, ok := index[inst.Key()]
		if !ok {
			i = len(groups)
			index[inst.Key()] = i
			groups = append(groups, models.CardGroup{
				CardID: inst.CardID, CardName: inst.CardName,
				ExpansionID: inst.ExpansionID, ExpansionName: inst.ExpansionName, CardImage: inst.CardImage,
			})
		}
		g := &groups[i]
		g.Instances = append(g.Instances, inst)
		g.TotalQuantity += inst.Quantity
		g.InstancesCount++
		g.IsAnyFavorite = g.IsAnyFavorite || inst.IsFavorite
	}
	writeJSON(w, http.StatusOK, groups)
}

func (b *FakeBackend) handleUserExpansions(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := []models.ExpansionSummary{}
	for _, e := range b.Expansions {
		n := 0
		for _, inst := range b.Instances {
			if inst.ExpansionID == e.ID {
				n++
			}
		}
		if n > 0 {
			out = append(out, models.ExpansionSummary{ID: e.ID, APIID: e.APIID, Name: e.Name, Series: e.Series, UserCardsCount: n})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *FakeBackend) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req models.NewInstance
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.hasCard(req.CardID) {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"card": {fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", req.CardID)}})
		return
	}
	if req.Quantity < 1 {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"quantity": {"Ensure this value is greater than or equal to 1."}})
		return
	}
	for _, inst := range b.Instances {
		if inst.CardID == req.CardID && inst.Language == req.Language && inst.Condition == req.Condition &&
			inst.IsHolographic == req.IsHolographic && inst.IsFirstEdition == req.IsFirstEdition && inst.IsSigned == req.IsSigned {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": {"You already own this card with these attributes."}})
			return
		}
	}

	inst := b.instanceFor(req.CardID)
	inst.Quantity = req.Quantity
	inst.Language = req.Language
	inst.Condition = req.Condition
	inst.IsHolographic = req.IsHolographic
	inst.IsFirstEdition = req.IsFirstEdition
	inst.IsSigned = req.IsSigned
	inst.Grade = models.Grade(req.Grade)
	inst.Notes = req.Notes
	b.Instances = append(b.Instances, inst)
	writeJSON(w, http.StatusCreated, inst)
}

func (b *FakeBackend) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch models.InstancePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(r.PathValue("id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	b.Instances[i] = patch.Apply(b.Instances[i])
	b.Instances[i].UpdatedAt = time.Now().UTC()
	writeJSON(w, http.StatusOK, b.Instances[i])
}

func (b *FakeBackend) handleDelete(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(r.PathValue("id"))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	b.Instances = append(b.Instances[:i], b.Instances[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

// instanceFor builds a new instance of cardID with catalog display fields. Callers hold b.mu.
func (b *FakeBackend) instanceFor(cardID int) models.Instance {
	b.nextID++
	now := time.Now().UTC()
	inst := models.Instance{ID: b.nextID, CardID: cardID, CreatedAt: now, UpdatedAt: now}
	for _, c := range b.Cards {
		if c.ID == cardID {
			inst.CardName = c.Name
			inst.ExpansionID = c.ExpansionID
			inst.ExpansionName = c.ExpansionName
			inst.CardImage = c.ImageURLSmall
		}
	}
	return inst
}

func (b *FakeBackend) hasCard(cardID int) bool {
	for _, c := range b.Cards {
		if c.ID == cardID {
			return true
		}
	}
	return false
}

func (b *FakeBackend) indexOf(rawID string) int {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return -1
	}
	for i, inst := range b.Instances {
		if inst.ID == id {
			return i
		}
	}
	return -1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
