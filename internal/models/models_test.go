package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/tcgtrack/internal/shared"
)

func TestGrade(t *testing.T) {
	tc := []struct {
		name string
		json string
		want Grade
	}{
		{name: "string", json: `{"grade":"PSA 10"}`, want: "PSA 10"},
		{name: "number", json: `{"grade":9.5}`, want: "9.5"},
		{name: "integer", json: `{"grade":10}`, want: "10"},
		{name: "null", json: `{"grade":null}`, want: ""},
		{name: "missing", json: `{}`, want: ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			var i Instance
			if err := json.Unmarshal([]byte(tt.json), &i); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if i.Grade != tt.want {
				t.Errorf("Grade = %q, want %q", i.Grade, tt.want)
			}
		})
	}

	t.Run("rejects objects", func(t *testing.T) {
		var i Instance
		if err := json.Unmarshal([]byte(`{"grade":{"x":1}}`), &i); err == nil {
			t.Error("expected error for object grade")
		}
	})
}

func TestCardGroupDecode(t *testing.T) {
	payload := `[{
		"card_id": 12, "card_name": "Pikachu", "expansion_id": 3, "expansion_name": "Base Set",
		"card_image": "https://img/12.png", "total_quantity": 3, "instances_count": 2, "is_any_favorite": true,
		"instances": [
			{"id": 101, "quantity": 1, "language": "EN", "condition": "NM", "is_holographic": true,
			 "is_first_edition": false, "is_signed": false, "grade": null, "notes": "", "is_favorite": true,
			 "created_at": "2024-05-01T10:00:00.123456Z", "updated_at": "2024-05-02T10:00:00Z"},
			{"id": 102, "quantity": 2, "language": "ES", "condition": null, "is_holographic": false,
			 "is_first_edition": false, "is_signed": false, "grade": "", "notes": null, "is_favorite": false}
		]
	}]`

	var groups []CardGroup
	if err := json.Unmarshal([]byte(payload), &groups); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.Key() != (GroupKey{CardID: 12, ExpansionID: 3}) {
		t.Errorf("unexpected key %v", g.Key())
	}
	if len(g.Instances) != 2 || g.Instances[0].ID != 101 || g.Instances[1].ID != 102 {
		t.Fatalf("instances not decoded in order: %+v", g.Instances)
	}
	if g.Instances[0].CreatedAt.IsZero() {
		t.Error("expected created_at to be parsed")
	}
	if g.Instances[1].Condition != "" {
		t.Errorf("null condition should decode to blank, got %q", g.Instances[1].Condition)
	}
}

func TestCardGroupClone(t *testing.T) {
	g := CardGroup{CardID: 1, ExpansionID: 1, Instances: []Instance{{ID: 1, Quantity: 1}}}
	c := g.Clone()
	c.Instances[0].Quantity = 5

	if g.Instances[0].Quantity != 1 {
		t.Error("clone should not share instances with the original")
	}
}

func TestGroupKey(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		k := GroupKey{CardID: 42, ExpansionID: 7}
		got, err := ParseGroupKey(k.String())
		if err != nil {
			t.Fatalf("ParseGroupKey() error = %v", err)
		}
		if got != k {
			t.Errorf("ParseGroupKey() = %v, want %v", got, k)
		}
	})

	for _, in := range []string{"42", "a:1", "1:b", ""} {
		t.Run("invalid "+in, func(t *testing.T) {
			if _, err := ParseGroupKey(in); err == nil {
				t.Errorf("expected error for %q", in)
			}
		})
	}
}

func TestInstanceAttributes(t *testing.T) {
	i := Instance{IsHolographic: true, IsSigned: true, Grade: "9"}
	got := strings.Join(i.Attributes(), ", ")
	if got != "Holo, Signed, Grade 9" {
		t.Errorf("Attributes() = %q", got)
	}

	if len((Instance{}).Attributes()) != 0 {
		t.Error("plain instance should have no attributes")
	}
}

func TestLabels(t *testing.T) {
	if got := LanguageLabel("jp"); got != "Japanese" {
		t.Errorf("LanguageLabel(jp) = %q", got)
	}
	if got := LanguageLabel("XX"); got != "XX" {
		t.Errorf("unknown language should echo code, got %q", got)
	}
	if got := ConditionLabel("NM"); got != "Near Mint (NM)" {
		t.Errorf("ConditionLabel(NM) = %q", got)
	}
	if got := ConditionLabel(""); got != "Not stated" {
		t.Errorf("ConditionLabel(blank) = %q", got)
	}
	if !IsCondition("") || !IsCondition("dmg") || IsCondition("XX") {
		t.Error("IsCondition classification is wrong")
	}
}

func TestNewInstance(t *testing.T) {
	t.Run("Normalize fills defaults", func(t *testing.T) {
		n := NewInstance{CardID: 5, Quantity: 1, Language: "", Condition: " nm "}.Normalize()
		if n.Language != DefaultLanguage {
			t.Errorf("expected default language, got %q", n.Language)
		}
		if n.Condition != "NM" {
			t.Errorf("expected normalized condition, got %q", n.Condition)
		}
	})

	t.Run("blank condition is omitted from JSON", func(t *testing.T) {
		data, err := json.Marshal(NewInstance{CardID: 5, Quantity: 1, Language: "EN"})
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if strings.Contains(string(data), "condition") {
			t.Errorf("condition should be omitted: %s", data)
		}
		if !strings.Contains(string(data), `"card":5`) {
			t.Errorf("card id should be sent as card: %s", data)
		}
	})

	t.Run("condition is sent when set", func(t *testing.T) {
		data, _ := json.Marshal(NewInstance{CardID: 5, Quantity: 1, Language: "EN", Condition: "LP"})
		if !strings.Contains(string(data), `"condition":"LP"`) {
			t.Errorf("condition should be present: %s", data)
		}
	})

	tc := []struct {
		name    string
		in      NewInstance
		wantErr bool
	}{
		{name: "valid", in: NewInstance{CardID: 1, Quantity: 2, Language: "EN"}},
		{name: "missing card", in: NewInstance{Quantity: 1, Language: "EN"}, wantErr: true},
		{name: "zero quantity", in: NewInstance{CardID: 1, Quantity: 0, Language: "EN"}, wantErr: true},
		{name: "unknown language", in: NewInstance{CardID: 1, Quantity: 1, Language: "XX"}, wantErr: true},
		{name: "unknown condition", in: NewInstance{CardID: 1, Quantity: 1, Language: "EN", Condition: "BAD"}, wantErr: true},
	}

	for _, tt := range tc {
		t.Run("Validate "+tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.wantErr {
				if !errors.Is(err, shared.ErrValidation) {
					t.Errorf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestInstancePatch(t *testing.T) {
	t.Run("FavoritePatch only sends is_favorite", func(t *testing.T) {
		data, err := json.Marshal(FavoritePatch(false))
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if string(data) != `{"is_favorite":false}` {
			t.Errorf("unexpected body %s", data)
		}
	})

	t.Run("Apply", func(t *testing.T) {
		qty := 4
		notes := "binder 2"
		p := InstancePatch{Quantity: &qty, Notes: &notes}
		got := p.Apply(Instance{ID: 1, Quantity: 1, Language: "EN"})
		if got.Quantity != 4 || got.Notes != "binder 2" || got.Language != "EN" {
			t.Errorf("Apply() = %+v", got)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		if err := (InstancePatch{}).Validate(); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("empty patch should fail validation, got %v", err)
		}
		zero := 0
		if err := (InstancePatch{Quantity: &zero}).Validate(); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("zero quantity should fail validation, got %v", err)
		}
		if err := FavoritePatch(true).Validate(); err != nil {
			t.Errorf("favorite patch should be valid: %v", err)
		}
	})
}

func TestCredentials(t *testing.T) {
	if err := (Credentials{Username: "ash"}).Validate(); !errors.Is(err, shared.ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
	if err := (Registration{Username: "ash", Password: "pw", Email: "not-an-email"}).Validate(); !errors.Is(err, shared.ErrValidation) {
		t.Errorf("expected ErrValidation for bad email, got %v", err)
	}
	if err := (Registration{Username: "ash", Password: "pw", Email: "ash@example.com"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestImportRun(t *testing.T) {
	run := NewImportRun("cards.csv")
	if run.Status() != ImportPending {
		t.Fatalf("expected pending, got %s", run.Status())
	}

	run.Start(3)
	run.Record(true)
	run.Record(true)
	run.Record(false)
	run.Complete(nil)

	if run.Status() != ImportCompleted || run.Added() != 2 || run.Failed() != 1 {
		t.Errorf("unexpected run state: %s %d/%d", run.Status(), run.Added(), run.Failed())
	}
	if err := run.Validate(); err != nil {
		t.Errorf("completed run should validate: %v", err)
	}

	failed := NewImportRun("cards.csv")
	failed.Start(1)
	failed.Complete(errors.New("boom"))
	if failed.Status() != ImportFailed || failed.ErrorMessage() != "boom" {
		t.Errorf("expected failed run with message, got %s %q", failed.Status(), failed.ErrorMessage())
	}

	if err := NewImportRun("").Validate(); err == nil {
		t.Error("run without source should not validate")
	}
}
