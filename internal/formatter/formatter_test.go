package formatter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/tcgtrack/internal/models"
	"github.com/desertthunder/tcgtrack/internal/shared"
	th "github.com/desertthunder/tcgtrack/internal/testing"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func sampleGroups(imageURL string) []models.CardGroup {
	return []models.CardGroup{
		{
			CardID: 10, CardName: "Pikachu", ExpansionID: 1, ExpansionName: "Base Set", CardImage: imageURL,
			TotalQuantity: 3, InstancesCount: 2, IsAnyFavorite: true,
			Instances: []models.Instance{
				{ID: 1, CardID: 10, ExpansionID: 1, Quantity: 1, Language: "EN", Condition: "NM", IsHolographic: true, IsFavorite: true},
				{ID: 2, CardID: 10, ExpansionID: 1, Quantity: 2, Language: "ES", Notes: "binder, page 3"},
			},
		},
		{
			CardID: 20, CardName: "Pikachu", ExpansionID: 2, ExpansionName: "Jungle",
			TotalQuantity: 1, InstancesCount: 1,
			Instances: []models.Instance{
				{ID: 3, CardID: 20, ExpansionID: 2, Quantity: 1, Language: "EN", Grade: "9"},
			},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleGroups(""))
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 4 {
			t.Fatalf("expected header and 3 rows, got %d lines", len(lines))
		}
		if lines[0] != strings.Join(CSVHeader, ",") {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if !strings.HasPrefix(lines[1], "1,10,Pikachu,1,Base Set,1,EN,NM,true,false,false,,,true") {
			t.Errorf("unexpected first row: %s", lines[1])
		}
		if !strings.Contains(lines[2], `"binder, page 3"`) {
			t.Errorf("expected quoted notes, got: %s", lines[2])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		images := map[models.GroupKey]string{{CardID: 10, ExpansionID: 1}: "images/10_1.png"}
		data, err := ExportToMarkdown("All", sampleGroups(""), images)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# All",
			"**Cards**: 4",
			"**Kinds**: 2",
			"## Pikachu (Base Set) ★",
			"![Pikachu](images/10_1.png)",
			"- x1 English, Near Mint (NM), Holo, Favorite (#1)",
			"- x2 Spanish, Not stated (#2): binder, page 3",
			"## Pikachu (Jungle)\n",
			"- x1 English, Not stated, Grade 9 (#3)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
		if strings.Count(output, "![") != 1 {
			t.Errorf("expected exactly one image, got:\n%s", output)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText("Jungle", sampleGroups("")[1:])
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Collection: Jungle") {
			t.Errorf("text missing title, got:\n%s", output)
		}
		if !strings.Contains(output, "Cards: 1 in 1 kinds") {
			t.Errorf("text missing totals, got:\n%s", output)
		}
		if !strings.Contains(output, "1. Jungle - Pikachu x1") {
			t.Errorf("text missing group line, got:\n%s", output)
		}
	})

	t.Run("empty collection", func(t *testing.T) {
		data, err := ExportToCSV(nil)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}
		if strings.Count(string(data), "\n") != 1 {
			t.Errorf("expected only a header, got %q", data)
		}
	})
}

func TestDownloadImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/card.png":
			w.Write(pngBytes)
		case "/page.html":
			w.Write([]byte("<html><body>not an image</body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	ctx := context.Background()

	t.Run("detects extension", func(t *testing.T) {
		data, ext, err := DownloadImage(ctx, server.Client(), server.URL+"/card.png")
		if err != nil {
			t.Fatalf("DownloadImage failed: %v", err)
		}
		if ext != ".png" {
			t.Errorf("expected .png, got %q", ext)
		}
		if len(data) != len(pngBytes) {
			t.Errorf("expected %d bytes, got %d", len(pngBytes), len(data))
		}
	})

	t.Run("rejects non-images", func(t *testing.T) {
		if _, _, err := DownloadImage(ctx, server.Client(), server.URL+"/page.html"); err == nil {
			t.Error("expected error for HTML content")
		}
	})

	t.Run("status error", func(t *testing.T) {
		if _, _, err := DownloadImage(ctx, server.Client(), server.URL+"/missing.png"); err == nil {
			t.Error("expected error for 404")
		}
	})

	t.Run("empty URL", func(t *testing.T) {
		if _, _, err := DownloadImage(ctx, nil, ""); err == nil {
			t.Error("expected error for empty URL")
		}
	})
}

func TestWriters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/card.png" {
			w.Write(pngBytes)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	t.Run("WriteCSVExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "collection.csv")
		got, err := WriteCSVExport(sampleGroups(""), path)
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}
		th.AssertFileExists(t, got)
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "collection.txt")
		if _, err := WriteTextExport("All", sampleGroups(""), path); err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if !strings.Contains(th.MustReadFile(t, path), "Collection: All") {
			t.Error("text file missing title")
		}
	})

	t.Run("WriteMarkdownExport with images", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "export")
		groups := sampleGroups(server.URL + "/card.png")
		groups[1].CardImage = server.URL + "/missing.png"

		result, err := WriteMarkdownExport(context.Background(), groups, dir, MarkdownExportOpts{
			Title: "All", Images: true, Client: server.Client(),
		})
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if result.Images != 1 {
			t.Errorf("expected 1 image, got %d", result.Images)
		}
		th.AssertFileExists(t, filepath.Join(dir, "images", "10_1.png"))

		readme := th.MustReadFile(t, filepath.Join(dir, "README.md"))
		if !strings.Contains(readme, "![Pikachu](images/10_1.png)") {
			t.Errorf("README missing image link:\n%s", readme)
		}
		if len(result.Files) != 2 {
			t.Errorf("expected image and README, got %v", result.Files)
		}
	})

	t.Run("WriteMarkdownExport without images", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "export")
		if _, err := WriteMarkdownExport(context.Background(), sampleGroups(server.URL+"/card.png"), dir, MarkdownExportOpts{Title: "All"}); err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "images")); !os.IsNotExist(err) {
			t.Error("expected no images directory")
		}
	})
}

func TestParseImportCSV(t *testing.T) {
	t.Run("reads rows", func(t *testing.T) {
		input := "card,quantity,language,condition,is_holographic,notes\n" +
			"10,2,es,nm,true,first\n" +
			"11,,,,,\n"
		rows, err := ParseImportCSV(strings.NewReader(input))
		if err != nil {
			t.Fatalf("ParseImportCSV failed: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(rows))
		}

		first := rows[0]
		if first.Err != nil {
			t.Fatalf("unexpected row error: %v", first.Err)
		}
		if first.Line != 2 {
			t.Errorf("expected line 2, got %d", first.Line)
		}
		n := first.Instance
		if n.CardID != 10 || n.Quantity != 2 || n.Language != "ES" || n.Condition != "NM" || !n.IsHolographic || n.Notes != "first" {
			t.Errorf("unexpected instance %+v", n)
		}

		second := rows[1].Instance
		if rows[1].Err != nil || second.Quantity != 1 || second.Language != "EN" {
			t.Errorf("expected defaults, got %+v (%v)", second, rows[1].Err)
		}
	})

	t.Run("export round trips", func(t *testing.T) {
		data, err := ExportToCSV(sampleGroups(""))
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}
		rows, err := ParseImportCSV(strings.NewReader(string(data)))
		if err != nil {
			t.Fatalf("ParseImportCSV failed: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(rows))
		}
		for _, row := range rows {
			if row.Err != nil {
				t.Errorf("line %d: %v", row.Line, row.Err)
			}
		}
		if rows[2].Instance.Grade != "9" || rows[1].Instance.Notes != "binder, page 3" {
			t.Errorf("unexpected rows %+v", rows)
		}
	})

	t.Run("row errors do not stop parsing", func(t *testing.T) {
		input := "card,quantity,language\nabc,1,EN\n10,0,EN\n10,1,XX\n10,1,EN\n"
		rows, err := ParseImportCSV(strings.NewReader(input))
		if err != nil {
			t.Fatalf("ParseImportCSV failed: %v", err)
		}
		if len(rows) != 4 {
			t.Fatalf("expected 4 rows, got %d", len(rows))
		}
		if !errors.Is(rows[0].Err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for bad card, got %v", rows[0].Err)
		}
		if !errors.Is(rows[1].Err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation for quantity, got %v", rows[1].Err)
		}
		if !errors.Is(rows[2].Err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation for language, got %v", rows[2].Err)
		}
		if rows[3].Err != nil {
			t.Errorf("expected last row valid, got %v", rows[3].Err)
		}
	})

	t.Run("header errors", func(t *testing.T) {
		if _, err := ParseImportCSV(strings.NewReader("")); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for empty file, got %v", err)
		}
		if _, err := ParseImportCSV(strings.NewReader("name,quantity\nPikachu,1\n")); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for missing card column, got %v", err)
		}
	})
}
