// package formatter renders a card collection as CSV, Markdown or plain text and parses CSV imports.
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gabriel-vasile/mimetype"

	"github.com/desertthunder/tcgtrack/internal/models"
)

// CSVHeader lists the export columns. [ParseImportCSV] reads the same names.
var CSVHeader = []string{
	"id", "card", "card_name", "expansion_id", "expansion_name", "quantity", "language", "condition",
	"is_holographic", "is_first_edition", "is_signed", "grade", "notes", "is_favorite",
}

// maxImageSize caps a downloaded card image.
const maxImageSize = 10 << 20

// ExportToCSV writes one row per instance, in group order.
func ExportToCSV(groups []models.CardGroup) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(CSVHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, g := range groups {
		for _, inst := range g.Instances {
			record := []string{
				strconv.Itoa(inst.ID),
				strconv.Itoa(g.CardID),
				g.CardName,
				strconv.Itoa(g.ExpansionID),
				g.ExpansionName,
				strconv.Itoa(inst.Quantity),
				inst.Language,
				inst.Condition,
				strconv.FormatBool(inst.IsHolographic),
				strconv.FormatBool(inst.IsFirstEdition),
				strconv.FormatBool(inst.IsSigned),
				string(inst.Grade),
				inst.Notes,
				strconv.FormatBool(inst.IsFavorite),
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown renders a heading per group and a bullet per instance.
//
// images maps a group key to an image path relative to the Markdown file; groups without one get no image.
func ExportToMarkdown(title string, groups []models.CardGroup, images map[models.GroupKey]string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Cards**: %d\n", totalQuantity(groups))
	fmt.Fprintf(&buf, "**Kinds**: %d\n\n", len(groups))

	for _, g := range groups {
		star := ""
		if g.IsAnyFavorite {
			star = " ★"
		}
		fmt.Fprintf(&buf, "## %s (%s)%s\n\n", g.CardName, g.ExpansionName, star)
		if img := images[g.Key()]; img != "" {
			fmt.Fprintf(&buf, "![%s](%s)\n\n", g.CardName, filepath.ToSlash(img))
		}
		fmt.Fprintf(&buf, "**Total**: x%d\n\n", g.TotalQuantity)
		for _, inst := range g.Instances {
			fmt.Fprintf(&buf, "- %s\n", describe(inst))
		}
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// ExportToText renders one line per group followed by its instances.
func ExportToText(title string, groups []models.CardGroup) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Collection: %s\n", title)
	fmt.Fprintf(&buf, "Cards: %d in %d kinds\n\n", totalQuantity(groups), len(groups))

	for i, g := range groups {
		fmt.Fprintf(&buf, "%d. %s - %s x%d\n", i+1, g.ExpansionName, g.CardName, g.TotalQuantity)
		for _, inst := range g.Instances {
			fmt.Fprintf(&buf, "   - %s\n", describe(inst))
		}
	}
	return buf.Bytes(), nil
}

// describe renders an instance as "x2 English, Near Mint, Holo (#12)".
func describe(inst models.Instance) string {
	parts := []string{models.LanguageLabel(inst.Language), models.ConditionLabel(inst.Condition)}
	parts = append(parts, inst.Attributes()...)
	if inst.IsFavorite {
		parts = append(parts, "Favorite")
	}
	line := fmt.Sprintf("x%d %s (#%d)", inst.Quantity, strings.Join(parts, ", "), inst.ID)
	if inst.Notes != "" {
		line += ": " + inst.Notes
	}
	return line
}

func totalQuantity(groups []models.CardGroup) int {
	total := 0
	for _, g := range groups {
		total += g.TotalQuantity
	}
	return total
}

// DownloadImage fetches an image and returns its bytes with a file extension detected from the content.
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, string, error) {
	if url == "" {
		return nil, "", fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, "", fmt.Errorf("failed to download image: got %s", mtype.String())
	}
	return data, mtype.Extension(), nil
}

// WriteCSVExport writes the CSV export to path.
func WriteCSVExport(groups []models.CardGroup, path string) (string, error) {
	data, err := ExportToCSV(groups)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}
	return path, nil
}

// MarkdownExportOpts configures [WriteMarkdownExport].
type MarkdownExportOpts struct {
	Title string
	// Images downloads each group's card image into an images/ directory next to README.md.
	Images bool
	Client *http.Client
	Logger *log.Logger
}

// MarkdownExportResult lists the files created by [WriteMarkdownExport].
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Images    int
}

// WriteMarkdownExport writes {dir}/README.md and, when requested, {dir}/images/{card}_{expansion}{ext}.
//
// A failed image download is logged and the group is rendered without an image.
func WriteMarkdownExport(ctx context.Context, groups []models.CardGroup, dir string, opts MarkdownExportOpts) (*MarkdownExportResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: dir, Files: []string{}}
	images := make(map[models.GroupKey]string)

	if opts.Images {
		imageDir := filepath.Join(dir, "images")
		if err := os.MkdirAll(imageDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create image directory: %w", err)
		}

		for _, g := range groups {
			if g.CardImage == "" {
				continue
			}
			data, ext, err := DownloadImage(ctx, opts.Client, g.CardImage)
			if err != nil {
				logger.Warn("failed to download card image", "card", g.CardName, "error", err)
				continue
			}

			name := fmt.Sprintf("%d_%d%s", g.CardID, g.ExpansionID, ext)
			path := filepath.Join(imageDir, name)
			if err := os.WriteFile(path, data, 0644); err != nil {
				logger.Warn("failed to save card image", "path", path, "error", err)
				continue
			}
			images[g.Key()] = filepath.Join("images", name)
			result.Files = append(result.Files, path)
			result.Images++
		}
	}

	data, err := ExportToMarkdown(opts.Title, groups, images)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(dir, "README.md")
	if err := os.WriteFile(mdFile, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)
	return result, nil
}

// WriteTextExport writes the text export to path.
func WriteTextExport(title string, groups []models.CardGroup, path string) (string, error) {
	data, err := ExportToText(title, groups)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}
	return path, nil
}
