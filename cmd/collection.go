package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tcgtrack/internal/collection"
	"github.com/desertthunder/tcgtrack/internal/formatter"
	"github.com/desertthunder/tcgtrack/internal/models"
	"github.com/desertthunder/tcgtrack/internal/shared"
	"github.com/desertthunder/tcgtrack/internal/tasks"
)

func expansionFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "expansion",
		Aliases: []string{"x"},
		Usage:   `Only show one expansion: its numeric id, or "all"`,
		Value:   "all",
	}
}

func instanceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "quantity", Aliases: []string{"q"}, Usage: "Number of copies"},
		&cli.StringFlag{Name: "language", Aliases: []string{"l"}, Usage: "Language code (" + strings.Join(models.Languages, ", ") + ")"},
		&cli.StringFlag{Name: "condition", Usage: "Condition code (" + strings.Join(models.Conditions, ", ") + ")"},
		&cli.BoolFlag{Name: "holo", Usage: "Holographic"},
		&cli.BoolFlag{Name: "first-edition", Usage: "First edition"},
		&cli.BoolFlag{Name: "signed", Usage: "Signed"},
		&cli.StringFlag{Name: "grade", Usage: "Professional grade"},
		&cli.StringFlag{Name: "notes", Usage: "Free-form notes"},
	}
}

// collectionCommand handles operations on the user's owned cards
func collectionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "collection",
		Aliases: []string{"col", "c"},
		Usage:   "Browse and edit your collection",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List card groups, optionally filtered by expansion",
				Flags: []cli.Flag{
					expansionFlag(),
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON output", Value: true},
				},
				Action: r.CollectionList,
			},
			{
				Name:      "show",
				Usage:     "Show every instance of one card group",
				ArgsUsage: "<card:expansion>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "group"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.CollectionShow,
			},
			{
				Name:  "add",
				Usage: "Add a card to the collection",
				Flags: append([]cli.Flag{
					&cli.IntFlag{Name: "card", Usage: "Catalog card id", Required: true},
				}, instanceFlags()...),
				Action: r.CollectionAdd,
			},
			{
				Name:      "edit",
				Usage:     "Change the attributes of one instance",
				ArgsUsage: "<instance id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     instanceFlags(),
				Action:    r.CollectionEdit,
			},
			{
				Name:      "favorite",
				Aliases:   []string{"fav"},
				Usage:     "Toggle the favorite flag of one instance",
				ArgsUsage: "<instance id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.CollectionFavorite,
			},
			{
				Name:      "favorite-group",
				Usage:     "Toggle the favorite flag of a card group",
				ArgsUsage: "<card:expansion>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "group"}},
				Action:    r.CollectionFavoriteGroup,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Remove one instance from the collection",
				ArgsUsage: "<instance id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation"},
				},
				Action: r.CollectionDelete,
			},
			{
				Name:  "export",
				Usage: "Export the collection to CSV, Markdown or text",
				Flags: []cli.Flag{
					expansionFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv, markdown or txt",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (csv, txt) or directory (markdown)",
					},
					&cli.BoolFlag{Name: "no-images", Usage: "Skip downloading card images for Markdown"},
				},
				Action: r.CollectionExport,
			},
			{
				Name:      "import",
				Usage:     "Add every row of a CSV file to the collection",
				ArgsUsage: "<file.csv | ->",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "workers", Usage: "Concurrent requests (default from config)"},
					&cli.FloatFlag{Name: "rate-limit", Usage: "Requests per second (default from config)"},
				},
				Action: r.CollectionImport,
			},
			{
				Name:  "history",
				Usage: "List previous imports",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of runs", Value: 10},
					&cli.StringFlag{Name: "status", Usage: "Only runs with this status"},
				},
				Action: r.CollectionHistory,
			},
		},
	}
}

// loadCollection loads the collection and applies the --expansion filter when the command has one.
func (r *Runner) loadCollection(ctx context.Context, cmd *cli.Command) (*collection.ViewModel, error) {
	sel := collection.All
	if raw := cmd.String("expansion"); raw != "" {
		var err error
		if sel, err = collection.ParseSelector(raw); err != nil {
			return nil, err
		}
	}

	if err := r.checkSession(); err != nil {
		return nil, err
	}

	vm := r.viewModel()
	if err := vm.Load(ctx); err != nil {
		return nil, err
	}
	vm.SetFilter(sel)
	return vm, nil
}

// CollectionList prints the visible groups with a summary line.
func (r *Runner) CollectionList(ctx context.Context, cmd *cli.Command) error {
	vm, err := r.loadCollection(ctx, cmd)
	if err != nil {
		return err
	}
	snap := vm.Snapshot()

	if cmd.Bool("json") {
		return r.writeJSON(snap.Visible, cmd.Bool("pretty"))
	}

	if len(snap.Visible) == 0 {
		return r.writePlain("%s\n", snap.EmptyMessage())
	}

	r.writePlain("%s\n\n", snap.Summary())
	for _, g := range snap.Visible {
		r.writePlain("%s\n", groupLine(g))
	}
	return nil
}

// CollectionShow prints one group and its instances.
func (r *Runner) CollectionShow(ctx context.Context, cmd *cli.Command) error {
	key, err := groupKeyArg(cmd)
	if err != nil {
		return err
	}

	vm, err := r.loadCollection(ctx, cmd)
	if err != nil {
		return err
	}
	g, ok := vm.Group(key)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrGroupNotFound, key)
	}

	if cmd.Bool("json") {
		return r.writeJSON(g, true)
	}

	r.writePlainHeader(fmt.Sprintf("%s · %s", g.CardName, g.ExpansionName))
	r.writePlain("Total: %d across %d entries\n", g.TotalQuantity, g.InstancesCount)
	if g.CardImage != "" {
		r.writePlain("Image: %s\n", g.CardImage)
	}
	r.writePlain("\n")
	for _, inst := range g.Instances {
		r.writePlain("  %s\n", instanceLine(inst))
	}
	return nil
}

// CollectionAdd creates a new instance.
func (r *Runner) CollectionAdd(ctx context.Context, cmd *cli.Command) error {
	n := models.NewInstance{
		CardID:         cmd.Int("card"),
		Quantity:       1,
		Language:       cmd.String("language"),
		Condition:      cmd.String("condition"),
		IsHolographic:  cmd.Bool("holo"),
		IsFirstEdition: cmd.Bool("first-edition"),
		IsSigned:       cmd.Bool("signed"),
		Grade:          cmd.String("grade"),
		Notes:          cmd.String("notes"),
	}
	if cmd.IsSet("quantity") {
		n.Quantity = cmd.Int("quantity")
	}

	if err := r.checkSession(); err != nil {
		return err
	}
	created, err := r.viewModel().AddInstance(ctx, n)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Added %s · %s\n  %s\n", created.CardName, created.ExpansionName, instanceLine(created))
}

// CollectionEdit sends only the flags given on the command line.
func (r *Runner) CollectionEdit(ctx context.Context, cmd *cli.Command) error {
	id, err := instanceIDArg(cmd)
	if err != nil {
		return err
	}

	var patch models.InstancePatch
	if cmd.IsSet("quantity") {
		v := cmd.Int("quantity")
		patch.Quantity = &v
	}
	for name, field := range map[string]**string{
		"language":  &patch.Language,
		"condition": &patch.Condition,
		"grade":     &patch.Grade,
		"notes":     &patch.Notes,
	} {
		if cmd.IsSet(name) {
			v := cmd.String(name)
			*field = &v
		}
	}
	for name, field := range map[string]**bool{
		"holo":          &patch.IsHolographic,
		"first-edition": &patch.IsFirstEdition,
		"signed":        &patch.IsSigned,
	} {
		if cmd.IsSet(name) {
			v := cmd.Bool(name)
			*field = &v
		}
	}
	if err := patch.Validate(); err != nil {
		return err
	}

	vm, err := r.loadCollection(ctx, cmd)
	if err != nil {
		return err
	}
	if err := vm.UpdateInstance(ctx, id, patch); err != nil {
		return err
	}

	inst, _, ok := collection.FindInstance(vm.Snapshot().Groups, id)
	if !ok {
		return r.writePlain("✓ Updated #%d\n", id)
	}
	return r.writePlain("✓ Updated %s · %s\n  %s\n", inst.CardName, inst.ExpansionName, instanceLine(inst))
}

// CollectionFavorite flips one instance's favorite flag.
func (r *Runner) CollectionFavorite(ctx context.Context, cmd *cli.Command) error {
	id, err := instanceIDArg(cmd)
	if err != nil {
		return err
	}

	vm, err := r.loadCollection(ctx, cmd)
	if err != nil {
		return err
	}
	if err := vm.ToggleFavorite(ctx, id); err != nil {
		return err
	}

	inst, _, ok := collection.FindInstance(vm.Snapshot().Groups, id)
	if ok && inst.IsFavorite {
		return r.writePlain("★ #%d %s is now a favorite\n", id, inst.CardName)
	}
	return r.writePlain("☆ #%d %s is no longer a favorite\n", id, inst.CardName)
}

// CollectionFavoriteGroup flips a group's favorite state through its first instance.
func (r *Runner) CollectionFavoriteGroup(ctx context.Context, cmd *cli.Command) error {
	key, err := groupKeyArg(cmd)
	if err != nil {
		return err
	}

	vm, err := r.loadCollection(ctx, cmd)
	if err != nil {
		return err
	}
	if err := vm.ToggleGroupFavorite(ctx, key); err != nil {
		return err
	}

	g, ok := vm.Group(key)
	if ok && g.IsAnyFavorite {
		return r.writePlain("★ %s · %s is now a favorite\n", g.CardName, g.ExpansionName)
	}
	return r.writePlain("☆ %s · %s is no longer a favorite\n", g.CardName, g.ExpansionName)
}

// CollectionDelete removes an instance after confirmation.
func (r *Runner) CollectionDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := instanceIDArg(cmd)
	if err != nil {
		return err
	}

	vm, err := r.loadCollection(ctx, cmd)
	if err != nil {
		return err
	}
	inst, _, ok := collection.FindInstance(vm.Snapshot().Groups, id)
	if !ok {
		return fmt.Errorf("%w: %d", shared.ErrInstanceNotFound, id)
	}

	if !cmd.Bool("yes") {
		r.writePlain("Delete %s · %s\n  %s\n", inst.CardName, inst.ExpansionName, instanceLine(inst))
		if !r.confirm("Are you sure? [y/N] ") {
			return r.writePlain("Cancelled\n")
		}
	}

	if err := vm.DeleteInstance(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted #%d\n", id)
}

// CollectionExport writes the filtered collection to disk.
func (r *Runner) CollectionExport(ctx context.Context, cmd *cli.Command) error {
	vm, err := r.loadCollection(ctx, cmd)
	if err != nil {
		return err
	}
	snap := vm.Snapshot()
	if len(snap.Visible) == 0 {
		return fmt.Errorf("%w: %s", shared.ErrInvalidInput, snap.EmptyMessage())
	}

	title := "My Collection"
	if !snap.Filter.IsAll() {
		title = fmt.Sprintf("My Collection (%s)", snap.FilterName)
	}
	output := cmd.String("output")

	switch format := strings.ToLower(cmd.String("format")); format {
	case "csv":
		if output == "" {
			output = "collection.csv"
		}
		path, err := formatter.WriteCSVExport(snap.Visible, output)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported %d groups to %s\n", len(snap.Visible), path)
	case "txt", "text":
		if output == "" {
			output = "collection.txt"
		}
		path, err := formatter.WriteTextExport(title, snap.Visible, output)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Exported %d groups to %s\n", len(snap.Visible), path)
	case "markdown", "md":
		if output == "" {
			output = "collection-export"
		}
		result, err := formatter.WriteMarkdownExport(ctx, snap.Visible, output, formatter.MarkdownExportOpts{
			Title:  title,
			Images: !cmd.Bool("no-images"),
			Client: r.httpClient,
			Logger: r.logger,
		})
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d groups to %s\n", len(snap.Visible), filepath.Join(result.Directory, "README.md"))
		if result.Images > 0 {
			r.writePlain("  %d card images saved\n", result.Images)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown export format %q (expected csv, markdown or txt)", shared.ErrInvalidFlag, format)
	}
}

// CollectionImport adds each CSV row as a new instance.
func (r *Runner) CollectionImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path to a CSV file, or - for stdin", shared.ErrMissingArgument)
	}

	var in io.Reader = r.input
	source := "stdin"
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open import file: %w", err)
		}
		defer f.Close()
		in = f
		source = filepath.Base(path)
	}

	rows, err := formatter.ParseImportCSV(in)
	if err != nil {
		return err
	}
	if err := r.checkSession(); err != nil {
		return err
	}

	opts := tasks.ImportOpts{
		Source:     source,
		NumWorkers: r.config.Import.Workers,
		RateLimit:  r.config.Import.RateLimit,
	}
	if cmd.IsSet("workers") {
		opts.NumWorkers = cmd.Int("workers")
	}
	if cmd.IsSet("rate-limit") {
		opts.RateLimit = cmd.Float("rate-limit")
	}

	r.logger.Info("starting import", "source", source, "rows", len(rows))

	progressCh := make(chan tasks.ProgressUpdate, 50)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for update := range progressCh {
			switch update.Phase {
			case tasks.ValidateRows:
				r.writePlain("📄 %s\n", update.Message)
			case tasks.ImportRows:
				r.writePlain("   %s\n", update.Message)
			case tasks.RecordRun:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Import(ctx, progressCh, rows, opts)
	close(progressCh)
	<-drained

	if result == nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Import Complete")
	r.writePlain("Added: %d/%d\n", result.Added, result.Total)
	if result.Failed > 0 {
		r.writePlainln("Failed rows:")
		for _, res := range result.Results {
			if res.Error != nil {
				r.writePlain("  - line %d: %v\n", res.Line, res.Error)
			}
		}
	}
	return err
}

// CollectionHistory lists recorded import runs.
func (r *Runner) CollectionHistory(ctx context.Context, cmd *cli.Command) error {
	runs, err := r.runs.List(models.ListOptions{
		Limit:  int(cmd.Int("limit")),
		Status: cmd.String("status"),
	})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return r.writePlain("No imports yet\n")
	}

	for _, run := range runs {
		r.writePlain("%s  %-10s %-24s %d added, %d failed of %d\n",
			run.CreatedAt().Local().Format("2006-01-02 15:04"), run.Status(), run.Source(),
			run.Added(), run.Failed(), run.Total())
		if msg := run.ErrorMessage(); msg != "" {
			r.writePlain("    %s\n", msg)
		}
	}
	return nil
}

// checkSession fails early on an expired access token. Sending it would get a 401,
// which logs the session out and drops the refresh token with it.
func (r *Runner) checkSession() error {
	if r.session.Expired() {
		return fmt.Errorf("%w: run `tcgtrack auth refresh`", shared.ErrTokenExpired)
	}
	return nil
}

func (r *Runner) confirm(prompt string) bool {
	r.writePlain("%s", prompt)
	scanner := bufio.NewScanner(r.input)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

func instanceIDArg(cmd *cli.Command) (int, error) {
	raw := cmd.StringArg("id")
	if raw == "" {
		return 0, fmt.Errorf("%w: instance id", shared.ErrMissingArgument)
	}
	id, err := strconv.Atoi(strings.TrimPrefix(raw, "#"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: instance id %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

func groupKeyArg(cmd *cli.Command) (models.GroupKey, error) {
	raw := cmd.StringArg("group")
	if raw == "" {
		return models.GroupKey{}, fmt.Errorf("%w: group key (card:expansion)", shared.ErrMissingArgument)
	}
	key, err := models.ParseGroupKey(raw)
	if err != nil {
		return models.GroupKey{}, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	return key, nil
}

func groupLine(g models.CardGroup) string {
	star := " "
	if g.IsAnyFavorite {
		star = "★"
	}
	entries := "entry"
	if g.InstancesCount != 1 {
		entries = "entries"
	}
	return fmt.Sprintf("%s %-24s %-18s x%-3d %d %s  [%s]",
		star, g.CardName, g.ExpansionName, g.TotalQuantity, g.InstancesCount, entries, g.Key())
}

func instanceLine(inst models.Instance) string {
	parts := []string{
		fmt.Sprintf("#%d", inst.ID),
		fmt.Sprintf("x%d", inst.Quantity),
		models.LanguageLabel(inst.Language),
		models.ConditionLabel(inst.Condition),
	}
	parts = append(parts, inst.Attributes()...)
	line := strings.Join(parts, "  ")
	if inst.IsFavorite {
		line += "  ★"
	}
	if inst.Notes != "" {
		line += "  (" + inst.Notes + ")"
	}
	return line
}
