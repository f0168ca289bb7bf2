package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tcgtrack/internal/shared"
)

// expansionsCommand handles catalog browsing
func expansionsCommand(r *Runner) *cli.Command {
	jsonFlag := func() cli.Flag {
		return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
	}

	return &cli.Command{
		Name:    "expansions",
		Aliases: []string{"exp"},
		Usage:   "Browse expansions and their cards",
		Commands: []*cli.Command{
			{
				Name:   "mine",
				Usage:  "List expansions you own cards from",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ExpansionsMine,
			},
			{
				Name:   "list",
				Usage:  "List every expansion in the catalog",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ExpansionsList,
			},
			{
				Name:      "cards",
				Usage:     "List the cards of one expansion",
				ArgsUsage: "<expansion api id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "expansion"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.ExpansionsCards,
			},
		},
	}
}

// ExpansionsMine prints the filter options: "All" followed by each owned expansion.
func (r *Runner) ExpansionsMine(ctx context.Context, cmd *cli.Command) error {
	summaries, err := r.collection.UserExpansions(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(summaries, true)
	}
	if len(summaries) == 0 {
		return r.writePlain("You have no cards in your collection.\n")
	}

	for _, s := range summaries {
		entries := "entry"
		if s.UserCardsCount != 1 {
			entries = "entries"
		}
		r.writePlain("%4d  %-28s %-12s %d %s\n", s.ID, s.Name, s.APIID, s.UserCardsCount, entries)
	}
	return nil
}

// ExpansionsList prints the catalog's expansions.
func (r *Runner) ExpansionsList(ctx context.Context, cmd *cli.Command) error {
	expansions, err := r.collection.Expansions(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(expansions, true)
	}

	r.writePlainHeader(fmt.Sprintf("%d expansions", len(expansions)))
	for _, e := range expansions {
		r.writePlain("%-12s %-28s %-16s %3d cards  %s\n", e.APIID, e.Name, e.Series, e.TotalCards, e.ReleaseDate)
	}
	return nil
}

// ExpansionsCards prints the cards of one expansion, with the ids `collection add --card` expects.
func (r *Runner) ExpansionsCards(ctx context.Context, cmd *cli.Command) error {
	apiID := cmd.StringArg("expansion")
	if apiID == "" {
		return fmt.Errorf("%w: expansion api id (see `tcgtrack expansions list`)", shared.ErrMissingArgument)
	}

	cards, err := r.collection.ExpansionCards(ctx, apiID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(cards, true)
	}

	for _, c := range cards {
		r.writePlain("%6d  #%-5s %-28s %s\n", c.ID, c.Number, c.Name, c.Rarity)
	}
	return nil
}
