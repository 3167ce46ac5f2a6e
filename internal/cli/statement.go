package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/depicta/internal/form"
	"github.com/ppiankov/depicta/internal/model"
)

var (
	stmtProperty    string
	stmtPick        string
	stmtUnknown     bool
	stmtURL         string
	stmtStatedIn    string
	stmtStatedInQID string
	stmtPages       string
)

var statementCmd = &cobra.Command{
	Use:   "statement",
	Short: "Create or delete local statements",
}

var statementAddCmd = &cobra.Command{
	Use:   "add [query]",
	Short: "Create a depicted statement",
	Long: `Add searches for the depicted item and creates a local statement for
the chosen result. Without --pick the first result is used.

Example:
  depicta statement add "house cat" --entity Q42 --pick Q146
  depicta statement add cat --entity Q42 --stated-in-qid Q5 --pages 12
  depicta statement add --entity Q42 --unknown`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatementAdd,
}

var statementDeleteCmd = &cobra.Command{
	Use:   "delete <statement-id>",
	Short: "Delete a local statement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		ed, err := a.editor(ctx)
		if err != nil {
			return err
		}
		if err := ed.DeleteStatement(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statementCmd)
	statementCmd.AddCommand(statementAddCmd, statementDeleteCmd)

	f := statementAddCmd.Flags()
	f.StringVar(&stmtProperty, "property", "", "property id (default: first configured property)")
	f.StringVar(&stmtPick, "pick", "", "item id to choose from the search results")
	f.BoolVar(&stmtUnknown, "unknown", false, `create an "unknown value" statement`)
	f.StringVar(&stmtURL, "url", "", "reference URL")
	f.StringVar(&stmtStatedIn, "stated-in", "", `search query for a "stated in" reference item`)
	f.StringVar(&stmtStatedInQID, "stated-in-qid", "", `item id of a "stated in" reference`)
	f.StringVar(&stmtPages, "pages", "", `pages of a "stated in" reference`)
}

func runStatementAdd(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	e, err := a.entity()
	if err != nil {
		return err
	}
	searcher, err := newSearch(a.cfg, a.log)
	if err != nil {
		return err
	}

	c := form.New(form.Options{
		EntityID:   e.ID,
		Properties: a.cfg.Properties,
		Limit:      a.cfg.Search.Limit,
		Searcher:   searcher,
		Creator:    a.gw,
		Logger:     a.log,
	})
	if stmtProperty != "" {
		if err := c.SelectProperty(stmtProperty); err != nil {
			return err
		}
	}

	var s model.Statement
	if stmtUnknown {
		s, err = c.SubmitUnknownValue(ctx)
	} else {
		if len(args) == 0 {
			return fmt.Errorf("a search query is required unless --unknown is set")
		}
		if err := pickItem(ctx, c, args[0]); err != nil {
			return err
		}
		if err := fillReference(ctx, c); err != nil {
			return err
		}
		s, err = c.Submit(ctx)
	}
	if err != nil {
		return err
	}

	fmt.Printf("✓ Created %s (%s)\n", s.DisplayLabel(), s.ID)
	return nil
}

func pickItem(ctx context.Context, c *form.Controller, query string) error {
	if err := c.SearchInput(ctx, query); err != nil {
		return err
	}
	results := c.Results()
	if len(results) == 0 {
		return fmt.Errorf("no items found for %q", query)
	}
	id := stmtPick
	if id == "" {
		id = results[0].ID
	}
	// page through until the picked item shows up
	for !containsResult(c, id) {
		before := len(c.Results())
		if err := c.LoadMore(ctx); err != nil {
			return err
		}
		if len(c.Results()) == before {
			return fmt.Errorf("%s is not among the results for %q", id, query)
		}
	}
	return c.SelectItem(id)
}

func containsResult(c *form.Controller, id string) bool {
	for _, r := range c.Results() {
		if r.ID == id {
			return true
		}
	}
	return false
}

func fillReference(ctx context.Context, c *form.Controller) error {
	switch {
	case stmtURL != "":
		if err := c.SetReferenceType(model.ReferenceURL); err != nil {
			return err
		}
		return c.ReferenceInput(ctx, stmtURL)
	case stmtStatedInQID != "":
		if err := c.SetReferenceType(model.ReferenceStatedIn); err != nil {
			return err
		}
		if err := c.SetQIDToggle(true); err != nil {
			return err
		}
		if err := c.ReferenceInput(ctx, strings.TrimSpace(stmtStatedInQID)); err != nil {
			return err
		}
		return c.SetPages(stmtPages)
	case stmtStatedIn != "":
		if err := c.SetReferenceType(model.ReferenceStatedIn); err != nil {
			return err
		}
		if err := c.ReferenceInput(ctx, stmtStatedIn); err != nil {
			return err
		}
		results := c.ReferenceResults()
		if len(results) == 0 {
			return fmt.Errorf("no reference items found for %q", stmtStatedIn)
		}
		if err := c.SelectReferenceItem(results[0].ID); err != nil {
			return err
		}
		return c.SetPages(stmtPages)
	}
	return nil
}
