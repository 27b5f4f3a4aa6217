package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/themenu/internal/checklist"
	"github.com/idilsaglam/themenu/internal/ingredients"
	"github.com/idilsaglam/themenu/internal/search"
	"github.com/idilsaglam/themenu/internal/togglesync"
	"github.com/idilsaglam/themenu/internal/ui"
)

func newGroceriesCmd(app *App) *cobra.Command {
	var (
		path     string
		file     string
		selector string
	)
	cmd := &cobra.Command{
		Use:   "groceries",
		Short: "Tick off the grocery list (interactive)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := app.loadPage(ctx, path, file)
			if err != nil {
				return err
			}
			s, err := app.Syncer(ctx)
			if err != nil {
				return err
			}
			w, err := checklist.New(doc.Selection, selector, togglesync.GroceryItemSpec(), s)
			if err != nil {
				return err
			}
			if w.Len() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Current().Muted.Render("grocery list is empty"))
				return nil
			}
			return checklist.Run(w, "Groceries")
		},
	}
	cmd.Flags().StringVar(&path, "path", "/grocery_list/", "grocery list page on the server")
	cmd.Flags().StringVar(&file, "file", "", "read the page from a local html file")
	cmd.Flags().StringVar(&selector, "selector", checklist.DefaultSelector, "css selector of list entries")
	return cmd
}

func newSearchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search <text...>",
		Short: "Search dishes",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			sub := search.Submit(text)
			if !sub.Navigate {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Current().Muted.Render("nothing to search for"))
				return nil
			}
			ctx := cmd.Context()
			c, err := app.Client(ctx)
			if err != nil {
				return err
			}
			app.log.Debug("search", "url", sub.URL)
			doc, err := c.Page(ctx, search.Path, search.Query(text))
			if err != nil {
				return err
			}
			dishes := search.Results(doc)
			t := ui.Current()
			lines := []string{t.Title.Render(fmt.Sprintf("%q: %d dishes", text, len(dishes)))}
			for _, d := range dishes {
				line := fmt.Sprintf("%s %s", t.Accent.Render(d.ID.String()), d.Name)
				if d.Href != "" {
					line += " " + t.Muted.Render(d.Href)
				}
				lines = append(lines, line)
			}
			ui.Panel(cmd.OutOrStdout(), lines)
			return nil
		},
	}
}

func newIngredientsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingredients",
		Short: "Ingredient rows of the dish form",
	}
	var (
		file  string
		form  string
		count int
	)
	add := &cobra.Command{
		Use:   "add-row [page-path]",
		Short: "Append ingredient rows to the dish form and print it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			doc, err := app.loadPage(cmd.Context(), path, file)
			if err != nil {
				return err
			}
			root := doc.Find(form).First()
			if root.Length() == 0 {
				return fmt.Errorf("no form matches %q", form)
			}
			f, err := ingredients.NewForm(root, ingredients.Options{})
			if err != nil {
				return err
			}
			for i := 0; i < count; i++ {
				id, err := f.AddRow()
				if err != nil {
					return err
				}
				app.log.Debug("ingredient row added", "id", id)
			}
			html, err := f.HTML()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), html)
			return nil
		},
	}
	add.Flags().StringVar(&file, "file", "", "read the page from a local html file")
	add.Flags().StringVar(&form, "form", "form", "css selector of the dish form")
	add.Flags().IntVarP(&count, "count", "n", 1, "number of rows to add")
	cmd.AddCommand(add)
	return cmd
}
