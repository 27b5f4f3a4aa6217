package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/themenu/internal/client"
	"github.com/idilsaglam/themenu/internal/model"
	"github.com/idilsaglam/themenu/internal/ui"
)

func newCourseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "course",
		Short: "Dish attributes of a meal (made, ordered, ...)",
	}
	var (
		checked bool
		wait    bool
	)
	set := &cobra.Command{
		Use:   "set <dish-id> <meal-id> <attribute>",
		Short: "Set one dish attribute",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := model.ToggleTarget{
				Kind:      model.KindDishAttribute,
				EntityID:  model.ID(args[0]),
				MealID:    model.ID(args[1]),
				Attribute: args[2],
			}
			return sendToggle(cmd, app, t, checked, wait)
		},
	}
	set.Flags().BoolVar(&checked, "checked", true, "new state")
	set.Flags().BoolVar(&wait, "wait", false, "wait for the server and report the outcome")
	cmd.AddCommand(set)
	return cmd
}

func newGroceryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grocery",
		Short: "Grocery list items",
	}
	var (
		checked bool
		wait    bool
	)
	set := &cobra.Command{
		Use:   "set <grocery-id> <grocery-type>",
		Short: "Mark a grocery item purchased or not",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := model.ToggleTarget{
				Kind:        model.KindGroceryItem,
				EntityID:    model.ID(args[0]),
				GroceryType: args[1],
			}
			return sendToggle(cmd, app, t, checked, wait)
		},
	}
	set.Flags().BoolVar(&checked, "checked", true, "new state")
	set.Flags().BoolVar(&wait, "wait", false, "wait for the server and report the outcome")
	cmd.AddCommand(set)
	return cmd
}

// sendToggle fires one update. Without --wait the outcome is not reported,
// matching the page behavior; the request still completes before exit.
func sendToggle(cmd *cobra.Command, app *App, t model.ToggleTarget, checked, wait bool) error {
	ctx := cmd.Context()
	s, err := app.Syncer(ctx)
	if err != nil {
		return err
	}
	f := s.Sync(t, model.ToggleState(checked))
	if !wait {
		ui.OK(cmd.OutOrStdout(), "sent")
		return nil
	}
	return report(ctx, cmd, app, f)
}

func report(ctx context.Context, cmd *cobra.Command, app *App, f *client.Future) error {
	ctx, cancel := context.WithTimeout(ctx, app.timeout())
	defer cancel()
	res, err := f.Wait(ctx)
	if err != nil {
		return err
	}
	ui.OK(cmd.OutOrStdout(), "saved ("+strconv.Itoa(res.StatusCode)+")")
	return nil
}

func newBindCmd(app *App) *cobra.Command {
	var (
		selector string
		kind     string
		file     string
		toggles  []int
		wait     bool
	)
	cmd := &cobra.Command{
		Use:   "bind [page-path]",
		Short: "List the toggle controls on a page, optionally toggling some",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			doc, err := app.loadPage(ctx, path, file)
			if err != nil {
				return err
			}
			s, err := app.Syncer(ctx)
			if err != nil {
				return err
			}
			b, err := s.Bind(doc.Selection, selector, model.Kind(kind))
			if err != nil {
				return err
			}
			var futures []*client.Future
			for _, i := range toggles {
				f, err := b.Toggle(i)
				if err != nil {
					return err
				}
				futures = append(futures, f)
			}

			lines := []string{ui.Current().Title.Render(fmt.Sprintf("%s  %s (%d)", selector, kind, b.Len()))}
			for i := 0; i < b.Len(); i++ {
				t, err := b.Target(i)
				if err != nil {
					return err
				}
				lines = append(lines, fmt.Sprintf("%2d %s %s", i, ui.Box(b.Checked(i)), describeTarget(t)))
			}
			ui.Panel(cmd.OutOrStdout(), lines)

			if wait {
				for _, f := range futures {
					if err := report(ctx, cmd, app, f); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&selector, "selector", ".course-checkbox", "css selector of the controls")
	cmd.Flags().StringVar(&kind, "kind", string(model.KindDishAttribute), "control kind (dish-attribute|grocery-item)")
	cmd.Flags().StringVar(&file, "file", "", "read the page from a local html file")
	cmd.Flags().IntSliceVar(&toggles, "toggle", nil, "indexes of controls to toggle")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for toggles and report the outcome")
	return cmd
}

func describeTarget(t model.ToggleTarget) string {
	switch t.Kind {
	case model.KindDishAttribute:
		return fmt.Sprintf("dish %s meal %s %s", t.EntityID, t.MealID, t.Attribute)
	case model.KindGroceryItem:
		return fmt.Sprintf("grocery %s (%s)", t.EntityID, t.GroceryType)
	}
	return string(t.Kind) + " " + t.EntityID.String()
}
