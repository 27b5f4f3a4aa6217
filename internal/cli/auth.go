package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/themenu/internal/client"
	"github.com/idilsaglam/themenu/internal/store/credstore"
	"github.com/idilsaglam/themenu/internal/ui"
)

func newAuthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Anti-forgery token management",
	}

	var token, session, cookies string
	login := &cobra.Command{
		Use:   "login",
		Short: "Store a token (given, copied from a browser cookie, or issued by the server)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cookies != "" {
				if token == "" {
					token = client.CookieValue(cookies, app.cfg.CSRFCookie)
				}
				if session == "" {
					session = client.CookieValue(cookies, client.SessionCookieName)
				}
				if token == "" {
					return fmt.Errorf("--cookie has no %s cookie", app.cfg.CSRFCookie)
				}
			}
			if token == "" {
				cctx, jar, err := client.Bootstrap(ctx, app.httpClient(), app.cfg.BaseURL, app.cfg.CSRFCookie)
				if err != nil {
					return err
				}
				token = cctx.Token
				for _, c := range jar.Cookies(cctx.BaseURL) {
					if c.Name == client.SessionCookieName && session == "" {
						session = c.Value
					}
				}
			}
			err := app.creds.Save(ctx, credstore.Credentials{
				BaseURL:   app.cfg.BaseURL,
				CSRFToken: token,
				SessionID: session,
			})
			if err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			ui.OK(cmd.OutOrStdout(), "logged in")
			return nil
		},
	}
	login.Flags().StringVar(&token, "token", "", "token to store instead of asking the server")
	login.Flags().StringVar(&session, "session", "", "session id to store alongside")
	login.Flags().StringVar(&cookies, "cookie", "", `browser cookie string, e.g. "csrftoken=...; sessionid=..."`)

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.creds.Get()
			if err != nil {
				return err
			}
			if c != nil && c.Source == "env" {
				ui.OK(cmd.OutOrStdout(), "token is provided by "+credstore.EnvToken+" (nothing to delete)")
				return nil
			}
			if err := app.creds.Delete(cmd.Context()); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			ui.OK(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show where the token comes from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			c, err := app.creds.Get()
			if err != nil {
				return err
			}
			if c == nil {
				fmt.Fprintln(out, ui.Current().Muted.Render("not logged in"))
				fmt.Fprintln(out, "Run: themenu auth login")
				return nil
			}
			lines := []string{"source: " + c.Source}
			if c.BaseURL != "" {
				lines = append(lines, "server: "+c.BaseURL)
			}
			if !c.CreatedAt.IsZero() {
				lines = append(lines, "saved: "+c.CreatedAt.UTC().Format(time.RFC3339))
			}
			lines = append(lines, "env override: "+credstore.EnvToken)
			ui.Panel(out, lines)
			return nil
		},
	}

	cmd.AddCommand(login, logout, status)
	return cmd
}
