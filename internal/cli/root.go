package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idilsaglam/themenu/internal/client"
	"github.com/idilsaglam/themenu/internal/config"
	"github.com/idilsaglam/themenu/internal/logging"
	"github.com/idilsaglam/themenu/internal/store/credstore"
	"github.com/idilsaglam/themenu/internal/togglesync"
	"github.com/idilsaglam/themenu/internal/ui"
)

// App is the state shared by all subcommands of one invocation.
type App struct {
	v     *viper.Viper
	cfg   config.Config
	log   *slog.Logger
	creds credstore.Store

	// HTTPClient is used for every request; nil means a default client.
	HTTPClient *http.Client

	logFile io.Closer
	client  *client.Client
	syncer  *togglesync.Syncer
}

func NewApp() *App {
	return &App{v: config.NewViper(), log: logging.Discard()}
}

func NewRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "themenu",
		Short:         "Command line client for the themenu meal planner",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Mark dish 5 of meal 2 as made
  themenu course set 5 2 made

  # Un-tick a grocery item
  themenu grocery set 9 produce --checked=false

  # Work through the grocery list interactively
  themenu groceries

  # Find dishes
  themenu search pasta
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.String(config.KeyBaseURL, "", "server base url (env THEMENU_BASE_URL)")
	pf.String(config.KeyCSRFCookie, "", "name of the anti-forgery cookie")
	pf.Duration(config.KeyTimeout, 0, "request timeout")
	pf.String(config.KeyLogLevel, "", "log level (debug|info|warn|error)")
	pf.BoolP(config.KeyVerbose, "v", false, "also log to stderr")
	pf.String(config.KeyTheme, "", "output theme (classic|neon|mono)")
	for _, k := range []string{config.KeyBaseURL, config.KeyCSRFCookie, config.KeyTimeout, config.KeyLogLevel, config.KeyVerbose, config.KeyTheme} {
		_ = app.v.BindPFlag(k, pf.Lookup(k))
	}

	cmd.AddCommand(newCourseCmd(app))
	cmd.AddCommand(newGroceryCmd(app))
	cmd.AddCommand(newBindCmd(app))
	cmd.AddCommand(newGroceriesCmd(app))
	cmd.AddCommand(newSearchCmd(app))
	cmd.AddCommand(newIngredientsCmd(app))
	cmd.AddCommand(newAuthCmd(app))
	return cmd
}

// Execute runs the command line and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	app := NewApp()
	defer app.Close()
	return run(app, args, stdout, stderr)
}

func run(app *App, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd(app)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		ui.Fail(stderr, err.Error())
		return 1
	}
	return 0
}

func (app *App) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(app.v)
	if err != nil {
		return err
	}
	app.cfg = cfg
	ui.SetTheme(cfg.Theme)

	logger, f, err := logging.Setup(cfg.LogLevel, cfg.Verbose, cmd.ErrOrStderr())
	if err != nil {
		// Logging is not worth failing a command over.
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Current().Muted.Render("logging disabled: "+err.Error()))
		return nil
	}
	app.log, app.logFile = logger, f
	return nil
}

// Close waits for outstanding updates and their log records, then closes
// the log file.
func (app *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), app.timeout())
	defer cancel()
	if app.client != nil {
		if err := app.client.Drain(ctx); err != nil {
			app.log.Warn("updates still in flight at exit", "err", err)
		}
	}
	if app.syncer != nil {
		if err := app.syncer.Drain(ctx); err != nil {
			app.log.Warn("update outcomes not logged before exit", "err", err)
		}
	}
	if app.logFile != nil {
		_ = app.logFile.Close()
	}
}

func (app *App) timeout() time.Duration {
	if app.cfg.Timeout > 0 {
		return app.cfg.Timeout
	}
	return client.DefaultTimeout
}

// Client returns the server client. A token stored for this server is sent
// as both cookie and header; otherwise the server is asked for one.
func (app *App) Client(ctx context.Context) (*client.Client, error) {
	if app.client != nil {
		return app.client, nil
	}
	hc := app.httpClient()
	creds, err := app.creds.Get()
	if err != nil {
		return nil, err
	}
	if creds != nil && creds.BaseURL != "" && !sameServer(creds.BaseURL, app.cfg.BaseURL) {
		app.log.Warn("stored token belongs to another server, asking this one",
			"stored", creds.BaseURL, "base_url", app.cfg.BaseURL)
		creds = nil
	}

	var cctx client.Context
	if creds != nil {
		cctx, err = client.NewContext(app.cfg.BaseURL, creds.CSRFToken)
		if err != nil {
			return nil, err
		}
		hc.Jar, err = client.NewJar(cctx.BaseURL, map[string]string{
			app.cfg.CSRFCookie:       creds.CSRFToken,
			client.SessionCookieName: creds.SessionID,
		})
	} else {
		app.log.Debug("no stored token, asking the server", "base_url", app.cfg.BaseURL)
		cctx, hc.Jar, err = client.Bootstrap(ctx, hc, app.cfg.BaseURL, app.cfg.CSRFCookie)
	}
	if err != nil {
		return nil, err
	}
	app.client = client.New(cctx, hc, app.log)
	return app.client, nil
}

func (app *App) Syncer(ctx context.Context) (*togglesync.Syncer, error) {
	if app.syncer != nil {
		return app.syncer, nil
	}
	c, err := app.Client(ctx)
	if err != nil {
		return nil, err
	}
	app.syncer = togglesync.New(c, togglesync.DefaultRegistry(), app.log)
	return app.syncer, nil
}

func sameServer(a, b string) bool {
	return strings.EqualFold(strings.TrimRight(strings.TrimSpace(a), "/"), strings.TrimRight(strings.TrimSpace(b), "/"))
}

func (app *App) httpClient() *http.Client {
	hc := &http.Client{}
	if app.HTTPClient != nil {
		c := *app.HTTPClient
		hc = &c
	}
	hc.Timeout = app.timeout()
	return hc
}

// loadPage parses a local HTML file when file is set, otherwise fetches path
// from the server.
func (app *App) loadPage(ctx context.Context, path, file string) (*goquery.Document, error) {
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		doc, err := goquery.NewDocumentFromReader(f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		return doc, nil
	}
	if path == "" {
		return nil, errors.New("need a page path or --file")
	}
	c, err := app.Client(ctx)
	if err != nil {
		return nil, err
	}
	return c.Page(ctx, path, nil)
}
