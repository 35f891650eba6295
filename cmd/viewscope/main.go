package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sambeau/viewscope/config"
	"github.com/sambeau/viewscope/pkg/viewscope/builtins"
	"github.com/sambeau/viewscope/pkg/viewscope/cast"
	"github.com/sambeau/viewscope/pkg/viewscope/item"
	"github.com/sambeau/viewscope/pkg/viewscope/logging"
	"github.com/sambeau/viewscope/pkg/viewscope/lookup"
	"github.com/sambeau/viewscope/pkg/viewscope/presenter"
	"github.com/sambeau/viewscope/pkg/viewscope/provider"
	"github.com/sambeau/viewscope/pkg/viewscope/repl"
	"github.com/sambeau/viewscope/pkg/viewscope/source"
	"github.com/sambeau/viewscope/server"
)

// Version is set at build time via -ldflags
var Version = "0.1.0-dev"

// stdin feeds the REPL
var stdin io.Reader = os.Stdin

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// options are the flags shared by the REPL and serve.
type options struct {
	configPath string
	dataFile   string
	eval       string
	watch      bool
}

// run is the main entry point, designed for testability (Mat Ryer pattern)
func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	serve := len(args) > 0 && args[0] == "serve"
	name := "viewscope"
	if serve {
		args, name = args[1:], "viewscope serve"
	}

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(stderr)
	var opts options
	flags.StringVar(&opts.configPath, "config", "", "Path to config file")
	flags.StringVar(&opts.dataFile, "data", "", "YAML data file for the root item (overrides data.file)")
	flags.BoolVar(&opts.watch, "watch", false, "Reload the data and template files when they change (serve)")
	if !serve {
		flags.StringVar(&opts.eval, "e", "", "Render template text once and exit")
	}
	var (
		showVersion = flags.Bool("version", false, "Show version")
		showHelp    = flags.Bool("help", false, "Show help")
	)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *showHelp {
		printUsage(stdout)
		return nil
	}
	if *showVersion {
		fmt.Fprintf(stdout, "viewscope version %s\n", Version)
		return nil
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(opts.configPath, getenv)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.dataFile != "" {
		cfg.Data.File = opts.dataFile
	}

	logOut, closeLog, err := logging.Open(cfg.Logging.Output, stdout, stderr)
	if err != nil {
		return err
	}
	defer closeLog()
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	log := logging.New(logOut, level, cfg.Logging.Format)

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}

	switch {
	case serve:
		return app.serve(ctx, opts.watch)
	case opts.eval != "":
		p, err := app.presenter()
		if err != nil {
			return err
		}
		out, err := lookup.Interpolate(p, opts.eval)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, out)
		return nil
	}

	p, err := app.presenter()
	if err != nil {
		return err
	}
	repl.Start(stdin, stdout, p, Version)
	return nil
}

// app is the wired engine: registries, root item and logger.
type app struct {
	cfg   *config.Config
	log   *logging.Logger
	reg   *provider.Registry
	casts *cast.Registry
	root  *item.Map
}

func newApp(ctx context.Context, cfg *config.Config, log *logging.Logger) (*app, error) {
	a := &app{
		cfg: cfg,
		log: log,
		reg: provider.NewRegistry(
			provider.WithDefaultCast(cfg.Presenter.DefaultCast),
			provider.WithLogger(log),
		),
		casts: cast.NewRegistry(
			cast.WithLocale(cfg.Site.Locale),
			cast.WithCurrency(cfg.Site.Currency),
		),
	}

	site := builtins.NewSite(
		builtins.WithBaseURL(cfg.Site.BaseURL),
		builtins.WithAbsoluteBaseURL(cfg.Site.AbsoluteBaseURL),
		builtins.WithLocale(cfg.Site.Locale),
		builtins.WithModules(cfg.Modules),
	)
	if err := builtins.Register(a.reg, site, cfg.Globals, log); err != nil {
		return nil, err
	}

	root, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	a.root = root
	return a, nil
}

func (a *app) load(ctx context.Context) (*item.Map, error) {
	return source.Load(ctx, source.Options{
		File:   a.cfg.Data.File,
		Driver: a.cfg.Data.Driver,
		DSN:    a.cfg.Data.DSN,
		Lists:  a.cfg.Data.Lists,
	}, a.log)
}

func (a *app) presenter() (*presenter.Presenter, error) {
	return presenter.New(a.root, nil, nil, a.reg,
		presenter.WithCasts(a.casts),
		presenter.WithDefaultCast(a.cfg.Presenter.DefaultCast),
		presenter.WithLogger(a.log),
	)
}

func (a *app) serve(ctx context.Context, watch bool) error {
	srv, err := server.New(a.cfg, a.reg, a.casts, a.root, a.log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	if watch && a.cfg.Data.File != "" {
		err := source.Watch(ctx, a.cfg.Data.File, a.log, func() {
			root, err := a.load(ctx)
			if err != nil {
				a.log.Error("reload failed", "path", a.cfg.Data.File, "error", err)
				return
			}
			srv.SetRoot(root)
			a.log.Info("data reloaded", "path", a.cfg.Data.File)
		})
		if err != nil {
			return err
		}
	}
	if watch && a.cfg.Server.Template == "" && a.cfg.Server.TemplateFile != "" {
		path := a.cfg.Server.TemplateFile
		err := source.Watch(ctx, path, a.log, func() {
			data, err := os.ReadFile(path)
			if err == nil {
				err = srv.SetTemplate(string(data))
			}
			if err != nil {
				a.log.Error("template reload failed", "path", path, "error", err)
				return
			}
			a.log.Info("template reloaded", "path", path)
		})
		if err != nil {
			return err
		}
	}

	return srv.Run(ctx)
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `viewscope - explore template scope resolution

Usage:
  viewscope [options]          Start the scope REPL
  viewscope -e TEXT [options]  Render template text once
  viewscope serve [options]    Start the preview server

Options:
  --config PATH    Path to config file (default: auto-detect)
  --data PATH      YAML data file for the root item
  -e TEXT          Render template text and exit
  --watch          Reload data and template files on change (serve)
  --version        Show version
  --help           Show this help

Config Resolution:
  1. --config flag
  2. VIEWSCOPE_CONFIG environment variable
  3. ./viewscope.yaml
  4. built-in defaults

Examples:
  viewscope --data page.yaml
  viewscope --data page.yaml -e '<%% loop $Items %%>$Pos. $Title<%% end_loop %%>'
  viewscope serve --config site.yaml --watch

`)
}
