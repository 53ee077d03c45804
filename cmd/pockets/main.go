package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/term"

	"github.com/hpungsan/pockets/internal/branchlink"
	"github.com/hpungsan/pockets/internal/config"
	"github.com/hpungsan/pockets/internal/db"
	"github.com/hpungsan/pockets/internal/engine"
	"github.com/hpungsan/pockets/internal/gitbranch"
	"github.com/hpungsan/pockets/internal/host"
	"github.com/hpungsan/pockets/internal/mcp"
	"github.com/hpungsan/pockets/internal/prompt"
	"github.com/hpungsan/pockets/internal/session"
	"github.com/hpungsan/pockets/internal/web"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"list": true, "show": true, "create": true, "save": true,
	"restore": true, "rename": true, "remove": true, "move": true,
	"link": true, "unlink": true,
	"export": true, "import": true,
	"watch": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode(args []string) bool {
	if len(args) < 2 {
		return false
	}
	arg := args[1]
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion(args []string) bool {
	if len(args) < 2 {
		return false
	}
	arg := args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// newLogger logs to stderr: text for a person at a terminal, JSON otherwise.
func newLogger(level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if isTerminal(os.Stderr) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func printBanner() {
	fmt.Println(`
   _ __   ___   ___| | _____| |_ ___
  | '_ \ / _ \ / __| |/ / _ \ __/ __|
  | |_) | (_) | (__|   <  __/ |_\__ \
  | .__/ \___/ \___|_|\_\___|\__|___/
  |_|

  Saved editor tab layouts

  Usage: pockets <command> [options]
         pockets --help

  MCP server mode requires piped input.`)
}

// runtimeEnv is everything the commands run against.
type runtimeEnv struct {
	eng      *engine.Engine
	cfg      *config.Config
	branches host.BranchSource
	prompter host.Prompter
	changes  *web.Changes
	logger   *slog.Logger
}

// setup wires the stores and host adapters for the workspace at root.
// The returned func releases them.
func setup(ctx context.Context, baseDir, root string, interactive bool) (*runtimeEnv, func(), error) {
	cfg, err := config.LoadWithRepo(baseDir, root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg.SlogLevel())

	database, err := db.Init(baseDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	db.ConfigurePool(database, cfg)

	branches := gitbranch.New(root, logger)
	changes := web.NewChanges()

	eng := engine.New(engine.Options{
		Store:  db.NewStateStore(database, root),
		Editor: session.NewEditor(cfg.SessionPath(root), logger),
		Notifier: host.Notifiers{
			changes,
			host.NotifierFunc(func() { logger.Debug("pockets changed") }),
		},
		Logger:   logger,
		Root:     root,
		StateKey: cfg.StateKey,
	})
	if err := eng.Load(ctx); err != nil {
		closeAll(database, branches)
		return nil, nil, fmt.Errorf("failed to load pockets: %w", err)
	}

	var prompter host.Prompter = prompt.Disabled{}
	if interactive {
		prompter = prompt.NewTerminal(os.Stdin, os.Stderr)
	}

	env := &runtimeEnv{
		eng:      eng,
		cfg:      cfg,
		branches: branches,
		prompter: prompter,
		changes:  changes,
		logger:   logger,
	}
	return env, func() { closeAll(database, branches) }, nil
}

func closeAll(database *sql.DB, branches *gitbranch.Source) {
	_ = branches.Close()
	_ = database.Close()
}

// serveMCP runs the MCP server on stdio. Checking out a linked branch
// restores its pocket while the server runs.
func serveMCP(env *runtimeEnv) error {
	if unknown := mcp.ValidateDisabledTools(env.cfg.DisabledTools); len(unknown) > 0 {
		env.logger.Warn("unknown tools in disabled_tools", "tools", unknown)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		if err := branchlink.NewCoordinator(env.eng, env.logger).Watch(ctx, env.branches); err != nil {
			env.logger.Warn("branch watch unavailable", "error", err)
		}
	}()

	return mcp.Run(mcp.Deps{
		Engine:   env.eng,
		Config:   env.cfg,
		Branches: env.branches,
		Logger:   env.logger,
	}, Version)
}

func main() {
	if len(os.Args) < 2 && isTerminal(os.Stdin) {
		printBanner()
		return
	}

	// Handle --help/--version before any setup
	if isHelpOrVersion(os.Args) {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if len(os.Args) >= 2 && !isCLIMode(os.Args) && isTerminal(os.Stdin) {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'pockets --help' for usage.\n")
		os.Exit(1)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}
	root, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine workspace root: %v\n", err)
		os.Exit(1)
	}

	cliMode := isCLIMode(os.Args)
	env, cleanup, err := setup(context.Background(), filepath.Join(homeDir, config.RepoDirName), root, cliMode && isTerminal(os.Stdin))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if cliMode {
		err = newCLIApp(env).Run(os.Args)
	} else {
		err = serveMCP(env)
	}
	cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
