package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/pockets/internal/branchlink"
	"github.com/hpungsan/pockets/internal/engine"
	"github.com/hpungsan/pockets/internal/errors"
	"github.com/hpungsan/pockets/internal/ops"
	"github.com/hpungsan/pockets/internal/web"
)

// newCLIApp creates the CLI application with all commands. env may be nil
// when only help or version output is needed.
func newCLIApp(env *runtimeEnv) *cli.App {
	app := &cli.App{
		Name:    "pockets",
		Usage:   "Save and restore editor tab layouts",
		Version: Version,
		Commands: []*cli.Command{
			listCmd(env),
			showCmd(env),
			createCmd(env),
			saveCmd(env),
			restoreCmd(env),
			renameCmd(env),
			removeCmd(env),
			moveCmd(env),
			linkCmd(env),
			unlinkCmd(env),
			exportCmd(env),
			importCmd(env),
			watchCmd(env),
			serveCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// addressFlags select a pocket by label; a positional argument selects by id.
func addressFlags(extra ...cli.Flag) []cli.Flag {
	return append(extra, &cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Pocket label"})
}

// address returns the positional id and the --name flag.
func address(c *cli.Context) (id, name string) {
	return c.Args().First(), c.String("name")
}

func listCmd(env *runtimeEnv) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List pockets",
		Action: func(c *cli.Context) error {
			return outputJSON(c, ops.List(env.eng))
		},
	}
}

func showCmd(env *runtimeEnv) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a pocket",
		ArgsUsage: "[id]",
		Flags: addressFlags(
			&cli.BoolFlag{Name: "markdown", Aliases: []string{"m"}, Usage: "Print the outline as markdown"},
		),
		Action: func(c *cli.Context) error {
			id, name := address(c)
			output, err := ops.Show(c.Context, env.eng, env.prompter, ops.ShowInput{ID: id, Name: name})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("markdown") && !output.Cancelled {
				_, err := io.WriteString(c.App.Writer, output.Markdown)
				return err
			}
			return outputJSON(c, output)
		},
	}
}

func createCmd(env *runtimeEnv) *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a pocket",
		ArgsUsage: "[label]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "tabs", Aliases: []string{"t"}, Usage: "Fill the pocket with the open tabs"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Create(c.Context, env.eng, env.prompter, ops.CreateInput{
				Name:     c.Args().First(),
				SaveTabs: c.Bool("tabs"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func saveCmd(env *runtimeEnv) *cli.Command {
	return &cli.Command{
		Name:      "save",
		Usage:     "Save the open tabs into a pocket, replacing its content",
		ArgsUsage: "[id]",
		Flags:     addressFlags(),
		Action: func(c *cli.Context) error {
			id, name := address(c)
			output, err := ops.SaveTabs(c.Context, env.eng, env.prompter, ops.SaveTabsInput{ID: id, Name: name})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func restoreCmd(env *runtimeEnv) *cli.Command {
	return &cli.Command{
		Name:      "restore",
		Usage:     "Reopen a pocket's documents",
		ArgsUsage: "[id]",
		Flags:     addressFlags(),
		Action: func(c *cli.Context) error {
			id, name := address(c)
			output, err := ops.Restore(c.Context, env.eng, env.prompter, ops.RestoreInput{ID: id, Name: name})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func renameCmd(env *runtimeEnv) *cli.Command {
	return &cli.Command{
		Name:      "rename",
		Usage:     "Rename a pocket or compartment",
		ArgsUsage: "[id]",
		Flags: addressFlags(
			&cli.StringFlag{Name: "to", Usage: "New label (prompted for when omitted)"},
		),
		Action: func(c *cli.Context) error {
			id, name := address(c)
			output, err := ops.Rename(c.Context, env.eng, env.prompter, ops.RenameInput{
				ID:      id,
				Name:    name,
				NewName: c.String("to"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func removeCmd(env *runtimeEnv) *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove a pocket, compartment or document",
		ArgsUsage: "[id]",
		Flags:     addressFlags(),
		Action: func(c *cli.Context) error {
			id, name := address(c)
			output, err := ops.Remove(c.Context, env.eng, env.prompter, ops.RemoveInput{ID: id, Name: name})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func moveCmd(env *runtimeEnv) *cli.Command {
	return &cli.Command{
		Name:      "move",
		Usage:     "Move a node onto another node, or a pocket to the top level",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "target", Usage: "Id of the drop target (empty for the top level)"},
			&cli.IntFlag{Name: "index", Aliases: []string{"i"}, Usage: "Position in the destination (default: end)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.MoveInput{
				ID:       c.Args().First(),
				TargetID: c.String("target"),
			}
			if c.IsSet("index") {
				index := c.Int("index")
				input.Index = &index
			}
			output, err := ops.Move(c.Context, env.eng, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func linkCmd(env *runtimeEnv) *cli.Command {
	return &cli.Command{
		Name:      "link",
		Usage:     "Link a pocket to a git branch",
		ArgsUsage: "[id]",
		Flags: addressFlags(
			&cli.StringFlag{Name: "branch", Aliases: []string{"b"}, Usage: "Branch name (picked from the repository when omitted)"},
			&cli.BoolFlag{Name: "auto-close", Usage: "Close other tabs when the branch is checked out"},
		),
		Action: func(c *cli.Context) error {
			id, name := address(c)
			input := ops.LinkBranchInput{
				ID:     id,
				Name:   name,
				Branch: c.String("branch"),
			}
			if c.IsSet("auto-close") {
				autoClose := c.Bool("auto-close")
				input.AutoCloseOthers = &autoClose
			}
			output, err := ops.LinkBranch(c.Context, env.eng, env.prompter, env.branches, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func unlinkCmd(env *runtimeEnv) *cli.Command {
	return &cli.Command{
		Name:      "unlink",
		Usage:     "Remove a pocket's branch link",
		ArgsUsage: "[id]",
		Flags:     addressFlags(),
		Action: func(c *cli.Context) error {
			id, name := address(c)
			output, err := ops.UnlinkBranch(c.Context, env.eng, env.prompter, ops.UnlinkBranchInput{ID: id, Name: name})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func exportCmd(env *runtimeEnv) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export pockets to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.pockets/exports/<name>-<timestamp>.jsonl)"},
			&cli.StringFlag{Name: "id", Usage: "Export only this pocket"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, env.eng, env.cfg, ops.ExportInput{
				Path: c.String("path"),
				ID:   c.String("id"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func importCmd(env *runtimeEnv) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import pockets from a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Id collision mode: error|replace|rename"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, env.eng, env.cfg, env.logger, ops.ImportInput{
				Path: c.String("path"),
				Mode: engine.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func watchCmd(env *runtimeEnv) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Restore linked pockets as branches are checked out",
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			env.logger.Info("watching for branch changes", "links", len(env.eng.Branches()))
			if err := branchlink.NewCoordinator(env.eng, env.logger).Watch(ctx, env.branches); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

func serveCmd(env *runtimeEnv) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local pocket viewer",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Address to bind (default from config)"},
			&cli.IntFlag{Name: "port", Usage: "Port to listen on (default from config)"},
			&cli.BoolFlag{Name: "watch", Value: true, Usage: "Restore linked pockets on checkout while serving"},
		},
		Action: func(c *cli.Context) error {
			bind, port := env.cfg.WebBind, env.cfg.WebPort
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			if c.IsSet("port") {
				port = c.Int("port")
			}

			srv, err := web.NewServer(web.Deps{
				Engine:  env.eng,
				Changes: env.changes,
				Logger:  env.logger,
			}, Version, bind, port)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()
			if c.Bool("watch") {
				go func() {
					if err := branchlink.NewCoordinator(env.eng, env.logger).Watch(ctx, env.branches); err != nil {
						env.logger.Warn("branch watch unavailable", "error", err)
					}
				}()
			}
			return web.Run(ctx, srv, env.logger)
		},
	}
}

// outputJSON writes result to the app's writer as indented JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var pErr *errors.PocketsError
	if stderrors.As(err, &pErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", pErr.Code, pErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
