// Package cli is the terminal front end. Every command goes through the
// application the same way a click in the browser would: navigate, let the
// route guard decide, act on the mounted view, render.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"anoa.com/poemhub/internal/app"
	"anoa.com/poemhub/internal/config"
	"anoa.com/poemhub/internal/router"
	"anoa.com/poemhub/internal/view"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// Opener builds the application once the global flags are parsed.
type Opener func(flags *pflag.FlagSet) (*app.App, error)

type CLI struct {
	open  Opener
	app   *app.App
	in    io.Reader
	lines *bufio.Reader
	out   io.Writer
}

func New(open Opener, in io.Reader, out io.Writer) *CLI {
	return &CLI{open: open, in: in, lines: bufio.NewReader(in), out: out}
}

// Execute runs one command line. A fresh command tree is built each time so
// flag values never leak from one shell line into the next.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	root := c.rootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (c *CLI) Close() error {
	if c.app == nil {
		return nil
	}
	return c.app.Close()
}

func (c *CLI) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "poemhub",
		Short:         "Read, like and discuss poems from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			return c.ensureApp(cmd.Root().PersistentFlags())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.navigate(cmd.Context(), router.PathHome)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	config.ClientFlags(root.PersistentFlags())
	root.SetIn(c.in)
	root.SetOut(c.out)
	root.SetErr(c.out)

	root.AddCommand(
		c.openCommand(),
		c.loginCommand(),
		c.registerCommand(),
		c.logoutCommand(),
		c.whoamiCommand(),
		c.poemsCommand(),
		c.likedCommand(),
		c.searchCommand(),
		c.poemCommand(),
		c.likeCommand(),
		c.commentCommand(),
		c.dashboardCommand(),
		c.poemSaveCommand(),
		c.poemDeleteCommand(),
		c.usersCommand(),
		c.userSaveCommand(),
		c.userDeleteCommand(),
		c.profilesCommand(),
		c.profileSaveCommand(),
		c.profileDeleteCommand(),
		c.accountCommand(),
		c.shellCommand(),
	)
	return root
}

func (c *CLI) ensureApp(flags *pflag.FlagSet) error {
	if c.app != nil {
		return nil
	}
	a, err := c.open(flags)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *CLI) navigate(ctx context.Context, path string) error {
	_, err := c.app.Navigate(ctx, path)
	return err
}

// at mounts the view for path without rendering it. It fails when the guard
// sent the user somewhere else, after showing where that was.
func (c *CLI) at(ctx context.Context, path string) error {
	got, err := c.app.Visit(ctx, path)
	if err != nil {
		return err
	}
	if got != path {
		if err := c.app.Render(); err != nil {
			return err
		}
		return fmt.Errorf("%s is not available, redirected to %s", path, got)
	}
	return nil
}

// finish follows a redirect returned by an action, or renders the current
// view with the outcome of the action on it.
func (c *CLI) finish(ctx context.Context, err error) error {
	if _, ok := view.AsRedirect(err); ok {
		return c.app.Follow(ctx, err)
	}
	if rerr := c.app.Render(); err == nil {
		err = rerr
	}
	return err
}

func (c *CLI) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	line, err := c.lines.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads without echo when the input is a terminal.
func (c *CLI) promptSecret(label string) (string, error) {
	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(c.out, label)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.out)
		return string(b), err
	}
	return c.prompt(label)
}

func (c *CLI) argOrPrompt(args []string, i int, label string) (string, error) {
	if i < len(args) {
		return args[i], nil
	}
	return c.prompt(label)
}

func (c *CLI) location() string {
	if loc := c.app.Location(); loc != "" {
		return loc
	}
	return router.PathHome
}

func (c *CLI) shellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively until exit or end of input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.navigate(ctx, c.location()); err != nil {
				fmt.Fprintln(c.out, "error:", err)
			}
			for {
				fmt.Fprintf(c.out, "%s> ", c.location())
				line, err := c.lines.ReadString('\n')
				if err != nil && line == "" {
					if errors.Is(err, io.EOF) {
						fmt.Fprintln(c.out)
						return nil
					}
					return err
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}

				args, perr := shellwords.Parse(line)
				if perr != nil {
					fmt.Fprintln(c.out, "error:", perr)
					continue
				}
				if len(args) == 0 {
					continue
				}
				switch args[0] {
				case "exit", "quit":
					return nil
				case "shell":
					fmt.Fprintln(c.out, "already in the shell")
					continue
				}
				if err := c.Execute(ctx, args); err != nil {
					fmt.Fprintln(c.out, "error:", err)
				}
			}
		},
	}
}
