package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dshills/keystorm-sourceview/internal/app"
	"github.com/dshills/keystorm-sourceview/internal/menu"
	"github.com/dshills/keystorm-sourceview/internal/sourceview"
	"github.com/dshills/keystorm-sourceview/internal/workspace"
)

const replHelp = `Commands:
  open <path>           open a file in a new leaf
  split                 open the active file in another leaf
  activate <n>          focus leaf n (see views)
  close [n]             close leaf n, or the active leaf
  toggle                run "` + sourceview.CommandToggleTitle + `"
  menu <path>           show the file menu of path
  click <n>             click item n of the last menu
  views                 list open leaves
  paths                 list files that open in source view
  commands              list available commands
  rename <old> <new>    rename a file
  delete <path>         delete a file
  lua <code>            run a line of Lua
  run <file>            run a Lua script
  help                  show this help
  quit                  leave
`

var errQuit = errors.New("quit")

type repl struct {
	app    *app.Application
	in     *bufio.Scanner
	out    io.Writer
	prompt bool

	menu *menu.Menu
}

func newREPL(application *app.Application, in io.Reader, out io.Writer) *repl {
	return &repl{
		app: application,
		in:  bufio.NewScanner(in),
		out: out,
	}
}

func (r *repl) run(ctx context.Context) error {
	for {
		if r.prompt {
			fmt.Fprint(r.out, "sourceview> ")
		}
		if !r.in.Scan() {
			return r.in.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fields := strings.Fields(r.in.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		err := r.exec(ctx, fields[0], fields[1:], r.in.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
	}
}

func (r *repl) exec(ctx context.Context, name string, args []string, line string) error {
	ws := r.app.Workspace()

	switch name {
	case "quit", "exit":
		return errQuit

	case "help":
		fmt.Fprint(r.out, replHelp)
		return nil

	case "open":
		if len(args) != 1 {
			return errors.New("usage: open <path>")
		}
		return r.do(ctx, func(ctx context.Context) error {
			_, err := ws.Open(ctx, args[0])
			return err
		})

	case "split":
		return r.do(ctx, func(ctx context.Context) error {
			_, err := ws.Split(ctx)
			return err
		})

	case "activate":
		if len(args) != 1 {
			return errors.New("usage: activate <n>")
		}
		return r.do(ctx, func(ctx context.Context) error {
			leaf, err := r.leafAt(args[0])
			if err != nil {
				return err
			}
			return ws.Activate(ctx, leaf.ID())
		})

	case "close":
		return r.do(ctx, func(ctx context.Context) error {
			var leaf *workspace.Leaf
			if len(args) == 0 {
				active, ok := ws.ActiveLeaf()
				if !ok {
					return workspace.ErrNoActiveLeaf
				}
				leaf = active
			} else {
				var err error
				if leaf, err = r.leafAt(args[0]); err != nil {
					return err
				}
			}
			return ws.Close(ctx, leaf.ID())
		})

	case "toggle":
		return r.do(ctx, func(ctx context.Context) error {
			return r.app.Commands().Execute(ctx, sourceview.CommandToggle)
		})

	case "menu":
		if len(args) != 1 {
			return errors.New("usage: menu <path>")
		}
		return r.do(ctx, func(ctx context.Context) error {
			m, err := ws.FileMenu(ctx, args[0])
			if err != nil {
				return err
			}
			r.menu = m
			if m.Len() == 0 {
				fmt.Fprintln(r.out, "(no items)")
			}
			for i, item := range m.Items() {
				fmt.Fprintf(r.out, "%d. [%s] %s\n", i+1, item.Icon(), item.Title())
			}
			return nil
		})

	case "click":
		if len(args) != 1 {
			return errors.New("usage: click <n>")
		}
		if r.menu == nil {
			return errors.New("no menu shown")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("bad item number %q", args[0])
		}
		m := r.menu
		r.menu = nil
		return r.do(ctx, func(context.Context) error {
			return m.Click(n - 1)
		})

	case "views":
		return r.do(ctx, func(context.Context) error {
			active, _ := ws.ActiveLeaf()
			for i, leaf := range ws.Leaves() {
				mark := " "
				if leaf == active {
					mark = "*"
				}
				state := leaf.ViewState()
				fmt.Fprintf(r.out, "%s%d. %s  %s/%s source=%t\n",
					mark, i+1, leaf.Document().Path, state.Type, state.Mode, state.Source)
			}
			return nil
		})

	case "paths":
		return r.do(ctx, func(context.Context) error {
			for _, p := range r.app.Tracker().Paths() {
				fmt.Fprintln(r.out, p)
			}
			return nil
		})

	case "commands":
		return r.do(ctx, func(context.Context) error {
			for _, cmd := range r.app.Commands().Available() {
				fmt.Fprintf(r.out, "%s  %s\n", cmd.ID, cmd.Title)
			}
			return nil
		})

	case "rename":
		if len(args) != 2 {
			return errors.New("usage: rename <old> <new>")
		}
		return r.do(ctx, func(ctx context.Context) error {
			return ws.Rename(ctx, args[0], args[1])
		})

	case "delete":
		if len(args) != 1 {
			return errors.New("usage: delete <path>")
		}
		return r.do(ctx, func(ctx context.Context) error {
			return ws.Delete(ctx, args[0])
		})

	case "lua":
		code := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "lua"))
		if code == "" {
			return errors.New("usage: lua <code>")
		}
		return r.app.RunScript(ctx, "repl", code)

	case "run":
		if len(args) != 1 {
			return errors.New("usage: run <file>")
		}
		src, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		return r.app.RunScript(ctx, args[0], string(src))

	default:
		return fmt.Errorf("unknown command %q (try help)", name)
	}
}

// do runs fn on the application loop. The loop runs the views' deferred
// updates before the next command.
func (r *repl) do(ctx context.Context, fn func(context.Context) error) error {
	return r.app.Do(ctx, fn)
}

// leafAt resolves a 1-based leaf number from the views listing.
func (r *repl) leafAt(s string) (*workspace.Leaf, error) {
	n, err := strconv.Atoi(s)
	leaves := r.app.Workspace().Leaves()
	if err != nil || n < 1 || n > len(leaves) {
		return nil, fmt.Errorf("%w: %s", workspace.ErrLeafNotFound, s)
	}
	return leaves[n-1], nil
}
