// Command agent-tui is the CLI client: a thin adapter over the
// daemon's local transport, one cobra subcommand per RPC method.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/blang/semver"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/agent-tui/agent-tui/internal/apperr"
	"github.com/agent-tui/agent-tui/internal/config"
	"github.com/agent-tui/agent-tui/internal/router"
	"github.com/agent-tui/agent-tui/internal/transport"
	"github.com/agent-tui/agent-tui/internal/vom"
	"github.com/agent-tui/agent-tui/internal/waitengine"
)

// isTTY reports whether stdout is an interactive terminal, used to
// decide whether ls pads its columns (pretty for a human, raw
// tab-separated for a pipeline).
func isTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

// Exit codes: 0 success, 1 assertion/condition failed, 2 usage error,
// 3 daemon not reachable, 70 internal/system error (EX_SOFTWARE).
const (
	exitOK            = 0
	exitAssertFailed  = 1
	exitUsage         = 2
	exitDaemonNotUp   = 3
	exitInternalError = 70
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func newRootCmd() *cobra.Command {
	var socketPath string

	dial := func() (*transport.Client, error) {
		if socketPath == "" {
			socketPath = config.DefaultSocketPath()
		}
		c, err := transport.Dial(socketPath, 2*time.Second)
		if err != nil {
			return nil, &cliError{code: exitDaemonNotUp, err: fmt.Errorf("daemon not reachable at %s: %w (start it with `agent-tuid`)", socketPath, err)}
		}
		return c, nil
	}

	root := &cobra.Command{
		Use:           "agent-tui",
		Short:         "Drive interactive terminal programs from scripts and agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&socketPath, "socket", "", "daemon socket path (default ~/.agent-tui/daemon.sock)")

	root.AddCommand(
		runCmd(dial),
		lsCmd(dial),
		killCmd(dial),
		snapCmd(dial),
		keyCmd(dial),
		typeCmd(dial),
		fillCmd(dial),
		clickCmd(dial),
		waitCmd(dial),
		resizeCmd(dial),
		daemonCmd(dial),
	)
	return root
}

// dialFunc connects to the daemon, returning a *cliError with exitDaemonNotUp
// if it cannot.
type dialFunc func() (*transport.Client, error)

// cliError carries a process exit code alongside its message.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

func exitCodeFor(err error) int {
	var ce *cliError
	if as(err, &ce) {
		return ce.code
	}
	if appErr := apperr.As(err); appErr != nil {
		switch appErr.Category {
		case apperr.CategoryUser:
			return exitUsage
		case apperr.CategoryTimeout:
			return exitAssertFailed
		default:
			return exitInternalError
		}
	}
	return exitInternalError
}

func as(err error, target **cliError) bool {
	for err != nil {
		if ce, ok := err.(*cliError); ok {
			*target = ce
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func parseSize(s string) (cols, rows int, err error) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid size %q, want COLSxROWS", s)
	}
	cols, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	rows, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return cols, rows, nil
}

func runCmd(dial dialFunc) *cobra.Command {
	var sizeStr string
	var envPairs []string

	cmd := &cobra.Command{
		Use:   "run <cmd> [args...]",
		Short: "Spawn a new session running cmd under a PTY",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()

			env := map[string]string{}
			for _, kv := range envPairs {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return &cliError{code: exitUsage, err: fmt.Errorf("invalid --env %q, want KEY=VALUE", kv)}
				}
				env[k] = v
			}

			var size *struct {
				Cols int `json:"cols"`
				Rows int `json:"rows"`
			}
			if sizeStr != "" {
				cols, rows, err := parseSize(sizeStr)
				if err != nil {
					return &cliError{code: exitUsage, err: err}
				}
				size = &struct {
					Cols int `json:"cols"`
					Rows int `json:"rows"`
				}{Cols: cols, Rows: rows}
			}

			params := map[string]any{
				"cmd":  args[0],
				"args": args[1:],
				"env":  env,
			}
			if size != nil {
				params["size"] = size
			}

			var out struct {
				ID string `json:"id"`
			}
			if err := c.Call("session.spawn", params, &out); err != nil {
				return err
			}
			fmt.Println(out.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&sizeStr, "size", "", "terminal size as COLSxROWS (default 80x24)")
	cmd.Flags().StringArrayVar(&envPairs, "env", nil, "environment variable KEY=VALUE (repeatable)")
	return cmd
}

func lsCmd(dial dialFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List live sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()

			var out struct {
				Sessions []struct {
					ID     string `json:"id"`
					Cmd    string `json:"cmd"`
					Status string `json:"status"`
				} `json:"sessions"`
			}
			if err := c.Call("session.list", nil, &out); err != nil {
				return err
			}
			if !isTTY() {
				for _, s := range out.Sessions {
					fmt.Printf("%s\t%s\t%s\n", s.ID, s.Status, s.Cmd)
				}
				return nil
			}

			idWidth, statusWidth := runewidth.StringWidth("ID"), runewidth.StringWidth("STATUS")
			for _, s := range out.Sessions {
				idWidth = maxInt(idWidth, runewidth.StringWidth(s.ID))
				statusWidth = maxInt(statusWidth, runewidth.StringWidth(s.Status))
			}
			fmt.Println(padCell("ID", idWidth) + "  " + padCell("STATUS", statusWidth) + "  CMD")
			for _, s := range out.Sessions {
				fmt.Println(padCell(s.ID, idWidth) + "  " + padCell(s.Status, statusWidth) + "  " + s.Cmd)
			}
			return nil
		},
	}
}

// padCell right-pads s with spaces to width terminal cells, measuring
// display width rather than byte or rune count so CJK session names
// still line up.
func padCell(s string, width int) string {
	return s + strings.Repeat(" ", maxInt(0, width-runewidth.StringWidth(s)))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func killCmd(dial dialFunc) *cobra.Command {
	var signal string

	cmd := &cobra.Command{
		Use:   "kill <session-id>",
		Short: "Terminate a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			return c.Call("session.kill", map[string]string{"id": args[0], "signal": signal}, nil)
		},
	}
	cmd.Flags().StringVar(&signal, "signal", "TERM", "signal to send: TERM (graceful) or KILL (immediate)")
	return cmd
}

func snapCmd(dial dialFunc) *cobra.Command {
	var interactiveOnly bool

	cmd := &cobra.Command{
		Use:     "snap <session-id>",
		Aliases: []string{"screenshot"},
		Short:   "Render the visual object model tree for a session",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()

			var out struct {
				Tree  string `json:"tree"`
				Stats struct {
					Total       int `json:"total"`
					Interactive int `json:"interactive"`
					Cols        int `json:"cols"`
					Rows        int `json:"rows"`
				} `json:"stats"`
			}
			params := map[string]any{"id": args[0], "interactive_only": interactiveOnly}
			if err := c.Call("session.snapshot", params, &out); err != nil {
				return err
			}
			fmt.Print(out.Tree)
			fmt.Printf("(%d components, %d interactive, %dx%d)\n", out.Stats.Total, out.Stats.Interactive, out.Stats.Cols, out.Stats.Rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&interactiveOnly, "interactive-only", false, "only list interactive components")
	return cmd
}

func keyCmd(dial dialFunc) *cobra.Command {
	return &cobra.Command{
		Use:     "key <session-id> <key-name>",
		Aliases: []string{"press"},
		Short:   "Send a named key (Enter, Tab, Ctrl+C, Up, Down, ...)",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			return c.Call("session.input", map[string]string{"id": args[0], "key": args[1]}, nil)
		},
	}
}

func typeCmd(dial dialFunc) *cobra.Command {
	return &cobra.Command{
		Use:     "type <session-id> <text>",
		Aliases: []string{"input"},
		Short:   "Send literal text keystrokes",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			return c.Call("session.input", map[string]string{"id": args[0], "text": args[1]}, nil)
		},
	}
}

func fillCmd(dial dialFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "fill <session-id> <ref> <value>",
		Short: "Set the value of a focused input element",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			return c.Call("session.fill", map[string]string{"id": args[0], "ref": args[1], "value": args[2]}, nil)
		},
	}
}

func clickCmd(dial dialFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "click <session-id> <ref>",
		Short: "Activate an interactive element (sends Enter, since a PTY has no pointer)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			return c.Call("session.click", map[string]string{"id": args[0], "ref": args[1]}, nil)
		},
	}
}

func waitCmd(dial dialFunc) *cobra.Command {
	var kind string
	var substring string
	var caseSensitive bool
	var ref string
	var role string
	var name string
	var expected string
	var windowMs int
	var timeoutMs int
	var assert bool

	cmd := &cobra.Command{
		Use:   "wait <session-id>",
		Short: "Block until a condition holds or the timeout elapses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind == "" {
				return &cliError{code: exitUsage, err: fmt.Errorf("--kind is required")}
			}
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()

			cond := waitengine.Condition{
				Kind:          waitengine.Kind(kind),
				Substring:     substring,
				CaseSensitive: caseSensitive,
				Ref:           ref,
				Name:          name,
				Expected:      expected,
				WindowMs:      windowMs,
			}
			if role != "" {
				cond.Role = vom.Role(role)
			}

			params := map[string]any{
				"id":         args[0],
				"condition":  cond,
				"timeout_ms": timeoutMs,
				"assert":     assert,
			}

			var out struct {
				Satisfied  bool   `json:"satisfied"`
				Diagnostic string `json:"diagnostic"`
			}
			if err := c.Call("session.wait", params, &out); err != nil {
				return err
			}
			fmt.Println(out.Diagnostic)
			if !out.Satisfied && assert {
				return &cliError{code: exitAssertFailed, err: fmt.Errorf("condition not satisfied: %s", out.Diagnostic)}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "TextAppears|TextGone|Element|ElementGone|Focused|ValueEquals|Stable")
	cmd.Flags().StringVar(&substring, "text", "", "substring for TextAppears/TextGone")
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "match text case-sensitively")
	cmd.Flags().StringVar(&ref, "ref", "", "element ref for Element/ElementGone/Focused/ValueEquals")
	cmd.Flags().StringVar(&role, "role", "", "element role for Element/ElementGone/Focused")
	cmd.Flags().StringVar(&name, "name", "", "element name for Element/ElementGone/Focused")
	cmd.Flags().StringVar(&expected, "expected", "", "expected value for ValueEquals")
	cmd.Flags().IntVar(&windowMs, "window-ms", 300, "quiet window for Stable")
	cmd.Flags().IntVar(&timeoutMs, "timeout-ms", 5000, "overall wait timeout")
	cmd.Flags().BoolVar(&assert, "assert", false, "exit nonzero if the condition never holds")
	return cmd
}

func resizeCmd(dial dialFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "resize <session-id> <COLSxROWS>",
		Short: "Resize a session's PTY and terminal emulator",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cols, rows, err := parseSize(args[1])
			if err != nil {
				return &cliError{code: exitUsage, err: err}
			}
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			return c.Call("session.resize", map[string]any{"id": args[0], "cols": cols, "rows": rows}, nil)
		},
	}
}

func daemonCmd(dial dialFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the agent-tui daemon",
	}
	cmd.AddCommand(daemonStatusCmd(dial), daemonStopCmd(dial))
	return cmd
}

func daemonStatusCmd(dial dialFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report daemon uptime and live session count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()

			var out struct {
				Uptime   string `json:"uptime"`
				Sessions int    `json:"sessions"`
				Protocol string `json:"protocol"`
			}
			if err := c.Call("daemon.status", nil, &out); err != nil {
				return err
			}
			warnOnProtocolMismatch(out.Protocol)

			uptime, err := time.ParseDuration(out.Uptime)
			if err != nil {
				fmt.Printf("uptime=%s sessions=%d\n", out.Uptime, out.Sessions)
				return nil
			}
			fmt.Printf("started %s, %d session(s)\n", humanize.Time(time.Now().Add(-uptime)), out.Sessions)
			return nil
		},
	}
}

// warnOnProtocolMismatch prints a one-line warning to stderr when the
// daemon's protocol version differs in major component from this
// binary's, since a wire shape change between majors is the one thing
// that silently breaks an older client against a newer daemon.
func warnOnProtocolMismatch(daemonVersion string) {
	if daemonVersion == "" {
		return
	}
	dv, err := semver.Parse(daemonVersion)
	if err != nil {
		return
	}
	cv, err := semver.Parse(router.ProtocolVersion)
	if err != nil {
		return
	}
	if dv.Major != cv.Major {
		fmt.Fprintf(os.Stderr, "warning: daemon protocol %s differs from client protocol %s\n", daemonVersion, router.ProtocolVersion)
	}
}

func daemonStopCmd(dial dialFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Ask the running daemon to shut down",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()
			return c.Call("daemon.stop", nil, nil)
		},
	}
}
