package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/shell"
)

var (
	successStyle = color.New(color.FgGreen)
	warningStyle = color.New(color.FgYellow, color.Bold)
	errorStyle   = color.New(color.FgRed, color.Bold)
	commandStyle = color.New(color.Bold)
)

// Console writes styled status output. It is passed explicitly to
// everything that talks to the user; there is no package-level state
// beyond the color styles.
type Console struct {
	Out   io.Writer
	Err   io.Writer
	Debug bool

	interactive bool
}

// New returns a Console on stdout/stderr. Color and progress display
// switch off when stdout is not a terminal.
func New(debug bool) *Console {
	interactive := isatty.IsTerminal(os.Stdout.Fd())
	if !interactive {
		color.NoColor = true
	}
	return &Console{Out: os.Stdout, Err: os.Stderr, Debug: debug, interactive: interactive}
}

// Interactive reports whether stdout is a terminal.
func (c *Console) Interactive() bool {
	return c.interactive
}

func (c *Console) Infof(format string, args ...any) {
	fmt.Fprintf(c.Out, format+"\n", args...)
}

func (c *Console) Successf(format string, args ...any) {
	successStyle.Fprintf(c.Out, format+"\n", args...)
}

func (c *Console) Warnf(format string, args ...any) {
	warningStyle.Fprintf(c.Out, format+"\n", args...)
}

func (c *Console) Errorf(format string, args ...any) {
	errorStyle.Fprintf(c.Err, format+"\n", args...)
}

// Debugf only prints when debug mode is on.
func (c *Console) Debugf(format string, args ...any) {
	if c.Debug {
		fmt.Fprintf(c.Out, format+"\n", args...)
	}
}

// Running echoes a command line before it is executed.
func (c *Console) Running(cmdLine string) {
	commandStyle.Fprintf(c.Out, "Running: %s\n", cmdLine)
}

// Panel prints a block of captured output under a titled rule so
// command output stands apart from status messages.
func (c *Console) Panel(title, body string) {
	body = strings.TrimRight(body, "\n")
	fmt.Fprintf(c.Out, "--- %s %s\n", title, strings.Repeat("-", max(0, panelWidth-len(title)-5)))
	if body != "" {
		fmt.Fprintln(c.Out, body)
	}
	fmt.Fprintln(c.Out, strings.Repeat("-", panelWidth))
}

const panelWidth = 72

// EchoRunner wraps a Runner so every command is echoed before running
// and its captured output is shown when it fails or when debug mode is
// on. Exit-code handling stays with the caller.
type EchoRunner struct {
	Runner  shell.Runner
	Console *Console
}

func (r *EchoRunner) Run(name string, args ...string) (shell.Result, error) {
	r.Console.Running(shell.CommandLine(name, args...))

	result, err := r.Runner.Run(name, args...)
	if err != nil {
		return result, err
	}

	if r.Console.Debug || result.ExitCode != 0 {
		if result.Stdout != "" {
			r.Console.Panel("stdout", result.Stdout)
		}
		if result.Stderr != "" {
			r.Console.Panel("stderr", result.Stderr)
		}
		if result.Stdout == "" && result.Stderr == "" {
			if result.ExitCode == 0 {
				r.Console.Successf("Command succeeded")
			} else {
				r.Console.Errorf("Command failed (exit %d)", result.ExitCode)
			}
		}
	}

	return result, nil
}

// RunStream passes through without echo or panels; streaming callers
// own their own display.
func (r *EchoRunner) RunStream(onStderrLine func(string), name string, args ...string) (shell.Result, error) {
	return r.Runner.RunStream(onStderrLine, name, args...)
}
