package shell

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Result captures everything a finished command produced. A non-zero
// ExitCode is data, not an error; callers decide what matters.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes external commands and reports their outcome.
// Implementations return an error only when the command could not be
// started at all (binary missing, fork failure), never for a non-zero
// exit.
type Runner interface {
	// Run executes the command and waits for it to finish.
	Run(name string, args ...string) (Result, error)

	// RunStream executes the command, feeding each stderr line to
	// onStderrLine as it is produced. The full stderr is still
	// collected into the Result.
	RunStream(onStderrLine func(string), name string, args ...string) (Result, error)
}

// ExitError reports a command a caller required to succeed but which
// exited non-zero. The full Result is attached so callers can show the
// captured output.
type ExitError struct {
	Cmd    string
	Result Result
}

func NewExitError(cmd string, result Result) *ExitError {
	return &ExitError{Cmd: cmd, Result: result}
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Result.Stderr)
	if msg == "" {
		msg = strings.TrimSpace(e.Result.Stdout)
	}
	if msg == "" {
		return fmt.Sprintf("command failed: %s (exit %d)", e.Cmd, e.Result.ExitCode)
	}
	return fmt.Sprintf("command failed: %s (exit %d): %s", e.Cmd, e.Result.ExitCode, msg)
}

// CommandLine renders a command the way a user would type it.
func CommandLine(name string, args ...string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct{}

func NewExecRunner() ExecRunner {
	return ExecRunner{}
}

func (ExecRunner) Run(name string, args ...string) (Result, error) {
	cmd := exec.Command(name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	result.ExitCode, err = exitCode(err)
	if err != nil {
		return result, fmt.Errorf("running %s: %w", name, err)
	}
	return result, nil
}

func (ExecRunner) RunStream(onStderrLine func(string), name string, args ...string) (Result, error) {
	cmd := exec.Command(name, args...)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("running %s: %w", name, err)
	}
	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("running %s: %w", name, err)
	}

	var stderr strings.Builder
	scanner := bufio.NewScanner(stderrPipe)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(ScanProgressLines)
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			stderr.WriteString(line)
			stderr.WriteByte('\n')
		}
		if onStderrLine != nil {
			onStderrLine(line)
		}
	}
	// Keep the child from blocking on a full pipe if scanning stopped early.
	io.Copy(io.Discard, stderrPipe)

	err = cmd.Wait()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	result.ExitCode, err = exitCode(err)
	if err != nil {
		return result, fmt.Errorf("running %s: %w", name, err)
	}
	return result, nil
}

// exitCode maps an exec error to an exit status. A command that ran and
// exited non-zero is not an error here; anything else is.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// ScanProgressLines is a bufio.SplitFunc that ends lines on \r as well
// as \n. Tools like dd rewrite their progress line with carriage
// returns, so a newline-only scanner would sit on the whole stream
// until the command exits.
func ScanProgressLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		advance = i + 1
		if data[i] == '\r' {
			if i+1 == len(data) && !atEOF {
				// Might be the first half of \r\n; wait for more data.
				return 0, nil, nil
			}
			if i+1 < len(data) && data[i+1] == '\n' {
				advance++
			}
		}
		return advance, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
