package fakes

import (
	"strings"

	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/shell"
)

// FakeResult is one scripted outcome for a command line.
type FakeResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error

	// StderrLines are replayed through the RunStream callback.
	StderrLines []string

	// Sticky results are returned every time instead of being consumed.
	Sticky bool
}

// FakeRunner scripts command results by full command line and records
// every invocation for assertions.
type FakeRunner struct {
	Results map[string][]FakeResult
	Calls   []string
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{Results: map[string][]FakeResult{}}
}

// AddResult queues a result for the given command line. Multiple
// results for the same line are consumed in order.
func (r *FakeRunner) AddResult(cmdLine string, result FakeResult) {
	r.Results[cmdLine] = append(r.Results[cmdLine], result)
}

func (r *FakeRunner) Run(name string, args ...string) (shell.Result, error) {
	result := r.next(shell.CommandLine(name, args...))
	return shell.Result{Stdout: result.Stdout, Stderr: result.Stderr, ExitCode: result.ExitCode}, result.Err
}

func (r *FakeRunner) RunStream(onStderrLine func(string), name string, args ...string) (shell.Result, error) {
	result := r.next(shell.CommandLine(name, args...))
	if onStderrLine != nil {
		for _, line := range result.StderrLines {
			onStderrLine(line)
		}
	}
	stderr := result.Stderr
	if stderr == "" && len(result.StderrLines) > 0 {
		stderr = strings.Join(result.StderrLines, "\n") + "\n"
	}
	return shell.Result{Stdout: result.Stdout, Stderr: stderr, ExitCode: result.ExitCode}, result.Err
}

// CalledWith reports whether any recorded command line starts with the
// given prefix.
func (r *FakeRunner) CalledWith(prefix string) bool {
	for _, call := range r.Calls {
		if strings.HasPrefix(call, prefix) {
			return true
		}
	}
	return false
}

func (r *FakeRunner) next(cmdLine string) FakeResult {
	r.Calls = append(r.Calls, cmdLine)

	results, found := r.Results[cmdLine]
	if !found || len(results) == 0 {
		// Unscripted commands fail loudly so tests cannot pass by accident.
		return FakeResult{ExitCode: -1, Stderr: "unscripted command: " + cmdLine}
	}

	result := results[0]
	if !result.Sticky {
		r.Results[cmdLine] = results[1:]
	}
	return result
}
