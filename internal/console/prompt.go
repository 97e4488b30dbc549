package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Prompter gathers interactive answers. Code below the command layer
// only ever sees this interface, which keeps confirmation flows
// testable without a terminal.
type Prompter interface {
	AskString(prompt, defaultValue string) (string, error)
	AskInt(prompt string, defaultValue int) (int, error)
	Confirm(prompt string) (bool, error)
}

// TerminalPrompter reads answers line by line from an input stream,
// normally stdin.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompter() *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

// NewPrompterFrom is the injectable variant used by tests.
func NewPrompterFrom(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(in), out: out}
}

// AskString prompts and returns the trimmed answer, or the default when
// the answer is empty.
func (p *TerminalPrompter) AskString(prompt, defaultValue string) (string, error) {
	if defaultValue != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", prompt, defaultValue)
	} else {
		fmt.Fprintf(p.out, "%s: ", prompt)
	}

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading answer: %w", err)
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return defaultValue, nil
	}
	return line, nil
}

// AskInt prompts until the answer parses as an integer. An empty answer
// takes the default.
func (p *TerminalPrompter) AskInt(prompt string, defaultValue int) (int, error) {
	for {
		answer, err := p.AskString(prompt, strconv.Itoa(defaultValue))
		if err != nil {
			return 0, err
		}

		value, err := strconv.Atoi(answer)
		if err != nil {
			fmt.Fprintln(p.out, "Please enter a whole number.")
			continue
		}
		return value, nil
	}
}

// Confirm asks a yes/no question. Anything but an explicit yes is no.
func (p *TerminalPrompter) Confirm(prompt string) (bool, error) {
	answer, err := p.AskString(prompt+" [y/N]", "")
	if err != nil {
		return false, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
