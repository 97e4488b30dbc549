package console_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/console"
)

func TestAskString(t *testing.T) {
	for _, test := range []struct {
		name         string
		input        string
		defaultValue string
		want         string
	}{
		{name: "plain answer", input: "hello\n", want: "hello"},
		{name: "empty takes default", input: "\n", defaultValue: "fallback", want: "fallback"},
		{name: "whitespace trimmed", input: "  spaced  \n", want: "spaced"},
	} {
		t.Run(test.name, func(t *testing.T) {
			var out bytes.Buffer
			p := console.NewPrompterFrom(strings.NewReader(test.input), &out)

			got, err := p.AskString("Value", test.defaultValue)
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestAskIntRepromptsOnGarbage(t *testing.T) {
	var out bytes.Buffer
	p := console.NewPrompterFrom(strings.NewReader("abc\n42\n"), &out)

	got, err := p.AskInt("Size", 100)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Contains(t, out.String(), "Please enter a whole number.")
}

func TestAskIntDefault(t *testing.T) {
	var out bytes.Buffer
	p := console.NewPrompterFrom(strings.NewReader("\n"), &out)

	got, err := p.AskInt("Size", 166)
	require.NoError(t, err)
	assert.Equal(t, 166, got)
	assert.Contains(t, out.String(), "[166]")
}

func TestConfirm(t *testing.T) {
	for _, test := range []struct {
		input string
		want  bool
	}{
		{input: "y\n", want: true},
		{input: "yes\n", want: true},
		{input: "YES\n", want: true},
		{input: "n\n", want: false},
		{input: "\n", want: false},
		{input: "whatever\n", want: false},
	} {
		t.Run(strings.TrimSpace(test.input)+"_answer", func(t *testing.T) {
			var out bytes.Buffer
			p := console.NewPrompterFrom(strings.NewReader(test.input), &out)

			got, err := p.Confirm("Proceed?")
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestPanel(t *testing.T) {
	var out bytes.Buffer
	c := &console.Console{Out: &out, Err: &out}

	c.Panel("stderr", "dd: error writing '/dev/sdb': No space left on device\n")

	text := out.String()
	assert.Contains(t, text, "--- stderr ")
	assert.Contains(t, text, "No space left on device")
}
